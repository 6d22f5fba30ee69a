package scheduler

import (
	"time"
)

// Config controls scheduler intervals. A zero RunInterval follows the
// commission policy, which may be reloaded while running.
type Config struct {
	RunInterval time.Duration
	SyncTimeout time.Duration
	EnabledJobs []string
}

func DefaultConfig() Config {
	return Config{
		SyncTimeout: 5 * time.Minute,
	}
}

func ProvideConfig() Config {
	return DefaultConfig()
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = defaults.SyncTimeout
	}
	return c
}
