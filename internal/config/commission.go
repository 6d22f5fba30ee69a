package config

import (
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	// PolicyPaidRequired credits standard invoices only once fully paid.
	PolicyPaidRequired = "paid_required"
	// PolicyPostedOnly credits any posted invoice regardless of payment.
	PolicyPostedOnly = "posted_only"
)

type CommissionConfig struct {
	EligibilityPolicy     string           `mapstructure:"eligibilityPolicy"`
	BatchSize             int              `mapstructure:"batchSize"`
	QuantityDigits        int32            `mapstructure:"quantityDigits"`
	RateDigits            int32            `mapstructure:"rateDigits"`
	DefaultCurrencyDigits int32            `mapstructure:"defaultCurrencyDigits"`
	CurrencyDigits        map[string]int32 `mapstructure:"currencyDigits"`
	SyncInterval          time.Duration    `mapstructure:"syncInterval"`
	SyncTimeout           time.Duration    `mapstructure:"syncTimeout"`
}

func DefaultCommissionConfig() CommissionConfig {
	return CommissionConfig{
		EligibilityPolicy:     PolicyPaidRequired,
		BatchSize:             100,
		QuantityDigits:        6,
		RateDigits:            4,
		DefaultCurrencyDigits: 2,
		CurrencyDigits: map[string]int32{
			"IDR": 0,
			"JPY": 0,
		},
		SyncInterval: time.Hour,
		SyncTimeout:  5 * time.Minute,
	}
}

// DigitsForCurrency returns the rounding precision used for money in the
// given currency.
func (c CommissionConfig) DigitsForCurrency(code string) int32 {
	code = strings.ToUpper(strings.TrimSpace(code))
	for k, v := range c.CurrencyDigits {
		if strings.ToUpper(k) == code {
			return v
		}
	}
	return c.DefaultCurrencyDigits
}

func (c CommissionConfig) PostedOnly() bool {
	return c.EligibilityPolicy == PolicyPostedOnly
}

type CommissionConfigHolder struct {
	current atomic.Value // holds CommissionConfig
}

// NewCommissionConfigHolder loads commission.yml from the usual config
// locations and keeps watching it for changes.
func NewCommissionConfigHolder(log *zap.Logger) (*CommissionConfigHolder, error) {
	return newCommissionConfigHolder(log, "/etc/salescommission", ".")
}

func newCommissionConfigHolder(log *zap.Logger, paths ...string) (*CommissionConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("commission.config")

	v := viper.New()
	v.SetConfigName("commission")
	v.SetConfigType("yml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.SetEnvPrefix("SALESCOMMISSION")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultCommissionConfig()
	v.SetDefault("commission.eligibilityPolicy", defaults.EligibilityPolicy)
	v.SetDefault("commission.batchSize", defaults.BatchSize)
	v.SetDefault("commission.quantityDigits", defaults.QuantityDigits)
	v.SetDefault("commission.rateDigits", defaults.RateDigits)
	v.SetDefault("commission.defaultCurrencyDigits", defaults.DefaultCurrencyDigits)
	v.SetDefault("commission.currencyDigits", defaults.CurrencyDigits)
	v.SetDefault("commission.syncInterval", defaults.SyncInterval)
	v.SetDefault("commission.syncTimeout", defaults.SyncTimeout)

	watch := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		watch = false
		log.Info("commission.config.defaults", zap.String("reason", "commission.yml not found"))
	}

	cfg, err := decodeCommissionConfig(v)
	if err != nil {
		return nil, err
	}

	holder := &CommissionConfigHolder{}
	holder.current.Store(cfg)

	if watch {
		v.WatchConfig()
		v.OnConfigChange(func(e fsnotify.Event) {
			updated, err := decodeCommissionConfig(v)
			if err != nil {
				log.Warn("commission.config.reload_ignored", zap.String("file", e.Name), zap.Error(err))
				return
			}
			holder.current.Store(updated)
			log.Info("commission.config.reloaded",
				zap.String("file", e.Name),
				zap.String("eligibility_policy", updated.EligibilityPolicy),
			)
		})
	}

	return holder, nil
}

// NewStaticCommissionConfigHolder wraps a fixed configuration.
func NewStaticCommissionConfigHolder(cfg CommissionConfig) *CommissionConfigHolder {
	holder := &CommissionConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *CommissionConfigHolder) Get() CommissionConfig {
	return h.current.Load().(CommissionConfig)
}

// Set replaces the active configuration after validating it.
func (h *CommissionConfigHolder) Set(cfg CommissionConfig) error {
	if err := validateCommissionConfig(cfg); err != nil {
		return err
	}
	h.current.Store(cfg)
	return nil
}

func decodeCommissionConfig(v *viper.Viper) (CommissionConfig, error) {
	var cfg CommissionConfig
	if err := v.UnmarshalKey("commission", &cfg); err != nil {
		return CommissionConfig{}, err
	}
	cfg.EligibilityPolicy = strings.ToLower(strings.TrimSpace(cfg.EligibilityPolicy))
	if err := validateCommissionConfig(cfg); err != nil {
		return CommissionConfig{}, err
	}
	return cfg, nil
}

func validateCommissionConfig(cfg CommissionConfig) error {
	switch cfg.EligibilityPolicy {
	case PolicyPaidRequired, PolicyPostedOnly:
	default:
		return fmt.Errorf("commission.eligibilityPolicy %q is not supported", cfg.EligibilityPolicy)
	}
	if cfg.BatchSize <= 0 {
		return errors.New("commission.batchSize must be positive")
	}
	if cfg.QuantityDigits < 0 || cfg.RateDigits < 0 || cfg.DefaultCurrencyDigits < 0 {
		return errors.New("commission precision digits cannot be negative")
	}
	if cfg.SyncInterval <= 0 {
		return errors.New("commission.syncInterval must be positive")
	}
	return nil
}
