// Package lock keeps two commission syncs from running at the same time.
package lock

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	redis "github.com/redis/go-redis/v9"
)

var (
	ErrEmptyKey      = errors.New("lock key is empty")
	ErrInvalidTTL    = errors.New("lock ttl must be positive")
	ErrNotConfigured = errors.New("lock client not configured")
)

// Guard grants exclusive runs per key. The returned release func is safe to
// call more than once; it is nil when ok is false.
type Guard interface {
	TryAcquire(ctx context.Context, key string, ttl time.Duration) (release func(), ok bool, err error)
}

const lockReleaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisGuard holds the lock in redis with SET NX so it spans processes.
type RedisGuard struct {
	client *redis.Client
	script *redis.Script
}

func NewRedisGuard(client *redis.Client) *RedisGuard {
	return &RedisGuard{
		client: client,
		script: redis.NewScript(lockReleaseScript),
	}
}

func (g *RedisGuard) TryAcquire(ctx context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if g == nil || g.client == nil {
		return nil, false, ErrNotConfigured
	}
	if err := validate(key, ttl); err != nil {
		return nil, false, err
	}

	token := uuid.NewString()
	ok, err := g.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	var once sync.Once
	release := func() {
		once.Do(func() {
			// The caller's context may already be cancelled.
			releaseCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
			defer cancel()
			_ = g.script.Run(releaseCtx, g.client, []string{key}, token).Err()
		})
	}
	return release, true, nil
}

// LocalGuard is an in-process guard for single instance deployments.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]time.Time
	now  func() time.Time
}

func NewLocalGuard() *LocalGuard {
	return &LocalGuard{
		held: map[string]time.Time{},
		now:  time.Now,
	}
}

func (g *LocalGuard) TryAcquire(_ context.Context, key string, ttl time.Duration) (func(), bool, error) {
	if err := validate(key, ttl); err != nil {
		return nil, false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	if expires, ok := g.held[key]; ok && now.Before(expires) {
		return nil, false, nil
	}
	expires := now.Add(ttl)
	g.held[key] = expires

	var once sync.Once
	release := func() {
		once.Do(func() {
			g.mu.Lock()
			defer g.mu.Unlock()
			// A lock that expired and was taken over belongs to someone else.
			if current, ok := g.held[key]; ok && current.Equal(expires) {
				delete(g.held, key)
			}
		})
	}
	return release, true, nil
}

func validate(key string, ttl time.Duration) error {
	if strings.TrimSpace(key) == "" {
		return ErrEmptyKey
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}
	return nil
}
