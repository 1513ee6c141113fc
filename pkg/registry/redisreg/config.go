package redisreg

import (
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vnykmshr/goshape/pkg/common/validation"
)

// Config holds configuration for a Redis-backed registry.
type Config struct {
	// Client is the Redis connection used for records and locks.
	Client redis.UniversalClient

	// KeyPrefix namespaces every key written by the registry (defaults to "goshape").
	KeyPrefix string

	// Timeout bounds each Redis round trip (defaults to 500ms).
	Timeout time.Duration

	// LockTTL is the lease length of a per-item lock (defaults to 5s). A holder that
	// dies mid-dispatch blocks the item for at most this long.
	LockTTL time.Duration

	// LockWait bounds how long Lock retries a held lock before giving up (defaults to 1s).
	LockWait time.Duration

	// LockRetry is the first retry interval of the lock backoff (defaults to 2ms).
	LockRetry time.Duration
}

// DefaultConfig returns a configuration with every default filled in except Client.
func DefaultConfig() Config {
	return Config{
		KeyPrefix: "goshape",
		Timeout:   500 * time.Millisecond,
		LockTTL:   5 * time.Second,
		LockWait:  time.Second,
		LockRetry: 2 * time.Millisecond,
	}
}

func validateConfig(config Config) error {
	if err := validation.ValidateNotNil("redisreg", "client", config.Client); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("redisreg", "timeout", config.Timeout); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("redisreg", "lock_ttl", config.LockTTL); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration("redisreg", "lock_wait", config.LockWait); err != nil {
		return err
	}
	return validation.ValidateNonNegativeDuration("redisreg", "lock_retry", config.LockRetry)
}

func applyConfigDefaults(config Config) Config {
	defaults := DefaultConfig()
	if config.KeyPrefix == "" {
		config.KeyPrefix = defaults.KeyPrefix
	}
	if config.Timeout == 0 {
		config.Timeout = defaults.Timeout
	}
	if config.LockTTL == 0 {
		config.LockTTL = defaults.LockTTL
	}
	if config.LockWait == 0 {
		config.LockWait = defaults.LockWait
	}
	if config.LockRetry == 0 {
		config.LockRetry = defaults.LockRetry
	}
	return config
}
