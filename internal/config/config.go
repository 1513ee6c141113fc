// Package config loads the goshape command configuration from flags, an
// optional YAML or JSON file and GOSHAPE_* environment variables, in
// decreasing order of precedence.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	gferrors "github.com/vnykmshr/goshape/pkg/common/errors"
	"github.com/vnykmshr/goshape/pkg/common/validation"
	"github.com/vnykmshr/goshape/pkg/log"
	"github.com/vnykmshr/goshape/pkg/queue"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
	"github.com/vnykmshr/goshape/pkg/report"
)

// EnvPrefix prefixes every environment override, e.g. GOSHAPE_RATE or GOSHAPE_REGISTRY_REDIS_ADDR.
const EnvPrefix = "GOSHAPE"

// Drain modes.
const (
	ModeFlow  = "flow"
	ModeItems = "items"
)

// Registry backends.
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Config is the complete command configuration.
type Config struct {
	Mode           string        `mapstructure:"mode"`
	Name           string        `mapstructure:"name"`
	Workers        int           `mapstructure:"workers"`
	Rate           float64       `mapstructure:"rate"`
	Burst          float64       `mapstructure:"burst"`
	Overwrite      bool          `mapstructure:"overwrite"`
	PollInterval   time.Duration `mapstructure:"pollInterval"`
	TickResolution int64         `mapstructure:"tickResolution"`

	// Duration stops the command after this long; zero runs until a signal.
	Duration time.Duration `mapstructure:"duration"`

	Queue    QueueConfig    `mapstructure:"queue"`
	Registry RegistryConfig `mapstructure:"registry"`
	Producer ProducerConfig `mapstructure:"producer"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Report   ReportConfig   `mapstructure:"report"`
	Log      log.Config     `mapstructure:"log"`
}

// QueueConfig sizes the input and output rings.
type QueueConfig struct {
	InputCapacity  int    `mapstructure:"inputCapacity"`
	OutputCapacity int    `mapstructure:"outputCapacity"`
	Eviction       string `mapstructure:"eviction"`
}

// RegistryConfig selects and seeds the per-item registry.
type RegistryConfig struct {
	Backend     string        `mapstructure:"backend"`
	Shared      bool          `mapstructure:"shared"`
	LockTimeout time.Duration `mapstructure:"lockTimeout"`

	// Items maps item ids to their rates. Ids read from a config file come
	// back lowercased.
	Items map[string]float64 `mapstructure:"items"`

	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig configures the redis registry backend.
type RedisConfig struct {
	Addr      string        `mapstructure:"addr"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	KeyPrefix string        `mapstructure:"keyPrefix"`
	LockTTL   time.Duration `mapstructure:"lockTTL"`
	LockWait  time.Duration `mapstructure:"lockWait"`
}

// ProducerConfig configures the synthetic request generator.
type ProducerConfig struct {
	Rate  float64 `mapstructure:"rate"`
	Burst int     `mapstructure:"burst"`

	// Keys are the request ids cycled through; empty means the registry item ids.
	Keys []string `mapstructure:"keys"`
}

// MetricsConfig configures the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Addr    string `mapstructure:"addr"`
}

// ReportConfig configures the accounting reporter.
type ReportConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Schedule string `mapstructure:"schedule"`
}

// SetDefaults registers default values for every key.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("mode", ModeFlow)
	v.SetDefault("name", "goshape")
	v.SetDefault("workers", 1)
	v.SetDefault("rate", 100.0)
	v.SetDefault("burst", 0.0)
	v.SetDefault("overwrite", false)
	v.SetDefault("pollInterval", "10ms")
	v.SetDefault("tickResolution", int64(1_000_000))
	v.SetDefault("duration", "0s")

	v.SetDefault("queue.inputCapacity", 1024)
	v.SetDefault("queue.outputCapacity", 1024)
	v.SetDefault("queue.eviction", queue.EvictNewest.String())

	v.SetDefault("registry.backend", BackendMemory)
	v.SetDefault("registry.shared", true)
	v.SetDefault("registry.lockTimeout", "1s")
	v.SetDefault("registry.redis.addr", "localhost:6379")
	v.SetDefault("registry.redis.keyPrefix", "goshape")
	v.SetDefault("registry.redis.lockTTL", "5s")
	v.SetDefault("registry.redis.lockWait", "1s")

	v.SetDefault("producer.rate", 200.0)
	v.SetDefault("producer.burst", 10)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.addr", ":9090")

	v.SetDefault("report.enabled", true)
	v.SetDefault("report.schedule", report.DefaultSchedule)

	defaults := log.DefaultConfig()
	v.SetDefault("log.level", string(defaults.Level))
	v.SetDefault("log.format", string(defaults.Format))
	v.SetDefault("log.output", string(defaults.Output))
	v.SetDefault("log.file.maxSizeMB", defaults.File.MaxSizeMB)
	v.SetDefault("log.file.maxBackups", defaults.File.MaxBackups)
}

// Flags returns the command-line flags understood by Load.
func Flags(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.StringP("config", "c", "", "path to a YAML or JSON config file")
	fs.String("mode", ModeFlow, "drain mode: flow or items")
	fs.IntP("workers", "w", 1, "number of drain loops")
	fs.Float64P("rate", "r", 100, "admitted requests per second (per item in items mode)")
	fs.Float64P("burst", "b", 0, "requests admitted back to back beyond the rate")
	fs.Bool("overwrite", false, "evict from a full output queue instead of refunding")
	fs.Duration("duration", 0, "stop after this long (0 runs until interrupted)")
	fs.String("registry-backend", BackendMemory, "per-item registry: memory or redis")
	fs.String("redis-addr", "localhost:6379", "redis address for the redis registry")
	fs.String("metrics-addr", ":9090", "address of the Prometheus endpoint")
	fs.String("log-level", "info", "log level: debug, info, warn or error")
	return fs
}

var flagKeys = map[string]string{
	"mode":             "mode",
	"workers":          "workers",
	"rate":             "rate",
	"burst":            "burst",
	"overwrite":        "overwrite",
	"duration":         "duration",
	"registry-backend": "registry.backend",
	"redis-addr":       "registry.redis.addr",
	"metrics-addr":     "metrics.addr",
	"log-level":        "log.level",
}

// Load parses args with fs, then layers the config file, environment and
// explicitly set flags over the defaults, and validates the result.
func Load(fs *pflag.FlagSet, args []string) (*Config, error) {
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for flag, key := range flagKeys {
		if f := fs.Lookup(flag); f != nil {
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", flag, err)
			}
		}
	}

	if path, _ := fs.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	return decode(v)
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	err := v.Unmarshal(&cfg, viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
		mapstructure.TextUnmarshallerHookFunc(),
	)))
	if err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration and fails on the first problem found.
func (c *Config) Validate() error {
	const module = "config"

	switch c.Mode {
	case ModeFlow, ModeItems:
	default:
		return gferrors.NewValidationError(module, "mode", c.Mode, "unknown mode").
			WithHint(fmt.Sprintf("use %q or %q", ModeFlow, ModeItems))
	}

	checks := []error{
		validation.ValidatePositive(module, "workers", c.Workers),
		validation.ValidatePositiveFloat(module, "rate", c.Rate),
		validation.ValidateNonNegative(module, "burst", c.Burst),
		validation.ValidateNonNegativeDuration(module, "pollInterval", c.PollInterval),
		validation.ValidateInt64Range(module, "tickResolution", c.TickResolution, 1, leakybucket.MaxResolution),
		validation.ValidateNonNegativeDuration(module, "duration", c.Duration),
		validation.ValidatePositive(module, "queue.outputCapacity", c.Queue.OutputCapacity),
		validation.ValidateNonNegativeDuration(module, "registry.lockTimeout", c.Registry.LockTimeout),
		validation.ValidatePositiveFloat(module, "producer.rate", c.Producer.Rate),
		validation.ValidatePositive(module, "producer.burst", c.Producer.Burst),
	}
	for _, err := range checks {
		if err != nil {
			return err
		}
	}

	if _, ok := queue.ParseEvictionPolicy(c.Queue.Eviction); !ok {
		return gferrors.NewValidationError(module, "queue.eviction", c.Queue.Eviction, "unknown policy").
			WithHint(fmt.Sprintf("use %q or %q", queue.EvictNewest, queue.EvictOldest))
	}

	switch c.Registry.Backend {
	case BackendMemory:
	case BackendRedis:
		if err := validation.ValidateNotEmpty(module, "registry.redis.addr", c.Registry.Redis.Addr); err != nil {
			return err
		}
	default:
		return gferrors.NewValidationError(module, "registry.backend", c.Registry.Backend, "unknown backend").
			WithHint(fmt.Sprintf("use %q or %q", BackendMemory, BackendRedis))
	}

	if c.Mode == ModeItems {
		if len(c.Registry.Items) == 0 {
			return gferrors.NewValidationError(module, "registry.items", nil, "items mode needs at least one item")
		}
		for id, rate := range c.Registry.Items {
			if err := validation.ValidatePositiveFloat(module, "registry.items."+id, rate); err != nil {
				return err
			}
		}
	}

	if c.Metrics.Enabled {
		if err := validation.ValidateNotEmpty(module, "metrics.addr", c.Metrics.Addr); err != nil {
			return err
		}
	}

	return c.Log.Validate()
}

// Eviction returns the parsed output eviction policy.
func (c *Config) Eviction() queue.EvictionPolicy {
	p, _ := queue.ParseEvictionPolicy(c.Queue.Eviction)
	return p
}
