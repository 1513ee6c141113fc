package shaper

import (
	"time"

	"go.uber.org/zap"

	"github.com/vnykmshr/goshape/pkg/common/validation"
	"github.com/vnykmshr/goshape/pkg/metrics"
	"github.com/vnykmshr/goshape/pkg/queue"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
	"github.com/vnykmshr/goshape/pkg/registry"
)

// FlowConfig holds configuration for a flow-mode drain loop, where every
// request shares one bucket.
type FlowConfig struct {
	// Input is the queue requests are taken from.
	Input queue.Source[Request]

	// Output is the queue admitted requests are pushed to.
	Output queue.Sink[Request]

	// Rate is the sustained number of admitted requests per second.
	Rate float64

	// Burst is how many requests beyond the sustained rate may be admitted
	// back to back, as a multiple of the per-request cost.
	Burst float64

	// Halt stops the loop when set. A private, never-set Halt is used if nil.
	Halt *Halt

	// Overwrite makes a push to a full output queue evict a queued request
	// instead of failing.
	Overwrite bool

	// PollInterval is the idle wait after an empty poll (defaults to 10ms).
	// Use PollPolicy to disable or grow the wait.
	PollInterval time.Duration

	// TickResolution is the number of ticks per second (defaults to leakybucket.Microsecond).
	TickResolution int64

	// Admitter decides admission (defaults to leakybucket.DefaultAdmitter).
	Admitter leakybucket.Admitter

	// Clock is the time source (defaults to leakybucket.SystemClock).
	Clock leakybucket.Clock

	// PollPolicy overrides the idle wait derived from PollInterval.
	PollPolicy PollPolicy

	// Logger receives drop, lock and lifecycle entries (defaults to a no-op logger).
	Logger *zap.Logger

	// Metrics is the optional Prometheus registry.
	Metrics *metrics.Registry

	// Name labels log entries and metrics.
	Name string
}

// ItemsConfig holds configuration for a per-item drain loop, where each
// request is charged against the bucket of its own registry record.
type ItemsConfig struct {
	FlowConfig

	// Registry resolves request ids to bucket records.
	Registry registry.Registry

	// Shared must be set when several loops use Registry at once. Each
	// dispatch is then bracketed by the record's lock, or FallbackLock when
	// the record has none.
	Shared bool

	// FallbackLock guards records that carry no lock of their own.
	FallbackLock registry.Locker

	// LockTimeout bounds each lock acquisition (defaults to 1s).
	LockTimeout time.Duration
}

// DefaultLockTimeout is the default bound on a per-item lock acquisition.
const DefaultLockTimeout = time.Second

func validateFlowConfig(module string, config FlowConfig) error {
	if err := validation.ValidateNotNil(module, "input", config.Input); err != nil {
		return err
	}
	if err := validation.ValidateNotNil(module, "output", config.Output); err != nil {
		return err
	}
	if err := validation.ValidatePositiveFloat(module, "rate", config.Rate); err != nil {
		return err
	}
	if err := validation.ValidateNonNegative(module, "burst", config.Burst); err != nil {
		return err
	}
	if err := validation.ValidateNonNegativeDuration(module, "poll_interval", config.PollInterval); err != nil {
		return err
	}
	if config.TickResolution != 0 {
		if err := validation.ValidateInt64Range(module, "tick_resolution", config.TickResolution, 1, leakybucket.MaxResolution); err != nil {
			return err
		}
	}
	return nil
}

func applyFlowDefaults(config FlowConfig, defaultName string) FlowConfig {
	if config.Halt == nil {
		config.Halt = NewHalt()
	}
	if config.PollInterval == 0 {
		config.PollInterval = DefaultPollInterval
	}
	if config.TickResolution == 0 {
		config.TickResolution = leakybucket.DefaultResolution
	}
	if config.Admitter == nil {
		config.Admitter = leakybucket.DefaultAdmitter
	}
	if config.Clock == nil {
		config.Clock = leakybucket.SystemClock{}
	}
	if config.PollPolicy == nil {
		config.PollPolicy = ConstantPoll(config.PollInterval)
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if config.Name == "" {
		config.Name = defaultName
	}
	return config
}
