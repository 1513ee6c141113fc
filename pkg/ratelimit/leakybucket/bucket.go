package leakybucket

import (
	"sync"

	"github.com/vnykmshr/goshape/pkg/common/validation"
)

// Config holds configuration options for creating a Bucket.
type Config struct {
	// Rate is the maximum number of admitted items per time unit.
	Rate float64

	// Burst is the extra allowance, in items, on top of the steady rate.
	Burst float64

	// Resolution is the number of ticks per time unit. Zero means DefaultResolution.
	Resolution int64

	// Clock provides the current time. If nil, SystemClock is used.
	Clock Clock

	// Admitter makes the decision. If nil, DefaultAdmitter is used.
	Admitter Admitter
}

// Bucket is a single leaky bucket that is safe for concurrent use. It is the
// building block for callers that need the decision without a queue loop.
type Bucket struct {
	mu       sync.Mutex
	state    State
	cost     float64
	burst    float64
	clock    TickClock
	admitter Admitter
}

// New creates a Bucket admitting rate items per second with the given burst.
func New(rate, burst float64) (*Bucket, error) {
	return NewWithConfig(Config{Rate: rate, Burst: burst})
}

// NewWithConfig creates a Bucket with the specified configuration.
func NewWithConfig(config Config) (*Bucket, error) {
	if err := validation.ValidatePositiveFloat("leakybucket", "rate", config.Rate); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegative("leakybucket", "burst", config.Burst); err != nil {
		return nil, err
	}
	if config.Resolution != 0 {
		if err := validation.ValidateInt64Range("leakybucket", "resolution", config.Resolution, 1, MaxResolution); err != nil {
			return nil, err
		}
	}
	if config.Admitter == nil {
		config.Admitter = DefaultAdmitter
	}

	clock := NewTickClock(config.Clock, config.Resolution)
	cost := ItemCost(clock.Resolution, config.Rate)

	return &Bucket{
		cost:     cost,
		burst:    BurstCredit(config.Burst, cost),
		clock:    clock,
		admitter: config.Admitter,
	}, nil
}

// Allow reports whether one item may pass now and, if so, charges the bucket.
func (b *Bucket) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	next, ok := b.admitter.Admit(b.state, b.clock.Now(), b.cost, b.burst)
	if ok {
		b.state = next
	}
	return ok
}

// Refund returns the credit of one admitted item whose delivery failed.
func (b *Bucket) Refund() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state.Credit -= b.cost
}

// State returns a copy of the current accounting.
func (b *Bucket) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Level returns the credit left in the bucket now.
func (b *Bucket) Level() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return Level(b.state, b.clock.Now())
}

// Cost returns the ticks charged per admitted item.
func (b *Bucket) Cost() float64 {
	return b.cost
}
