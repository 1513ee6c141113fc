package shaper

import (
	"context"
	"sync"

	"github.com/vnykmshr/goshape/pkg/metrics"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
)

// Flow shapes one stream of requests against a single bucket: at most Rate
// requests per second reach Output, plus up to Burst back to back.
type Flow struct {
	drainer

	cost  float64
	burst float64

	mu    sync.Mutex
	state leakybucket.State
}

// NewFlow creates a flow-mode drain loop.
func NewFlow(config FlowConfig) (*Flow, error) {
	if err := validateFlowConfig("shaper.Flow", config); err != nil {
		return nil, err
	}
	config = applyFlowDefaults(config, metrics.ModeFlow)

	f := &Flow{}
	f.init(config, metrics.ModeFlow)
	f.cost = leakybucket.ItemCost(config.TickResolution, config.Rate)
	f.burst = leakybucket.BurstCredit(config.Burst, f.cost)
	return f, nil
}

// Run drains Input until Halt is set or ctx is done. The bucket starts empty
// on every Run. It returns nil when halted and ctx.Err() when canceled.
func (f *Flow) Run(ctx context.Context) error {
	return f.run(ctx, func() { f.setState(leakybucket.State{}) }, f.dispatch)
}

// State returns the bucket accounting as of the latest decision, or the
// final accounting once Run has returned.
func (f *Flow) State() leakybucket.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *Flow) setState(s leakybucket.State) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

func (f *Flow) dispatch(_ context.Context, req Request) error {
	next, ok := f.decide(req, f.State(), f.cost, f.burst)
	if ok {
		f.setState(next)
		f.rec.SetCredit(next.Credit)
	}
	return nil
}
