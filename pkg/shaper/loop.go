package shaper

import (
	"context"
	"errors"
	"runtime"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/vnykmshr/goshape/pkg/metrics"
	"github.com/vnykmshr/goshape/pkg/queue"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
)

// ErrRunning is returned by Run when the same loop is already running.
var ErrRunning = errors.New("shaper: loop already running")

// drainer is the poll, dispatch and halt skeleton shared by Flow and Items.
type drainer struct {
	config  FlowConfig
	ticks   leakybucket.TickClock
	logger  *zap.Logger
	rec     *metrics.Recorder
	phase   atomic.Int32
	running atomic.Bool
}

func (d *drainer) init(config FlowConfig, mode string) {
	d.config = config
	d.ticks = leakybucket.NewTickClock(config.Clock, config.TickResolution)
	d.logger = config.Logger.With(zap.String("mode", mode), zap.String("limiter", config.Name))
	d.rec = config.Metrics.For(mode, config.Name)
	d.phase.Store(int32(PhaseHalted))
}

// Phase returns the loop's current phase. A loop that is not running is halted.
func (d *drainer) Phase() Phase {
	return Phase(d.phase.Load())
}

// run polls Input until Halt is set or ctx is done, handing every request to
// dispatch. reset, if not nil, runs once the loop owns its state. A dispatch
// runs on a context stripped of cancellation so it is never cut short; an
// error from it ends the loop.
func (d *drainer) run(ctx context.Context, reset func(), dispatch func(context.Context, Request) error) error {
	if !d.running.CompareAndSwap(false, true) {
		return ErrRunning
	}
	defer d.running.Store(false)
	defer d.phase.Store(int32(PhaseHalted))

	if reset != nil {
		reset()
	}

	d.phase.Store(int32(PhaseWaiting))
	d.logger.Info("drain loop started")

	idle := d.config.PollPolicy.NewBackOff()
	idle.Reset()
	dispatchCtx := context.WithoutCancel(ctx)

	for {
		if d.config.Halt.IsSet() {
			d.logger.Info("drain loop halted")
			return nil
		}
		if err := ctx.Err(); err != nil {
			d.logger.Info("drain loop canceled", zap.Error(err))
			return err
		}

		if d.config.Input.Empty() {
			d.phase.Store(int32(PhaseWaiting))
			d.rec.IdlePoll()
			d.wait(ctx, idle.NextBackOff())
			continue
		}

		req, ok := d.config.Input.TryGet()
		if !ok {
			// Another consumer took it.
			d.phase.Store(int32(PhaseWaiting))
			continue
		}

		d.phase.Store(int32(PhaseDispatching))
		d.rec.Request()
		start := time.Now()
		if err := dispatch(dispatchCtx, req); err != nil {
			d.logger.Error("drain loop stopped", zap.Error(err))
			return err
		}
		d.rec.ObserveDispatch(time.Since(start).Seconds())
		idle.Reset()
	}
}

func (d *drainer) wait(ctx context.Context, delay time.Duration) {
	if delay <= 0 || delay == backoff.Stop {
		runtime.Gosched()
		return
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// push offers req to Output and reports whether it was accepted.
func (d *drainer) push(req Request) bool {
	evicting := d.config.Overwrite && outputFull(d.config.Output)
	if !d.config.Output.TryPut(req, d.config.Overwrite) {
		return false
	}
	if evicting {
		d.rec.Evict()
	}
	return true
}

// outputFull is best effort; it only feeds the eviction counter.
func outputFull(sink queue.Sink[Request]) bool {
	sized, ok := sink.(interface {
		Len() int
		Cap() int
	})
	if !ok {
		return false
	}
	c := sized.Cap()
	return c > 0 && sized.Len() >= c
}

// decide runs admission for one request and pushes it when admitted. The
// returned state is what must be persisted; ok is false for a rejection, in
// which case s is returned untouched.
func (d *drainer) decide(req Request, s leakybucket.State, cost, burst float64) (next leakybucket.State, ok bool) {
	now := d.ticks.Now()
	next, ok = d.config.Admitter.Admit(s, now, cost, burst)
	if !ok {
		d.rec.Reject()
		d.logger.Debug("request dropped",
			zap.String("id", req.ID()),
			zap.Float64("credit", s.Credit),
			zap.Int64("tick", int64(now)))
		return s, false
	}

	if d.push(req) {
		d.rec.Admit()
	} else {
		next.Credit -= cost
		d.rec.Refund()
		d.logger.Debug("output full, admission refunded", zap.String("id", req.ID()))
	}
	return next, true
}
