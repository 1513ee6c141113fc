package shaper

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	gferrors "github.com/vnykmshr/goshape/pkg/common/errors"
	"github.com/vnykmshr/goshape/pkg/common/validation"
	"github.com/vnykmshr/goshape/pkg/metrics"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
	"github.com/vnykmshr/goshape/pkg/registry"
)

// Items shapes requests per id: each request is charged against the bucket
// of the registry record named by its ID, at that record's rate.
type Items struct {
	drainer

	registry     registry.Registry
	shared       bool
	fallbackLock registry.Locker
	lockTimeout  time.Duration
}

// NewItems creates a per-item drain loop. Each record is charged at its own
// rate; Rate only has to pass validation.
func NewItems(config ItemsConfig) (*Items, error) {
	const module = "shaper.Items"
	if err := validateFlowConfig(module, config.FlowConfig); err != nil {
		return nil, err
	}
	if err := validation.ValidateNotNil(module, "registry", config.Registry); err != nil {
		return nil, err
	}
	if err := validation.ValidateNonNegativeDuration(module, "lock_timeout", config.LockTimeout); err != nil {
		return nil, err
	}
	if config.LockTimeout == 0 {
		config.LockTimeout = DefaultLockTimeout
	}

	it := &Items{
		registry:     config.Registry,
		shared:       config.Shared,
		fallbackLock: config.FallbackLock,
		lockTimeout:  config.LockTimeout,
	}
	it.init(applyFlowDefaults(config.FlowConfig, metrics.ModeItems), metrics.ModeItems)
	return it, nil
}

// Run drains Input until Halt is set or ctx is done. When the loop is not
// shared it returns the registry so the caller can inspect the final
// accounting; a shared registry outlives the loop and nil is returned.
//
// A registry failure other than an unknown id ends the loop with an
// *errors.OperationError.
func (it *Items) Run(ctx context.Context) (registry.Registry, error) {
	err := it.run(ctx, nil, it.dispatch)
	if it.shared {
		return nil, err
	}
	return it.registry, err
}

func (it *Items) dispatch(ctx context.Context, req Request) error {
	id := req.ID()
	rec, err := it.registry.Lookup(ctx, id)
	if errors.Is(err, registry.ErrNotFound) {
		it.rec.Unknown()
		it.logger.Debug("request for unknown id dropped", zap.String("id", id))
		return nil
	}
	if err != nil {
		return gferrors.NewOperationError("shaper", "Lookup", err).WithContext("id=" + id)
	}
	rate := rec.Rate()
	if !(rate > 0) || math.IsInf(rate, 1) {
		err := fmt.Errorf("%w: %s rate=%v", registry.ErrMalformed, id, rate)
		return gferrors.NewOperationError("shaper", "Lookup", err).WithContext("id=" + id)
	}

	if it.shared {
		if unlock := it.lock(ctx, rec); unlock != nil {
			defer unlock()
		}
	}

	s, err := rec.Load(ctx)
	if err != nil {
		return gferrors.NewOperationError("shaper", "Load", err).WithContext("id=" + id)
	}

	cost := leakybucket.ItemCost(it.config.TickResolution, rate)

	next, ok := it.decide(req, s, cost, leakybucket.BurstCredit(it.config.Burst, cost))
	if !ok {
		return nil
	}
	if err := rec.Store(ctx, next); err != nil {
		return gferrors.NewOperationError("shaper", "Store", err).WithContext("id=" + id)
	}
	return nil
}

// lock takes the record's lock, or the fallback lock, and returns the
// matching release. A failure is logged and counted and the dispatch goes
// ahead unguarded, so nil is returned.
func (it *Items) lock(ctx context.Context, rec registry.Record) func() {
	locker := rec.Locker()
	if locker == nil {
		locker = it.fallbackLock
	}
	if locker == nil {
		it.lockFailed(rec.ID(), gferrors.NewOperationError("shaper", "Lock", gferrors.ErrLockUnavailable))
		return nil
	}

	lockCtx, cancel := context.WithTimeout(ctx, it.lockTimeout)
	defer cancel()
	if err := locker.Lock(lockCtx); err != nil {
		it.lockFailed(rec.ID(), err)
		return nil
	}

	return func() {
		if err := locker.Unlock(ctx); err != nil {
			it.lockFailed(rec.ID(), err)
		}
	}
}

func (it *Items) lockFailed(id string, err error) {
	it.rec.LockError()
	it.logger.Error("per-item lock failed, dispatching without it",
		zap.String("id", id), zap.Error(err))
}
