package shaper

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Group runs several drain loops, typically sharing one Halt, and collects
// their errors. A failing or panicking worker does not stop the others, and
// a worker ending because the group's context was canceled is not a failure.
type Group struct {
	ctx    context.Context
	logger *zap.Logger

	wg   sync.WaitGroup
	mu   sync.Mutex
	errs error
}

// NewGroup creates a Group whose workers run with ctx.
func NewGroup(ctx context.Context, logger *zap.Logger) *Group {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Group{ctx: ctx, logger: logger}
}

// Go starts fn in a new goroutine.
func (g *Group) Go(name string, fn func(ctx context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()

		var err error
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("worker %s panicked: %v\nStack trace:\n%s", name, r, debug.Stack())
			}
			if err != nil && g.ctx.Err() != nil && errors.Is(err, g.ctx.Err()) {
				err = nil
			}
			if err != nil {
				g.logger.Error("worker failed", zap.String("worker", name), zap.Error(err))
				g.mu.Lock()
				g.errs = multierr.Append(g.errs, fmt.Errorf("worker %s: %w", name, err))
				g.mu.Unlock()
			}
		}()

		err = fn(g.ctx)
	}()
}

// GoFlow runs f as a worker.
func (g *Group) GoFlow(name string, f *Flow) {
	g.Go(name, f.Run)
}

// GoItems runs it as a worker, discarding the returned registry.
func (g *Group) GoItems(name string, it *Items) {
	g.Go(name, func(ctx context.Context) error {
		_, err := it.Run(ctx)
		return err
	})
}

// Wait blocks until every worker has returned and combines their errors.
func (g *Group) Wait() error {
	g.wg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.errs
}
