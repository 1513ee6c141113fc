// Package report periodically logs the bucket accounting of running drain
// loops and registries on a cron schedule.
package report

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/vnykmshr/goshape/pkg/common/validation"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
	"github.com/vnykmshr/goshape/pkg/registry"
)

// DefaultSchedule reports every 30 seconds.
const DefaultSchedule = "@every 30s"

// StateSource is a single bucket whose accounting can be read, such as a shaper.Flow.
type StateSource interface {
	State() leakybucket.State
}

// Config holds configuration for a Reporter.
type Config struct {
	// Schedule is a cron expression with an optional leading seconds field, or
	// a descriptor such as "@every 1m" (defaults to DefaultSchedule).
	Schedule string

	// Location is the time zone the schedule is evaluated in (defaults to time.Local).
	Location *time.Location

	// Timeout bounds one report (defaults to 5s).
	Timeout time.Duration

	// Clock and Resolution convert accounting into current fill levels.
	Clock      leakybucket.Clock
	Resolution int64

	// Logger receives the reports (defaults to a no-op logger).
	Logger *zap.Logger
}

// Reporter logs registry snapshots and flow states on a schedule.
type Reporter struct {
	config Config
	ticks  leakybucket.TickClock
	cron   *cron.Cron
	entry  cron.EntryID

	mu         sync.Mutex
	registries map[string]registry.Snapshotter
	flows      map[string]StateSource
}

var parser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// New creates a Reporter. The schedule is validated here so a typo fails at
// startup rather than silently never reporting.
func New(config Config) (*Reporter, error) {
	if config.Schedule == "" {
		config.Schedule = DefaultSchedule
	}
	if config.Location == nil {
		config.Location = time.Local
	}
	if config.Timeout == 0 {
		config.Timeout = 5 * time.Second
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}
	if err := validation.ValidateNonNegativeDuration("report", "timeout", config.Timeout); err != nil {
		return nil, err
	}
	if config.Resolution != 0 {
		if err := validation.ValidateInt64Range("report", "resolution", config.Resolution, 1, leakybucket.MaxResolution); err != nil {
			return nil, err
		}
	}
	if _, err := parser.Parse(config.Schedule); err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", config.Schedule, err)
	}

	r := &Reporter{
		config:     config,
		ticks:      leakybucket.NewTickClock(config.Clock, config.Resolution),
		registries: make(map[string]registry.Snapshotter),
		flows:      make(map[string]StateSource),
	}
	r.cron = cron.New(
		cron.WithParser(parser),
		cron.WithLocation(config.Location),
		cron.WithLogger(cronLogger{config.Logger.Sugar()}),
		cron.WithChain(cron.Recover(cronLogger{config.Logger.Sugar()})),
	)

	id, err := r.cron.AddFunc(config.Schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
		defer cancel()
		r.Report(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("invalid report schedule %q: %w", config.Schedule, err)
	}
	r.entry = id
	return r, nil
}

// AddRegistry includes every record of reg in the reports under name.
func (r *Reporter) AddRegistry(name string, reg registry.Snapshotter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.registries[name] = reg
}

// AddFlow includes one bucket in the reports under name.
func (r *Reporter) AddFlow(name string, src StateSource) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flows[name] = src
}

// Start begins reporting in the background.
func (r *Reporter) Start() {
	r.cron.Start()
}

// Stop stops the schedule. The returned context is done once a report in
// progress has finished.
func (r *Reporter) Stop() context.Context {
	return r.cron.Stop()
}

// Next returns the time of the next scheduled report, or the zero time if
// the reporter is not started.
func (r *Reporter) Next() time.Time {
	return r.cron.Entry(r.entry).Next
}

// Report logs one report now.
func (r *Reporter) Report(ctx context.Context) {
	r.mu.Lock()
	registries := make(map[string]registry.Snapshotter, len(r.registries))
	for k, v := range r.registries {
		registries[k] = v
	}
	flows := make(map[string]StateSource, len(r.flows))
	for k, v := range r.flows {
		flows[k] = v
	}
	r.mu.Unlock()

	now := r.ticks.Now()
	for name, src := range flows {
		s := src.State()
		r.config.Logger.Info("flow accounting",
			zap.String("flow", name),
			zap.Float64("credit", s.Credit),
			zap.Int64("last_tick", int64(s.LastTick)),
			zap.Float64("level", leakybucket.Level(s, now)))
	}

	for name, reg := range registries {
		snap, err := reg.Snapshot(ctx)
		if err != nil {
			r.config.Logger.Error("registry snapshot failed", zap.String("registry", name), zap.Error(err))
			continue
		}
		r.config.Logger.Info("registry accounting",
			zap.String("registry", name),
			zap.Int("items", len(snap)),
			zap.Object("levels", levels{states: snap, now: now}))
	}
}

// levels renders a snapshot as id -> current fill level, in id order.
type levels struct {
	states map[string]leakybucket.State
	now    leakybucket.Tick
}

func (l levels) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	ids := make([]string, 0, len(l.states))
	for id := range l.states {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		enc.AddFloat64(id, leakybucket.Level(l.states[id], l.now))
	}
	return nil
}

// cronLogger adapts zap to cron.Logger.
type cronLogger struct {
	l *zap.SugaredLogger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
