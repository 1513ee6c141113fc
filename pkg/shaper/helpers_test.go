package shaper

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/vnykmshr/goshape/internal/testutil"
	"github.com/vnykmshr/goshape/pkg/metrics"
	"github.com/vnykmshr/goshape/pkg/queue"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
)

// drainOnce raises halt the first time the wrapped source is seen empty, so
// Run returns as soon as the queued requests are processed.
type drainOnce struct {
	queue.Source[Request]
	halt *Halt
}

func (d drainOnce) Empty() bool {
	if d.Source.Empty() {
		d.halt.Set()
		return true
	}
	return false
}

func messages(ids ...string) *queue.Ring[Request] {
	r := queue.NewRing[Request](0)
	for _, id := range ids {
		r.TryPut(Message{Key: id}, false)
	}
	return r
}

func repeat(id string, n int) []string {
	ids := make([]string, n)
	for i := range ids {
		ids[i] = id
	}
	return ids
}

type harness struct {
	halt    *Halt
	clock   *testutil.MockClock
	sink    *testutil.RecordingSink[Request]
	metrics *metrics.Registry
	logs    *observer.ObservedLogs
	logger  *zap.Logger
}

func newHarness() *harness {
	core, logs := observer.New(zap.DebugLevel)
	return &harness{
		halt:    NewHalt(),
		clock:   testutil.NewMockClock(time.Time{}),
		sink:    testutil.NewRecordingSink[Request](),
		metrics: metrics.NewRegistry(prometheus.NewRegistry()),
		logs:    logs,
		logger:  zap.New(core),
	}
}

// flowConfig returns a config that drains input once and stops.
func (h *harness) flowConfig(input queue.Source[Request], rate, burst float64) FlowConfig {
	return FlowConfig{
		Input:      drainOnce{Source: input, halt: h.halt},
		Output:     h.sink,
		Rate:       rate,
		Burst:      burst,
		Halt:       h.halt,
		Clock:      h.clock,
		PollPolicy: NoWait(),
		Logger:     h.logger,
		Metrics:    h.metrics,
		Name:       "test",
	}
}

func (h *harness) startTick() leakybucket.Tick {
	return leakybucket.ToTicks(testutil.Epoch, leakybucket.Microsecond)
}

func ids(reqs []Request) []string {
	out := make([]string, len(reqs))
	for i, r := range reqs {
		out[i] = r.ID()
	}
	return out
}
