package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// DefaultNamespace prefixes every metric name.
const DefaultNamespace = "goshape"

// Mode label values.
const (
	ModeFlow  = "flow"
	ModeItems = "items"
)

var shaperLabels = []string{"mode", "limiter_name"}

// Registry holds all metric instances for goshape components.
type Registry struct {
	Requests         *prometheus.CounterVec
	Admitted         *prometheus.CounterVec
	Rejected         *prometheus.CounterVec
	Unknown          *prometheus.CounterVec
	Refunded         *prometheus.CounterVec
	Evicted          *prometheus.CounterVec
	LockErrors       *prometheus.CounterVec
	IdlePolls        *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	CreditTicks      *prometheus.GaugeVec
}

// NewRegistry creates a new metrics registry with the given Prometheus registerer.
func NewRegistry(reg prometheus.Registerer) *Registry {
	return newRegistry(reg, DefaultNamespace, nil)
}

func newRegistry(reg prometheus.Registerer, namespace string, constLabels prometheus.Labels) *Registry {
	factory := promauto.With(reg)

	counter := func(name, help string) *prometheus.CounterVec {
		return factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace:   namespace,
				Subsystem:   "shaper",
				Name:        name,
				Help:        help,
				ConstLabels: constLabels,
			},
			shaperLabels,
		)
	}

	return &Registry{
		Requests:   counter("requests_total", "Total number of requests taken from the input queue"),
		Admitted:   counter("admitted_total", "Total number of requests pushed to the output queue"),
		Rejected:   counter("rejected_total", "Total number of requests dropped by the leaky bucket"),
		Unknown:    counter("unknown_total", "Total number of requests dropped because their id is not registered"),
		Refunded:   counter("refunded_total", "Total number of admissions refunded after a failed push"),
		Evicted:    counter("evicted_total", "Total number of overwrite pushes that displaced a queued request"),
		LockErrors: counter("lock_errors_total", "Total number of per-item lock acquire or release failures"),
		IdlePolls:  counter("idle_polls_total", "Total number of polls that found the input queue empty"),

		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace:   namespace,
				Subsystem:   "shaper",
				Name:        "dispatch_duration_seconds",
				Help:        "Time spent deciding and dispatching one request",
				Buckets:     []float64{.00001, .00005, .0001, .0005, .001, .005, .01, .05, .1},
				ConstLabels: constLabels,
			},
			shaperLabels,
		),

		CreditTicks: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace:   namespace,
				Subsystem:   "shaper",
				Name:        "credit_ticks",
				Help:        "Flow-mode bucket credit in ticks after the latest admission",
				ConstLabels: constLabels,
			},
			shaperLabels,
		),
	}
}

// Recorder is a Registry bound to one drain loop's labels. The zero and nil
// Recorder record nothing, so drain loops can use it unconditionally.
type Recorder struct {
	requests, admitted, rejected, unknown prometheus.Counter
	refunded, evicted, lockErrors, idle   prometheus.Counter
	dispatch                              prometheus.Observer
	credit                                prometheus.Gauge
}

// For returns a Recorder for the given mode and limiter name. It is safe to
// call on a nil Registry.
func (r *Registry) For(mode, name string) *Recorder {
	if r == nil {
		return nil
	}
	return &Recorder{
		requests:   r.Requests.WithLabelValues(mode, name),
		admitted:   r.Admitted.WithLabelValues(mode, name),
		rejected:   r.Rejected.WithLabelValues(mode, name),
		unknown:    r.Unknown.WithLabelValues(mode, name),
		refunded:   r.Refunded.WithLabelValues(mode, name),
		evicted:    r.Evicted.WithLabelValues(mode, name),
		lockErrors: r.LockErrors.WithLabelValues(mode, name),
		idle:       r.IdlePolls.WithLabelValues(mode, name),
		dispatch:   r.DispatchDuration.WithLabelValues(mode, name),
		credit:     r.CreditTicks.WithLabelValues(mode, name),
	}
}

// Request counts a request taken from the input queue.
func (rec *Recorder) Request() {
	if rec != nil {
		rec.requests.Inc()
	}
}

// Admit counts a successful push.
func (rec *Recorder) Admit() {
	if rec != nil {
		rec.admitted.Inc()
	}
}

func (rec *Recorder) Reject() {
	if rec != nil {
		rec.rejected.Inc()
	}
}

func (rec *Recorder) Unknown() {
	if rec != nil {
		rec.unknown.Inc()
	}
}

func (rec *Recorder) Refund() {
	if rec != nil {
		rec.refunded.Inc()
	}
}

func (rec *Recorder) Evict() {
	if rec != nil {
		rec.evicted.Inc()
	}
}

// LockError counts a failed lock or unlock call.
func (rec *Recorder) LockError() {
	if rec != nil {
		rec.lockErrors.Inc()
	}
}

func (rec *Recorder) IdlePoll() {
	if rec != nil {
		rec.idle.Inc()
	}
}

// ObserveDispatch records one dispatch duration in seconds.
func (rec *Recorder) ObserveDispatch(seconds float64) {
	if rec != nil {
		rec.dispatch.Observe(seconds)
	}
}

// SetCredit records the flow bucket credit after an admission. Per-item
// loops have no single bucket and leave it unset.
func (rec *Recorder) SetCredit(ticks float64) {
	if rec != nil {
		rec.credit.Set(ticks)
	}
}
