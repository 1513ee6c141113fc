// Package metrics provides Prometheus instrumentation for goshape drain loops.
//
// Every drain loop reports through a Recorder bound to its mode ("flow" or
// "items") and its limiter name. A nil Registry or Recorder records nothing,
// so instrumentation is optional.
//
// # Quick Start
//
//	reg := metrics.NewRegistry(prometheus.DefaultRegisterer)
//	flow, _ := shaper.NewFlow(shaper.FlowConfig{
//		Input:   in,
//		Output:  out,
//		Rate:    100,
//		Metrics: reg,
//		Name:    "egress",
//	})
//
// Then expose metrics via HTTP:
//
//	http.Handle("/metrics", promhttp.Handler())
//	log.Fatal(http.ListenAndServe(":9090", nil))
//
// # Available Metrics
//
// All metrics carry the labels mode and limiter_name.
//
//   - goshape_shaper_requests_total: requests taken from the input queue
//   - goshape_shaper_admitted_total: requests pushed to the output queue
//   - goshape_shaper_rejected_total: requests dropped by the bucket
//   - goshape_shaper_unknown_total: requests whose id is not registered
//   - goshape_shaper_refunded_total: admissions refunded after a failed push
//   - goshape_shaper_evicted_total: overwrite pushes that displaced a queued request
//   - goshape_shaper_lock_errors_total: per-item lock acquire or release failures
//   - goshape_shaper_idle_polls_total: polls that found the input queue empty
//   - goshape_shaper_dispatch_duration_seconds: time to decide and dispatch one request
//   - goshape_shaper_credit_ticks: flow bucket credit after the latest admission
package metrics
