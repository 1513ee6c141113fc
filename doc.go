/*
Package goshape provides a leaky bucket traffic shaper for Go applications.

A shaper drains an input queue, asks the leaky bucket whether each request may
pass at the configured rate, and either forwards it to an output queue or drops
it. Nothing is ever delayed: conforming requests pass immediately, the rest are
discarded.

Rate Limiting (pkg/ratelimit):
  - leakybucket: Integer tick admission rule and a standalone Bucket

Shaping (pkg/shaper):
  - Flow: One bucket shared by every request on the queue
  - Items: One bucket per item, looked up in a registry by request ID
  - Group: Runs several shapers and joins their errors

Queues (pkg/queue):
  - Ring: Bounded ring buffer with overwrite and eviction policies
  - Chan: Adapter over a buffered Go channel

Bucket State (pkg/registry):
  - Memory: In-process registry with per-item mutexes
  - redisreg: Redis-backed registry with token leases for shared workers

Supporting packages:
  - metrics: Prometheus counters for admissions, rejections and lock errors
  - report: Cron-driven accounting of bucket levels
  - log: zap logger construction with optional file rotation

Example usage:

	import (
		"github.com/vnykmshr/goshape/pkg/queue"
		"github.com/vnykmshr/goshape/pkg/shaper"
	)

	in := queue.NewRing[shaper.Request](256)
	out := queue.NewRing[shaper.Request](256)
	halt := shaper.NewHalt()

	flow, _ := shaper.NewFlow(shaper.FlowConfig{
		Input: in, Output: out, Rate: 20, Burst: 5, Halt: halt,
	})
	go flow.Run(ctx)
*/
package goshape
