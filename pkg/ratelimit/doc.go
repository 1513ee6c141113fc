/*
Package ratelimit holds the rate limiting primitives used by the shaper.

The leakybucket subpackage implements the admission rule on integer ticks.
Admit is a pure function over a State so the same rule serves an in-process
bucket, a flow shaper and per-item buckets persisted in a registry:

	cost := leakybucket.ItemCost(leakybucket.Microsecond, 10)
	burst := leakybucket.BurstCredit(4, cost)
	s, ok := leakybucket.Admit(s, now, cost, burst)

Unlike a token bucket, a leaky bucket never queues or delays: a request either
conforms now or is dropped.
*/
package ratelimit
