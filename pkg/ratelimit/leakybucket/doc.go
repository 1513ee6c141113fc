/*
Package leakybucket provides the leaky bucket admission rule used by the shaper.

The bucket is described by a State: the possible-transmit credit, in ticks,
and the tick at which that credit was last valid. Each decision first lets the
bucket drain by the ticks elapsed since then, clamped at zero:

	delta = credit - (now - lastTick)

If delta exceeds the burst allowance the item is rejected and the state is
returned untouched. Otherwise the item is admitted, the credit becomes
delta + cost and lastTick becomes now. Staleness therefore corrects itself from
elapsed time alone and no reset logic is needed.

Ticks:

All arithmetic runs on integer ticks at a configurable resolution, avoiding
floating point drift in the time base:

	tick := leakybucket.ToTicks(time.Now(), leakybucket.Microsecond)
	cost := leakybucket.ItemCost(leakybucket.Microsecond, 10) // 100000 ticks per item
	burst := leakybucket.BurstCredit(4, cost)                 // 4 extra items

Decisions:

	s, ok := leakybucket.Admit(s, tick, cost, burst)
	if !ok {
		// drop, s is unchanged
	}

A rejection never loses credit, including the case where now equals the
previous tick; callers must rely on the returned flag and not on comparing
ticks.

Strategies:

Admitter and Clock are interfaces so the decision and the time source can be
replaced, for example with a MockClock in tests:

	b, _ := leakybucket.NewWithConfig(leakybucket.Config{
		Rate:  10,
		Burst: 2,
		Clock: clock,
	})
	if b.Allow() {
		// forward
	}

Bucket is safe for concurrent use. The bare Admit function holds no lock; the
caller owns the State.
*/
package leakybucket
