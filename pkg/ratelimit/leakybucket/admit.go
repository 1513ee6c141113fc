package leakybucket

// State is the accounting of one bucket: the possible-transmit credit and the
// tick at which that credit was last valid. The zero value is an empty bucket.
type State struct {
	// Credit is the unused service capacity in tick units.
	Credit float64

	// LastTick is the tick at which Credit was last valid.
	LastTick Tick
}

// Admitter decides whether one item may pass a bucket at tick now.
//
// Implementations must return s unchanged and false on rejection, and the new
// state with LastTick equal to now and true on admission.
type Admitter interface {
	Admit(s State, now Tick, cost, burst float64) (State, bool)
}

// AdmitterFunc adapts an ordinary function to the Admitter interface.
type AdmitterFunc func(s State, now Tick, cost, burst float64) (State, bool)

// Admit implements Admitter.
func (f AdmitterFunc) Admit(s State, now Tick, cost, burst float64) (State, bool) {
	return f(s, now, cost, burst)
}

// DefaultAdmitter applies Admit.
var DefaultAdmitter Admitter = AdmitterFunc(Admit)

// Admit is the leaky bucket decision (Perros, "Connection-oriented Networks", 4.7.1).
//
// The credit left at now is s.Credit minus the ticks elapsed since s.LastTick,
// floored at zero. If it exceeds burst the item is rejected and s is returned
// untouched, so a rejection never loses credit. Otherwise the item is admitted,
// the credit grows by cost and LastTick moves to now.
//
// cost is the ticks needed to serve one item (see ItemCost) and burst is the
// burst allowance already scaled by cost.
func Admit(s State, now Tick, cost, burst float64) (State, bool) {
	delta := s.Credit - float64(now-s.LastTick)

	if delta <= 0 {
		delta = 0
	} else if delta > burst {
		return s, false
	}

	return State{Credit: delta + cost, LastTick: now}, true
}

// Level returns the credit left in s at tick now, without deciding anything.
func Level(s State, now Tick) float64 {
	delta := s.Credit - float64(now-s.LastTick)
	if delta < 0 {
		return 0
	}
	return delta
}

// ItemCost returns the ticks one item consumes at rate items per time unit,
// where resolution is the number of ticks in one time unit.
func ItemCost(resolution int64, rate float64) float64 {
	return float64(resolution) / rate
}

// BurstCredit scales a burst expressed in items into tick units.
func BurstCredit(burst, cost float64) float64 {
	return burst * cost
}
