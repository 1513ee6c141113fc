package shaper

import (
	"go.uber.org/atomic"
)

// Halt is the shared stop signal of one or more drain loops. Loops check it
// between dispatches, so a request already in flight always completes.
type Halt struct {
	set atomic.Bool
}

// NewHalt returns a cleared Halt.
func NewHalt() *Halt {
	return &Halt{}
}

// Set asks every loop watching h to stop.
func (h *Halt) Set() { h.set.Store(true) }

// Clear resets the signal so the loops can be run again.
func (h *Halt) Clear() { h.set.Store(false) }

// IsSet reports whether the signal is raised.
func (h *Halt) IsSet() bool { return h.set.Load() }

// Phase is the observable state of a drain loop.
type Phase int32

const (
	// PhaseWaiting means the input queue was last seen empty.
	PhaseWaiting Phase = iota
	// PhaseDispatching means one request is going through decide and push.
	PhaseDispatching
	// PhaseHalted is terminal for the current Run.
	PhaseHalted
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseDispatching:
		return "dispatching"
	case PhaseHalted:
		return "halted"
	default:
		return "unknown"
	}
}
