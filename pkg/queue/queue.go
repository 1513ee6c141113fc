package queue

// Source is the consuming side of a queue used by a drain loop.
type Source[T any] interface {
	// TryGet pops the front element without blocking. It reports false when
	// the queue is empty, including when another consumer won the race.
	TryGet() (T, bool)

	// Empty reports whether the queue currently holds no elements.
	Empty() bool
}

// Sink is the producing side of a queue used by a drain loop.
type Sink[T any] interface {
	// TryPut appends v without blocking. A bounded queue that is full rejects
	// v unless overwrite is set, in which case it evicts exactly one element
	// according to its eviction policy and appends v.
	TryPut(v T, overwrite bool) bool
}

// Queue is a bounded or unbounded FIFO usable as both Source and Sink.
type Queue[T any] interface {
	Source[T]
	Sink[T]

	// Len returns the current number of elements.
	Len() int

	// Cap returns the capacity, or 0 for an unbounded queue.
	Cap() int
}

// EvictionPolicy selects the element replaced by an overwriting put on a full queue.
type EvictionPolicy int

const (
	// EvictNewest replaces the most recently queued element.
	EvictNewest EvictionPolicy = iota

	// EvictOldest drops the front element and appends at the back.
	EvictOldest
)

// String returns the policy name used in configuration files.
func (p EvictionPolicy) String() string {
	switch p {
	case EvictNewest:
		return "newest"
	case EvictOldest:
		return "oldest"
	default:
		return "unknown"
	}
}

// ParseEvictionPolicy converts a configuration value into an EvictionPolicy.
func ParseEvictionPolicy(s string) (EvictionPolicy, bool) {
	switch s {
	case "", "newest":
		return EvictNewest, true
	case "oldest":
		return EvictOldest, true
	default:
		return EvictNewest, false
	}
}

// Stats holds counters about queue usage.
type Stats struct {
	// Puts is the number of accepted puts, overwrites included.
	Puts int64

	// Gets is the number of successful pops.
	Gets int64

	// Rejected is the number of puts refused because the queue was full.
	Rejected int64

	// Evicted is the number of elements replaced by overwriting puts.
	Evicted int64
}
