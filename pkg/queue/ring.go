package queue

import "sync"

// Config holds configuration for Ring.
type Config struct {
	// Capacity bounds the queue. Zero or negative means unbounded.
	Capacity int

	// Eviction selects the element an overwriting put replaces.
	Eviction EvictionPolicy

	// OnEvict is called, under the queue lock, with every evicted element.
	OnEvict func(value interface{})
}

// Ring is a FIFO over a circular buffer that is safe for concurrent
// producers and consumers. Bounded rings never grow past their capacity.
type Ring[T any] struct {
	config Config
	mu     sync.Mutex
	buffer []T
	head   int
	count  int
	stats  Stats
}

// NewRing creates a Ring with the given capacity that evicts the newest element on overwrite.
func NewRing[T any](capacity int) *Ring[T] {
	return NewRingWithConfig[T](Config{Capacity: capacity})
}

// NewRingWithConfig creates a Ring with the specified configuration.
func NewRingWithConfig[T any](config Config) *Ring[T] {
	if config.Capacity < 0 {
		config.Capacity = 0
	}
	size := config.Capacity
	if size == 0 {
		size = 16
	}
	return &Ring[T]{
		config: config,
		buffer: make([]T, size),
	}
}

// TryGet implements Source.
func (r *Ring[T]) TryGet() (T, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.count == 0 {
		var zero T
		return zero, false
	}

	r.stats.Gets++
	return r.removeFrontLocked(), true
}

// Empty implements Source.
func (r *Ring[T]) Empty() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count == 0
}

// TryPut implements Sink.
func (r *Ring[T]) TryPut(value T, overwrite bool) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.config.Capacity > 0 && r.count >= r.config.Capacity {
		if !overwrite {
			r.stats.Rejected++
			return false
		}
		r.evictLocked()
	}

	if r.count == len(r.buffer) {
		r.growLocked()
	}
	r.buffer[(r.head+r.count)%len(r.buffer)] = value
	r.count++
	r.stats.Puts++

	return true
}

// Len implements Queue.
func (r *Ring[T]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Cap implements Queue.
func (r *Ring[T]) Cap() int {
	return r.config.Capacity
}

// Stats returns a copy of the usage counters.
func (r *Ring[T]) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

// Drain pops every queued element in FIFO order.
func (r *Ring[T]) Drain() []T {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]T, 0, r.count)
	for r.count > 0 {
		out = append(out, r.removeFrontLocked())
		r.stats.Gets++
	}
	return out
}

// evictLocked drops one element per the eviction policy (must hold lock).
func (r *Ring[T]) evictLocked() {
	var evicted T
	switch r.config.Eviction {
	case EvictOldest:
		evicted = r.removeFrontLocked()
	default:
		evicted = r.removeBackLocked()
	}
	r.stats.Evicted++
	if r.config.OnEvict != nil {
		r.config.OnEvict(evicted)
	}
}

// removeFrontLocked removes the oldest element (must hold lock).
func (r *Ring[T]) removeFrontLocked() T {
	var zero T
	value := r.buffer[r.head]
	r.buffer[r.head] = zero // Clear reference
	r.head = (r.head + 1) % len(r.buffer)
	r.count--
	return value
}

// removeBackLocked removes the newest element (must hold lock).
func (r *Ring[T]) removeBackLocked() T {
	var zero T
	idx := (r.head + r.count - 1) % len(r.buffer)
	value := r.buffer[idx]
	r.buffer[idx] = zero
	r.count--
	return value
}

// growLocked doubles an unbounded buffer, unrolling it to start at index 0 (must hold lock).
func (r *Ring[T]) growLocked() {
	grown := make([]T, len(r.buffer)*2)
	for i := 0; i < r.count; i++ {
		grown[i] = r.buffer[(r.head+i)%len(r.buffer)]
	}
	r.buffer = grown
	r.head = 0
}
