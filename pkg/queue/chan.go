package queue

// Chan adapts a buffered Go channel to the Queue interface. An overwriting
// put on a full channel evicts the oldest element, the only one a channel can
// reach, and retries until its value is queued. A concurrent consumer or
// producer may claim the freed slot first; that only costs another round.
// An unbuffered channel has no slot to free, so overwriting puts to it fail
// like plain ones.
type Chan[T any] struct {
	ch chan T
}

// NewChan creates a Chan with a fresh buffered channel of the given capacity.
func NewChan[T any](capacity int) *Chan[T] {
	if capacity <= 0 {
		capacity = 1
	}
	return &Chan[T]{ch: make(chan T, capacity)}
}

// WrapChan adapts an existing buffered channel.
func WrapChan[T any](ch chan T) *Chan[T] {
	return &Chan[T]{ch: ch}
}

// TryGet implements Source.
func (c *Chan[T]) TryGet() (T, bool) {
	select {
	case v := <-c.ch:
		return v, true
	default:
		var zero T
		return zero, false
	}
}

// Empty implements Source.
func (c *Chan[T]) Empty() bool {
	return len(c.ch) == 0
}

// TryPut implements Sink.
func (c *Chan[T]) TryPut(v T, overwrite bool) bool {
	select {
	case c.ch <- v:
		return true
	default:
	}
	if !overwrite || cap(c.ch) == 0 {
		return false
	}

	for {
		select {
		case <-c.ch:
		default:
		}
		select {
		case c.ch <- v:
			return true
		default:
			// Another producer refilled the slot.
		}
	}
}

// Len implements Queue.
func (c *Chan[T]) Len() int {
	return len(c.ch)
}

// Cap implements Queue.
func (c *Chan[T]) Cap() int {
	return cap(c.ch)
}

// C exposes the channel for consumers that prefer to range or select over it.
func (c *Chan[T]) C() <-chan T {
	return c.ch
}
