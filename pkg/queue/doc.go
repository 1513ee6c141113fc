/*
Package queue provides the non-blocking queues consumed and produced by the
shaper drain loops.

A drain loop only needs two operations: a non-blocking pop from the front
(Source.TryGet) and a non-blocking append (Sink.TryPut). TryGet reports an empty
queue through its second result and never panics, so any number of consumers
may race on the same queue. TryPut rejects on a full bounded queue unless
overwrite is requested, in which case exactly one element is evicted and the
new one appended.

Ring is a mutex-guarded circular buffer:

	in := queue.NewRing[shaper.Request](0)    // unbounded input
	out := queue.NewRingWithConfig[shaper.Request](queue.Config{
		Capacity: 128,
		Eviction: queue.EvictNewest,
	})

EvictNewest replaces the most recently queued element, EvictOldest behaves like
a sliding window and drops the front. Chan adapts a buffered Go channel and can
only evict the oldest element.
*/
package queue
