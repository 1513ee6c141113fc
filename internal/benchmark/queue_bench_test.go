package benchmark

import (
	"testing"

	"github.com/vnykmshr/goshape/pkg/queue"
)

// BenchmarkRingPutGet measures a put followed by a get on a Ring.
func BenchmarkRingPutGet(b *testing.B) {
	capacities := []int{10, 100, 1000}

	for _, capacity := range capacities {
		b.Run(sizeLabel(capacity), func(b *testing.B) {
			r := queue.NewRing[int](capacity)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				r.TryPut(i, false)
				_, _ = r.TryGet()
			}
		})
	}
}

// BenchmarkChanPutGet measures the same round trip through a channel adapter.
func BenchmarkChanPutGet(b *testing.B) {
	capacities := []int{10, 100, 1000}

	for _, capacity := range capacities {
		b.Run(sizeLabel(capacity), func(b *testing.B) {
			c := queue.NewChan[int](capacity)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				c.TryPut(i, false)
				_, _ = c.TryGet()
			}
		})
	}
}

// BenchmarkRingOverwrite measures puts into a full ring under each eviction policy.
func BenchmarkRingOverwrite(b *testing.B) {
	policies := []queue.EvictionPolicy{queue.EvictNewest, queue.EvictOldest}

	for _, policy := range policies {
		b.Run(policy.String(), func(b *testing.B) {
			r := queue.NewRingWithConfig[int](queue.Config{Capacity: 100, Eviction: policy})
			for i := 0; i < 100; i++ {
				r.TryPut(i, false)
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				r.TryPut(i, true)
			}
		})
	}
}

// BenchmarkRingContended measures concurrent producers and consumers.
func BenchmarkRingContended(b *testing.B) {
	r := queue.NewRing[int](1000)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				r.TryPut(i, true)
			} else {
				_, _ = r.TryGet()
			}
			i++
		}
	})
}

// BenchmarkChanContended measures concurrent producers and consumers on a channel.
func BenchmarkChanContended(b *testing.B) {
	c := queue.NewChan[int](1000)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		i := 0
		for pb.Next() {
			if i%2 == 0 {
				c.TryPut(i, true)
			} else {
				_, _ = c.TryGet()
			}
			i++
		}
	})
}

func sizeLabel(size int) string {
	switch {
	case size >= 10000:
		return "10k"
	case size >= 1000:
		return "1k"
	case size >= 100:
		return "100"
	default:
		return "10"
	}
}
