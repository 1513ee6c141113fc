package queue

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRing_FIFO(t *testing.T) {
	r := NewRing[int](3)

	assert.True(t, r.Empty())
	for i := 1; i <= 3; i++ {
		require.True(t, r.TryPut(i, false))
	}
	assert.Equal(t, 3, r.Len())
	assert.Equal(t, 3, r.Cap())

	for want := 1; want <= 3; want++ {
		got, ok := r.TryGet()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	_, ok := r.TryGet()
	assert.False(t, ok, "empty ring returns the empty marker")
	assert.True(t, r.Empty())
}

func TestRing_FullWithoutOverwrite(t *testing.T) {
	r := NewRing[string](2)
	require.True(t, r.TryPut("a", false))
	require.True(t, r.TryPut("b", false))

	assert.False(t, r.TryPut("c", false))
	assert.Equal(t, []string{"a", "b"}, r.Drain())
	assert.Equal(t, int64(1), r.Stats().Rejected)
}

func TestRing_Overwrite(t *testing.T) {
	tests := []struct {
		name    string
		policy  EvictionPolicy
		want    []int
		evicted int
	}{
		{"newest is replaced", EvictNewest, []int{1, 2, 4}, 3},
		{"oldest is dropped", EvictOldest, []int{2, 3, 4}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var evicted []interface{}
			r := NewRingWithConfig[int](Config{
				Capacity: 3,
				Eviction: tt.policy,
				OnEvict:  func(v interface{}) { evicted = append(evicted, v) },
			})
			for i := 1; i <= 3; i++ {
				require.True(t, r.TryPut(i, false))
			}

			assert.True(t, r.TryPut(4, true), "overwrite always succeeds")
			assert.Equal(t, 3, r.Len(), "size never exceeds capacity")
			assert.Equal(t, []interface{}{tt.evicted}, evicted)
			assert.Equal(t, tt.want, r.Drain())

			stats := r.Stats()
			assert.Equal(t, int64(4), stats.Puts)
			assert.Equal(t, int64(1), stats.Evicted)
		})
	}
}

func TestRing_OverwriteOnNotFullAppends(t *testing.T) {
	r := NewRing[int](2)
	require.True(t, r.TryPut(1, true))
	assert.Equal(t, []int{1}, r.Drain())
	assert.Equal(t, int64(0), r.Stats().Evicted)
}

func TestRing_Unbounded(t *testing.T) {
	r := NewRing[int](0)
	assert.Equal(t, 0, r.Cap())

	// Interleave gets so the head moves before the buffer grows.
	for i := 0; i < 10; i++ {
		require.True(t, r.TryPut(i, false))
	}
	for i := 0; i < 5; i++ {
		v, ok := r.TryGet()
		require.True(t, ok)
		assert.Equal(t, i, v)
	}
	for i := 10; i < 100; i++ {
		require.True(t, r.TryPut(i, false))
	}

	got := r.Drain()
	require.Len(t, got, 95)
	for i, v := range got {
		assert.Equal(t, i+5, v)
	}
}

func TestRing_ConcurrentConsumers(t *testing.T) {
	const total = 2000
	r := NewRing[int](0)
	for i := 0; i < total; i++ {
		r.TryPut(i, false)
	}

	var popped int64
	seen := make([]int32, total)
	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				v, ok := r.TryGet()
				if !ok {
					return
				}
				atomic.AddInt32(&seen[v], 1)
				atomic.AddInt64(&popped, 1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(total), popped)
	for i, n := range seen {
		assert.Equal(t, int32(1), n, "element %d popped %d times", i, n)
	}
}

func TestRing_ConcurrentOverwriteKeepsCapacity(t *testing.T) {
	r := NewRing[int](5)
	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 500; i++ {
				r.TryPut(w*1000+i, true)
				assert.LessOrEqual(t, r.Len(), 5)
			}
		}(w)
	}
	wg.Wait()
	assert.Equal(t, 5, r.Len())
}

func TestParseEvictionPolicy(t *testing.T) {
	tests := []struct {
		in   string
		want EvictionPolicy
		ok   bool
	}{
		{"", EvictNewest, true},
		{"newest", EvictNewest, true},
		{"oldest", EvictOldest, true},
		{"random", EvictNewest, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseEvictionPolicy(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "oldest", EvictOldest.String())
	assert.Equal(t, "unknown", EvictionPolicy(9).String())
}
