package queue

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChan_TryGetTryPut(t *testing.T) {
	c := NewChan[int](2)
	assert.True(t, c.Empty())
	assert.Equal(t, 2, c.Cap())

	require.True(t, c.TryPut(1, false))
	require.True(t, c.TryPut(2, false))
	assert.False(t, c.TryPut(3, false))
	assert.Equal(t, 2, c.Len())

	v, ok := c.TryGet()
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestChan_OverwriteEvictsOldest(t *testing.T) {
	c := NewChan[int](2)
	require.True(t, c.TryPut(1, false))
	require.True(t, c.TryPut(2, false))

	assert.True(t, c.TryPut(3, true))
	assert.Equal(t, 2, c.Len())

	first, _ := c.TryGet()
	second, _ := c.TryGet()
	assert.Equal(t, []int{2, 3}, []int{first, second})

	_, ok := c.TryGet()
	assert.False(t, ok)
}

func TestChan_OverwriteUnderContention(t *testing.T) {
	c := NewChan[int](1)
	require.True(t, c.TryPut(0, false))

	const producers, puts = 8, 1000
	var failed atomic.Int64
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < puts; i++ {
				if !c.TryPut(p*puts+i, true) {
					failed.Add(1)
				}
			}
		}(p)
	}
	wg.Wait()

	assert.Zero(t, failed.Load())
	assert.Equal(t, 1, c.Len())
}

func TestWrapChan_UnbufferedOverwriteFails(t *testing.T) {
	c := WrapChan(make(chan int))
	assert.False(t, c.TryPut(1, true))
	assert.False(t, c.TryPut(1, false))
}

func TestWrapChan(t *testing.T) {
	ch := make(chan string, 1)
	c := WrapChan(ch)

	require.True(t, c.TryPut("x", false))
	assert.Equal(t, "x", <-c.C())
	assert.True(t, c.Empty())
}

func TestQueueInterfaces(t *testing.T) {
	var _ Queue[int] = NewRing[int](1)
	var _ Queue[int] = NewChan[int](1)
}
