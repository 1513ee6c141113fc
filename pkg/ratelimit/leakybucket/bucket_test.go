package leakybucket

import (
	"math"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnykmshr/goshape/internal/testutil"
	"github.com/vnykmshr/goshape/pkg/common/errors"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		burst   float64
		wantErr bool
	}{
		{"valid parameters", 10, 5, false},
		{"zero burst", 10, 0, false},
		{"zero rate", 0, 5, true},
		{"negative rate", -1, 5, true},
		{"negative burst", 10, -1, true},
		{"NaN burst", 10, math.NaN(), true},
		{"infinite burst", 10, math.Inf(1), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := New(tt.rate, tt.burst)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, errors.ErrInvalidConfiguration)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, ItemCost(DefaultResolution, tt.rate), b.Cost())
			assert.Equal(t, State{}, b.State())
		})
	}
}

func TestNewWithConfig_InvalidResolution(t *testing.T) {
	_, err := NewWithConfig(Config{Rate: 1, Resolution: -5})
	assert.ErrorIs(t, err, errors.ErrInvalidConfiguration)

	_, err = NewWithConfig(Config{Rate: 1, Resolution: MaxResolution * 10})
	assert.ErrorIs(t, err, errors.ErrInvalidConfiguration)

	_, err = NewWithConfig(Config{Rate: 1, Resolution: MaxResolution})
	assert.NoError(t, err)
}

func TestBucket_Flow(t *testing.T) {
	clock := testutil.NewMockClock(testutil.Epoch)
	b, err := NewWithConfig(Config{
		Rate:  10, // one item per 100ms
		Burst: 2,
		Clock: clock,
	})
	require.NoError(t, err)

	// Empty bucket plus a burst of two lets three through at once.
	for i := 0; i < 3; i++ {
		assert.True(t, b.Allow(), "request %d should be allowed", i+1)
	}
	assert.False(t, b.Allow(), "4th request should be denied")

	clock.Advance(100 * time.Millisecond)
	assert.True(t, b.Allow(), "one item drained after 100ms")
	assert.False(t, b.Allow())

	clock.Advance(time.Second)
	assert.Equal(t, float64(0), b.Level())
}

func TestBucket_Refund(t *testing.T) {
	clock := testutil.NewMockClock(testutil.Epoch)
	b, err := NewWithConfig(Config{Rate: 10, Clock: clock})
	require.NoError(t, err)

	require.True(t, b.Allow())
	assert.Equal(t, b.Cost(), b.Level())

	b.Refund()
	assert.Equal(t, float64(0), b.Level())
	assert.True(t, b.Allow(), "refunded credit is usable again")
}

func TestBucket_CustomAdmitter(t *testing.T) {
	b, err := NewWithConfig(Config{
		Rate: 1,
		Admitter: AdmitterFunc(func(s State, now Tick, _, _ float64) (State, bool) {
			return s, false
		}),
	})
	require.NoError(t, err)
	assert.False(t, b.Allow())
}

func TestBucket_Concurrent(t *testing.T) {
	clock := testutil.NewMockClock(testutil.Epoch)
	b, err := NewWithConfig(Config{Rate: 10, Burst: 19, Clock: clock})
	require.NoError(t, err)

	var allowed int64
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				if b.Allow() {
					atomic.AddInt64(&allowed, 1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), allowed)
}
