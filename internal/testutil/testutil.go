package testutil

import (
	"context"
	"testing"
	"time"
)

// TestTimeout is the default timeout for tests
const TestTimeout = 5 * time.Second

// WithTimeout creates a context with the default test timeout
func WithTimeout(t *testing.T) (context.Context, context.CancelFunc) {
	t.Helper()
	return context.WithTimeout(context.Background(), TestTimeout)
}

// Epoch is a fixed start time for deterministic clocks. It sits on a whole
// second so tick values derived from it are easy to reason about.
var Epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
