package testutil

import (
	"sync"
	"time"
)

// MockClock implements leakybucket.Clock for testing with controllable time.
// This is used across the shaper and bucket tests to avoid actual time delays.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a new MockClock starting at the given time.
// If zero time is provided, uses Epoch.
func NewMockClock(start time.Time) *MockClock {
	if start.IsZero() {
		start = Epoch
	}
	return &MockClock{now: start}
}

// Now returns the current mock time.
func (m *MockClock) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the mock clock forward by the given duration.
func (m *MockClock) Advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

// Set sets the mock clock to a specific time.
func (m *MockClock) Set(t time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = t
}

// StepClock advances by a fixed step every time it is read, so a drain loop
// that reads the clock once per request sees requests spaced step apart.
type StepClock struct {
	mu   sync.Mutex
	now  time.Time
	step time.Duration
}

// NewStepClock creates a StepClock whose first reading is start.
func NewStepClock(start time.Time, step time.Duration) *StepClock {
	if start.IsZero() {
		start = Epoch
	}
	return &StepClock{now: start, step: step}
}

// Now returns the current time and advances the clock by one step.
func (c *StepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now
	c.now = c.now.Add(c.step)
	return now
}

// RecordingSink collects everything put into it and can be told to refuse puts,
// simulating a saturated output queue.
type RecordingSink[T any] struct {
	mu     sync.Mutex
	items  []T
	refuse bool
	puts   int
}

// NewRecordingSink creates an accepting RecordingSink.
func NewRecordingSink[T any]() *RecordingSink[T] {
	return &RecordingSink[T]{}
}

// TryPut records v unless the sink is refusing.
func (s *RecordingSink[T]) TryPut(v T, _ bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.puts++
	if s.refuse {
		return false
	}
	s.items = append(s.items, v)
	return true
}

// Refuse toggles whether puts are refused.
func (s *RecordingSink[T]) Refuse(refuse bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refuse = refuse
}

// Items returns a copy of the accepted values.
func (s *RecordingSink[T]) Items() []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]T(nil), s.items...)
}

// Puts returns the number of TryPut calls, accepted or not.
func (s *RecordingSink[T]) Puts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.puts
}
