package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommonErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"ErrInvalidConfiguration", ErrInvalidConfiguration, "invalid configuration"},
		{"ErrLockUnavailable", ErrLockUnavailable, "no lock available"},
		{"ErrLockNotAcquired", ErrLockNotAcquired, "lock not acquired"},
		{"ErrLockNotHeld", ErrLockNotHeld, "lock not held"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NotNil(t, tt.err)
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ValidationError
		want string
	}{
		{
			name: "without hint",
			err: &ValidationError{
				Module: "shaper",
				Field:  "rate",
				Value:  -1,
				Reason: "must be positive",
			},
			want: "shaper: invalid rate=-1 (must be positive)",
		},
		{
			name: "with hint",
			err: &ValidationError{
				Module: "registry",
				Field:  "entries[a].rate",
				Value:  0,
				Reason: "must be positive",
				Hint:   "use a value greater than 0",
			},
			want: "registry: invalid entries[a].rate=0 (must be positive) - use a value greater than 0",
		},
		{
			name: "nil value",
			err: &ValidationError{
				Module: "shaper",
				Field:  "input",
				Value:  nil,
				Reason: "cannot be nil",
			},
			want: "shaper: invalid input=<nil> (cannot be nil)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestValidationError_Unwrap(t *testing.T) {
	verr := NewValidationError("test", "field", 0, "test")

	assert.Equal(t, ErrInvalidConfiguration, verr.Unwrap())
	assert.True(t, errors.Is(verr, ErrInvalidConfiguration))
	assert.True(t, errors.Is(fmt.Errorf("wrapped: %w", verr), ErrInvalidConfiguration))
}

func TestValidationError_WithHint(t *testing.T) {
	err := NewValidationError("test", "field", 0, "invalid").WithHint("try a positive value")
	assert.Equal(t, "try a positive value", err.Hint)
	assert.Same(t, err, err.WithHint("new hint"))
}

func TestOperationError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewOperationError("registry", "Lookup", cause)

	assert.Equal(t, "registry.Lookup failed: connection refused", err.Error())
	assert.True(t, errors.Is(err, cause))

	err.WithContext("id=client-1")
	assert.Equal(t, "registry.Lookup failed: connection refused (id=client-1)", err.Error())
}

func TestIsValidationError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"validation error", NewValidationError("m", "f", 0, "r"), true},
		{"wrapped validation error", &OperationError{Cause: NewValidationError("m", "f", 0, "r")}, true},
		{"operation error", &OperationError{Cause: errors.New("test")}, false},
		{"standard error", errors.New("test"), false},
		{"nil error", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidationError(tt.err))
		})
	}
}

func TestIsLockError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unavailable", ErrLockUnavailable, true},
		{"not acquired", NewOperationError("registry", "Lock", ErrLockNotAcquired), true},
		{"not held", fmt.Errorf("release: %w", ErrLockNotHeld), true},
		{"other", errors.New("boom"), false},
		{"nil", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsLockError(tt.err))
		})
	}
}

func TestErrorMessages(t *testing.T) {
	err := NewValidationError("mymodule", "myfield", 42, "must be less than 10").
		WithHint("use a value between 0 and 10")

	msg := err.Error()
	for _, part := range []string{"mymodule", "myfield", "42", "must be less than 10", "use a value between 0 and 10"} {
		assert.True(t, strings.Contains(msg, part), "message %q should contain %q", msg, part)
	}
}
