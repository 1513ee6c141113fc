package registry

import (
	"context"
	"errors"

	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
)

var (
	// ErrNotFound is returned by Lookup for an id the registry does not track.
	ErrNotFound = errors.New("registry: item not found")

	// ErrMalformed is returned for a stored record that cannot be decoded or has a non-positive rate.
	ErrMalformed = errors.New("registry: malformed record")
)

// Registry resolves request ids to per-item bucket records. Records are
// created and deleted by the registry owner; a drain loop only reads and
// updates existing ones.
type Registry interface {
	// Lookup returns the record for id, or ErrNotFound.
	Lookup(ctx context.Context, id string) (Record, error)
}

// Record is a handle to one tracked item's bucket.
type Record interface {
	// ID returns the item id the record belongs to.
	ID() string

	// Rate returns the configured items per time unit for this item. It is
	// immutable for the record's lifetime.
	Rate() float64

	// Locker returns the per-item lock, or nil if the item has none.
	Locker() Locker

	// Load reads the current accounting.
	Load(ctx context.Context) (leakybucket.State, error)

	// Store writes back updated accounting.
	Store(ctx context.Context, s leakybucket.State) error
}

// Snapshotter is implemented by registries that can report every record's accounting.
type Snapshotter interface {
	Snapshot(ctx context.Context) (map[string]leakybucket.State, error)
}
