package registry

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/vnykmshr/goshape/pkg/common/validation"
	"github.com/vnykmshr/goshape/pkg/ratelimit/leakybucket"
)

// Entry describes one item when it is added to a Memory registry.
type Entry struct {
	// Rate is the item's maximum admitted items per time unit.
	Rate float64

	// State is the initial accounting, normally the zero value.
	State leakybucket.State

	// Lock is the optional per-item lock used by shared drain loops.
	Lock Locker
}

// Memory is an in-process registry backed by a map.
type Memory struct {
	mu      sync.RWMutex
	records map[string]*memoryRecord
}

type memoryRecord struct {
	id   string
	rate float64
	lock Locker

	mu    sync.Mutex
	state leakybucket.State
}

// NewMemory creates a registry holding the given entries. Every entry is
// validated up front so a malformed one fails construction instead of a
// running drain loop.
func NewMemory(entries map[string]Entry) (*Memory, error) {
	m := &Memory{records: make(map[string]*memoryRecord, len(entries))}
	for id, e := range entries {
		if err := m.Add(id, e); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Add registers an item. Adding an id that already exists replaces it.
func (m *Memory) Add(id string, e Entry) error {
	if err := validation.ValidateNotEmpty("registry", "id", id); err != nil {
		return err
	}
	if err := validation.ValidatePositiveFloat("registry", fmt.Sprintf("entries[%s].rate", id), e.Rate); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[id] = &memoryRecord{id: id, rate: e.Rate, lock: e.Lock, state: e.State}
	return nil
}

// Remove stops tracking an item.
func (m *Memory) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, id)
}

// Lookup implements Registry.
func (m *Memory) Lookup(_ context.Context, id string) (Record, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	rec, ok := m.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

// Len returns the number of tracked items.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}

// IDs returns the tracked ids in sorted order.
func (m *Memory) IDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.records))
	for id := range m.records {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Snapshot implements Snapshotter.
func (m *Memory) Snapshot(context.Context) (map[string]leakybucket.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]leakybucket.State, len(m.records))
	for id, rec := range m.records {
		rec.mu.Lock()
		out[id] = rec.state
		rec.mu.Unlock()
	}
	return out, nil
}

func (r *memoryRecord) ID() string     { return r.id }
func (r *memoryRecord) Rate() float64  { return r.rate }
func (r *memoryRecord) Locker() Locker { return r.lock }

func (r *memoryRecord) Load(context.Context) (leakybucket.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state, nil
}

func (r *memoryRecord) Store(_ context.Context, s leakybucket.State) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.state = s
	return nil
}
