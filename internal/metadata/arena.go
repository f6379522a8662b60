package metadata

import (
	"context"
	"fmt"
	"sync"

	"github.com/hyperjump/ragsearch/internal/models"
)

// Arena is an in-memory Store backed by a slice indexed by id.
// Ids are sequential from 0, so the slice grows with the vector store.
// Writing past the end pads the gap with empty slots that read as not found.
type Arena struct {
	slots []slot
	mu    sync.RWMutex
}

type slot struct {
	rec models.Record
	set bool
}

var _ Store = (*Arena)(nil)

// NewArena returns an empty arena with room for capacity records.
func NewArena(capacity int) *Arena {
	if capacity < 0 {
		capacity = 0
	}
	return &Arena{slots: make([]slot, 0, capacity)}
}

// Put stores a shallow copy of rec under id.
func (a *Arena) Put(ctx context.Context, id int, rec models.Record) error {
	if id < 0 {
		return fmt.Errorf("metadata id must be non-negative, got %d", id)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	for len(a.slots) <= id {
		a.slots = append(a.slots, slot{})
	}
	a.slots[id] = slot{rec: rec.Clone(), set: true}
	return nil
}

// Get returns the record for id. Placeholders and out-of-range ids report ok=false.
func (a *Arena) Get(ctx context.Context, id int) (models.Record, bool, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if id < 0 || id >= len(a.slots) || !a.slots[id].set {
		return nil, false, nil
	}
	return a.slots[id].rec.Clone(), true, nil
}

// Len returns the arena length, including placeholders.
func (a *Arena) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.slots)
}

// Close is a no-op for Arena.
func (a *Arena) Close() error {
	return nil
}
