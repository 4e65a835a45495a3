// Package registry assigns stable identities to chat participants.
package registry

import (
	"errors"
	"sort"
	"sync"

	"github.com/d1j/facebook-stats/internal/core/model"
)

// ErrNotFound is returned by Lookup for names that were never ensured.
var ErrNotFound = errors.New("participant not found")

// Registry de-duplicates participants by exact name. Ids are allocated in
// first-seen order and never reused. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	ids   map[string]model.ParticipantID
	names []string
}

func New() *Registry {
	return &Registry{
		ids: make(map[string]model.ParticipantID),
	}
}

// Ensure returns the id of name, allocating a new one if the name is unseen.
func (r *Registry) Ensure(name string) model.ParticipantID {
	r.mu.RLock()
	id, ok := r.ids[name]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Re-check: another writer may have allocated it between the locks.
	if id, ok := r.ids[name]; ok {
		return id
	}
	id = model.ParticipantID(len(r.names))
	r.ids[name] = id
	r.names = append(r.names, name)
	return id
}

func (r *Registry) Lookup(name string) (model.ParticipantID, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.ids[name]; ok {
		return id, nil
	}
	return 0, ErrNotFound
}

// Name returns the name registered under id.
func (r *Registry) Name(id model.ParticipantID) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || int(id) >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.names)
}

// Names returns all names in first-seen order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, len(r.names))
	copy(names, r.names)
	return names
}

// SortedIDs returns every id ordered by participant name ascending.
func (r *Registry) SortedIDs() []model.ParticipantID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]model.ParticipantID, len(r.names))
	for i := range ids {
		ids[i] = model.ParticipantID(i)
	}
	sort.Slice(ids, func(i, j int) bool {
		return r.names[ids[i]] < r.names[ids[j]]
	})
	return ids
}
