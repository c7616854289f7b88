package schedule

import (
	"context"
	"fmt"
	"sync"
)

// Store is the external schedule resource. Get and Update are the only
// operations the mutator needs; there is no conditional write, so
// concurrent mutators of one identity race and the last writer wins.
type Store interface {
	// Get fetches the definition for (name, group), or ErrNotFound.
	Get(ctx context.Context, name, group string) (*Definition, error)

	// Update replaces the stored definition and returns its resource ARN.
	Update(ctx context.Context, def *Definition) (string, error)
}

// MemoryStore is a process-local Store, used in tests and as the backing
// map of the file-persisted LocalStore.
type MemoryStore struct {
	mu   sync.RWMutex
	defs map[string]*Definition
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{defs: make(map[string]*Definition)}
}

// Put seeds or replaces a definition directly, bypassing ARN bookkeeping.
func (s *MemoryStore) Put(def *Definition) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.defs[def.Identity()] = def.Clone()
}

func (s *MemoryStore) Get(_ context.Context, name, group string) (*Definition, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	def, ok := s.defs[group+"/"+name]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, group, name)
	}
	return def.Clone(), nil
}

func (s *MemoryStore) Update(_ context.Context, def *Definition) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := def.Identity()
	if _, ok := s.defs[key]; !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	s.defs[key] = def.Clone()
	return arnFor(def), nil
}

// List returns a snapshot of all definitions.
func (s *MemoryStore) List() []*Definition {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Definition, 0, len(s.defs))
	for _, def := range s.defs {
		out = append(out, def.Clone())
	}
	return out
}

func arnFor(def *Definition) string {
	return fmt.Sprintf("arn:tickbot:scheduler:schedule/%s/%s", def.Group, def.Name)
}
