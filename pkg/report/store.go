package report

import (
	"context"
	"slices"
	"sync"

	"github.com/hwseclab/regscan/pkg/errors"
)

// Store persists completed runs.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save persists a run.
	Save(ctx context.Context, run *Run) error

	// Get returns the run with the given ID, or a RUN_NOT_FOUND error.
	Get(ctx context.Context, id string) (*Run, error)

	// List returns recent runs, newest first. An empty netlist name
	// matches all runs.
	List(ctx context.Context, netlist string, limit int) ([]*Run, error)

	// Close releases backend resources.
	Close(ctx context.Context) error
}

// DefaultListLimit caps List results when the caller passes limit <= 0.
const DefaultListLimit = 50

// MemoryStore is an in-process Store for CLI usage and tests.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]*Run
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]*Run)}
}

// Save persists a run.
func (s *MemoryStore) Save(ctx context.Context, run *Run) error {
	if run == nil || run.ID == "" {
		return errors.New(errors.ErrCodeInvalidInput, "run must have an ID")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

// Get returns the run with the given ID.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeRunNotFound, "run %s", id)
	}
	return run, nil
}

// List returns recent runs, newest first.
func (s *MemoryStore) List(ctx context.Context, netlist string, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*Run
	for _, run := range s.runs {
		if netlist == "" || run.Netlist == netlist {
			out = append(out, run)
		}
	}
	slices.SortFunc(out, func(a, b *Run) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// Close does nothing for the in-memory backend.
func (s *MemoryStore) Close(ctx context.Context) error { return nil }

// Ensure MemoryStore implements Store.
var _ Store = (*MemoryStore)(nil)
