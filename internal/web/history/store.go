// Package history keeps the score runs requested through the HTTP API.
package history

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// ErrNotFound is returned when no run has the requested ID.
var ErrNotFound = errors.New("run not found")

// DefaultLimit is the number of runs kept when no limit is given.
const DefaultLimit = 500

// newID generates a run ID. Extracted as a variable for testing.
var newID = defaultNewID

func defaultNewID(seq uint64) string {
	return fmt.Sprintf("%d-%d", time.Now().UnixNano(), seq)
}

// Store is an in-memory, size-bounded collection of runs. When full, adding
// a run evicts the oldest one.
type Store struct {
	mu    sync.RWMutex
	runs  map[string]*Run
	limit int
	seq   uint64
}

// NewStore creates a store holding at most limit runs.
func NewStore(limit int) *Store {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Store{
		runs:  make(map[string]*Run),
		limit: limit,
	}
}

// Add assigns an ID and creation time to run and stores it.
func (s *Store) Add(run *Run) *Run {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	run.seq = s.seq
	run.ID = newID(s.seq)
	run.CreatedAt = time.Now()
	s.runs[run.ID] = run

	for len(s.runs) > s.limit {
		s.evictOldest()
	}
	return run
}

// Get returns a run by ID.
func (s *Store) Get(id string) (*Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	return run, nil
}

// List returns all runs, newest first.
func (s *Store) List() []*Run {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Run, 0, len(s.runs))
	for _, r := range s.runs {
		result = append(result, r)
	}
	sort.Slice(result, func(i, k int) bool {
		return result[i].seq > result[k].seq
	})
	return result
}

// Delete removes a run.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.runs[id]; !ok {
		return fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	delete(s.runs, id)
	return nil
}

// Len returns the number of stored runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

// evictOldest must be called with the lock held.
func (s *Store) evictOldest() {
	var oldest *Run
	for _, r := range s.runs {
		if oldest == nil || r.seq < oldest.seq {
			oldest = r
		}
	}
	if oldest != nil {
		delete(s.runs, oldest.ID)
	}
}
