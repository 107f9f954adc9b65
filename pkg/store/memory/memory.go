// Package memory provides an in-process record store.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ArionMiles/paysms/pkg/api"
)

// Store keeps records in a map guarded by a mutex.
type Store struct {
	mu      sync.RWMutex
	records map[int64]api.Record
	nextID  int64
	// onChange, if set, runs after every successful mutation while the write
	// lock is held. A non-nil error from it is returned to the caller.
	onChange func([]api.Record, int64) error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		records: make(map[int64]api.Record),
		nextID:  1,
	}
}

// NewWithRecords creates a store holding records, typically loaded from disk.
// nextID is raised above the largest id present.
func NewWithRecords(records []api.Record, nextID int64) *Store {
	s := New()
	for _, r := range records {
		s.records[r.ID] = r
		if r.ID >= nextID {
			nextID = r.ID + 1
		}
	}
	if nextID > s.nextID {
		s.nextID = nextID
	}
	return s
}

// OnChange registers fn to persist the store after each mutation.
func (s *Store) OnChange(fn func(records []api.Record, nextID int64) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Insert stores r under a new id and returns it.
func (s *Store) Insert(_ context.Context, r api.Record) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r.ID = s.nextID
	s.records[r.ID] = r
	s.nextID++

	if err := s.changed(); err != nil {
		delete(s.records, r.ID)
		s.nextID--
		return 0, err
	}
	return r.ID, nil
}

// Update replaces the record with r.ID.
func (s *Store) Update(_ context.Context, r api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[r.ID]
	if !ok {
		return fmt.Errorf("updating record %d: %w", r.ID, api.ErrNotFound)
	}
	s.records[r.ID] = r

	if err := s.changed(); err != nil {
		s.records[r.ID] = prev
		return err
	}
	return nil
}

// DeleteByID removes the record with id. Deleting a missing id is a no-op.
func (s *Store) DeleteByID(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, ok := s.records[id]
	if !ok {
		return nil
	}
	delete(s.records, id)

	if err := s.changed(); err != nil {
		s.records[id] = prev
		return err
	}
	return nil
}

// GetByID returns the record with id.
func (s *Store) GetByID(_ context.Context, id int64) (api.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return api.Record{}, fmt.Errorf("getting record %d: %w", id, api.ErrNotFound)
	}
	return r, nil
}

// ListAll returns every record, most recent first.
func (s *Store) ListAll(_ context.Context) ([]api.Record, error) {
	return s.list(func(api.Record) bool { return true }), nil
}

// ListByCategory returns records in category, most recent first.
func (s *Store) ListByCategory(_ context.Context, category string) ([]api.Record, error) {
	return s.list(func(r api.Record) bool { return r.Category == category }), nil
}

// DeleteAll removes every record. Ids are not reused afterwards.
func (s *Store) DeleteAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prev := s.records
	s.records = make(map[int64]api.Record)

	if err := s.changed(); err != nil {
		s.records = prev
		return err
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) list(keep func(api.Record) bool) []api.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]api.Record, 0, len(s.records))
	for _, r := range s.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	SortRecent(out)
	return out
}

// changed must be called with the write lock held.
func (s *Store) changed() error {
	if s.onChange == nil {
		return nil
	}
	return s.onChange(s.snapshot(), s.nextID)
}

func (s *Store) snapshot() []api.Record {
	out := make([]api.Record, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r)
	}
	SortRecent(out)
	return out
}

// SortRecent orders records by OccurredAt descending, then id descending.
func SortRecent(records []api.Record) {
	sort.Slice(records, func(i, j int) bool {
		if !records[i].OccurredAt.Equal(records[j].OccurredAt) {
			return records[i].OccurredAt.After(records[j].OccurredAt)
		}
		return records[i].ID > records[j].ID
	})
}
