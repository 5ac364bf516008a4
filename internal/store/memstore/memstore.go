// Package memstore is the in-memory record store backend, used by tests
// and ephemeral deployments.
package memstore

import (
	"context"
	"sort"
	"sync"

	"go-lesson-cache/internal/interfaces"
	"go-lesson-cache/internal/metrics"
	"go-lesson-cache/internal/models"
	"go-lesson-cache/internal/store"
)

// Ensure Store implements interfaces.RecordStore
var _ interfaces.RecordStore = (*Store)(nil)

// Store holds all collections in process memory.
type Store struct {
	mu          sync.RWMutex
	initialized bool
	collections map[string]map[string]models.Record
}

// New creates an uninitialized in-memory store.
func New() *Store {
	return &Store{}
}

// Initialize creates the schema's collections. Idempotent.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}
	s.collections = make(map[string]map[string]models.Record)
	for _, spec := range store.Collections() {
		s.collections[spec.Name] = make(map[string]models.Record)
	}
	s.initialized = true
	return nil
}

// UpsertMany replaces records by primary key. The whole batch is applied
// under one lock acquisition, so it is atomic with respect to readers.
func (s *Store) UpsertMany(ctx context.Context, collection string, records []models.Record) error {
	defer metrics.TimeStoreOperation("memory", "upsert")()

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return store.ErrNotInitialized
	}
	rows, ok := s.collections[collection]
	if !ok {
		return store.ErrUnknownCollection
	}
	for _, rec := range records {
		rows[rec.Key] = rec
	}
	return nil
}

// GetByKey returns the record under key.
func (s *Store) GetByKey(ctx context.Context, collection, key string) (*models.Record, error) {
	defer metrics.TimeStoreOperation("memory", "get")()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, store.ErrNotInitialized
	}
	rows, ok := s.collections[collection]
	if !ok {
		return nil, store.ErrUnknownCollection
	}
	rec, ok := rows[key]
	if !ok {
		return nil, store.ErrRecordNotFound
	}
	out := rec
	return &out, nil
}

// GetAll returns every record in the collection, ordered by key for
// deterministic iteration.
func (s *Store) GetAll(ctx context.Context, collection string) ([]models.Record, error) {
	defer metrics.TimeStoreOperation("memory", "get_all")()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, store.ErrNotInitialized
	}
	rows, ok := s.collections[collection]
	if !ok {
		return nil, store.ErrUnknownCollection
	}
	out := make([]models.Record, 0, len(rows))
	for _, rec := range rows {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// QueryByIndex scans the collection for records whose index value
// matches. Linear scan; collection sizes here are small.
func (s *Store) QueryByIndex(ctx context.Context, collection, index, value string) ([]models.Record, error) {
	defer metrics.TimeStoreOperation("memory", "query_index")()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return nil, store.ErrNotInitialized
	}
	if !store.ValidCollection(collection) {
		return nil, store.ErrUnknownCollection
	}
	if !store.ValidIndex(collection, index) {
		return nil, store.ErrUnknownIndex
	}
	var out []models.Record
	for _, rec := range s.collections[collection] {
		if rec.Index[index] == value {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.initialized {
		return 0, store.ErrNotInitialized
	}
	rows, ok := s.collections[collection]
	if !ok {
		return 0, store.ErrUnknownCollection
	}
	return len(rows), nil
}

// Clear empties one collection, or all of them (metadata included) when
// collection is empty.
func (s *Store) Clear(ctx context.Context, collection string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return store.ErrNotInitialized
	}
	if collection == "" {
		for name := range s.collections {
			s.collections[name] = make(map[string]models.Record)
		}
		return nil
	}
	if _, ok := s.collections[collection]; !ok {
		return store.ErrUnknownCollection
	}
	s.collections[collection] = make(map[string]models.Record)
	return nil
}

// Close releases nothing for the in-memory backend.
func (s *Store) Close() error {
	return nil
}
