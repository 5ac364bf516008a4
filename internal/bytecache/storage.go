package bytecache

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// CacheSpec configures one named cache within the storage.
type CacheSpec struct {
	Name       string
	MaxEntries int
	MaxAge     time.Duration
}

// Storage is the registry of named byte-caches, the analog of the
// hosting platform's cache storage. Cache names carry a version suffix;
// bumping the version orphans old caches until DeleteStale sweeps them.
type Storage struct {
	mu     sync.Mutex
	caches map[string]*Cache
	logger *zap.Logger
}

// NewStorage creates an empty registry.
func NewStorage(logger *zap.Logger) *Storage {
	return &Storage{
		caches: make(map[string]*Cache),
		logger: logger,
	}
}

// Open returns the named cache, creating it with the spec's bounds if
// it does not exist yet.
func (s *Storage) Open(spec CacheSpec) *Cache {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.caches[spec.Name]; ok {
		return c
	}
	c := NewCache(spec.Name, spec.MaxEntries, spec.MaxAge, s.logger)
	s.caches[spec.Name] = c
	return c
}

// Get returns the named cache if it exists.
func (s *Storage) Get(name string) (*Cache, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.caches[name]
	return c, ok
}

// Names lists every cache currently held.
func (s *Storage) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := make([]string, 0, len(s.caches))
	for name := range s.caches {
		names = append(names, name)
	}
	return names
}

// Delete removes one named cache wholesale.
func (s *Storage) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.caches[name]; !ok {
		return false
	}
	delete(s.caches, name)
	return true
}

// DeleteStale removes every cache whose name is not in current. Invoked
// at activation so caches named with an old version suffix are swept.
func (s *Storage) DeleteStale(current []string) []string {
	keep := make(map[string]struct{}, len(current))
	for _, name := range current {
		keep[name] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var deleted []string
	for name := range s.caches {
		if _, ok := keep[name]; !ok {
			delete(s.caches, name)
			deleted = append(deleted, name)
		}
	}
	if len(deleted) > 0 {
		s.logger.Info("Deleted stale-version byte-caches", zap.Strings("names", deleted))
	}
	return deleted
}

// PurgeAll empties every cache without removing the caches themselves.
func (s *Storage) PurgeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.caches {
		c.Purge()
	}
}
