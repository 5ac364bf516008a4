// Package bytecache implements the resource tier's named byte-caches:
// response snapshots keyed by request identity, capacity-bounded with
// FIFO eviction by insertion order.
package bytecache

import (
	"container/list"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-lesson-cache/internal/metrics"
)

// Snapshot is a stored response: status, headers, and body bytes.
// Staleness is judged from the Date header, falling back to StoredAt.
type Snapshot struct {
	Status   int
	Header   http.Header
	Body     []byte
	StoredAt time.Time
}

// Clone returns a deep copy safe for the caller to mutate.
func (s *Snapshot) Clone() *Snapshot {
	body := make([]byte, len(s.Body))
	copy(body, s.Body)
	return &Snapshot{
		Status:   s.Status,
		Header:   s.Header.Clone(),
		Body:     body,
		StoredAt: s.StoredAt,
	}
}

// Age returns how long ago the snapshot's origin stamped it, preferring
// the HTTP Date header over the local insertion time.
func (s *Snapshot) Age(now time.Time) time.Duration {
	if stamp := s.Header.Get("Date"); stamp != "" {
		if t, err := http.ParseTime(stamp); err == nil {
			return now.Sub(t)
		}
	}
	return now.Sub(s.StoredAt)
}

// RequestKey derives the request identity a snapshot is stored under.
func RequestKey(req *http.Request) string {
	return req.Method + " " + req.URL.String()
}

type cacheEntry struct {
	key      string
	snapshot *Snapshot
}

// Cache is one named byte-cache. Entries are kept in insertion order;
// overwriting an existing key keeps its original position, so eviction
// stays FIFO rather than drifting toward LRU.
type Cache struct {
	name       string
	maxEntries int
	maxAge     time.Duration

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = oldest inserted
	logger  *zap.Logger
}

// NewCache creates a named byte-cache with a capacity and age bound.
func NewCache(name string, maxEntries int, maxAge time.Duration, logger *zap.Logger) *Cache {
	return &Cache{
		name:       name,
		maxEntries: maxEntries,
		maxAge:     maxAge,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		logger:     logger,
	}
}

// Name returns the cache's versioned name.
func (c *Cache) Name() string { return c.name }

// Match returns the snapshot stored for the request, stale or not.
// Staleness never deletes; it only informs the caller's strategy.
func (c *Cache) Match(req *http.Request) (*Snapshot, bool) {
	return c.MatchKey(RequestKey(req))
}

// MatchKey is Match by precomputed key.
func (c *Cache) MatchKey(key string) (*Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	elem, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return elem.Value.(*cacheEntry).snapshot.Clone(), true
}

// IsStale reports whether the snapshot's age exceeds the cache's bound.
func (c *Cache) IsStale(snap *Snapshot) bool {
	return snap.Age(time.Now()) > c.maxAge
}

// Put stores a snapshot under the request's identity, then trims the
// cache to its capacity by evicting oldest-inserted entries.
func (c *Cache) Put(req *http.Request, snap *Snapshot) {
	c.PutKey(RequestKey(req), snap)
}

// PutKey is Put by precomputed key.
func (c *Cache) PutKey(key string, snap *Snapshot) {
	stored := snap.Clone()
	if stored.StoredAt.IsZero() {
		stored.StoredAt = time.Now()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		// Replace in place; insertion order is preserved.
		elem.Value.(*cacheEntry).snapshot = stored
		return
	}
	c.entries[key] = c.order.PushBack(&cacheEntry{key: key, snapshot: stored})

	for c.order.Len() > c.maxEntries {
		oldest := c.order.Front()
		c.order.Remove(oldest)
		evicted := oldest.Value.(*cacheEntry).key
		delete(c.entries, evicted)
		metrics.RecordByteCacheEviction(c.name)
		c.logger.Debug("Byte-cache evicted oldest entry",
			zap.String("cache", c.name),
			zap.String("key", evicted))
	}
}

// Delete removes one entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if elem, ok := c.entries[key]; ok {
		c.order.Remove(elem)
		delete(c.entries, key)
	}
}

// Keys returns all keys in insertion order, oldest first.
func (c *Cache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*cacheEntry).key)
	}
	return keys
}

// Len returns the current entry count.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}

// Purge removes everything.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
}
