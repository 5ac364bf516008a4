// Package memcache implements the in-process memory tier: per-entry TTL,
// lazy expiry on read, a global entry-count bound with oldest-first
// eviction, and a periodic background sweep.
package memcache

import (
	"sort"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"go-lesson-cache/internal/metrics"
	"go-lesson-cache/internal/models"
	"go-lesson-cache/internal/scheduler"
)

// DefaultMaxEntries bounds the cache when no limit is configured.
const DefaultMaxEntries = 1000

// DefaultSweepInterval is how often the background sweep runs.
const DefaultSweepInterval = time.Minute

type entry struct {
	value    interface{}
	storedAt time.Time
	ttl      time.Duration
	size     int64
}

func (e *entry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.ttl
}

// Cache is the memory tier. All operations are synchronous and safe for
// concurrent use.
type Cache struct {
	mu          sync.Mutex
	entries     map[string]*entry
	maxEntries  int
	hits        uint64
	misses      uint64
	lastCleanup time.Time

	sweep  *scheduler.Scheduler
	logger *zap.Logger
	closed bool
}

// Options configures a Cache.
type Options struct {
	MaxEntries    int
	SweepInterval time.Duration
}

// New creates a memory cache and starts its background sweep.
func New(opts Options, logger *zap.Logger) *Cache {
	if opts.MaxEntries <= 0 {
		opts.MaxEntries = DefaultMaxEntries
	}
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = DefaultSweepInterval
	}

	c := &Cache{
		entries:     make(map[string]*entry),
		maxEntries:  opts.MaxEntries,
		lastCleanup: time.Now(),
		logger:      logger,
	}
	c.sweep = scheduler.New(opts.SweepInterval, c.ForceCleanup)
	c.sweep.Start()
	return c
}

// Set stores value under key, overwriting any existing entry and
// resetting its expiration clock.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	size := estimateSize(key, value)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{
		value:    value,
		storedAt: time.Now(),
		ttl:      ttl,
		size:     size,
	}
	metrics.UpdateMemoryEntries(len(c.entries))
}

// Get returns the value for key if present and not expired. Expired
// entries are evicted as a side effect and reported as a miss.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		c.misses++
		metrics.RecordTierMiss("memory")
		return nil, false
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		c.misses++
		metrics.RecordTierMiss("memory")
		metrics.RecordMemoryEviction("expired")
		return nil, false
	}
	c.hits++
	metrics.RecordTierHit("memory")
	return e.value, true
}

// Has reports whether key is present and fresh, applying the same
// expiry check and eviction side effect as Get.
func (c *Cache) Has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return false
	}
	if e.expired(time.Now()) {
		delete(c.entries, key)
		metrics.RecordMemoryEviction("expired")
		return false
	}
	return true
}

// Delete removes one entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	metrics.UpdateMemoryEntries(len(c.entries))
}

// Clear removes all entries.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
	metrics.UpdateMemoryEntries(0)
}

// ForceCleanup evicts every expired entry, then evicts oldest-stored
// entries until the entry count is within the configured bound.
func (c *Cache) ForceCleanup() {
	now := time.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if e.expired(now) {
			delete(c.entries, key)
			metrics.RecordMemoryEviction("expired")
		}
	}

	if over := len(c.entries) - c.maxEntries; over > 0 {
		type aged struct {
			key      string
			storedAt time.Time
		}
		all := make([]aged, 0, len(c.entries))
		for key, e := range c.entries {
			all = append(all, aged{key, e.storedAt})
		}
		sort.Slice(all, func(i, j int) bool {
			return all[i].storedAt.Before(all[j].storedAt)
		})
		for i := 0; i < over; i++ {
			delete(c.entries, all[i].key)
			metrics.RecordMemoryEviction("capacity")
		}
		c.logger.Debug("Memory cache trimmed to capacity",
			zap.Int("evicted", over),
			zap.Int("max_entries", c.maxEntries))
	}

	c.lastCleanup = now
	metrics.UpdateMemoryEntries(len(c.entries))
}

// Len returns the current entry count, expired entries included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache's counters and usage estimate.
func (c *Cache) Stats() models.MemoryCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var bytes int64
	for _, e := range c.entries {
		bytes += e.size
	}

	total := c.hits + c.misses
	rate := 0.0
	if total > 0 {
		rate = float64(c.hits) / float64(total)
	}

	return models.MemoryCacheStats{
		Entries:          len(c.entries),
		MemoryUsageBytes: bytes,
		Hits:             c.hits,
		Misses:           c.misses,
		HitRate:          rate,
		LastCleanup:      c.lastCleanup,
	}
}

// LastCleanup returns when the cleanup last ran (set at construction,
// updated by every ForceCleanup).
func (c *Cache) LastCleanup() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastCleanup
}

// Close stops the background sweep. The cache remains usable but is no
// longer swept.
func (c *Cache) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.mu.Unlock()
	c.sweep.Stop()
}

// estimateSize approximates an entry's footprint from its JSON encoding.
// Best effort only; unencodable values count as key size alone.
func estimateSize(key string, value interface{}) int64 {
	size := int64(len(key))
	if data, err := json.Marshal(value); err == nil {
		size += int64(len(data))
	}
	return size
}
