package memcache

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestCache(maxEntries int) *Cache {
	return New(Options{MaxEntries: maxEntries, SweepInterval: time.Hour}, zap.NewNop())
}

func TestCache_SetAndGet(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.Set("lesson:ia-ora-na", "ia ora na", time.Minute)

	val, found := c.Get("lesson:ia-ora-na")
	assert.True(t, found)
	assert.Equal(t, "ia ora na", val)
}

func TestCache_Get_NotFound(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	val, found := c.Get("missing")
	assert.False(t, found)
	assert.Nil(t, val)
}

func TestCache_ExpiredEntryIsMissAndEvicted(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.Set("key", "value", 10*time.Millisecond)
	time.Sleep(20 * time.Millisecond)

	val, found := c.Get("key")
	assert.False(t, found)
	assert.Nil(t, val)

	// Has must agree with Get on expiry, and the eviction side effect
	// of the first read removed the entry.
	assert.False(t, c.Has("key"))
	assert.Equal(t, 0, c.Len())
}

func TestCache_HasEvictsExpired(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.Set("key", "value", 10*time.Millisecond)
	assert.True(t, c.Has("key"))

	time.Sleep(20 * time.Millisecond)
	assert.False(t, c.Has("key"))
	assert.Equal(t, 0, c.Len())
}

func TestCache_OverwriteResetsExpiration(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.Set("key", "old", 20*time.Millisecond)
	time.Sleep(15 * time.Millisecond)
	c.Set("key", "new", 20*time.Millisecond)
	time.Sleep(15 * time.Millisecond)

	// Original TTL would have elapsed; overwrite restarted the clock.
	val, found := c.Get("key")
	assert.True(t, found)
	assert.Equal(t, "new", val)
}

func TestCache_DeleteAndClear(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.Set("a", 1, time.Minute)
	c.Set("b", 2, time.Minute)

	c.Delete("a")
	assert.False(t, c.Has("a"))
	assert.True(t, c.Has("b"))

	c.Clear()
	assert.Equal(t, 0, c.Len())
}

func TestCache_ForceCleanup_RemovesExpired(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.Set("fresh", 1, time.Minute)
	c.Set("stale", 2, 5*time.Millisecond)
	time.Sleep(10 * time.Millisecond)

	c.ForceCleanup()
	assert.Equal(t, 1, c.Len())
	assert.True(t, c.Has("fresh"))
}

func TestCache_ForceCleanup_EvictsOldestOverCapacity(t *testing.T) {
	c := newTestCache(3)
	defer c.Close()

	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("key-%d", i), i, time.Minute)
		time.Sleep(2 * time.Millisecond) // distinct storedAt timestamps
	}

	c.ForceCleanup()

	assert.Equal(t, 3, c.Len())
	assert.False(t, c.Has("key-0"))
	assert.False(t, c.Has("key-1"))
	assert.True(t, c.Has("key-2"))
	assert.True(t, c.Has("key-3"))
	assert.True(t, c.Has("key-4"))
}

func TestCache_BackgroundSweep(t *testing.T) {
	c := New(Options{MaxEntries: 10, SweepInterval: 10 * time.Millisecond}, zap.NewNop())
	defer c.Close()

	c.Set("stale", "v", 5*time.Millisecond)

	assert.Eventually(t, func() bool {
		return c.Len() == 0
	}, time.Second, 5*time.Millisecond)
}

func TestCache_Stats(t *testing.T) {
	c := newTestCache(10)
	defer c.Close()

	c.Set("key", "value", time.Minute)
	c.Get("key")
	c.Get("missing")

	stats := c.Stats()
	assert.Equal(t, 1, stats.Entries)
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 0.001)
	assert.Greater(t, stats.MemoryUsageBytes, int64(0))
	assert.False(t, stats.LastCleanup.IsZero())
}

func TestCache_CloseStopsSweep(t *testing.T) {
	c := New(Options{MaxEntries: 10, SweepInterval: 10 * time.Millisecond}, zap.NewNop())
	c.Close()
	c.Close() // idempotent

	c.Set("stale", "v", time.Millisecond)
	time.Sleep(30 * time.Millisecond)
	// No sweep ran; the expired entry is still counted until read.
	assert.Equal(t, 1, c.Len())
}
