package models

import "time"

// MemoryCacheStats describes the in-memory tier at a point in time.
type MemoryCacheStats struct {
	Entries          int       `json:"entries"`
	MemoryUsageBytes int64     `json:"memory_usage_bytes"`
	Hits             uint64    `json:"hits"`
	Misses           uint64    `json:"misses"`
	HitRate          float64   `json:"hit_rate"`
	LastCleanup      time.Time `json:"last_cleanup"`
}

// StoreStats describes the durable tier.
type StoreStats struct {
	Counts     map[string]int `json:"counts"`
	TotalItems int            `json:"total_items"`
	LastSync   time.Time      `json:"last_sync,omitempty"`
}

// CacheStatistics is the aggregate report returned by the facade.
// Derived on demand, never persisted.
type CacheStatistics struct {
	TotalItems       int       `json:"total_items"`
	MemoryUsageBytes int64     `json:"memory_usage_bytes"`
	HitRate          float64   `json:"hit_rate"`
	LastCleanup      time.Time `json:"last_cleanup"`

	Memory MemoryCacheStats `json:"memory"`
	Store  StoreStats       `json:"store"`

	// Best-effort on-disk usage of the durable store. Zero when the
	// backend cannot report it.
	DiskUsageBytes int64 `json:"disk_usage_bytes,omitempty"`
}

// HealthIssue is an advisory finding from the facade's health check.
// Issues never represent hard failures; caching is an optimization.
type HealthIssue struct {
	Issue      string `json:"issue"`
	Suggestion string `json:"suggestion"`
}

// HealthReport is the result of a facade health check.
type HealthReport struct {
	Healthy bool          `json:"healthy"`
	Issues  []HealthIssue `json:"issues,omitempty"`
}
