package interfaces

import (
	"time"

	"go-lesson-cache/internal/models"
)

//go:generate mockgen -package=mock -source=memorycache.go -destination=mock/memorycache.go

// MemoryCache is the synchronous in-process tier.
type MemoryCache interface {
	Set(key string, value interface{}, ttl time.Duration)
	Get(key string) (interface{}, bool)
	Has(key string) bool
	Delete(key string)
	Clear()
	ForceCleanup()
	Len() int
	Stats() models.MemoryCacheStats
	LastCleanup() time.Time
	Close()
}
