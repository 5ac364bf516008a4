package interfaces

import (
	"context"

	"go-lesson-cache/internal/models"
)

//go:generate mockgen -package=mock -source=recordstore.go -destination=mock/recordstore.go

// RecordStore is the durable structured tier: named record collections
// with primary keys and secondary lookup indexes. Implementations must
// return the typed errors from internal/store rather than raw platform
// errors.
type RecordStore interface {
	// Initialize opens or creates the store and applies the schema.
	// Idempotent.
	Initialize(ctx context.Context) error

	// UpsertMany writes all records for one collection atomically; each
	// record replaces any existing record with the same primary key.
	UpsertMany(ctx context.Context, collection string, records []models.Record) error

	// GetByKey returns the record under key or ErrRecordNotFound.
	GetByKey(ctx context.Context, collection, key string) (*models.Record, error)

	// GetAll returns every record in the collection.
	GetAll(ctx context.Context, collection string) ([]models.Record, error)

	// QueryByIndex returns records whose named index matches value.
	// Composite values use the schema's key separator.
	QueryByIndex(ctx context.Context, collection, index, value string) ([]models.Record, error)

	// Count returns the number of records in the collection.
	Count(ctx context.Context, collection string) (int, error)

	// Clear removes one collection, or every collection plus stored
	// metadata when collection is empty.
	Clear(ctx context.Context, collection string) error

	// Close releases the underlying connection.
	Close() error
}
