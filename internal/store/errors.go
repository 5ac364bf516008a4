// Package store defines the durable structured tier's schema and error
// taxonomy shared by all backends.
package store

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when an operation is attempted
	// before Initialize has succeeded.
	ErrNotInitialized = errors.New("store: not initialized")

	// ErrRecordNotFound is returned by GetByKey on a lookup miss.
	ErrRecordNotFound = errors.New("store: record not found")

	// ErrUnknownCollection is returned for a collection name outside
	// the schema.
	ErrUnknownCollection = errors.New("store: unknown collection")

	// ErrUnknownIndex is returned for an index name the collection does
	// not declare.
	ErrUnknownIndex = errors.New("store: unknown index")
)

// StorageUnavailableError indicates the platform denied storage access
// (the store could not be opened).
type StorageUnavailableError struct {
	Path string
	Err  error
}

func (e *StorageUnavailableError) Error() string {
	return fmt.Sprintf("store: storage unavailable at %q: %v", e.Path, e.Err)
}

func (e *StorageUnavailableError) Unwrap() error { return e.Err }

// TransactionError indicates a batch write failed; the batch was rolled
// back and no record of it was applied.
type TransactionError struct {
	Collection string
	Err        error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("store: transaction failed for collection %q: %v", e.Collection, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }
