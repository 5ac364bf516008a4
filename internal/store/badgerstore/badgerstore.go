// Package badgerstore is the default durable record store backend,
// keeping collections on device in a BadgerDB keyspace.
package badgerstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"go-lesson-cache/internal/interfaces"
	"go-lesson-cache/internal/metrics"
	"go-lesson-cache/internal/models"
	"go-lesson-cache/internal/store"
)

// Key prefixes inside the badger keyspace. Primary keys and index
// values must not contain ':'.
const (
	recordKeyPrefix = "rec:"
	indexKeyPrefix  = "idx:"
)

// envelope is what a record key stores: the payload plus the index
// values it was written with, so an upsert can retract stale index rows.
type envelope struct {
	Index map[string]string `json:"index,omitempty"`
	Data  []byte            `json:"data"`
}

// Ensure Store implements interfaces.RecordStore
var _ interfaces.RecordStore = (*Store)(nil)

// Store is a badger-backed record store.
type Store struct {
	mu     sync.Mutex
	path   string
	db     *badger.DB
	logger *zap.Logger
}

// New creates an unopened store rooted at path.
func New(path string, logger *zap.Logger) *Store {
	return &Store{path: path, logger: logger}
}

// Initialize opens the database and seeds schema metadata. Idempotent.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return nil
	}

	opts := badger.DefaultOptions(s.path).WithLogger(nil)
	db, err := badger.Open(opts)
	if err != nil {
		return &store.StorageUnavailableError{Path: s.path, Err: err}
	}

	rec, recErr := store.MetadataRecord(store.MetaSchemaVersion, store.SchemaVersion)
	if recErr != nil {
		_ = db.Close()
		return &store.StorageUnavailableError{Path: s.path, Err: recErr}
	}
	err = db.Update(func(txn *badger.Txn) error {
		key := recordKey(store.CollectionMetadata, store.MetaSchemaVersion)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return txn.Set(key, mustEnvelope(rec))
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return &store.StorageUnavailableError{Path: s.path, Err: err}
	}

	s.db = db
	s.logger.Info("Durable store opened", zap.String("path", s.path))
	return nil
}

func (s *Store) database() (*badger.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil, store.ErrNotInitialized
	}
	return s.db, nil
}

// UpsertMany writes the batch in a single transaction; partial failure
// rolls the whole collection batch back.
func (s *Store) UpsertMany(ctx context.Context, collection string, records []models.Record) error {
	defer metrics.TimeStoreOperation("badger", "upsert")()

	db, err := s.database()
	if err != nil {
		return err
	}
	if !store.ValidCollection(collection) {
		return store.ErrUnknownCollection
	}

	err = db.Update(func(txn *badger.Txn) error {
		for _, rec := range records {
			if err := upsertOne(txn, collection, rec); err != nil {
				return fmt.Errorf("upsert %q: %w", rec.Key, err)
			}
		}
		return nil
	})
	if err != nil {
		return &store.TransactionError{Collection: collection, Err: err}
	}
	return nil
}

func upsertOne(txn *badger.Txn, collection string, rec models.Record) error {
	key := recordKey(collection, rec.Key)

	// Retract index rows from a previous version of the record.
	if item, err := txn.Get(key); err == nil {
		var prev envelope
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &prev)
		}); err == nil {
			for idx, val := range prev.Index {
				if rec.Index[idx] != val {
					if err := txn.Delete(indexKey(collection, idx, val, rec.Key)); err != nil {
						return err
					}
				}
			}
		}
	} else if !errors.Is(err, badger.ErrKeyNotFound) {
		return err
	}

	data, err := json.Marshal(envelope{Index: rec.Index, Data: rec.Data})
	if err != nil {
		return err
	}
	if err := txn.Set(key, data); err != nil {
		return err
	}
	for idx, val := range rec.Index {
		if err := txn.Set(indexKey(collection, idx, val, rec.Key), []byte(rec.Key)); err != nil {
			return err
		}
	}
	return nil
}

// GetByKey returns the record under key.
func (s *Store) GetByKey(ctx context.Context, collection, key string) (*models.Record, error) {
	defer metrics.TimeStoreOperation("badger", "get")()

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	if !store.ValidCollection(collection) {
		return nil, store.ErrUnknownCollection
	}

	var rec *models.Record
	err = db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(collection, key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return store.ErrRecordNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			decoded, err := decodeRecord(key, val)
			if err != nil {
				return err
			}
			rec = decoded
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// GetAll returns every record in the collection in key order.
func (s *Store) GetAll(ctx context.Context, collection string) ([]models.Record, error) {
	defer metrics.TimeStoreOperation("badger", "get_all")()

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	if !store.ValidCollection(collection) {
		return nil, store.ErrUnknownCollection
	}

	prefix := []byte(recordKeyPrefix + collection + ":")
	var out []models.Record
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			item := it.Item()
			key := string(item.Key()[len(prefix):])
			if err := item.Value(func(val []byte) error {
				rec, err := decodeRecord(key, val)
				if err != nil {
					return err
				}
				out = append(out, *rec)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// QueryByIndex resolves primary keys through the index keyspace, then
// loads each record.
func (s *Store) QueryByIndex(ctx context.Context, collection, index, value string) ([]models.Record, error) {
	defer metrics.TimeStoreOperation("badger", "query_index")()

	db, err := s.database()
	if err != nil {
		return nil, err
	}
	if !store.ValidCollection(collection) {
		return nil, store.ErrUnknownCollection
	}
	if !store.ValidIndex(collection, index) {
		return nil, store.ErrUnknownIndex
	}

	prefix := []byte(indexKeyPrefix + collection + ":" + index + ":" + value + ":")
	var out []models.Record
	err = db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			primary := string(it.Item().Key()[len(prefix):])
			item, err := txn.Get(recordKey(collection, primary))
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue // dangling index row
			}
			if err != nil {
				return err
			}
			if err := item.Value(func(val []byte) error {
				rec, err := decodeRecord(primary, val)
				if err != nil {
					return err
				}
				out = append(out, *rec)
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Count returns the number of records in the collection.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	db, err := s.database()
	if err != nil {
		return 0, err
	}
	if !store.ValidCollection(collection) {
		return 0, store.ErrUnknownCollection
	}

	prefix := []byte(recordKeyPrefix + collection + ":")
	count := 0
	err = db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// Clear removes one collection's records and index rows, or the entire
// keyspace when collection is empty.
func (s *Store) Clear(ctx context.Context, collection string) error {
	db, err := s.database()
	if err != nil {
		return err
	}

	if collection == "" {
		if err := db.DropAll(); err != nil {
			return &store.TransactionError{Collection: "*", Err: err}
		}
		return nil
	}
	if !store.ValidCollection(collection) {
		return store.ErrUnknownCollection
	}

	for _, prefix := range [][]byte{
		[]byte(recordKeyPrefix + collection + ":"),
		[]byte(indexKeyPrefix + collection + ":"),
	} {
		if err := db.DropPrefix(prefix); err != nil {
			return &store.TransactionError{Collection: collection, Err: err}
		}
	}
	return nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// DiskUsage returns the on-disk footprint in bytes.
func (s *Store) DiskUsage() (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return 0, store.ErrNotInitialized
	}
	lsm, vlog := s.db.Size()
	return lsm + vlog, nil
}

func recordKey(collection, key string) []byte {
	return []byte(recordKeyPrefix + collection + ":" + key)
}

func indexKey(collection, index, value, primary string) []byte {
	return []byte(indexKeyPrefix + collection + ":" + index + ":" + value + ":" + primary)
}

func decodeRecord(key string, val []byte) (*models.Record, error) {
	var env envelope
	if err := json.Unmarshal(val, &env); err != nil {
		return nil, err
	}
	return &models.Record{Key: key, Data: env.Data, Index: env.Index}, nil
}

func mustEnvelope(rec models.Record) []byte {
	data, err := json.Marshal(envelope{Index: rec.Index, Data: rec.Data})
	if err != nil {
		panic(err) // envelope of marshaled bytes cannot fail
	}
	return data
}
