// Package redisstore is an optional remote record store backend for
// shared-device deployments where lesson state must survive the device.
package redisstore

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/go-redis/redis/v8"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"go-lesson-cache/internal/interfaces"
	"go-lesson-cache/internal/metrics"
	"go-lesson-cache/internal/models"
	"go-lesson-cache/internal/store"
)

const namespace = "lesson-cache:"

// envelope mirrors the badger backend's stored shape.
type envelope struct {
	Index map[string]string `json:"index,omitempty"`
	Data  []byte            `json:"data"`
}

// Ensure Store implements interfaces.RecordStore
var _ interfaces.RecordStore = (*Store)(nil)

// Store is a redis-backed record store.
type Store struct {
	mu          sync.Mutex
	client      interfaces.RedisClient
	logger      *zap.Logger
	initialized bool
}

// New creates a store over an existing client connection.
func New(client interfaces.RedisClient, logger *zap.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// Initialize verifies connectivity and seeds schema metadata. Idempotent.
func (s *Store) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.initialized {
		return nil
	}

	if err := s.client.Ping(ctx).Err(); err != nil {
		return &store.StorageUnavailableError{Path: "redis", Err: err}
	}

	rec, err := store.MetadataRecord(store.MetaSchemaVersion, store.SchemaVersion)
	if err != nil {
		return &store.StorageUnavailableError{Path: "redis", Err: err}
	}
	key := recordKey(store.CollectionMetadata, store.MetaSchemaVersion)
	if getErr := s.client.Get(ctx, key).Err(); errors.Is(getErr, redis.Nil) {
		data, _ := json.Marshal(envelope{Data: rec.Data})
		pipe := s.client.TxPipeline()
		pipe.Set(ctx, key, data, 0)
		pipe.SAdd(ctx, setKey(store.CollectionMetadata), rec.Key)
		if _, execErr := pipe.Exec(ctx); execErr != nil {
			return &store.StorageUnavailableError{Path: "redis", Err: execErr}
		}
	} else if getErr != nil {
		return &store.StorageUnavailableError{Path: "redis", Err: getErr}
	}

	s.initialized = true
	s.logger.Info("Durable store connected to redis")
	return nil
}

func (s *Store) ready() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.initialized {
		return store.ErrNotInitialized
	}
	return nil
}

// UpsertMany applies the batch through a MULTI/EXEC pipeline so the
// collection batch lands atomically.
func (s *Store) UpsertMany(ctx context.Context, collection string, records []models.Record) error {
	defer metrics.TimeStoreOperation("redis", "upsert")()

	if err := s.ready(); err != nil {
		return err
	}
	if !store.ValidCollection(collection) {
		return store.ErrUnknownCollection
	}

	// Read previous envelopes outside the pipeline to find index rows
	// that need retracting. Last write durably stored wins, same as the
	// other backends.
	prev := make(map[string]envelope, len(records))
	for _, rec := range records {
		data, err := s.client.Get(ctx, recordKey(collection, rec.Key)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return &store.TransactionError{Collection: collection, Err: err}
		}
		var env envelope
		if err := json.Unmarshal([]byte(data), &env); err == nil {
			prev[rec.Key] = env
		}
	}

	pipe := s.client.TxPipeline()
	for _, rec := range records {
		data, err := json.Marshal(envelope{Index: rec.Index, Data: rec.Data})
		if err != nil {
			return &store.TransactionError{Collection: collection, Err: err}
		}
		pipe.Set(ctx, recordKey(collection, rec.Key), data, 0)
		pipe.SAdd(ctx, setKey(collection), rec.Key)

		if old, ok := prev[rec.Key]; ok {
			for idx, val := range old.Index {
				if rec.Index[idx] != val {
					pipe.SRem(ctx, indexSetKey(collection, idx, val), rec.Key)
				}
			}
		}
		for idx, val := range rec.Index {
			pipe.SAdd(ctx, indexSetKey(collection, idx, val), rec.Key)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return &store.TransactionError{Collection: collection, Err: err}
	}
	return nil
}

// GetByKey returns the record under key.
func (s *Store) GetByKey(ctx context.Context, collection, key string) (*models.Record, error) {
	defer metrics.TimeStoreOperation("redis", "get")()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if !store.ValidCollection(collection) {
		return nil, store.ErrUnknownCollection
	}

	data, err := s.client.Get(ctx, recordKey(collection, key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}
	var env envelope
	if err := json.Unmarshal([]byte(data), &env); err != nil {
		return nil, fmt.Errorf("decode record %q: %w", key, err)
	}
	return &models.Record{Key: key, Data: env.Data, Index: env.Index}, nil
}

// GetAll returns every record in the collection.
func (s *Store) GetAll(ctx context.Context, collection string) ([]models.Record, error) {
	defer metrics.TimeStoreOperation("redis", "get_all")()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if !store.ValidCollection(collection) {
		return nil, store.ErrUnknownCollection
	}
	return s.loadMembers(ctx, collection, setKey(collection))
}

// QueryByIndex resolves primary keys through an index set.
func (s *Store) QueryByIndex(ctx context.Context, collection, index, value string) ([]models.Record, error) {
	defer metrics.TimeStoreOperation("redis", "query_index")()

	if err := s.ready(); err != nil {
		return nil, err
	}
	if !store.ValidCollection(collection) {
		return nil, store.ErrUnknownCollection
	}
	if !store.ValidIndex(collection, index) {
		return nil, store.ErrUnknownIndex
	}
	return s.loadMembers(ctx, collection, indexSetKey(collection, index, value))
}

func (s *Store) loadMembers(ctx context.Context, collection, set string) ([]models.Record, error) {
	keys, err := s.client.SMembers(ctx, set).Result()
	if err != nil {
		return nil, fmt.Errorf("redis smembers: %w", err)
	}
	out := make([]models.Record, 0, len(keys))
	for _, key := range keys {
		rec, err := s.GetByKey(ctx, collection, key)
		if errors.Is(err, store.ErrRecordNotFound) {
			continue // dangling membership row
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, nil
}

// Count returns the collection's membership set size.
func (s *Store) Count(ctx context.Context, collection string) (int, error) {
	if err := s.ready(); err != nil {
		return 0, err
	}
	if !store.ValidCollection(collection) {
		return 0, store.ErrUnknownCollection
	}
	keys, err := s.client.SMembers(ctx, setKey(collection)).Result()
	if err != nil {
		return 0, fmt.Errorf("redis smembers: %w", err)
	}
	return len(keys), nil
}

// Clear removes one collection, or everything when collection is empty.
func (s *Store) Clear(ctx context.Context, collection string) error {
	if err := s.ready(); err != nil {
		return err
	}
	if collection == "" {
		for _, spec := range store.Collections() {
			if err := s.clearCollection(ctx, spec.Name); err != nil {
				return err
			}
		}
		return nil
	}
	if !store.ValidCollection(collection) {
		return store.ErrUnknownCollection
	}
	return s.clearCollection(ctx, collection)
}

func (s *Store) clearCollection(ctx context.Context, collection string) error {
	keys, err := s.client.SMembers(ctx, setKey(collection)).Result()
	if err != nil {
		return &store.TransactionError{Collection: collection, Err: err}
	}

	pipe := s.client.TxPipeline()
	for _, key := range keys {
		// Read envelopes to retract index memberships before the keys go.
		if data, err := s.client.Get(ctx, recordKey(collection, key)).Result(); err == nil {
			var env envelope
			if err := json.Unmarshal([]byte(data), &env); err == nil {
				for idx, val := range env.Index {
					pipe.Del(ctx, indexSetKey(collection, idx, val))
				}
			}
		}
		pipe.Del(ctx, recordKey(collection, key))
	}
	pipe.Del(ctx, setKey(collection))
	if _, err := pipe.Exec(ctx); err != nil {
		return &store.TransactionError{Collection: collection, Err: err}
	}
	return nil
}

// Close closes the client connection.
func (s *Store) Close() error {
	return s.client.Close()
}

func recordKey(collection, key string) string {
	return namespace + "rec:" + collection + ":" + key
}

func setKey(collection string) string {
	return namespace + "col:" + collection
}

func indexSetKey(collection, index, value string) string {
	return namespace + "idx:" + collection + ":" + index + ":" + value
}
