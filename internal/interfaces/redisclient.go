package interfaces

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

//go:generate mockgen -package=mock -source=redisclient.go -destination=mock/redisclient.go

// RedisClient defines the Redis operations used by the redis-backed
// record store.
type RedisClient interface {
	// Get retrieves a value by key
	Get(ctx context.Context, key string) *redis.StringCmd

	// Set stores a value with expiration
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd

	// Del deletes one or more keys
	Del(ctx context.Context, keys ...string) *redis.IntCmd

	// SAdd adds members to a set
	SAdd(ctx context.Context, key string, members ...interface{}) *redis.IntCmd

	// SRem removes members from a set
	SRem(ctx context.Context, key string, members ...interface{}) *redis.IntCmd

	// SMembers returns all members of a set
	SMembers(ctx context.Context, key string) *redis.StringSliceCmd

	// TxPipeline returns a transactional pipeline
	TxPipeline() redis.Pipeliner

	// Ping tests connectivity
	Ping(ctx context.Context) *redis.StatusCmd

	// Close closes the client connection
	Close() error
}
