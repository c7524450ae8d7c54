package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/observe"
)

// DefaultScanCount is the COUNT hint passed to SCAN during pattern lookups.
const DefaultScanCount = 100

// RedisStore is a Store backed by Redis.
//
// Set issues a single SET with an expiry. Keys iterates SCAN MATCH instead of
// KEYS so that large keyspaces do not block the server.
type RedisStore struct {
	client    redis.UniversalClient
	logger    observe.Logger
	scanCount int64
}

// RedisOption configures a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisLogger sets the logger used to report backend failures.
func WithRedisLogger(logger observe.Logger) RedisOption {
	return func(s *RedisStore) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithScanCount sets the SCAN COUNT hint.
func WithScanCount(n int64) RedisOption {
	return func(s *RedisStore) {
		if n > 0 {
			s.scanCount = n
		}
	}
}

// NewRedisStore wraps a shared Redis client. The caller owns the client.
func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	s := &RedisStore{
		client:    client,
		logger:    observe.NopLogger(),
		scanCount: DefaultScanCount,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewRedisClient creates a client from a redis:// or rediss:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// Get retrieves a value. redis.Nil is reported as a miss.
func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, apierr.FromCache(ctx, s.logger, "cache.get", err)
	}
	return val, true, nil
}

// Set stores value under key with a TTL. A non-positive TTL stores nothing,
// since Redis would otherwise keep the key forever.
func (s *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return apierr.FromCache(ctx, s.logger, "cache.set", err)
	}
	return nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *RedisStore) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return apierr.FromCache(ctx, s.logger, "cache.delete", err)
	}
	return nil
}

// Keys returns the keys matching pattern. SCAN may report a key more than
// once; duplicates are removed.
func (s *RedisStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	seen := make(map[string]struct{})
	keys := make([]string, 0)

	iter := s.client.Scan(ctx, 0, pattern, s.scanCount).Iterator()
	for iter.Next(ctx) {
		k := iter.Val()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keys = append(keys, k)
	}
	if err := iter.Err(); err != nil {
		return nil, apierr.FromCache(ctx, s.logger, "cache.keys", err)
	}
	return keys, nil
}

// Ping checks connectivity to the server.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return apierr.FromCache(ctx, s.logger, "cache.ping", err)
	}
	return nil
}

var _ Store = (*RedisStore)(nil)
