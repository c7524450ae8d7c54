package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key. Requests whose
// canonical form is longer bypass the cache.
const MaxKeyLength = 8192

// Sentinel errors for cache operations.
var (
	ErrNilStore      = errors.New("cache: store is nil")
	ErrInvalidKey    = errors.New("cache: key is invalid")
	ErrKeyTooLong    = errors.New("cache: key exceeds max length")
	ErrInvalidMethod = errors.New("cache: method name is required")
	ErrEmptyPattern  = errors.New("cache: pattern is empty")
	ErrInvalidUTF8   = errors.New("cache: request contains invalid UTF-8")
)

// Store is the key-value backend behind the cache.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Context: methods must honor cancellation/deadlines.
// - Errors: backend failures are returned as apierr CacheError values.
// - Get returns (nil, false, nil) on a miss or an expired entry.
// - Set writes the value and its TTL in a single operation; last write wins.
// - Delete is idempotent.
// - Keys returns a best-effort snapshot of keys matching a glob pattern.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Keys(ctx context.Context, pattern string) ([]string, error)
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
