// Package cache provides a read-through response cache for RPC handlers.
//
// A Decorator derives a deterministic key from an RPC method name and its
// request (method + ":" + canonical JSON), looks the key up in a Store, and
// on a miss invokes the handler and stores the encoded response with a TTL.
// Every response is annotated with the cache status (HIT or MISS) and a
// cache-control directive for the transport to emit as headers.
//
// An Invalidator removes entries either by exact key or by glob pattern.
// Patterns follow Redis MATCH semantics (* ? [...] and \ escapes) and are
// evaluated against the raw key, so keys are never hashed.
//
// Stores report failures as apierr CacheError values; the Decorator never
// retries and never caches handler errors.
package cache
