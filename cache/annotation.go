package cache

import (
	"fmt"
	"time"
)

// Response header names written by the transport.
const (
	HeaderCacheStatus  = "x-cache"
	HeaderCacheControl = "cache-control"
)

// Status is the cache outcome of a decorated call.
type Status string

const (
	StatusHit  Status = "HIT"
	StatusMiss Status = "MISS"
	// StatusBypass means the call was not eligible for caching.
	StatusBypass Status = "BYPASS"
)

// Annotation describes how a response was served. It is never persisted.
type Annotation struct {
	Status Status
	TTL    time.Duration
}

// CacheControl renders the cache-control directive for the annotation.
func (a Annotation) CacheControl() string {
	if a.Status == StatusBypass {
		return "no-store"
	}
	return fmt.Sprintf("max-age=%d, must-revalidate", int64(a.TTL/time.Second))
}

// Headers returns the response headers for the annotation.
func (a Annotation) Headers() map[string]string {
	return map[string]string{
		HeaderCacheStatus:  string(a.Status),
		HeaderCacheControl: a.CacheControl(),
	}
}

// Response is a handler result together with its cache annotation.
type Response[T any] struct {
	Value T
	Cache Annotation
}
