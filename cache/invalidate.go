package cache

import (
	"context"
	"strings"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/observe"
)

// Invalidation modes reported to metrics.
const (
	ModeExact   = "exact"
	ModePattern = "pattern"
)

// Invalidator removes cached responses by exact key or by glob pattern.
//
// Contract:
// - Concurrency: safe for concurrent use.
// - Pattern invalidation is not atomic: it deletes a snapshot of the keys
// matching at scan time, stops at the first failure and does not roll back.
type Invalidator struct {
	store Store
	opts  options
}

// NewInvalidator creates an invalidator over store.
func NewInvalidator(store Store, opts ...Option) (*Invalidator, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Invalidator{store: store, opts: o}, nil
}

// Invalidator returns an invalidator sharing the decorator's store, keyer,
// logger and metrics.
func (d *Decorator) Invalidator() *Invalidator {
	return &Invalidator{store: d.store, opts: d.opts}
}

// InvalidateExact deletes the entry cached for (method, request).
func (i *Invalidator) InvalidateExact(ctx context.Context, method string, request any) error {
	key, err := i.opts.keyer.Key(method, request)
	if err != nil {
		return apierr.Parsing(err)
	}
	return i.InvalidateKey(ctx, key)
}

// InvalidateKey deletes a single key.
func (i *Invalidator) InvalidateKey(ctx context.Context, key string) error {
	err := i.store.Delete(ctx, key)
	if err != nil {
		err = apierr.FromCache(ctx, i.opts.logger, "cache.delete", err)
		i.opts.metrics.RecordInvalidation(ctx, ModeExact, 0, err)
		return err
	}
	i.opts.metrics.RecordInvalidation(ctx, ModeExact, 1, nil)
	i.opts.logger.Debug(ctx, "cache invalidated", observe.F("key", key))
	return nil
}

// InvalidateByPattern deletes every key matching pattern and returns the
// number of keys deleted before any failure.
func (i *Invalidator) InvalidateByPattern(ctx context.Context, pattern string) (int, error) {
	if strings.TrimSpace(pattern) == "" {
		return 0, apierr.InvalidRequest(ErrEmptyPattern.Error())
	}

	keys, err := i.store.Keys(ctx, pattern)
	if err != nil {
		err = apierr.FromCache(ctx, i.opts.logger, "cache.keys", err)
		i.opts.metrics.RecordInvalidation(ctx, ModePattern, 0, err)
		return 0, err
	}

	i.opts.logger.Debug(ctx, "invalidating cache keys",
		observe.F("pattern", pattern),
		observe.F("matched", len(keys)),
	)

	deleted := 0
	for _, key := range keys {
		if err := i.store.Delete(ctx, key); err != nil {
			err = apierr.FromCache(ctx, i.opts.logger, "cache.delete", err)
			i.opts.metrics.RecordInvalidation(ctx, ModePattern, deleted, err)
			return deleted, err
		}
		deleted++
	}

	i.opts.metrics.RecordInvalidation(ctx, ModePattern, deleted, nil)
	return deleted, nil
}
