package cache

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/observe"
)

// Handler computes the response for a single RPC.
type Handler[T any] func(ctx context.Context) (T, error)

// Decorator wraps RPC handlers with read-through caching.
//
// Contract:
// - Concurrency: safe for concurrent use; no per-call state is shared
// except the optional single-flight group. A caller waiting on a collapsed
// miss returns as soon as its own context ends.
// - Errors: key failures are ParsingError, store failures are CacheError,
// handler errors propagate unchanged and are never cached.
type Decorator struct {
	store Store
	opts  options
	group *singleflight.Group
}

// NewDecorator creates a decorator over store.
func NewDecorator(store Store, opts ...Option) (*Decorator, error) {
	if store == nil {
		return nil, ErrNilStore
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	d := &Decorator{store: store, opts: o}
	if o.singleFlight {
		d.group = &singleflight.Group{}
	}
	return d, nil
}

// Store returns the backing store.
func (d *Decorator) Store() Store { return d.store }

// Keyer returns the key generator.
func (d *Decorator) Keyer() Keyer { return d.opts.keyer }

// Policy returns the TTL policy.
func (d *Decorator) Policy() Policy { return d.opts.policy }

// Wrap runs handler through the cache using JSON encoding. See JSONCodec for
// how invalid UTF-8 in responses is stored.
func Wrap[T any](ctx context.Context, d *Decorator, method string, request any, handler Handler[T]) (Response[T], error) {
	return WrapCodec[T](ctx, d, JSONCodec[T]{}, method, request, handler)
}

// WrapCodec runs handler through the cache:
//
//  1. compute the key for (method, request)
//  2. look it up; on a hit decode and return it annotated HIT
//  3. on a miss invoke handler, store the encoded result, return it annotated MISS
func WrapCodec[T any](ctx context.Context, d *Decorator, codec Codec[T], method string, request any, handler Handler[T]) (Response[T], error) {
	var zero Response[T]
	logger := d.opts.logger

	ttl := d.opts.policy.TTL(method)
	if ttl <= 0 {
		return bypass(ctx, handler)
	}

	key, err := d.opts.keyer.Key(method, request)
	if err == nil {
		err = ValidateKey(key)
	}
	switch {
	case errors.Is(err, ErrKeyTooLong):
		logger.Debug(ctx, "cache bypass", observe.F("method", method), observe.F("reason", err.Error()))
		return bypass(ctx, handler)
	case err != nil:
		if e, ok := apierr.As(err); ok {
			return zero, e
		}
		return zero, apierr.Parsing(err)
	}

	data, ok, err := d.store.Get(ctx, key)
	if err != nil {
		d.opts.metrics.RecordCacheLookup(ctx, method, observe.CacheResultError)
		return zero, apierr.FromCache(ctx, logger, "cache.get", err)
	}
	if ok {
		v, err := codec.Decode(data)
		if err != nil {
			d.opts.metrics.RecordCacheLookup(ctx, method, observe.CacheResultError)
			return zero, apierr.FromCache(ctx, logger, "cache.decode", fmt.Errorf("cache: decode %q: %w", key, err))
		}
		d.opts.metrics.RecordCacheLookup(ctx, method, observe.CacheResultHit)
		logger.Debug(ctx, "cache hit", observe.F("key", key))
		return Response[T]{Value: v, Cache: Annotation{Status: StatusHit, TTL: ttl}}, nil
	}

	d.opts.metrics.RecordCacheLookup(ctx, method, observe.CacheResultMiss)
	logger.Debug(ctx, "cache miss", observe.F("key", key))

	var v T
	if d.group != nil {
		ch := d.group.DoChan(key, func() (any, error) {
			return flight(ctx, d, codec, key, ttl, handler)
		})
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case res := <-ch:
			if res.Err != nil {
				return zero, res.Err
			}
			if res.Shared {
				logger.Debug(ctx, "cache miss collapsed", observe.F("key", key))
			}
			v, _ = res.Val.(T)
		}
	} else {
		v, err = invokeAndStore(ctx, d, codec, key, ttl, handler)
		if err != nil {
			return zero, err
		}
	}

	return Response[T]{Value: v, Cache: Annotation{Status: StatusMiss, TTL: ttl}}, nil
}

func bypass[T any](ctx context.Context, handler Handler[T]) (Response[T], error) {
	v, err := handler(ctx)
	if err != nil {
		return Response[T]{}, err
	}
	return Response[T]{Value: v, Cache: Annotation{Status: StatusBypass}}, nil
}

// flight runs the shared computation for a collapsed miss, detached from the
// cancellation of the caller that started it and bounded by the flight
// timeout. Panics become Internal errors: DoChan would otherwise re-raise
// them on a goroutine no interceptor can recover.
func flight[T any](ctx context.Context, d *Decorator, codec Codec[T], key string, ttl time.Duration, handler Handler[T]) (res any, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.opts.logger.Error(ctx, "handler panic",
				observe.F("key", key),
				observe.F("panic", fmt.Sprint(r)),
				observe.F("stack", string(debug.Stack())),
			)
			res, err = nil, apierr.Internal(fmt.Errorf("panic: %v", r))
		}
	}()

	flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.flightTimeout)
	defer cancel()
	return invokeAndStore(flightCtx, d, codec, key, ttl, handler)
}

// invokeAndStore calls the handler and writes its result. The write runs
// detached from ctx cancellation, bounded by the store timeout, so a computed
// response is still cached when the caller goes away.
func invokeAndStore[T any](ctx context.Context, d *Decorator, codec Codec[T], key string, ttl time.Duration, handler Handler[T]) (T, error) {
	var zero T

	v, err := handler(ctx)
	if err != nil {
		return zero, err
	}

	storeErr := func() error {
		data, err := codec.Encode(v)
		if err != nil {
			return fmt.Errorf("cache: encode %q: %w", key, err)
		}
		storeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), d.opts.storeTimeout)
		defer cancel()
		return d.store.Set(storeCtx, key, data, ttl)
	}()
	if storeErr == nil {
		d.opts.logger.Debug(ctx, "cache set", observe.F("key", key), observe.F("ttl_seconds", int64(ttl/time.Second)))
		return v, nil
	}

	cerr := apierr.FromCache(ctx, d.opts.logger, "cache.set", storeErr)
	if d.opts.onStoreFailure == ServeUncached {
		d.opts.logger.Warn(ctx, "serving uncached response", observe.F("key", key), observe.F("error", storeErr))
		return v, nil
	}
	return zero, cerr
}
