package cache

import (
	"time"

	"github.com/jonwraymond/rpccache/observe"
)

// DefaultStoreTimeout bounds the write of a freshly computed response.
const DefaultStoreTimeout = 2 * time.Second

// DefaultFlightTimeout bounds a collapsed miss computation in single-flight
// mode.
const DefaultFlightTimeout = 30 * time.Second

// StoreFailurePolicy decides what happens when writing a computed response
// to the store fails.
type StoreFailurePolicy int

const (
	// FailOnStoreError fails the whole call with a CacheError.
	FailOnStoreError StoreFailurePolicy = iota
	// ServeUncached logs the failure and returns the response as a MISS.
	ServeUncached
)

type options struct {
	keyer          Keyer
	policy         Policy
	logger         observe.Logger
	metrics        observe.Metrics
	storeTimeout   time.Duration
	flightTimeout  time.Duration
	onStoreFailure StoreFailurePolicy
	singleFlight   bool
}

func defaultOptions() options {
	return options{
		keyer:         NewDefaultKeyer(),
		policy:        DefaultPolicy(),
		logger:        observe.NopLogger(),
		metrics:       observe.NopMetrics(),
		storeTimeout:  DefaultStoreTimeout,
		flightTimeout: DefaultFlightTimeout,
	}
}

// Option configures a Decorator or Invalidator.
type Option func(*options)

// WithKeyer sets the key generator.
func WithKeyer(k Keyer) Option {
	return func(o *options) {
		if k != nil {
			o.keyer = k
		}
	}
}

// WithPolicy sets the TTL policy.
func WithPolicy(p Policy) Option {
	return func(o *options) {
		o.policy = p
	}
}

// WithLogger sets the logger.
func WithLogger(l observe.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m observe.Metrics) Option {
	return func(o *options) {
		if m != nil {
			o.metrics = m
		}
	}
}

// WithStoreTimeout bounds the post-handler store write.
func WithStoreTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.storeTimeout = d
		}
	}
}

// WithStoreFailurePolicy sets the behavior when the store write fails.
func WithStoreFailurePolicy(p StoreFailurePolicy) Option {
	return func(o *options) {
		o.onStoreFailure = p
	}
}

// WithSingleFlight collapses concurrent misses for the same key onto a
// single handler invocation.
func WithSingleFlight() Option {
	return func(o *options) {
		o.singleFlight = true
	}
}

// WithFlightTimeout bounds the shared computation behind a collapsed miss.
// It only applies together with WithSingleFlight.
func WithFlightTimeout(d time.Duration) Option {
	return func(o *options) {
		if d > 0 {
			o.flightTimeout = d
		}
	}
}
