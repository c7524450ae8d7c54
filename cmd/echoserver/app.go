package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"google.golang.org/grpc/credentials"
	"gorm.io/gorm"

	"github.com/jonwraymond/rpccache/auth"
	"github.com/jonwraymond/rpccache/cache"
	"github.com/jonwraymond/rpccache/config"
	"github.com/jonwraymond/rpccache/echo"
	"github.com/jonwraymond/rpccache/health"
	"github.com/jonwraymond/rpccache/observe"
	"github.com/jonwraymond/rpccache/resilience"
	"github.com/jonwraymond/rpccache/server"
	"github.com/jonwraymond/rpccache/storage"
)

// Startup waits for Redis and the database before serving.
var startupRetry = resilience.RetryConfig{
	MaxAttempts:  5,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     5 * time.Second,
	Jitter:       true,
}

const startupPingTimeout = 2 * time.Second

func loadConfig(ctx context.Context, opts *rootOptions, w io.Writer) (config.Config, error) {
	bootLogger := observe.NewLoggerWithWriter("info", w)
	cfg, err := config.Load(ctx, config.Options{File: opts.configFile, Logger: bootLogger})
	if err != nil {
		return config.Config{}, err
	}
	if opts.logLevel != "" {
		cfg.Log.Level = opts.logLevel
		if err := cfg.Validate(); err != nil {
			return config.Config{}, err
		}
	}
	return cfg, nil
}

// app holds the wired process dependencies.
type app struct {
	cfg        config.Config
	logger     observe.Logger
	observer   observe.Observer
	middleware *observe.Middleware
	registry   *prometheus.Registry

	redis   *redis.Client
	store   *cache.RedisStore
	breaker *resilience.CircuitBreaker
	db      *gorm.DB
	service *echo.Service
	health  *health.Aggregator
}

func newApp(ctx context.Context, cfg config.Config, w io.Writer) (_ *app, err error) {
	a := &app{cfg: cfg, registry: prometheus.NewRegistry()}
	defer func() {
		if err != nil {
			a.close(context.WithoutCancel(ctx))
		}
	}()

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	ocfg := cfg.Observe(version)
	ocfg.Metrics.Registerer = a.registry
	ocfg.Logging.Writer = w
	if a.observer, err = observe.NewObserver(ctx, ocfg); err != nil {
		return nil, fmt.Errorf("observer: %w", err)
	}
	a.logger = a.observer.Logger()

	mw, metrics, err := observe.MiddlewareFromObserver(a.observer, server.StatusCode)
	if err != nil {
		return nil, fmt.Errorf("middleware: %w", err)
	}
	a.middleware = mw

	if a.redis, err = cache.NewRedisClient(cfg.Redis.URL()); err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}
	a.store = cache.NewRedisStore(a.redis, cache.WithRedisLogger(a.logger))
	a.breaker = resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
		MaxFailures:  cfg.Cache.BreakerFailures,
		ResetTimeout: cfg.Cache.BreakerReset,
		OnStateChange: func(from, to resilience.State) {
			a.logger.Warn(context.Background(), "cache circuit state changed",
				observe.F("from", from.String()),
				observe.F("to", to.String()),
			)
		},
	})

	d, err := cache.NewDecorator(cache.NewBreakerStore(a.store, a.breaker), decoratorOptions(cfg.Cache, a.logger, metrics)...)
	if err != nil {
		return nil, err
	}

	if a.db, err = storage.Open(ctx, cfg.Database.URL, storage.Options{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		Logger:       a.logger,
	}); err != nil {
		return nil, err
	}

	if err := a.waitForBackends(ctx); err != nil {
		return nil, err
	}
	if err := storage.Migrate(ctx, a.db); err != nil {
		return nil, err
	}

	if a.service, err = echo.NewService(d, storage.NewEchoRepository(a.db, a.logger), echo.WithLogger(a.logger)); err != nil {
		return nil, err
	}

	a.health = health.NewAggregator(0)
	a.health.Register(
		health.NewPingChecker("redis", a.store.Ping, 0),
		health.NewPingChecker("database", func(ctx context.Context) error { return storage.Ping(ctx, a.db) }, 0),
		health.NewMemoryChecker(0, 0, 0),
	)
	return a, nil
}

func decoratorOptions(c config.CacheConfig, logger observe.Logger, metrics observe.Metrics) []cache.Option {
	opts := []cache.Option{
		cache.WithPolicy(cache.Policy{DefaultTTL: c.TTL(), MaxTTL: c.MaxTTL()}),
		cache.WithLogger(logger),
		cache.WithMetrics(metrics),
		cache.WithStoreTimeout(c.StoreTimeout),
	}
	if c.SingleFlight {
		opts = append(opts, cache.WithSingleFlight(), cache.WithFlightTimeout(c.FlightTimeout))
	}
	if c.ServeUncached {
		opts = append(opts, cache.WithStoreFailurePolicy(cache.ServeUncached))
	}
	return opts
}

// waitForBackends pings Redis and the database with backoff.
func (a *app) waitForBackends(ctx context.Context) error {
	retry := startupRetry
	retry.OnRetry = func(attempt int, err error, delay time.Duration) {
		a.logger.Warn(ctx, "backend not ready",
			observe.F("attempt", attempt),
			observe.F("error", err.Error()),
			observe.F("retry_in", delay.String()),
		)
	}
	exec := resilience.NewExecutor(resilience.WithRetry(retry), resilience.WithTimeout(startupPingTimeout))

	if err := exec.Execute(ctx, a.store.Ping); err != nil {
		return fmt.Errorf("redis not reachable: %w", err)
	}
	if err := exec.Execute(ctx, func(ctx context.Context) error { return storage.Ping(ctx, a.db) }); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return nil
}

func (a *app) close(ctx context.Context) {
	var errs []error
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.db != nil {
		errs = append(errs, storage.Close(a.db))
	}
	if a.observer != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		errs = append(errs, a.observer.Shutdown(shutdownCtx))
		cancel()
	}
	if err := errors.Join(errs...); err != nil && a.logger != nil {
		a.logger.Warn(ctx, "shutdown incomplete", observe.F("error", err.Error()))
	}
}

// newAuthenticator builds the inbound authenticator, or nil when auth is off.
func newAuthenticator(c config.AuthConfig) (auth.Authenticator, error) {
	if !c.Enabled {
		return nil, nil
	}

	var members []auth.Authenticator
	if c.JWTSecret != "" {
		jwtAuth, err := auth.NewJWTAuthenticator(auth.JWTConfig{
			Secret:   []byte(c.JWTSecret),
			Issuer:   c.Issuer,
			Audience: c.Audience,
		})
		if err != nil {
			return nil, err
		}
		members = append(members, jwtAuth)
	}

	pairs, err := c.APIKeyPairs()
	if err != nil {
		return nil, err
	}
	if len(pairs) > 0 {
		keys := auth.NewMemoryAPIKeyStore()
		for principal, key := range pairs {
			keys.AddPlain(principal, key, principal)
		}
		members = append(members, auth.NewAPIKeyAuthenticator(auth.DefaultAPIKeyHeader, keys))
	}
	return auth.NewCompositeAuthenticator(members...), nil
}

// newCredentials returns TLS credentials, or nil for plaintext.
func newCredentials(c config.ServerConfig) (credentials.TransportCredentials, error) {
	if !c.TLSEnabled() {
		return nil, nil
	}
	return server.ServerCredentials(c.TLSCert, c.TLSKey, c.CACert)
}
