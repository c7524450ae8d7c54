package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/jonwraymond/rpccache/observe"
	"github.com/jonwraymond/rpccache/secret"
)

// Config is the full process configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Telemetry TelemetryConfig `mapstructure:"telemetry"`
	Auth      AuthConfig      `mapstructure:"auth"`
}

// ServerConfig configures the gRPC listener and the ops HTTP port.
type ServerConfig struct {
	Port        int  `mapstructure:"port"`
	MetricsPort int  `mapstructure:"metrics_port"`
	EnableIPv6  bool `mapstructure:"enable_ipv6"`

	// PEM contents, not paths.
	TLSCert string `mapstructure:"tls_cert"`
	TLSKey  string `mapstructure:"tls_key"`
	CACert  string `mapstructure:"ca_cert"`

	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// CacheConfig configures the response cache.
type CacheConfig struct {
	// TTLSeconds is the default entry lifetime.
	TTLSeconds int `mapstructure:"ttl"`
	// MaxTTLSeconds caps any per-method override.
	MaxTTLSeconds int `mapstructure:"max_ttl"`

	StoreTimeout  time.Duration `mapstructure:"store_timeout"`
	SingleFlight  bool          `mapstructure:"single_flight"`
	FlightTimeout time.Duration `mapstructure:"flight_timeout"`
	ServeUncached bool          `mapstructure:"serve_uncached"`

	BreakerFailures int           `mapstructure:"breaker_failures"`
	BreakerReset    time.Duration `mapstructure:"breaker_reset"`
}

// TTL returns the default TTL as a duration.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSeconds) * time.Second }

// MaxTTL returns the TTL cap as a duration.
func (c CacheConfig) MaxTTL() time.Duration { return time.Duration(c.MaxTTLSeconds) * time.Second }

// RedisConfig locates the cache backend.
type RedisConfig struct {
	Hostname string `mapstructure:"hostname"`
	Password string `mapstructure:"password"`
	TLS      bool   `mapstructure:"tls"`
}

// URL builds <redis|rediss>://:<password>@<host>.
func (c RedisConfig) URL() string {
	u := url.URL{Scheme: "redis", Host: c.Hostname}
	if c.TLS {
		u.Scheme = "rediss"
	}
	if c.Password != "" {
		u.User = url.UserPassword("", c.Password)
	}
	return u.String()
}

// DatabaseConfig locates the relational store.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// TelemetryConfig selects OpenTelemetry exporters.
type TelemetryConfig struct {
	ServiceName     string  `mapstructure:"service_name"`
	TracingExporter string  `mapstructure:"tracing_exporter"`
	SamplePct       float64 `mapstructure:"sample_pct"`
	MetricsExporter string  `mapstructure:"metrics_exporter"`
}

// AuthConfig configures optional inbound authentication.
type AuthConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
	Audience  string `mapstructure:"audience"`
	// APIKeys holds "principal=key" pairs.
	APIKeys []string `mapstructure:"api_keys"`
}

// APIKeyPairs parses APIKeys into principal -> key.
func (c AuthConfig) APIKeyPairs() (map[string]string, error) {
	out := make(map[string]string, len(c.APIKeys))
	for _, entry := range c.APIKeys {
		principal, key, ok := strings.Cut(strings.TrimSpace(entry), "=")
		if !ok || principal == "" || key == "" {
			return nil, fmt.Errorf("config: api key entry %q must be principal=key", entry)
		}
		out[principal] = key
	}
	return out, nil
}

// Observe derives the telemetry configuration.
func (c Config) Observe(version string) observe.Config {
	return observe.Config{
		ServiceName: c.Telemetry.ServiceName,
		Version:     version,
		Tracing: observe.TracingConfig{
			Enabled:   c.Telemetry.TracingExporter != "" && c.Telemetry.TracingExporter != "none",
			Exporter:  c.Telemetry.TracingExporter,
			SamplePct: c.Telemetry.SamplePct,
		},
		Metrics: observe.MetricsConfig{
			Enabled:  c.Telemetry.MetricsExporter != "" && c.Telemetry.MetricsExporter != "none",
			Exporter: c.Telemetry.MetricsExporter,
		},
		Logging: observe.LoggingConfig{
			Enabled: true,
			Level:   c.Log.Level,
		},
	}
}

// envBindings maps config keys to their environment names.
var envBindings = map[string]string{
	"server.port":                "PORT",
	"server.metrics_port":        "METRICS_PORT",
	"server.enable_ipv6":         "ENABLE_IPV6",
	"server.tls_cert":            "TLS_CERT",
	"server.tls_key":             "TLS_KEY",
	"server.ca_cert":             "CA_CERT",
	"server.shutdown_timeout":    "SHUTDOWN_TIMEOUT",
	"cache.ttl":                  "CACHE_TTL",
	"cache.max_ttl":              "CACHE_MAX_TTL",
	"cache.store_timeout":        "CACHE_STORE_TIMEOUT",
	"cache.single_flight":        "CACHE_SINGLE_FLIGHT",
	"cache.flight_timeout":       "CACHE_FLIGHT_TIMEOUT",
	"cache.serve_uncached":       "CACHE_SERVE_UNCACHED",
	"cache.breaker_failures":     "CACHE_BREAKER_FAILURES",
	"cache.breaker_reset":        "CACHE_BREAKER_RESET",
	"redis.hostname":             "REDIS_HOSTNAME",
	"redis.password":             "REDIS_PASSWORD",
	"redis.tls":                  "REDIS_TLS",
	"database.url":               "DATABASE_URL",
	"database.max_open_conns":    "DATABASE_MAX_OPEN_CONNS",
	"log.level":                  "LOG_LEVEL",
	"telemetry.service_name":     "OTEL_SERVICE_NAME",
	"telemetry.tracing_exporter": "TRACING_EXPORTER",
	"telemetry.sample_pct":       "TRACING_SAMPLE_PCT",
	"telemetry.metrics_exporter": "METRICS_EXPORTER",
	"auth.enabled":               "AUTH_ENABLED",
	"auth.jwt_secret":            "AUTH_JWT_SECRET",
	"auth.issuer":                "AUTH_ISSUER",
	"auth.audience":              "AUTH_AUDIENCE",
	"auth.api_keys":              "AUTH_API_KEYS",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 50051)
	v.SetDefault("server.metrics_port", 3000)
	v.SetDefault("server.enable_ipv6", false)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("cache.ttl", 60)
	v.SetDefault("cache.max_ttl", 3600)
	v.SetDefault("cache.store_timeout", 2*time.Second)
	v.SetDefault("cache.flight_timeout", 30*time.Second)
	v.SetDefault("cache.breaker_failures", 5)
	v.SetDefault("cache.breaker_reset", 30*time.Second)
	v.SetDefault("redis.hostname", "localhost:6379")
	v.SetDefault("database.url", "file:rpccache.db?cache=shared")
	v.SetDefault("log.level", "info")
	v.SetDefault("telemetry.service_name", "echoserver")
	v.SetDefault("telemetry.tracing_exporter", "none")
	v.SetDefault("telemetry.sample_pct", 1.0)
	v.SetDefault("telemetry.metrics_exporter", "prometheus")
}

// Options tunes Load.
type Options struct {
	// File is an optional YAML config path.
	File string
	// Resolver resolves secretref: values. Nil uses secret.NewDefaultResolver.
	Resolver *secret.Resolver
	Logger   observe.Logger
}

// Load reads, resolves and validates the configuration.
func Load(ctx context.Context, opts Options) (Config, error) {
	if err := ctx.Err(); err != nil {
		return Config{}, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	logger = logger.With(observe.F("component", "config"))

	v := viper.New()
	setDefaults(v)
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("config: bind %s: %w", env, err)
		}
	}

	if opts.File != "" {
		v.SetConfigFile(opts.File)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: read %s: %w", opts.File, err)
		}
		logger.Info(ctx, "using config file", observe.F("path", v.ConfigFileUsed()))
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: unmarshal: %w", err)
	}

	resolver := opts.Resolver
	if resolver == nil {
		resolver = secret.NewDefaultResolver()
	}
	err := resolver.ResolveAll(ctx, map[string]*string{
		"redis.password":  &cfg.Redis.Password,
		"redis.hostname":  &cfg.Redis.Hostname,
		"database.url":    &cfg.Database.URL,
		"auth.jwt_secret": &cfg.Auth.JWTSecret,
		"server.tls_key":  &cfg.Server.TLSKey,
	})
	if err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	logger.Info(ctx, "config loaded",
		observe.F("port", cfg.Server.Port),
		observe.F("metrics_port", cfg.Server.MetricsPort),
		observe.F("cache_ttl", cfg.Cache.TTLSeconds),
		observe.F("redis_tls", cfg.Redis.TLS),
		observe.F("tls", cfg.Server.TLSEnabled()),
		observe.F("auth", cfg.Auth.Enabled),
	)
	return cfg, nil
}

// TLSEnabled reports whether both certificate and key are set.
func (c ServerConfig) TLSEnabled() bool {
	return c.TLSCert != "" && c.TLSKey != ""
}

// Validation errors.
var (
	ErrInvalidPort      = errors.New("config: port must be between 1 and 65535")
	ErrMissingRedisHost = errors.New("config: redis hostname is required")
	ErrMissingDatabase  = errors.New("config: database url is required")
	ErrInvalidTTL       = errors.New("config: cache ttl must be positive")
	ErrInvalidMaxTTL    = errors.New("config: cache max ttl must not be below ttl")
	ErrIncompleteTLS    = errors.New("config: tls cert and key must be set together")
	ErrCAWithoutTLS     = errors.New("config: ca cert requires tls cert and key")
	ErrAuthNoCredential = errors.New("config: auth enabled without jwt secret or api keys")
	ErrInvalidLogLevel  = errors.New("config: log level must be debug, info, warn or error")
)

// Validate checks the configuration for consistency.
func (c Config) Validate() error {
	var errs []error

	for _, p := range []int{c.Server.Port, c.Server.MetricsPort} {
		if p < 1 || p > 65535 {
			errs = append(errs, fmt.Errorf("%w: %d", ErrInvalidPort, p))
		}
	}
	if strings.TrimSpace(c.Redis.Hostname) == "" {
		errs = append(errs, ErrMissingRedisHost)
	}
	if strings.TrimSpace(c.Database.URL) == "" {
		errs = append(errs, ErrMissingDatabase)
	}
	if c.Cache.TTLSeconds <= 0 {
		errs = append(errs, ErrInvalidTTL)
	} else if c.Cache.MaxTTLSeconds > 0 && c.Cache.MaxTTLSeconds < c.Cache.TTLSeconds {
		errs = append(errs, ErrInvalidMaxTTL)
	}
	if (c.Server.TLSCert == "") != (c.Server.TLSKey == "") {
		errs = append(errs, ErrIncompleteTLS)
	}
	if c.Server.CACert != "" && !c.Server.TLSEnabled() {
		errs = append(errs, ErrCAWithoutTLS)
	}
	if c.Auth.Enabled && c.Auth.JWTSecret == "" && len(c.Auth.APIKeys) == 0 {
		errs = append(errs, ErrAuthNoCredential)
	}
	if _, err := c.Auth.APIKeyPairs(); err != nil {
		errs = append(errs, err)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidLogLevel, c.Log.Level))
	}

	return errors.Join(errs...)
}
