package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 50051 || cfg.Server.MetricsPort != 3000 {
		t.Errorf("ports = %d/%d, want 50051/3000", cfg.Server.Port, cfg.Server.MetricsPort)
	}
	if cfg.Cache.TTL() != 60*time.Second || cfg.Cache.MaxTTL() != time.Hour {
		t.Errorf("ttl = %v max = %v", cfg.Cache.TTL(), cfg.Cache.MaxTTL())
	}
	if cfg.Cache.StoreTimeout != 2*time.Second {
		t.Errorf("store timeout = %v, want 2s", cfg.Cache.StoreTimeout)
	}
	if cfg.Database.URL != "file:rpccache.db?cache=shared" {
		t.Errorf("database url = %q", cfg.Database.URL)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if cfg.Server.TLSEnabled() {
		t.Error("TLS should be off by default")
	}
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("PORT", "6000")
	t.Setenv("CACHE_TTL", "120")
	t.Setenv("REDIS_HOSTNAME", "cache.internal:6380")
	t.Setenv("REDIS_TLS", "true")
	t.Setenv("ENABLE_IPV6", "true")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ECHO_TEST_REDIS_PW", "s3cret")
	t.Setenv("REDIS_PASSWORD", "secretref:env:ECHO_TEST_REDIS_PW")
	t.Setenv("CACHE_STORE_TIMEOUT", "500ms")

	cfg, err := Load(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 6000 || !cfg.Server.EnableIPv6 {
		t.Errorf("server = %+v", cfg.Server)
	}
	if cfg.Cache.TTL() != 2*time.Minute {
		t.Errorf("ttl = %v, want 2m", cfg.Cache.TTL())
	}
	if cfg.Cache.StoreTimeout != 500*time.Millisecond {
		t.Errorf("store timeout = %v", cfg.Cache.StoreTimeout)
	}
	if got, want := cfg.Redis.URL(), "rediss://:s3cret@cache.internal:6380"; got != want {
		t.Errorf("Redis.URL() = %q, want %q", got, want)
	}
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte(`
server:
  port: 7000
cache:
  ttl: 30
  single_flight: true
  flight_timeout: 5s
auth:
  enabled: true
  api_keys:
    - "svc-a=key-a"
`)
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "7001")

	cfg, err := Load(context.Background(), Options{File: path})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 7001 {
		t.Errorf("port = %d, want env override 7001", cfg.Server.Port)
	}
	if cfg.Cache.TTLSeconds != 30 || !cfg.Cache.SingleFlight || cfg.Cache.FlightTimeout != 5*time.Second {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	pairs, err := cfg.Auth.APIKeyPairs()
	if err != nil {
		t.Fatalf("APIKeyPairs() error = %v", err)
	}
	if diff := cmp.Diff(map[string]string{"svc-a": "key-a"}, pairs); diff != "" {
		t.Errorf("APIKeyPairs() mismatch (-want +got):\n%s", diff)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(context.Background(), Options{File: filepath.Join(t.TempDir(), "nope.yaml")}); err == nil {
		t.Fatal("Load() succeeded with a missing file")
	}
}

func TestLoad_UnresolvableSecret(t *testing.T) {
	t.Setenv("DATABASE_URL", "secretref:env:ECHO_TEST_UNSET_VAR")
	if _, err := Load(context.Background(), Options{}); err == nil {
		t.Fatal("Load() succeeded with an unresolvable secret")
	}
}

func validConfig() Config {
	return Config{
		Server:   ServerConfig{Port: 50051, MetricsPort: 3000},
		Cache:    CacheConfig{TTLSeconds: 60, MaxTTLSeconds: 3600},
		Redis:    RedisConfig{Hostname: "localhost:6379"},
		Database: DatabaseConfig{URL: "file::memory:"},
		Log:      LogConfig{Level: "info"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "bad port", mutate: func(c *Config) { c.Server.Port = 0 }, wantErr: ErrInvalidPort},
		{name: "no redis", mutate: func(c *Config) { c.Redis.Hostname = " " }, wantErr: ErrMissingRedisHost},
		{name: "no database", mutate: func(c *Config) { c.Database.URL = "" }, wantErr: ErrMissingDatabase},
		{name: "zero ttl", mutate: func(c *Config) { c.Cache.TTLSeconds = 0 }, wantErr: ErrInvalidTTL},
		{name: "max below ttl", mutate: func(c *Config) { c.Cache.MaxTTLSeconds = 10 }, wantErr: ErrInvalidMaxTTL},
		{name: "cert without key", mutate: func(c *Config) { c.Server.TLSCert = "pem" }, wantErr: ErrIncompleteTLS},
		{name: "ca without tls", mutate: func(c *Config) { c.Server.CACert = "pem" }, wantErr: ErrCAWithoutTLS},
		{name: "auth without credentials", mutate: func(c *Config) { c.Auth.Enabled = true }, wantErr: ErrAuthNoCredential},
		{name: "bad log level", mutate: func(c *Config) { c.Log.Level = "loud" }, wantErr: ErrInvalidLogLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestRedisConfig_URL(t *testing.T) {
	tests := []struct {
		cfg  RedisConfig
		want string
	}{
		{cfg: RedisConfig{Hostname: "localhost:6379"}, want: "redis://localhost:6379"},
		{cfg: RedisConfig{Hostname: "h:1", Password: "p@ss", TLS: true}, want: "rediss://:p%40ss@h:1"},
	}
	for _, tt := range tests {
		if got := tt.cfg.URL(); got != tt.want {
			t.Errorf("URL() = %q, want %q", got, tt.want)
		}
	}
}

func TestConfig_Observe(t *testing.T) {
	cfg := validConfig()
	cfg.Telemetry = TelemetryConfig{ServiceName: "echoserver", TracingExporter: "none", MetricsExporter: "prometheus"}

	oc := cfg.Observe("v1")
	if oc.Tracing.Enabled || !oc.Metrics.Enabled || oc.Version != "v1" {
		t.Errorf("Observe() = %+v", oc)
	}
	if err := oc.Validate(); err != nil {
		t.Errorf("Observe().Validate() error = %v", err)
	}
}
