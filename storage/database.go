package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	gormsqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/observe"
)

// DefaultDSN is used when no DATABASE_URL is configured.
const DefaultDSN = "file:rpccache.db?cache=shared"

// ErrEmptyDSN indicates Open was called without a data source name.
var ErrEmptyDSN = errors.New("storage: dsn is required")

// Options configures the database handle.
type Options struct {
	// MaxOpenConns caps the pool size. Zero leaves the driver default.
	MaxOpenConns int
	// SlowThreshold is the query duration logged as slow. Default: 200ms.
	SlowThreshold time.Duration
	Logger        observe.Logger
}

// Open opens the SQLite database at dsn, creating its directory if needed.
func Open(ctx context.Context, dsn string, opts Options) (*gorm.DB, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, ErrEmptyDSN
	}

	logger := opts.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	logger = logger.With(observe.F("component", "storage"))

	if err := ensureSQLiteDirectory(dsn); err != nil {
		return nil, err
	}

	slow := opts.SlowThreshold
	if slow <= 0 {
		slow = 200 * time.Millisecond
	}

	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{
		Logger:         newGormLogger(logger, slow),
		TranslateError: true,
		NowFunc:        func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("storage: open sqlite: %w", err)
	}

	if opts.MaxOpenConns > 0 {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("storage: access pool: %w", err)
		}
		sqlDB.SetMaxOpenConns(opts.MaxOpenConns)
	}

	logger.Info(ctx, "database opened", observe.F("driver", "sqlite"))
	return db, nil
}

// Migrate creates or updates the schema.
func Migrate(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(&EchoRecord{}); err != nil {
		return fmt.Errorf("storage: migrate: %w", err)
	}
	return nil
}

// Ping checks the database connection.
func Ping(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return apierr.BackendUnavailable("database", err)
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return apierr.BackendUnavailable("database", err)
	}
	return nil
}

// Close releases the connection pool.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func ensureSQLiteDirectory(dsn string) error {
	candidate := dsn
	if strings.HasPrefix(strings.ToLower(candidate), "file:") {
		candidate = candidate[len("file:"):]
	}
	if idx := strings.Index(candidate, "?"); idx >= 0 {
		candidate = candidate[:idx]
	}
	if candidate == "" || candidate == ":memory:" || strings.Contains(dsn, "mode=memory") {
		return nil
	}

	dir := filepath.Dir(candidate)
	if dir == "" || dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("storage: create sqlite directory %q: %w", dir, err)
	}
	return nil
}
