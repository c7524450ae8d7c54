package storage

import (
	"context"

	"gorm.io/gorm"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/echo"
	"github.com/jonwraymond/rpccache/observe"
)

// EchoRepository implements echo.Repository on gorm.
type EchoRepository struct {
	db     *gorm.DB
	logger observe.Logger
}

// NewEchoRepository creates a repository. logger receives classified backend
// failures and may be nil.
func NewEchoRepository(db *gorm.DB, logger observe.Logger) *EchoRepository {
	if logger == nil {
		logger = observe.NopLogger()
	}
	return &EchoRepository{db: db, logger: logger}
}

// Create inserts rec. A duplicate ID is AlreadyExists.
func (r *EchoRepository) Create(ctx context.Context, rec echo.Record) (echo.Record, error) {
	row := fromDomain(rec)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return echo.Record{}, apierr.FromStorage(ctx, r.logger, "echo.create", err)
	}
	return row.toDomain(), nil
}

// Get loads a record by ID. A missing row is NotFound.
func (r *EchoRepository) Get(ctx context.Context, id string) (echo.Record, error) {
	var row EchoRecord
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&row).Error; err != nil {
		return echo.Record{}, apierr.FromStorage(ctx, r.logger, "echo.get", err)
	}
	return row.toDomain(), nil
}

// ListByOrganizer returns up to limit records for organizerKey, newest first.
func (r *EchoRepository) ListByOrganizer(ctx context.Context, organizerKey string, limit int) ([]echo.Record, error) {
	var rows []EchoRecord
	err := r.db.WithContext(ctx).
		Where("organizer_key = ?", organizerKey).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, apierr.FromStorage(ctx, r.logger, "echo.list", err)
	}

	out := make([]echo.Record, len(rows))
	for i, row := range rows {
		out[i] = row.toDomain()
	}
	return out, nil
}

var _ echo.Repository = (*EchoRepository)(nil)
