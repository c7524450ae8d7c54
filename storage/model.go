package storage

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/jonwraymond/rpccache/echo"
)

// EchoRecord is the echo_records row.
type EchoRecord struct {
	ID           string    `gorm:"primaryKey;type:text"`
	Message      string    `gorm:"type:text;not null"`
	OrganizerKey string    `gorm:"type:text;not null;index:idx_echo_records_organizer_created,priority:1"`
	CreatedAt    time.Time `gorm:"not null;index:idx_echo_records_organizer_created,priority:2,sort:desc"`
}

// TableName pins the table name.
func (EchoRecord) TableName() string { return "echo_records" }

// BeforeCreate assigns an ID when the caller did not.
func (r *EchoRecord) BeforeCreate(*gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}

func fromDomain(rec echo.Record) EchoRecord {
	return EchoRecord{
		ID:           rec.ID,
		Message:      rec.Message,
		OrganizerKey: rec.OrganizerKey,
		CreatedAt:    rec.CreatedAt,
	}
}

func (r EchoRecord) toDomain() echo.Record {
	return echo.Record{
		ID:           r.ID,
		Message:      r.Message,
		OrganizerKey: r.OrganizerKey,
		CreatedAt:    r.CreatedAt.UTC(),
	}
}
