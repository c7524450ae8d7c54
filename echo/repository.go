package echo

import "context"

// Repository persists echo records.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: failures are apierr values; a missing record is NotFound and a
// duplicate ID is AlreadyExists.
// - ListByOrganizer returns newest first and never more than limit records.
type Repository interface {
	Create(ctx context.Context, rec Record) (Record, error)
	Get(ctx context.Context, id string) (Record, error)
	ListByOrganizer(ctx context.Context, organizerKey string, limit int) ([]Record, error)
}
