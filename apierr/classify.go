package apierr

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"strings"

	"gorm.io/gorm"

	"github.com/jonwraymond/rpccache/observe"
)

// Chain returns the unwrap chain of err as strings, outermost first.
func Chain(err error) []string {
	if err == nil {
		return nil
	}
	out := make([]string, 0, 4)
	for e := err; e != nil; e = errors.Unwrap(e) {
		out = append(out, e.Error())
	}
	return out
}

// Report logs a backend failure with its full cause chain.
func Report(ctx context.Context, logger observe.Logger, op string, err error) {
	if logger == nil || err == nil {
		return
	}
	logger.Error(ctx, "backend failure",
		observe.F("op", op),
		observe.F("error", err.Error()),
		observe.F("chain", Chain(err)),
	)
}

// FromError classifies an arbitrary error. Classified errors pass through and
// anything else becomes an InternalError wrapping it.
func FromError(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	return Internal(err)
}

// FromCache classifies a cache backend failure as CacheError and reports it.
// Already classified errors and context cancellation pass through unchanged.
func FromCache(ctx context.Context, logger observe.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	Report(ctx, logger, op, err)
	return Cache(err)
}

// FromStorage classifies a relational storage failure.
//
//   - gorm.ErrRecordNotFound, sql.ErrNoRows: NotFound
//   - gorm.ErrDuplicatedKey, unique constraint violations: AlreadyExists
//   - driver.ErrBadConn, sql.ErrConnDone, net.Error: BackendUnavailable (reported)
//   - context cancellation: returned unchanged for the transport to map
//   - anything else: StorageError (reported)
func FromStorage(ctx context.Context, logger observe.Logger, op string, err error) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound), errors.Is(err, sql.ErrNoRows):
		return NotFound("")
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return AlreadyExists(err.Error())
	case isUniqueViolation(err):
		return AlreadyExists(uniqueDetail(err))
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case isConnFailure(err):
		Report(ctx, logger, op, err)
		return BackendUnavailable("database", err)
	default:
		Report(ctx, logger, op, err)
		return Storage(err.Error(), err)
	}
}

var uniqueMarkers = []string{
	"UNIQUE constraint failed: ",
	"duplicate key value violates unique constraint ",
}

func isUniqueViolation(err error) bool {
	msg := err.Error()
	for _, m := range uniqueMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// uniqueDetail extracts the constraint target from a driver message.
func uniqueDetail(err error) string {
	msg := err.Error()
	for _, m := range uniqueMarkers {
		if i := strings.Index(msg, m); i >= 0 {
			rest := msg[i+len(m):]
			if j := strings.IndexByte(rest, ' '); j >= 0 {
				rest = rest[:j]
			}
			return strings.Trim(rest, `"`)
		}
	}
	return msg
}

func isConnFailure(err error) bool {
	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
