package apierr

import (
	"errors"
	"fmt"
	"strings"

	"google.golang.org/grpc/codes"
)

// Kind identifies a failure category.
type Kind int

const (
	// KindInternal is an unclassified or unexpected failure.
	KindInternal Kind = iota
	// KindInvalidRequest is a malformed request rejected before validation.
	KindInvalidRequest
	// KindBackendUnavailable is a connection failure to a backend.
	KindBackendUnavailable
	// KindCache is any failure of the cache backend.
	KindCache
	// KindStorage is a relational storage failure that is not otherwise classified.
	KindStorage
	// KindAlreadyExists is a uniqueness violation.
	KindAlreadyExists
	// KindNotFound is a missing row or resource.
	KindNotFound
	// KindParsing is a serialization or deserialization failure.
	KindParsing
	// KindValidation is a list of per-field validation failures.
	KindValidation
	// KindUnauthenticated is a missing or rejected credential.
	KindUnauthenticated
)

var kindNames = map[Kind]string{
	KindInternal:           "internal",
	KindInvalidRequest:     "invalid_request",
	KindBackendUnavailable: "backend_unavailable",
	KindCache:              "cache",
	KindStorage:            "storage",
	KindAlreadyExists:      "already_exists",
	KindNotFound:           "not_found",
	KindParsing:            "parsing",
	KindValidation:         "validation",
	KindUnauthenticated:    "unauthenticated",
}

// String returns the snake_case name of the kind.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "internal"
}

// Code returns the gRPC status code for the kind.
func (k Kind) Code() codes.Code {
	switch k {
	case KindInvalidRequest, KindValidation:
		return codes.InvalidArgument
	case KindBackendUnavailable, KindCache:
		return codes.Unavailable
	case KindAlreadyExists:
		return codes.AlreadyExists
	case KindNotFound:
		return codes.NotFound
	case KindUnauthenticated:
		return codes.Unauthenticated
	default:
		return codes.Internal
	}
}

// Error is a classified failure.
//
// Detail is kind-specific text (the rejected request reason, the duplicated
// key, the backend name). Failures is only populated for KindValidation.
// The cause is kept for logging and errors.Is/As and is never rendered.
type Error struct {
	Kind     Kind
	Detail   string
	Failures []ValidationFailure

	cause error
}

// Error renders the message shown to clients and in logs.
func (e *Error) Error() string {
	switch e.Kind {
	case KindInvalidRequest:
		return "the request was invalid: " + e.Detail
	case KindBackendUnavailable:
		if e.Detail != "" {
			return e.Detail + " connection failure"
		}
		return "backend unavailable"
	case KindCache:
		return "cache error"
	case KindStorage:
		if e.Detail != "" {
			return "database error: " + e.Detail
		}
		return "database error"
	case KindAlreadyExists:
		return "already exists: " + e.Detail
	case KindNotFound:
		if e.Detail != "" {
			return "not found: " + e.Detail
		}
		return "not found"
	case KindParsing:
		return "parsing error: " + e.Detail
	case KindValidation:
		msgs := make([]string, len(e.Failures))
		for i, f := range e.Failures {
			msgs[i] = f.Message
		}
		return "validation error: " + strings.Join(msgs, ", ")
	case KindUnauthenticated:
		if e.Detail != "" {
			return "unauthenticated: " + e.Detail
		}
		return "unauthenticated"
	default:
		return "internal server error"
	}
}

// Unwrap returns the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// Code returns the gRPC status code for the error.
func (e *Error) Code() codes.Code {
	return e.Kind.Code()
}

// publicMessage is the message exposed on the wire. Storage details come from
// the driver and stay in logs.
func (e *Error) publicMessage() string {
	if e.Kind == KindStorage {
		return "database error"
	}
	return e.Error()
}

// Internal returns an InternalError with no detail.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, cause: cause}
}

// InvalidRequest returns an InvalidRequest error.
func InvalidRequest(detail string) *Error {
	return &Error{Kind: KindInvalidRequest, Detail: detail}
}

// BackendUnavailable returns a connection failure for the named backend.
func BackendUnavailable(backend string, cause error) *Error {
	return &Error{Kind: KindBackendUnavailable, Detail: backend, cause: cause}
}

// Cache returns a CacheError.
func Cache(cause error) *Error {
	return &Error{Kind: KindCache, cause: cause}
}

// Storage returns a StorageError.
func Storage(detail string, cause error) *Error {
	return &Error{Kind: KindStorage, Detail: detail, cause: cause}
}

// AlreadyExists returns an AlreadyExists error.
func AlreadyExists(detail string) *Error {
	return &Error{Kind: KindAlreadyExists, Detail: detail}
}

// NotFound returns a NotFound error.
func NotFound(detail string) *Error {
	return &Error{Kind: KindNotFound, Detail: detail}
}

// Parsing returns a ParsingError.
func Parsing(cause error) *Error {
	detail := ""
	if cause != nil {
		detail = cause.Error()
	}
	return &Error{Kind: KindParsing, Detail: detail, cause: cause}
}

// Parsingf returns a ParsingError with a formatted detail.
func Parsingf(format string, args ...any) *Error {
	return &Error{Kind: KindParsing, Detail: fmt.Sprintf(format, args...)}
}

// Validation returns a ValidationError for the given failures, in order.
func Validation(failures ...ValidationFailure) *Error {
	return &Error{Kind: KindValidation, Failures: failures}
}

// Unauthenticated returns an Unauthenticated error.
func Unauthenticated(detail string, cause error) *Error {
	return &Error{Kind: KindUnauthenticated, Detail: detail, cause: cause}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf returns the Kind of err. Unclassified non-nil errors are KindInternal.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err is classified as kind.
func IsKind(err error, kind Kind) bool {
	e, ok := As(err)
	return ok && e.Kind == kind
}
