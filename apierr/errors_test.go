package apierr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"google.golang.org/grpc/codes"
)

func TestKindCode(t *testing.T) {
	tests := []struct {
		kind Kind
		want codes.Code
	}{
		{KindInternal, codes.Internal},
		{KindInvalidRequest, codes.InvalidArgument},
		{KindBackendUnavailable, codes.Unavailable},
		{KindCache, codes.Unavailable},
		{KindStorage, codes.Internal},
		{KindAlreadyExists, codes.AlreadyExists},
		{KindNotFound, codes.NotFound},
		{KindParsing, codes.Internal},
		{KindValidation, codes.InvalidArgument},
		{KindUnauthenticated, codes.Unauthenticated},
		{Kind(99), codes.Internal},
	}
	for _, tt := range tests {
		t.Run(tt.kind.String(), func(t *testing.T) {
			if got := tt.kind.Code(); got != tt.want {
				t.Errorf("Code() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{Internal(nil), "internal server error"},
		{InvalidRequest("bad json"), "the request was invalid: bad json"},
		{BackendUnavailable("redis", nil), "redis connection failure"},
		{BackendUnavailable("", nil), "backend unavailable"},
		{Cache(errors.New("dial tcp")), "cache error"},
		{Storage("disk I/O error", nil), "database error: disk I/O error"},
		{AlreadyExists("echo_records.id"), "already exists: echo_records.id"},
		{NotFound(""), "not found"},
		{NotFound("echo 42"), "not found: echo 42"},
		{Parsingf("unexpected %s", "EOF"), "parsing error: unexpected EOF"},
		{Validation(MissingField("message"), InvalidLength("name", 1, 5)),
			"validation error: message is missing, name must be between 1 and 5"},
	}
	for _, tt := range tests {
		if got := tt.err.Error(); got != tt.want {
			t.Errorf("Error() = %q, want %q", got, tt.want)
		}
	}
}

func TestValidationFailureMessages(t *testing.T) {
	got := FieldErrors([]ValidationFailure{
		MissingField("message"),
		InvalidLength("name", 1, 5),
		InvalidRange("limit", 1, 100),
		InvalidFormat("id", "must be a valid uuid"),
		InvalidType("limit", "string"),
	})
	want := []FieldError{
		{Field: "message", Message: "message is missing", Type: "MissingField"},
		{Field: "name", Message: "name must be between 1 and 5", Type: "InvalidLength"},
		{Field: "limit", Message: "limit must be between 1 and 100", Type: "InvalidRange"},
		{Field: "id", Message: "id must be a valid uuid", Type: "InvalidFormat"},
		{Field: "limit", Message: "string is an invalid type", Type: "InvalidType"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FieldErrors() mismatch (-want +got):\n%s", diff)
	}
}

func TestFieldErrors_NeverNil(t *testing.T) {
	if got := FieldErrors(nil); got == nil {
		t.Error("FieldErrors(nil) should return an empty, non-nil slice")
	}
}

func TestPayload_Validation(t *testing.T) {
	got := Validation(MissingField("message")).Payload()
	want := Payload{
		Code:    "invalid-argument",
		Message: "validation error: message is missing",
		Errors: []FieldError{
			{Field: "message", Message: "message is missing", Type: "MissingField"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Payload() mismatch (-want +got):\n%s", diff)
	}
}

func TestPayload_StorageHidesDetail(t *testing.T) {
	p := Storage("no such table: echo_records", nil).Payload()
	if p.Message != "database error" {
		t.Errorf("Message = %q, want generic storage message", p.Message)
	}
	if p.Code != "internal" {
		t.Errorf("Code = %q, want internal", p.Code)
	}
	if len(p.Errors) != 0 {
		t.Errorf("Errors = %v, want empty", p.Errors)
	}
}

func TestUnwrapAndKindOf(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := fmt.Errorf("lookup: %w", Cache(cause))

	if !errors.Is(wrapped, cause) {
		t.Error("errors.Is should reach the cause")
	}
	if got := KindOf(wrapped); got != KindCache {
		t.Errorf("KindOf() = %v, want cache", got)
	}
	if !IsKind(wrapped, KindCache) {
		t.Error("IsKind(cache) = false")
	}
	if got := KindOf(errors.New("plain")); got != KindInternal {
		t.Errorf("KindOf(plain) = %v, want internal", got)
	}
}
