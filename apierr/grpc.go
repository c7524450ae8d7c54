package apierr

import (
	"context"
	"errors"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"
)

var codeNames = map[codes.Code]string{
	codes.OK:                 "ok",
	codes.Canceled:           "canceled",
	codes.Unknown:            "unknown",
	codes.InvalidArgument:    "invalid-argument",
	codes.DeadlineExceeded:   "deadline-exceeded",
	codes.NotFound:           "not-found",
	codes.AlreadyExists:      "already-exists",
	codes.PermissionDenied:   "permission-denied",
	codes.ResourceExhausted:  "resource-exhausted",
	codes.FailedPrecondition: "failed-precondition",
	codes.Aborted:            "aborted",
	codes.OutOfRange:         "out-of-range",
	codes.Unimplemented:      "unimplemented",
	codes.Internal:           "internal",
	codes.Unavailable:        "unavailable",
	codes.DataLoss:           "data-loss",
	codes.Unauthenticated:    "unauthenticated",
}

// CodeName returns the kebab-case wire name of a gRPC code.
func CodeName(c codes.Code) string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return "unknown"
}

// Payload is the structured error body attached to gRPC statuses.
type Payload struct {
	Code    string       `json:"code"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors"`
}

// Payload returns the wire payload for the error.
func (e *Error) Payload() Payload {
	return Payload{
		Code:    CodeName(e.Code()),
		Message: e.publicMessage(),
		Errors:  FieldErrors(e.Failures),
	}
}

// Struct converts the payload to a protobuf Struct for use as a status detail.
func (p Payload) Struct() (*structpb.Struct, error) {
	errs := make([]any, len(p.Errors))
	for i, fe := range p.Errors {
		errs[i] = map[string]any{
			"field":   fe.Field,
			"message": fe.Message,
			"type":    fe.Type,
		}
	}
	return structpb.NewStruct(map[string]any{
		"code":    p.Code,
		"message": p.Message,
		"errors":  errs,
	})
}

// GRPCStatus implements the interface consulted by status.FromError.
func (e *Error) GRPCStatus() *status.Status {
	p := e.Payload()
	st := status.New(e.Code(), p.Message)
	detail, err := p.Struct()
	if err != nil {
		return st
	}
	withDetail, err := st.WithDetails(detail)
	if err != nil {
		return st
	}
	return withDetail
}

// GRPCError converts any error returned by a handler into a gRPC status error.
//
// Classified errors keep their mapped code. Errors that already carry a
// status pass through. Bare context errors map to Canceled or
// DeadlineExceeded. Everything else becomes an InternalError.
func GRPCError(err error) error {
	if err == nil {
		return nil
	}
	if e, ok := As(err); ok {
		return e.GRPCStatus().Err()
	}
	var se interface{ GRPCStatus() *status.Status }
	if errors.As(err, &se) {
		return se.GRPCStatus().Err()
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return status.FromContextError(err).Err()
	}
	return Internal(err).GRPCStatus().Err()
}

// FromStatus decodes the payload carried by a gRPC status. Statuses without
// a payload detail produce a payload built from the code and message alone.
func FromStatus(st *status.Status) Payload {
	p := Payload{
		Code:    CodeName(st.Code()),
		Message: st.Message(),
		Errors:  []FieldError{},
	}
	for _, d := range st.Details() {
		s, ok := d.(*structpb.Struct)
		if !ok {
			continue
		}
		m := s.AsMap()
		if c, ok := m["code"].(string); ok {
			p.Code = c
		}
		if msg, ok := m["message"].(string); ok {
			p.Message = msg
		}
		if list, ok := m["errors"].([]any); ok {
			for _, item := range list {
				fe, ok := item.(map[string]any)
				if !ok {
					continue
				}
				field, _ := fe["field"].(string)
				message, _ := fe["message"].(string)
				typ, _ := fe["type"].(string)
				p.Errors = append(p.Errors, FieldError{Field: field, Message: message, Type: typ})
			}
		}
		break
	}
	return p
}

// PayloadFromError decodes the payload of a client-side gRPC error.
func PayloadFromError(err error) (Payload, bool) {
	st, ok := status.FromError(err)
	if !ok {
		return Payload{}, false
	}
	return FromStatus(st), true
}
