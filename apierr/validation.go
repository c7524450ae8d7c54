package apierr

import "fmt"

// FailureType names a validation failure variant. The value is the "type"
// field of the wire payload.
type FailureType string

const (
	InvalidLengthType FailureType = "InvalidLength"
	InvalidFormatType FailureType = "InvalidFormat"
	InvalidRangeType  FailureType = "InvalidRange"
	MissingFieldType  FailureType = "MissingField"
	InvalidTypeType   FailureType = "InvalidType"
)

// ValidationFailure is a single per-field validation failure.
type ValidationFailure struct {
	Field   string
	Type    FailureType
	Message string
}

// MissingField reports a required field that is absent or empty.
func MissingField(field string) ValidationFailure {
	return ValidationFailure{
		Field:   field,
		Type:    MissingFieldType,
		Message: field + " is missing",
	}
}

// InvalidLength reports a field whose length is outside [min, max].
func InvalidLength(field string, min, max int) ValidationFailure {
	return ValidationFailure{
		Field:   field,
		Type:    InvalidLengthType,
		Message: fmt.Sprintf("%s must be between %d and %d", field, min, max),
	}
}

// InvalidRange reports a numeric field outside [min, max].
func InvalidRange(field string, min, max int) ValidationFailure {
	return ValidationFailure{
		Field:   field,
		Type:    InvalidRangeType,
		Message: fmt.Sprintf("%s must be between %d and %d", field, min, max),
	}
}

// InvalidFormat reports a malformed field. msg completes the sentence
// "<field> <msg>", e.g. "must be a valid uuid".
func InvalidFormat(field, msg string) ValidationFailure {
	return ValidationFailure{
		Field:   field,
		Type:    InvalidFormatType,
		Message: field + " " + msg,
	}
}

// InvalidType reports a field holding a value of the wrong type.
func InvalidType(field, typeName string) ValidationFailure {
	return ValidationFailure{
		Field:   field,
		Type:    InvalidTypeType,
		Message: typeName + " is an invalid type",
	}
}

// FieldError is the wire form of a ValidationFailure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

// FieldErrors converts failures to their wire form, preserving order.
// The result is never nil.
func FieldErrors(failures []ValidationFailure) []FieldError {
	out := make([]FieldError, 0, len(failures))
	for _, f := range failures {
		out = append(out, FieldError{
			Field:   f.Field,
			Message: f.Message,
			Type:    string(f.Type),
		})
	}
	return out
}
