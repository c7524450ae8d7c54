package echo

import (
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/jonwraymond/rpccache/apierr"
)

// failures collects validation failures in order.
type failures []apierr.ValidationFailure

func (f failures) err() error {
	if len(f) == 0 {
		return nil
	}
	return apierr.Validation(f...)
}

func validateMessage(fs failures, msg string) failures {
	switch n := utf8.RuneCountInString(msg); {
	case n == 0:
		return append(fs, apierr.MissingField("message"))
	case n > MaxMessageLength:
		return append(fs, apierr.InvalidLength("message", 1, MaxMessageLength))
	}
	return fs
}

func validateOrganizerKey(fs failures, key string) failures {
	switch n := utf8.RuneCountInString(key); {
	case n == 0:
		return append(fs, apierr.MissingField(OrganizerKeyField))
	case n > MaxOrganizerKeyLength:
		return append(fs, apierr.InvalidLength(OrganizerKeyField, 1, MaxOrganizerKeyLength))
	}
	return fs
}

// Validate checks a UnaryEcho request.
func (r UnaryEchoRequest) Validate() error {
	return validateMessage(nil, r.Message).err()
}

// Validate checks a RecordEcho request after the organizer default applies.
func (r RecordEchoRequest) Validate() error {
	fs := validateMessage(nil, r.Message)
	fs = validateOrganizerKey(fs, r.OrganizerKey)
	return fs.err()
}

// Validate checks a ListEchoes request after defaults apply.
func (r ListEchoesRequest) Validate() error {
	fs := validateOrganizerKey(nil, r.Filters.OrganizerKey)
	if r.Limit < 1 || r.Limit > MaxListLimit {
		fs = append(fs, apierr.InvalidRange("limit", 1, MaxListLimit))
	}
	return fs.err()
}

// WithDefaults returns the request with a zero limit replaced by the default.
func (r ListEchoesRequest) WithDefaults() ListEchoesRequest {
	if r.Limit == 0 {
		r.Limit = DefaultListLimit
	}
	return r
}

// Validate checks a GetEcho request.
func (r GetEchoRequest) Validate() error {
	var fs failures
	if r.ID == "" {
		fs = append(fs, apierr.MissingField("id"))
	} else if _, err := uuid.Parse(r.ID); err != nil {
		fs = append(fs, apierr.InvalidFormat("id", "must be a valid uuid"))
	}
	return fs.err()
}
