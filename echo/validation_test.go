package echo

import (
	"strings"
	"testing"

	"github.com/jonwraymond/rpccache/apierr"
)

func TestUnaryEchoRequest_Validate(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		wantType apierr.FailureType
	}{
		{"valid", "hello", ""},
		{"empty", "", apierr.MissingFieldType},
		{"max length", strings.Repeat("é", MaxMessageLength), ""},
		{"too long", strings.Repeat("a", MaxMessageLength+1), apierr.InvalidLengthType},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := UnaryEchoRequest{Message: tt.message}.Validate()
			if tt.wantType == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			e, ok := apierr.As(err)
			if !ok || len(e.Failures) != 1 || e.Failures[0].Type != tt.wantType {
				t.Errorf("error = %v, want single %s failure", err, tt.wantType)
			}
		})
	}
}

func TestListEchoesRequest_WithDefaults(t *testing.T) {
	if got := (ListEchoesRequest{}).WithDefaults().Limit; got != DefaultListLimit {
		t.Errorf("Limit = %d, want %d", got, DefaultListLimit)
	}
	if got := (ListEchoesRequest{Limit: 7}).WithDefaults().Limit; got != 7 {
		t.Errorf("Limit = %d, want 7", got)
	}
}

func TestGetEchoRequest_Validate(t *testing.T) {
	if err := (GetEchoRequest{ID: "6ba7b810-9dad-11d1-80b4-00c04fd430c8"}).Validate(); err != nil {
		t.Errorf("valid uuid rejected: %v", err)
	}
	err := GetEchoRequest{ID: "42"}.Validate()
	e, ok := apierr.As(err)
	if !ok || e.Failures[0].Message != "id must be a valid uuid" {
		t.Errorf("error = %v, want InvalidFormat", err)
	}
}
