package auth

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc/metadata"
)

func TestCompositeAuthenticator(t *testing.T) {
	jwtAuth, err := NewJWTAuthenticator(JWTConfig{Secret: testSecret})
	if err != nil {
		t.Fatalf("NewJWTAuthenticator() error = %v", err)
	}
	store := NewMemoryAPIKeyStore()
	store.AddPlain("k1", "key-1", "svc-a")

	c := NewCompositeAuthenticator(jwtAuth, nil, NewAPIKeyAuthenticator("", store))
	if c.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", c.Len())
	}

	token := signToken(t, testSecret, map[string]any{"sub": "alice"})

	tests := []struct {
		name    string
		md      metadata.MD
		want    string
		wantErr error
	}{
		{name: "jwt", md: metadata.Pairs("authorization", "Bearer "+token), want: "alice"},
		{name: "api key", md: metadata.Pairs("x-api-key", "key-1"), want: "svc-a"},
		{
			name:    "jwt decides when both present",
			md:      metadata.Pairs("authorization", "Bearer bad", "x-api-key", "key-1"),
			wantErr: ErrTokenMalformed,
		},
		{name: "nothing", md: metadata.MD{}, wantErr: ErrMissingCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := c.Authenticate(context.Background(), Request{Metadata: tt.md})
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Authenticate() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Authenticate() error = %v", err)
			}
			if id.Principal != tt.want {
				t.Errorf("Principal = %q, want %q", id.Principal, tt.want)
			}
		})
	}
}
