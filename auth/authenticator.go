package auth

import (
	"context"
	"strings"

	"google.golang.org/grpc/metadata"
)

// Authenticator validates credentials carried in request metadata.
//
// Contract:
//   - Concurrency: implementations must be safe for concurrent use.
//   - Errors: Authenticate returns one of the package sentinels (possibly
//     wrapped) for rejected credentials; any other error is internal.
type Authenticator interface {
	Name() string

	// Supports reports whether req carries credentials this authenticator
	// understands.
	Supports(req Request) bool

	Authenticate(ctx context.Context, req Request) (*Identity, error)
}

// Request is the authentication input for one RPC.
type Request struct {
	FullMethod string
	Metadata   metadata.MD
}

// Get returns the first metadata value for key. Keys are case-insensitive.
func (r Request) Get(key string) string {
	values := r.Metadata.Get(strings.ToLower(key))
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
