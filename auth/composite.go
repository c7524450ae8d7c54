package auth

import "context"

// CompositeAuthenticator tries authenticators in order. The first one that
// supports the request decides the outcome.
type CompositeAuthenticator struct {
	authenticators []Authenticator
}

// NewCompositeAuthenticator creates a composite of auths. Nil entries are
// skipped.
func NewCompositeAuthenticator(auths ...Authenticator) *CompositeAuthenticator {
	c := &CompositeAuthenticator{}
	for _, a := range auths {
		if a != nil {
			c.authenticators = append(c.authenticators, a)
		}
	}
	return c
}

// Name returns "composite".
func (c *CompositeAuthenticator) Name() string { return "composite" }

// Supports reports whether any member supports req.
func (c *CompositeAuthenticator) Supports(req Request) bool {
	for _, a := range c.authenticators {
		if a.Supports(req) {
			return true
		}
	}
	return false
}

// Authenticate delegates to the first member that supports req.
func (c *CompositeAuthenticator) Authenticate(ctx context.Context, req Request) (*Identity, error) {
	for _, a := range c.authenticators {
		if a.Supports(req) {
			return a.Authenticate(ctx, req)
		}
	}
	return nil, ErrMissingCredentials
}

// Len returns the number of members.
func (c *CompositeAuthenticator) Len() int { return len(c.authenticators) }

var _ Authenticator = (*CompositeAuthenticator)(nil)
