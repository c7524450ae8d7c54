// Package auth authenticates inbound RPCs from gRPC metadata.
//
// Two schemes are supported: HS256 bearer tokens (JWTAuthenticator) and
// static API keys (APIKeyAuthenticator). CompositeAuthenticator tries them in
// order and UnaryServerInterceptor attaches the resulting Identity to the
// request context. Failures surface as apierr Unauthenticated errors.
package auth
