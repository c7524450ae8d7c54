package auth

import (
	"context"
	"errors"

	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/observe"
)

// InterceptorOption configures UnaryServerInterceptor.
type InterceptorOption func(*interceptorOptions)

type interceptorOptions struct {
	skip   map[string]bool
	logger observe.Logger
}

// SkipMethods exempts full method names (e.g. "/grpc.health.v1.Health/Check").
func SkipMethods(methods ...string) InterceptorOption {
	return func(o *interceptorOptions) {
		for _, m := range methods {
			o.skip[m] = true
		}
	}
}

// WithInterceptorLogger sets the logger for rejected calls.
func WithInterceptorLogger(l observe.Logger) InterceptorOption {
	return func(o *interceptorOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// UnaryServerInterceptor authenticates every call with a and attaches the
// identity to the handler context. Rejected credentials become an
// Unauthenticated error; internal authenticator errors become Internal.
func UnaryServerInterceptor(a Authenticator, opts ...InterceptorOption) grpc.UnaryServerInterceptor {
	o := interceptorOptions{skip: make(map[string]bool), logger: observe.NopLogger()}
	for _, opt := range opts {
		opt(&o)
	}

	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if o.skip[info.FullMethod] {
			return handler(ctx, req)
		}

		md, _ := metadata.FromIncomingContext(ctx)
		id, err := a.Authenticate(ctx, Request{FullMethod: info.FullMethod, Metadata: md})
		if err != nil {
			if isCredentialError(err) {
				o.logger.Debug(ctx, "authentication rejected",
					observe.F("method", info.FullMethod),
					observe.F("error", err),
				)
				return nil, apierr.Unauthenticated(err.Error(), err)
			}
			return nil, apierr.Internal(err)
		}

		return handler(WithIdentity(ctx, id), req)
	}
}

func isCredentialError(err error) bool {
	return errors.Is(err, ErrMissingCredentials) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrTokenExpired) ||
		errors.Is(err, ErrTokenMalformed)
}
