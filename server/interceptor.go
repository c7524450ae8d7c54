package server

import (
	"context"
	"fmt"
	"runtime/debug"

	"google.golang.org/grpc"
	"google.golang.org/grpc/status"

	"github.com/jonwraymond/rpccache/apierr"
	"github.com/jonwraymond/rpccache/observe"
)

// StatusCode names the status an error will be reported with.
func StatusCode(err error) string {
	if err == nil {
		return "ok"
	}
	return apierr.CodeName(status.Code(apierr.GRPCError(err)))
}

// RecoveryInterceptor turns handler panics into Internal errors.
func RecoveryInterceptor(logger observe.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
		defer func() {
			if r := recover(); r != nil {
				logger.Error(ctx, "handler panic",
					observe.F("rpc.method", info.FullMethod),
					observe.F("panic", fmt.Sprint(r)),
					observe.F("stack", string(debug.Stack())),
				)
				resp, err = nil, apierr.Internal(fmt.Errorf("panic: %v", r))
			}
		}()
		return handler(ctx, req)
	}
}

// ErrorInterceptor converts handler errors into gRPC statuses.
func ErrorInterceptor() grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		resp, err := handler(ctx, req)
		if err != nil {
			return nil, apierr.GRPCError(err)
		}
		return resp, nil
	}
}

// ObserveInterceptor traces, measures and logs each call through mw.
func ObserveInterceptor(mw *observe.Middleware) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		meta := observe.ParseFullMethod(info.FullMethod)
		meta.CacheMethod = cacheMethods[info.FullMethod]

		exec := mw.Wrap(func(ctx context.Context, _ observe.RPCMeta, req any) (any, error) {
			return handler(ctx, req)
		})
		return exec(ctx, meta, req)
	}
}
