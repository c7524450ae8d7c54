package auth

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/jonwraymond/rpccache/apierr"
)

type mockAuthenticator struct {
	id  *Identity
	err error
}

func (m *mockAuthenticator) Name() string          { return "mock" }
func (m *mockAuthenticator) Supports(Request) bool { return true }
func (m *mockAuthenticator) Authenticate(context.Context, Request) (*Identity, error) {
	return m.id, m.err
}

func TestUnaryServerInterceptor(t *testing.T) {
	info := &grpc.UnaryServerInfo{FullMethod: "/echo.v1.EchoService/UnaryEcho"}

	tests := []struct {
		name          string
		auth          *mockAuthenticator
		opts          []InterceptorOption
		wantPrincipal string
		wantCode      codes.Code
		wantCalled    bool
	}{
		{
			name:          "authenticated",
			auth:          &mockAuthenticator{id: &Identity{Principal: "alice"}},
			wantPrincipal: "alice",
			wantCalled:    true,
		},
		{
			name:     "rejected",
			auth:     &mockAuthenticator{err: ErrInvalidCredentials},
			wantCode: codes.Unauthenticated,
		},
		{
			name:     "internal failure",
			auth:     &mockAuthenticator{err: errors.New("store down")},
			wantCode: codes.Internal,
		},
		{
			name:       "skipped method",
			auth:       &mockAuthenticator{err: ErrMissingCredentials},
			opts:       []InterceptorOption{SkipMethods(info.FullMethod)},
			wantCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var called bool
			var principal string
			handler := func(ctx context.Context, req any) (any, error) {
				called = true
				principal = PrincipalFromContext(ctx)
				return "ok", nil
			}

			ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer x"))
			_, err := UnaryServerInterceptor(tt.auth, tt.opts...)(ctx, nil, info, handler)

			if called != tt.wantCalled {
				t.Fatalf("handler called = %v, want %v", called, tt.wantCalled)
			}
			if tt.wantCalled {
				if err != nil {
					t.Fatalf("interceptor error = %v", err)
				}
				if principal != tt.wantPrincipal {
					t.Errorf("principal = %q, want %q", principal, tt.wantPrincipal)
				}
				return
			}
			if got := status.Code(apierr.GRPCError(err)); got != tt.wantCode {
				t.Errorf("code = %v, want %v (err = %v)", got, tt.wantCode, err)
			}
		})
	}
}

func TestPrincipalFromContext_Empty(t *testing.T) {
	if got := PrincipalFromContext(context.Background()); got != "" {
		t.Errorf("PrincipalFromContext() = %q, want empty", got)
	}
}
