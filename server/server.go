package server

import (
	"context"
	"errors"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jonwraymond/rpccache/auth"
	"github.com/jonwraymond/rpccache/echo"
	"github.com/jonwraymond/rpccache/observe"
)

// DefaultShutdownTimeout bounds GracefulStop before connections are cut.
const DefaultShutdownTimeout = 10 * time.Second

// Options configures a Server.
type Options struct {
	// Credentials secures the listener. Nil serves plaintext.
	Credentials credentials.TransportCredentials

	// Authenticator, when set, must accept every echo call.
	Authenticator auth.Authenticator

	// Middleware records traces, metrics and logs per call.
	Middleware *observe.Middleware

	Logger          observe.Logger
	ShutdownTimeout time.Duration
}

// Server is the gRPC echo server.
type Server struct {
	grpc    *grpc.Server
	health  *grpchealth.Server
	logger  observe.Logger
	timeout time.Duration
}

// New builds a Server for svc.
func New(svc *echo.Service, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = observe.NopLogger()
	}
	logger = logger.With(observe.F("component", "server"))

	timeout := opts.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultShutdownTimeout
	}

	interceptors := []grpc.UnaryServerInterceptor{
		RecoveryInterceptor(logger),
		ErrorInterceptor(),
	}
	if opts.Middleware != nil {
		interceptors = append(interceptors, ObserveInterceptor(opts.Middleware))
	}
	if opts.Authenticator != nil {
		interceptors = append(interceptors, auth.UnaryServerInterceptor(opts.Authenticator,
			auth.SkipMethods(healthpb.Health_Check_FullMethodName),
			auth.WithInterceptorLogger(logger),
		))
	}

	creds := opts.Credentials
	if creds == nil {
		logger.Warn(context.Background(), "serving without TLS")
		creds = insecure.NewCredentials()
	}

	gs := grpc.NewServer(
		grpc.Creds(creds),
		grpc.ChainUnaryInterceptor(interceptors...),
	)
	RegisterEchoServiceServer(gs, NewHandler(svc, logger))

	hs := grpchealth.NewServer()
	hs.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{grpc: gs, health: hs, logger: logger, timeout: timeout}
}

// GRPC returns the underlying grpc.Server.
func (s *Server) GRPC() *grpc.Server { return s.grpc }

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully. In-flight calls get ShutdownTimeout to finish.
func (s *Server) Serve(ctx context.Context, lis net.Listener) error {
	s.logger.Info(ctx, "grpc server listening", observe.F("addr", lis.Addr().String()))

	errCh := make(chan error, 1)
	go func() { errCh <- s.grpc.Serve(lis) }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info(ctx, "grpc server shutting down")
	s.health.Shutdown()

	stopped := make(chan struct{})
	go func() {
		s.grpc.GracefulStop()
		close(stopped)
	}()

	timer := time.NewTimer(s.timeout)
	defer timer.Stop()
	select {
	case <-stopped:
	case <-timer.C:
		s.logger.Warn(ctx, "graceful stop timed out, closing connections")
		s.grpc.Stop()
	}

	if err := <-errCh; err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
