package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jonwraymond/rpccache/config"
	"github.com/jonwraymond/rpccache/observe"
	"github.com/jonwraymond/rpccache/server"
)

func newServeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the gRPC server and the ops HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return serve(ctx, cfg, cmd)
		},
	}
}

func serve(ctx context.Context, cfg config.Config, cmd *cobra.Command) error {
	a, err := newApp(ctx, cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer a.close(context.WithoutCancel(ctx))

	authenticator, err := newAuthenticator(cfg.Auth)
	if err != nil {
		return fmt.Errorf("auth: %w", err)
	}
	creds, err := newCredentials(cfg.Server)
	if err != nil {
		return fmt.Errorf("tls: %w", err)
	}

	srv := server.New(a.service, server.Options{
		Credentials:     creds,
		Authenticator:   authenticator,
		Middleware:      a.middleware,
		Logger:          a.logger,
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})

	lis, err := net.Listen("tcp", server.ListenAddress(cfg.Server.Port, cfg.Server.EnableIPv6))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	ops := &http.Server{
		Addr:              server.ListenAddress(cfg.Server.MetricsPort, cfg.Server.EnableIPv6),
		Handler:           server.NewOpsHandler(a.health, a.registry),
		ReadHeaderTimeout: 5 * time.Second,
	}

	a.logger.Info(ctx, "echoserver starting",
		observe.F("version", version),
		observe.F("grpc_addr", lis.Addr().String()),
		observe.F("ops_addr", ops.Addr),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Serve(gctx, lis) })
	g.Go(func() error { return server.ServeOps(gctx, ops, a.logger) })
	return g.Wait()
}
