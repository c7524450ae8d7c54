package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/rpccache/observe"
)

// Set by -ldflags at build time.
var (
	version = "dev"
	commit  = "none"
)

type rootOptions struct {
	configFile string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "echoserver",
		Short:         "Cached echo gRPC service",
		Long:          "Echo gRPC service with a Redis response cache, SQLite persistence and an ops HTTP port.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.configFile, "config", "", "optional YAML config file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "override LOG_LEVEL")

	cmd.AddCommand(
		newServeCmd(opts),
		newInvalidateCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)
	return cmd
}

func execute(ctx context.Context, args []string) error {
	cmd := newRootCmd()
	cmd.SetArgs(args)

	if err := cmd.ExecuteContext(ctx); err != nil {
		logger := observe.NewLoggerWithWriter("error", cmd.ErrOrStderr())
		logger.Error(ctx, "command failed", observe.F("error", err.Error()))
		return err
	}
	return nil
}
