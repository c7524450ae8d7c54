package main

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/rpccache/cache"
	"github.com/jonwraymond/rpccache/observe"
)

type invalidateOptions struct {
	method  string
	request string
	pattern string
}

var errNothingToInvalidate = errors.New("one of --method or --pattern is required")

func newInvalidateCmd(root *rootOptions) *cobra.Command {
	opts := &invalidateOptions{}

	cmd := &cobra.Command{
		Use:   "invalidate",
		Short: "Delete cached responses from Redis",
		Long: `Delete cached responses.

  --method M --request JSON   delete the entry for one request
  --method M                  delete every entry for a method
  --pattern GLOB              delete every key matching a Redis glob`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInvalidate(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.method, "method", "", "cache method name, e.g. unary_echo")
	cmd.Flags().StringVar(&opts.request, "request", "", "request JSON for an exact invalidation")
	cmd.Flags().StringVar(&opts.pattern, "pattern", "", "Redis glob pattern")
	cmd.MarkFlagsMutuallyExclusive("pattern", "method")
	cmd.MarkFlagsMutuallyExclusive("pattern", "request")
	return cmd
}

func runInvalidate(cmd *cobra.Command, root *rootOptions, opts *invalidateOptions) error {
	if opts.method == "" && opts.pattern == "" {
		return errNothingToInvalidate
	}

	ctx := cmd.Context()
	cfg, err := loadConfig(ctx, root, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	logger := observe.NewLoggerWithWriter(cfg.Log.Level, cmd.ErrOrStderr())

	client, err := cache.NewRedisClient(cfg.Redis.URL())
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer client.Close()

	inv, err := cache.NewInvalidator(cache.NewRedisStore(client, cache.WithRedisLogger(logger)), cache.WithLogger(logger))
	if err != nil {
		return err
	}

	if opts.request != "" {
		var req any
		if err := json.Unmarshal([]byte(opts.request), &req); err != nil {
			return fmt.Errorf("--request is not valid JSON: %w", err)
		}
		if err := inv.InvalidateExact(ctx, opts.method, req); err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), "invalidated 1 key")
		return err
	}

	pattern := opts.pattern
	if pattern == "" {
		pattern = cache.MethodPattern(opts.method)
	}
	n, err := inv.InvalidateByPattern(ctx, pattern)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(cmd.OutOrStdout(), "invalidated %d keys\n", n)
	return err
}
