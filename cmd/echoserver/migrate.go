package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/rpccache/observe"
	"github.com/jonwraymond/rpccache/storage"
)

func newMigrateCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cfg, err := loadConfig(ctx, root, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			logger := observe.NewLoggerWithWriter(cfg.Log.Level, cmd.ErrOrStderr())

			db, err := storage.Open(ctx, cfg.Database.URL, storage.Options{Logger: logger})
			if err != nil {
				return err
			}
			defer storage.Close(db)

			if err := storage.Migrate(ctx, db); err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "database schema ready: %s\n", cfg.Database.URL)
			return err
		},
	}
}
