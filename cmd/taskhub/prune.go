package main

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"
)

var pruneSessionsCmd = &cobra.Command{
	Use:   "prune-sessions",
	Short: "Delete expired login sessions",
	RunE:  runPruneSessions,
}

func init() {
	rootCmd.AddCommand(pruneSessionsCmd)
}

func runPruneSessions(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx := context.Background()
	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	n, err := newServices(cfg, b).users.PruneSessions(ctx)
	if err != nil {
		return err
	}
	slog.Info("expired sessions pruned", "count", n)
	return nil
}
