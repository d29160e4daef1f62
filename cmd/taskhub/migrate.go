package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/alecgard/taskhub/internal/config"
	"github.com/alecgard/taskhub/internal/docstore"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations (postgres) or create indexes (mongo)",
	RunE:  runMigrate,
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback all migrations",
	RunE:  runMigrateDown,
}

func init() {
	migrateCmd.AddCommand(migrateDownCmd)
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Database.Driver == config.DriverMongo {
		return ensureMongoIndexes(context.Background(), cfg)
	}

	m, err := migrate.New(cfg.MigrationsSource(), cfg.DatabaseURLForMigrate())
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	slog.Info("migrations applied successfully")
	return nil
}

func runMigrateDown(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	if cfg.Database.Driver == config.DriverMongo {
		return fmt.Errorf("migrate down is not supported for the %s driver", config.DriverMongo)
	}

	m, err := migrate.New(cfg.MigrationsSource(), cfg.DatabaseURLForMigrate())
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	slog.Info("migrations rolled back successfully")
	return nil
}

func ensureMongoIndexes(ctx context.Context, cfg *config.Config) error {
	db, err := docstore.Connect(ctx, cfg.Database.URL, cfg.Database.Name)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if err := db.EnsureIndexes(ctx); err != nil {
		return err
	}
	slog.Info("indexes created successfully", "database", cfg.Database.Name)
	return nil
}
