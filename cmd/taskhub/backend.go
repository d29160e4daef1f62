package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alecgard/taskhub/internal/api"
	"github.com/alecgard/taskhub/internal/config"
	"github.com/alecgard/taskhub/internal/dashboard"
	"github.com/alecgard/taskhub/internal/docstore"
	"github.com/alecgard/taskhub/internal/metrics"
	"github.com/alecgard/taskhub/internal/task"
	"github.com/alecgard/taskhub/internal/team"
	"github.com/alecgard/taskhub/internal/user"
	"github.com/jackc/pgx/v5/pgxpool"
)

// backend is the set of repositories for the configured database driver.
type backend struct {
	users user.Repository
	tasks task.Repository
	teams team.Repository
	store api.Pinger

	// poolStats is nil when the driver has no connection pool to report.
	poolStats metrics.PoolStatFunc
	// mongo is set for the mongo driver only.
	mongo *docstore.DB
	close func()
}

// openBackend connects to the configured database and builds its stores.
func openBackend(ctx context.Context, cfg *config.Config) (*backend, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		db, err := docstore.Connect(ctx, cfg.Database.URL, cfg.Database.Name)
		if err != nil {
			return nil, err
		}
		slog.Info("connected to database", "driver", config.DriverMongo, "database", cfg.Database.Name)
		return &backend{
			users:     docstore.NewUserStore(db),
			tasks:     docstore.NewTaskStore(db),
			teams:     docstore.NewTeamStore(db),
			store:     db,
			poolStats: db.PoolStats,
			mongo:     db,
			close: func() {
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := db.Close(ctx); err != nil {
					slog.Warn("disconnecting from mongodb", "error", err)
				}
			},
		}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Database.URL)
		if err != nil {
			return nil, fmt.Errorf("creating connection pool: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("pinging database: %w", err)
		}
		slog.Info("connected to database", "driver", config.DriverPostgres)
		return &backend{
			users: user.NewStore(pool),
			tasks: task.NewStore(pool),
			teams: team.NewStore(pool),
			store: pool,
			poolStats: func() metrics.PoolStats {
				s := pool.Stat()
				return metrics.PoolStats{
					Total:    s.TotalConns(),
					Idle:     s.IdleConns(),
					Acquired: s.AcquiredConns(),
				}
			},
			close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// services holds the domain services built over a backend.
type services struct {
	users     *user.Service
	tasks     *task.Service
	teams     *team.Service
	dashboard *dashboard.Service
}

func newServices(cfg *config.Config, b *backend) *services {
	users := user.NewService(b.users, cfg.Auth.SessionTTL, cfg.Auth.BcryptCost)
	return &services{
		users:     users,
		tasks:     task.NewService(b.tasks),
		teams:     team.NewService(b.teams, users),
		dashboard: dashboard.NewService(b.tasks, b.teams),
	}
}

// loadConfig loads and validates the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}
