package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecgard/taskhub/internal/api"
	"github.com/alecgard/taskhub/internal/metrics"
	"github.com/alecgard/taskhub/internal/ratelimit"
	"github.com/alecgard/taskhub/internal/user"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Taskhub API server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.close()

	svc := newServices(cfg, b)

	m := metrics.New()
	if b.poolStats != nil {
		m.RegisterPoolCollector(cfg.Database.Driver, b.poolStats)
	}

	deps := api.RouterDeps{
		Users:          svc.users,
		Sessions:       user.NewAuthAdapter(svc.users),
		Tasks:          svc.tasks,
		Teams:          svc.teams,
		Dashboard:      svc.dashboard,
		Store:          b.store,
		Metrics:        m,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
	}
	if cfg.RateLimit.Auth > 0 {
		deps.AuthLimiter = ratelimit.New(cfg.RateLimit.Auth, cfg.RateLimit.Window)
	}
	if cfg.RateLimit.Default > 0 {
		deps.UserLimiter = ratelimit.New(cfg.RateLimit.Default, cfg.RateLimit.Window)
	}

	srv := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      api.NewRouter(deps),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", cfg.Addr(), "driver", cfg.Database.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-sigCh:
	}
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	return srv.Shutdown(shutdownCtx)
}
