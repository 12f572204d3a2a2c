// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/accountd/accountd/internal/account"
	accountpg "github.com/accountd/accountd/internal/account/postgres"
	"github.com/accountd/accountd/internal/api"
	"github.com/accountd/accountd/internal/config"
	"github.com/accountd/accountd/internal/logging"
	"github.com/accountd/accountd/internal/notify"
	"github.com/accountd/accountd/internal/observability"
	"github.com/accountd/accountd/internal/store"
	"github.com/accountd/accountd/internal/token"
)

const shutdownTimeout = 10 * time.Second

// NewServeCmd creates the serve subcommand.
func NewServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the account service",
		Long: `Start the HTTP API server, connect to PostgreSQL, and optionally
apply pending schema migrations and expose metrics.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), cmd)
		},
	}

	def := config.Default()
	cmd.Flags().String("database.url", "", "PostgreSQL connection URL")
	cmd.Flags().Bool("database.auto_migrate", def.Database.AutoMigrate, "apply pending migrations on startup")
	cmd.Flags().String("http.addr", def.HTTP.Addr, "API listen address")
	cmd.Flags().Bool("metrics.enabled", def.Metrics.Enabled, "expose metrics and health endpoints")
	cmd.Flags().String("metrics.addr", def.Metrics.Addr, "metrics/health listen address")
	cmd.Flags().String("frontend.base_url", def.Frontend.BaseURL, "frontend origin for email links")
	cmd.Flags().String("log.format", def.Log.Format, "log format (json or text)")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := config.Load(configFile, cmd.Flags())
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logging.SetDefault("accountd", version, cfg.Log.Format)

	slog.Info("starting accountd",
		"http_addr", cfg.HTTP.Addr,
		"auto_migrate", cfg.Database.AutoMigrate,
		"log_format", cfg.Log.Format,
	)

	if cfg.Database.AutoMigrate {
		if err := migrateUp(cfg.Database.URL); err != nil {
			return err
		}
		slog.Info("schema migrations applied")
	}

	pool, err := store.NewPool(ctx, cfg.Database.URL)
	if err != nil {
		return err
	}
	defer pool.Close()
	slog.Info("connected to database")

	tokens, err := token.NewService(token.Config{
		Secret:    cfg.Auth.Secret,
		AccessTTL: cfg.Auth.AccessTTL,
		VerifyTTL: cfg.Auth.VerifyTTL,
		ResetTTL:  cfg.Auth.ResetTTL,
	})
	if err != nil {
		return err
	}

	renderer, err := notify.NewRenderer(cfg.Frontend.BaseURL)
	if err != nil {
		return err
	}

	var gateway account.NotificationGateway
	if cfg.SMTP.Addr != "" {
		gateway, err = notify.NewSMTPGateway(notify.SMTPConfig{
			Addr:     cfg.SMTP.Addr,
			From:     cfg.SMTP.From,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
		})
		if err != nil {
			return err
		}
	} else {
		slog.Warn("no SMTP relay configured, emails will only be logged")
		gateway = notify.NewLogGateway(slog.Default())
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	// Observability server and metrics, if enabled.
	var metrics *observability.Metrics
	if cfg.Metrics.Enabled && cfg.Metrics.Addr != "" {
		obsServer := observability.NewServer(cfg.Metrics.Addr, func() bool {
			return pool.Ping(ctx) == nil
		})
		obsErrCh, err := obsServer.Start()
		if err != nil {
			return err
		}
		defer stopObservability(obsServer)
		go monitorServerErrors(ctx, cancel, obsErrCh, "observability")

		metrics = obsServer.Metrics()
		gateway = notify.NewInstrumentedGateway(gateway, metrics.EmailsDispatchedTotal)
	}

	svc, err := account.NewService(accountpg.NewAccountRepository(pool), account.NewArgon2idHasher(), tokens, renderer, gateway)
	if err != nil {
		return err
	}

	handler, err := api.NewHandler(svc, slog.Default(), metrics)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("API server listening", "addr", cfg.HTTP.Addr)
		if serveErr := httpServer.ListenAndServe(); serveErr != nil && serveErr != http.ErrServerClosed {
			errCh <- serveErr
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", "signal", sig.String())
	case err := <-errCh:
		return oops.Code("SERVER_FAILED").With("addr", cfg.HTTP.Addr).Wrap(err)
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return oops.Code("SHUTDOWN_FAILED").Wrap(err)
	}

	slog.Info("accountd stopped")
	return nil
}

// migrateUp applies all pending schema migrations.
func migrateUp(databaseURL string) error {
	migrator, err := store.NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := migrator.Close(); closeErr != nil {
			slog.Warn("failed to close migrator", "error", closeErr)
		}
	}()
	return migrator.Up()
}

// stopObservability shuts the observability server down with its own timeout.
func stopObservability(srv *observability.Server) {
	stopCtx, stopCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stopCancel()
	if err := srv.Stop(stopCtx); err != nil {
		slog.Warn("failed to stop observability server", "error", err)
	}
}

// monitorServerErrors cancels the run context when a background server fails.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, name string) {
	select {
	case err, ok := <-errCh:
		if ok && err != nil {
			slog.Error("background server failed", "server", name, "error", err)
			cancel()
		}
	case <-ctx.Done():
	}
}
