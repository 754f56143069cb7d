package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/geo-catalog/internal/audit"
	"github.com/crucial707/geo-catalog/internal/auth"
	"github.com/crucial707/geo-catalog/internal/config"
	"github.com/crucial707/geo-catalog/internal/db"
	"github.com/crucial707/geo-catalog/internal/scheduler"
)

func newLogger(format string) *slog.Logger {
	if format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func main() {

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	logger := newLogger(cfg.LogFormat)
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Connect to database FIRST
	database, err := db.Connect(ctx, cfg)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	logger.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if err := db.Run(cfg.DatabaseURL()); err != nil {
		logger.Error("migrations failed", "error", err)
		os.Exit(1)
	}

	// The key configuration is read once here; rotating it requires a restart.
	verifier := auth.NewVerifier(cfg.OIDC)
	if err := verifier.KeyError(); err != nil {
		logger.Warn("bearer tokens will be rejected", "error", err)
	} else {
		logger.Info("token verifier ready", "issuer", verifier.Issuer())
	}

	cron, err := scheduler.Start(ctx, cfg.LedgerStatsCron, audit.NewLedger(database), logger)
	if err != nil {
		logger.Error("invalid ledger stats schedule", "cron", cfg.LedgerStatsCron, "error", err)
		os.Exit(1)
	}
	defer cron.Stop()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, verifier, logger),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server LAST
	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server", "port", cfg.Port, "tls", cfg.TLSCertFile != "")
		if cfg.TLSCertFile != "" {
			errCh <- srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
			return
		}
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server stopped", "error", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", "error", err)
		}
	}
}
