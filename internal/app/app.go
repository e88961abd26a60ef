// Package app ties the service components together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/inkwell-dev/inkwell/internal/api"
	"github.com/inkwell-dev/inkwell/internal/auth"
	"github.com/inkwell-dev/inkwell/internal/config"
	"github.com/inkwell-dev/inkwell/internal/store"
	"github.com/inkwell-dev/inkwell/internal/subscription"
)

// App is the main service process.
type App struct {
	cfg          *config.Config
	store        store.Store
	authProvider auth.Provider
	api          *api.Server
	logger       *slog.Logger
}

// New creates a new app from configuration.
func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	// Initialize storage.
	db, err := store.New(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	// Create auth provider based on config.
	authProvider, err := auth.NewProvider(cfg.Auth, db)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init auth provider: %w", err)
	}

	// Bootstrap (creates the initial user for the builtin provider).
	if err := authProvider.Bootstrap(context.Background()); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("bootstrap auth: %w", err)
	}

	subs := subscription.NewService(db, cfg.Quota.FreePostLimit)
	apiSrv := api.NewServer(db, authProvider, subs, cfg, logger)

	a := &App{
		cfg:          cfg,
		store:        db,
		authProvider: authProvider,
		api:          apiSrv,
		logger:       logger.With("component", "app"),
	}

	// Startup validation warnings (only for builtin provider).
	if authProvider.Name() == "builtin" && len(cfg.Auth.JWTSecret) < 32 {
		logger.Warn("JWT secret is shorter than 32 characters, use a stronger secret in production")
	}
	for _, origin := range cfg.Server.AllowedOrigins {
		if origin == "*" {
			logger.Warn("CORS allowed_origins contains wildcard '*', restrict to specific origins in production")
			break
		}
	}

	return a, nil
}

// Run starts the HTTP server and blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    a.cfg.Server.Addr,
		Handler: a.api.Handler(),
	}

	a.api.StartBackgroundTasks(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("listening", "addr", a.cfg.Server.Addr)
		if a.cfg.Server.TLSCert != "" && a.cfg.Server.TLSKey != "" {
			errCh <- srv.ListenAndServeTLS(a.cfg.Server.TLSCert, a.cfg.Server.TLSKey)
		} else {
			a.logger.Warn("TLS not configured, running without encryption (development only)")
			errCh <- srv.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("graceful shutdown failed, forcing close", "error", err)
			_ = srv.Close()
		} else {
			a.logger.Info("http server stopped gracefully")
		}

		a.logger.Info("closing store")
		_ = a.store.Close()
		a.logger.Info("shutdown complete")
		return ctx.Err()

	case err := <-errCh:
		_ = a.store.Close()
		return err
	}
}
