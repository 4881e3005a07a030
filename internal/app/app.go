// Package app holds the running PR Warden service: the HTTP server and the
// review worker pool sharing one store.
package app

import (
	"context"
	"log/slog"

	"github.com/sevigo/pr-warden/internal/config"
	"github.com/sevigo/pr-warden/internal/core"
	"github.com/sevigo/pr-warden/internal/server"
	"github.com/sevigo/pr-warden/internal/storage"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	dispatcher core.JobDispatcher
	store      storage.Store
	logger     *slog.Logger
}

// NewApp assembles the application from its already constructed parts.
func NewApp(cfg *config.Config, srv *server.Server, dispatcher core.JobDispatcher, store storage.Store, logger *slog.Logger) *App {
	return &App{
		cfg:        cfg,
		server:     srv,
		dispatcher: dispatcher,
		store:      store,
		logger:     logger,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.logger.Info("starting PR Warden",
		"port", a.cfg.Server.Port,
		"webhook_url", a.cfg.WebhookURL(),
		"store", a.cfg.Database.Driver,
		"ai_provider", a.cfg.AI.Provider,
		"ai_model", a.cfg.AI.Model,
		"max_workers", a.cfg.Jobs.MaxWorkers,
	)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly: no new requests, then the queue
// drains, then the store closes.
func (a *App) Stop(ctx context.Context) error {
	a.logger.Info("shutting down PR Warden services")

	// Continue stopping the other components even if the server fails.
	serverErr := a.server.Stop(ctx)
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.dispatcher.Stop()

	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing store", "error", err)
	}

	if serverErr != nil {
		return serverErr
	}
	a.logger.Info("PR Warden stopped successfully")
	return nil
}
