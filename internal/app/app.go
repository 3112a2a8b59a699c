// Package app initializes and orchestrates the main components of the Fire
// Circle service. It wires together the configuration, database, voice
// registry, review pipeline, and HTTP server.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mallku/firecircle/internal/config"
	"github.com/mallku/firecircle/internal/core"
	"github.com/mallku/firecircle/internal/db"
	"github.com/mallku/firecircle/internal/jobs"
	"github.com/mallku/firecircle/internal/logger"
	"github.com/mallku/firecircle/internal/manifest"
	"github.com/mallku/firecircle/internal/review"
	"github.com/mallku/firecircle/internal/server"
	"github.com/mallku/firecircle/internal/storage"
	"github.com/mallku/firecircle/internal/voice"
)

// App holds the main application components.
type App struct {
	cfg        *config.Config
	server     *server.Server
	logger     *slog.Logger
	dispatcher core.JobDispatcher
	dbCleanup  func()
}

// NewApp sets up the application with all its dependencies.
func NewApp(ctx context.Context, cfg *config.Config, log *slog.Logger) (*App, error) {
	log.Info("initializing fire circle service",
		"voices", len(cfg.Voices),
		"manifest", cfg.Review.ManifestPath,
		"max_workers", cfg.Review.MaxWorkers)

	registry, err := voice.NewRegistry(ctx, cfg, log)
	if err != nil {
		return nil, fmt.Errorf("failed to build voice registry: %w", err)
	}

	chapters, err := manifest.Load(cfg.Review.ManifestPath, registry.Names())
	if err != nil {
		return nil, fmt.Errorf("failed to load chapter manifest: %w", err)
	}
	log.Info("chapter manifest loaded", "chapters", len(chapters))

	dbConn, dbCleanup, err := db.NewDatabase(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	store := storage.NewStore(dbConn.DB)

	prompts, err := voice.NewPromptManager()
	if err != nil {
		dbCleanup()
		return nil, fmt.Errorf("failed to initialize prompt manager: %w", err)
	}

	runner := review.NewRunner(chapters, registry, prompts, cfg.Review.VoiceTimeout, logger.ForComponent(log, "review"))
	reviewJob := jobs.NewCircleReviewJob(cfg, runner, store, logger.ForComponent(log, "jobs"))
	dispatcher := jobs.NewDispatcher(reviewJob, cfg.Review.MaxWorkers, logger.ForComponent(log, "dispatch"))
	httpServer := server.NewServer(ctx, cfg, dispatcher, logger.ForComponent(log, "server"))

	log.Info("fire circle service initialized")
	return &App{
		cfg:        cfg,
		server:     httpServer,
		logger:     log,
		dispatcher: dispatcher,
		dbCleanup:  dbCleanup,
	}, nil
}

// Start runs the HTTP server. It blocks until the server stops.
func (a *App) Start() error {
	a.logger.Info("starting fire circle service",
		"server_port", a.cfg.Server.Port,
		"max_workers", a.cfg.Review.MaxWorkers)

	if err := a.server.Start(); err != nil {
		a.logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly.
func (a *App) Stop() error {
	a.logger.Info("shutting down fire circle services")

	// Stop the HTTP server first to prevent new incoming requests.
	serverErr := a.server.Stop()
	if serverErr != nil {
		a.logger.Error("error during HTTP server shutdown", "error", serverErr)
		// Continue to stop other components even if the server failed.
	}

	// Stop the job dispatcher, allowing in-flight reviews to finish.
	a.dispatcher.Stop()

	a.logger.Info("closing database connection")
	a.dbCleanup()

	if serverErr != nil {
		return serverErr
	}

	a.logger.Info("fire circle stopped")
	return nil
}
