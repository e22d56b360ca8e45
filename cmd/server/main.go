// Marquee - Media Aggregation and Personalized Discovery
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/marquee

package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tomtom215/marquee/internal/api"
	"github.com/tomtom215/marquee/internal/config"
	"github.com/tomtom215/marquee/internal/database"
	"github.com/tomtom215/marquee/internal/logging"
	"github.com/tomtom215/marquee/internal/supervisor"
	"github.com/tomtom215/marquee/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:     cfg.Logging.Level,
		Format:    cfg.Logging.Format,
		Caller:    cfg.Logging.Caller,
		Timestamp: true,
	})

	logging.Info().
		Str("driver", cfg.Database.Driver).
		Str("transport", cfg.Events.Transport).
		Str("assignment_lock", cfg.Experiments.AssignmentLock).
		Msg("Starting Marquee with supervisor tree")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.New(ctx, &cfg.Database)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	logging.Info().Msg("Database initialized successfully")

	app, err := newApp(ctx, cfg, db)
	if err != nil {
		// Fatal skips deferred calls.
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to initialize components")
	}
	defer app.Close()

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		_ = db.Close()
		logging.Fatal().Err(err).Msg("Failed to create supervisor tree")
	}

	// Data layer
	if cfg.Discovery.MoodRefreshInterval > 0 {
		tree.AddDataService(services.NewCapabilityRefreshService(
			app.filter.MoodCapability(),
			cfg.Discovery.MoodRefreshInterval,
			logging.Logger(),
		))
	}

	// Messaging layer
	if app.transport != nil {
		tree.AddMessagingService(services.NewFeedbackService(
			app.feedbackRunnerFactory(cfg),
			logging.Logger(),
		))
		logging.Info().Str("transport", cfg.Events.Transport).Msg("Feedback consumer added to supervisor tree")
	}

	// API layer
	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      api.NewRouter(db, api.RouterConfig{Timeout: cfg.Server.Timeout}),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.ShutdownTimeout))
	logging.Info().Str("addr", server.Addr).Msg("Admin HTTP service added")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree...")
	errCh := tree.ServeBackground(ctx)

	// ServeBackground delivers exactly one result and never closes.
	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish...")
		err = <-errCh
	case err = <-errCh:
		cancel()
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree error")
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	if len(unstopped) > 0 {
		logging.Warn().Int("count", len(unstopped)).Msg("Services failed to stop within timeout")
		for _, svc := range unstopped {
			logging.Warn().Str("service", svc.Name).Msg("Service failed to stop")
		}
	}

	logging.Info().Msg("Application stopped gracefully")
}
