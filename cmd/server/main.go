// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/tomtom215/wikirelated/internal/api"
	"github.com/tomtom215/wikirelated/internal/cache"
	"github.com/tomtom215/wikirelated/internal/config"
	"github.com/tomtom215/wikirelated/internal/database"
	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/related"
	"github.com/tomtom215/wikirelated/internal/supervisor"
	"github.com/tomtom215/wikirelated/internal/supervisor/services"
	"github.com/tomtom215/wikirelated/internal/vectorindex"
)

// articleStore is what the server needs from the metadata store: the
// pipeline's reads plus title samples for not-found responses.
type articleStore interface {
	related.MetadataStore
	api.TitleSampler
}

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
	logging.Info().Str("config", cfg.String()).Msg("Starting wikirelated")

	if err := run(cfg); err != nil {
		logging.Fatal().Err(err).Msg("Server stopped with error")
	}
	logging.Info().Msg("Server stopped")
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.New(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}()
	if n, err := db.CountArticles(ctx); err != nil {
		logging.Warn().Err(err).Msg("Could not count articles")
	} else {
		logging.Info().Int64("articles", n).Str("path", cfg.Database.Path).Msg("Database opened")
	}

	index, err := vectorindex.Open(ctx, cfg.Index)
	if err != nil {
		return fmt.Errorf("failed to open vector index: %w", err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing vector index")
		}
	}()
	logging.Info().Str("backend", index.Name()).Int("vectors", index.Count()).Msg("Vector index opened")
	if index.Count() == 0 {
		logging.Warn().Msg("Vector index is empty; readiness will report not ready until the loader has run")
	}

	var store articleStore = db
	if cfg.Database.Breaker.Enabled {
		store = database.NewBreakerStore(db, cfg.Database.Breaker)
	}

	pipeline, err := related.NewPipeline(cfg.Related.ToRelatedConfig(), store, index, logging.WithComponent("related"))
	if err != nil {
		return fmt.Errorf("invalid related-articles configuration: %w", err)
	}

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	if err != nil {
		return fmt.Errorf("failed to create supervisor tree: %w", err)
	}

	var finder api.RelatedFinder = pipeline
	if cfg.Cache.Enabled {
		results := cache.NewResultCache(pipeline, cfg.Cache.Capacity, cfg.Cache.TTL)
		tree.AddMaintenanceService(services.NewCacheJanitorService(results, cfg.Cache.TTL))
		finder = results
		logging.Info().Int("capacity", cfg.Cache.Capacity).Dur("ttl", cfg.Cache.TTL).Msg("Result cache enabled")
	}

	handler := api.NewHandler(api.HandlerDeps{
		Finder:         finder,
		Samples:        store,
		DB:             db,
		Index:          index,
		RequestTimeout: cfg.Server.RequestTimeout,
	})
	router := api.NewRouter(handler, api.NewChiMiddleware(api.NewChiMiddlewareConfig(&cfg.Security)))

	server := &http.Server{
		Handler:           router.SetupChi(),
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	tree.AddAPIService(services.NewHTTPServerService(server, cfg.Server.Addr(), cfg.Server.ShutdownTimeout))

	err = tree.Serve(ctx)
	if report, rerr := tree.UnstoppedServiceReport(); rerr == nil && len(report) > 0 {
		logging.Warn().Int("count", len(report)).Msg("Services did not stop within the shutdown timeout")
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
