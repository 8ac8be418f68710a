// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

// Command server runs the recommendation engine: it loads configuration,
// warm-starts from the persisted payload if one exists, and serves the HTTP
// API under a suture supervisor tree.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/sagestudio/recommender/internal/api"
	"github.com/sagestudio/recommender/internal/catalog"
	"github.com/sagestudio/recommender/internal/config"
	"github.com/sagestudio/recommender/internal/engine"
	"github.com/sagestudio/recommender/internal/engine/content"
	"github.com/sagestudio/recommender/internal/engine/evaluation"
	"github.com/sagestudio/recommender/internal/logging"
	"github.com/sagestudio/recommender/internal/supervisor"
)

func main() {
	if err := run(); err != nil {
		logging.Fatal().Err(err).Msg("Server exited with error")
	}
}

func run() error {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("addr", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)).
		Msg("Starting recommendation engine")

	var payloads *catalog.PayloadStore
	if cfg.Store.Enabled {
		payloads, err = catalog.OpenPayloadStore(cfg.Store.Path)
		if err != nil {
			// A broken payload store only costs the warm start.
			logging.Warn().Err(err).Str("path", cfg.Store.Path).Msg("Payload store unavailable, running without persistence")
			payloads = nil
		} else {
			defer func() {
				if err := payloads.Close(); err != nil {
					logging.Warn().Err(err).Msg("Failed to close payload store")
				}
			}()
		}
	}

	eng := engine.New(engine.Config{
		ContentWeight:       cfg.Engine.ContentWeight,
		CollabWeight:        cfg.Engine.CollabWeight,
		CandidateMultiplier: cfg.Engine.CandidateMultiplier,
		MaxPerCategory:      cfg.Engine.MaxPerCategory,
		CTRWindowDays:       cfg.Engine.CTRWindowDays,
		MinSyncInterval:     cfg.Engine.MinSyncInterval,
		Content: content.Config{
			CategoryBoost: cfg.Engine.CategoryBoost,
			BrandBoost:    cfg.Engine.BrandBoost,
		},
		Evaluation: evaluation.Config{
			MinInteractions: cfg.Evaluation.MinInteractions,
			TestFraction:    cfg.Evaluation.TestFraction,
		},
	}, payloads)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng.Restore(ctx)

	handler := api.NewHandler(eng, api.HandlerConfig{
		RecommendTimeout: cfg.Server.RecommendTimeout,
		EvaluateTimeout:  cfg.Server.EvaluateTimeout,
		SyncTimeout:      cfg.Server.SyncTimeout,
		DefaultTopN:      cfg.Engine.DefaultTopN,
		MaxTopN:          cfg.Engine.MaxTopN,
		DefaultK:         cfg.Evaluation.DefaultK,
	})
	router := api.NewRouter(handler, api.RouterConfig{
		CORSOrigins:     cfg.Security.CORSOrigins,
		RateLimitReqs:   cfg.Security.RateLimitReqs,
		RateLimitWindow: cfg.Security.RateLimitWindow,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.TreeConfig{
		ShutdownTimeout: cfg.Server.ShutdownTimeout,
	})
	tree.AddAPIService(supervisor.NewHTTPService(server, cfg.Server.ShutdownTimeout))
	if payloads != nil {
		tree.AddDataService(catalog.NewGCService(payloads, cfg.Store.GCInterval))
	}

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervisor: %w", err)
	}

	logging.Info().Msg("Shutdown complete")
	return nil
}
