// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

// Package config defines the engine's configuration tree and its layered
// loader: struct defaults, then an optional YAML file, then RECO_-prefixed
// environment variables.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the service.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Security   SecurityConfig   `koanf:"security"`
	Engine     EngineConfig     `koanf:"engine"`
	Evaluation EvaluationConfig `koanf:"evaluation"`
	Store      StoreConfig      `koanf:"store"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	// Host is the bind address. Default: 0.0.0.0
	Host string `koanf:"host"`

	// Port is the listen port. Default: 8600
	Port int `koanf:"port"`

	// ReadTimeout bounds request reads. Default: 30s
	ReadTimeout time.Duration `koanf:"read_timeout"`

	// WriteTimeout bounds response writes. Sync payloads can be large, so
	// this must cover a full rebuild. Default: 90s
	WriteTimeout time.Duration `koanf:"write_timeout"`

	// ShutdownTimeout bounds graceful shutdown. Default: 10s
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`

	// RecommendTimeout bounds a recommendation query. Default: 5s
	RecommendTimeout time.Duration `koanf:"recommend_timeout"`

	// EvaluateTimeout bounds an evaluation run. Default: 10s
	EvaluateTimeout time.Duration `koanf:"evaluate_timeout"`

	// SyncTimeout bounds a sync rebuild. Default: 60s
	SyncTimeout time.Duration `koanf:"sync_timeout"`
}

// LoggingConfig mirrors logging.Config.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// SecurityConfig holds rate limiting and CORS settings for the API.
type SecurityConfig struct {
	// RateLimitReqs is the per-IP request budget per window. Default: 300
	RateLimitReqs int `koanf:"rate_limit_reqs"`

	// RateLimitWindow is the rate limit window. Default: 1m
	RateLimitWindow time.Duration `koanf:"rate_limit_window"`

	// CORSOrigins lists allowed origins. Default: ["*"]
	CORSOrigins []string `koanf:"cors_origins"`
}

// EngineConfig tunes ranking behavior.
type EngineConfig struct {
	// ContentWeight and CollabWeight blend the hybrid score.
	// Defaults: 0.7 / 0.3
	ContentWeight float64 `koanf:"content_weight"`
	CollabWeight  float64 `koanf:"collab_weight"`

	// CandidateMultiplier sizes hybrid candidate pools as topN multiples.
	// Default: 2
	CandidateMultiplier int `koanf:"candidate_multiplier"`

	// DefaultTopN and MaxTopN bound the top_n query parameter.
	// Defaults: 10 / 100
	DefaultTopN int `koanf:"default_top_n"`
	MaxTopN     int `koanf:"max_top_n"`

	// MaxPerCategory caps per-category entries in personalized results.
	// Default: 3
	MaxPerCategory int `koanf:"max_per_category"`

	// CategoryBoost and BrandBoost are the content affinity multipliers.
	// Defaults: 1.15 / 1.08
	CategoryBoost float64 `koanf:"category_boost"`
	BrandBoost    float64 `koanf:"brand_boost"`

	// CTRWindowDays is the default trailing window for CTR. Default: 7
	CTRWindowDays int `koanf:"ctr_window_days"`

	// MinSyncInterval throttles sync admission. Zero disables.
	// Default: 0
	MinSyncInterval time.Duration `koanf:"min_sync_interval"`
}

// EvaluationConfig tunes the offline split.
type EvaluationConfig struct {
	// MinInteractions is the per-user evaluability floor. Default: 5
	MinInteractions int `koanf:"min_interactions"`

	// TestFraction is the held-out share per user. Default: 0.2
	TestFraction float64 `koanf:"test_fraction"`

	// DefaultK is the k used when the query omits it. Default: 10
	DefaultK int `koanf:"default_k"`
}

// StoreConfig holds warm-start persistence settings.
type StoreConfig struct {
	// Enabled toggles payload persistence. Default: true
	Enabled bool `koanf:"enabled"`

	// Path is the Badger directory. Default: /data/recommender
	Path string `koanf:"path"`

	// GCInterval is the Badger value-log GC cadence. Default: 10m
	GCInterval time.Duration `koanf:"gc_interval"`
}

// Validate rejects configurations that cannot serve.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be 1-65535, got %d", c.Server.Port)
	}
	if c.Engine.ContentWeight < 0 || c.Engine.CollabWeight < 0 {
		return fmt.Errorf("engine weights must be non-negative")
	}
	if c.Engine.ContentWeight+c.Engine.CollabWeight == 0 {
		return fmt.Errorf("engine weights must not both be zero")
	}
	if c.Engine.DefaultTopN < 1 || c.Engine.DefaultTopN > c.Engine.MaxTopN {
		return fmt.Errorf("engine.default_top_n must be in [1, max_top_n], got %d", c.Engine.DefaultTopN)
	}
	if c.Evaluation.TestFraction <= 0 || c.Evaluation.TestFraction >= 1 {
		return fmt.Errorf("evaluation.test_fraction must be in (0, 1), got %f", c.Evaluation.TestFraction)
	}
	if c.Store.Enabled && c.Store.Path == "" {
		return fmt.Errorf("store.path is required when store.enabled is true")
	}
	return nil
}
