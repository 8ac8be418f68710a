// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValidates(t *testing.T) {
	cfg := defaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config failed validation: %v", err)
	}
	if cfg.Engine.ContentWeight != 0.7 || cfg.Engine.CollabWeight != 0.3 {
		t.Errorf("unexpected hybrid weights: %v / %v", cfg.Engine.ContentWeight, cfg.Engine.CollabWeight)
	}
	if cfg.Engine.CTRWindowDays != 7 {
		t.Errorf("expected 7-day CTR window, got %d", cfg.Engine.CTRWindowDays)
	}
}

func TestValidateRejectsBadConfigs(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 0 },
		},
		{
			name:   "negative content weight",
			mutate: func(c *Config) { c.Engine.ContentWeight = -0.1 },
		},
		{
			name: "both weights zero",
			mutate: func(c *Config) {
				c.Engine.ContentWeight = 0
				c.Engine.CollabWeight = 0
			},
		},
		{
			name: "default top_n above max",
			mutate: func(c *Config) {
				c.Engine.DefaultTopN = 200
				c.Engine.MaxTopN = 100
			},
		},
		{
			name:   "test fraction too large",
			mutate: func(c *Config) { c.Evaluation.TestFraction = 1.0 },
		},
		{
			name: "store enabled without path",
			mutate: func(c *Config) {
				c.Store.Enabled = true
				c.Store.Path = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error, got nil")
			}
		})
	}
}

func TestLoadWithKoanfEnvOverrides(t *testing.T) {
	t.Setenv("RECO_SERVER_PORT", "9100")
	t.Setenv("RECO_ENGINE_CONTENT_WEIGHT", "0.6")
	t.Setenv("RECO_ENGINE_COLLAB_WEIGHT", "0.4")
	t.Setenv("RECO_SECURITY_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("RECO_STORE_ENABLED", "false")

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf failed: %v", err)
	}

	if cfg.Server.Port != 9100 {
		t.Errorf("expected port 9100, got %d", cfg.Server.Port)
	}
	if cfg.Engine.ContentWeight != 0.6 || cfg.Engine.CollabWeight != 0.4 {
		t.Errorf("env weights not applied: %v / %v", cfg.Engine.ContentWeight, cfg.Engine.CollabWeight)
	}
	if len(cfg.Security.CORSOrigins) != 2 || cfg.Security.CORSOrigins[0] != "https://a.example" {
		t.Errorf("cors origins not split from env: %v", cfg.Security.CORSOrigins)
	}
	if cfg.Store.Enabled {
		t.Error("expected store disabled via env")
	}
	// Untouched fields keep defaults.
	if cfg.Evaluation.MinInteractions != 5 {
		t.Errorf("expected default min_interactions 5, got %d", cfg.Evaluation.MinInteractions)
	}
}

func TestLoadWithKoanfConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 8700
engine:
  default_top_n: 20
  min_sync_interval: 30s
security:
  cors_origins:
    - https://shop.example
`)
	if err := os.WriteFile(path, content, 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := LoadWithKoanf()
	if err != nil {
		t.Fatalf("LoadWithKoanf failed: %v", err)
	}

	if cfg.Server.Port != 8700 {
		t.Errorf("expected port 8700 from file, got %d", cfg.Server.Port)
	}
	if cfg.Engine.DefaultTopN != 20 {
		t.Errorf("expected default_top_n 20, got %d", cfg.Engine.DefaultTopN)
	}
	if cfg.Engine.MinSyncInterval != 30*time.Second {
		t.Errorf("expected min_sync_interval 30s, got %v", cfg.Engine.MinSyncInterval)
	}
	if len(cfg.Security.CORSOrigins) != 1 || cfg.Security.CORSOrigins[0] != "https://shop.example" {
		t.Errorf("yaml cors origins not preserved: %v", cfg.Security.CORSOrigins)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"RECO_SERVER_PORT", "server.port"},
		{"RECO_ENGINE_CONTENT_WEIGHT", "engine.content_weight"},
		{"RECO_EVALUATION_TEST_FRACTION", "evaluation.test_fraction"},
		{"RECO_STORE_GC_INTERVAL", "store.gc_interval"},
		{"RECO_LOGGING_LEVEL", "logging.level"},
		{"PATH", ""},
		{"RECO_UNKNOWN_THING", ""},
	}

	for _, tt := range tests {
		if got := envTransformFunc(tt.in); got != tt.want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
