// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

// Package engine ties the catalog snapshot, the content similarity index and
// the collaborative scorer into one serving surface: sync rebuilds, ranked
// recommendation queries and offline evaluation.
package engine

import (
	"time"
)

// Method selects the ranking signal for an item recommendation query.
type Method string

// Supported recommendation methods.
const (
	MethodContent       Method = "content"
	MethodCollaborative Method = "collaborative"
	MethodHybrid        Method = "hybrid"
)

// ParseMethod maps a query-string value to a Method. Empty defaults to
// hybrid.
func ParseMethod(s string) (Method, bool) {
	switch Method(s) {
	case MethodContent, MethodCollaborative, MethodHybrid:
		return Method(s), true
	case "":
		return MethodHybrid, true
	default:
		return "", false
	}
}

// ScoredProduct is one entry of a ranked recommendation result. Scores are
// in [0, 1] and non-increasing across a result sequence.
type ScoredProduct struct {
	ProductID string  `json:"product_id"`
	Score     float64 `json:"score"`
}

// SyncSummary reports what an accepted sync indexed.
type SyncSummary struct {
	Products     int       `json:"products_indexed"`
	Interactions int       `json:"interactions_indexed"`
	Users        int       `json:"users_indexed"`
	SyncedAt     time.Time `json:"synced_at"`
}

// Status describes the snapshot and model currently being served.
type Status struct {
	Ready        bool      `json:"ready"`
	Products     int       `json:"products"`
	Interactions int       `json:"interactions"`
	Users        int       `json:"users"`
	LastSyncAt   time.Time `json:"last_sync_at,omitempty"`
}
