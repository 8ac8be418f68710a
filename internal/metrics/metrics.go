// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

// Package metrics provides Prometheus instrumentation for the engine:
// sync rebuilds, recommendation serving, evaluation runs and the snapshot
// currently held in memory.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Sync metrics
	SyncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reco_sync_duration_seconds",
			Help:    "Duration of snapshot sync and index rebuilds in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60},
		},
	)

	SyncsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_syncs_total",
			Help: "Total number of sync attempts by outcome",
		},
		[]string{"outcome"}, // "accepted", "rejected", "in_progress", "throttled"
	)

	SyncLastSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reco_sync_last_success_timestamp",
			Help: "Unix timestamp of the last accepted sync",
		},
	)

	// Snapshot gauges
	SnapshotProducts = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reco_snapshot_products",
			Help: "Number of products in the snapshot being served",
		},
	)

	SnapshotInteractions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reco_snapshot_interactions",
			Help: "Number of interactions in the snapshot being served",
		},
	)

	// Recommendation serving metrics
	RecommendRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_recommend_requests_total",
			Help: "Total recommendation queries by method",
		},
		[]string{"method"}, // "content", "collaborative", "hybrid", "user"
	)

	RecommendEmptyResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_recommend_empty_results_total",
			Help: "Recommendation queries that returned no candidates",
		},
		[]string{"method"},
	)

	RecommendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reco_recommend_duration_seconds",
			Help:    "Recommendation query duration in seconds",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1},
		},
		[]string{"method"},
	)

	// Evaluation metrics
	EvaluationDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "reco_evaluation_duration_seconds",
			Help:    "Offline evaluation duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		},
	)

	EvaluationUsers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reco_evaluation_users",
			Help: "Number of users covered by the last offline evaluation",
		},
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reco_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "reco_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "endpoint"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "reco_api_active_requests",
			Help: "Current number of in-flight API requests",
		},
	)
)

// RecordSync records a sync attempt and, when accepted, the snapshot sizes.
func RecordSync(outcome string, duration time.Duration, products, interactions int) {
	SyncsTotal.WithLabelValues(outcome).Inc()
	if outcome != "accepted" {
		return
	}
	SyncDuration.Observe(duration.Seconds())
	SyncLastSuccess.Set(float64(time.Now().Unix()))
	SnapshotProducts.Set(float64(products))
	SnapshotInteractions.Set(float64(interactions))
}

// RecordRecommend records one served recommendation query.
func RecordRecommend(method string, duration time.Duration, results int) {
	RecommendRequests.WithLabelValues(method).Inc()
	RecommendDuration.WithLabelValues(method).Observe(duration.Seconds())
	if results == 0 {
		RecommendEmptyResults.WithLabelValues(method).Inc()
	}
}

// RecordEvaluation records an offline evaluation run.
func RecordEvaluation(duration time.Duration, users int) {
	EvaluationDuration.Observe(duration.Seconds())
	EvaluationUsers.Set(float64(users))
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, endpoint, statusCode string, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, statusCode).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// TrackActiveRequest tracks in-flight API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}
