// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/go-chi/chi/v5"

	"github.com/sagestudio/recommender/internal/catalog"
	"github.com/sagestudio/recommender/internal/engine"
	"github.com/sagestudio/recommender/internal/middleware"
	"github.com/sagestudio/recommender/internal/models"
)

// HandlerConfig bounds the handlers' per-request behavior.
type HandlerConfig struct {
	RecommendTimeout time.Duration
	EvaluateTimeout  time.Duration
	SyncTimeout      time.Duration
	DefaultTopN      int
	MaxTopN          int
	DefaultK         int
}

func (c HandlerConfig) withDefaults() HandlerConfig {
	if c.RecommendTimeout <= 0 {
		c.RecommendTimeout = 5 * time.Second
	}
	if c.EvaluateTimeout <= 0 {
		c.EvaluateTimeout = 10 * time.Second
	}
	if c.SyncTimeout <= 0 {
		c.SyncTimeout = 60 * time.Second
	}
	if c.DefaultTopN <= 0 {
		c.DefaultTopN = 10
	}
	if c.MaxTopN <= 0 {
		c.MaxTopN = 100
	}
	if c.DefaultK <= 0 {
		c.DefaultK = 10
	}
	return c
}

// Handler serves the recommendation API against one engine.
type Handler struct {
	engine *engine.Engine
	cfg    HandlerConfig
}

// NewHandler creates the API handler.
func NewHandler(eng *engine.Engine, cfg HandlerConfig) *Handler {
	return &Handler{engine: eng, cfg: cfg.withDefaults()}
}

// Sync handles POST /api/v1/sync. The payload replaces the entire snapshot
// or is rejected as a whole.
func (h *Handler) Sync(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Malformed JSON payload", err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.SyncTimeout)
	defer cancel()

	products, interactions := req.toCatalog()
	summary, err := h.engine.Sync(ctx, products, interactions)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   summary,
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
	})
}

// RecommendItem handles GET /api/v1/recommend/item/{id}. Query parameters:
// top_n (default 10) and method (content, collaborative or hybrid).
func (h *Handler) RecommendItem(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")

	topN, err := getIntParam(r, "top_n", h.cfg.DefaultTopN)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	q := RecommendQuery{
		TopN:   topN,
		Method: r.URL.Query().Get("method"),
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if q.TopN > h.cfg.MaxTopN {
		q.TopN = h.cfg.MaxTopN
	}
	method, _ := engine.ParseMethod(q.Method)

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RecommendTimeout)
	defer cancel()

	start := time.Now()
	ranked, err := h.engine.RecommendItem(ctx, productID, method, q.TopN)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   newRecommendationData(productID, string(method), ranked),
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			RequestID:   middleware.GetRequestID(r.Context()),
		},
	})
}

// RecommendUser handles GET /api/v1/recommend/user/{id}. Unknown users get
// an empty result, not an error.
func (h *Handler) RecommendUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	topN, err := getIntParam(r, "top_n", h.cfg.DefaultTopN)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	q := RecommendQuery{TopN: topN}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	if q.TopN > h.cfg.MaxTopN {
		q.TopN = h.cfg.MaxTopN
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.RecommendTimeout)
	defer cancel()

	start := time.Now()
	ranked, err := h.engine.RecommendUser(ctx, userID, q.TopN)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   newRecommendationData(userID, "user", ranked),
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			RequestID:   middleware.GetRequestID(r.Context()),
		},
	})
}

// Evaluate handles GET /api/v1/evaluate. Query parameters: k (default 10)
// and method.
func (h *Handler) Evaluate(w http.ResponseWriter, r *http.Request) {
	k, err := getIntParam(r, "k", h.cfg.DefaultK)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	q := EvaluateQuery{
		K:      k,
		Method: r.URL.Query().Get("method"),
	}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}
	method, _ := engine.ParseMethod(q.Method)

	ctx, cancel := context.WithTimeout(r.Context(), h.cfg.EvaluateTimeout)
	defer cancel()

	start := time.Now()
	result, err := h.engine.Evaluate(ctx, q.K, method)
	if err != nil {
		h.respondEngineError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   result,
		Metadata: models.Metadata{
			Timestamp:   time.Now(),
			QueryTimeMS: time.Since(start).Milliseconds(),
			RequestID:   middleware.GetRequestID(r.Context()),
		},
	})
}

// CTRMetrics handles GET /api/v1/metrics/ctr. Query parameter: window_days
// (default 7).
func (h *Handler) CTRMetrics(w http.ResponseWriter, r *http.Request) {
	windowDays, err := getIntParam(r, "window_days", 7)
	if err != nil {
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
		return
	}
	q := CTRQuery{WindowDays: windowDays}
	if apiErr := validateRequest(&q); apiErr != nil {
		respondError(w, http.StatusBadRequest, apiErr.Code, apiErr.Message, nil)
		return
	}

	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   h.engine.CTR(q.WindowDays),
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
	})
}

// Status handles GET /api/v1/status.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data:   h.engine.Status(),
		Metadata: models.Metadata{
			Timestamp: time.Now(),
			RequestID: middleware.GetRequestID(r.Context()),
		},
	})
}

// Health handles GET /health. Always 200 while the process serves; readiness
// lives in the status payload.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.engine.Status()
	respondJSON(w, http.StatusOK, &models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"healthy": true,
			"ready":   status.Ready,
		},
		Metadata: models.Metadata{
			Timestamp: time.Now(),
		},
	})
}

// respondEngineError maps engine and catalog errors to API status codes.
func (h *Handler) respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	var valErr *catalog.ValidationError
	var notFound *engine.NotFoundError

	switch {
	case errors.As(err, &valErr):
		respondError(w, http.StatusBadRequest, "VALIDATION_ERROR", valErr.Error(), nil)
	case errors.As(err, &notFound):
		respondError(w, http.StatusNotFound, "NOT_FOUND", notFound.Error(), nil)
	case errors.Is(err, engine.ErrSyncInProgress):
		respondError(w, http.StatusConflict, "SYNC_IN_PROGRESS", "A sync is already running, retry later", nil)
	case errors.Is(err, engine.ErrSyncThrottled):
		respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Syncs are arriving too fast, retry later", nil)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(r.Context().Err(), context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "TIMEOUT", "Request timed out", err)
	default:
		respondError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", err)
	}
}

// recommendationData is the wire shape of a ranked result: IDs and scores as
// aligned arrays, scores non-increasing.
type recommendationData struct {
	Seed           string    `json:"seed"`
	Method         string    `json:"method"`
	RecommendedIDs []string  `json:"recommended_ids"`
	Scores         []float64 `json:"scores"`
	Count          int       `json:"count"`
}

func newRecommendationData(seed, method string, ranked []engine.ScoredProduct) recommendationData {
	ids := make([]string, len(ranked))
	scores := make([]float64, len(ranked))
	for i, sp := range ranked {
		ids[i] = sp.ProductID
		scores[i] = sp.Score
	}
	return recommendationData{
		Seed:           seed,
		Method:         method,
		RecommendedIDs: ids,
		Scores:         scores,
		Count:          len(ranked),
	}
}
