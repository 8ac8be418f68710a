// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/sagestudio/recommender/internal/catalog"
	"github.com/sagestudio/recommender/internal/engine"
)

// newTestRouter builds a router around a fresh engine, optionally pre-synced
// with a small catalog.
func newTestRouter(t *testing.T, synced bool) http.Handler {
	t.Helper()

	eng := engine.New(engine.Config{}, nil)
	if synced {
		body := syncPayload()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", bytes.NewReader(body))
		w := httptest.NewRecorder()
		r := NewRouter(NewHandler(eng, HandlerConfig{}), RouterConfig{})
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("seed sync failed: status %d, body %s", w.Code, w.Body.String())
		}
		return r
	}
	return NewRouter(NewHandler(eng, HandlerConfig{}), RouterConfig{})
}

// syncPayload builds a small catalog with overlapping text and a shared
// purchase history so every method has signal.
func syncPayload() []byte {
	now := time.Now().UTC().Format(time.RFC3339)
	return []byte(fmt.Sprintf(`{
		"products": [
			{"id": "p1", "name": "Trail Running Shoe", "category": "footwear", "brand": "acme", "price": 89.99},
			{"id": "p2", "name": "Road Running Shoe", "category": "footwear", "brand": "acme", "price": 99.99},
			{"id": "p3", "name": "Hiking Boot", "category": "footwear", "brand": "peak", "price": 129.99},
			{"id": "p4", "name": "Gaming Laptop", "category": "electronics", "brand": "volt", "price": 1499.00}
		],
		"interactions": [
			{"user_id": "u1", "product_id": "p1", "action": "purchase", "timestamp": %[1]q},
			{"user_id": "u1", "product_id": "p2", "action": "view", "timestamp": %[1]q},
			{"user_id": "u2", "product_id": "p1", "action": "click", "timestamp": %[1]q},
			{"user_id": "u2", "product_id": "p2", "action": "purchase", "timestamp": %[1]q}
		]
	}`, now))
}

// doJSON performs a request and decodes the envelope.
func doJSON(t *testing.T, r http.Handler, method, path string, body []byte) (int, map[string]interface{}) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var envelope map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("response is not valid JSON: %v (body %s)", err, w.Body.String())
	}
	return w.Code, envelope
}

func errorCode(t *testing.T, envelope map[string]interface{}) string {
	t.Helper()
	errObj, ok := envelope["error"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected error object in envelope: %v", envelope)
	}
	code, _ := errObj["code"].(string)
	return code
}

func TestSyncAccepted(t *testing.T) {
	r := newTestRouter(t, false)

	status, envelope := doJSON(t, r, http.MethodPost, "/api/v1/sync", syncPayload())
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, envelope)
	}
	if envelope["status"] != "success" {
		t.Errorf("expected success envelope, got %v", envelope["status"])
	}

	data := envelope["data"].(map[string]interface{})
	if data["products_indexed"].(float64) != 4 {
		t.Errorf("expected 4 products indexed, got %v", data["products_indexed"])
	}
	if data["interactions_indexed"].(float64) != 4 {
		t.Errorf("expected 4 interactions indexed, got %v", data["interactions_indexed"])
	}
}

func TestSyncRejectsInvalidPayloadAtomically(t *testing.T) {
	r := newTestRouter(t, true)

	bad := []byte(`{
		"products": [{"id": "x1", "name": "Thing", "price": 1.0}],
		"interactions": [{"user_id": "u1", "product_id": "x1", "action": "teleport"}]
	}`)
	status, envelope := doJSON(t, r, http.MethodPost, "/api/v1/sync", bad)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", status, envelope)
	}
	if code := errorCode(t, envelope); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}

	// Prior snapshot still served.
	status, envelope = doJSON(t, r, http.MethodGet, "/api/v1/status", nil)
	if status != http.StatusOK {
		t.Fatalf("status endpoint failed: %d", status)
	}
	data := envelope["data"].(map[string]interface{})
	if data["products"].(float64) != 4 {
		t.Errorf("rejected sync must not disturb the served snapshot, got %v products", data["products"])
	}
}

func TestSyncMalformedJSON(t *testing.T) {
	r := newTestRouter(t, false)

	status, envelope := doJSON(t, r, http.MethodPost, "/api/v1/sync", []byte(`{"products": [`))
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", status)
	}
	if code := errorCode(t, envelope); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

func TestRecommendItemAlignedArrays(t *testing.T) {
	r := newTestRouter(t, true)

	status, envelope := doJSON(t, r, http.MethodGet, "/api/v1/recommend/item/p1?top_n=3", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, envelope)
	}

	data := envelope["data"].(map[string]interface{})
	ids := data["recommended_ids"].([]interface{})
	scores := data["scores"].([]interface{})
	if len(ids) != len(scores) {
		t.Fatalf("recommended_ids and scores must align: %d vs %d", len(ids), len(scores))
	}
	if len(ids) == 0 {
		t.Fatal("expected at least one recommendation for p1")
	}
	if int(data["count"].(float64)) != len(ids) {
		t.Errorf("count %v does not match ids length %d", data["count"], len(ids))
	}
	for _, id := range ids {
		if id.(string) == "p1" {
			t.Error("seed product must not recommend itself")
		}
	}
	for i := 1; i < len(scores); i++ {
		if scores[i].(float64) > scores[i-1].(float64) {
			t.Errorf("scores must be non-increasing: %v", scores)
		}
	}
}

func TestRecommendItemUnknownProduct(t *testing.T) {
	r := newTestRouter(t, true)

	status, envelope := doJSON(t, r, http.MethodGet, "/api/v1/recommend/item/p404", nil)
	if status != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %v", status, envelope)
	}
	if code := errorCode(t, envelope); code != "NOT_FOUND" {
		t.Errorf("expected NOT_FOUND, got %s", code)
	}
}

func TestRecommendItemInvalidMethod(t *testing.T) {
	r := newTestRouter(t, true)

	status, envelope := doJSON(t, r, http.MethodGet, "/api/v1/recommend/item/p1?method=psychic", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", status, envelope)
	}
	if code := errorCode(t, envelope); code != "VALIDATION_ERROR" {
		t.Errorf("expected VALIDATION_ERROR, got %s", code)
	}
}

func TestRecommendUserUnknownIsEmpty(t *testing.T) {
	r := newTestRouter(t, true)

	status, envelope := doJSON(t, r, http.MethodGet, "/api/v1/recommend/user/ghost", nil)
	if status != http.StatusOK {
		t.Fatalf("unknown users degrade to empty results, got %d: %v", status, envelope)
	}
	data := envelope["data"].(map[string]interface{})
	if int(data["count"].(float64)) != 0 {
		t.Errorf("expected empty result for unknown user, got %v", data)
	}
}

func TestRecommendUserKnown(t *testing.T) {
	r := newTestRouter(t, true)

	status, envelope := doJSON(t, r, http.MethodGet, "/api/v1/recommend/user/u1", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, envelope)
	}
	data := envelope["data"].(map[string]interface{})
	for _, id := range data["recommended_ids"].([]interface{}) {
		if id == "p1" || id == "p2" {
			t.Errorf("products the user already interacted with must be excluded, got %v", id)
		}
	}
}

func TestEvaluateSparseDataZeroed(t *testing.T) {
	r := newTestRouter(t, true)

	// Four interactions split over two users is below the evaluability floor.
	status, envelope := doJSON(t, r, http.MethodGet, "/api/v1/evaluate?k=5", nil)
	if status != http.StatusOK {
		t.Fatalf("sparse data must not error, got %d: %v", status, envelope)
	}
	data := envelope["data"].(map[string]interface{})
	if data["users_evaluated"].(float64) != 0 {
		t.Errorf("expected 0 users evaluated, got %v", data["users_evaluated"])
	}
	if data["precision_at_k"].(float64) != 0 {
		t.Errorf("expected zeroed precision, got %v", data["precision_at_k"])
	}
}

func TestCTRMetrics(t *testing.T) {
	r := newTestRouter(t, true)

	status, envelope := doJSON(t, r, http.MethodGet, "/api/v1/metrics/ctr?window_days=7", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d: %v", status, envelope)
	}
	data := envelope["data"].(map[string]interface{})
	if data["window_days"].(float64) != 7 {
		t.Errorf("expected window_days 7, got %v", data["window_days"])
	}
	// Payload has 1 view and 3 click-class interactions inside the window.
	if data["views"].(float64) != 1 {
		t.Errorf("expected 1 view, got %v", data["views"])
	}
	if data["clicks"].(float64) != 3 {
		t.Errorf("expected 3 clicks, got %v", data["clicks"])
	}
}

func TestCTRMetricsInvalidWindow(t *testing.T) {
	r := newTestRouter(t, true)

	status, envelope := doJSON(t, r, http.MethodGet, "/api/v1/metrics/ctr?window_days=-1", nil)
	if status != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %v", status, envelope)
	}
}

func TestNonNumericQueryParamsRejected(t *testing.T) {
	r := newTestRouter(t, true)

	tests := []struct {
		name string
		path string
	}{
		{"recommend item top_n", "/api/v1/recommend/item/p1?top_n=lots"},
		{"recommend user top_n", "/api/v1/recommend/user/u1?top_n=many"},
		{"evaluate k", "/api/v1/evaluate?k=ten"},
		{"ctr window_days", "/api/v1/metrics/ctr?window_days=week"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, envelope := doJSON(t, r, http.MethodGet, tt.path, nil)
			if status != http.StatusBadRequest {
				t.Fatalf("expected 400 for %s, got %d: %v", tt.path, status, envelope)
			}
			if code := errorCode(t, envelope); code != "VALIDATION_ERROR" {
				t.Errorf("expected VALIDATION_ERROR, got %s", code)
			}
		})
	}
}

func TestEngineErrorStatusMapping(t *testing.T) {
	h := NewHandler(engine.New(engine.Config{}, nil), HandlerConfig{})

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"sync in progress", engine.ErrSyncInProgress, http.StatusConflict, "SYNC_IN_PROGRESS"},
		{"sync throttled", engine.ErrSyncThrottled, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"unknown product", &engine.NotFoundError{ProductID: "x"}, http.StatusNotFound, "NOT_FOUND"},
		{"invalid payload", &catalog.ValidationError{Reason: "bad"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"timeout", context.DeadlineExceeded, http.StatusGatewayTimeout, "TIMEOUT"},
		{"internal", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/sync", nil)
			w := httptest.NewRecorder()
			h.respondEngineError(w, req, tt.err)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var envelope map[string]interface{}
			if err := json.Unmarshal(w.Body.Bytes(), &envelope); err != nil {
				t.Fatalf("response is not valid JSON: %v", err)
			}
			if code := errorCode(t, envelope); code != tt.wantCode {
				t.Errorf("error code = %s, want %s", code, tt.wantCode)
			}
		})
	}
}

func TestStatusAndHealth(t *testing.T) {
	cold := newTestRouter(t, false)

	status, envelope := doJSON(t, cold, http.MethodGet, "/api/v1/status", nil)
	if status != http.StatusOK {
		t.Fatalf("expected 200, got %d", status)
	}
	data := envelope["data"].(map[string]interface{})
	if data["ready"].(bool) {
		t.Error("cold engine must not report ready")
	}

	status, envelope = doJSON(t, cold, http.MethodGet, "/health", nil)
	if status != http.StatusOK {
		t.Fatalf("health must be 200, got %d", status)
	}
	health := envelope["data"].(map[string]interface{})
	if !health["healthy"].(bool) {
		t.Error("process health must be true while serving")
	}
}

func TestRequestIDPropagated(t *testing.T) {
	r := newTestRouter(t, true)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set("X-Request-ID", "test-req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "test-req-42" {
		t.Errorf("expected upstream request ID echoed, got %q", got)
	}
}
