// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

// Package models defines the shared API response envelope used by every
// HTTP endpoint of the engine.
package models

import (
	"time"
)

// APIResponse is the standardized response wrapper for all endpoints.
//
// Status is "success" or "error". Data carries the payload on success;
// Error carries structured details on failure.
//
// Example successful response:
//
//	{
//	  "status": "success",
//	  "data": {"recommended_ids": ["p2", "p9"], "scores": [0.91, 0.64]},
//	  "metadata": {"timestamp": "2026-08-28T12:00:00Z", "query_time_ms": 3}
//	}
//
// Example error response:
//
//	{
//	  "status": "error",
//	  "error": {"code": "NOT_FOUND", "message": "product \"p404\" not in snapshot"},
//	  "metadata": {"timestamp": "2026-08-28T12:00:00Z"}
//	}
type APIResponse struct {
	Status   string      `json:"status"`
	Data     interface{} `json:"data"`
	Metadata Metadata    `json:"metadata"`
	Error    *APIError   `json:"error,omitempty"`
}

// Metadata carries response metadata for observability.
type Metadata struct {
	Timestamp   time.Time `json:"timestamp"`
	QueryTimeMS int64     `json:"query_time_ms,omitempty"`
	RequestID   string    `json:"request_id,omitempty"`
}

// APIError is the structured error payload.
//
// Error codes used by the engine:
//   - VALIDATION_ERROR: malformed request or sync payload
//   - NOT_FOUND: productId absent from the current snapshot
//   - SYNC_IN_PROGRESS: a rebuild is already running, safe to retry
//   - RATE_LIMITED: sync pushed faster than the configured minimum interval
//   - INTERNAL_ERROR: any other unexpected failure
type APIError struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}
