// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package engine

import (
	"errors"
	"fmt"
)

// ErrSyncInProgress is returned when a sync request arrives while a rebuild
// is already running. Safe to retry once the running sync completes.
var ErrSyncInProgress = errors.New("sync already in progress")

// ErrSyncThrottled is returned when syncs arrive faster than the configured
// minimum interval.
var ErrSyncThrottled = errors.New("sync rate limit exceeded")

// NotFoundError reports a query for a product absent from the current
// snapshot. Sparse interaction data never produces this; only an unknown
// product ID does.
type NotFoundError struct {
	ProductID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("product %q not in snapshot", e.ProductID)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
