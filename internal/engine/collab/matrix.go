// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

// Package collab derives "customers who interacted with X also interacted
// with Y" relationships from co-occurrence in the interaction log. It is
// independent of product text; the two signals meet only in the hybrid
// ranker.
package collab

import (
	"context"

	"github.com/sagestudio/recommender/internal/catalog"
)

// actionWeights maps each organic action to its accumulator contribution.
// reco_impression and reco_click are deliberately absent: they measure
// recommender performance, not organic interest, and feeding them back in
// would let the engine amplify its own output.
var actionWeights = map[catalog.Action]float64{
	catalog.ActionPurchase:  5,
	catalog.ActionAddToCart: 3,
	catalog.ActionClick:     2,
	catalog.ActionWishlist:  2,
	catalog.ActionView:      1,
}

// ActionWeight returns the collaborative weight of an action. Zero for
// recommendation-feedback actions and unknown kinds.
func ActionWeight(a catalog.Action) float64 {
	return actionWeights[a]
}

// Matrix is the sparse user-item interaction matrix for one snapshot.
// Immutable after Build.
type Matrix struct {
	// userWeights maps user -> product -> accumulated weight.
	userWeights map[string]map[string]float64

	// productUsers maps product -> users who interacted with it.
	productUsers map[string][]string
}

// Build accumulates the weighted matrix from a snapshot's interaction log.
// Anonymous interactions are skipped: a shared "anon" pseudo-user would
// co-occur with everything and drown the real signal.
func Build(ctx context.Context, snap *catalog.Snapshot) (*Matrix, error) {
	m := &Matrix{
		userWeights:  make(map[string]map[string]float64),
		productUsers: make(map[string][]string),
	}

	for i := range snap.Interactions {
		if i%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		in := &snap.Interactions[i]
		if in.Anonymous() {
			continue
		}
		w := ActionWeight(in.Action)
		if w == 0 {
			continue
		}

		products, seen := m.userWeights[in.UserID]
		if !seen {
			products = make(map[string]float64)
			m.userWeights[in.UserID] = products
		}
		if _, touched := products[in.ProductID]; !touched {
			m.productUsers[in.ProductID] = append(m.productUsers[in.ProductID], in.UserID)
		}
		products[in.ProductID] += w
	}

	return m, nil
}

// Similar accumulates, over all users who interacted with the query product,
// the weights of their other products, and normalizes by the maximum so the
// top score is 1. An empty map means insufficient data, never an error.
func (m *Matrix) Similar(productID string) map[string]float64 {
	scores := make(map[string]float64)

	for _, userID := range m.productUsers[productID] {
		for other, w := range m.userWeights[userID] {
			if other == productID {
				continue
			}
			scores[other] += w
		}
	}

	var max float64
	for _, s := range scores {
		if s > max {
			max = s
		}
	}
	if max > 0 {
		for id, s := range scores {
			scores[id] = s / max
		}
	}

	return scores
}

// UserWeights returns the accumulated product weights of one user, or nil
// for a user with no recorded organic interactions.
func (m *Matrix) UserWeights(userID string) map[string]float64 {
	return m.userWeights[userID]
}

// Users returns the number of distinct users in the matrix.
func (m *Matrix) Users() int {
	return len(m.userWeights)
}
