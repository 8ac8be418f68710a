// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package api

import (
	"time"

	"github.com/sagestudio/recommender/internal/catalog"
)

// SyncProduct is one catalog record in a sync payload.
type SyncProduct struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Tags        []string `json:"tags"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price"`
}

// SyncInteraction is one interaction log record in a sync payload.
type SyncInteraction struct {
	UserID    string            `json:"user_id"`
	ProductID string            `json:"product_id"`
	Action    string            `json:"action"`
	Timestamp time.Time         `json:"timestamp"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// SyncRequest is the full-replacement payload pushed by the storefront
// backend. Record-level admission rules live in the catalog package, which
// rejects the payload as a whole on the first violation.
type SyncRequest struct {
	Products     []SyncProduct     `json:"products"`
	Interactions []SyncInteraction `json:"interactions"`
}

// toCatalog converts the wire payload into catalog records.
func (req *SyncRequest) toCatalog() ([]catalog.Product, []catalog.Interaction) {
	products := make([]catalog.Product, len(req.Products))
	for i, p := range req.Products {
		products[i] = catalog.Product{
			ID:          p.ID,
			Name:        p.Name,
			Description: p.Description,
			Category:    p.Category,
			Tags:        p.Tags,
			Brand:       p.Brand,
			Price:       p.Price,
		}
	}

	interactions := make([]catalog.Interaction, len(req.Interactions))
	for i, in := range req.Interactions {
		interactions[i] = catalog.Interaction{
			UserID:    in.UserID,
			ProductID: in.ProductID,
			Action:    catalog.Action(in.Action),
			Timestamp: in.Timestamp,
			Metadata:  in.Metadata,
		}
	}

	return products, interactions
}

// RecommendQuery carries the validated query parameters of a recommendation
// request.
type RecommendQuery struct {
	TopN   int    `validate:"gte=1"`
	Method string `validate:"omitempty,oneof=content collaborative hybrid"`
}

// EvaluateQuery carries the validated query parameters of an evaluation run.
type EvaluateQuery struct {
	K      int    `validate:"gte=1,lte=100"`
	Method string `validate:"omitempty,oneof=content collaborative hybrid"`
}

// CTRQuery carries the validated query parameters of a CTR lookup.
type CTRQuery struct {
	WindowDays int `validate:"gte=1,lte=365"`
}
