// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

// Package catalog holds the synced snapshot of the storefront: the product
// catalog and the interaction log pushed by the backend.
//
// A snapshot is immutable once built. Sync replaces the whole snapshot
// atomically; readers take a reference once and complete their query against
// it even if a new sync lands mid-flight.
package catalog

import (
	"strings"
	"time"
)

// Action identifies the kind of a recorded interaction.
type Action string

// Interaction actions recorded by the storefront.
const (
	ActionView           Action = "view"
	ActionClick          Action = "click"
	ActionAddToCart      Action = "add_to_cart"
	ActionPurchase       Action = "purchase"
	ActionWishlist       Action = "wishlist"
	ActionRecoImpression Action = "reco_impression"
	ActionRecoClick      Action = "reco_click"
)

// validActions is the closed set of accepted interaction actions.
var validActions = map[Action]struct{}{
	ActionView:           {},
	ActionClick:          {},
	ActionAddToCart:      {},
	ActionPurchase:       {},
	ActionWishlist:       {},
	ActionRecoImpression: {},
	ActionRecoClick:      {},
}

// Valid reports whether a is one of the enumerated action kinds.
func (a Action) Valid() bool {
	_, ok := validActions[a]
	return ok
}

// Product is a read-only catalog record from the most recent sync.
type Product struct {
	ID          string
	Name        string
	Description string
	Category    string
	Tags        []string
	Brand       string
	Price       float64
}

// RecommendationText returns the composite text used as the unit of content
// similarity: name, description, category, tags and brand joined into one
// lowercased string.
func (p *Product) RecommendationText() string {
	parts := make([]string, 0, 4+len(p.Tags))
	parts = append(parts, p.Name, p.Description, p.Category)
	parts = append(parts, p.Tags...)
	parts = append(parts, p.Brand)

	joined := make([]string, 0, len(parts))
	for _, s := range parts {
		s = strings.TrimSpace(s)
		if s != "" {
			joined = append(joined, s)
		}
	}
	return strings.ToLower(strings.Join(joined, " "))
}

// Interaction is one append-only log record. UserID may be empty or "anon"
// for anonymous sessions; ProductID and Action are always present.
type Interaction struct {
	UserID    string
	ProductID string
	Action    Action
	Timestamp time.Time
	Metadata  map[string]string
}

// Anonymous reports whether the interaction has no usable user identity.
func (i *Interaction) Anonymous() bool {
	return i.UserID == "" || i.UserID == "anon"
}

// Snapshot is one complete synced copy of the catalog and interaction log.
// It is never mutated after construction.
type Snapshot struct {
	Products     []Product
	Interactions []Interaction

	// productIndex maps product ID to its position in Products. The position
	// doubles as the stable tie-break order for equal recommendation scores.
	productIndex map[string]int

	SyncedAt time.Time
}

// NewSnapshot builds an immutable snapshot from validated records.
// Callers must run Validate first; NewSnapshot does not re-check.
func NewSnapshot(products []Product, interactions []Interaction) *Snapshot {
	idx := make(map[string]int, len(products))
	for i, p := range products {
		// First occurrence wins so insertion order stays stable for duplicates.
		if _, ok := idx[p.ID]; !ok {
			idx[p.ID] = i
		}
	}
	return &Snapshot{
		Products:     products,
		Interactions: interactions,
		productIndex: idx,
		SyncedAt:     time.Now(),
	}
}

// Product returns the product with the given ID, if present.
func (s *Snapshot) Product(id string) (*Product, bool) {
	i, ok := s.productIndex[id]
	if !ok {
		return nil, false
	}
	return &s.Products[i], true
}

// Order returns the catalog insertion position of a product ID, used as the
// stable tie-break for equal scores. Unknown IDs sort last.
func (s *Snapshot) Order(id string) int {
	if i, ok := s.productIndex[id]; ok {
		return i
	}
	return len(s.Products)
}

// Contains reports whether the product ID exists in the snapshot.
func (s *Snapshot) Contains(id string) bool {
	_, ok := s.productIndex[id]
	return ok
}
