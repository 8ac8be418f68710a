// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package catalog

import (
	"fmt"
)

// ValidationError reports a sync payload that cannot be admitted. The whole
// sync is rejected; the prior snapshot stays in place.
type ValidationError struct {
	// Reason describes the first offending record.
	Reason string
}

func (e *ValidationError) Error() string {
	return "invalid sync payload: " + e.Reason
}

// Validate checks a sync payload before snapshot admission. It fails on the
// first product missing an identifier, the first interaction missing a
// product reference, and the first interaction with an action outside the
// enumerated kinds. Negative prices are rejected as well since the catalog
// contract declares price non-negative.
func Validate(products []Product, interactions []Interaction) error {
	for i, p := range products {
		if p.ID == "" {
			return &ValidationError{Reason: fmt.Sprintf("product at position %d has no id", i)}
		}
		if p.Price < 0 {
			return &ValidationError{Reason: fmt.Sprintf("product %q has negative price", p.ID)}
		}
	}

	for i, in := range interactions {
		if in.ProductID == "" {
			return &ValidationError{Reason: fmt.Sprintf("interaction at position %d has no product_id", i)}
		}
		if !in.Action.Valid() {
			return &ValidationError{
				Reason: fmt.Sprintf("interaction at position %d has unknown action %q", i, in.Action),
			}
		}
	}

	return nil
}
