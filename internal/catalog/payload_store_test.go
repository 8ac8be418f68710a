// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package catalog

import (
	"errors"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *PayloadStore {
	t.Helper()
	ps, err := OpenPayloadStore(t.TempDir())
	if err != nil {
		t.Fatalf("open payload store: %v", err)
	}
	t.Cleanup(func() {
		if err := ps.Close(); err != nil {
			t.Errorf("close payload store: %v", err)
		}
	})
	return ps
}

func TestPayloadStoreRoundTrip(t *testing.T) {
	ps := openTestStore(t)

	products := []Product{
		{ID: "p1", Name: "Trail Shoe", Category: "footwear", Tags: []string{"running"}, Price: 89.99},
		{ID: "p2", Name: "Laptop", Category: "electronics", Price: 1200},
	}
	interactions := []Interaction{
		{UserID: "u1", ProductID: "p1", Action: ActionPurchase, Timestamp: time.Now().UTC().Truncate(time.Second)},
	}

	if err := ps.Save(products, interactions); err != nil {
		t.Fatalf("save: %v", err)
	}

	gotProducts, gotInteractions, err := ps.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(gotProducts) != 2 || gotProducts[0].ID != "p1" || gotProducts[1].Price != 1200 {
		t.Errorf("products did not round-trip: %+v", gotProducts)
	}
	if len(gotInteractions) != 1 || gotInteractions[0].Action != ActionPurchase {
		t.Errorf("interactions did not round-trip: %+v", gotInteractions)
	}
}

func TestPayloadStoreOverwrite(t *testing.T) {
	ps := openTestStore(t)

	if err := ps.Save([]Product{{ID: "old"}}, nil); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if err := ps.Save([]Product{{ID: "new"}}, nil); err != nil {
		t.Fatalf("second save: %v", err)
	}

	products, _, err := ps.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(products) != 1 || products[0].ID != "new" {
		t.Errorf("a fresh save must overwrite the prior payload, got %+v", products)
	}
}

func TestPayloadStoreEmpty(t *testing.T) {
	ps := openTestStore(t)

	_, _, err := ps.Load()
	if !errors.Is(err, ErrNoPayload) {
		t.Errorf("expected ErrNoPayload from an empty store, got %v", err)
	}
}
