// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package catalog

import (
	"context"
	"errors"
	"fmt"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/sagestudio/recommender/internal/logging"
)

// payloadKey is the single key under which the last accepted sync payload is
// stored. The store is a crash cache, not a system of record: a fresh sync
// always overwrites it.
var payloadKey = []byte("sync/payload")

// ErrNoPayload is returned by Load when no payload has been persisted yet.
var ErrNoPayload = errors.New("catalog: no persisted payload")

// storedPayload is the on-disk representation of a sync payload.
type storedPayload struct {
	Products     []Product     `json:"products"`
	Interactions []Interaction `json:"interactions"`
	SavedAt      time.Time     `json:"saved_at"`
}

// PayloadStore persists the last accepted sync payload to a local Badger
// database so a restart can warm-start instead of waiting for the next push.
type PayloadStore struct {
	db *badger.DB
}

// OpenPayloadStore opens (or creates) the Badger database at path.
func OpenPayloadStore(path string) (*PayloadStore, error) {
	opts := badger.DefaultOptions(path).
		WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open payload store: %w", err)
	}
	return &PayloadStore{db: db}, nil
}

// Save overwrites the persisted payload with the given records.
func (ps *PayloadStore) Save(products []Product, interactions []Interaction) error {
	data, err := json.Marshal(storedPayload{
		Products:     products,
		Interactions: interactions,
		SavedAt:      time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	err = ps.db.Update(func(txn *badger.Txn) error {
		return txn.Set(payloadKey, data)
	})
	if err != nil {
		return fmt.Errorf("persist payload: %w", err)
	}
	return nil
}

// Load returns the most recently persisted payload, or ErrNoPayload when the
// store is empty.
func (ps *PayloadStore) Load() ([]Product, []Interaction, error) {
	var stored storedPayload

	err := ps.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(payloadKey)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &stored)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil, ErrNoPayload
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load payload: %w", err)
	}

	return stored.Products, stored.Interactions, nil
}

// Close flushes and closes the underlying database.
func (ps *PayloadStore) Close() error {
	return ps.db.Close()
}

// GCService runs Badger value-log garbage collection on an interval.
// It implements suture.Service.
type GCService struct {
	store    *PayloadStore
	interval time.Duration
}

// NewGCService wraps a payload store in a supervised GC loop.
// A zero interval defaults to 10 minutes.
func NewGCService(store *PayloadStore, interval time.Duration) *GCService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &GCService{store: store, interval: interval}
}

// Serve runs the GC loop until the context is canceled.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			// ErrNoRewrite just means there was nothing worth collecting.
			err := g.store.db.RunValueLogGC(0.5)
			if err != nil && !errors.Is(err, badger.ErrNoRewrite) {
				logging.Warn().Err(err).Msg("Payload store GC failed")
			}
		}
	}
}

// String names the service in supervisor logs.
func (g *GCService) String() string {
	return "payload-store-gc"
}
