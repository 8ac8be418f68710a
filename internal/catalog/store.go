// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package catalog

import (
	"sync/atomic"
)

// Store owns the current snapshot behind a single atomically swapped
// reference. Readers observe either the old or the new snapshot in full,
// never a mix.
type Store struct {
	current atomic.Pointer[Snapshot]
}

// NewStore creates an empty store. Current() returns an empty snapshot until
// the first Replace.
func NewStore() *Store {
	s := &Store{}
	s.current.Store(NewSnapshot(nil, nil))
	return s
}

// Replace validates the payload and, if it is admissible, swaps in a freshly
// built snapshot. On validation failure the prior snapshot is untouched.
func (s *Store) Replace(products []Product, interactions []Interaction) (*Snapshot, error) {
	if err := Validate(products, interactions); err != nil {
		return nil, err
	}

	snap := NewSnapshot(products, interactions)
	s.current.Store(snap)
	return snap, nil
}

// Swap installs an already-built snapshot. Used by the engine, which
// validates and builds derived indexes before publishing, so readers never
// see a snapshot whose indexes are still being built.
func (s *Store) Swap(snap *Snapshot) {
	s.current.Store(snap)
}

// Current returns the snapshot being served. Never nil.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}
