// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

// Package evaluation computes offline ranking-quality metrics against a
// held-out split of the interaction log, plus the online click-through-rate
// counter.
//
// The split is per user and time-ordered: the most recent fraction of each
// user's positive interactions is held out, the rest is the known context the
// recommender sees. The recommender itself is injected as a function so the
// metrics stay independent of ranking internals.
package evaluation

import (
	"math"
	"sort"

	"github.com/sagestudio/recommender/internal/catalog"
)

// positiveActions are the interaction kinds that count as a positive signal
// for the offline split.
var positiveActions = map[catalog.Action]struct{}{
	catalog.ActionPurchase:  {},
	catalog.ActionAddToCart: {},
	catalog.ActionClick:     {},
}

// Config tunes the offline split. Zero values take documented defaults.
type Config struct {
	// MinInteractions is the minimum number of positive interactions a user
	// needs to be evaluable. Default: 5
	MinInteractions int

	// TestFraction is the share of each user's most recent positives held
	// out, at least one. Default: 0.2
	TestFraction float64
}

func (c Config) withDefaults() Config {
	if c.MinInteractions <= 0 {
		c.MinInteractions = 5
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		c.TestFraction = 0.2
	}
	return c
}

// Result aggregates ranking metrics across all evaluable users. All metrics
// are zero when UsersEvaluated is zero; too little data is not an error.
type Result struct {
	K              int     `json:"k"`
	UsersEvaluated int     `json:"users_evaluated"`
	Precision      float64 `json:"precision_at_k"`
	Recall         float64 `json:"recall_at_k"`
	NDCG           float64 `json:"ndcg_at_k"`
	HitRate        float64 `json:"hit_rate_at_k"`
	Coverage       float64 `json:"coverage_at_k"`
}

// RecommendFunc produces up to k recommended product IDs for a user given
// the time-ordered product IDs of their known (training) context. The
// recommender must not return products from the known context.
type RecommendFunc func(userID string, known []string, k int) []string

// Evaluate splits the snapshot's interaction log per user, asks the injected
// recommender for top-k lists and aggregates precision, recall, NDCG, hit
// rate and catalog coverage at k.
func Evaluate(snap *catalog.Snapshot, k int, cfg Config, recommend RecommendFunc) Result {
	cfg = cfg.withDefaults()
	result := Result{K: k}
	if k <= 0 || len(snap.Products) == 0 {
		return result
	}

	byUser := positivesByUser(snap)

	// Deterministic user order keeps repeated evaluations comparable.
	users := make([]string, 0, len(byUser))
	for u := range byUser {
		users = append(users, u)
	}
	sort.Strings(users)

	recommended := make(map[string]struct{})

	for _, userID := range users {
		rows := byUser[userID]
		if len(rows) < cfg.MinInteractions {
			continue
		}

		known, heldout := splitUser(rows, cfg.TestFraction)
		if len(heldout) == 0 {
			continue
		}

		recs := recommend(userID, known, k)
		if len(recs) > k {
			recs = recs[:k]
		}

		hits := 0
		dcg := 0.0
		for rank, id := range recs {
			recommended[id] = struct{}{}
			if _, held := heldout[id]; held {
				hits++
				dcg += 1 / math.Log2(float64(rank)+2)
			}
		}

		result.UsersEvaluated++
		result.Precision += float64(hits) / float64(k)
		result.Recall += float64(hits) / float64(len(heldout))
		result.NDCG += dcg / idealDCG(k, len(heldout))
		if hits > 0 {
			result.HitRate++
		}
	}

	if result.UsersEvaluated == 0 {
		return Result{K: k}
	}

	n := float64(result.UsersEvaluated)
	result.Precision /= n
	result.Recall /= n
	result.NDCG /= n
	result.HitRate /= n
	result.Coverage = float64(len(recommended)) / float64(len(snap.Products))
	return result
}

// positivesByUser collects each identified user's positive interactions in
// timestamp order. Rows referencing products absent from the snapshot are
// dropped: they can neither be recommended nor fairly held out.
func positivesByUser(snap *catalog.Snapshot) map[string][]catalog.Interaction {
	byUser := make(map[string][]catalog.Interaction)
	for i := range snap.Interactions {
		in := snap.Interactions[i]
		if in.Anonymous() {
			continue
		}
		if _, positive := positiveActions[in.Action]; !positive {
			continue
		}
		if !snap.Contains(in.ProductID) {
			continue
		}
		byUser[in.UserID] = append(byUser[in.UserID], in)
	}

	for u := range byUser {
		rows := byUser[u]
		sort.SliceStable(rows, func(a, b int) bool {
			return rows[a].Timestamp.Before(rows[b].Timestamp)
		})
	}
	return byUser
}

// splitUser partitions one user's time-ordered positives into the known
// context and the held-out set. The held-out share is the most recent
// fraction, at least one row. Products seen in the known context never count
// as held out, since the recommender excludes them by contract.
func splitUser(rows []catalog.Interaction, fraction float64) ([]string, map[string]struct{}) {
	nHeld := int(math.Ceil(fraction * float64(len(rows))))
	if nHeld < 1 {
		nHeld = 1
	}
	if nHeld >= len(rows) {
		nHeld = len(rows) - 1
	}
	cut := len(rows) - nHeld

	knownSet := make(map[string]struct{}, cut)
	known := make([]string, 0, cut)
	for _, in := range rows[:cut] {
		if _, dup := knownSet[in.ProductID]; dup {
			continue
		}
		knownSet[in.ProductID] = struct{}{}
		known = append(known, in.ProductID)
	}

	heldout := make(map[string]struct{}, nHeld)
	for _, in := range rows[cut:] {
		if _, inKnown := knownSet[in.ProductID]; inKnown {
			continue
		}
		heldout[in.ProductID] = struct{}{}
	}

	return known, heldout
}

// idealDCG is the best achievable DCG for k slots and h relevant items.
func idealDCG(k, h int) float64 {
	if h > k {
		h = k
	}
	ideal := 0.0
	for i := 0; i < h; i++ {
		ideal += 1 / math.Log2(float64(i)+2)
	}
	if ideal == 0 {
		return 1
	}
	return ideal
}
