// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/sagestudio/recommender/internal/catalog"
	"github.com/sagestudio/recommender/internal/engine/collab"
	"github.com/sagestudio/recommender/internal/engine/content"
	"github.com/sagestudio/recommender/internal/engine/evaluation"
	"github.com/sagestudio/recommender/internal/logging"
	"github.com/sagestudio/recommender/internal/metrics"
)

// Config tunes the engine. Zero values take documented defaults.
type Config struct {
	// ContentWeight is the hybrid weight of the content score.
	// Default: 0.7
	ContentWeight float64

	// CollabWeight is the hybrid weight of the collaborative score.
	// Default: 0.3
	CollabWeight float64

	// CandidateMultiplier sizes the per-signal candidate pools for hybrid
	// merging: each signal contributes up to topN*CandidateMultiplier.
	// Default: 2
	CandidateMultiplier int

	// MaxPerCategory caps how many products of one category a personalized
	// user result may contain. Default: 3
	MaxPerCategory int

	// CTRWindowDays is the default trailing window for the CTR counter.
	// Default: 7
	CTRWindowDays int

	// MinSyncInterval throttles sync admission. Zero disables throttling.
	MinSyncInterval time.Duration

	// Content tunes the content similarity index.
	Content content.Config

	// Evaluation tunes the offline split.
	Evaluation evaluation.Config
}

func (c Config) withDefaults() Config {
	if c.ContentWeight <= 0 {
		c.ContentWeight = 0.7
	}
	if c.CollabWeight <= 0 {
		c.CollabWeight = 0.3
	}
	if c.CandidateMultiplier <= 0 {
		c.CandidateMultiplier = 2
	}
	if c.MaxPerCategory <= 0 {
		c.MaxPerCategory = 3
	}
	if c.CTRWindowDays <= 0 {
		c.CTRWindowDays = 7
	}
	return c
}

// model bundles one snapshot with the structures derived from it. Swapped as
// a unit so a query never mixes an old index with a new snapshot.
type model struct {
	snap    *catalog.Snapshot
	content *content.Index
	collab  *collab.Matrix
}

// Engine owns the current model and serves all recommendation and
// evaluation queries against it.
type Engine struct {
	cfg      Config
	store    *catalog.Store
	payloads *catalog.PayloadStore

	model atomic.Pointer[model]

	syncMu  sync.Mutex
	limiter *rate.Limiter

	logger zerolog.Logger
}

// New creates an engine serving an empty snapshot until the first sync.
// payloads may be nil to disable warm-start persistence.
func New(cfg Config, payloads *catalog.PayloadStore) *Engine {
	cfg = cfg.withDefaults()

	e := &Engine{
		cfg:      cfg,
		store:    catalog.NewStore(),
		payloads: payloads,
		logger:   logging.With().Str("component", "engine").Logger(),
	}
	if cfg.MinSyncInterval > 0 {
		e.limiter = rate.NewLimiter(rate.Every(cfg.MinSyncInterval), 1)
	}

	empty := e.store.Current()
	e.model.Store(&model{snap: empty, content: mustBuildContent(empty, cfg.Content), collab: mustBuildCollab(empty)})
	return e
}

// mustBuildContent builds a content index with a background context. Only
// used for the empty startup snapshot, which cannot fail or block.
func mustBuildContent(snap *catalog.Snapshot, cfg content.Config) *content.Index {
	ix, _ := content.Build(context.Background(), snap, cfg)
	return ix
}

func mustBuildCollab(snap *catalog.Snapshot) *collab.Matrix {
	m, _ := collab.Build(context.Background(), snap)
	return m
}

// Sync validates the pushed payload, rebuilds the snapshot and both derived
// structures, and atomically publishes them. Validation failure leaves the
// prior snapshot served. A sync arriving while another rebuild runs is
// rejected with ErrSyncInProgress; retrying the same payload later is safe.
func (e *Engine) Sync(ctx context.Context, products []catalog.Product, interactions []catalog.Interaction) (SyncSummary, error) {
	if e.limiter != nil && !e.limiter.Allow() {
		metrics.RecordSync("throttled", 0, 0, 0)
		return SyncSummary{}, ErrSyncThrottled
	}

	if !e.syncMu.TryLock() {
		metrics.RecordSync("in_progress", 0, 0, 0)
		return SyncSummary{}, ErrSyncInProgress
	}
	defer e.syncMu.Unlock()

	start := time.Now()

	m, err := e.buildModel(ctx, products, interactions)
	if err != nil {
		metrics.RecordSync("rejected", 0, 0, 0)
		return SyncSummary{}, err
	}

	e.store.Swap(m.snap)
	e.model.Store(m)

	if e.payloads != nil {
		// Persistence failure only costs the warm start, never the sync.
		if err := e.payloads.Save(products, interactions); err != nil {
			e.logger.Warn().Err(err).Msg("Failed to persist sync payload")
		}
	}

	summary := SyncSummary{
		Products:     len(m.snap.Products),
		Interactions: len(m.snap.Interactions),
		Users:        m.collab.Users(),
		SyncedAt:     m.snap.SyncedAt,
	}

	metrics.RecordSync("accepted", time.Since(start), summary.Products, summary.Interactions)
	e.logger.Info().
		Int("products", summary.Products).
		Int("interactions", summary.Interactions).
		Int("users", summary.Users).
		Dur("took", time.Since(start)).
		Msg("Snapshot replaced")

	return summary, nil
}

// buildModel validates and constructs a complete model without publishing it.
func (e *Engine) buildModel(ctx context.Context, products []catalog.Product, interactions []catalog.Interaction) (*model, error) {
	if err := catalog.Validate(products, interactions); err != nil {
		return nil, err
	}
	snap := catalog.NewSnapshot(products, interactions)

	cix, err := content.Build(ctx, snap, e.cfg.Content)
	if err != nil {
		return nil, err
	}
	mat, err := collab.Build(ctx, snap)
	if err != nil {
		return nil, err
	}

	return &model{snap: snap, content: cix, collab: mat}, nil
}

// Restore rebuilds the model from the persisted payload, if any. Called at
// startup; a missing or unreadable payload is logged and ignored so the
// engine simply starts cold.
func (e *Engine) Restore(ctx context.Context) {
	if e.payloads == nil {
		return
	}

	products, interactions, err := e.payloads.Load()
	if err != nil {
		if !errors.Is(err, catalog.ErrNoPayload) {
			e.logger.Warn().Err(err).Msg("Failed to load persisted payload, starting cold")
		}
		return
	}

	m, err := e.buildModel(ctx, products, interactions)
	if err != nil {
		e.logger.Warn().Err(err).Msg("Persisted payload no longer admissible, starting cold")
		return
	}

	e.store.Swap(m.snap)
	e.model.Store(m)
	metrics.RecordSync("accepted", 0, len(m.snap.Products), len(m.snap.Interactions))
	e.logger.Info().
		Int("products", len(m.snap.Products)).
		Int("interactions", len(m.snap.Interactions)).
		Msg("Warm-started from persisted payload")
}

// RecommendItem returns up to topN products ranked against the query
// product using the given method. Unknown product IDs fail with
// NotFoundError; sparse interaction data degrades to fewer or empty
// results, never an error.
func (e *Engine) RecommendItem(ctx context.Context, productID string, method Method, topN int) ([]ScoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	m := e.model.Load()
	if !m.snap.Contains(productID) {
		return nil, &NotFoundError{ProductID: productID}
	}

	result := e.rankItem(m, productID, method, topN, nil)
	metrics.RecordRecommend(string(method), time.Since(start), len(result))
	return result, nil
}

// rankItem produces the ranked result for one seed product. exclude drops
// candidates before truncation (used by the offline evaluation, which must
// not recommend a user's known context back).
func (e *Engine) rankItem(m *model, productID string, method Method, topN int, exclude map[string]struct{}) []ScoredProduct {
	switch method {
	case MethodContent:
		scores, _ := m.content.Similar(productID)
		return rank(scores, topN, m.snap, exclude)

	case MethodCollaborative:
		return rank(m.collab.Similar(productID), topN, m.snap, exclude)

	default: // MethodHybrid
		pool := topN * e.cfg.CandidateMultiplier

		collabPool := rank(m.collab.Similar(productID), pool, m.snap, exclude)
		contentScores, _ := m.content.Similar(productID)
		if len(collabPool) == 0 {
			// Cold-start product: degrade to the pure content ranking with
			// identical scores rather than zeroing everything out.
			return rank(contentScores, topN, m.snap, exclude)
		}
		contentPool := rank(contentScores, pool, m.snap, exclude)

		merged := make(map[string]float64, len(contentPool)+len(collabPool))
		for _, sp := range contentPool {
			merged[sp.ProductID] += sp.Score * e.cfg.ContentWeight
		}
		for _, sp := range collabPool {
			merged[sp.ProductID] += sp.Score * e.cfg.CollabWeight
		}
		return rank(merged, topN, m.snap, exclude)
	}
}

// RecommendUser returns up to topN personalized recommendations from the
// user's taste profile: the weighted mean of the vectors of products they
// interacted with, excluding products already seen and capped per category.
// Unknown or anonymous users get an empty result, not an error.
func (e *Engine) RecommendUser(ctx context.Context, userID string, topN int) ([]ScoredProduct, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()

	m := e.model.Load()
	weights := m.collab.UserWeights(userID)
	if len(weights) == 0 {
		metrics.RecordRecommend("user", time.Since(start), 0)
		return []ScoredProduct{}, nil
	}

	profile := m.content.Profile(weights)
	scores := m.content.ScoreProfile(profile)

	seen := make(map[string]struct{}, len(weights))
	for id := range weights {
		seen[id] = struct{}{}
	}

	ranked := rank(scores, len(scores), m.snap, seen)

	// Keep at most MaxPerCategory products per category for variety.
	perCategory := make(map[string]int)
	result := make([]ScoredProduct, 0, topN)
	for _, sp := range ranked {
		if len(result) == topN {
			break
		}
		cat := m.content.Category(sp.ProductID)
		if cat != "" && perCategory[cat] >= e.cfg.MaxPerCategory {
			continue
		}
		perCategory[cat]++
		result = append(result, sp)
	}

	metrics.RecordRecommend("user", time.Since(start), len(result))
	return result, nil
}

// Evaluate runs the offline evaluation against the current snapshot: each
// evaluable user's most recent positives are held out, recommendations are
// generated from the rest with the given method, and ranking metrics are
// aggregated. Too little data yields zeroed metrics, never an error.
func (e *Engine) Evaluate(ctx context.Context, k int, method Method) (evaluation.Result, error) {
	if err := ctx.Err(); err != nil {
		return evaluation.Result{}, err
	}
	start := time.Now()

	m := e.model.Load()
	recommend := func(_ string, known []string, k int) []string {
		if len(known) == 0 {
			return nil
		}
		exclude := make(map[string]struct{}, len(known))
		for _, id := range known {
			exclude[id] = struct{}{}
		}

		// Seed from the most recent known product.
		seed := known[len(known)-1]
		if !m.snap.Contains(seed) {
			return nil
		}

		ranked := e.rankItem(m, seed, method, k, exclude)
		ids := make([]string, len(ranked))
		for i, sp := range ranked {
			ids[i] = sp.ProductID
		}
		return ids
	}

	result := evaluation.Evaluate(m.snap, k, e.cfg.Evaluation, recommend)
	metrics.RecordEvaluation(time.Since(start), result.UsersEvaluated)
	return result, nil
}

// CTR returns the click-through rate over the trailing window. A zero or
// negative windowDays falls back to the configured default.
func (e *Engine) CTR(windowDays int) evaluation.CTR {
	if windowDays <= 0 {
		windowDays = e.cfg.CTRWindowDays
	}
	m := e.model.Load()
	return evaluation.ClickThroughRate(m.snap.Interactions, time.Now(), windowDays)
}

// Status reports the snapshot and model currently being served.
func (e *Engine) Status() Status {
	m := e.model.Load()
	s := Status{
		Products:     len(m.snap.Products),
		Interactions: len(m.snap.Interactions),
		Users:        m.collab.Users(),
	}
	if s.Products > 0 {
		s.Ready = true
		s.LastSyncAt = m.snap.SyncedAt
	}
	return s
}

// Snapshot exposes the snapshot being served, for health reporting.
func (e *Engine) Snapshot() *catalog.Snapshot {
	return e.store.Current()
}

// rank sorts a score map descending and truncates to topN. Ties resolve by
// catalog insertion order so equal-score results are stable across calls.
func rank(scores map[string]float64, topN int, snap *catalog.Snapshot, exclude map[string]struct{}) []ScoredProduct {
	if topN <= 0 || len(scores) == 0 {
		return []ScoredProduct{}
	}

	ranked := make([]ScoredProduct, 0, len(scores))
	for id, score := range scores {
		if exclude != nil {
			if _, skip := exclude[id]; skip {
				continue
			}
		}
		ranked = append(ranked, ScoredProduct{ProductID: id, Score: score})
	}

	sort.Slice(ranked, func(a, b int) bool {
		if ranked[a].Score != ranked[b].Score {
			return ranked[a].Score > ranked[b].Score
		}
		return snap.Order(ranked[a].ProductID) < snap.Order(ranked[b].ProductID)
	})

	if len(ranked) > topN {
		ranked = ranked[:topN]
	}
	return ranked
}
