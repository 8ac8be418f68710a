// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

package content

import (
	"context"
	"strings"

	"github.com/sagestudio/recommender/internal/catalog"
)

// Config tunes the content index. Zero values take documented defaults.
type Config struct {
	// NameWeight is the term-frequency multiplier for name tokens.
	// Default: 3
	NameWeight float64

	// CategoryWeight is the term-frequency multiplier for category tokens.
	// Default: 2
	CategoryWeight float64

	// CategoryBoost multiplies similarity for same-category pairs.
	// Default: 1.15
	CategoryBoost float64

	// BrandBoost multiplies similarity for same-brand pairs.
	// Default: 1.08
	BrandBoost float64
}

// withDefaults fills zero fields with the default tuning.
func (c Config) withDefaults() Config {
	if c.NameWeight <= 0 {
		c.NameWeight = 3
	}
	if c.CategoryWeight <= 0 {
		c.CategoryWeight = 2
	}
	if c.CategoryBoost <= 0 {
		c.CategoryBoost = 1.15
	}
	if c.BrandBoost <= 0 {
		c.BrandBoost = 1.08
	}
	return c
}

// Index holds the TF-IDF vectors for one snapshot. Immutable after Build.
type Index struct {
	cfg Config

	ids        []string
	vectors    []sparseVec
	categories []string
	brands     []string
	pos        map[string]int
}

// Build constructs the index for a snapshot. The context is checked between
// corpus passes so a canceled sync aborts promptly.
func Build(ctx context.Context, snap *catalog.Snapshot, cfg Config) (*Index, error) {
	cfg = cfg.withDefaults()

	n := len(snap.Products)
	ix := &Index{
		cfg:        cfg,
		ids:        make([]string, n),
		vectors:    make([]sparseVec, n),
		categories: make([]string, n),
		brands:     make([]string, n),
		pos:        make(map[string]int, n),
	}

	// Pass 1: tokenize every product and grow the vocabulary with document
	// frequencies.
	vocab := make(map[string]int)
	docFreq := make(map[int]int)
	docs := make([][]weightedTerm, n)

	for i := range snap.Products {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := &snap.Products[i]

		ix.ids[i] = p.ID
		ix.categories[i] = strings.ToLower(strings.TrimSpace(p.Category))
		ix.brands[i] = strings.ToLower(strings.TrimSpace(p.Brand))
		if _, dup := ix.pos[p.ID]; !dup {
			ix.pos[p.ID] = i
		}

		terms := weightedTerms(p, cfg)
		seen := make(map[int]struct{})
		for j, wt := range terms {
			term, ok := vocab[wt.token]
			if !ok {
				term = len(vocab)
				vocab[wt.token] = term
			}
			terms[j].term = term
			if _, dup := seen[term]; !dup {
				seen[term] = struct{}{}
				docFreq[term]++
			}
		}
		docs[i] = terms
	}

	// Pass 2: fold term weights into TF-IDF vectors and L2-normalize.
	for i, terms := range docs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		vec := make(sparseVec, len(terms))
		for _, wt := range terms {
			vec.add(wt.term, wt.weight*idf(docFreq[wt.term], n))
		}
		vec.normalize()
		ix.vectors[i] = vec
	}

	return ix, nil
}

// weightedTerm is one token occurrence with its field multiplier.
type weightedTerm struct {
	token  string
	term   int
	weight float64
}

// weightedTerms tokenizes a product's recommendation text with per-field
// multipliers: name counts triple, category double, the rest single.
func weightedTerms(p *catalog.Product, cfg Config) []weightedTerm {
	var terms []weightedTerm

	appendTokens := func(text string, weight float64) {
		for _, tok := range tokenize(text) {
			terms = append(terms, weightedTerm{token: tok, weight: weight})
		}
	}

	appendTokens(p.Name, cfg.NameWeight)
	appendTokens(p.Category, cfg.CategoryWeight)
	appendTokens(p.Brand, 1)
	appendTokens(strings.Join(p.Tags, " "), 1)
	appendTokens(p.Description, 1)

	return terms
}

// Size returns the number of indexed products.
func (ix *Index) Size() int {
	return len(ix.ids)
}

// Contains reports whether the product ID was indexed.
func (ix *Index) Contains(productID string) bool {
	_, ok := ix.pos[productID]
	return ok
}

// Similar scores every other product against the query product. Scores are
// cosine similarity with category/brand affinity boosts, clamped to [0, 1].
// The query product itself is excluded. Returns ok=false when the product is
// not in the index; an empty map when the catalog has fewer than 2 products.
func (ix *Index) Similar(productID string) (map[string]float64, bool) {
	qi, ok := ix.pos[productID]
	if !ok {
		return nil, false
	}

	scores := make(map[string]float64, len(ix.ids)-1)
	if len(ix.ids) < 2 {
		return scores, true
	}

	qv := ix.vectors[qi]
	qcat := ix.categories[qi]
	qbrand := ix.brands[qi]

	for i, id := range ix.ids {
		if i == qi || id == productID {
			continue
		}
		s := dot(qv, ix.vectors[i])
		if qcat != "" && ix.categories[i] == qcat {
			s *= ix.cfg.CategoryBoost
		}
		if qbrand != "" && ix.brands[i] == qbrand {
			s *= ix.cfg.BrandBoost
		}
		if s > 1 {
			s = 1
		}
		scores[id] = s
	}
	return scores, true
}

// Profile builds a user taste vector as the weighted mean of the vectors of
// the products in weights. Unknown products are skipped. Returns nil when
// nothing matched.
func (ix *Index) Profile(weights map[string]float64) sparseVec {
	var total float64
	profile := make(sparseVec)

	for id, w := range weights {
		i, ok := ix.pos[id]
		if !ok || w <= 0 {
			continue
		}
		for term, tw := range ix.vectors[i] {
			profile.add(term, tw*w)
		}
		total += w
	}
	if total == 0 {
		return nil
	}

	for term, w := range profile {
		profile[term] = w / total
	}
	profile.normalize()
	return profile
}

// ScoreProfile scores every indexed product against a taste vector built by
// Profile. Cosine similarity in [0, 1]; no boosts, since a profile has no
// single category or brand.
func (ix *Index) ScoreProfile(profile sparseVec) map[string]float64 {
	if len(profile) == 0 {
		return map[string]float64{}
	}

	scores := make(map[string]float64, len(ix.ids))
	for i, id := range ix.ids {
		scores[id] = dot(profile, ix.vectors[i])
	}
	return scores
}

// Category returns the normalized category of an indexed product.
func (ix *Index) Category(productID string) string {
	if i, ok := ix.pos[productID]; ok {
		return ix.categories[i]
	}
	return ""
}
