// Sage Recommender - Storefront Recommendation Engine
// Copyright 2026 Sage Studio
// SPDX-License-Identifier: Apache-2.0
// https://github.com/sagestudio/recommender

// Package content builds the text-feature representation of the catalog and
// answers "most similar to product X" queries from it.
//
// Each product's recommendation text is turned into an L2-normalized TF-IDF
// vector once per sync. Similarity is the cosine between vectors, with a
// small affinity boost for matching category and brand. Queries never rescan
// the corpus; they read the prebuilt vectors.
package content

import (
	"math"
	"strings"
	"unicode"
)

// stopWords is a small English stop-word list. Terms this common carry no
// similarity signal and only inflate the vocabulary.
var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"by": {}, "for": {}, "from": {}, "has": {}, "in": {}, "is": {}, "it": {},
	"its": {}, "of": {}, "on": {}, "or": {}, "that": {}, "the": {}, "to": {},
	"was": {}, "were": {}, "will": {}, "with": {},
}

// tokenize lowercases s and splits it into alphanumeric terms, dropping
// single-character tokens and stop words.
func tokenize(s string) []string {
	s = strings.ToLower(s)

	tokens := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	out := tokens[:0]
	for _, t := range tokens {
		if len(t) < 2 {
			continue
		}
		if _, stop := stopWords[t]; stop {
			continue
		}
		out = append(out, t)
	}
	return out
}

// sparseVec is a term-index to weight mapping. Vectors are L2-normalized
// after construction, so cosine reduces to a dot product.
type sparseVec map[int]float64

// add accumulates weight for a term index.
func (v sparseVec) add(term int, weight float64) {
	v[term] += weight
}

// normalize scales the vector to unit L2 norm. A zero vector stays zero.
func (v sparseVec) normalize() {
	var sum float64
	for _, w := range v {
		sum += w * w
	}
	if sum == 0 {
		return
	}
	norm := math.Sqrt(sum)
	for i, w := range v {
		v[i] = w / norm
	}
}

// dot returns the dot product of two sparse vectors. Iterates the smaller
// vector.
func dot(a, b sparseVec) float64 {
	if len(b) < len(a) {
		a, b = b, a
	}
	var sum float64
	for i, w := range a {
		if bw, ok := b[i]; ok {
			sum += w * bw
		}
	}
	return sum
}

// idf computes the smoothed inverse document frequency for a term seen in
// df of n documents: ln((1+n)/(1+df)) + 1. Always positive.
func idf(df, n int) float64 {
	return math.Log(float64(1+n)/float64(1+df)) + 1
}
