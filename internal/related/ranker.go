// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"sort"

	"github.com/tomtom215/wikirelated/internal/models"
)

// Ranker orders scored candidates and keeps the top N.
type Ranker struct {
	limit int
}

// NewRanker creates a ranker returning at most limit results.
func NewRanker(limit int) Ranker {
	return Ranker{limit: limit}
}

// Rank sorts by blended score descending, breaking ties by ascending distance
// and then by input order, and truncates to the limit. It never pads.
// The input slice is not modified.
func (r Ranker) Rank(scored []models.ScoredCandidate) []models.RankedResult {
	ordered := make([]models.ScoredCandidate, len(scored))
	copy(ordered, scored)

	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Final != ordered[j].Final {
			return ordered[i].Final > ordered[j].Final
		}
		return ordered[i].Distance < ordered[j].Distance
	})

	n := len(ordered)
	if r.limit > 0 && n > r.limit {
		n = r.limit
	}

	results := make([]models.RankedResult, n)
	for i := 0; i < n; i++ {
		results[i] = models.RankedResult{
			Title: ordered[i].Title,
			Score: ordered[i].Score,
		}
	}
	return results
}
