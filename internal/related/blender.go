// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"math"

	"github.com/tomtom215/wikirelated/internal/models"
)

// Blender combines semantic distance and popularity into one score.
//
//	semantic   = clamp(1 - distance, 0, 1)
//	popularity = 0                                   if pageviews <= 0
//	           = min(1, log10(pageviews+1) / ceiling) otherwise
//	final      = ws*semantic + wp*popularity
type Blender struct {
	semanticWeight   float64
	popularityWeight float64
	ceilingExponent  float64
}

// NewBlender creates a blender from a validated config.
func NewBlender(cfg *Config) Blender {
	return Blender{
		semanticWeight:   cfg.SemanticWeight,
		popularityWeight: cfg.PopularityWeight,
		ceilingExponent:  cfg.PopularityCeilingExponent,
	}
}

// Semantic returns the semantic component for a distance.
func (b Blender) Semantic(distance float64) float64 {
	if math.IsNaN(distance) {
		return 0
	}
	return clamp01(1 - distance)
}

// Popularity returns the popularity component for a pageview count.
func (b Blender) Popularity(pageviews int64) float64 {
	if pageviews <= 0 {
		return 0
	}
	return math.Min(1, math.Log10(float64(pageviews)+1)/b.ceilingExponent)
}

// Score returns the blended score in [0,1].
func (b Blender) Score(distance float64, pageviews int64) float64 {
	return clamp01(b.semanticWeight*b.Semantic(distance) + b.popularityWeight*b.Popularity(pageviews))
}

// Blend scores every candidate, keeping input order.
func (b Blender) Blend(candidates []models.Candidate) []models.ScoredCandidate {
	scored := make([]models.ScoredCandidate, len(candidates))
	for i, c := range candidates {
		final := b.Score(c.Distance, c.Pageviews)
		scored[i] = models.ScoredCandidate{
			Candidate: c,
			Final:     final,
			Score:     PresentationScore(final),
		}
	}
	return scored
}

// presentationEpsilon absorbs float error so that e.g. 0.29 maps to 29, not 28.
// It is applied after scaling by 100, so a final score within 1e-11 below a
// hundredth is treated as exactly that hundredth. Anything further below
// still truncates down.
const presentationEpsilon = 1e-9

// PresentationScore truncates a blended score to an integer in [0,100].
func PresentationScore(final float64) int {
	s := int(math.Floor(final*100 + presentationEpsilon))
	switch {
	case s < 0:
		return 0
	case s > 100:
		return 100
	default:
		return s
	}
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
