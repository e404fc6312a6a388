// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"fmt"
	"math"
)

// Config contains the tunables of the related-articles pipeline.
type Config struct {
	// PoolSize is the number of neighbours requested from the vector index,
	// not counting the query article itself.
	PoolSize int `json:"pool_size"`

	// ResultCount is the maximum number of results returned.
	ResultCount int `json:"result_count"`

	// SemanticWeight and PopularityWeight must sum to 1.
	SemanticWeight   float64 `json:"semantic_weight"`
	PopularityWeight float64 `json:"popularity_weight"`

	// PopularityCeilingExponent is log10 of the pageview count at which the
	// popularity component saturates at 1.0.
	PopularityCeilingExponent float64 `json:"popularity_ceiling_exponent"`

	// MetaPrefixes are case-insensitive title prefixes of non-article pages.
	MetaPrefixes []string `json:"meta_prefixes"`

	// DisambiguationMarkers are case-insensitive substrings marking disambiguation pages.
	DisambiguationMarkers []string `json:"disambiguation_markers"`
}

// DefaultMetaPrefixes lists the namespaces and list pages excluded by default.
var DefaultMetaPrefixes = []string{
	"talk:",
	"user:",
	"user talk:",
	"wikipedia:",
	"wikipedia talk:",
	"file:",
	"file talk:",
	"image:",
	"image talk:",
	"mediawiki:",
	"mediawiki talk:",
	"template:",
	"template talk:",
	"help:",
	"help talk:",
	"category:",
	"category talk:",
	"portal:",
	"portal talk:",
	"draft:",
	"draft talk:",
	"module:",
	"module talk:",
	"special:",
	"list of",
	"lists of",
}

// DefaultDisambiguationMarkers lists the disambiguation markers excluded by default.
var DefaultDisambiguationMarkers = []string{
	"(disambiguation)",
}

// DefaultConfig returns the production defaults.
func DefaultConfig() *Config {
	return &Config{
		PoolSize:                  50,
		ResultCount:               7,
		SemanticWeight:            0.70,
		PopularityWeight:          0.30,
		PopularityCeilingExponent: 7,
		MetaPrefixes:              append([]string(nil), DefaultMetaPrefixes...),
		DisambiguationMarkers:     append([]string(nil), DefaultDisambiguationMarkers...),
	}
}

// weightTolerance absorbs float error when checking that the weights sum to 1.
const weightTolerance = 1e-9

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.PoolSize < 1 {
		return fmt.Errorf("related.pool_size must be positive, got %d", c.PoolSize)
	}
	if c.ResultCount < 1 {
		return fmt.Errorf("related.result_count must be positive, got %d", c.ResultCount)
	}
	if c.PoolSize < c.ResultCount {
		return fmt.Errorf("related.pool_size must be >= related.result_count, got %d < %d", c.PoolSize, c.ResultCount)
	}
	if c.SemanticWeight < 0 || c.SemanticWeight > 1 {
		return fmt.Errorf("related.semantic_weight must be in [0, 1], got %f", c.SemanticWeight)
	}
	if c.PopularityWeight < 0 || c.PopularityWeight > 1 {
		return fmt.Errorf("related.popularity_weight must be in [0, 1], got %f", c.PopularityWeight)
	}
	if sum := c.SemanticWeight + c.PopularityWeight; math.Abs(sum-1) > weightTolerance {
		return fmt.Errorf("related.semantic_weight + related.popularity_weight must equal 1, got %f", sum)
	}
	if c.PopularityCeilingExponent <= 0 {
		return fmt.Errorf("related.popularity_ceiling_exponent must be positive, got %f", c.PopularityCeilingExponent)
	}
	for i, p := range c.MetaPrefixes {
		if p == "" {
			return fmt.Errorf("related.meta_prefixes[%d] must not be empty", i)
		}
	}
	for i, m := range c.DisambiguationMarkers {
		if m == "" {
			return fmt.Errorf("related.disambiguation_markers[%d] must not be empty", i)
		}
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.MetaPrefixes = append([]string(nil), c.MetaPrefixes...)
	clone.DisambiguationMarkers = append([]string(nil), c.DisambiguationMarkers...)
	return &clone
}
