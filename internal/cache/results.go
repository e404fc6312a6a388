// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package cache

import (
	"context"
	"time"

	"github.com/tomtom215/wikirelated/internal/metrics"
	"github.com/tomtom215/wikirelated/internal/models"
	"github.com/tomtom215/wikirelated/internal/related"
)

// RelatedFinder answers related-article queries.
type RelatedFinder interface {
	Related(ctx context.Context, title string) ([]models.RankedResult, error)
}

// ResultCache memoizes successful related-article results by lookup key.
// Titles that normalize to the same key share an entry. Errors are never
// cached, so a transient store failure does not outlive the request.
type ResultCache struct {
	next RelatedFinder
	lru  *LRUCache[[]models.RankedResult]
}

// NewResultCache wraps next with a cache of capacity entries kept for ttl.
func NewResultCache(next RelatedFinder, capacity int, ttl time.Duration) *ResultCache {
	return &ResultCache{
		next: next,
		lru:  NewLRUCache[[]models.RankedResult](capacity, ttl),
	}
}

// Related implements RelatedFinder.
func (c *ResultCache) Related(ctx context.Context, title string) ([]models.RankedResult, error) {
	key := related.Normalize(title)
	if cached, ok := c.lru.Get(key); ok {
		metrics.RecordCacheLookup(true)
		return clone(cached), nil
	}
	metrics.RecordCacheLookup(false)

	results, err := c.next.Related(ctx, title)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, clone(results))
	metrics.ResultCacheEntries.Set(float64(c.lru.Len()))
	return results, nil
}

// Len returns the number of cached results.
func (c *ResultCache) Len() int { return c.lru.Len() }

// CleanupExpired drops expired entries and returns how many were removed.
func (c *ResultCache) CleanupExpired() int {
	n := c.lru.CleanupExpired()
	metrics.ResultCacheEntries.Set(float64(c.lru.Len()))
	return n
}

func clone(in []models.RankedResult) []models.RankedResult {
	out := make([]models.RankedResult, len(in))
	copy(out, in)
	return out
}
