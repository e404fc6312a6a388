// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package services

import (
	"context"
	"time"

	"github.com/tomtom215/wikirelated/internal/logging"
)

// ExpiringCache drops its expired entries on demand.
type ExpiringCache interface {
	CleanupExpired() int
}

// CacheJanitorService periodically sweeps expired entries out of a cache.
// Expired entries are already invisible to readers; sweeping only returns
// their memory.
type CacheJanitorService struct {
	cache    ExpiringCache
	interval time.Duration
}

// NewCacheJanitorService sweeps cache every interval (minimum one second).
func NewCacheJanitorService(cache ExpiringCache, interval time.Duration) *CacheJanitorService {
	if interval < time.Second {
		interval = time.Second
	}
	return &CacheJanitorService{cache: cache, interval: interval}
}

// Serve implements suture.Service.
func (j *CacheJanitorService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := j.cache.CleanupExpired(); n > 0 {
				logging.Debug().Int("removed", n).Msg("Swept expired cache entries")
			}
		}
	}
}

// String implements fmt.Stringer.
func (j *CacheJanitorService) String() string {
	return "cache-janitor"
}
