// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/validation"
)

// Validate checks that required configuration is present and valid
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateIndex(); err != nil {
		return err
	}

	if err := c.validateRelated(); err != nil {
		return err
	}

	if err := c.validateCache(); err != nil {
		return err
	}

	if err := c.validateRateLimits(); err != nil {
		return err
	}

	return c.validateLogging()
}

// validateServer validates HTTP server timeouts
func (c *Config) validateServer() error {
	if c.Server.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be positive, got %v", c.Server.RequestTimeout)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("HTTP_SHUTDOWN_TIMEOUT must be positive, got %v", c.Server.ShutdownTimeout)
	}
	return nil
}

// validateIndex validates that the selected backend has a location
func (c *Config) validateIndex() error {
	switch c.Index.Backend {
	case IndexBackendMemory:
		if c.Index.SnapshotPath == "" {
			return fmt.Errorf("INDEX_SNAPSHOT_PATH is required when INDEX_BACKEND=memory")
		}
	case IndexBackendChromem:
		if c.Index.ChromemPath == "" {
			return fmt.Errorf("CHROMEM_PATH is required when INDEX_BACKEND=chromem")
		}
		if c.Index.Collection == "" {
			return fmt.Errorf("CHROMEM_COLLECTION is required when INDEX_BACKEND=chromem")
		}
	default:
		return fmt.Errorf("INDEX_BACKEND must be one of: memory, chromem")
	}
	return nil
}

// validateRelated delegates to the pipeline's own rules
func (c *Config) validateRelated() error {
	return c.Related.ToRelatedConfig().Validate()
}

// validateCache validates the result cache settings
func (c *Config) validateCache() error {
	if !c.Cache.Enabled {
		return nil
	}
	if c.Cache.Capacity < 1 {
		return fmt.Errorf("CACHE_CAPACITY must be at least 1 when the cache is enabled, got %d", c.Cache.Capacity)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive when the cache is enabled, got %v", c.Cache.TTL)
	}
	return nil
}

// validateRateLimits validates rate limiting configuration
func (c *Config) validateRateLimits() error {
	if c.Security.RateLimitDisabled {
		return nil
	}
	if c.Security.RateLimitReqs < 1 {
		return fmt.Errorf("RATE_LIMIT_REQUESTS must be at least 1, got %d", c.Security.RateLimitReqs)
	}
	if c.Security.RateLimitWindow < time.Second {
		return fmt.Errorf("RATE_LIMIT_WINDOW must be at least 1s, got %v", c.Security.RateLimitWindow)
	}
	return nil
}

var validLogFormats = map[string]bool{
	"json":    true,
	"console": true,
}

// validateLogging validates logging configuration
func (c *Config) validateLogging() error {
	if !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("LOG_LEVEL must be one of: trace, debug, info, warn, error")
	}
	if c.Logging.Format != "" && !validLogFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("LOG_FORMAT must be one of: json, console")
	}
	return nil
}

// ValidateLoader checks the settings only the loader needs.
func (c *Config) ValidateLoader() error {
	if c.Loader.EmbedderProvider != EmbedderNone && c.Loader.APIKey() == "" {
		return fmt.Errorf("%s_API_KEY is required when EMBEDDER_PROVIDER=%s",
			strings.ToUpper(c.Loader.EmbedderProvider), c.Loader.EmbedderProvider)
	}
	if c.Loader.RetryDelay < 0 {
		return fmt.Errorf("PAGEVIEWS_RETRY_DELAY must not be negative, got %v", c.Loader.RetryDelay)
	}
	return nil
}
