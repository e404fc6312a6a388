// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/wikirelated/internal/related"
)

// DefaultConfigPaths lists the paths where config files are searched in order of priority.
// The first file found will be used.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/wikirelated/config.yaml",
	"/etc/wikirelated/config.yml",
}

// ConfigPathEnvVar is the environment variable that can override the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// defaultConfig returns a Config struct with all default values.
// These defaults are applied first, then overridden by config file and env vars.
func defaultConfig() *Config {
	rel := related.DefaultConfig()

	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 15 * time.Second,
			RequestTimeout:  5 * time.Second,
		},
		Database: DatabaseConfig{
			Path:         "/data/wikirelated.duckdb",
			MaxMemory:    "1GB",
			Threads:      0, // 0 = use runtime.NumCPU()
			MaxOpenConns: 0,
			Breaker: BreakerConfig{
				Enabled:          true,
				MaxRequests:      1,
				Interval:         time.Minute,
				Timeout:          30 * time.Second,
				FailureThreshold: 5,
			},
		},
		Index: IndexConfig{
			Backend:      IndexBackendMemory,
			SnapshotPath: "/data/vectors",
			ChromemPath:  "/data/chromem",
			Collection:   "articles",
			Dimensions:   0,
		},
		Related: RelatedConfig{
			PoolSize:                  rel.PoolSize,
			ResultCount:               rel.ResultCount,
			SemanticWeight:            rel.SemanticWeight,
			PopularityWeight:          rel.PopularityWeight,
			PopularityCeilingExponent: rel.PopularityCeilingExponent,
			MetaPrefixes:              rel.MetaPrefixes,
			DisambiguationMarkers:     rel.DisambiguationMarkers,
		},
		Cache: CacheConfig{
			Enabled:  true,
			Capacity: 10000,
			TTL:      time.Hour,
		},
		Security: SecurityConfig{
			CORSOrigins:       []string{"*"},
			RateLimitReqs:     100,
			RateLimitWindow:   time.Minute,
			RateLimitDisabled: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Caller: false,
		},
		Loader: LoaderConfig{
			EmbedderProvider:   EmbedderNone,
			EmbedderModel:      "",
			BatchSize:          500,
			PageviewsBaseURL:   "https://dumps.wikimedia.org/other/pageview_complete",
			PageviewsProject:   "en.wikipedia",
			DownloadDir:        "/data/pageviews",
			RetryCount:         3,
			RetryDelay:         10 * time.Second,
			DownloadsPerSecond: 1,
		},
	}
}

// LoadWithKoanf loads configuration using Koanf v2 with layered sources:
//  1. Defaults: Built-in defaults
//  2. Config File: Optional YAML config file (if exists)
//  3. Environment Variables: Override any setting
func LoadWithKoanf() (*Config, error) {
	k := koanf.New(".")

	// Layer 1: Load defaults from struct
	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// Layer 2: Load config file (optional)
	if configPath := findConfigFile(); configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	}

	// Layer 3: Environment variables (highest priority).
	// Unmapped variables are dropped by envTransformFunc.
	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// findConfigFile searches for a config file in the default paths.
// Returns the path to the first file found, or empty string if none found.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}

	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// sliceConfigPaths defines which config paths should be parsed as comma-separated slices
var sliceConfigPaths = []string{
	"security.cors_origins",
	"related.meta_prefixes",
	"related.disambiguation_markers",
}

// processSliceFields converts comma-separated string values to slices for known slice fields.
// Env vars come in as strings, but the config expects slices.
func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		if val == nil {
			continue
		}

		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}

		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}

// envMappings maps environment variable names (lower-cased) to koanf paths.
var envMappings = map[string]string{
	// Server mappings
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_idle_timeout":     "server.idle_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",
	"request_timeout":       "server.request_timeout",

	// Database mappings
	"duckdb_path":                  "database.path",
	"duckdb_max_memory":            "database.max_memory",
	"duckdb_threads":               "database.threads",
	"duckdb_max_open_conns":        "database.max_open_conns",
	"db_breaker_enabled":           "database.breaker.enabled",
	"db_breaker_max_requests":      "database.breaker.max_requests",
	"db_breaker_interval":          "database.breaker.interval",
	"db_breaker_timeout":           "database.breaker.timeout",
	"db_breaker_failure_threshold": "database.breaker.failure_threshold",

	// Index mappings
	"index_backend":       "index.backend",
	"index_snapshot_path": "index.snapshot_path",
	"chromem_path":        "index.chromem_path",
	"chromem_collection":  "index.collection",
	"index_dimensions":    "index.dimensions",

	// Ranking mappings
	"related_pool_size":                   "related.pool_size",
	"related_result_count":                "related.result_count",
	"related_semantic_weight":             "related.semantic_weight",
	"related_popularity_weight":           "related.popularity_weight",
	"related_popularity_ceiling_exponent": "related.popularity_ceiling_exponent",
	"related_meta_prefixes":               "related.meta_prefixes",
	"related_disambiguation_markers":      "related.disambiguation_markers",

	// Cache mappings
	"cache_enabled":  "cache.enabled",
	"cache_capacity": "cache.capacity",
	"cache_ttl":      "cache.ttl",

	// Security mappings
	"cors_origins":        "security.cors_origins",
	"rate_limit_requests": "security.rate_limit_reqs",
	"rate_limit_window":   "security.rate_limit_window",
	"disable_rate_limit":  "security.rate_limit_disabled",

	// Logging mappings
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Loader mappings
	"embedder_provider":         "loader.embedder_provider",
	"embedder_model":            "loader.embedder_model",
	"openai_api_key":            "loader.openai_api_key",
	"gemini_api_key":            "loader.gemini_api_key",
	"loader_batch_size":         "loader.batch_size",
	"pageviews_base_url":        "loader.pageviews_base_url",
	"pageviews_project":         "loader.pageviews_project",
	"pageviews_download_dir":    "loader.download_dir",
	"pageviews_retry_count":     "loader.retry_count",
	"pageviews_retry_delay":     "loader.retry_delay",
	"pageviews_downloads_per_s": "loader.downloads_per_second",
}

// envTransformFunc transforms environment variable names to koanf config paths.
// Variables without a mapping return "" and are ignored.
//
// Examples:
//   - DUCKDB_PATH -> database.path
//   - HTTP_PORT -> server.port
//   - RELATED_POOL_SIZE -> related.pool_size
func envTransformFunc(key string) string {
	if path, ok := envMappings[strings.ToLower(key)]; ok {
		return path
	}
	return ""
}
