// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

// Package config loads the service and loader configuration.
//
// Values are layered with koanf: built-in defaults, then an optional YAML
// file, then environment variables. See LoadWithKoanf.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/wikirelated/internal/related"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Database DatabaseConfig `koanf:"database"`
	Index    IndexConfig    `koanf:"index"`
	Related  RelatedConfig  `koanf:"related"`
	Cache    CacheConfig    `koanf:"cache"`
	Security SecurityConfig `koanf:"security"`
	Logging  LoggingConfig  `koanf:"logging"`
	Loader   LoaderConfig   `koanf:"loader"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"min=1,max=65535"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	// RequestTimeout bounds a single related-articles computation.
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// DatabaseConfig holds DuckDB metadata store settings
type DatabaseConfig struct {
	Path         string        `koanf:"path" validate:"required"`
	MaxMemory    string        `koanf:"max_memory"`
	Threads      int           `koanf:"threads" validate:"min=0"`        // 0 = use NumCPU
	MaxOpenConns int           `koanf:"max_open_conns" validate:"min=0"` // 0 = use NumCPU
	Breaker      BreakerConfig `koanf:"breaker"`
}

// BreakerConfig configures the circuit breaker in front of a backing store.
type BreakerConfig struct {
	Enabled bool `koanf:"enabled"`
	// MaxRequests is the number of trial requests allowed while half-open.
	MaxRequests uint32 `koanf:"max_requests" validate:"min=1"`
	// Interval clears the failure counts while closed. 0 never clears.
	Interval time.Duration `koanf:"interval"`
	// Timeout is how long the breaker stays open before probing.
	Timeout time.Duration `koanf:"timeout"`
	// FailureThreshold is the number of consecutive failures that opens the breaker.
	FailureThreshold uint32 `koanf:"failure_threshold" validate:"min=1"`
}

// Index backends.
const (
	IndexBackendMemory  = "memory"
	IndexBackendChromem = "chromem"
)

// IndexConfig selects and locates the vector index.
type IndexConfig struct {
	// Backend is "memory" (exact search over a badger snapshot) or "chromem".
	Backend      string `koanf:"backend" validate:"oneof=memory chromem"`
	SnapshotPath string `koanf:"snapshot_path"`
	ChromemPath  string `koanf:"chromem_path"`
	Collection   string `koanf:"collection"`
	// Dimensions is checked against every vector written by the loader. 0 accepts any.
	Dimensions int `koanf:"dimensions" validate:"min=0"`
}

// RelatedConfig holds the ranking tunables. See related.Config.
type RelatedConfig struct {
	PoolSize                  int      `koanf:"pool_size"`
	ResultCount               int      `koanf:"result_count"`
	SemanticWeight            float64  `koanf:"semantic_weight"`
	PopularityWeight          float64  `koanf:"popularity_weight"`
	PopularityCeilingExponent float64  `koanf:"popularity_ceiling_exponent"`
	MetaPrefixes              []string `koanf:"meta_prefixes"`
	DisambiguationMarkers     []string `koanf:"disambiguation_markers"`
}

// ToRelatedConfig converts the section into the pipeline's own config type.
func (r *RelatedConfig) ToRelatedConfig() *related.Config {
	return &related.Config{
		PoolSize:                  r.PoolSize,
		ResultCount:               r.ResultCount,
		SemanticWeight:            r.SemanticWeight,
		PopularityWeight:          r.PopularityWeight,
		PopularityCeilingExponent: r.PopularityCeilingExponent,
		MetaPrefixes:              append([]string(nil), r.MetaPrefixes...),
		DisambiguationMarkers:     append([]string(nil), r.DisambiguationMarkers...),
	}
}

// CacheConfig holds the related-results cache settings
type CacheConfig struct {
	Enabled  bool          `koanf:"enabled"`
	Capacity int           `koanf:"capacity" validate:"min=0"`
	TTL      time.Duration `koanf:"ttl"`
}

// SecurityConfig holds CORS and rate limiting settings
type SecurityConfig struct {
	CORSOrigins       []string      `koanf:"cors_origins"`
	RateLimitReqs     int           `koanf:"rate_limit_reqs"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is json or console.
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Embedding providers usable by the loader.
const (
	EmbedderNone   = "none"
	EmbedderOpenAI = "openai"
	EmbedderGemini = "gemini"
)

// LoaderConfig holds settings for the offline loader
type LoaderConfig struct {
	// EmbedderProvider embeds records that arrive with text but no vector.
	EmbedderProvider string `koanf:"embedder_provider" validate:"oneof=none openai gemini"`
	EmbedderModel    string `koanf:"embedder_model"`
	// API keys are read from OPENAI_API_KEY / GEMINI_API_KEY (or .env).
	OpenAIAPIKey string `koanf:"openai_api_key"`
	GeminiAPIKey string `koanf:"gemini_api_key"`

	BatchSize int `koanf:"batch_size" validate:"min=1"`

	PageviewsBaseURL string        `koanf:"pageviews_base_url" validate:"required,http_url"`
	PageviewsProject string        `koanf:"pageviews_project" validate:"required"`
	DownloadDir      string        `koanf:"download_dir" validate:"required"`
	RetryCount       int           `koanf:"retry_count" validate:"min=0,max=10"`
	RetryDelay       time.Duration `koanf:"retry_delay"`
	// DownloadsPerSecond paces dump downloads. 0 disables pacing.
	DownloadsPerSecond float64 `koanf:"downloads_per_second" validate:"gte=0"`
}

// APIKey returns the key of the configured embedder.
func (l *LoaderConfig) APIKey() string {
	switch l.EmbedderProvider {
	case EmbedderOpenAI:
		return l.OpenAIAPIKey
	case EmbedderGemini:
		return l.GeminiAPIKey
	default:
		return ""
	}
}

// String summarises the config for startup logs without secrets.
func (c *Config) String() string {
	return fmt.Sprintf("server=%s db=%s index=%s pool=%d results=%d cache=%t",
		c.Server.Addr(), c.Database.Path, c.Index.Backend,
		c.Related.PoolSize, c.Related.ResultCount, c.Cache.Enabled)
}
