// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

// Command server answers "which Wikipedia articles are related to this one?"
//
// It opens the DuckDB article metadata store and the vector index written by
// cmd/loader, then serves:
//
//	GET /related/{title}          bare JSON array of {title, score}
//	GET /api/v1/related/{title}   the same results in the response envelope
//	GET /health/live
//	GET /health/ready
//	GET /metrics
//
// # Configuration
//
// Settings are layered with koanf: built-in defaults, then config.yaml (or
// the file named by CONFIG_PATH), then environment variables such as
// HTTP_PORT, DUCKDB_PATH, INDEX_BACKEND, RELATED_POOL_SIZE and CACHE_ENABLED.
//
// # Signal Handling
//
// SIGINT and SIGTERM stop the supervisor tree. In-flight requests get
// HTTP_SHUTDOWN_TIMEOUT to finish before the stores are closed.
package main
