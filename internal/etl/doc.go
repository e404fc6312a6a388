// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

/*
Package etl prepares the data the related-articles service reads.

It runs offline, from cmd/loader, and never while the server is up:

  - Loader reads article JSONL, derives lookup keys with related.Normalize,
    upserts metadata into DuckDB and writes embeddings to the vector index.
    Records that arrive with text but no vector are embedded first.
  - Downloader fetches the daily pageview_complete "user" dumps for a month.
    Existing files are skipped, partial downloads never replace a file, and
    server errors are retried with a linearly growing delay.
  - AggregatePageviews sums daily views per lookup key for one wiki project.
  - BuildTitleIndex and CountBacklinks derive backlink counts from the
    page and pagelinks SQL dumps.

Lookup keys are always computed with related.Normalize so that the server's
resolver and the stored keys agree.
*/
package etl
