// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

/*
Package models defines the data structures shared by the store, the index,
the ranking pipeline and the HTTP layer.

The types follow a request through the pipeline:

  - ArticleRecord: a row of the metadata store
  - Neighbor: a vector index hit (id and cosine distance)
  - Candidate: a neighbor joined with its record
  - ScoredCandidate: a candidate with its blended score
  - RankedResult: the {title, score} pair returned to clients

The models package has no dependencies on the rest of the module.
*/
package models
