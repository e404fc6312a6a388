// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package models

// ArticleRecord is one content page as stored in the metadata store.
// LookupKey is derived from Title and is unique across the store.
type ArticleRecord struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`      // Display title, original casing and spacing
	LookupKey string `json:"lookup_key"` // Normalized title used for exact-match resolution
	Pageviews int64  `json:"pageviews"`  // 0 means no popularity signal
	Backlinks int64  `json:"backlinks"`  // Stored, not scored
}

// Neighbor is a single vector index hit.
type Neighbor struct {
	ID       int64
	Distance float64 // Lower is more similar
}

// Candidate is a neighbor joined with its article record.
type Candidate struct {
	ID        int64
	Distance  float64
	Title     string
	Pageviews int64
}

// ScoredCandidate carries the blended score of a candidate before truncation.
type ScoredCandidate struct {
	Candidate
	Final float64 // Blended score in [0,1]
	Score int     // Presentation score in [0,100]
}

// RankedResult is one entry of the related-articles response.
type RankedResult struct {
	Title string `json:"title"`
	Score int    `json:"score"`
}
