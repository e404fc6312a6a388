// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"context"

	"github.com/tomtom215/wikirelated/internal/models"
)

// Retriever builds the candidate pool for a resolved article.
type Retriever struct {
	index VectorIndex
	store MetadataStore
}

// NewRetriever creates a retriever over the given index and store.
func NewRetriever(index VectorIndex, store MetadataStore) *Retriever {
	return &Retriever{index: index, store: store}
}

// RetrieveStats describes how a pool shrank on its way out of Retrieve.
type RetrieveStats struct {
	Neighbors   int // Hits returned by the index
	SelfRemoved int // Hits equal to the query article
	Duplicates  int // Repeated ids after the first occurrence
	Unknown     int // Hits with no metadata record
}

// Retrieve returns up to poolSize candidates for article, ordered by ascending distance.
//
// The query article is removed by id wherever it appears in the neighbour list.
// Neighbours without a metadata record are dropped silently.
func (r *Retriever) Retrieve(ctx context.Context, article models.ArticleRecord, poolSize int) ([]models.Candidate, RetrieveStats, error) {
	var stats RetrieveStats

	vector, ok, err := r.index.Reconstruct(ctx, article.ID)
	if err != nil {
		return nil, stats, storeUnavailable(StoreVectorIndex, "reconstruct", err)
	}
	if !ok {
		return nil, stats, &EmbeddingMissingError{ID: article.ID, Title: article.Title}
	}

	// One extra slot for the query article's own hit.
	neighbors, err := r.index.Search(ctx, vector, poolSize+1)
	if err != nil {
		return nil, stats, storeUnavailable(StoreVectorIndex, "search", err)
	}
	stats.Neighbors = len(neighbors)

	kept := make([]models.Neighbor, 0, len(neighbors))
	ids := make([]int64, 0, len(neighbors))
	seen := make(map[int64]struct{}, len(neighbors))
	for _, n := range neighbors {
		if n.ID == article.ID {
			stats.SelfRemoved++
			continue
		}
		if _, dup := seen[n.ID]; dup {
			stats.Duplicates++
			continue
		}
		seen[n.ID] = struct{}{}
		kept = append(kept, n)
		ids = append(ids, n.ID)
	}
	if len(kept) > poolSize {
		kept = kept[:poolSize]
		ids = ids[:poolSize]
	}
	if len(kept) == 0 {
		return []models.Candidate{}, stats, nil
	}

	records, err := r.store.FindManyByIDs(ctx, ids)
	if err != nil {
		return nil, stats, storeUnavailable(StoreMetadata, "find many by ids", err)
	}

	candidates := make([]models.Candidate, 0, len(kept))
	for _, n := range kept {
		rec, ok := records[n.ID]
		if !ok {
			stats.Unknown++
			continue
		}
		candidates = append(candidates, models.Candidate{
			ID:        n.ID,
			Distance:  n.Distance,
			Title:     rec.Title,
			Pageviews: rec.Pageviews,
		})
	}

	return candidates, stats, nil
}
