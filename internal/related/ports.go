// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"context"

	"github.com/tomtom215/wikirelated/internal/models"
)

// MetadataStore is the read side of the article metadata store.
// Implementations must be safe for concurrent use.
type MetadataStore interface {
	// FindByLookupKey returns the article whose lookup key equals key.
	// The boolean is false when no article matches.
	FindByLookupKey(ctx context.Context, key string) (models.ArticleRecord, bool, error)

	// FindManyByIDs returns the records for the given ids in a single call.
	// Ids without a record are absent from the map.
	FindManyByIDs(ctx context.Context, ids []int64) (map[int64]models.ArticleRecord, error)
}

// VectorIndex is the read side of the embedding index.
// Implementations must be safe for concurrent read-only use.
type VectorIndex interface {
	// Reconstruct returns the stored vector for id.
	// The boolean is false when the index holds no vector for id.
	Reconstruct(ctx context.Context, id int64) ([]float32, bool, error)

	// Search returns up to k neighbours of vector ordered by ascending distance.
	Search(ctx context.Context, vector []float32, k int) ([]models.Neighbor, error)
}
