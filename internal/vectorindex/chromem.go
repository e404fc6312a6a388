// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package vectorindex

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/philippgille/chromem-go"

	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/metrics"
	"github.com/tomtom215/wikirelated/internal/models"
)

const backendChromem = "chromem"

// ChromemIndex stores article vectors in a persistent chromem-go collection.
// Document ids are decimal article ids.
type ChromemIndex struct {
	db         *chromem.DB
	collection *chromem.Collection
	dim        int

	mu     sync.RWMutex
	closed bool
}

// OpenChromemIndex opens the collection name under path, creating both if needed.
func OpenChromemIndex(path, name string, dim int) (*ChromemIndex, error) {
	db, err := chromem.NewPersistentDB(path, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open chromem database: %w", err)
	}

	metadata := map[string]string{
		"hnsw:space": "cosine",
	}
	// Vectors are always supplied, so no embedding func is configured.
	collection, err := db.GetOrCreateCollection(name, metadata, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open collection %s: %w", name, err)
	}

	idx := &ChromemIndex{db: db, collection: collection, dim: dim}
	metrics.SetIndexVectors(backendChromem, collection.Count())
	logging.Info().
		Str("path", path).
		Str("collection", name).
		Int("vectors", collection.Count()).
		Msg("Chromem collection opened")
	return idx, nil
}

// Name implements Backend.
func (c *ChromemIndex) Name() string { return backendChromem }

// Count implements Backend.
func (c *ChromemIndex) Count() int { return c.collection.Count() }

// Add implements Backend.
func (c *ChromemIndex) Add(ctx context.Context, id int64, vector []float32) error {
	return c.AddBatch(ctx, []int64{id}, [][]float32{vector})
}

// AddBatch adds many vectors using chromem's concurrent document insert.
func (c *ChromemIndex) AddBatch(ctx context.Context, ids []int64, vectors [][]float32) (err error) {
	if len(ids) != len(vectors) {
		return fmt.Errorf("got %d ids for %d vectors", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { observe(backendChromem, "add_batch", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrClosed
	}

	docs := make([]chromem.Document, len(ids))
	for i, id := range ids {
		if err := checkDim(vectors[i], c.dim); err != nil {
			return fmt.Errorf("article %d: %w", id, err)
		}
		unit, err := normalized(vectors[i])
		if err != nil {
			return fmt.Errorf("article %d: %w", id, err)
		}
		docs[i] = chromem.Document{
			ID:        strconv.FormatInt(id, 10),
			Embedding: unit,
		}
	}

	if err := c.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add %d vectors: %w", len(docs), err)
	}
	metrics.SetIndexVectors(backendChromem, c.collection.Count())
	return nil
}

// Reconstruct implements related.VectorIndex.
func (c *ChromemIndex) Reconstruct(ctx context.Context, id int64) (vec []float32, ok bool, err error) {
	start := time.Now()
	defer func() { observe(backendChromem, "reconstruct", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, false, ErrClosed
	}

	doc, err := c.collection.GetByID(ctx, strconv.FormatInt(id, 10))
	if err != nil {
		// chromem reports a missing document with a plain error.
		if strings.Contains(err.Error(), "not found") {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read vector %d: %w", id, err)
	}
	if len(doc.Embedding) == 0 {
		return nil, false, nil
	}
	return doc.Embedding, true, nil
}

// Search implements related.VectorIndex. k is capped at the collection size,
// which chromem requires.
func (c *ChromemIndex) Search(ctx context.Context, vector []float32, k int) (out []models.Neighbor, err error) {
	start := time.Now()
	defer func() { observe(backendChromem, "search", start, err) }()

	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil, ErrClosed
	}

	n := min(k, c.collection.Count())
	if n <= 0 {
		return []models.Neighbor{}, nil
	}
	if err := checkDim(vector, c.dim); err != nil {
		return nil, err
	}
	query, err := normalized(vector)
	if err != nil {
		return nil, err
	}

	results, err := c.collection.QueryEmbedding(ctx, query, n, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query failed: %w", err)
	}

	out = make([]models.Neighbor, 0, len(results))
	for _, r := range results {
		id, err := strconv.ParseInt(r.ID, 10, 64)
		if err != nil {
			logging.Warn().Str("document_id", r.ID).Msg("Skipping chromem document with non-numeric id")
			continue
		}
		d := 1 - float64(r.Similarity)
		if d < 0 {
			d = 0
		}
		out = append(out, models.Neighbor{ID: id, Distance: d})
	}
	sort.SliceStable(out, func(i, j int) bool { return lessNeighbor(out[i], out[j]) })
	return out, nil
}

// Close marks the index closed. chromem persists on every write, so there is
// nothing to flush.
func (c *ChromemIndex) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}
