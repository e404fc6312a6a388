// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

// Package vectorindex holds the article embedding indexes.
//
// Two backends implement related.VectorIndex:
//
//   - memory: exact cosine search over vectors held in RAM and persisted
//     as a badger snapshot (SnapshotIndex)
//   - chromem: a persistent chromem-go collection (ChromemIndex)
//
// Distances are cosine distances, 1 - cos(a, b), so 0 means identical
// direction. Vectors are unit-normalised on the way in.
package vectorindex

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/wikirelated/internal/config"
	"github.com/tomtom215/wikirelated/internal/metrics"
	"github.com/tomtom215/wikirelated/internal/models"
	"github.com/tomtom215/wikirelated/internal/related"
)

var (
	// ErrDimensionMismatch is returned when a vector's length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrZeroVector is returned for vectors without a direction.
	ErrZeroVector = errors.New("zero vector")

	// ErrClosed is returned by operations on a closed index.
	ErrClosed = errors.New("index closed")
)

// Backend is a vector index the server can query and the loader can fill.
type Backend interface {
	related.VectorIndex

	// Add inserts or replaces the vector of id.
	Add(ctx context.Context, id int64, vector []float32) error
	// AddBatch adds many vectors; a batch with an invalid vector writes nothing.
	AddBatch(ctx context.Context, ids []int64, vectors [][]float32) error
	// Count returns the number of stored vectors.
	Count() int
	// Name identifies the backend in logs and metrics.
	Name() string
	Close() error
}

var (
	_ Backend = (*SnapshotIndex)(nil)
	_ Backend = (*ChromemIndex)(nil)
)

// Open opens the backend selected by cfg.
func Open(ctx context.Context, cfg config.IndexConfig) (Backend, error) {
	switch cfg.Backend {
	case config.IndexBackendMemory:
		idx, err := OpenSnapshotIndex(ctx, cfg.SnapshotPath, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		return idx, nil
	case config.IndexBackendChromem:
		idx, err := OpenChromemIndex(cfg.ChromemPath, cfg.Collection, cfg.Dimensions)
		if err != nil {
			return nil, err
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("unknown index backend %q", cfg.Backend)
	}
}

// normalized returns a unit-length copy of v.
func normalized(v []float32) ([]float32, error) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 || math.IsNaN(sum) || math.IsInf(sum, 0) {
		return nil, ErrZeroVector
	}
	inv := 1 / math.Sqrt(sum)
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(float64(x) * inv)
	}
	return out, nil
}

// checkDim validates v against dim; dim 0 accepts any non-empty vector.
func checkDim(v []float32, dim int) error {
	if len(v) == 0 {
		return fmt.Errorf("%w: empty vector", ErrDimensionMismatch)
	}
	if dim > 0 && len(v) != dim {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(v), dim)
	}
	return nil
}

// cosineDistance of two unit vectors, clamped to [0, 2].
func cosineDistance(a, b []float32) float64 {
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	d := 1 - dot
	switch {
	case d < 0:
		return 0
	case d > 2:
		return 2
	default:
		return d
	}
}

func observe(backend, op string, start time.Time, err error) {
	metrics.RecordVectorOp(backend, op, time.Since(start), err)
}

// lessNeighbor orders by ascending distance, then ascending id.
func lessNeighbor(a, b models.Neighbor) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}
