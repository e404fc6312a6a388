// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package vectorindex

import (
	"container/heap"
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/wikirelated/internal/models"
)

// ctxCheckEvery is how many vectors are scanned between context checks.
const ctxCheckEvery = 4096

// MemoryIndex is an exact nearest-neighbour index over unit vectors.
// It is safe for concurrent use.
type MemoryIndex struct {
	mu   sync.RWMutex
	dim  int
	ids  []int64
	vecs [][]float32
	pos  map[int64]int
}

// NewMemoryIndex creates an empty index. dim 0 adopts the dimension of the first vector.
func NewMemoryIndex(dim int) *MemoryIndex {
	return &MemoryIndex{
		dim: dim,
		pos: make(map[int64]int),
	}
}

// Dimension returns the vector dimension, or 0 while empty and unconfigured.
func (m *MemoryIndex) Dimension() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dim
}

// Count returns the number of vectors.
func (m *MemoryIndex) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.ids)
}

// Add inserts or replaces the vector of id.
func (m *MemoryIndex) Add(_ context.Context, id int64, vector []float32) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.addLocked(id, vector)
}

func (m *MemoryIndex) addLocked(id int64, vector []float32) error {
	if err := checkDim(vector, m.dim); err != nil {
		return err
	}
	unit, err := normalized(vector)
	if err != nil {
		return err
	}
	if m.dim == 0 {
		m.dim = len(vector)
	}

	if i, ok := m.pos[id]; ok {
		m.vecs[i] = unit
		return nil
	}
	m.pos[id] = len(m.ids)
	m.ids = append(m.ids, id)
	m.vecs = append(m.vecs, unit)
	return nil
}

// Reconstruct returns a copy of the stored (normalised) vector of id.
func (m *MemoryIndex) Reconstruct(_ context.Context, id int64) ([]float32, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.pos[id]
	if !ok {
		return nil, false, nil
	}
	out := make([]float32, len(m.vecs[i]))
	copy(out, m.vecs[i])
	return out, true, nil
}

// Search returns up to k nearest neighbours of vector by ascending cosine distance.
func (m *MemoryIndex) Search(ctx context.Context, vector []float32, k int) ([]models.Neighbor, error) {
	if k <= 0 {
		return []models.Neighbor{}, nil
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	if len(m.ids) == 0 {
		return []models.Neighbor{}, nil
	}
	if err := checkDim(vector, m.dim); err != nil {
		return nil, err
	}
	query, err := normalized(vector)
	if err != nil {
		return nil, err
	}

	h := make(neighborHeap, 0, min(k, len(m.ids)))
	for i, v := range m.vecs {
		if i%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		n := models.Neighbor{ID: m.ids[i], Distance: cosineDistance(query, v)}
		if len(h) < k {
			heap.Push(&h, n)
			continue
		}
		if lessNeighbor(n, h[0]) {
			h[0] = n
			heap.Fix(&h, 0)
		}
	}

	out := []models.Neighbor(h)
	sort.Slice(out, func(i, j int) bool { return lessNeighbor(out[i], out[j]) })
	return out, nil
}

// neighborHeap is a max-heap on (distance, id): the root is the worst kept neighbour.
type neighborHeap []models.Neighbor

func (h neighborHeap) Len() int           { return len(h) }
func (h neighborHeap) Less(i, j int) bool { return lessNeighbor(h[j], h[i]) }
func (h neighborHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *neighborHeap) Push(x any) { *h = append(*h, x.(models.Neighbor)) }

func (h *neighborHeap) Pop() any {
	old := *h
	n := old[len(old)-1]
	*h = old[:len(old)-1]
	return n
}
