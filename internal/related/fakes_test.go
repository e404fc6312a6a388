// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/tomtom215/wikirelated/internal/models"
)

// fakeStore implements MetadataStore for testing.
type fakeStore struct {
	byID         map[int64]models.ArticleRecord
	lookupErr    error
	findManyErr  error
	findManyCall atomic.Int32

	mu      sync.Mutex
	lastIDs []int64
}

func newFakeStore(records ...models.ArticleRecord) *fakeStore {
	s := &fakeStore{byID: make(map[int64]models.ArticleRecord, len(records))}
	for _, r := range records {
		if r.LookupKey == "" {
			r.LookupKey = Normalize(r.Title)
		}
		s.byID[r.ID] = r
	}
	return s
}

func (s *fakeStore) FindByLookupKey(ctx context.Context, key string) (models.ArticleRecord, bool, error) {
	if s.lookupErr != nil {
		return models.ArticleRecord{}, false, s.lookupErr
	}
	for _, r := range s.byID {
		if r.LookupKey == key {
			return r, true, nil
		}
	}
	return models.ArticleRecord{}, false, nil
}

func (s *fakeStore) FindManyByIDs(ctx context.Context, ids []int64) (map[int64]models.ArticleRecord, error) {
	s.findManyCall.Add(1)
	s.mu.Lock()
	s.lastIDs = append([]int64(nil), ids...)
	s.mu.Unlock()

	if s.findManyErr != nil {
		return nil, s.findManyErr
	}
	out := make(map[int64]models.ArticleRecord, len(ids))
	for _, id := range ids {
		if r, ok := s.byID[id]; ok {
			out[id] = r
		}
	}
	return out, nil
}

// fakeIndex implements VectorIndex for testing.
// Vectors carry their article id in the first component so Search can find
// the configured neighbour list for the query.
type fakeIndex struct {
	vectors        map[int64]bool
	neighbors      map[int64][]models.Neighbor
	reconstructErr error
	searchErr      error
	lastK          atomic.Int32
}

func newFakeIndex() *fakeIndex {
	return &fakeIndex{
		vectors:   make(map[int64]bool),
		neighbors: make(map[int64][]models.Neighbor),
	}
}

func (f *fakeIndex) with(id int64, neighbors ...models.Neighbor) *fakeIndex {
	f.vectors[id] = true
	f.neighbors[id] = neighbors
	return f
}

func (f *fakeIndex) Reconstruct(ctx context.Context, id int64) ([]float32, bool, error) {
	if f.reconstructErr != nil {
		return nil, false, f.reconstructErr
	}
	if !f.vectors[id] {
		return nil, false, nil
	}
	return []float32{float32(id), 0, 0}, true, nil
}

func (f *fakeIndex) Search(ctx context.Context, vector []float32, k int) ([]models.Neighbor, error) {
	f.lastK.Store(int32(k))
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	hits := f.neighbors[int64(vector[0])]
	if len(hits) > k {
		hits = hits[:k]
	}
	return append([]models.Neighbor(nil), hits...), nil
}

func nb(id int64, distance float64) models.Neighbor {
	return models.Neighbor{ID: id, Distance: distance}
}

func article(id int64, title string, pageviews int64) models.ArticleRecord {
	return models.ArticleRecord{ID: id, Title: title, LookupKey: Normalize(title), Pageviews: pageviews}
}
