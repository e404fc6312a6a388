// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"context"
	"errors"
	"testing"
)

func TestRetriever_RemovesSelfByID(t *testing.T) {
	t.Parallel()

	query := article(1, "Physics", 1000)
	store := newFakeStore(query, article(2, "Chemistry", 10), article(3, "Biology", 10))
	// Self is not the first hit: the index is approximate.
	index := newFakeIndex().with(1, nb(2, 0.05), nb(1, 0.06), nb(3, 0.2))

	r := NewRetriever(index, store)
	got, stats, err := r.Retrieve(context.Background(), query, 10)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}

	for _, c := range got {
		if c.ID == query.ID {
			t.Fatal("query article appeared in its own candidate pool")
		}
	}
	if len(got) != 2 || got[0].ID != 2 || got[1].ID != 3 {
		t.Errorf("candidates = %+v, want ids [2 3]", got)
	}
	if stats.SelfRemoved != 1 {
		t.Errorf("SelfRemoved = %d, want 1", stats.SelfRemoved)
	}
}

func TestRetriever_SelfAbsentLeavesPoolShort(t *testing.T) {
	t.Parallel()

	query := article(1, "Physics", 1000)
	store := newFakeStore(query, article(2, "A", 1), article(3, "B", 1), article(4, "C", 1))
	index := newFakeIndex().with(1, nb(2, 0.1), nb(3, 0.2), nb(4, 0.3))

	r := NewRetriever(index, store)
	got, _, err := r.Retrieve(context.Background(), query, 2)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}

	if k := index.lastK.Load(); k != 3 {
		t.Errorf("search k = %d, want pool+1 = 3", k)
	}
	if len(got) != 2 {
		t.Errorf("len(candidates) = %d, want pool size 2", len(got))
	}
}

func TestRetriever_DropsUnknownIDsSilently(t *testing.T) {
	t.Parallel()

	query := article(1, "Physics", 1000)
	store := newFakeStore(query, article(3, "Known", 5))
	index := newFakeIndex().with(1, nb(1, 0), nb(2, 0.1), nb(3, 0.2), nb(99, 0.3))

	r := NewRetriever(index, store)
	got, stats, err := r.Retrieve(context.Background(), query, 50)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}

	if len(got) != 1 || got[0].ID != 3 {
		t.Fatalf("candidates = %+v, want only id 3", got)
	}
	if got[0].Title != "Known" || got[0].Pageviews != 5 || got[0].Distance != 0.2 {
		t.Errorf("candidate fields not joined from record: %+v", got[0])
	}
	if stats.Unknown != 2 {
		t.Errorf("Unknown = %d, want 2", stats.Unknown)
	}
	if calls := store.findManyCall.Load(); calls != 1 {
		t.Errorf("FindManyByIDs calls = %d, want a single batch call", calls)
	}
	for _, id := range store.lastIDs {
		if id == query.ID {
			t.Error("query id was sent to the batch fetch")
		}
	}
}

func TestRetriever_PreservesDistanceOrder(t *testing.T) {
	t.Parallel()

	query := article(10, "Q", 0)
	store := newFakeStore(query, article(11, "a", 0), article(12, "b", 0), article(13, "c", 0))
	index := newFakeIndex().with(10, nb(12, 0.1), nb(11, 0.2), nb(10, 0.25), nb(13, 0.3))

	got, _, err := NewRetriever(index, store).Retrieve(context.Background(), query, 50)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}

	want := []int64{12, 11, 13}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("candidate[%d] = %d, want %d", i, got[i].ID, id)
		}
	}
}

func TestRetriever_DeduplicatesRepeatedHits(t *testing.T) {
	t.Parallel()

	query := article(1, "Q", 0)
	store := newFakeStore(query, article(2, "a", 0))
	index := newFakeIndex().with(1, nb(2, 0.1), nb(2, 0.1))

	got, stats, err := NewRetriever(index, store).Retrieve(context.Background(), query, 50)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("len = %d, want 1", len(got))
	}
	if stats.Duplicates != 1 {
		t.Errorf("Duplicates = %d, want 1", stats.Duplicates)
	}
}

func TestRetriever_OnlySelf(t *testing.T) {
	t.Parallel()

	query := article(1, "Lonely", 0)
	store := newFakeStore(query)
	index := newFakeIndex().with(1, nb(1, 0))

	got, _, err := NewRetriever(index, store).Retrieve(context.Background(), query, 50)
	if err != nil {
		t.Fatalf("Retrieve error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
	if calls := store.findManyCall.Load(); calls != 0 {
		t.Errorf("FindManyByIDs called %d times with nothing to fetch", calls)
	}
}

func TestRetriever_Errors(t *testing.T) {
	t.Parallel()

	query := article(1, "Physics", 0)
	ioErr := errors.New("io failure")

	tests := []struct {
		name      string
		setup     func(*fakeIndex, *fakeStore)
		wantIs    error
		wantStore string
	}{
		{
			name:   "embedding missing",
			setup:  func(ix *fakeIndex, _ *fakeStore) { delete(ix.vectors, 1) },
			wantIs: ErrEmbeddingMissing,
		},
		{
			name:      "reconstruct failure",
			setup:     func(ix *fakeIndex, _ *fakeStore) { ix.reconstructErr = ioErr },
			wantIs:    ErrStoreUnavailable,
			wantStore: StoreVectorIndex,
		},
		{
			name:      "search failure",
			setup:     func(ix *fakeIndex, _ *fakeStore) { ix.searchErr = ioErr },
			wantIs:    ErrStoreUnavailable,
			wantStore: StoreVectorIndex,
		},
		{
			name:      "batch fetch failure",
			setup:     func(_ *fakeIndex, s *fakeStore) { s.findManyErr = ioErr },
			wantIs:    ErrStoreUnavailable,
			wantStore: StoreMetadata,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			store := newFakeStore(query, article(2, "Chemistry", 0))
			index := newFakeIndex().with(1, nb(2, 0.1))
			tt.setup(index, store)

			got, _, err := NewRetriever(index, store).Retrieve(context.Background(), query, 50)
			if got != nil {
				t.Errorf("expected no partial candidates, got %+v", got)
			}
			if !errors.Is(err, tt.wantIs) {
				t.Fatalf("error = %v, want %v", err, tt.wantIs)
			}
			if tt.wantStore != "" {
				var su *StoreUnavailableError
				if !errors.As(err, &su) {
					t.Fatalf("expected *StoreUnavailableError, got %T", err)
				}
				if su.Store != tt.wantStore {
					t.Errorf("Store = %q, want %q", su.Store, tt.wantStore)
				}
				if !errors.Is(err, ioErr) {
					t.Error("underlying error not wrapped")
				}
			}
		})
	}
}

func TestRetriever_EmbeddingMissingDetails(t *testing.T) {
	t.Parallel()

	query := article(42, "Orphan Page", 0)
	_, _, err := NewRetriever(newFakeIndex(), newFakeStore(query)).Retrieve(context.Background(), query, 50)

	var em *EmbeddingMissingError
	if !errors.As(err, &em) {
		t.Fatalf("expected *EmbeddingMissingError, got %v", err)
	}
	if em.ID != 42 || em.Title != "Orphan Page" {
		t.Errorf("EmbeddingMissingError = %+v", em)
	}
	if errors.Is(err, ErrNotFound) {
		t.Error("embedding missing must be distinct from not found")
	}
}

var _ VectorIndex = (*fakeIndex)(nil)
var _ MetadataStore = (*fakeStore)(nil)
