// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package vectorindex

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/tomtom215/wikirelated/internal/config"
)

func TestSnapshotIndex_PersistsAcrossReopen(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "vectors")

	idx, err := OpenSnapshotIndex(ctx, dir, 0)
	if err != nil {
		t.Fatalf("OpenSnapshotIndex() error = %v", err)
	}
	mustAdd(t, idx, 1, []float32{1, 0, 0})
	if err := idx.AddBatch(ctx, []int64{2, 3}, [][]float32{{0, 1, 0}, {0, 0, 1}}); err != nil {
		t.Fatalf("AddBatch() error = %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	idx, err = OpenSnapshotIndex(ctx, dir, 0)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer idx.Close()

	if idx.Count() != 3 {
		t.Errorf("Count() = %d, want 3", idx.Count())
	}
	if idx.Dimension() != 3 {
		t.Errorf("Dimension() = %d, want 3", idx.Dimension())
	}

	got, err := idx.Search(ctx, []float32{0, 0, 5}, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 3 {
		t.Errorf("Search() = %v, want id 3", got)
	}

	if _, ok, err := idx.Reconstruct(ctx, 2); !ok || err != nil {
		t.Errorf("Reconstruct(2) = %v, %v", ok, err)
	}
}

func TestSnapshotIndex_DimensionConflict(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	idx, err := OpenSnapshotIndex(ctx, dir, 2)
	if err != nil {
		t.Fatal(err)
	}
	mustAdd(t, idx, 1, []float32{1, 0})
	if err := idx.Add(ctx, 2, []float32{1, 0, 0}); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("Add() wrong dimension error = %v", err)
	}
	_ = idx.Close()

	if _, err := OpenSnapshotIndex(ctx, dir, 3); !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("reopen with different dimension error = %v", err)
	}
}

func TestSnapshotIndex_BatchRejectsWholeBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	idx, err := OpenSnapshotIndex(ctx, t.TempDir(), 2)
	if err != nil {
		t.Fatal(err)
	}
	defer idx.Close()

	err = idx.AddBatch(ctx, []int64{1, 2}, [][]float32{{1, 0}, {0, 0}})
	if !errors.Is(err, ErrZeroVector) {
		t.Fatalf("error = %v, want ErrZeroVector", err)
	}
	if idx.Count() != 0 {
		t.Errorf("Count() = %d; a rejected batch must write nothing", idx.Count())
	}

	if err := idx.AddBatch(ctx, []int64{1}, nil); err == nil {
		t.Error("mismatched ids and vectors must fail")
	}
}

func TestSnapshotIndex_ClosedReturnsErrClosed(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	idx, err := OpenSnapshotIndex(ctx, t.TempDir(), 2)
	if err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Fatal(err)
	}
	if err := idx.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}

	if _, _, err := idx.Reconstruct(ctx, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Reconstruct() error = %v", err)
	}
	if _, err := idx.Search(ctx, []float32{1, 0}, 1); !errors.Is(err, ErrClosed) {
		t.Errorf("Search() error = %v", err)
	}
	if err := idx.Add(ctx, 1, []float32{1, 0}); !errors.Is(err, ErrClosed) {
		t.Errorf("Add() error = %v", err)
	}
}

func TestVectorCodec(t *testing.T) {
	t.Parallel()

	in := []float32{0.25, -1.5, 3.0e-7}
	out, err := decodeVector(encodeVector(in))
	if err != nil {
		t.Fatal(err)
	}
	for i := range in {
		if in[i] != out[i] {
			t.Errorf("component %d = %v, want %v", i, out[i], in[i])
		}
	}
	if _, err := decodeVector([]byte{1, 2, 3}); err == nil {
		t.Error("truncated vector must fail")
	}

	for _, id := range []int64{0, 1, 1 << 40} {
		got, err := decodeKey(encodeKey(id))
		if err != nil || got != id {
			t.Errorf("key round trip of %d = %d, %v", id, got, err)
		}
	}
}

func TestOpen_SelectsBackend(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	dir := t.TempDir()

	mem, err := Open(ctx, config.IndexConfig{Backend: config.IndexBackendMemory, SnapshotPath: filepath.Join(dir, "snap")})
	if err != nil {
		t.Fatalf("Open(memory) error = %v", err)
	}
	defer mem.Close()
	if mem.Name() != "memory" {
		t.Errorf("Name() = %s", mem.Name())
	}

	ch, err := Open(ctx, config.IndexConfig{Backend: config.IndexBackendChromem, ChromemPath: filepath.Join(dir, "chromem"), Collection: "articles"})
	if err != nil {
		t.Fatalf("Open(chromem) error = %v", err)
	}
	defer ch.Close()
	if ch.Name() != "chromem" {
		t.Errorf("Name() = %s", ch.Name())
	}

	if _, err := Open(ctx, config.IndexConfig{Backend: "faiss"}); err == nil {
		t.Error("unknown backend must fail")
	}
}
