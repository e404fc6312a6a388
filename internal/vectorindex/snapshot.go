// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package vectorindex

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/metrics"
	"github.com/tomtom215/wikirelated/internal/models"
)

const backendMemory = "memory"

// Key prefixes for BadgerDB storage
const (
	vectorKeyPrefix = "vec:"
	dimensionKey    = "meta:dimension"
)

// SnapshotIndex is a MemoryIndex whose vectors are persisted in BadgerDB.
// Opening it loads every stored vector into memory; Add writes through.
type SnapshotIndex struct {
	mem *MemoryIndex
	db  *badger.DB

	mu     sync.RWMutex
	closed bool
}

// OpenSnapshotIndex opens (creating if needed) the snapshot at path and loads it.
// A dim of 0 takes the dimension recorded in the snapshot, if any.
func OpenSnapshotIndex(ctx context.Context, path string, dim int) (*SnapshotIndex, error) {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create snapshot directory %s: %w", path, err)
	}

	opts := badger.DefaultOptions(path)
	opts.Logger = nil
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector snapshot: %w", err)
	}

	idx := &SnapshotIndex{db: db}
	if err := idx.load(ctx, dim); err != nil {
		_ = db.Close()
		return nil, err
	}

	metrics.SetIndexVectors(backendMemory, idx.mem.Count())
	logging.Info().
		Str("path", path).
		Int("vectors", idx.mem.Count()).
		Int("dimension", idx.mem.Dimension()).
		Msg("Vector snapshot loaded")
	return idx, nil
}

func (s *SnapshotIndex) load(ctx context.Context, dim int) error {
	stored, err := s.storedDimension()
	if err != nil {
		return err
	}
	switch {
	case dim == 0:
		dim = stored
	case stored != 0 && stored != dim:
		return fmt.Errorf("%w: snapshot holds %d-dimensional vectors, configured %d", ErrDimensionMismatch, stored, dim)
	}
	s.mem = NewMemoryIndex(dim)

	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(vectorKeyPrefix)
		n := 0
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if n%ctxCheckEvery == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			n++

			item := it.Item()
			id, err := decodeKey(item.Key())
			if err != nil {
				return err
			}
			err = item.Value(func(val []byte) error {
				vec, err := decodeVector(val)
				if err != nil {
					return fmt.Errorf("article %d: %w", id, err)
				}
				return s.mem.addLocked(id, vec)
			})
			if err != nil {
				return fmt.Errorf("failed to load vector: %w", err)
			}
		}
		return nil
	})
}

func (s *SnapshotIndex) storedDimension() (int, error) {
	var dim int
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(dimensionKey))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			if len(val) != 4 {
				return fmt.Errorf("corrupt dimension record of %d bytes", len(val))
			}
			dim = int(binary.BigEndian.Uint32(val))
			return nil
		})
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read snapshot dimension: %w", err)
	}
	return dim, nil
}

// Name implements Backend.
func (s *SnapshotIndex) Name() string { return backendMemory }

// Count implements Backend.
func (s *SnapshotIndex) Count() int { return s.mem.Count() }

// Dimension returns the vector dimension.
func (s *SnapshotIndex) Dimension() int { return s.mem.Dimension() }

// Add persists the vector of id, then makes it searchable.
func (s *SnapshotIndex) Add(ctx context.Context, id int64, vector []float32) (err error) {
	start := time.Now()
	defer func() { observe(backendMemory, "add", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	if err := checkDim(vector, s.mem.Dimension()); err != nil {
		return err
	}
	if _, err := normalized(vector); err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(dimensionKey), encodeDim(len(vector))); err != nil {
			return err
		}
		return txn.Set(encodeKey(id), encodeVector(vector))
	})
	if err != nil {
		return fmt.Errorf("failed to persist vector %d: %w", id, err)
	}

	if err := s.mem.Add(ctx, id, vector); err != nil {
		return err
	}
	metrics.SetIndexVectors(backendMemory, s.mem.Count())
	return nil
}

// AddBatch persists many vectors with one badger write batch.
func (s *SnapshotIndex) AddBatch(ctx context.Context, ids []int64, vectors [][]float32) (err error) {
	if len(ids) != len(vectors) {
		return fmt.Errorf("got %d ids for %d vectors", len(ids), len(vectors))
	}
	if len(ids) == 0 {
		return nil
	}

	start := time.Now()
	defer func() { observe(backendMemory, "add_batch", start, err) }()

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrClosed
	}

	dim := s.mem.Dimension()
	if dim == 0 {
		dim = len(vectors[0])
	}
	for i, v := range vectors {
		if err := checkDim(v, dim); err != nil {
			return fmt.Errorf("article %d: %w", ids[i], err)
		}
		if _, err := normalized(v); err != nil {
			return fmt.Errorf("article %d: %w", ids[i], err)
		}
	}

	wb := s.db.NewWriteBatch()
	defer wb.Cancel()
	if err := wb.Set([]byte(dimensionKey), encodeDim(dim)); err != nil {
		return err
	}
	for i, id := range ids {
		if err := wb.Set(encodeKey(id), encodeVector(vectors[i])); err != nil {
			return fmt.Errorf("failed to stage vector %d: %w", id, err)
		}
	}
	if err := wb.Flush(); err != nil {
		return fmt.Errorf("failed to flush vectors: %w", err)
	}

	for i, id := range ids {
		if err := s.mem.Add(ctx, id, vectors[i]); err != nil {
			return err
		}
	}
	metrics.SetIndexVectors(backendMemory, s.mem.Count())
	return nil
}

// Reconstruct implements related.VectorIndex.
func (s *SnapshotIndex) Reconstruct(ctx context.Context, id int64) (vec []float32, ok bool, err error) {
	start := time.Now()
	defer func() { observe(backendMemory, "reconstruct", start, err) }()

	if s.isClosed() {
		return nil, false, ErrClosed
	}
	return s.mem.Reconstruct(ctx, id)
}

// Search implements related.VectorIndex.
func (s *SnapshotIndex) Search(ctx context.Context, vector []float32, k int) (out []models.Neighbor, err error) {
	start := time.Now()
	defer func() { observe(backendMemory, "search", start, err) }()

	if s.isClosed() {
		return nil, ErrClosed
	}
	return s.mem.Search(ctx, vector, k)
}

func (s *SnapshotIndex) isClosed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.closed
}

// Close closes the snapshot. The in-memory vectors are released with it.
func (s *SnapshotIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

// encodeKey uses big-endian ids so iteration follows id order.
func encodeKey(id int64) []byte {
	key := make([]byte, len(vectorKeyPrefix)+8)
	copy(key, vectorKeyPrefix)
	binary.BigEndian.PutUint64(key[len(vectorKeyPrefix):], uint64(id))
	return key
}

func decodeKey(key []byte) (int64, error) {
	if len(key) != len(vectorKeyPrefix)+8 {
		return 0, fmt.Errorf("malformed vector key of %d bytes", len(key))
	}
	return int64(binary.BigEndian.Uint64(key[len(vectorKeyPrefix):])), nil
}

func encodeDim(dim int) []byte {
	b := make([]byte, 4)
	binary.BigEndian.PutUint32(b, uint32(dim))
	return b
}

// encodeVector stores float32 components little-endian.
func encodeVector(v []float32) []byte {
	b := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(b[4*i:], math.Float32bits(x))
	}
	return b
}

func decodeVector(b []byte) ([]float32, error) {
	if len(b) == 0 || len(b)%4 != 0 {
		return nil, fmt.Errorf("malformed vector of %d bytes", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
