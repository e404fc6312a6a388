// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is matching.
var (
	ErrNotFound         = errors.New("article not found")
	ErrEmbeddingMissing = errors.New("article has no embedding")
	ErrStoreUnavailable = errors.New("backing store unavailable")
)

// NotFoundError reports a title whose normalized key matches no article.
type NotFoundError struct {
	// Key is the normalized lookup key that was searched for.
	Key string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no article with lookup key %q", e.Key)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// EmbeddingMissingError reports a resolved article without a vector in the index.
type EmbeddingMissingError struct {
	ID    int64
	Title string
}

func (e *EmbeddingMissingError) Error() string {
	return fmt.Sprintf("article %d (%q) has no embedding in the vector index", e.ID, e.Title)
}

// Is reports whether target is ErrEmbeddingMissing.
func (e *EmbeddingMissingError) Is(target error) bool {
	return target == ErrEmbeddingMissing
}

// Backing store names used in StoreUnavailableError.
const (
	StoreMetadata    = "metadata_store"
	StoreVectorIndex = "vector_index"
)

// StoreUnavailableError wraps an I/O failure of the metadata store or the vector index.
type StoreUnavailableError struct {
	Store string
	Op    string
	Err   error
}

func (e *StoreUnavailableError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Store, e.Op, e.Err)
}

func (e *StoreUnavailableError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrStoreUnavailable.
func (e *StoreUnavailableError) Is(target error) bool {
	return target == ErrStoreUnavailable
}

func storeUnavailable(store, op string, err error) *StoreUnavailableError {
	return &StoreUnavailableError{Store: store, Op: op, Err: err}
}
