// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"context"
	"strings"

	"github.com/tomtom215/wikirelated/internal/models"
)

// LookupSeparator replaces spaces in lookup keys.
const LookupSeparator = "_"

// Normalize maps a title to its lookup key: spaces become underscores and the
// whole string is lower-cased. It is total and idempotent, and the loader uses
// it to derive stored keys, so reads and writes always agree.
func Normalize(title string) string {
	return strings.ToLower(strings.ReplaceAll(title, " ", LookupSeparator))
}

// Resolver maps raw titles to article records by exact lookup-key match.
type Resolver struct {
	store MetadataStore
}

// NewResolver creates a resolver backed by store.
func NewResolver(store MetadataStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve normalizes rawTitle and looks it up.
// It returns *NotFoundError when nothing matches and *StoreUnavailableError
// when the store fails.
func (r *Resolver) Resolve(ctx context.Context, rawTitle string) (models.ArticleRecord, error) {
	key := Normalize(rawTitle)

	record, ok, err := r.store.FindByLookupKey(ctx, key)
	if err != nil {
		return models.ArticleRecord{}, storeUnavailable(StoreMetadata, "find by lookup key", err)
	}
	if !ok {
		return models.ArticleRecord{}, &NotFoundError{Key: key}
	}
	return record, nil
}
