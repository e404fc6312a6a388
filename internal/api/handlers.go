// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package api

import (
	"context"
	"time"

	"github.com/tomtom215/wikirelated/internal/models"
)

// sampleTitleLimit caps the titles listed in a not-found response.
const sampleTitleLimit = 5

// RelatedFinder answers related-article queries.
type RelatedFinder interface {
	Related(ctx context.Context, title string) ([]models.RankedResult, error)
}

// TitleSampler lists a few stored titles for not-found diagnostics.
type TitleSampler interface {
	SampleTitles(ctx context.Context, limit int) ([]string, error)
}

// Pinger reports whether the metadata store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// VectorCounter reports how many vectors the index holds.
type VectorCounter interface {
	Count() int
}

// HandlerDeps are the collaborators of Handler. Samples, DB and Index may
// be nil; the features depending on them are then skipped or report not ready.
type HandlerDeps struct {
	Finder         RelatedFinder
	Samples        TitleSampler
	DB             Pinger
	Index          VectorCounter
	RequestTimeout time.Duration
}

// Handler holds the HTTP handlers.
type Handler struct {
	finder         RelatedFinder
	samples        TitleSampler
	db             Pinger
	index          VectorCounter
	requestTimeout time.Duration
	startTime      time.Time
}

// NewHandler creates the handlers.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		finder:         deps.Finder,
		samples:        deps.Samples,
		db:             deps.DB,
		index:          deps.Index,
		requestTimeout: deps.RequestTimeout,
		startTime:      time.Now(),
	}
}
