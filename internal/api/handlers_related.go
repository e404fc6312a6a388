// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/models"
	"github.com/tomtom215/wikirelated/internal/related"
	"github.com/tomtom215/wikirelated/internal/validation"
)

// relatedRequest is the validated input of both related endpoints.
type relatedRequest struct {
	Title string `validate:"wikititle"`
}

// Related handles GET /related/{title}. The success body is the bare JSON
// array of results; errors use the standard envelope.
func (h *Handler) Related(w http.ResponseWriter, r *http.Request) {
	h.serveRelated(w, r, func(rw *ResponseWriter, results []models.RankedResult) {
		rw.Raw(http.StatusOK, results)
	})
}

// RelatedV1 handles GET /api/v1/related/{title}, wrapping results in the envelope.
func (h *Handler) RelatedV1(w http.ResponseWriter, r *http.Request) {
	h.serveRelated(w, r, func(rw *ResponseWriter, results []models.RankedResult) {
		n := len(results)
		rw.SuccessWithMeta(results, &APIMeta{Count: &n})
	})
}

func (h *Handler) serveRelated(w http.ResponseWriter, r *http.Request, write func(*ResponseWriter, []models.RankedResult)) {
	rw := NewResponseWriter(w, r)

	title, err := titleParam(r)
	if err != nil {
		rw.ValidationError("title is not valid path-escaped text", map[string]interface{}{"field": "title"})
		return
	}
	if verr := validation.ValidateStruct(&relatedRequest{Title: title}); verr != nil {
		apiErr := verr.ToAPIError()
		rw.ValidationError(apiErr.Message, apiErr.Details)
		return
	}

	ctx := r.Context()
	if h.requestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.requestTimeout)
		defer cancel()
	}

	results, err := h.finder.Related(ctx, title)
	if err != nil {
		h.writeRelatedError(ctx, rw, title, err)
		return
	}
	if results == nil {
		results = []models.RankedResult{}
	}
	write(rw, results)
}

// titleParam returns the decoded wildcard of /related/*. When the request
// path carried escapes such as %2F, chi matches on the raw path and the
// parameter is still escaped.
func titleParam(r *http.Request) (string, error) {
	title := chi.URLParam(r, "*")
	if r.URL.RawPath == "" {
		return title, nil
	}
	return url.PathUnescape(title)
}

func (h *Handler) writeRelatedError(ctx context.Context, rw *ResponseWriter, title string, err error) {
	log := logging.Ctx(ctx)

	var notFound *related.NotFoundError
	var missing *related.EmbeddingMissingError
	var unavailable *related.StoreUnavailableError

	switch {
	case errors.As(err, &notFound):
		log.Debug().Str("title", title).Str("lookup_key", notFound.Key).Msg("Title not found")
		rw.ErrorWithDetails(http.StatusNotFound, ErrCodeNotFound,
			"No article matches this title",
			map[string]interface{}{
				"searched_for":  notFound.Key,
				"sample_titles": h.sampleTitles(ctx),
			})

	case errors.As(err, &missing):
		log.Warn().Int64("article_id", missing.ID).Str("title", missing.Title).Msg("Article has no embedding")
		rw.ErrorWithDetails(http.StatusNotFound, ErrCodeEmbeddingMissing,
			"The article exists but has no embedding",
			map[string]interface{}{
				"article_id": missing.ID,
				"title":      missing.Title,
			})

	case errors.As(err, &unavailable):
		log.Error().Err(err).Str("store", unavailable.Store).Str("operation", unavailable.Op).Msg("Backing store unavailable")
		rw.ErrorWithDetails(http.StatusServiceUnavailable, ErrCodeServiceUnavailable,
			"A backing store is temporarily unavailable",
			map[string]interface{}{"store": unavailable.Store})

	default:
		log.Error().Err(err).Str("title", title).Msg("Related articles request failed")
		rw.InternalError("Internal server error")
	}
}

// sampleTitles never fails the response: diagnostics are best effort.
func (h *Handler) sampleTitles(ctx context.Context) []string {
	if h.samples == nil {
		return []string{}
	}
	titles, err := h.samples.SampleTitles(ctx, sampleTitleLimit)
	if err != nil {
		logging.Ctx(ctx).Warn().Err(err).Msg("Failed to sample titles for not-found response")
		return []string{}
	}
	if titles == nil {
		return []string{}
	}
	return titles
}
