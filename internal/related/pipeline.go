// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/metrics"
	"github.com/tomtom215/wikirelated/internal/models"
)

// Pipeline answers "which articles are related to this title?".
// It is immutable after construction and safe for concurrent use.
type Pipeline struct {
	config    *Config
	logger    zerolog.Logger
	resolver  *Resolver
	retriever *Retriever
	filter    *MetaFilter
	blender   Blender
	ranker    Ranker
}

// NewPipeline wires the pipeline stages over store and index.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPipeline(cfg *Config, store MetadataStore, index VectorIndex, logger zerolog.Logger) (*Pipeline, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if store == nil {
		return nil, errors.New("metadata store is required")
	}
	if index == nil {
		return nil, errors.New("vector index is required")
	}

	cfg = cfg.Clone()
	return &Pipeline{
		config:    cfg,
		logger:    logger.With().Str("component", "related").Logger(),
		resolver:  NewResolver(store),
		retriever: NewRetriever(index, store),
		filter:    NewMetaFilter(cfg.MetaPrefixes, cfg.DisambiguationMarkers),
		blender:   NewBlender(cfg),
		ranker:    NewRanker(cfg.ResultCount),
	}, nil
}

// Config returns a copy of the pipeline configuration.
func (p *Pipeline) Config() *Config {
	return p.config.Clone()
}

// Related returns the ranked related articles for rawTitle.
// On error no partial result is returned.
func (p *Pipeline) Related(ctx context.Context, rawTitle string) ([]models.RankedResult, error) {
	start := time.Now()

	results, err := p.related(ctx, rawTitle)
	metrics.RecordRelatedRequest(outcomeOf(err), time.Since(start))
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (p *Pipeline) related(ctx context.Context, rawTitle string) ([]models.RankedResult, error) {
	logger := p.requestLogger(ctx)

	article, err := p.resolver.Resolve(ctx, rawTitle)
	if err != nil {
		logger.Debug().Err(err).Str("title", rawTitle).Msg("title not resolved")
		return nil, err
	}

	candidates, stats, err := p.retriever.Retrieve(ctx, article, p.config.PoolSize)
	if err != nil {
		logger.Debug().Err(err).Int64("article_id", article.ID).Msg("candidate retrieval failed")
		return nil, err
	}
	metrics.ObserveCandidatePool("retrieved", len(candidates))

	filtered := p.filter.Apply(candidates)
	metrics.ObserveCandidatePool("filtered", len(filtered))

	results := p.ranker.Rank(p.blender.Blend(filtered))

	logger.Debug().
		Int64("article_id", article.ID).
		Str("lookup_key", article.LookupKey).
		Int("neighbors", stats.Neighbors).
		Int("self_removed", stats.SelfRemoved).
		Int("unknown", stats.Unknown).
		Int("candidates", len(candidates)).
		Int("filtered", len(filtered)).
		Int("returned", len(results)).
		Msg("related articles ranked")

	return results, nil
}

func (p *Pipeline) requestLogger(ctx context.Context) zerolog.Logger {
	if id := logging.RequestIDFromContext(ctx); id != "" {
		return p.logger.With().Str("request_id", id).Logger()
	}
	return p.logger
}

// Pipeline outcome labels.
const (
	OutcomeOK               = "ok"
	OutcomeNotFound         = "not_found"
	OutcomeEmbeddingMissing = "embedding_missing"
	OutcomeUnavailable      = "unavailable"
	OutcomeError            = "error"
)

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, ErrNotFound):
		return OutcomeNotFound
	case errors.Is(err, ErrEmbeddingMissing):
		return OutcomeEmbeddingMissing
	case errors.Is(err, ErrStoreUnavailable):
		return OutcomeUnavailable
	default:
		return OutcomeError
	}
}
