// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/tomtom215/wikirelated/internal/embedder"
	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/metrics"
	"github.com/tomtom215/wikirelated/internal/models"
	"github.com/tomtom215/wikirelated/internal/related"
)

// ArticleStore is the metadata side of a load.
type ArticleStore interface {
	LookupKeyOwners(ctx context.Context, keys []string) (map[string]int64, error)
	UpsertArticles(ctx context.Context, recs []models.ArticleRecord) error
}

// VectorWriter is the embedding side of a load.
type VectorWriter interface {
	AddBatch(ctx context.Context, ids []int64, vectors [][]float32) error
}

// LoadStats counts what a load did with each record.
type LoadStats struct {
	Read        int64
	Loaded      int64
	Embedded    int64
	Collisions  int64
	Invalid     int64
	NoEmbedding int64
	StartTime   time.Time
	EndTime     time.Time
}

// Duration returns how long the load took, or has taken so far.
func (s *LoadStats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Loader writes article records and their vectors.
type Loader struct {
	store     ArticleStore
	index     VectorWriter
	embedder  embedder.Embedder
	batchSize int
}

// NewLoader creates a loader. emb may be nil, in which case records without
// a vector are stored without one.
func NewLoader(store ArticleStore, index VectorWriter, emb embedder.Embedder, batchSize int) *Loader {
	if batchSize <= 0 {
		batchSize = 500
	}
	return &Loader{store: store, index: index, embedder: emb, batchSize: batchSize}
}

// pending is a validated record waiting for its batch to be written.
type pending struct {
	rec    models.ArticleRecord
	text   string
	vector []float32
}

// Load reads JSONL records from r until EOF. Bad records are counted and
// skipped; store, index and embedder failures abort the load.
func (l *Loader) Load(ctx context.Context, r io.Reader) (*LoadStats, error) {
	stats := &LoadStats{StartTime: time.Now()}
	reader := NewArticleReader(r)

	batch := make([]pending, 0, l.batchSize)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		err := l.writeBatch(ctx, batch, stats)
		batch = batch[:0]
		return err
	}

	for {
		if err := ctx.Err(); err != nil {
			return stats, err
		}

		line, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		var lineErr *LineError
		if errors.As(err, &lineErr) {
			stats.Read++
			stats.Invalid++
			metrics.RecordLoaderRecords("invalid", 1)
			logging.Warn().Err(lineErr).Msg("Skipping invalid article record")
			continue
		}
		if err != nil {
			return stats, err
		}
		stats.Read++

		batch = append(batch, pending{
			rec: models.ArticleRecord{
				ID:        line.ID,
				Title:     line.Title,
				LookupKey: related.Normalize(line.Title),
				Pageviews: line.Pageviews,
				Backlinks: line.Backlinks,
			},
			text:   line.Text,
			vector: line.Embedding,
		})
		if len(batch) >= l.batchSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}
	if err := flush(); err != nil {
		return stats, err
	}

	stats.EndTime = time.Now()
	logging.Info().
		Int64("read", stats.Read).
		Int64("loaded", stats.Loaded).
		Int64("embedded", stats.Embedded).
		Int64("collisions", stats.Collisions).
		Int64("invalid", stats.Invalid).
		Int64("no_embedding", stats.NoEmbedding).
		Dur("duration", stats.Duration()).
		Msg("Article load complete")
	return stats, nil
}

func (l *Loader) writeBatch(ctx context.Context, batch []pending, stats *LoadStats) error {
	kept, err := l.dropCollisions(ctx, batch, stats)
	if err != nil {
		return err
	}
	if len(kept) == 0 {
		return nil
	}

	if err := l.embedMissing(ctx, kept, stats); err != nil {
		return err
	}

	recs := make([]models.ArticleRecord, len(kept))
	ids := make([]int64, 0, len(kept))
	vecs := make([][]float32, 0, len(kept))
	for i, p := range kept {
		recs[i] = p.rec
		switch {
		case len(p.vector) == 0:
			stats.NoEmbedding++
		case !usableVector(p.vector):
			stats.NoEmbedding++
			logging.Warn().Int64("article_id", p.rec.ID).Msg("Dropping unusable embedding")
		default:
			ids = append(ids, p.rec.ID)
			vecs = append(vecs, p.vector)
		}
	}

	if err := l.store.UpsertArticles(ctx, recs); err != nil {
		return fmt.Errorf("failed to store %d articles: %w", len(recs), err)
	}
	if len(ids) > 0 {
		if err := l.index.AddBatch(ctx, ids, vecs); err != nil {
			return fmt.Errorf("failed to index %d vectors: %w", len(ids), err)
		}
	}

	stats.Loaded += int64(len(recs))
	metrics.RecordLoaderRecords("loaded", len(recs))
	logging.Debug().Int("records", len(recs)).Int("vectors", len(ids)).Msg("Batch written")
	return nil
}

// dropCollisions removes records whose lookup key already belongs to another
// article, either in the store or earlier in the batch. A record may keep
// the key it already owns.
func (l *Loader) dropCollisions(ctx context.Context, batch []pending, stats *LoadStats) ([]pending, error) {
	keys := make([]string, len(batch))
	for i, p := range batch {
		keys[i] = p.rec.LookupKey
	}
	owners, err := l.store.LookupKeyOwners(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to check lookup keys: %w", err)
	}

	claimed := make(map[string]int64, len(batch))
	kept := batch[:0:0]
	for _, p := range batch {
		key, id := p.rec.LookupKey, p.rec.ID
		if owner, ok := owners[key]; ok && owner != id {
			l.skipCollision(p, owner, stats)
			continue
		}
		if owner, ok := claimed[key]; ok && owner != id {
			l.skipCollision(p, owner, stats)
			continue
		}
		claimed[key] = id
		kept = append(kept, p)
	}
	return kept, nil
}

func (l *Loader) skipCollision(p pending, owner int64, stats *LoadStats) {
	stats.Collisions++
	metrics.RecordLoaderRecords("skipped", 1)
	logging.Warn().
		Int64("article_id", p.rec.ID).
		Int64("owner_id", owner).
		Str("lookup_key", p.rec.LookupKey).
		Msg("Skipping record whose lookup key is taken")
}

// embedMissing fills in vectors for records that carry text but no vector.
func (l *Loader) embedMissing(ctx context.Context, batch []pending, stats *LoadStats) error {
	if l.embedder == nil {
		return nil
	}
	var idx []int
	var texts []string
	for i, p := range batch {
		if len(p.vector) == 0 && p.text != "" {
			idx = append(idx, i)
			texts = append(texts, p.text)
		}
	}
	if len(texts) == 0 {
		return nil
	}

	vecs, err := l.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("%s embedding failed: %w", l.embedder.Name(), err)
	}
	if len(vecs) != len(texts) {
		return fmt.Errorf("%s returned %d vectors for %d texts", l.embedder.Name(), len(vecs), len(texts))
	}
	for j, i := range idx {
		batch[i].vector = vecs[j]
	}
	stats.Embedded += int64(len(texts))
	metrics.RecordLoaderRecords("embedded", len(texts))
	return nil
}

// usableVector rejects vectors the index cannot normalise.
func usableVector(v []float32) bool {
	nonZero := false
	for _, x := range v {
		f := float64(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
		if x != 0 {
			nonZero = true
		}
	}
	return nonZero
}
