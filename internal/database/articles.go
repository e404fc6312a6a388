// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/metrics"
	"github.com/tomtom215/wikirelated/internal/models"
)

const articlesTable = "articles"

// maxIDsPerQuery bounds the IN list of a single batch fetch.
const maxIDsPerQuery = 1000

var articleColumns = []string{"article_id", "title", "lookup_title", "pageviews", "backlinks"}

// recordQuery publishes query metrics and flags lost connections.
func recordQuery(operation string, start time.Time, err error) {
	metrics.RecordDBQuery(operation, articlesTable, time.Since(start), err)
	if isConnectionError(err) {
		logging.Error().Err(err).Str("operation", operation).Msg("DuckDB connection lost")
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanArticle(row rowScanner) (models.ArticleRecord, error) {
	var rec models.ArticleRecord
	err := row.Scan(&rec.ID, &rec.Title, &rec.LookupKey, &rec.Pageviews, &rec.Backlinks)
	return rec, err
}

// FindByLookupKey returns the article whose lookup_title equals key.
// A missing row is reported as ok=false with a nil error.
func (db *DB) FindByLookupKey(ctx context.Context, key string) (models.ArticleRecord, bool, error) {
	start := time.Now()

	query, args, err := sq.Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"lookup_title": key}).
		ToSql()
	if err != nil {
		return models.ArticleRecord{}, false, fmt.Errorf("failed to build lookup query: %w", err)
	}

	rec, err := scanArticle(db.conn.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		recordQuery("SELECT", start, nil)
		return models.ArticleRecord{}, false, nil
	}
	recordQuery("SELECT", start, err)
	if err != nil {
		return models.ArticleRecord{}, false, fmt.Errorf("failed to look up %q: %w", key, err)
	}
	return rec, true, nil
}

// FindManyByIDs fetches the records for ids in as few round trips as possible.
// Unknown ids are absent from the returned map.
func (db *DB) FindManyByIDs(ctx context.Context, ids []int64) (map[int64]models.ArticleRecord, error) {
	out := make(map[int64]models.ArticleRecord, len(ids))

	for lo := 0; lo < len(ids); lo += maxIDsPerQuery {
		hi := min(lo+maxIDsPerQuery, len(ids))
		if err := db.findChunk(ctx, ids[lo:hi], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (db *DB) findChunk(ctx context.Context, ids []int64, out map[int64]models.ArticleRecord) (err error) {
	start := time.Now()
	defer func() { recordQuery("SELECT_BATCH", start, err) }()

	// sq.Eq with a slice renders article_id IN (?,?,...)
	query, args, err := sq.Select(articleColumns...).
		From(articlesTable).
		Where(sq.Eq{"article_id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("failed to build batch query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to fetch %d articles: %w", len(ids), err)
	}
	defer closeWithLog(rows, "rows")

	for rows.Next() {
		rec, scanErr := scanArticle(rows)
		if scanErr != nil {
			return fmt.Errorf("failed to scan article: %w", scanErr)
		}
		out[rec.ID] = rec
	}
	if err = rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate articles: %w", err)
	}
	return nil
}

// SampleTitles returns up to limit titles in id order, for not-found diagnostics.
func (db *DB) SampleTitles(ctx context.Context, limit int) (titles []string, err error) {
	if limit <= 0 {
		return []string{}, nil
	}

	start := time.Now()
	defer func() { recordQuery("SELECT_SAMPLE", start, err) }()

	query, args, err := sq.Select("title").
		From(articlesTable).
		OrderBy("article_id").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build sample query: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to sample titles: %w", err)
	}
	defer closeWithLog(rows, "rows")

	titles = make([]string, 0, limit)
	for rows.Next() {
		var title string
		if err = rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("failed to scan title: %w", err)
		}
		titles = append(titles, title)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate titles: %w", err)
	}
	return titles, nil
}

// CountArticles returns the number of stored articles.
func (db *DB) CountArticles(ctx context.Context) (n int64, err error) {
	start := time.Now()
	defer func() { recordQuery("COUNT", start, err) }()

	if err = db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+articlesTable).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count articles: %w", err)
	}
	return n, nil
}
