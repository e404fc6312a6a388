// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/models"
)

// rowsPerInsert bounds the VALUES list of one multi-row INSERT.
const rowsPerInsert = 500

// withTx runs fn inside a transaction, rolling back on error.
func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logging.Warn().Err(rbErr).Msg("Rollback failed")
		}
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// LookupKeyOwners returns the article id currently holding each of keys.
// Keys not present in the table are absent from the map.
func (db *DB) LookupKeyOwners(ctx context.Context, keys []string) (map[string]int64, error) {
	owners := make(map[string]int64, len(keys))

	for lo := 0; lo < len(keys); lo += maxIDsPerQuery {
		hi := min(lo+maxIDsPerQuery, len(keys))
		start := time.Now()

		query, args, err := sq.Select("lookup_title", "article_id").
			From(articlesTable).
			Where(sq.Eq{"lookup_title": keys[lo:hi]}).
			ToSql()
		if err != nil {
			return nil, fmt.Errorf("failed to build owner query: %w", err)
		}

		err = func() error {
			rows, err := db.conn.QueryContext(ctx, query, args...)
			if err != nil {
				return err
			}
			defer closeWithLog(rows, "rows")
			for rows.Next() {
				var key string
				var id int64
				if err := rows.Scan(&key, &id); err != nil {
					return err
				}
				owners[key] = id
			}
			return rows.Err()
		}()
		recordQuery("SELECT_OWNERS", start, err)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch lookup key owners: %w", err)
		}
	}
	return owners, nil
}

// UpsertArticles inserts records, or refreshes title, pageviews and backlinks
// of existing ids. An existing row keeps its lookup_title; RebuildLookupKeys
// recomputes them. Within one call the last record for an id wins.
func (db *DB) UpsertArticles(ctx context.Context, recs []models.ArticleRecord) error {
	if len(recs) == 0 {
		return nil
	}
	recs = dedupeByID(recs)

	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		for lo := 0; lo < len(recs); lo += rowsPerInsert {
			hi := min(lo+rowsPerInsert, len(recs))

			ins := sq.Insert(articlesTable).Columns(articleColumns...)
			for _, r := range recs[lo:hi] {
				ins = ins.Values(r.ID, r.Title, r.LookupKey, r.Pageviews, r.Backlinks)
			}
			query, args, err := ins.Suffix(
				"ON CONFLICT (article_id) DO UPDATE SET " +
					"title = excluded.title, pageviews = excluded.pageviews, backlinks = excluded.backlinks",
			).ToSql()
			if err != nil {
				return fmt.Errorf("failed to build upsert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				if isConstraintError(err) {
					return fmt.Errorf("%w: %v", ErrDuplicateLookupKey, err)
				}
				return fmt.Errorf("failed to upsert %d articles: %w", hi-lo, err)
			}
		}
		return nil
	})
	recordQuery("UPSERT", start, err)
	return err
}

func dedupeByID(recs []models.ArticleRecord) []models.ArticleRecord {
	pos := make(map[int64]int, len(recs))
	out := make([]models.ArticleRecord, 0, len(recs))
	for _, r := range recs {
		if i, ok := pos[r.ID]; ok {
			out[i] = r
			continue
		}
		pos[r.ID] = len(out)
		out = append(out, r)
	}
	return out
}

// UpdatePageviews sets pageviews for every article whose lookup key appears
// in counts and returns the number of rows changed.
func (db *DB) UpdatePageviews(ctx context.Context, counts map[string]int64) (int64, error) {
	if len(counts) == 0 {
		return 0, nil
	}

	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var updated int64
	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`CREATE TEMP TABLE IF NOT EXISTS pageview_counts (lookup_title VARCHAR, views BIGINT)`); err != nil {
			return fmt.Errorf("failed to create staging table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM pageview_counts`); err != nil {
			return fmt.Errorf("failed to clear staging table: %w", err)
		}

		for lo := 0; lo < len(keys); lo += rowsPerInsert {
			hi := min(lo+rowsPerInsert, len(keys))
			ins := sq.Insert("pageview_counts").Columns("lookup_title", "views")
			for _, k := range keys[lo:hi] {
				ins = ins.Values(k, counts[k])
			}
			query, args, err := ins.ToSql()
			if err != nil {
				return fmt.Errorf("failed to build staging insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to stage pageviews: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, `UPDATE articles SET pageviews = p.views
			FROM pageview_counts p
			WHERE articles.lookup_title = p.lookup_title`)
		if err != nil {
			return fmt.Errorf("failed to apply pageviews: %w", err)
		}
		updated, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DROP TABLE pageview_counts`)
		return err
	})
	recordQuery("UPDATE_PAGEVIEWS", start, err)
	if err != nil {
		return 0, err
	}
	return updated, nil
}

// RebuildResult reports a lookup key rebuild.
type RebuildResult struct {
	Rows    int
	Changed int
	// Duplicates maps a colliding lookup key to the ids that produce it.
	Duplicates map[string][]int64
}

// RebuildLookupKeys recomputes lookup_title from title with normalize for every
// row. Nothing is written when two rows would share a key; the collisions are
// returned with ErrDuplicateLookupKey.
//
// The table is rebuilt into a copy and swapped in, since DuckDB cannot update
// a UNIQUE column in place.
func (db *DB) RebuildLookupKeys(ctx context.Context, normalize func(string) string) (RebuildResult, error) {
	start := time.Now()
	res, err := db.rebuildLookupKeys(ctx, normalize)
	recordQuery("REBUILD_KEYS", start, err)
	return res, err
}

func (db *DB) rebuildLookupKeys(ctx context.Context, normalize func(string) string) (RebuildResult, error) {
	res := RebuildResult{Duplicates: map[string][]int64{}}

	rows, err := db.conn.QueryContext(ctx,
		`SELECT article_id, title, lookup_title, pageviews, backlinks FROM articles ORDER BY article_id`)
	if err != nil {
		return res, fmt.Errorf("failed to read articles: %w", err)
	}

	var recs []models.ArticleRecord
	owners := map[string][]int64{}
	for rows.Next() {
		rec, err := scanArticle(rows)
		if err != nil {
			closeQuietly(rows)
			return res, fmt.Errorf("failed to scan article: %w", err)
		}
		key := normalize(rec.Title)
		if key != rec.LookupKey {
			res.Changed++
		}
		rec.LookupKey = key
		owners[key] = append(owners[key], rec.ID)
		recs = append(recs, rec)
	}
	if err := rows.Err(); err != nil {
		closeQuietly(rows)
		return res, fmt.Errorf("failed to iterate articles: %w", err)
	}
	closeWithLog(rows, "rows")

	res.Rows = len(recs)
	for key, ids := range owners {
		if len(ids) > 1 {
			res.Duplicates[key] = ids
		}
	}
	if len(res.Duplicates) > 0 {
		return res, fmt.Errorf("%w: %d keys are shared by more than one article", ErrDuplicateLookupKey, len(res.Duplicates))
	}
	if res.Changed == 0 {
		return res, nil
	}

	err = db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS articles_rebuild`); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `CREATE TABLE articles_rebuild (
			article_id   BIGINT PRIMARY KEY,
			title        VARCHAR NOT NULL,
			lookup_title VARCHAR NOT NULL UNIQUE,
			pageviews    BIGINT NOT NULL DEFAULT 0,
			backlinks    BIGINT NOT NULL DEFAULT 0
		)`); err != nil {
			return fmt.Errorf("failed to create rebuild table: %w", err)
		}

		for lo := 0; lo < len(recs); lo += rowsPerInsert {
			hi := min(lo+rowsPerInsert, len(recs))
			ins := sq.Insert("articles_rebuild").Columns(articleColumns...)
			for _, r := range recs[lo:hi] {
				ins = ins.Values(r.ID, r.Title, r.LookupKey, r.Pageviews, r.Backlinks)
			}
			query, args, err := ins.ToSql()
			if err != nil {
				return fmt.Errorf("failed to build rebuild insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to copy articles: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DROP TABLE articles`); err != nil {
			return fmt.Errorf("failed to drop old table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `ALTER TABLE articles_rebuild RENAME TO articles`); err != nil {
			return fmt.Errorf("failed to swap tables: %w", err)
		}
		return nil
	})
	return res, err
}

// SetBacklinks resets every backlink count to zero, then applies counts
// keyed by article id. It returns the number of rows given a non-zero count.
func (db *DB) SetBacklinks(ctx context.Context, counts map[int64]int64) (int64, error) {
	ids := make([]int64, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var updated int64
	start := time.Now()
	err := db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `UPDATE articles SET backlinks = 0 WHERE backlinks <> 0`); err != nil {
			return fmt.Errorf("failed to reset backlinks: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}

		if _, err := tx.ExecContext(ctx,
			`CREATE TEMP TABLE IF NOT EXISTS backlink_counts (article_id BIGINT, links BIGINT)`); err != nil {
			return fmt.Errorf("failed to create staging table: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM backlink_counts`); err != nil {
			return fmt.Errorf("failed to clear staging table: %w", err)
		}

		for lo := 0; lo < len(ids); lo += rowsPerInsert {
			hi := min(lo+rowsPerInsert, len(ids))
			ins := sq.Insert("backlink_counts").Columns("article_id", "links")
			for _, id := range ids[lo:hi] {
				ins = ins.Values(id, counts[id])
			}
			query, args, err := ins.ToSql()
			if err != nil {
				return fmt.Errorf("failed to build staging insert: %w", err)
			}
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				return fmt.Errorf("failed to stage backlinks: %w", err)
			}
		}

		res, err := tx.ExecContext(ctx, `UPDATE articles SET backlinks = b.links
			FROM backlink_counts b
			WHERE articles.article_id = b.article_id`)
		if err != nil {
			return fmt.Errorf("failed to apply backlinks: %w", err)
		}
		updated, err = res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		}

		_, err = tx.ExecContext(ctx, `DROP TABLE backlink_counts`)
		return err
	})
	recordQuery("SET_BACKLINKS", start, err)
	if err != nil {
		return 0, err
	}
	return updated, nil
}
