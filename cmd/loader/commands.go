// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/tomtom215/wikirelated/internal/config"
	"github.com/tomtom215/wikirelated/internal/database"
	"github.com/tomtom215/wikirelated/internal/embedder"
	"github.com/tomtom215/wikirelated/internal/etl"
	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/related"
	"github.com/tomtom215/wikirelated/internal/vectorindex"
)

func openDatabase(cfg *config.Config) (*database.DB, func(), error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, func() {
		if err := db.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing database")
		}
	}, nil
}

// runLoad upserts the articles of a JSONL file ("-" reads stdin).
func runLoad(ctx context.Context, cfg *config.Config, args []string) error {
	in := io.Reader(os.Stdin)
	if args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("failed to open articles file: %w", err)
		}
		defer f.Close()
		in = f
	}

	db, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	index, err := vectorindex.Open(ctx, cfg.Index)
	if err != nil {
		return fmt.Errorf("failed to open vector index: %w", err)
	}
	defer func() {
		if err := index.Close(); err != nil {
			logging.Error().Err(err).Msg("Error closing vector index")
		}
	}()

	emb, err := embedder.New(ctx, &cfg.Loader)
	switch {
	case errors.Is(err, embedder.ErrNoProvider):
		logging.Info().Msg("No embedder configured; records without an embedding are stored without one")
	case err != nil:
		return fmt.Errorf("failed to create embedder: %w", err)
	default:
		defer emb.Close()
		logging.Info().Str("embedder", emb.Name()).Msg("Embedder ready")
	}

	stats, err := etl.NewLoader(db, index, emb, cfg.Loader.BatchSize).Load(ctx, in)
	if stats != nil {
		logging.Info().
			Int64("read", stats.Read).
			Int64("loaded", stats.Loaded).
			Int64("embedded", stats.Embedded).
			Int64("collisions", stats.Collisions).
			Int64("invalid", stats.Invalid).
			Int64("no_embedding", stats.NoEmbedding).
			Int("index_vectors", index.Count()).
			Dur("duration", stats.Duration()).
			Msg("Load finished")
	}
	return err
}

// runPageviews downloads a month of daily dumps and replaces the stored
// pageview counts of every article that appears in them.
func runPageviews(ctx context.Context, cfg *config.Config, args []string) error {
	month := args[0]
	dl := etl.NewDownloader(&cfg.Loader, nil)

	files, err := dl.DayFiles(month)
	if err != nil {
		return err
	}
	dstats, err := dl.DownloadMonth(ctx, month)
	logging.Info().
		Int("downloaded", dstats.Downloaded).
		Int("skipped", dstats.Skipped).
		Int("failed", dstats.Failed).
		Msg("Pageview download finished")
	if err != nil {
		return err
	}

	var paths []string
	for _, f := range files {
		p := dl.LocalPath(f)
		if _, err := os.Stat(p); err == nil {
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return fmt.Errorf("no pageview dumps available for %s", month)
	}

	counts, pstats, err := etl.AggregatePageviews(ctx, paths, cfg.Loader.PageviewsProject)
	if err != nil {
		return err
	}
	logging.Info().
		Int("files", pstats.Files).
		Int64("lines", pstats.Lines).
		Int64("matched", pstats.Matched).
		Int64("malformed", pstats.Malformed).
		Int("titles", len(counts)).
		Msg("Pageviews aggregated")

	db, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	updated, err := db.UpdatePageviews(ctx, counts)
	if err != nil {
		return err
	}
	logging.Info().Int64("updated", updated).Msg("Pageviews stored")
	return nil
}

// runBacklinks counts incoming main-namespace links from the page and
// pagelinks SQL dumps.
func runBacklinks(ctx context.Context, cfg *config.Config, args []string) error {
	pageDump, err := etl.OpenDump(args[0])
	if err != nil {
		return err
	}
	index, err := etl.BuildTitleIndex(ctx, pageDump)
	pageDump.Close()
	if err != nil {
		return fmt.Errorf("failed to read page dump: %w", err)
	}
	logging.Info().Int("pages", len(index)).Msg("Page title index built")

	linkDump, err := etl.OpenDump(args[1])
	if err != nil {
		return err
	}
	counts, err := etl.CountBacklinks(ctx, linkDump, index)
	linkDump.Close()
	if err != nil {
		return fmt.Errorf("failed to read pagelinks dump: %w", err)
	}

	db, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	updated, err := db.SetBacklinks(ctx, counts)
	if err != nil {
		return err
	}
	logging.Info().Int("linked_pages", len(counts)).Int64("updated", updated).Msg("Backlinks stored")
	return nil
}

// runNormalize recomputes every lookup key with the resolver's normalization.
func runNormalize(ctx context.Context, cfg *config.Config, _ []string) error {
	db, closeDB, err := openDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDB()

	res, err := db.RebuildLookupKeys(ctx, related.Normalize)
	if errors.Is(err, database.ErrDuplicateLookupKey) {
		for key, ids := range res.Duplicates {
			logging.Error().Str("lookup_key", key).Ints64("article_ids", ids).Msg("Lookup key collision")
		}
	}
	if err != nil {
		return err
	}
	logging.Info().Int("rows", res.Rows).Int("changed", res.Changed).Msg("Lookup keys rebuilt")
	return nil
}
