// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package etl

import (
	"bufio"
	"compress/bzip2"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/related"
)

// Field positions in a pageview_complete line:
//
//	wiki_code article_title page_id user_agent_type daily_total hourly_counts
const (
	pvFieldProject = 0
	pvFieldTitle   = 1
	pvFieldTotal   = 4
	pvMinFields    = 5
)

// PageviewStats summarizes one aggregation run.
type PageviewStats struct {
	Files     int
	Lines     int64
	Matched   int64
	Malformed int64
}

// ParsePageviews adds the daily totals for project found in r to counts,
// keyed by lookup key. Lines of other projects are ignored.
func ParsePageviews(ctx context.Context, r io.Reader, project string, counts map[string]int64, stats *PageviewStats) error {
	br := bufio.NewReaderSize(r, 1<<20)
	prefix := project + " "
	for {
		line, err := br.ReadString('\n')
		if len(line) > 0 {
			stats.Lines++
			if stats.Lines%100_000 == 0 {
				if cerr := ctx.Err(); cerr != nil {
					return cerr
				}
			}
			if strings.HasPrefix(line, prefix) {
				addPageviewLine(line, counts, stats)
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read pageviews: %w", err)
		}
	}
}

func addPageviewLine(line string, counts map[string]int64, stats *PageviewStats) {
	fields := strings.Fields(line)
	if len(fields) < pvMinFields {
		stats.Malformed++
		return
	}
	views, err := strconv.ParseInt(fields[pvFieldTotal], 10, 64)
	if err != nil || views < 0 {
		stats.Malformed++
		return
	}
	key := related.Normalize(fields[pvFieldTitle])
	if key == "" {
		stats.Malformed++
		return
	}
	// One title appears once per user agent type.
	counts[key] += views
	stats.Matched++
}

// AggregatePageviews sums the pageviews of project across dump files.
// Files ending in .bz2 are decompressed on the fly.
func AggregatePageviews(ctx context.Context, paths []string, project string) (map[string]int64, PageviewStats, error) {
	counts := make(map[string]int64)
	var stats PageviewStats
	for _, path := range paths {
		if err := aggregateFile(ctx, path, project, counts, &stats); err != nil {
			return nil, stats, err
		}
		stats.Files++
		logging.Info().
			Str("file", path).
			Int("titles", len(counts)).
			Int64("lines", stats.Lines).
			Msg("Pageview dump aggregated")
	}
	return counts, stats, nil
}

func aggregateFile(ctx context.Context, path, project string, counts map[string]int64, stats *PageviewStats) error {
	f, err := os.Open(path) //nolint:gosec // paths come from the operator's download directory
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	var r io.Reader = f
	if strings.HasSuffix(path, ".bz2") {
		r = bzip2.NewReader(f)
	}
	if err := ParsePageviews(ctx, r, project, counts, stats); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
