// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package etl

import (
	"bufio"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"

	"github.com/tomtom215/wikirelated/internal/logging"
	"github.com/tomtom215/wikirelated/internal/related"
)

// Tuples inside the INSERT statements of the MediaWiki SQL dumps.
var (
	// (page_id, page_namespace, 'page_title', ...)
	pageTupleRe = regexp.MustCompile(`\((\d+),(\d+),'((?:[^'\\]|\\.)*)',.*?\)`)
	// (pl_from, pl_namespace, 'pl_title', pl_from_namespace)
	pagelinksTupleRe = regexp.MustCompile(`\((\d+),(\d+),'((?:[^'\\]|\\.)*)',(\d+)\)`)

	sqlUnescaper = strings.NewReplacer(`\\`, `\`, `\'`, `'`, `\"`, `"`)
)

// unescapeSQL undoes the backslash escaping mysqldump applies to string literals.
func unescapeSQL(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	return sqlUnescaper.Replace(s)
}

const (
	articleNamespace = "0"
	insertPrefix     = "INSERT INTO"
)

// BuildTitleIndex maps lookup keys of main-namespace pages to page ids.
func BuildTitleIndex(ctx context.Context, r io.Reader) (map[string]int64, error) {
	index := make(map[string]int64)
	err := eachInsertLine(ctx, r, func(line string) {
		for _, m := range pageTupleRe.FindAllStringSubmatch(line, -1) {
			if m[2] != articleNamespace {
				continue
			}
			id, err := strconv.ParseInt(m[1], 10, 64)
			if err != nil {
				continue
			}
			index[related.Normalize(unescapeSQL(m[3]))] = id
		}
	})
	if err != nil {
		return nil, err
	}
	return index, nil
}

// CountBacklinks counts the links pointing at each main-namespace page in
// index. Links to unknown titles are ignored.
func CountBacklinks(ctx context.Context, r io.Reader, index map[string]int64) (map[int64]int64, error) {
	counts := make(map[int64]int64)
	err := eachInsertLine(ctx, r, func(line string) {
		for _, m := range pagelinksTupleRe.FindAllStringSubmatch(line, -1) {
			if m[2] != articleNamespace {
				continue
			}
			if id, ok := index[related.Normalize(unescapeSQL(m[3]))]; ok {
				counts[id]++
			}
		}
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}

// eachInsertLine calls fn for every INSERT statement line of a SQL dump.
// Dump lines can be megabytes long, so a bufio.Reader is used over a Scanner.
func eachInsertLine(ctx context.Context, r io.Reader, fn func(line string)) error {
	br := bufio.NewReaderSize(r, 4<<20)
	n := 0
	for {
		line, err := br.ReadString('\n')
		if strings.HasPrefix(line, insertPrefix) {
			fn(line)
			n++
			if n%1000 == 0 {
				if cerr := ctx.Err(); cerr != nil {
					return cerr
				}
				logging.Debug().Int("insert_lines", n).Msg("Processing SQL dump")
			}
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read SQL dump: %w", err)
		}
	}
}

// OpenDump opens a dump file, decompressing .gz files on the fly.
func OpenDump(path string) (io.ReadCloser, error) {
	f, err := os.Open(path) //nolint:gosec // operator-supplied dump path
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}
	zr, err := gzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("failed to read gzip header of %s: %w", path, err)
	}
	return &gzipFile{Reader: zr, file: f}, nil
}

type gzipFile struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	zerr := g.Reader.Close()
	ferr := g.file.Close()
	if zerr != nil {
		return zerr
	}
	return ferr
}
