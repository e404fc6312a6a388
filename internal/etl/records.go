// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package etl

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/tomtom215/wikirelated/internal/validation"
)

// maxLineBytes bounds one JSONL record. A 3072-dimension embedding in
// decimal text is well under 1 MiB.
const maxLineBytes = 16 << 20

// ArticleLine is one record of the articles JSONL input.
type ArticleLine struct {
	ID        int64     `json:"id" validate:"gt=0"`
	Title     string    `json:"title" validate:"wikititle"`
	Pageviews int64     `json:"pageviews" validate:"gte=0"`
	Backlinks int64     `json:"backlinks" validate:"gte=0"`
	Text      string    `json:"text"`
	Embedding []float32 `json:"embedding"`
}

// LineError reports a record that could not be decoded or failed validation.
// Readers can continue past it.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error { return e.Err }

// ArticleReader decodes articles JSONL one record at a time.
type ArticleReader struct {
	scanner *bufio.Scanner
	line    int
}

// NewArticleReader reads records from r.
func NewArticleReader(r io.Reader) *ArticleReader {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &ArticleReader{scanner: s}
}

// Next returns the next record. Blank lines are skipped. It returns io.EOF
// after the last record and *LineError for a bad record; any other error
// means the input itself failed.
func (r *ArticleReader) Next() (*ArticleLine, error) {
	for r.scanner.Scan() {
		r.line++
		raw := bytes.TrimSpace(r.scanner.Bytes())
		if len(raw) == 0 {
			continue
		}

		var rec ArticleLine
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, &LineError{Line: r.line, Err: fmt.Errorf("invalid json: %w", err)}
		}
		if verr := validation.ValidateStruct(&rec); verr != nil {
			return nil, &LineError{Line: r.line, Err: verr}
		}
		return &rec, nil
	}
	if err := r.scanner.Err(); err != nil {
		if errors.Is(err, bufio.ErrTooLong) {
			return nil, fmt.Errorf("line %d exceeds %d bytes: %w", r.line+1, maxLineBytes, err)
		}
		return nil, fmt.Errorf("failed to read articles: %w", err)
	}
	return nil, io.EOF
}

// Line returns the number of the last line read.
func (r *ArticleReader) Line() int { return r.line }
