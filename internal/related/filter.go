// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"strings"

	"github.com/tomtom215/wikirelated/internal/models"
)

// MetaFilter classifies non-article pages by title.
type MetaFilter struct {
	prefixes []string
	markers  []string
}

// NewMetaFilter builds a filter from namespace prefixes and disambiguation markers.
// Matching is case-insensitive and treats "_" and " " alike.
func NewMetaFilter(prefixes, markers []string) *MetaFilter {
	f := &MetaFilter{
		prefixes: make([]string, 0, len(prefixes)),
		markers:  make([]string, 0, len(markers)),
	}
	for _, p := range prefixes {
		if p = foldTitle(p); p != "" {
			f.prefixes = append(f.prefixes, p)
		}
	}
	for _, m := range markers {
		if m = foldTitle(m); m != "" {
			f.markers = append(f.markers, m)
		}
	}
	return f
}

func foldTitle(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, LookupSeparator, " "))
}

// IsExcluded reports whether title names a meta page.
func (f *MetaFilter) IsExcluded(title string) bool {
	folded := foldTitle(title)
	for _, p := range f.prefixes {
		if strings.HasPrefix(folded, p) {
			return true
		}
	}
	for _, m := range f.markers {
		if strings.Contains(folded, m) {
			return true
		}
	}
	return false
}

// Apply returns the candidates whose titles are not excluded, preserving order.
func (f *MetaFilter) Apply(candidates []models.Candidate) []models.Candidate {
	out := make([]models.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if !f.IsExcluded(c.Title) {
			out = append(out, c)
		}
	}
	return out
}
