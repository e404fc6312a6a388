// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"testing"

	"github.com/tomtom215/wikirelated/internal/models"
)

func TestMetaFilter_IsExcluded(t *testing.T) {
	t.Parallel()

	f := NewMetaFilter(DefaultMetaPrefixes, DefaultDisambiguationMarkers)

	tests := []struct {
		title string
		want  bool
	}{
		{"Category:Foo", true},
		{"category:foo", true},
		{"CATEGORY:FOO", true},
		{"Talk:Bar", true},
		{"User talk:Someone", true},
		{"User_talk:Someone", true},
		{"File:Picture.jpg", true},
		{"Wikipedia:About", true},
		{"Template:Infobox", true},
		{"Template_talk:Infobox", true},
		{"Category talk:Physicists", true},
		{"Wikipedia talk:About", true},
		{"File talk:Photo.jpg", true},
		{"Image talk:Photo.jpg", true},
		{"Help talk:Editing", true},
		{"Portal talk:Physics", true},
		{"Draft talk:Foo", true},
		{"Module talk:Foo", true},
		{"MediaWiki talk:Common.css", true},
		{"List of physicists", true},
		{"List_of_physicists", true},
		{"Lists of mathematicians", true},
		{"Mercury (disambiguation)", true},
		{"Mercury_(Disambiguation)", true},
		{"Mercury (planet)", false},
		{"Albert Einstein", false},
		{"Listening", false},
		{"Usery", false},
		{"Physics of talk shows", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			t.Parallel()
			if got := f.IsExcluded(tt.title); got != tt.want {
				t.Errorf("IsExcluded(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestMetaFilter_ConfiguredLists(t *testing.T) {
	t.Parallel()

	f := NewMetaFilter([]string{"Portal_"}, []string{"(Surname)", ""})

	if !f.IsExcluded("portal science") {
		t.Error("configured prefix with underscore should match space form")
	}
	if !f.IsExcluded("Smith (surname)") {
		t.Error("configured marker should match case-insensitively")
	}
	if f.IsExcluded("Category:Foo") {
		t.Error("defaults must not apply when a custom list is configured")
	}
	if f.IsExcluded("anything") {
		t.Error("empty marker must be ignored, not match everything")
	}
}

func TestMetaFilter_Apply(t *testing.T) {
	t.Parallel()

	f := NewMetaFilter(DefaultMetaPrefixes, DefaultDisambiguationMarkers)
	in := []models.Candidate{
		{ID: 1, Title: "Physics", Distance: 0.1},
		{ID: 2, Title: "Category:Physics", Distance: 0.2},
		{ID: 3, Title: "Chemistry", Distance: 0.3},
		{ID: 4, Title: "Matter (disambiguation)", Distance: 0.4},
		{ID: 5, Title: "Biology", Distance: 0.5},
	}

	got := f.Apply(in)

	want := []int64{1, 3, 5}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d", len(got), len(want))
	}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %d, want %d", i, got[i].ID, id)
		}
	}
	if len(in) != 5 {
		t.Error("Apply must not modify its input")
	}
}
