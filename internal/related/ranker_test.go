// Wikirelated - Related Wikipedia Article Service
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/wikirelated

package related

import (
	"testing"

	"github.com/tomtom215/wikirelated/internal/models"
)

func scored(title string, distance, final float64) models.ScoredCandidate {
	return models.ScoredCandidate{
		Candidate: models.Candidate{Title: title, Distance: distance},
		Final:     final,
		Score:     PresentationScore(final),
	}
}

func TestRanker_SortsDescending(t *testing.T) {
	t.Parallel()

	in := []models.ScoredCandidate{
		scored("low", 0.1, 0.30),
		scored("high", 0.3, 0.90),
		scored("mid", 0.2, 0.60),
	}

	got := NewRanker(7).Rank(in)

	want := []string{"high", "mid", "low"}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("rank[%d] = %q, want %q", i, got[i].Title, title)
		}
	}
	if got[0].Score != 90 {
		t.Errorf("rank[0].Score = %d, want 90", got[0].Score)
	}
	if in[0].Title != "low" {
		t.Error("Rank must not reorder its input")
	}
}

func TestRanker_TieBreaksByDistance(t *testing.T) {
	t.Parallel()

	in := []models.ScoredCandidate{
		scored("farther", 0.4, 0.5),
		scored("closer", 0.2, 0.5),
		scored("same-distance-first", 0.3, 0.5),
		scored("same-distance-second", 0.3, 0.5),
	}

	got := NewRanker(7).Rank(in)

	want := []string{"closer", "same-distance-first", "same-distance-second", "farther"}
	for i, title := range want {
		if got[i].Title != title {
			t.Errorf("rank[%d] = %q, want %q", i, got[i].Title, title)
		}
	}
}

func TestRanker_ResultSize(t *testing.T) {
	t.Parallel()

	for n := 0; n <= 12; n++ {
		in := make([]models.ScoredCandidate, n)
		for i := range in {
			in[i] = scored("t", float64(i)/100, 1-float64(i)/100)
		}

		got := NewRanker(7).Rank(in)

		want := n
		if want > 7 {
			want = 7
		}
		if len(got) != want {
			t.Errorf("n=%d: len = %d, want %d", n, len(got), want)
		}
	}
}

func TestRanker_EmptyIsNotNil(t *testing.T) {
	t.Parallel()

	got := NewRanker(7).Rank(nil)
	if got == nil {
		t.Fatal("Rank(nil) returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("len = %d, want 0", len(got))
	}
}
