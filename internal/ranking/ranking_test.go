package ranking

import (
	"testing"

	"github.com/nitobe/mitsukeru/internal/vector"
)

func ranked(label string, distances ...float64) LabeledRanking {
	matches := make([]vector.Match, len(distances))
	for i, d := range distances {
		matches[i] = vector.Match{ID: label, Text: "match for " + label, Distance: d, Similarity: 1 - d}
	}
	return LabeledRanking{Label: label, Matches: matches}
}

func TestOverallTop_SortsByBestDistance(t *testing.T) {
	rankings := []LabeledRanking{
		ranked("far", 0.8, 0.9),
		ranked("near", 0.1, 0.7),
		ranked("mid", 0.5),
	}
	top := OverallTop(rankings, 3)
	want := []string{"near", "mid", "far"}
	if len(top) != 3 {
		t.Fatalf("len=%d, want 3", len(top))
	}
	for i, label := range want {
		if top[i].Label != label {
			t.Errorf("rank %d: got %s, want %s", i, top[i].Label, label)
		}
	}
}

func TestOverallTop_OnlyBestMatchCounts(t *testing.T) {
	// "deep" has a better second match than "shallow" has overall, but
	// only the single best match per label enters the overall ranking.
	rankings := []LabeledRanking{
		ranked("shallow", 0.4),
		ranked("deep", 0.5, 0.01),
	}
	top := OverallTop(rankings, 2)
	if top[0].Label != "shallow" {
		t.Errorf("overall top must use best match only, got %s first", top[0].Label)
	}
}

func TestOverallTop_TiesKeepInputOrder(t *testing.T) {
	rankings := []LabeledRanking{
		ranked("cat", 0),
		ranked("dog", 0),
	}
	for i := 0; i < 5; i++ {
		top := OverallTop(rankings, 2)
		if top[0].Label != "cat" || top[1].Label != "dog" {
			t.Fatalf("tie order not deterministic: %s, %s", top[0].Label, top[1].Label)
		}
	}
}

func TestOverallTop_Truncates(t *testing.T) {
	rankings := []LabeledRanking{ranked("a", 0.1), ranked("b", 0.2), ranked("c", 0.3)}
	if top := OverallTop(rankings, 2); len(top) != 2 {
		t.Errorf("len=%d, want 2", len(top))
	}
	if top := OverallTop(rankings, 10); len(top) != 3 {
		t.Errorf("limit above size: len=%d, want 3", len(top))
	}
}

func TestOverallTop_SkipsEmptyRankings(t *testing.T) {
	rankings := []LabeledRanking{
		{Label: "empty"},
		ranked("full", 0.2),
	}
	top := OverallTop(rankings, 5)
	if len(top) != 1 || top[0].Label != "full" {
		t.Errorf("got %v", top)
	}
}
