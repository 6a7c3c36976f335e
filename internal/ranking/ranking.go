// Package ranking provides the shared result ranking and aggregation
// used by the verification and retrieval engines.
package ranking

import (
	"sort"

	"github.com/nitobe/mitsukeru/internal/vector"
)

// LabeledRanking pairs a query label (a keyword phrase, for the
// verification engine) with its ranked match list.
type LabeledRanking struct {
	Label   string
	Matches []vector.Match
}

// Best returns the lowest-distance match, or false when the list is empty.
func (r LabeledRanking) Best() (vector.Match, bool) {
	if len(r.Matches) == 0 {
		return vector.Match{}, false
	}
	return r.Matches[0], true
}

// OverallMatch is one entry of an overall-top ranking: a query label
// together with its single best match. Matches beyond the best one do not
// influence the overall ranking (they remain visible in per-label detail).
type OverallMatch struct {
	Label       string
	Distance    float64
	Similarity  float64
	MatchedText string
}

// OverallTop ranks labels by their best match's distance, ascending, and
// truncates to limit. Labels with no matches are skipped. The sort is
// stable, so equal-distance labels keep their input order; since callers
// pass rankings in the fixed keyword order, tied results are
// deterministic.
func OverallTop(rankings []LabeledRanking, limit int) []OverallMatch {
	top := make([]OverallMatch, 0, len(rankings))
	for _, r := range rankings {
		best, ok := r.Best()
		if !ok {
			continue
		}
		top = append(top, OverallMatch{
			Label:       r.Label,
			Distance:    best.Distance,
			Similarity:  best.Similarity,
			MatchedText: best.Text,
		})
	}
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Distance < top[j].Distance
	})
	if limit >= 0 && limit < len(top) {
		top = top[:limit]
	}
	return top
}
