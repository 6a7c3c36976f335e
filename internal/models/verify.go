package models

import "fmt"

// VerifyRequest asks how strongly a document reflects the configured
// keyword set.
type VerifyRequest struct {
	Document     string `json:"document"`
	NumResults   int    `json:"num_results,omitempty"`
	TopSentences int    `json:"top_sentences,omitempty"`
}

// Validate normalizes request fields. Document emptiness is checked by the
// segmentation step, which sees the trimmed text.
func (r *VerifyRequest) Validate() error {
	if r.NumResults < 0 || r.TopSentences < 0 {
		return fmt.Errorf("num_results and top_sentences must not be negative")
	}
	if r.NumResults == 0 {
		r.NumResults = 3
	}
	if r.TopSentences == 0 {
		r.TopSentences = 1
	}
	return nil
}

// KeywordMatch is one sentence matched against a keyword phrase.
type KeywordMatch struct {
	Sentence   string  `json:"sentence"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
}

// KeywordRanking lists the closest sentences for one keyword phrase.
type KeywordRanking struct {
	Keyword string         `json:"keyword"`
	Matches []KeywordMatch `json:"matches"`
}

// OverallEntry ranks a keyword phrase by its single best sentence match.
type OverallEntry struct {
	Keyword    string  `json:"keyword"`
	Distance   float64 `json:"distance"`
	Similarity float64 `json:"similarity"`
	Sentence   string  `json:"sentence"`
}

// VerifyReport is the full verification response: per-keyword rankings
// plus an overall ranking of keywords by best match.
type VerifyReport struct {
	Sentences  int              `json:"sentences"`
	PerKeyword []KeywordRanking `json:"per_keyword"`
	OverallTop []OverallEntry   `json:"overall_top"`
	QueryTime  int64            `json:"query_time_ms"`
}
