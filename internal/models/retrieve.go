package models

import "fmt"

// RetrieveQuery is a request for snippets relevant to a question.
type RetrieveQuery struct {
	Query     string   `json:"query"`
	TopK      int      `json:"top_k,omitempty"`
	Threshold *float64 `json:"threshold,omitempty"`
}

// Validate ensures the query has valid fields and sets defaults.
func (q *RetrieveQuery) Validate() error {
	if q.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if q.TopK < 0 {
		return fmt.Errorf("top_k must not be negative")
	}
	if q.TopK == 0 {
		q.TopK = 3
	}
	if q.TopK > 20 {
		q.TopK = 20
	}
	if q.Threshold != nil && (*q.Threshold < -1 || *q.Threshold > 1) {
		return fmt.Errorf("threshold must be within [-1, 1]")
	}
	return nil
}

// RetrievedSnippet is a corpus hit returned for a query.
type RetrievedSnippet struct {
	ID          string   `json:"id"`
	Category    string   `json:"category"`
	Subcategory string   `json:"subcategory,omitempty"`
	Description string   `json:"description"`
	Keywords    []string `json:"keywords,omitempty"`
	Language    string   `json:"language,omitempty"`
	Code        string   `json:"code"`
	Distance    float64  `json:"distance"`
	Similarity  float64  `json:"similarity"`
}

// RetrieveResponse is the response for a retrieval request. Matches may be
// empty when nothing clears the similarity threshold.
type RetrieveResponse struct {
	Query     string             `json:"query"`
	Matches   []RetrievedSnippet `json:"matches"`
	QueryTime int64              `json:"query_time_ms"`
}

// GenerateResponse is the response for an answer-generation request.
type GenerateResponse struct {
	Query     string             `json:"query"`
	Answer    string             `json:"answer"`
	Matches   []RetrievedSnippet `json:"matches"`
	Grounded  bool               `json:"grounded"`
	QueryTime int64              `json:"query_time_ms"`
}
