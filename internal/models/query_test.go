package models

import (
	"testing"
)

func TestRetrieveQuery_Validate(t *testing.T) {
	tests := []struct {
		name    string
		query   *RetrieveQuery
		wantErr bool
	}{
		{"empty query", &RetrieveQuery{Query: ""}, true},
		{"valid query", &RetrieveQuery{Query: "how do I sort a list"}, false},
		{"sets default top_k", &RetrieveQuery{Query: "x", TopK: 0}, false},
		{"caps top_k at 20", &RetrieveQuery{Query: "x", TopK: 50}, false},
		{"negative top_k", &RetrieveQuery{Query: "x", TopK: -1}, true},
		{"threshold out of range", &RetrieveQuery{Query: "x", Threshold: floatPtr(2)}, true},
		{"threshold in range", &RetrieveQuery{Query: "x", Threshold: floatPtr(0.5)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if tt.query.TopK == 0 {
					t.Error("expected default top_k to be set")
				}
				if tt.query.TopK > 20 {
					t.Errorf("expected top_k capped at 20, got %d", tt.query.TopK)
				}
			}
		})
	}
}

func TestVerifyRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     *VerifyRequest
		wantErr bool
	}{
		{"defaults applied", &VerifyRequest{Document: "text"}, false},
		{"explicit values kept", &VerifyRequest{Document: "text", NumResults: 5, TopSentences: 2}, false},
		{"negative num_results", &VerifyRequest{Document: "text", NumResults: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if tt.req.NumResults == 0 || tt.req.TopSentences == 0 {
					t.Error("expected defaults for num_results and top_sentences")
				}
			}
		})
	}

	t.Run("explicit values survive", func(t *testing.T) {
		req := &VerifyRequest{Document: "text", NumResults: 5, TopSentences: 2}
		if err := req.Validate(); err != nil {
			t.Fatalf("Validate() error = %v", err)
		}
		if req.NumResults != 5 || req.TopSentences != 2 {
			t.Errorf("explicit values changed: %+v", req)
		}
	})
}

func floatPtr(v float64) *float64 { return &v }
