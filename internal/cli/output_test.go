package cli

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/nitobe/mitsukeru/internal/models"
)

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("json"); err != nil || f != OutputJSON {
		t.Errorf("json: %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != OutputText {
		t.Errorf("empty: %v, %v", f, err)
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteVerifyReportText(t *testing.T) {
	report := &models.VerifyReport{
		Sentences: 2,
		PerKeyword: []models.KeywordRanking{
			{Keyword: "feline pet", Matches: []models.KeywordMatch{
				{Sentence: "I own a cat.", Similarity: 0.97},
			}},
			{Keyword: "canine pet", Matches: nil},
		},
		OverallTop: []models.OverallEntry{
			{Keyword: "feline pet", Similarity: 0.97, Sentence: "I own a cat."},
		},
	}

	var buf bytes.Buffer
	if err := WriteVerifyReport(&buf, report, OutputText); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if !strings.Contains(out, `"feline pet"`) || !strings.Contains(out, "I own a cat.") {
		t.Errorf("output missing content:\n%s", out)
	}
	if !strings.Contains(out, "(no matches)") {
		t.Errorf("empty keyword ranking not rendered:\n%s", out)
	}
}

func TestWriteRetrieveResponseJSON(t *testing.T) {
	resp := &models.RetrieveResponse{
		Query: "q",
		Matches: []models.RetrievedSnippet{
			{ID: "a", Description: "Sort", Code: "x.sort()", Similarity: 0.9},
		},
	}

	var buf bytes.Buffer
	if err := WriteRetrieveResponse(&buf, resp, OutputJSON); err != nil {
		t.Fatal(err)
	}
	var decoded models.RetrieveResponse
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if len(decoded.Matches) != 1 || decoded.Matches[0].ID != "a" {
		t.Errorf("decoded: %+v", decoded)
	}
}

func TestWriteGenerateResponseText(t *testing.T) {
	var buf bytes.Buffer
	err := WriteGenerateResponse(&buf, &models.GenerateResponse{
		Answer:   "use sort()",
		Grounded: false,
	}, OutputText)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "not grounded") {
		t.Errorf("output: %s", buf.String())
	}
	if !strings.Contains(buf.String(), "use sort()") {
		t.Errorf("answer missing: %s", buf.String())
	}
}
