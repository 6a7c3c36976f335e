// Package cli provides output formatting for the Mitsukeru CLI.
package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nitobe/mitsukeru/internal/models"
	"github.com/nitobe/mitsukeru/pkg/utils"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat maps a flag value to an OutputFormat.
func ParseFormat(s string) (OutputFormat, error) {
	switch s {
	case "text", "":
		return OutputText, nil
	case "json":
		return OutputJSON, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

// WriteVerifyReport writes a verification report to w in the given format.
func WriteVerifyReport(w io.Writer, report *models.VerifyReport, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}

	fmt.Fprintf(w, "\nVerified %d sentences in %dms\n\n", report.Sentences, report.QueryTime)
	fmt.Fprintln(w, "--- Overall keyword ranking (by best match) ---")
	for i, entry := range report.OverallTop {
		fmt.Fprintf(w, "%d. %q  similarity=%.4f\n   %s\n",
			i+1, entry.Keyword, entry.Similarity, utils.Truncate(entry.Sentence, 120))
	}
	fmt.Fprintln(w, "\n--- Per-keyword matches ---")
	for _, kw := range report.PerKeyword {
		fmt.Fprintf(w, "%q\n", kw.Keyword)
		if len(kw.Matches) == 0 {
			fmt.Fprintln(w, "   (no matches)")
			continue
		}
		for _, m := range kw.Matches {
			fmt.Fprintf(w, "   similarity=%.4f  %s\n", m.Similarity, utils.Truncate(m.Sentence, 120))
		}
	}
	return nil
}

// WriteRetrieveResponse writes retrieval matches to w in the given format.
func WriteRetrieveResponse(w io.Writer, resp *models.RetrieveResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	fmt.Fprintf(w, "\nFound %d snippets in %dms\n", len(resp.Matches), resp.QueryTime)
	for i, m := range resp.Matches {
		fmt.Fprintf(w, "─────────────────────────────────────────────────────────\n")
		fmt.Fprintf(w, "%d. [%s] %s  similarity=%.4f\n", i+1, m.ID, m.Description, m.Similarity)
		fmt.Fprintf(w, "Category: %s", m.Category)
		if m.Subcategory != "" {
			fmt.Fprintf(w, " / %s", m.Subcategory)
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "\n%s\n", utils.Truncate(m.Code, 400))
	}
	if len(resp.Matches) == 0 {
		fmt.Fprintln(w, "No snippets cleared the similarity threshold.")
	}
	return nil
}

// WriteGenerateResponse writes a generated answer to w in the given format.
func WriteGenerateResponse(w io.Writer, resp *models.GenerateResponse, format OutputFormat) error {
	if format == OutputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(resp)
	}

	if resp.Grounded {
		fmt.Fprintf(w, "\nGrounded on %d snippets:\n", len(resp.Matches))
		for _, m := range resp.Matches {
			fmt.Fprintf(w, "  - [%s] %s (similarity %.4f)\n", m.ID, m.Description, m.Similarity)
		}
	} else {
		fmt.Fprintln(w, "\nNo relevant snippets found; answer is not grounded.")
	}
	fmt.Fprintf(w, "\n%s\n", resp.Answer)
	return nil
}
