package rag

import (
	"fmt"
	"strings"

	"github.com/nitobe/mitsukeru/internal/models"
)

const ragPromptHeader = `You are an expert code generation assistant. Your task is to generate
high-quality code based on the user's request and the reference examples provided.

### REFERENCE CODE EXAMPLES

The following code snippets are from our codebase. Use them as patterns and references:

`

const ragPromptInstructions = `
---

### USER REQUEST

%s

### INSTRUCTIONS

1. Generate complete, working code that addresses the user's request
2. Follow the patterns and styling conventions from the reference examples
3. Use the same technologies and libraries shown in the examples
4. Make the code production-ready with proper structure

### GENERATED CODE

`

// BuildPrompt renders the grounded generation prompt. The same query and
// matches always produce byte-identical output.
func BuildPrompt(query string, matches []models.RetrievedSnippet) string {
	var b strings.Builder
	b.WriteString(ragPromptHeader)

	for i, m := range matches {
		fmt.Fprintf(&b, "\n---\n**Example %d: %s**\n", i+1, m.Description)
		fmt.Fprintf(&b, "- Category: %s\n", m.Category)
		if m.Subcategory != "" {
			fmt.Fprintf(&b, "- Subcategory: %s\n", m.Subcategory)
		}
		fmt.Fprintf(&b, "- Keywords: %s\n", strings.Join(m.Keywords, ", "))
		fmt.Fprintf(&b, "- Language: %s\n\n", m.Language)
		fmt.Fprintf(&b, "```%s\n%s\n```\n", m.Language, m.Code)
	}

	fmt.Fprintf(&b, ragPromptInstructions, query)
	return b.String()
}

// BuildSimplePrompt renders the fallback prompt used when no snippet
// clears the similarity threshold.
func BuildSimplePrompt(query string) string {
	return fmt.Sprintf(`You are an expert code generation assistant.

Generate complete, working code for the following request:

%s

Provide clean, well-structured code with comments where helpful.
`, query)
}
