// Package models defines core data structures for snippets, verification
// requests, and retrieval queries.
package models

import "time"

// Snippet is a code example stored in the retrieval corpus.
type Snippet struct {
	ID           string    `json:"id" db:"id"`
	Category     string    `json:"category" db:"category"`
	Subcategory  string    `json:"subcategory" db:"subcategory"`
	Keywords     []string  `json:"keywords" db:"keywords"`
	Description  string    `json:"description" db:"description"`
	SearchText   string    `json:"search_text" db:"search_text"`
	Language     string    `json:"language" db:"language"`
	Code         string    `json:"code" db:"code"`
	Dependencies []string  `json:"dependencies,omitempty" db:"dependencies"`
	Difficulty   string    `json:"difficulty,omitempty" db:"difficulty"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// SnippetFile is the on-disk format for a snippet collection file.
type SnippetFile struct {
	Metadata map[string]interface{} `json:"metadata,omitempty"`
	Snippets []*Snippet             `json:"snippets"`
}
