// Package storage defines the persistence interface for snippets and
// their cached embeddings.
package storage

import (
	"context"

	"github.com/nitobe/mitsukeru/internal/models"
)

// Store defines snippet persistence operations.
type Store interface {
	// Snippet operations
	UpsertSnippet(ctx context.Context, snippet *models.Snippet) error
	GetSnippet(ctx context.Context, id string) (*models.Snippet, error)
	DeleteSnippet(ctx context.Context, id string) error
	ListSnippets(ctx context.Context) ([]*models.Snippet, error)

	// Batch operations
	BatchUpsertSnippets(ctx context.Context, snippets []*models.Snippet) error

	// Embedding cache. Entries are keyed on snippet ID and the hash of
	// the content that was embedded: a lookup with a different hash is a
	// miss, so edited snippets are re-embedded on the next rebuild.
	PutEmbedding(ctx context.Context, snippetID, contentHash string, vector []float32) error
	GetEmbedding(ctx context.Context, snippetID, contentHash string) ([]float32, error)
	DeleteEmbedding(ctx context.Context, snippetID string) error

	// Stats
	CountSnippets(ctx context.Context) (int64, error)

	Close() error
}
