// Package rag retrieves stored code snippets for a query and grounds
// answer generation on them.
package rag

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nitobe/mitsukeru/internal/embedding"
	"github.com/nitobe/mitsukeru/internal/models"
	"github.com/nitobe/mitsukeru/internal/storage"
	"github.com/nitobe/mitsukeru/internal/vector"
)

// Corpus is the persistent snippet collection. Rebuild constructs a fresh
// collection and swaps it in; queries running against the previous
// collection finish undisturbed.
type Corpus struct {
	registry *vector.Registry
	store    storage.Store
	embedder embedding.Embedder
	name     string
	logger   *zap.Logger

	mu         sync.RWMutex
	collection *vector.Collection
}

// NewCorpus creates an empty corpus backed by store. Call Rebuild to
// populate it.
func NewCorpus(registry *vector.Registry, store storage.Store, embedder embedding.Embedder, name string, logger *zap.Logger) *Corpus {
	return &Corpus{
		registry: registry,
		store:    store,
		embedder: embedder,
		name:     name,
		logger:   logger,
	}
}

// searchContent composes the text a snippet is embedded under. The
// snippet's code itself is stored as the payload, not embedded.
func searchContent(s *models.Snippet) string {
	parts := []string{
		strings.Join(s.Keywords, " "),
		s.Description,
		s.Category,
	}
	if s.Subcategory != "" {
		parts = append(parts, s.Subcategory)
	}
	parts = append(parts, s.SearchText)
	return strings.Join(parts, " ")
}

// contentHash keys a cached embedding to the content it was computed
// from, so an edited snippet misses the cache and gets re-embedded.
func contentHash(content string) string {
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}

func snippetMetadata(s *models.Snippet) map[string]string {
	keywordsJSON, _ := json.Marshal(s.Keywords)
	depsJSON, _ := json.Marshal(s.Dependencies)
	return map[string]string{
		"category":     s.Category,
		"subcategory":  s.Subcategory,
		"description":  s.Description,
		"language":     s.Language,
		"keywords":     string(keywordsJSON),
		"dependencies": string(depsJSON),
		"difficulty":   s.Difficulty,
	}
}

// Rebuild re-embeds the stored snippets into a new collection and swaps
// it in. Embeddings cached in the store are reused; missing ones are
// computed and cached.
func (c *Corpus) Rebuild(ctx context.Context) error {
	start := time.Now()

	snippets, err := c.store.ListSnippets(ctx)
	if err != nil {
		return fmt.Errorf("failed to list snippets: %w", err)
	}

	units := make([]vector.Unit, 0, len(snippets))
	embedded := 0
	for _, snippet := range snippets {
		content := searchContent(snippet)
		hash := contentHash(content)
		vec, err := c.store.GetEmbedding(ctx, snippet.ID, hash)
		if err != nil {
			return fmt.Errorf("failed to read cached embedding for %s: %w", snippet.ID, err)
		}
		if vec == nil {
			vec, err = c.embedder.Embed(ctx, content)
			if err != nil {
				return fmt.Errorf("failed to embed snippet %s: %w", snippet.ID, err)
			}
			if err := c.store.PutEmbedding(ctx, snippet.ID, hash, vec); err != nil {
				return fmt.Errorf("failed to cache embedding for %s: %w", snippet.ID, err)
			}
			embedded++
		}
		units = append(units, vector.Unit{
			ID:       snippet.ID,
			Vector:   vec,
			Text:     snippet.Code,
			Metadata: snippetMetadata(snippet),
		})
	}

	// Drop the registry entry first so the name is free for the
	// replacement. Queries holding the old handle are unaffected.
	c.registry.Destroy(c.name)
	next, err := c.registry.Create(c.name, vector.LifetimePersistent)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}
	if err := next.Add(units); err != nil {
		c.registry.Destroy(c.name)
		return fmt.Errorf("failed to index snippets: %w", err)
	}

	c.mu.Lock()
	c.collection = next
	c.mu.Unlock()

	c.logger.Info("corpus rebuilt",
		zap.Int("snippets", len(units)),
		zap.Int("embedded", embedded),
		zap.Duration("duration", time.Since(start)))

	return nil
}

// Query searches the corpus. An unbuilt or empty corpus yields no matches.
func (c *Corpus) Query(queryVec []float32, k int, threshold *float64) ([]vector.Match, error) {
	c.mu.RLock()
	collection := c.collection
	c.mu.RUnlock()

	if collection == nil {
		return nil, nil
	}
	results, err := collection.Query([]vector.QuerySpec{{Vector: queryVec, K: k, Threshold: threshold}})
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// Size returns the number of indexed snippets.
func (c *Corpus) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.collection == nil {
		return 0
	}
	return c.collection.Len()
}
