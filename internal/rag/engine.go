package rag

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/nitobe/mitsukeru/internal/embedding"
	"github.com/nitobe/mitsukeru/internal/generate"
	"github.com/nitobe/mitsukeru/internal/models"
	"github.com/nitobe/mitsukeru/internal/vector"
)

// EngineConfig sets retrieval defaults. A nil SimilarityThreshold means
// unset; zero is a valid threshold.
type EngineConfig struct {
	TopK                int
	SimilarityThreshold *float64
}

// Engine answers queries against the snippet corpus. Retrieval that
// matches nothing is a normal outcome: generation falls back to an
// ungrounded prompt.
type Engine struct {
	corpus    *Corpus
	embedder  embedding.Embedder
	generator generate.Generator
	config    EngineConfig
	logger    *zap.Logger
}

// NewEngine creates a retrieval engine.
func NewEngine(corpus *Corpus, embedder embedding.Embedder, generator generate.Generator, config EngineConfig, logger *zap.Logger) *Engine {
	if config.TopK <= 0 {
		config.TopK = 3
	}
	if config.SimilarityThreshold == nil {
		threshold := 0.5
		config.SimilarityThreshold = &threshold
	}
	return &Engine{
		corpus:    corpus,
		embedder:  embedder,
		generator: generator,
		config:    config,
		logger:    logger,
	}
}

// Retrieve returns the snippets most similar to the query. Engine defaults
// fill in an unset top-k or threshold.
func (e *Engine) Retrieve(ctx context.Context, query *models.RetrieveQuery) (*models.RetrieveResponse, error) {
	start := time.Now()
	if err := query.Validate(); err != nil {
		return nil, err
	}

	threshold := *e.config.SimilarityThreshold
	if query.Threshold != nil {
		threshold = *query.Threshold
	}

	queryVec, err := e.embedder.Embed(ctx, query.Query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	hits, err := e.corpus.Query(queryVec, query.TopK, &threshold)
	if err != nil {
		return nil, fmt.Errorf("corpus query failed: %w", err)
	}

	matches := make([]models.RetrievedSnippet, 0, len(hits))
	for _, hit := range hits {
		matches = append(matches, toRetrievedSnippet(hit))
	}

	e.logger.Debug("retrieved snippets",
		zap.String("query", query.Query),
		zap.Int("matches", len(matches)),
		zap.Float64("threshold", threshold))

	return &models.RetrieveResponse{
		Query:     query.Query,
		Matches:   matches,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// Answer retrieves snippets for the query and generates a completion
// grounded on them. With no matches the simple prompt is used instead.
func (e *Engine) Answer(ctx context.Context, query *models.RetrieveQuery) (*models.GenerateResponse, error) {
	start := time.Now()

	retrieved, err := e.Retrieve(ctx, query)
	if err != nil {
		return nil, err
	}

	var prompt string
	grounded := len(retrieved.Matches) > 0
	if grounded {
		prompt = BuildPrompt(query.Query, retrieved.Matches)
	} else {
		prompt = BuildSimplePrompt(query.Query)
	}

	answer, err := e.generator.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("generation failed: %w", err)
	}

	return &models.GenerateResponse{
		Query:     query.Query,
		Answer:    answer,
		Matches:   retrieved.Matches,
		Grounded:  grounded,
		QueryTime: time.Since(start).Milliseconds(),
	}, nil
}

// CorpusSize returns the number of indexed snippets.
func (e *Engine) CorpusSize() int {
	return e.corpus.Size()
}

func toRetrievedSnippet(hit vector.Match) models.RetrievedSnippet {
	return models.RetrievedSnippet{
		ID:          hit.ID,
		Code:        hit.Text,
		Distance:    hit.Distance,
		Similarity:  hit.Similarity,
		Category:    hit.Metadata["category"],
		Subcategory: hit.Metadata["subcategory"],
		Description: hit.Metadata["description"],
		Keywords:    decodeKeywords(hit.Metadata),
		Language:    hit.Metadata["language"],
	}
}

// decodeKeywords parses the JSON-encoded keyword list carried in corpus
// metadata. Malformed metadata reads as no keywords.
func decodeKeywords(metadata map[string]string) []string {
	var keywords []string
	if raw := metadata["keywords"]; raw != "" {
		_ = json.Unmarshal([]byte(raw), &keywords)
	}
	return keywords
}
