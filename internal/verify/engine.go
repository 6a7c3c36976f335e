// Package verify scores documents against a configured keyword set using
// per-request ephemeral vector collections.
package verify

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/nitobe/mitsukeru/internal/embedding"
	"github.com/nitobe/mitsukeru/internal/models"
	"github.com/nitobe/mitsukeru/internal/ranking"
	"github.com/nitobe/mitsukeru/internal/segment"
	"github.com/nitobe/mitsukeru/internal/vector"
)

// ErrNoKeywords is returned when verification runs before any keyword set
// was configured.
var ErrNoKeywords = errors.New("no keywords configured")

// keyword pairs a phrase with its embedding. Phrases are embedded once at
// configuration time, never per request.
type keyword struct {
	phrase string
	vec    []float32
}

// Engine verifies how strongly documents reflect a keyword set. Each
// request builds its own ephemeral collection of document sentences, so
// concurrent requests never observe each other.
type Engine struct {
	registry *vector.Registry
	embedder embedding.Embedder
	logger   *zap.Logger

	mu       sync.RWMutex
	keywords []keyword
}

// NewEngine creates a verification engine.
func NewEngine(registry *vector.Registry, embedder embedding.Embedder, logger *zap.Logger) *Engine {
	return &Engine{
		registry: registry,
		embedder: embedder,
		logger:   logger,
	}
}

// SetKeywords embeds phrases and atomically replaces the active keyword
// set. The previous set stays active until the whole batch has embedded;
// an embedding failure leaves it untouched.
func (e *Engine) SetKeywords(ctx context.Context, phrases []string) error {
	cleaned := make([]string, 0, len(phrases))
	seen := make(map[string]bool, len(phrases))
	for _, p := range phrases {
		if p == "" || seen[p] {
			continue
		}
		seen[p] = true
		cleaned = append(cleaned, p)
	}
	if len(cleaned) == 0 {
		return fmt.Errorf("keyword set cannot be empty")
	}

	vectors, err := e.embedder.EmbedBatch(ctx, cleaned)
	if err != nil {
		return fmt.Errorf("failed to embed keywords: %w", err)
	}

	next := make([]keyword, len(cleaned))
	for i, phrase := range cleaned {
		next[i] = keyword{phrase: phrase, vec: vectors[i]}
	}

	e.mu.Lock()
	e.keywords = next
	e.mu.Unlock()

	e.logger.Info("keyword set replaced", zap.Int("keywords", len(next)))
	return nil
}

// Keywords returns the active keyword phrases in configuration order.
func (e *Engine) Keywords() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	phrases := make([]string, len(e.keywords))
	for i, kw := range e.keywords {
		phrases[i] = kw.phrase
	}
	return phrases
}

// Verify splits document into sentences, indexes them in a fresh ephemeral
// collection, and queries every keyword against it. numResults caps the
// overall ranking; topSentences caps matches per keyword.
func (e *Engine) Verify(ctx context.Context, document string, numResults, topSentences int) (*models.VerifyReport, error) {
	start := time.Now()

	e.mu.RLock()
	keywords := e.keywords
	e.mu.RUnlock()
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	sentences, err := segment.Segment(document)
	if err != nil {
		return nil, err
	}

	sentenceVecs, err := e.embedder.EmbedBatch(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("failed to embed sentences: %w", err)
	}

	collection, release := e.registry.AcquireEphemeral("verify")
	defer release()

	units := make([]vector.Unit, len(sentences))
	for i, sentence := range sentences {
		units[i] = vector.Unit{
			ID:     strconv.Itoa(i),
			Vector: sentenceVecs[i],
			Text:   sentence,
		}
	}
	if err := collection.Add(units); err != nil {
		return nil, fmt.Errorf("failed to index sentences: %w", err)
	}

	specs := make([]vector.QuerySpec, len(keywords))
	for i, kw := range keywords {
		specs[i] = vector.QuerySpec{Vector: kw.vec, K: topSentences}
	}
	results, err := collection.Query(specs)
	if err != nil {
		return nil, fmt.Errorf("keyword query failed: %w", err)
	}

	rankings := make([]ranking.LabeledRanking, len(keywords))
	perKeyword := make([]models.KeywordRanking, len(keywords))
	for i, kw := range keywords {
		rankings[i] = ranking.LabeledRanking{Label: kw.phrase, Matches: results[i]}

		matches := make([]models.KeywordMatch, len(results[i]))
		for j, m := range results[i] {
			matches[j] = models.KeywordMatch{
				Sentence:   m.Text,
				Distance:   m.Distance,
				Similarity: m.Similarity,
			}
		}
		perKeyword[i] = models.KeywordRanking{Keyword: kw.phrase, Matches: matches}
	}

	overall := make([]models.OverallEntry, 0, numResults)
	for _, entry := range ranking.OverallTop(rankings, numResults) {
		overall = append(overall, models.OverallEntry{
			Keyword:    entry.Label,
			Distance:   entry.Distance,
			Similarity: entry.Similarity,
			Sentence:   entry.MatchedText,
		})
	}

	e.logger.Debug("document verified",
		zap.Int("sentences", len(sentences)),
		zap.Int("keywords", len(keywords)),
		zap.Duration("duration", time.Since(start)))

	return &models.VerifyReport{
		Sentences:  len(sentences),
		PerKeyword: perKeyword,
		OverallTop: overall,
		QueryTime:  time.Since(start).Milliseconds(),
	}, nil
}
