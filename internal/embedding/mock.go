package embedding

import (
	"context"
	"hash/fnv"
	"math"
)

// MockEmbedder is a deterministic embedder for tests. The same text always
// maps to the same unit-length vector, derived from its hash. Individual
// texts can be pinned to explicit vectors to model semantic relationships.
type MockEmbedder struct {
	dimensions int
	pinned     map[string][]float32
}

// NewMockEmbedder returns an embedder producing deterministic embeddings of
// the given dimension.
func NewMockEmbedder(dimensions int) *MockEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &MockEmbedder{
		dimensions: dimensions,
		pinned:     make(map[string][]float32),
	}
}

// Pin fixes the embedding returned for text. The vector is padded with
// zeros or truncated to the embedder's dimension.
func (e *MockEmbedder) Pin(text string, vector []float32) {
	v := make([]float32, e.dimensions)
	copy(v, vector)
	e.pinned[text] = v
}

// Embed returns the pinned vector for text if set, otherwise a
// hash-derived unit vector.
func (e *MockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if v, ok := e.pinned[text]; ok {
		out := make([]float32, len(v))
		copy(out, v)
		return out, nil
	}

	h := fnv.New32a()
	h.Write([]byte(text))
	seed := int(h.Sum32())

	emb := make([]float32, e.dimensions)
	for i := 0; i < e.dimensions; i++ {
		emb[i] = float32(math.Sin(float64(seed*(i+1)))*0.1 + 0.01)
	}

	var sum float64
	for _, v := range emb {
		sum += float64(v * v)
	}
	if sum > 0 {
		norm := 1.0 / math.Sqrt(sum)
		for i := range emb {
			emb[i] *= float32(norm)
		}
	}
	return emb, nil
}

// EmbedBatch calls Embed for each text.
func (e *MockEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		emb, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		embeddings[i] = emb
	}
	return embeddings, nil
}

// Dimensions returns the embedding dimension.
func (e *MockEmbedder) Dimensions() int {
	return e.dimensions
}

// Close is a no-op for MockEmbedder.
func (e *MockEmbedder) Close() error {
	return nil
}
