package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*ProviderClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewProviderClient(ProviderConfig{
		BaseURL: srv.URL,
		Model:   "test-model",
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewProviderClient: %v", err)
	}
	return client, srv
}

func TestProviderEmbedBatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/embed" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req embedRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Model != "test-model" {
			t.Errorf("model = %q, want test-model", req.Model)
		}
		if len(req.Input) != 2 {
			t.Fatalf("got %d inputs, want 2", len(req.Input))
		}
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{1, 0, 0}, {0, 1, 0}},
		})
	})

	vectors, err := client.EmbedBatch(context.Background(), []string{"alpha", "beta"})
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("got %d vectors, want 2", len(vectors))
	}
	if vectors[0][0] != 1 || vectors[1][1] != 1 {
		t.Errorf("vectors out of order: %v", vectors)
	}
	if client.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", client.Dimensions())
	}
}

func TestProviderCountMismatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{1, 0}},
		})
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestProviderDimensionDrift(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{1, 0, 0}, {0, 1}},
		})
	})

	_, err := client.EmbedBatch(context.Background(), []string{"a", "b"})
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError for dimension drift, got %v", err)
	}
}

func TestProviderHTTPError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	})

	_, err := client.Embed(context.Background(), "hello")
	var perr *ProviderError
	if !errors.As(err, &perr) {
		t.Fatalf("expected ProviderError, got %v", err)
	}
}

func TestProviderConcurrentBatches(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(embedResponse{
			Embeddings: [][]float32{{1, 0, 0}},
		})
	})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.EmbedBatch(context.Background(), []string{"text"}); err != nil {
				t.Errorf("EmbedBatch: %v", err)
			}
			_ = client.Dimensions()
		}()
	}
	wg.Wait()

	if client.Dimensions() != 3 {
		t.Errorf("Dimensions() = %d, want 3", client.Dimensions())
	}
}

func TestProviderEmptyBatch(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected for empty batch")
	})

	vectors, err := client.EmbedBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedBatch: %v", err)
	}
	if vectors != nil {
		t.Errorf("expected nil vectors, got %v", vectors)
	}
}

func TestMockEmbedderDeterministic(t *testing.T) {
	mock := NewMockEmbedder(16)

	a1, err := mock.Embed(context.Background(), "same text")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	a2, _ := mock.Embed(context.Background(), "same text")
	b, _ := mock.Embed(context.Background(), "other text")

	for i := range a1 {
		if a1[i] != a2[i] {
			t.Fatalf("embedding not deterministic at %d", i)
		}
	}
	same := true
	for i := range a1 {
		if a1[i] != b[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("different texts produced identical embeddings")
	}
}

func TestMockEmbedderPin(t *testing.T) {
	mock := NewMockEmbedder(3)
	mock.Pin("cat", []float32{1, 0, 0})

	v, err := mock.Embed(context.Background(), "cat")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if v[0] != 1 || v[1] != 0 || v[2] != 0 {
		t.Errorf("pinned vector not returned: %v", v)
	}
}
