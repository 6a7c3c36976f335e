package generate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"go.uber.org/zap"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(ClientConfig{
		BaseURL:     srv.URL,
		Model:       "test-model",
		Temperature: 0.7,
		MaxTokens:   2048,
	}, zap.NewNop())
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}

func TestGenerate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if req.Stream {
			t.Error("stream should be false")
		}
		if req.Options.Temperature != 0.7 {
			t.Errorf("temperature = %v, want 0.7", req.Options.Temperature)
		}
		if req.Options.NumPredict != 2048 {
			t.Errorf("num_predict = %d, want 2048", req.Options.NumPredict)
		}
		json.NewEncoder(w).Encode(generateResponse{Response: "the answer", Done: true})
	})

	got, err := client.Generate(context.Background(), "a question")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got != "the answer" {
		t.Errorf("Generate() = %q, want %q", got, "the answer")
	}
}

func TestGenerateHTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	})

	_, err := client.Generate(context.Background(), "prompt")
	var gerr *GenerationError
	if !errors.As(err, &gerr) {
		t.Fatalf("expected GenerationError, got %v", err)
	}
}

func TestNewClientValidation(t *testing.T) {
	if _, err := NewClient(ClientConfig{Model: "m"}, zap.NewNop()); err == nil {
		t.Error("expected error for missing base URL")
	}
	if _, err := NewClient(ClientConfig{BaseURL: "http://localhost"}, zap.NewNop()); err == nil {
		t.Error("expected error for missing model")
	}
}
