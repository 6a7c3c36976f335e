package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nitobe/mitsukeru/internal/models"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStore_CRUD(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snippet := &models.Snippet{
		ID:          "py_sort_list",
		Category:    "data_structures",
		Subcategory: "lists",
		Keywords:    []string{"sort", "list"},
		Description: "Sort a list in place",
		SearchText:  "how to sort a list",
		Language:    "python",
		Code:        "numbers.sort()",
	}
	if err := store.UpsertSnippet(ctx, snippet); err != nil {
		t.Fatal(err)
	}
	if snippet.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	got, err := store.GetSnippet(ctx, "py_sort_list")
	if err != nil {
		t.Fatal(err)
	}
	if got.Code != "numbers.sort()" || len(got.Keywords) != 2 {
		t.Errorf("got %+v", got)
	}

	snippet.Description = "Sort a list of numbers in place"
	if err := store.UpsertSnippet(ctx, snippet); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetSnippet(ctx, "py_sort_list")
	if got.Description != "Sort a list of numbers in place" {
		t.Errorf("upsert did not update: %s", got.Description)
	}

	list, err := store.ListSnippets(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 {
		t.Errorf("expected 1 snippet, got %d", len(list))
	}

	if err := store.DeleteSnippet(ctx, "py_sort_list"); err != nil {
		t.Fatal(err)
	}
	if _, err := store.GetSnippet(ctx, "py_sort_list"); err == nil {
		t.Error("expected error after delete")
	}
}

func TestSQLiteStore_BatchUpsert(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	snippets := []*models.Snippet{
		{ID: "a", Category: "c1", Code: "x = 1"},
		{ID: "b", Category: "c1", Code: "y = 2"},
		{ID: "c", Category: "c2", Code: "z = 3"},
	}
	if err := store.BatchUpsertSnippets(ctx, snippets); err != nil {
		t.Fatal(err)
	}

	n, err := store.CountSnippets(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountSnippets: %v, %d", err, n)
	}

	// Re-upserting the same IDs must not duplicate rows.
	snippets[0].Code = "x = 10"
	if err := store.BatchUpsertSnippets(ctx, snippets); err != nil {
		t.Fatal(err)
	}
	n, _ = store.CountSnippets(ctx)
	if n != 3 {
		t.Errorf("expected 3 snippets after re-upsert, got %d", n)
	}
	got, _ := store.GetSnippet(ctx, "a")
	if got.Code != "x = 10" {
		t.Errorf("expected updated code, got %s", got.Code)
	}
}

func TestSQLiteStore_Embeddings(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_ = store.UpsertSnippet(ctx, &models.Snippet{ID: "s1", Category: "c", Code: "pass"})

	vector := []float32{0.1, -0.5, 0.25, 1}
	if err := store.PutEmbedding(ctx, "s1", "hash-v1", vector); err != nil {
		t.Fatal(err)
	}

	got, err := store.GetEmbedding(ctx, "s1", "hash-v1")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(vector) {
		t.Fatalf("expected %d floats, got %d", len(vector), len(got))
	}
	for i := range vector {
		if got[i] != vector[i] {
			t.Errorf("vector[%d] = %v, want %v", i, got[i], vector[i])
		}
	}

	// A different content hash is a miss, not an error.
	got, err = store.GetEmbedding(ctx, "s1", "hash-v2")
	if err != nil || got != nil {
		t.Errorf("expected nil, nil for changed content; got %v, %v", got, err)
	}

	// Replace and re-read under the new hash.
	if err := store.PutEmbedding(ctx, "s1", "hash-v2", []float32{9}); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetEmbedding(ctx, "s1", "hash-v2")
	if len(got) != 1 || got[0] != 9 {
		t.Errorf("expected replaced vector, got %v", got)
	}
	got, _ = store.GetEmbedding(ctx, "s1", "hash-v1")
	if got != nil {
		t.Errorf("expected old hash to miss after replace, got %v", got)
	}

	// Unknown snippet reads as nil without error.
	got, err = store.GetEmbedding(ctx, "missing", "hash-v1")
	if err != nil || got != nil {
		t.Errorf("expected nil, nil for missing embedding; got %v, %v", got, err)
	}

	if err := store.DeleteEmbedding(ctx, "s1"); err != nil {
		t.Fatal(err)
	}
	got, _ = store.GetEmbedding(ctx, "s1", "hash-v2")
	if got != nil {
		t.Errorf("expected nil after delete, got %v", got)
	}
}
