package vector

import (
	"errors"
	"testing"
)

func unit(id string, vec ...float32) Unit {
	return Unit{ID: id, Vector: vec, Text: "text-" + id}
}

func TestCollection_AddDimensionMismatch(t *testing.T) {
	c := newCollection("test", LifetimeEphemeral)
	if err := c.Add([]Unit{unit("a", 1, 0)}); err != nil {
		t.Fatal(err)
	}
	err := c.Add([]Unit{unit("b", 1, 0, 0)})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
	if c.Len() != 1 {
		t.Errorf("failed add must not change collection, Len=%d", c.Len())
	}
}

func TestCollection_AddDuplicateID(t *testing.T) {
	c := newCollection("test", LifetimeEphemeral)
	if err := c.Add([]Unit{unit("a", 1, 0)}); err != nil {
		t.Fatal(err)
	}
	if err := c.Add([]Unit{unit("a", 0, 1)}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID, got %v", err)
	}
	// Duplicates within one batch are rejected too.
	if err := c.Add([]Unit{unit("b", 0, 1), unit("b", 1, 1)}); !errors.Is(err, ErrDuplicateID) {
		t.Errorf("expected ErrDuplicateID for in-batch duplicate, got %v", err)
	}
}

func TestCollection_QueryOrdering(t *testing.T) {
	c := newCollection("test", LifetimePersistent)
	err := c.Add([]Unit{
		unit("far", 0, 1),
		unit("near", 1, 0),
		unit("mid", 1, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	results, err := c.Query([]QuerySpec{{Vector: []float32{1, 0}, K: 3}})
	if err != nil {
		t.Fatal(err)
	}
	got := results[0]
	if len(got) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(got))
	}
	want := []string{"near", "mid", "far"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("rank %d: got %s, want %s", i, got[i].ID, id)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Distance < got[i-1].Distance {
			t.Errorf("distances not ascending at %d", i)
		}
	}
}

func TestCollection_QueryTieBreakInsertionOrder(t *testing.T) {
	c := newCollection("test", LifetimeEphemeral)
	// Identical vectors: all distances equal, ranking must follow
	// insertion order.
	err := c.Add([]Unit{
		unit("first", 1, 0),
		unit("second", 1, 0),
		unit("third", 1, 0),
	})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		results, err := c.Query([]QuerySpec{{Vector: []float32{1, 0}, K: 3}})
		if err != nil {
			t.Fatal(err)
		}
		got := results[0]
		if got[0].ID != "first" || got[1].ID != "second" || got[2].ID != "third" {
			t.Fatalf("tie-break not stable: %s, %s, %s", got[0].ID, got[1].ID, got[2].ID)
		}
	}
}

func TestCollection_QueryKCap(t *testing.T) {
	c := newCollection("test", LifetimeEphemeral)
	if err := c.Add([]Unit{unit("only", 1, 0)}); err != nil {
		t.Fatal(err)
	}
	results, err := c.Query([]QuerySpec{{Vector: []float32{1, 0}, K: 10}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results[0]) != 1 {
		t.Errorf("k must be capped at collection size, got %d", len(results[0]))
	}
}

func TestCollection_QueryThreshold(t *testing.T) {
	c := newCollection("test", LifetimePersistent)
	err := c.Add([]Unit{
		unit("close", 1, 0),
		unit("distant", 0, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	threshold := 0.5
	results, err := c.Query([]QuerySpec{
		{Vector: []float32{1, 0}, K: 2, Threshold: &threshold},
		{Vector: []float32{1, 0}, K: 2},
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(results[0]) != 1 || results[0][0].ID != "close" {
		t.Errorf("threshold query: got %v", results[0])
	}
	// Threshold applies per query, not globally.
	if len(results[1]) != 2 {
		t.Errorf("unthresholded query filtered: got %d matches", len(results[1]))
	}
	for _, m := range results[0] {
		if m.Similarity < threshold {
			t.Errorf("match %s below threshold: %v", m.ID, m.Similarity)
		}
	}
}

func TestCollection_QueryEmpty(t *testing.T) {
	c := newCollection("empty", LifetimePersistent)
	results, err := c.Query([]QuerySpec{{Vector: []float32{1, 0}, K: 5}})
	if err != nil {
		t.Fatal(err)
	}
	if len(results[0]) != 0 {
		t.Errorf("empty collection must yield empty list, got %d", len(results[0]))
	}
}

func TestCollection_QueryDimensionMismatch(t *testing.T) {
	c := newCollection("test", LifetimeEphemeral)
	if err := c.Add([]Unit{unit("a", 1, 0)}); err != nil {
		t.Fatal(err)
	}
	_, err := c.Query([]QuerySpec{{Vector: []float32{1, 0, 0}, K: 1}})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("expected ErrDimensionMismatch, got %v", err)
	}
}
