package vector

import (
	"fmt"
	"sort"
	"sync"
)

// Collection is a named set of embedded units searchable by cosine
// distance. The vector dimension is fixed by the first unit added; later
// adds with a different dimension fail, queries against an empty
// collection simply return no matches.
type Collection struct {
	name     string
	lifetime Lifetime

	mu    sync.RWMutex
	dim   int
	units []Unit
	ids   map[string]struct{}
}

func newCollection(name string, lifetime Lifetime) *Collection {
	return &Collection{
		name:     name,
		lifetime: lifetime,
		ids:      make(map[string]struct{}),
	}
}

// Name returns the collection name.
func (c *Collection) Name() string { return c.name }

// Lifetime returns the collection's lifetime tag.
func (c *Collection) Lifetime() Lifetime { return c.lifetime }

// Len returns the number of units in the collection.
func (c *Collection) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.units)
}

// Dimensions returns the vector dimension, or 0 when empty.
func (c *Collection) Dimensions() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.dim
}

// Add appends units to the collection. Vectors are copied so callers may
// reuse their slices. Fails with ErrDimensionMismatch if any vector's
// length differs from the dimension fixed by the first unit, or
// ErrDuplicateID if an ID repeats within the collection. A failed Add
// leaves the collection unchanged.
func (c *Collection) Add(units []Unit) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	dim := c.dim
	seen := make(map[string]struct{}, len(units))
	for _, u := range units {
		if len(u.Vector) == 0 {
			return fmt.Errorf("unit %q: empty vector: %w", u.ID, ErrDimensionMismatch)
		}
		if dim == 0 {
			dim = len(u.Vector)
		}
		if len(u.Vector) != dim {
			return fmt.Errorf("unit %q: got %d, expected %d: %w", u.ID, len(u.Vector), dim, ErrDimensionMismatch)
		}
		if _, ok := c.ids[u.ID]; ok {
			return fmt.Errorf("unit %q: %w", u.ID, ErrDuplicateID)
		}
		if _, ok := seen[u.ID]; ok {
			return fmt.Errorf("unit %q: %w", u.ID, ErrDuplicateID)
		}
		seen[u.ID] = struct{}{}
	}

	c.dim = dim
	for _, u := range units {
		vec := make([]float32, len(u.Vector))
		copy(vec, u.Vector)
		u.Vector = vec
		c.units = append(c.units, u)
		c.ids[u.ID] = struct{}{}
	}
	return nil
}

// Query runs each spec against the collection and returns one ranked
// match list per spec. Each list holds at most min(spec.K, Len()) matches
// ordered by ascending distance; ties keep the units' insertion order.
// Specs with a threshold drop matches whose similarity falls below it.
// Querying an empty collection yields empty lists, not an error.
func (c *Collection) Query(specs []QuerySpec) ([][]Match, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	results := make([][]Match, len(specs))
	for i, spec := range specs {
		if len(c.units) == 0 || spec.K <= 0 {
			results[i] = []Match{}
			continue
		}
		if c.dim > 0 && len(spec.Vector) != c.dim {
			return nil, fmt.Errorf("query vector: got %d, expected %d: %w", len(spec.Vector), c.dim, ErrDimensionMismatch)
		}

		matches := make([]Match, 0, len(c.units))
		for _, u := range c.units {
			sim := CosineSimilarity(spec.Vector, u.Vector)
			matches = append(matches, Match{
				ID:         u.ID,
				Text:       u.Text,
				Metadata:   u.Metadata,
				Distance:   1 - sim,
				Similarity: sim,
			})
		}
		// Stable sort keeps insertion order for equal distances, which
		// makes rankings deterministic across runs.
		sort.SliceStable(matches, func(a, b int) bool {
			return matches[a].Distance < matches[b].Distance
		})

		k := spec.K
		if k > len(matches) {
			k = len(matches)
		}
		matches = matches[:k]

		if spec.Threshold != nil {
			kept := matches[:0]
			for _, m := range matches {
				if m.Similarity >= *spec.Threshold {
					kept = append(kept, m)
				}
			}
			matches = kept
		}
		results[i] = matches
	}
	return results, nil
}
