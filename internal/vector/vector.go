// Package vector provides named vector collections with cosine
// nearest-neighbor search, for both a long-lived corpus and per-request
// scratch collections.
package vector

// Lifetime tags a collection as process-owned or request-owned.
type Lifetime string

const (
	// LifetimePersistent marks a collection built once at startup and
	// read-only afterwards. Safe for concurrent readers.
	LifetimePersistent Lifetime = "persistent"
	// LifetimeEphemeral marks a collection owned by a single in-flight
	// request and destroyed when the request finishes.
	LifetimeEphemeral Lifetime = "ephemeral"
)

// Unit is one embedded text unit stored in a collection. Units are
// immutable once added.
type Unit struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// QuerySpec is a single nearest-neighbor query against a collection.
// Threshold, when non-nil, excludes matches whose similarity falls below
// it (threshold is in similarity space, not distance space).
type QuerySpec struct {
	Vector    []float32
	K         int
	Threshold *float64
}

// Match is a single query hit. Distance is cosine distance (1 - similarity);
// matches within one result list are ordered by ascending distance, ties
// broken by insertion order.
type Match struct {
	ID         string
	Text       string
	Metadata   map[string]string
	Distance   float64
	Similarity float64
}
