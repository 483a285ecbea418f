// Package store provides the embedded relational index for a workspace:
// chunks, link and property rows, cached embeddings, and the derived
// semantic-edge cache, backed by a pure-Go SQLite database with an FTS5
// full-text index and a coder/hnsw vector index. It is grounded on the
// teacher's internal/store package (sqlite_bm25.go for the FTS5/WAL
// pattern, hnsw.go for the vector index), adapted from a code-chunk
// retrieval schema to the notes domain's fixed table set.
package store

import "time"

// Chunk is a single heading-scoped region of a note's body, as persisted.
type Chunk struct {
	ID     int64
	Path   string // workspace-relative note path
	Anchor string
	Text   string
	MTime  time.Time
}

// LinkEdge is an explicit outbound reference from one note to a target key.
type LinkEdge struct {
	SourcePath string
	TargetKey  string
}

// PropertyKind tags which of a Property's five value columns is populated.
type PropertyKind string

const (
	PropertyText   PropertyKind = "text"
	PropertyList   PropertyKind = "list"
	PropertyNumber PropertyKind = "number"
	PropertyBool   PropertyKind = "bool"
	PropertyDate   PropertyKind = "date"
)

// Property is one key/value row extracted from a note's frontmatter. For
// list-kind properties, each element is its own row sharing the same key.
type Property struct {
	Path      string
	Key       string
	Kind      PropertyKind
	ValueText string
	ValueNum  float64
	ValueBool bool
	ValueDate string
}

// ChunkEmbedding is a unit-norm vector attached to one chunk.
type ChunkEmbedding struct {
	ChunkID    int64
	ModelLabel string
	Dim        int
	Vector     []float32
}

// NoteEmbedding is the unit-norm centroid of a note's chunk vectors.
type NoteEmbedding struct {
	Path        string
	ModelLabel  string
	Dim         int
	Vector      []float32
	UpdatedAtMs int64
}

// SemanticEdge is a cached, derived nearest-neighbor pair between two
// note centroids.
type SemanticEdge struct {
	SourcePath  string
	TargetPath  string
	Score       float64
	ModelLabel  string
	UpdatedAtMs int64
}

// ChunkHit is a full-text search candidate, joined with its source path.
type ChunkHit struct {
	ChunkID  int64
	Path     string
	Anchor   string
	Text     string
	Snippet  string
	RawScore float64 // store-native relevance, lower or higher is better depending on engine; callers min-max normalize
}

// VectorNeighbor is a single nearest-neighbor result from the vector index.
type VectorNeighbor struct {
	Path     string
	Distance float32
}
