package store

import (
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/coder/hnsw"

	tomoerrors "github.com/jbl2024/tomosona/internal/errors"
)

// VectorIndex is the k-NN "vector virtual table" of §4.5, keyed by
// note_path. Some builds may lack it; callers check Available, and when it
// is false the Semantic Edge Refresher leaves semantic_edges empty instead
// of scanning note_embeddings rows (§4.8, §4.5).
type VectorIndex interface {
	Available() bool
	Upsert(path string, vec []float32) error
	Remove(path string) error
	// Neighbors returns up to k nearest neighbors of vec, excluding
	// selfPath, ordered nearest-first.
	Neighbors(selfPath string, vec []float32, k int) ([]VectorNeighbor, error)
	Clear()
	Len() int
	Save() error
}

// HNSWIndex implements VectorIndex with coder/hnsw, a pure-Go HNSW graph,
// grounded on the teacher's internal/store/hnsw.go (lazy-deletion ID
// mapping, cosine distance) adapted from arbitrary string document IDs to
// note-path keys and persisted as a single gob sidecar under
// `.tomosona/` rather than USearch's native file format.
type HNSWIndex struct {
	mu   sync.RWMutex
	path string // sidecar file path, empty disables persistence (tests)
	dim  int

	graph   *hnsw.Graph[uint64]
	idMap   map[string]uint64
	keyMap  map[uint64]string
	vectors map[uint64][]float32
	nextKey uint64
}

var _ VectorIndex = (*HNSWIndex)(nil)

type hnswPersisted struct {
	Dim     int
	NextKey uint64
	IDMap   map[string]uint64
	Vectors map[uint64][]float32
}

// NewHNSWIndex constructs an empty in-memory index for the given
// dimension. Use LoadHNSWIndex to restore one from its sidecar file.
func NewHNSWIndex(sidecarPath string, dim int) *HNSWIndex {
	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	return &HNSWIndex{
		path:    sidecarPath,
		dim:     dim,
		graph:   g,
		idMap:   make(map[string]uint64),
		keyMap:  make(map[uint64]string),
		vectors: make(map[uint64][]float32),
	}
}

// LoadHNSWIndex restores an index from its gob sidecar if present,
// otherwise returns a fresh empty one for the given dimension.
func LoadHNSWIndex(sidecarPath string, dim int) (*HNSWIndex, error) {
	idx := NewHNSWIndex(sidecarPath, dim)
	if sidecarPath == "" {
		return idx, nil
	}
	f, err := os.Open(sidecarPath)
	if os.IsNotExist(err) {
		return idx, nil
	}
	if err != nil {
		return nil, tomoerrors.IoErr(err, sidecarPath)
	}
	defer f.Close()

	var p hnswPersisted
	if err := gob.NewDecoder(f).Decode(&p); err != nil {
		return nil, tomoerrors.StoreErr(err)
	}
	idx.dim = p.Dim
	idx.nextKey = p.NextKey
	idx.idMap = p.IDMap
	idx.keyMap = make(map[uint64]string, len(p.IDMap))
	idx.vectors = p.Vectors
	for path, key := range p.IDMap {
		idx.keyMap[key] = path
		if vec, ok := p.Vectors[key]; ok {
			idx.graph.Add(hnsw.MakeNode(key, vec))
		}
	}
	return idx, nil
}

// Available always reports true for a constructed HNSWIndex; the
// interface exists so NoopVectorIndex can model an unavailable build.
func (h *HNSWIndex) Available() bool { return true }

// Upsert inserts or replaces the vector for path. Replacement uses lazy
// deletion (orphan the old key rather than mutate the graph in place),
// mirroring the teacher's workaround for coder/hnsw's last-node-deletion
// issue.
func (h *HNSWIndex) Upsert(path string, vec []float32) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if len(vec) != h.dim && h.dim != 0 {
		return tomoerrors.StoreErr(errDimensionMismatch(h.dim, len(vec)))
	}
	if key, exists := h.idMap[path]; exists {
		delete(h.keyMap, key)
		delete(h.vectors, key)
	}
	key := h.nextKey
	h.nextKey++
	cp := make([]float32, len(vec))
	copy(cp, vec)
	h.graph.Add(hnsw.MakeNode(key, cp))
	h.idMap[path] = key
	h.keyMap[key] = path
	h.vectors[key] = cp
	return nil
}

// Remove orphans path's entry via lazy deletion.
func (h *HNSWIndex) Remove(path string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if key, exists := h.idMap[path]; exists {
		delete(h.keyMap, key)
		delete(h.idMap, path)
		delete(h.vectors, key)
	}
	return nil
}

// Neighbors returns up to k nearest neighbors of vec, skipping selfPath
// and any orphaned (lazily-deleted) key, per §4.8 step 2.
func (h *HNSWIndex) Neighbors(selfPath string, vec []float32, k int) ([]VectorNeighbor, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.graph.Len() == 0 {
		return nil, nil
	}
	nodes := h.graph.Search(vec, k+1)
	out := make([]VectorNeighbor, 0, k)
	for _, n := range nodes {
		path, ok := h.keyMap[n.Key]
		if !ok || path == selfPath {
			continue
		}
		d := h.graph.Distance(vec, n.Value)
		out = append(out, VectorNeighbor{Path: path, Distance: d})
		if len(out) == k {
			break
		}
	}
	return out, nil
}

// Clear empties the index in place (the first step of a full rebuild,
// §4.7).
func (h *HNSWIndex) Clear() {
	h.mu.Lock()
	defer h.mu.Unlock()

	g := hnsw.NewGraph[uint64]()
	g.Distance = hnsw.CosineDistance
	g.M = 16
	g.EfSearch = 20
	g.Ml = 0.25
	h.graph = g
	h.idMap = make(map[string]uint64)
	h.keyMap = make(map[uint64]string)
	h.vectors = make(map[uint64][]float32)
	h.nextKey = 0
}

// Len reports the number of live (non-orphaned) entries.
func (h *HNSWIndex) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.idMap)
}

// Save persists the index to its sidecar path as a single gob blob. A
// no-op if the index was constructed with an empty path (in-memory
// tests).
func (h *HNSWIndex) Save() error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.path == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.path), 0o755); err != nil {
		return tomoerrors.IoErr(err, h.path)
	}
	f, err := os.Create(h.path)
	if err != nil {
		return tomoerrors.IoErr(err, h.path)
	}
	defer f.Close()

	p := hnswPersisted{Dim: h.dim, NextKey: h.nextKey, IDMap: h.idMap, Vectors: h.vectors}
	return tomoerrors.StoreErr(gob.NewEncoder(f).Encode(p))
}

// NoopVectorIndex models a build where the k-NN virtual table is
// unavailable (§4.5, §4.8): every mutator is a no-op and Neighbors always
// returns empty, so the Semantic Edge Refresher leaves semantic_edges
// empty rather than erroring.
type NoopVectorIndex struct{}

var _ VectorIndex = NoopVectorIndex{}

func (NoopVectorIndex) Available() bool { return false }
func (NoopVectorIndex) Upsert(string, []float32) error { return nil }
func (NoopVectorIndex) Remove(string) error             { return nil }
func (NoopVectorIndex) Neighbors(string, []float32, int) ([]VectorNeighbor, error) {
	return nil, nil
}
func (NoopVectorIndex) Clear()     {}
func (NoopVectorIndex) Len() int   { return 0 }
func (NoopVectorIndex) Save() error { return nil }

func errDimensionMismatch(expected, got int) error {
	return fmt.Errorf("vector dimension mismatch: expected %d, got %d", expected, got)
}
