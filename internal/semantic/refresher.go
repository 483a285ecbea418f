// Package semantic implements the Semantic Edge Refresher (§4.8): after
// every index mutation it rebuilds the semantic_edges cache from
// scratch, deriving each note's top-K nearest centroid neighbors from the
// vector index, filtering by similarity threshold and de-duplicating
// against explicit links. Grounded on the teacher's errgroup-bounded
// fan-out idiom (internal/index worker pool) applied to per-note k-NN
// queries instead of per-file embedding calls.
package semantic

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/jbl2024/tomosona/internal/pathutil"
	"github.com/jbl2024/tomosona/internal/store"
)

// DefaultK and DefaultThreshold are the spec's fixed neighbor count and
// similarity floor (§4.8 steps 2 and 4).
const (
	DefaultK         = 3
	DefaultThreshold = 0.62
)

// DefaultConcurrency bounds how many notes are queried against the
// vector index at once, per §5's "dispatched to a worker pool"
// requirement for long operations.
const DefaultConcurrency = 8

// Refresher rebuilds the Index Store's semantic_edges table.
type Refresher struct {
	Store       *store.Store
	K           int
	Threshold   float64
	Concurrency int
	Log         *slog.Logger
}

// New builds a Refresher with the spec's default K and threshold.
func New(s *store.Store) *Refresher {
	return &Refresher{Store: s, K: DefaultK, Threshold: DefaultThreshold, Concurrency: DefaultConcurrency}
}

func (r *Refresher) logger() *slog.Logger {
	if r.Log != nil {
		return r.Log
	}
	return slog.Default()
}

// Refresh rebuilds semantic_edges from scratch, per §4.8's six steps. If
// the vector index is unavailable, the cache is left empty rather than
// falling back to a brute-force scan — the refresher is a best-effort
// augmentation, not a guaranteed feature (§4.8, §9).
func (r *Refresher) Refresh(ctx context.Context) error {
	if r.Store.Vector == nil || !r.Store.Vector.Available() {
		r.logger().Info("semantic edge refresh skipped: vector index unavailable")
		return r.Store.ReplaceSemanticEdges(ctx, nil)
	}

	paths, err := r.Store.NotesWithCentroids(ctx)
	if err != nil {
		return err
	}

	k := r.K
	if k <= 0 {
		k = DefaultK
	}
	threshold := r.Threshold
	if threshold <= 0 {
		threshold = DefaultThreshold
	}
	concurrency := r.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	type result struct {
		edges []store.SemanticEdge
	}
	results := make([]result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	now := time.Now().UnixMilli()

	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			edges, err := r.neighborsFor(gctx, path, k, threshold, now)
			if err != nil {
				return err
			}
			results[i] = result{edges: edges}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	var all []store.SemanticEdge
	for _, res := range results {
		all = append(all, res.edges...)
	}

	if err := r.Store.ReplaceSemanticEdges(ctx, all); err != nil {
		return err
	}
	r.logger().Info("semantic edge refresh complete", slog.Int("notes", len(paths)), slog.Int("edges", len(all)))
	return nil
}

// neighborsFor derives the surviving semantic-edge candidates for one
// source note, per §4.8 steps 1-6.
func (r *Refresher) neighborsFor(ctx context.Context, path string, k int, threshold float64, updatedAtMs int64) ([]store.SemanticEdge, error) {
	centroid, ok, err := r.Store.NoteCentroid(ctx, path)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}

	neighbors, err := r.Store.Vector.Neighbors(path, centroid, k+1)
	if err != nil {
		return nil, err
	}

	modelLabel, err := r.Store.NoteEmbeddingModelLabel(ctx, path)
	if err != nil {
		return nil, err
	}

	var edges []store.SemanticEdge
	for _, n := range neighbors {
		if n.Path == path {
			continue
		}
		score := similarity(n.Distance)
		if score < threshold {
			continue
		}
		targetKey := pathutil.KeyFromRelPath(n.Path)
		if targetKey == "" {
			continue
		}
		hasExplicit, err := r.Store.HasExplicitLink(ctx, path, targetKey)
		if err != nil {
			return nil, err
		}
		if hasExplicit {
			continue
		}
		edges = append(edges, store.SemanticEdge{
			SourcePath:  path,
			TargetPath:  n.Path,
			Score:       score,
			ModelLabel:  modelLabel,
			UpdatedAtMs: updatedAtMs,
		})
		if len(edges) == k {
			break
		}
	}
	return edges, nil
}

// similarity converts an HNSW cosine distance into the [0,1] similarity
// score of §4.8 step 3. §9.2's "s = clamp(1 - d^2/2, 0, 1)" is exact only
// when d is Euclidean distance between unit vectors; coder/hnsw's
// CosineDistance instead returns d = 1 - cos(theta), so the equivalent
// monotone [0,1] transform per §9.2 is s = clamp(1 - d, 0, 1), which
// recovers cos(theta) directly.
func similarity(d float32) float64 {
	s := 1 - float64(d)
	if s < 0 {
		return 0
	}
	if s > 1 {
		return 1
	}
	return s
}
