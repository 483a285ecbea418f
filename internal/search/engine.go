package search

import (
	"context"
	"math"
	"path/filepath"
	"sort"

	"github.com/jbl2024/tomosona/internal/embed"
	"github.com/jbl2024/tomosona/internal/store"
)

// MaxResults is the number of hits returned from Search, per §4.9.
const MaxResults = 25

// CandidateLimit bounds the full-text candidate set taken from the store
// before rescoring, per §4.9 step 2.
const CandidateLimit = 200

// Engine is the Query Engine of §4.9: it tokenizes a query into free text
// and property filters, intersects filter matches, runs lexical retrieval,
// optionally rescales with semantic similarity, and fuses the two.
type Engine struct {
	Store   *store.Store
	Embed   *embed.Facade
	Root    string // workspace root, for building absolute result paths
}

// New builds an Engine over store, embedder facade, and workspace root.
func New(s *store.Store, facade *embed.Facade, root string) *Engine {
	return &Engine{Store: s, Embed: facade, Root: root}
}

// Search executes query per §4.9's five steps and returns up to
// MaxResults hits, scores in [0,1], ordered non-increasing.
func (e *Engine) Search(ctx context.Context, query string) ([]Hit, error) {
	freeText, filters := Decompose(query)

	var filterSet map[string]struct{}
	if len(filters) > 0 {
		paths, err := e.Store.MatchingPaths(ctx, filters)
		if err != nil {
			return nil, err
		}
		filterSet = make(map[string]struct{}, len(paths))
		for _, p := range paths {
			filterSet[p] = struct{}{}
		}

		if freeText == "" {
			return e.propertyOnlyHits(paths), nil
		}
	}

	hits, err := e.Store.Search(ctx, freeText, CandidateLimit)
	if err != nil {
		return nil, err
	}
	if filterSet != nil {
		filtered := hits[:0]
		for _, h := range hits {
			if _, ok := filterSet[h.Path]; ok {
				filtered = append(filtered, h)
			}
		}
		hits = filtered
	}
	if len(hits) == 0 {
		return nil, nil
	}

	lexicalRaw := make([]float64, len(hits))
	for i, h := range hits {
		// bm25() is lower-is-better; negate so larger is better before
		// min-max normalizing, per step 3.
		lexicalRaw[i] = -h.RawScore
	}
	lexicalNorm := MinMaxNormalize(lexicalRaw)

	semanticNorm := e.semanticScores(ctx, freeText, hits)

	type scored struct {
		hit   store.ChunkHit
		score float64
		idx   int
	}
	scoredHits := make([]scored, len(hits))
	for i, h := range hits {
		scoredHits[i] = scored{hit: h, score: Hybrid(lexicalNorm[i], semanticNorm[i]), idx: i}
	}

	sort.SliceStable(scoredHits, func(i, j int) bool {
		return scoredHits[i].score > scoredHits[j].score
	})

	if len(scoredHits) > MaxResults {
		scoredHits = scoredHits[:MaxResults]
	}

	out := make([]Hit, len(scoredHits))
	for i, s := range scoredHits {
		out[i] = Hit{
			PathAbsolute: filepath.Join(e.Root, filepath.FromSlash(s.hit.Path)),
			Snippet:      s.hit.Snippet,
			Score:        s.score,
		}
	}
	return out, nil
}

// propertyOnlyHits implements §4.9 step 1's property-filter-only branch:
// up to 25 paths sorted case-insensitively with a placeholder snippet and
// score 0.
func (e *Engine) propertyOnlyHits(paths []string) []Hit {
	if len(paths) > MaxResults {
		paths = paths[:MaxResults]
	}
	out := make([]Hit, len(paths))
	for i, p := range paths {
		out[i] = Hit{
			PathAbsolute: filepath.Join(e.Root, filepath.FromSlash(p)),
			Snippet:      "",
			Score:        0,
		}
	}
	return out
}

// semanticScores embeds the free-text query once and cosine-rescores each
// candidate chunk's stored embedding, min-max normalizing the result.
// Chunks without a stored embedding score 0 before normalization, per
// §4.9 step 4. If the embedder is unavailable, every score is 0 (the
// hybrid collapses to pure lexical ranking).
func (e *Engine) semanticScores(ctx context.Context, freeText string, hits []store.ChunkHit) []float64 {
	raw := make([]float64, len(hits))
	if e.Embed == nil || !e.Embed.Available(ctx) {
		return raw
	}

	vecs, err := e.Embed.Embed(ctx, []string{freeText})
	if err != nil || len(vecs) == 0 {
		return raw
	}
	queryVec := vecs[0]

	for i, h := range hits {
		chunkVec, ok, err := e.Store.ChunkEmbeddingByID(ctx, h.ChunkID)
		if err != nil || !ok {
			continue
		}
		raw[i] = cosine(queryVec, chunkVec)
	}
	return MinMaxNormalize(raw)
}

func cosine(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}
