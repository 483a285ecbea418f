package search

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jbl2024/tomosona/internal/embed"
	"github.com/jbl2024/tomosona/internal/store"
)

func testFacade() *embed.Facade {
	return embed.NewFacade(func() (embed.Embedder, error) {
		return embed.NewStaticEmbedder(), nil
	})
}

func TestHybridFusionBounds(t *testing.T) {
	for _, lex := range []float64{0, 0.3, 0.7, 1} {
		for _, sem := range []float64{0, 0.4, 0.9, 1} {
			h := Hybrid(lex, sem)
			require.GreaterOrEqual(t, h, 0.0)
			require.LessOrEqual(t, h, 1.0)
		}
	}
}

func TestMinMaxNormalizeFlatIsAllOnes(t *testing.T) {
	out := MinMaxNormalize([]float64{5, 5, 5})
	require.Equal(t, []float64{1, 1, 1}, out)
}

func TestHybridOrderingScenario(t *testing.T) {
	// Concrete scenario 5: lexical [1.0, 0.0], semantic [0.0, 1.0] ->
	// hybrid [0.35, 0.65]; the semantically stronger chunk ranks first.
	lexicalNorm := MinMaxNormalize([]float64{1.0, 0.0})
	semanticNorm := MinMaxNormalize([]float64{0.0, 1.0})

	h0 := Hybrid(lexicalNorm[0], semanticNorm[0])
	h1 := Hybrid(lexicalNorm[1], semanticNorm[1])

	require.InDelta(t, 0.35, h0, 1e-9)
	require.InDelta(t, 0.65, h1, 1e-9)
	require.Greater(t, h1, h0)
}

func TestEngineSearchPropertyFiltersIntersect(t *testing.T) {
	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.Vector = store.NewHNSWIndex("", embed.StaticDimensions)

	ctx := context.Background()
	require.NoError(t, s.ReplaceNote(ctx, store.NoteWrite{
		Path:   "a.md",
		Chunks: []store.Chunk{{Anchor: "", Text: "roadmap planning", MTime: time.Now()}},
		Properties: []store.Property{
			{Path: "a.md", Key: "tags", Kind: store.PropertyList, ValueText: "dev"},
			{Path: "a.md", Key: "archive", Kind: store.PropertyBool, ValueBool: true},
		},
	}))
	require.NoError(t, s.ReplaceNote(ctx, store.NoteWrite{
		Path:   "b.md",
		Chunks: []store.Chunk{{Anchor: "", Text: "roadmap planning", MTime: time.Now()}},
		Properties: []store.Property{
			{Path: "b.md", Key: "tags", Kind: store.PropertyList, ValueText: "dev"},
		},
	}))

	engine := New(s, testFacade(), "/workspace")
	hits, err := engine.Search(ctx, "roadmap tags:dev has:archive")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "/workspace/a.md", hits[0].PathAbsolute)
}

func TestEngineSearchPropertyOnlyReturnsPlaceholderHits(t *testing.T) {
	s, err := store.Open("")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	s.Vector = store.NewHNSWIndex("", embed.StaticDimensions)

	ctx := context.Background()
	require.NoError(t, s.ReplaceNote(ctx, store.NoteWrite{
		Path:       "b.md",
		Properties: []store.Property{{Path: "b.md", Key: "tags", Kind: store.PropertyList, ValueText: "dev"}},
	}))
	require.NoError(t, s.ReplaceNote(ctx, store.NoteWrite{
		Path:       "a.md",
		Properties: []store.Property{{Path: "a.md", Key: "tags", Kind: store.PropertyList, ValueText: "dev"}},
	}))

	engine := New(s, testFacade(), "/workspace")
	hits, err := engine.Search(ctx, "tags:dev")
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, 0.0, hits[0].Score)
	require.Equal(t, "/workspace/a.md", hits[0].PathAbsolute)
	require.Equal(t, "/workspace/b.md", hits[1].PathAbsolute)
}
