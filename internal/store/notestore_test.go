package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open("")
	require.NoError(t, err)
	s.Vector = NewHNSWIndex("", 4)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestReplaceNoteAtomicity(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	mtime := time.Unix(1700000000, 0)
	w := NoteWrite{
		Path: "notes/a.md",
		Chunks: []Chunk{
			{Anchor: "intro", Text: "Intro\nhello", MTime: mtime},
		},
		Links:      []LinkEdge{{SourcePath: "notes/a.md", TargetKey: "notes/b"}},
		Properties: []Property{{Path: "notes/a.md", Key: "tags", Kind: PropertyList, ValueText: "work"}},
		Embeddings: []*ChunkEmbeddingVector{{Vector: []float32{1, 0, 0, 0}}},
		Centroid:   []float32{1, 0, 0, 0},
		ModelLabel: "static-v1",
	}
	require.NoError(t, s.ReplaceNote(ctx, w))

	hits, err := s.Search(ctx, "hello", 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, "notes/a.md", hits[0].Path)

	links, err := s.AllLinks(ctx)
	require.NoError(t, err)
	require.Len(t, links, 1)

	centroid, ok, err := s.NoteCentroid(ctx, "notes/a.md")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []float32{1, 0, 0, 0}, centroid)

	// Re-replacing with a new generation must leave no trace of the old one.
	w2 := NoteWrite{
		Path:   "notes/a.md",
		Chunks: []Chunk{{Anchor: "", Text: "goodbye", MTime: mtime}},
	}
	require.NoError(t, s.ReplaceNote(ctx, w2))

	hits, err = s.Search(ctx, "hello", 10)
	require.NoError(t, err)
	require.Empty(t, hits)

	links, err = s.AllLinks(ctx)
	require.NoError(t, err)
	require.Empty(t, links)

	_, ok, err = s.NoteCentroid(ctx, "notes/a.md")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestRemoveNoteDeletesSemanticEdges(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceSemanticEdges(ctx, []SemanticEdge{
		{SourcePath: "a.md", TargetPath: "b.md", Score: 0.9, ModelLabel: "static-v1", UpdatedAtMs: 1},
		{SourcePath: "c.md", TargetPath: "d.md", Score: 0.9, ModelLabel: "static-v1", UpdatedAtMs: 1},
	}))

	require.NoError(t, s.RemoveNote(ctx, "a.md"))

	edges, err := s.SemanticEdges(ctx)
	require.NoError(t, err)
	require.Len(t, edges, 1)
	require.Equal(t, "c.md", edges[0].SourcePath)
}

func TestMatchingPathsIntersection(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceNote(ctx, NoteWrite{
		Path: "a.md",
		Properties: []Property{
			{Path: "a.md", Key: "tags", Kind: PropertyList, ValueText: "dev"},
			{Path: "a.md", Key: "archive", Kind: PropertyBool, ValueBool: true},
			{Path: "a.md", Key: "deadline", Kind: PropertyDate, ValueDate: "2026-03-01"},
		},
	}))
	require.NoError(t, s.ReplaceNote(ctx, NoteWrite{
		Path: "b.md",
		Properties: []Property{
			{Path: "b.md", Key: "tags", Kind: PropertyList, ValueText: "dev"},
			{Path: "b.md", Key: "deadline", Kind: PropertyDate, ValueDate: "2026-03-01"},
		},
	}))

	paths, err := s.MatchingPaths(ctx, []PropertyFilter{
		{Key: "tags", Op: OpEquals, Kind: PropertyText, ValueText: "dev"},
		{Key: "deadline", Op: OpGreaterEq, Kind: PropertyDate, ValueDate: "2026-01-01"},
		{Key: "archive", Op: OpHas},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"a.md"}, paths)
}

func TestTruncateClearsEverything(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ReplaceNote(ctx, NoteWrite{
		Path:       "a.md",
		Chunks:     []Chunk{{Anchor: "", Text: "hello", MTime: time.Now()}},
		Centroid:   []float32{1, 0, 0, 0},
		ModelLabel: "static-v1",
		Embeddings: []*ChunkEmbeddingVector{{Vector: []float32{1, 0, 0, 0}}},
	}))
	require.NoError(t, s.Truncate(ctx))

	hits, err := s.Search(ctx, "hello", 10)
	require.NoError(t, err)
	require.Empty(t, hits)

	paths, err := s.NotesWithCentroids(ctx)
	require.NoError(t, err)
	require.Empty(t, paths)
	require.Equal(t, 0, s.Vector.Len())
}
