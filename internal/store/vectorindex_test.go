package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHNSWIndexNeighborsExcludesSelf(t *testing.T) {
	idx := NewHNSWIndex("", 2)
	require.NoError(t, idx.Upsert("a.md", []float32{1, 0}))
	require.NoError(t, idx.Upsert("b.md", []float32{0.9, 0.1}))
	require.NoError(t, idx.Upsert("c.md", []float32{-1, 0}))

	neighbors, err := idx.Neighbors("a.md", []float32{1, 0}, 2)
	require.NoError(t, err)
	for _, n := range neighbors {
		require.NotEqual(t, "a.md", n.Path)
	}
	require.NotEmpty(t, neighbors)
}

func TestHNSWIndexSaveLoad(t *testing.T) {
	dir := t.TempDir()
	sidecar := filepath.Join(dir, "vectors.gob")

	idx := NewHNSWIndex(sidecar, 2)
	require.NoError(t, idx.Upsert("a.md", []float32{1, 0}))
	require.NoError(t, idx.Upsert("b.md", []float32{0, 1}))
	require.NoError(t, idx.Save())

	loaded, err := LoadHNSWIndex(sidecar, 2)
	require.NoError(t, err)
	require.Equal(t, 2, loaded.Len())

	neighbors, err := loaded.Neighbors("b.md", []float32{1, 0}, 1)
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	require.Equal(t, "a.md", neighbors[0].Path)
}

func TestNoopVectorIndexUnavailable(t *testing.T) {
	var idx VectorIndex = NoopVectorIndex{}
	require.False(t, idx.Available())
	neighbors, err := idx.Neighbors("a.md", []float32{1}, 3)
	require.NoError(t, err)
	require.Empty(t, neighbors)
}

func TestEncodeDecodeVectorRoundTrip(t *testing.T) {
	v := []float32{0.5, -0.25, 1, 0}
	blob := EncodeVector(v)
	require.Equal(t, len(v)*4, len(blob))

	decoded, err := DecodeVector(blob)
	require.NoError(t, err)
	require.Equal(t, v, decoded)

	_, err = DecodeVector(blob[:len(blob)-1])
	require.Error(t, err)
}
