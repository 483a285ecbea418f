package embed

import (
	"context"
	"math"
)

const (
	// StaticDimensions is the embedding dimension produced by StaticEmbedder,
	// the fixed dim stored alongside every embedding row.
	StaticDimensions = 256

	// DefaultEmbeddingCacheSize is the default number of embeddings to cache.
	DefaultEmbeddingCacheSize = 1000

	// l2Epsilon is the squared-norm floor below which normalize leaves a
	// vector untouched rather than dividing by a near-zero magnitude.
	l2Epsilon = 1e-12
)

// Embedder generates vector embeddings for text. It models the spec's
// opaque embedding-model collaborator: a local, lazily-initialized model
// producing fixed-dimension unit vectors.
type Embedder interface {
	// Embed generates embedding for a single text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding dimension.
	Dimensions() int

	// ModelName returns the model identifier stored alongside embedding rows.
	ModelName() string

	// Available reports whether the embedder is ready to serve requests.
	Available(ctx context.Context) bool

	// Close releases resources.
	Close() error
}

// normalizeVector divides v by its L2 norm, leaving it unchanged if the
// squared norm is at or below l2Epsilon.
func normalizeVector(v []float32) []float32 {
	var sumSquares float64
	for _, val := range v {
		sumSquares += float64(val) * float64(val)
	}

	if sumSquares <= l2Epsilon {
		return v
	}

	magnitude := math.Sqrt(sumSquares)
	normalized := make([]float32, len(v))
	for i, val := range v {
		normalized[i] = float32(float64(val) / magnitude)
	}
	return normalized
}

// Centroid computes the element-wise mean of vs, then L2-normalizes it.
// It returns (nil, false) if vs is empty or if the vectors have mismatched
// dimensions.
func Centroid(vs [][]float32) ([]float32, bool) {
	if len(vs) == 0 {
		return nil, false
	}

	dim := len(vs[0])
	if dim == 0 {
		return nil, false
	}
	for _, v := range vs {
		if len(v) != dim {
			return nil, false
		}
	}

	sum := make([]float64, dim)
	for _, v := range vs {
		for i, val := range v {
			sum[i] += float64(val)
		}
	}

	mean := make([]float32, dim)
	for i, s := range sum {
		mean[i] = float32(s / float64(len(vs)))
	}

	return normalizeVector(mean), true
}
