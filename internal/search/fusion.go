package search

// LexicalWeight and SemanticWeight are the fixed hybrid-fusion weights of
// §4.9 step 5: hybrid = 0.35*lexical_norm + 0.65*semantic_norm.
const (
	LexicalWeight  = 0.35
	SemanticWeight = 0.65
)

// MinMaxNormalize rescales scores into [0,1] by min-max over the set. A
// flat set (all equal) normalizes to all 1s, per §4.9 step 3's "flat ->
// all 1" rule. Lower-is-better inputs should be negated by the caller
// before calling this (bm25 scores are lower-is-better; this function
// always treats larger as better).
func MinMaxNormalize(scores []float64) []float64 {
	out := make([]float64, len(scores))
	if len(scores) == 0 {
		return out
	}

	min, max := scores[0], scores[0]
	for _, s := range scores[1:] {
		if s < min {
			min = s
		}
		if s > max {
			max = s
		}
	}

	if max == min {
		for i := range out {
			out[i] = 1
		}
		return out
	}

	span := max - min
	for i, s := range scores {
		out[i] = (s - min) / span
	}
	return out
}

// Hybrid fuses a min-max-normalized lexical score with a min-max-normalized
// semantic score using the spec's fixed weighting.
func Hybrid(lexicalNorm, semanticNorm float64) float64 {
	return LexicalWeight*lexicalNorm + SemanticWeight*semanticNorm
}
