// Package search implements the Query Engine (§4.9): tokenizing a query
// into free text plus structured property filters, running lexical
// full-text retrieval against the Index Store, rescoring candidates
// semantically when the embedder is available, and fusing the two
// scores with a fixed hybrid weighting. Grounded on the teacher's
// internal/search hybrid-fusion package, but replacing RRF-over-ranks
// with the spec's min-max-normalized weighted sum (§4.9 steps 3-5).
package search

// Hit is one ranked search result returned to the caller.
type Hit struct {
	PathAbsolute string
	Snippet      string
	Score        float64
}
