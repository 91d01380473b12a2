package driver

import "github.com/nihei9/earley/grammar"

// Result is the outcome of one run.
type Result struct {
	gram       *grammar.Grammar
	toks       []*Token
	chart      *Chart
	forest     *Forest
	accepted   bool
	incomplete bool
	maxTrees   int
}

// Accepted reports whether the start symbol derives the whole input.
func (r *Result) Accepted() bool {
	return r.accepted
}

// Incomplete reports whether the run stopped because it reached the item limit. An incomplete result
// is never accepted.
func (r *Result) Incomplete() bool {
	return r.incomplete
}

func (r *Result) Chart() *Chart {
	return r.chart
}

// Forest returns the derivation forest. It is nil unless the input is accepted.
func (r *Result) Forest() *Forest {
	return r.forest
}

// Trees materializes the derivation trees in the order the chart discovered them. The number of trees is
// bounded by the MaxTrees option. Subtrees may be shared between trees.
func (r *Result) Trees() []*Node {
	if r.forest == nil {
		return nil
	}
	ts, _ := newTreeBuilder(r.toks, r.maxTrees).build(r.forest.root)
	return ts
}

// TreeCount returns the number of derivation trees without materializing them. Unlike Trees, the count
// isn't bounded by MaxTrees.
func (r *Result) TreeCount() int {
	if r.forest == nil {
		return 0
	}
	c, _ := newTreeBuilder(r.toks, 0).count(r.forest.root)
	return c
}

// Reached returns the last position at which the chart has an item. When the input is rejected and
// Reached is less than the number of tokens, the token at Reached is the first one that no derivation
// can consume.
func (r *Result) Reached() int {
	reached := 0
	for k := 0; k < r.chart.Len(); k++ {
		if len(r.chart.Items(k)) > 0 {
			reached = k
		}
	}
	return reached
}
