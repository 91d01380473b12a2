package driver

import (
	"fmt"
	"strings"

	"github.com/nihei9/earley/grammar"
	"github.com/nihei9/earley/grammar/symbol"
)

type forestKey struct {
	sym   symbol.Symbol
	start int
	end   int
}

// ForestNode is a packed node: all derivations of a symbol over one span share a node. Each
// alternative is one way of deriving the span.
type ForestNode struct {
	id        int
	sym       symbol.Symbol
	kindName  string
	anonymous bool
	start     int
	end       int
	tok       *Token
	alts      []*Alternative
}

// Alternative is a sequence of children derived by a production.
type Alternative struct {
	Production *grammar.Production
	Children   []*ForestNode
}

func (n *ForestNode) Symbol() symbol.Symbol {
	return n.sym
}

func (n *ForestNode) KindName() string {
	return n.kindName
}

// Span returns the range of tokens the node derives.
func (n *ForestNode) Span() (int, int) {
	return n.start, n.end
}

// Token returns the matched token when the node is a terminal.
func (n *ForestNode) Token() *Token {
	return n.tok
}

func (n *ForestNode) IsLeaf() bool {
	return n.tok != nil
}

func (n *ForestNode) Alternatives() []*Alternative {
	return n.alts
}

// Forest is the derivation forest of an accepted input. Nodes are shared, so the forest stays
// polynomial in size even when the number of trees is exponential.
type Forest struct {
	gram      *grammar.Grammar
	toks      []*Token
	positions []*position
	nodes     map[forestKey]*ForestNode
	seqs      map[*Item][][]*Item
	root      *ForestNode
}

func newForest(gram *grammar.Grammar, toks []*Token, positions []*position, rootItem *Item) *Forest {
	f := &Forest{
		gram:      gram,
		toks:      toks,
		positions: positions,
		nodes:     map[forestKey]*ForestNode{},
		seqs:      map[*Item][][]*Item{},
	}
	f.root = f.node(gram.Start(), rootItem.start, rootItem.end)
	return f
}

// Root returns the node of the start symbol spanning the whole input.
func (f *Forest) Root() *ForestNode {
	return f.root
}

// NodeCount returns the number of packed nodes.
func (f *Forest) NodeCount() int {
	return len(f.nodes)
}

func (f *Forest) node(sym symbol.Symbol, start, end int) *ForestNode {
	key := forestKey{
		sym:   sym,
		start: start,
		end:   end,
	}
	if n, ok := f.nodes[key]; ok {
		return n
	}

	kindName, _ := f.gram.ToText(sym)
	n := &ForestNode{
		id:       len(f.nodes),
		sym:      sym,
		kindName: kindName,
		start:    start,
		end:      end,
	}
	// The node is registered before its children are built so that a cyclic derivation refers back to it.
	f.nodes[key] = n

	if sym.IsTerminal() {
		n.tok = f.toks[start]
		n.anonymous = f.gram.IsAnonymous(sym)
		return n
	}

	known := map[string]struct{}{}
	for _, it := range f.positions[end].completedItems(sym, start) {
		for _, seq := range f.sequences(it) {
			alt := &Alternative{
				Production: it.prod,
				Children:   make([]*ForestNode, len(seq)),
			}
			var b strings.Builder
			for i, child := range seq {
				alt.Children[i] = f.node(child.lhs, child.start, child.end)
				fmt.Fprintf(&b, "%v,", alt.Children[i].id)
			}
			if _, ok := known[b.String()]; ok {
				continue
			}
			known[b.String()] = struct{}{}
			n.alts = append(n.alts, alt)
		}
	}

	return n
}

// sequences returns the child items of every derivation of the symbols before the dot of an item.
func (f *Forest) sequences(it *Item) [][]*Item {
	if it.dot == 0 {
		return [][]*Item{{}}
	}
	if seqs, ok := f.seqs[it]; ok {
		return seqs
	}
	var seqs [][]*Item
	for _, l := range it.links {
		for _, s := range f.sequences(l.pred) {
			seq := make([]*Item, len(s), len(s)+1)
			copy(seq, s)
			seqs = append(seqs, append(seq, l.child))
		}
	}
	f.seqs[it] = seqs
	return seqs
}

// treeBuilder materializes trees from a forest. A derivation that reaches a node being expanded is cyclic
// and is cut, so a grammar like `a → a` yields finitely many trees. A result computed under a cut depends
// on the path and is not memoized.
type treeBuilder struct {
	toks       []*Token
	limit      int
	trees      map[*ForestNode][]*Node
	counts     map[*ForestNode]int
	inProgress map[*ForestNode]bool
}

func newTreeBuilder(toks []*Token, limit int) *treeBuilder {
	return &treeBuilder{
		toks:       toks,
		limit:      limit,
		trees:      map[*ForestNode][]*Node{},
		counts:     map[*ForestNode]int{},
		inProgress: map[*ForestNode]bool{},
	}
}

func (b *treeBuilder) full(n int) bool {
	return b.limit > 0 && n >= b.limit
}

func (b *treeBuilder) build(n *ForestNode) ([]*Node, bool) {
	if ts, ok := b.trees[n]; ok {
		return ts, false
	}
	if b.inProgress[n] {
		return nil, true
	}
	if n.IsLeaf() {
		ts := []*Node{
			{
				KindName:  n.kindName,
				Text:      n.tok.Text,
				Row:       n.tok.Row,
				Col:       n.tok.Col,
				Terminal:  true,
				Anonymous: n.anonymous,
			},
		}
		b.trees[n] = ts
		return ts, false
	}

	b.inProgress[n] = true
	defer delete(b.inProgress, n)

	var row, col int
	if n.start < n.end {
		row, col = b.toks[n.start].Row, b.toks[n.start].Col
	}

	var result []*Node
	cut := false
ALTERNATIVES:
	for _, alt := range n.alts {
		combos := [][]*Node{{}}
		for _, child := range alt.Children {
			childTrees, c := b.build(child)
			if c {
				cut = true
			}
			if len(childTrees) == 0 {
				continue ALTERNATIVES
			}
			var next [][]*Node
		COMBINATIONS:
			for _, combo := range combos {
				for _, t := range childTrees {
					next = append(next, append(combo[:len(combo):len(combo)], t))
					if b.full(len(next)) {
						break COMBINATIONS
					}
				}
			}
			combos = next
		}
		for _, children := range combos {
			result = append(result, &Node{
				KindName: n.kindName,
				Row:      row,
				Col:      col,
				Children: children,
			})
			if b.full(len(result)) {
				break ALTERNATIVES
			}
		}
	}

	if !cut {
		b.trees[n] = result
	}
	return result, cut
}

const maxCount = int(^uint(0) >> 1)

func addCount(a, b int) int {
	if a > maxCount-b {
		return maxCount
	}
	return a + b
}

func mulCount(a, b int) int {
	if a == 0 || b == 0 {
		return 0
	}
	if a > maxCount/b {
		return maxCount
	}
	return a * b
}

// count returns the number of trees build would materialize without a limit. The count saturates at
// the maximum int.
func (b *treeBuilder) count(n *ForestNode) (int, bool) {
	if c, ok := b.counts[n]; ok {
		return c, false
	}
	if b.inProgress[n] {
		return 0, true
	}
	if n.IsLeaf() {
		b.counts[n] = 1
		return 1, false
	}

	b.inProgress[n] = true
	defer delete(b.inProgress, n)

	total := 0
	cut := false
	for _, alt := range n.alts {
		prod := 1
		for _, child := range alt.Children {
			c, childCut := b.count(child)
			if childCut {
				cut = true
			}
			prod = mulCount(prod, c)
		}
		total = addCount(total, prod)
	}

	if !cut {
		b.counts[n] = total
	}
	return total, cut
}
