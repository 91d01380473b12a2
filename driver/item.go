package driver

import (
	"fmt"
	"strings"

	"github.com/nihei9/earley/grammar"
	"github.com/nihei9/earley/grammar/symbol"
)

// Item is a dotted rule with a span of the input. The symbols before the dot match tokens in [Start, End).
//
// A scanned token is represented by a leaf item `t → t •` spanning one token. An item records how
// it was reached as links. Each link pairs the item one dot before with the complete item that
// matched the symbol just before the dot. An ambiguous item has more than one link.
type Item struct {
	gram  *grammar.Grammar
	lhs   symbol.Symbol
	prod  *grammar.Production
	rhs   []symbol.Symbol
	dot   int
	start int
	end   int
	tok   *Token
	links []*link
}

type link struct {
	pred  *Item
	child *Item
}

type itemKey struct {
	lhs   symbol.Symbol
	prod  grammar.ProductionNum
	dot   int
	start int
}

func (it *Item) key() itemKey {
	k := itemKey{
		lhs:   it.lhs,
		dot:   it.dot,
		start: it.start,
	}
	if it.prod != nil {
		k.prod = it.prod.Num()
	}
	return k
}

func (it *Item) LHS() symbol.Symbol {
	return it.lhs
}

func (it *Item) RHS() []symbol.Symbol {
	return it.rhs
}

// Production returns the production of the item. A leaf item and an item of the root symbol have no production.
func (it *Item) Production() *grammar.Production {
	return it.prod
}

func (it *Item) Dot() int {
	return it.dot
}

func (it *Item) Start() int {
	return it.start
}

func (it *Item) End() int {
	return it.end
}

// Token returns the scanned token when the item is a leaf.
func (it *Item) Token() *Token {
	return it.tok
}

func (it *Item) IsComplete() bool {
	return it.dot == len(it.rhs)
}

func (it *Item) IsLeaf() bool {
	return it.tok != nil
}

// next returns the symbol after the dot. When the item is complete, next returns the nil symbol.
func (it *Item) next() symbol.Symbol {
	if it.IsComplete() {
		return symbol.SymbolNil
	}
	return it.rhs[it.dot]
}

func (it *Item) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%v →", it.symbolText(it.lhs))
	for i, sym := range it.rhs {
		if i == it.dot {
			fmt.Fprintf(&b, " •")
		}
		fmt.Fprintf(&b, " %v", it.symbolText(sym))
	}
	if it.IsComplete() {
		fmt.Fprintf(&b, " •")
	}
	fmt.Fprintf(&b, " (%v, %v)", it.start, it.end)
	return b.String()
}

func (it *Item) symbolText(sym symbol.Symbol) string {
	if text, ok := it.gram.ToText(sym); ok {
		return text
	}
	return sym.String()
}
