package grammar

import (
	"github.com/nihei9/earley/grammar/symbol"
)

// firstEntry is the set of terminals that can begin a string derived from a symbol. empty is true when
// the symbol derives the empty string.
type firstEntry struct {
	symbols map[symbol.Symbol]struct{}
	empty   bool
}

func newFirstEntry() *firstEntry {
	return &firstEntry{
		symbols: map[symbol.Symbol]struct{}{},
		empty:   false,
	}
}

func (e *firstEntry) add(sym symbol.Symbol) bool {
	if _, ok := e.symbols[sym]; ok {
		return false
	}
	e.symbols[sym] = struct{}{}
	return true
}

func (e *firstEntry) addEmpty() bool {
	if !e.empty {
		e.empty = true
		return true
	}
	return false
}

func (e *firstEntry) mergeExceptEmpty(target *firstEntry) bool {
	changed := false
	for sym := range target.symbols {
		added := e.add(sym)
		if added {
			changed = true
		}
	}
	return changed
}

type firstSet struct {
	set map[symbol.Symbol]*firstEntry
}

// findBySymbol returns the entry of a symbol. A terminal begins with itself, and a non-terminal having
// no production gets an empty entry that doesn't contain the empty string either.
func (fst *firstSet) findBySymbol(sym symbol.Symbol) *firstEntry {
	if sym.IsTerminal() {
		e := newFirstEntry()
		e.add(sym)
		return e
	}
	if e, ok := fst.set[sym]; ok {
		return e
	}
	return newFirstEntry()
}

// genFirstSet computes the entries of all non-terminals by iterating to a fixpoint. Because the
// computation only unions sets, left recursion and cycles don't prevent it from terminating.
func genFirstSet(nonTerms []symbol.Symbol, prods *productionSet) *firstSet {
	fst := &firstSet{
		set: map[symbol.Symbol]*firstEntry{},
	}
	for _, sym := range nonTerms {
		fst.set[sym] = newFirstEntry()
	}

	for {
		more := false
		for _, prod := range prods.all() {
			if genProdFirstEntry(fst, fst.set[prod.lhs], prod) {
				more = true
			}
		}
		if !more {
			break
		}
	}
	return fst
}

func genProdFirstEntry(fst *firstSet, acc *firstEntry, prod *Production) bool {
	if prod.IsEmpty() {
		return acc.addEmpty()
	}

	changed := false
	for _, sym := range prod.rhs {
		if sym.IsTerminal() {
			return acc.add(sym) || changed
		}

		e := fst.findBySymbol(sym)
		if acc.mergeExceptEmpty(e) {
			changed = true
		}
		if !e.empty {
			return changed
		}
	}
	return acc.addEmpty() || changed
}
