package grammar

import (
	"fmt"

	"github.com/nihei9/earley/grammar/symbol"
	spec "github.com/nihei9/earley/spec/grammar"
)

// Report describes the symbols and productions of the grammar.
func (g *Grammar) Report() *spec.Report {
	text := func(sym symbol.Symbol) string {
		t, _ := g.ToText(sym)
		return t
	}

	terms := make([]*spec.Terminal, 0, len(g.terminals))
	for _, t := range g.terminals {
		terms = append(terms, &spec.Terminal{
			Number:    t.sym.Num().Int(),
			Name:      t.name,
			Anonymous: t.anonymous,
			Pattern:   t.pattern,
			Literal:   t.literal,
			Skip:      t.skip,
		})
	}

	var nonTerms []*spec.NonTerminal
	for _, sym := range g.NonTerminalSymbols() {
		first := []string{}
		for _, t := range g.First(sym) {
			first = append(first, text(t))
		}
		nonTerms = append(nonTerms, &spec.NonTerminal{
			Number:   sym.Num().Int(),
			Name:     text(sym),
			Nullable: g.IsNullable(sym),
			First:    first,
		})
	}

	var prods []*spec.Production
	for _, p := range g.AllProductions() {
		rhs := make([]string, len(p.RHS()))
		for i, sym := range p.RHS() {
			rhs[i] = text(sym)
		}
		prods = append(prods, &spec.Production{
			Number: p.Num().Int(),
			LHS:    text(p.LHS()),
			RHS:    rhs,
		})
	}

	var warns []*spec.Warning
	for _, w := range g.warnings {
		msg := w.Cause.Error()
		if w.Detail != "" {
			msg = fmt.Sprintf("%v: %v", msg, w.Detail)
		}
		warns = append(warns, &spec.Warning{
			Row:     w.Row,
			Col:     w.Col,
			Message: msg,
		})
	}

	return &spec.Report{
		Name:         g.name,
		Start:        text(g.start),
		Terminals:    terms,
		NonTerminals: nonTerms,
		Productions:  prods,
		Warnings:     warns,
	}
}
