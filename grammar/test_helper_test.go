package grammar

import (
	"strings"
	"testing"

	"github.com/nihei9/earley/grammar/symbol"
	"github.com/nihei9/earley/spec/grammar/parser"
)

type testSymbolGenerator func(text string) symbol.Symbol

func newTestSymbolGenerator(t *testing.T, gram *Grammar) testSymbolGenerator {
	return func(text string) symbol.Symbol {
		t.Helper()

		sym, ok := gram.ToSymbol(text)
		if !ok {
			t.Fatalf("symbol was not found: %v", text)
		}
		return sym
	}
}

func buildGrammar(t *testing.T, src string) (*Grammar, error) {
	t.Helper()

	ast, err := parser.Parse(strings.NewReader(src))
	if err != nil {
		t.Fatalf("failed to parse a grammar: %v", err)
	}
	b := GrammarBuilder{
		AST: ast,
	}
	return b.Build()
}

func testProductions(t *testing.T, gram *Grammar, lhs string, expected [][]string) {
	t.Helper()

	genSym := newTestSymbolGenerator(t, gram)
	prods := gram.Productions(genSym(lhs))
	if len(prods) != len(expected) {
		t.Fatalf("unexpected production count of %v; want: %v, got: %v", lhs, len(expected), len(prods))
	}
	for i, prod := range prods {
		if prod.LHS() != genSym(lhs) {
			t.Fatalf("unexpected LHS; want: %v, got: %v", genSym(lhs), prod.LHS())
		}
		if len(prod.RHS()) != len(expected[i]) {
			t.Fatalf("unexpected RHS length of production #%v of %v; want: %v, got: %v", i, lhs, len(expected[i]), len(prod.RHS()))
		}
		for j, text := range expected[i] {
			if prod.RHS()[j] != genSym(text) {
				t.Fatalf("unexpected RHS symbol of production #%v of %v; want: %v, got: %v", i, lhs, text, prod.RHS()[j])
			}
		}
	}
}
