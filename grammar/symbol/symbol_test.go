package symbol

import "testing"

func TestSymbol(t *testing.T) {
	tab := NewSymbolTable()
	w := tab.Writer()
	_, _ = w.RegisterNonTerminalSymbol("expr")
	_, _ = w.RegisterNonTerminalSymbol("term")
	_, _ = w.RegisterNonTerminalSymbol("factor")
	_, _ = w.RegisterTerminalSymbol("id")
	_, _ = w.RegisterTerminalSymbol("add")
	_, _ = w.RegisterTerminalSymbol("mul")
	_, _ = w.RegisterTerminalSymbol("l_paren")
	_, _ = w.RegisterTerminalSymbol("r_paren")

	nonTermTexts := []string{
		"", // Nil
		SymbolNameRoot,
		"expr",
		"term",
		"factor",
	}

	termTexts := []string{
		"", // Nil
		"id",
		"add",
		"mul",
		"l_paren",
		"r_paren",
	}

	tests := []struct {
		text          string
		isRoot        bool
		isNonTerminal bool
		isTerminal    bool
	}{
		{
			text:          SymbolNameRoot,
			isRoot:        true,
			isNonTerminal: true,
		},
		{
			text:          "expr",
			isNonTerminal: true,
		},
		{
			text:          "term",
			isNonTerminal: true,
		},
		{
			text:          "factor",
			isNonTerminal: true,
		},
		{
			text:       "id",
			isTerminal: true,
		},
		{
			text:       "add",
			isTerminal: true,
		},
		{
			text:       "mul",
			isTerminal: true,
		},
		{
			text:       "l_paren",
			isTerminal: true,
		},
		{
			text:       "r_paren",
			isTerminal: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			r := tab.Reader()
			sym, ok := r.ToSymbol(tt.text)
			if !ok {
				t.Fatalf("symbol was not found")
			}
			testSymbolProperty(t, sym, false, tt.isRoot, tt.isNonTerminal, tt.isTerminal)
			text, ok := r.ToText(sym)
			if !ok {
				t.Fatalf("text was not found")
			}
			if text != tt.text {
				t.Fatalf("unexpected text representation; want: %v, got: %v", tt.text, text)
			}
		})
	}

	t.Run("Nil", func(t *testing.T) {
		testSymbolProperty(t, SymbolNil, true, false, false, false)
	})

	t.Run("texts of non-terminals", func(t *testing.T) {
		ts := tab.Reader().NonTerminalTexts()
		if len(ts) != len(nonTermTexts) {
			t.Fatalf("unexpected non-terminal count; want: %v (%#v), got: %v (%#v)", len(nonTermTexts), nonTermTexts, len(ts), ts)
		}
		for i, text := range ts {
			if text != nonTermTexts[i] {
				t.Fatalf("unexpected non-terminal; want: %v, got: %v", nonTermTexts[i], text)
			}
		}
	})

	t.Run("texts of terminals", func(t *testing.T) {
		ts := tab.Reader().TerminalTexts()
		if len(ts) != len(termTexts) {
			t.Fatalf("unexpected terminal count; want: %v (%#v), got: %v (%#v)", len(termTexts), termTexts, len(ts), ts)
		}
		for i, text := range ts {
			if text != termTexts[i] {
				t.Fatalf("unexpected terminal; want: %v, got: %v", termTexts[i], text)
			}
		}
	})

	t.Run("non-terminal symbols exclude the root symbol", func(t *testing.T) {
		for _, sym := range tab.Reader().NonTerminalSymbols() {
			if sym.IsRoot() {
				t.Fatalf("the root symbol must not be listed")
			}
		}
		if n := len(tab.Reader().NonTerminalSymbols()); n != 3 {
			t.Fatalf("unexpected non-terminal symbol count; want: 3, got: %v", n)
		}
		if n := len(tab.Reader().TerminalSymbols()); n != 5 {
			t.Fatalf("unexpected terminal symbol count; want: 5, got: %v", n)
		}
	})

	t.Run("a text cannot be registered as both kinds", func(t *testing.T) {
		if _, err := w.RegisterTerminalSymbol("expr"); err == nil {
			t.Fatalf("expected an error")
		}
		if _, err := w.RegisterNonTerminalSymbol("id"); err == nil {
			t.Fatalf("expected an error")
		}
		if _, err := w.RegisterNonTerminalSymbol(SymbolNameRoot); err == nil {
			t.Fatalf("expected an error")
		}
	})
}

func testSymbolProperty(t *testing.T, sym Symbol, isNil, isRoot, isNonTerminal, isTerminal bool) {
	t.Helper()

	if v := sym.IsNil(); v != isNil {
		t.Fatalf("isNil property is mismatched; want: %v, got: %v", isNil, v)
	}
	if v := sym.IsRoot(); v != isRoot {
		t.Fatalf("isRoot property is mismatched; want: %v, got: %v", isRoot, v)
	}
	if v := sym.IsNonTerminal(); v != isNonTerminal {
		t.Fatalf("isNonTerminal property is mismatched; want: %v, got: %v", isNonTerminal, v)
	}
	if v := sym.IsTerminal(); v != isTerminal {
		t.Fatalf("isTerminal property is mismatched; want: %v, got: %v", isTerminal, v)
	}
}
