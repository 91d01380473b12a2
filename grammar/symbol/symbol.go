package symbol

import (
	"fmt"
	"sort"
)

type symbolKind string

const (
	symbolKindNonTerminal = symbolKind("non-terminal")
	symbolKindTerminal    = symbolKind("terminal")
)

func (t symbolKind) String() string {
	return string(t)
}

type SymbolNum uint16

func (n SymbolNum) Int() int {
	return int(n)
}

// Symbol is a terminal or a non-terminal symbol. The kind is encoded in the value when a symbol table
// registers the symbol, so a parser never has to look up a grammar to know the kind of a symbol.
type Symbol uint16

func (s Symbol) String() string {
	kind, isRoot, num := s.describe()
	var prefix string
	switch {
	case isRoot:
		prefix = "r"
	case kind == symbolKindNonTerminal:
		prefix = "n"
	case kind == symbolKindTerminal:
		prefix = "t"
	default:
		prefix = "?"
	}
	return fmt.Sprintf("%v%v", prefix, num)
}

const (
	maskKindPart    = uint16(0x8000) // 1000 0000 0000 0000
	maskNonTerminal = uint16(0x0000) // 0000 0000 0000 0000
	maskTerminal    = uint16(0x8000) // 1000 0000 0000 0000

	maskSubKindpart = uint16(0x4000) // 0100 0000 0000 0000
	maskNonRoot     = uint16(0x0000) // 0000 0000 0000 0000
	maskRoot        = uint16(0x4000) // 0100 0000 0000 0000

	maskNumberPart = uint16(0x3fff) // 0011 1111 1111 1111

	symbolNumRoot = uint16(0x0001) // 0000 0000 0000 0001

	SymbolNil  = Symbol(0)                                          // 0000 0000 0000 0000
	SymbolRoot = Symbol(maskNonTerminal | maskRoot | symbolNumRoot) // 0100 0000 0000 0001

	// The symbol name contains `<` and `>` to avoid conflicting with user-defined symbols.
	SymbolNameRoot = "<root>"

	nonTerminalNumMin = SymbolNum(2)           // The number 1 is used by the root symbol.
	terminalNumMin    = SymbolNum(1)           // The number 0 is used by the nil symbol.
	symbolNumMax      = SymbolNum(0xffff) >> 2 // 0011 1111 1111 1111
)

func newSymbol(kind symbolKind, num SymbolNum) (Symbol, error) {
	if num > symbolNumMax {
		return SymbolNil, fmt.Errorf("a symbol number exceeds the limit; limit: %v, passed: %v", symbolNumMax, num)
	}

	kindMask := maskNonTerminal
	if kind == symbolKindTerminal {
		kindMask = maskTerminal
	}
	return Symbol(kindMask | maskNonRoot | uint16(num)), nil
}

func (s Symbol) Num() SymbolNum {
	_, _, num := s.describe()
	return num
}

func (s Symbol) IsNil() bool {
	_, _, num := s.describe()
	return num == 0
}

// IsRoot reports whether the symbol is the root marker that a parser uses to augment a grammar.
func (s Symbol) IsRoot() bool {
	if s.IsNil() {
		return false
	}
	_, isRoot, _ := s.describe()
	return isRoot
}

func (s Symbol) IsNonTerminal() bool {
	if s.IsNil() {
		return false
	}
	kind, _, _ := s.describe()
	return kind == symbolKindNonTerminal
}

func (s Symbol) IsTerminal() bool {
	if s.IsNil() {
		return false
	}
	return !s.IsNonTerminal()
}

func (s Symbol) describe() (symbolKind, bool, SymbolNum) {
	kind := symbolKindNonTerminal
	if uint16(s)&maskKindPart > 0 {
		kind = symbolKindTerminal
	}
	isRoot := false
	if uint16(s)&maskSubKindpart > 0 && kind == symbolKindNonTerminal {
		isRoot = true
	}
	num := SymbolNum(uint16(s) & maskNumberPart)
	return kind, isRoot, num
}

type SymbolTable struct {
	text2Sym     map[string]Symbol
	sym2Text     map[Symbol]string
	nonTermTexts []string
	termTexts    []string
	nonTermNum   SymbolNum
	termNum      SymbolNum
}

type SymbolTableWriter struct {
	*SymbolTable
}

type SymbolTableReader struct {
	*SymbolTable
}

func NewSymbolTable() *SymbolTable {
	return &SymbolTable{
		text2Sym: map[string]Symbol{
			SymbolNameRoot: SymbolRoot,
		},
		sym2Text: map[Symbol]string{
			SymbolRoot: SymbolNameRoot,
		},
		termTexts: []string{
			"", // Nil
		},
		nonTermTexts: []string{
			"",             // Nil
			SymbolNameRoot, // Root
		},
		nonTermNum: nonTerminalNumMin,
		termNum:    terminalNumMin,
	}
}

func (t *SymbolTable) Writer() *SymbolTableWriter {
	return &SymbolTableWriter{
		SymbolTable: t,
	}
}

func (t *SymbolTable) Reader() *SymbolTableReader {
	return &SymbolTableReader{
		SymbolTable: t,
	}
}

func (w *SymbolTableWriter) RegisterNonTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		if !sym.IsNonTerminal() || sym.IsRoot() {
			return SymbolNil, fmt.Errorf("symbol '%v' is already registered as a different kind of symbol", text)
		}
		return sym, nil
	}
	sym, err := newSymbol(symbolKindNonTerminal, w.nonTermNum)
	if err != nil {
		return SymbolNil, err
	}
	w.nonTermNum++
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	w.nonTermTexts = append(w.nonTermTexts, text)
	return sym, nil
}

func (w *SymbolTableWriter) RegisterTerminalSymbol(text string) (Symbol, error) {
	if sym, ok := w.text2Sym[text]; ok {
		if !sym.IsTerminal() {
			return SymbolNil, fmt.Errorf("symbol '%v' is already registered as a different kind of symbol", text)
		}
		return sym, nil
	}
	sym, err := newSymbol(symbolKindTerminal, w.termNum)
	if err != nil {
		return SymbolNil, err
	}
	w.termNum++
	w.text2Sym[text] = sym
	w.sym2Text[sym] = text
	w.termTexts = append(w.termTexts, text)
	return sym, nil
}

func (r *SymbolTableReader) ToSymbol(text string) (Symbol, bool) {
	if sym, ok := r.text2Sym[text]; ok {
		return sym, true
	}
	return SymbolNil, false
}

func (r *SymbolTableReader) ToText(sym Symbol) (string, bool) {
	text, ok := r.sym2Text[sym]
	return text, ok
}

func (r *SymbolTableReader) TerminalSymbols() []Symbol {
	syms := make([]Symbol, 0, r.termNum.Int()-terminalNumMin.Int())
	for sym := range r.sym2Text {
		if !sym.IsTerminal() || sym.IsNil() {
			continue
		}
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i] < syms[j]
	})
	return syms
}

func (r *SymbolTableReader) TerminalTexts() []string {
	return r.termTexts
}

// NonTerminalSymbols returns the non-terminal symbols except for the root symbol.
func (r *SymbolTableReader) NonTerminalSymbols() []Symbol {
	syms := make([]Symbol, 0, r.nonTermNum.Int()-nonTerminalNumMin.Int())
	for sym := range r.sym2Text {
		if !sym.IsNonTerminal() || sym.IsNil() || sym.IsRoot() {
			continue
		}
		syms = append(syms, sym)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i] < syms[j]
	})
	return syms
}

func (r *SymbolTableReader) NonTerminalTexts() []string {
	return r.nonTermTexts
}
