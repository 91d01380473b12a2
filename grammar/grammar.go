package grammar

import (
	"fmt"
	"sort"

	verr "github.com/nihei9/earley/error"
	"github.com/nihei9/earley/grammar/symbol"
	"github.com/nihei9/earley/spec/grammar/parser"
	mlspec "github.com/nihei9/maleeni/spec"
)

// terminal holds what a tokenizer needs to know about a terminal symbol.
type terminal struct {
	sym  symbol.Symbol
	name string

	// pattern is a maleeni pattern. A literal is stored already escaped.
	pattern string
	literal bool

	// anonymous is true when the terminal appears only as a literal inside alternatives.
	anonymous bool
	skip      bool
}

type Grammar struct {
	name        string
	symbolTable *symbol.SymbolTableReader
	start       symbol.Symbol
	prods       *productionSet
	terminals   []*terminal
	first       *firstSet
	warnings    verr.SpecErrors
}

func (g *Grammar) Name() string {
	return g.name
}

func (g *Grammar) Start() symbol.Symbol {
	return g.start
}

// IsNonTerminal reports whether a symbol is a non-terminal. Because a symbol carries its kind,
// this doesn't consult the production set.
func (g *Grammar) IsNonTerminal(sym symbol.Symbol) bool {
	return sym.IsNonTerminal()
}

// Productions returns the productions of a non-terminal in definition order. A non-terminal
// that has no production gets nil.
func (g *Grammar) Productions(sym symbol.Symbol) []*Production {
	prods, _ := g.prods.findByLHS(sym)
	return prods
}

// AllProductions returns every production in definition order.
func (g *Grammar) AllProductions() []*Production {
	return g.prods.all()
}

func (g *Grammar) ToSymbol(text string) (symbol.Symbol, bool) {
	return g.symbolTable.ToSymbol(text)
}

func (g *Grammar) ToText(sym symbol.Symbol) (string, bool) {
	return g.symbolTable.ToText(sym)
}

func (g *Grammar) TerminalSymbols() []symbol.Symbol {
	return g.symbolTable.TerminalSymbols()
}

func (g *Grammar) NonTerminalSymbols() []symbol.Symbol {
	return g.symbolTable.NonTerminalSymbols()
}

// IsAnonymous reports whether a terminal is defined only by a literal appearing in alternatives.
func (g *Grammar) IsAnonymous(sym symbol.Symbol) bool {
	for _, t := range g.terminals {
		if t.sym == sym {
			return t.anonymous
		}
	}
	return false
}

// IsNullable reports whether a symbol derives the empty string.
func (g *Grammar) IsNullable(sym symbol.Symbol) bool {
	return g.first.findBySymbol(sym).empty
}

// First returns the terminals that can begin a string derived from a symbol, in ascending order.
func (g *Grammar) First(sym symbol.Symbol) []symbol.Symbol {
	e := g.first.findBySymbol(sym)
	syms := make([]symbol.Symbol, 0, len(e.symbols))
	for s := range e.symbols {
		syms = append(syms, s)
	}
	sort.Slice(syms, func(i, j int) bool {
		return syms[i] < syms[j]
	})
	return syms
}

// Warnings returns the problems that don't prevent the grammar from being used, such as
// a non-terminal having no production.
func (g *Grammar) Warnings() verr.SpecErrors {
	return g.warnings
}

// assembler accumulates symbols and productions. Both GrammarBuilder and Builder drive it.
type assembler struct {
	symTab    *symbol.SymbolTable
	prods     *productionSet
	terminals []*terminal
	sym2Term  map[symbol.Symbol]*terminal
	errs      verr.SpecErrors
	warns     verr.SpecErrors
}

func newAssembler() *assembler {
	return &assembler{
		symTab:   symbol.NewSymbolTable(),
		prods:    newProductionSet(),
		sym2Term: map[symbol.Symbol]*terminal{},
	}
}

func (a *assembler) raise(cause error, detail string, pos parser.Position) {
	a.errs = append(a.errs, &verr.SpecError{
		Cause:  cause,
		Detail: detail,
		Row:    pos.Row,
		Col:    pos.Col,
	})
}

func (a *assembler) warn(cause error, detail string, pos parser.Position) {
	a.warns = append(a.warns, &verr.SpecError{
		Cause:  cause,
		Detail: detail,
		Row:    pos.Row,
		Col:    pos.Col,
	})
}

func (a *assembler) registerTerminal(t *terminal) error {
	sym, err := a.symTab.Writer().RegisterTerminalSymbol(t.name)
	if err != nil {
		return err
	}
	t.sym = sym
	a.terminals = append(a.terminals, t)
	a.sym2Term[sym] = t
	return nil
}

func (a *assembler) appendProduction(lhs symbol.Symbol, rhs []symbol.Symbol, pos parser.Position) error {
	prod, err := newProduction(lhs, rhs)
	if err != nil {
		return err
	}
	if !a.prods.append(prod) {
		lhsText, _ := a.symTab.Reader().ToText(lhs)
		a.raise(semErrDuplicateProduction, lhsText, pos)
	}
	return nil
}

// finish validates the start symbol and collects warnings about the symbols that a parse starting from
// the start symbol can never use.
func (a *assembler) finish(name, startName string, startPos parser.Position, nonTermPos map[symbol.Symbol]parser.Position) (*Grammar, error) {
	r := a.symTab.Reader()

	start, ok := r.ToSymbol(startName)
	switch {
	case !ok:
		a.raise(semErrUndefinedStart, startName, startPos)
	case start.IsTerminal():
		a.raise(semErrStartIsTerminal, startName, startPos)
	default:
		if _, ok := a.prods.findByLHS(start); !ok {
			a.raise(semErrUndefinedStart, startName, startPos)
		}
	}

	for _, t := range a.terminals {
		if t.skip && a.isUsedInProductions(t.sym) {
			a.raise(semErrTermCannotBeSkipped, t.name, parser.Position{})
		}
	}

	if len(a.errs) > 0 {
		return nil, a.errs
	}

	reachable := a.reachableSymbols(start)
	for _, sym := range r.NonTerminalSymbols() {
		if _, ok := reachable[sym]; ok {
			continue
		}
		text, _ := r.ToText(sym)
		a.warn(semWarnUnreachable, text, nonTermPos[sym])
	}
	for _, t := range a.terminals {
		if t.skip || t.anonymous {
			continue
		}
		if _, ok := reachable[t.sym]; ok {
			continue
		}
		a.warn(semWarnUnusedTerminal, t.name, parser.Position{})
	}

	return &Grammar{
		name:        name,
		symbolTable: r,
		start:       start,
		prods:       a.prods,
		terminals:   a.terminals,
		first:       genFirstSet(r.NonTerminalSymbols(), a.prods),
		warnings:    a.warns,
	}, nil
}

func (a *assembler) isUsedInProductions(sym symbol.Symbol) bool {
	for _, prod := range a.prods.all() {
		for _, s := range prod.rhs {
			if s == sym {
				return true
			}
		}
	}
	return false
}

func (a *assembler) reachableSymbols(start symbol.Symbol) map[symbol.Symbol]struct{} {
	reachable := map[symbol.Symbol]struct{}{
		start: {},
	}
	stack := []symbol.Symbol{start}
	for len(stack) > 0 {
		sym := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		prods, _ := a.prods.findByLHS(sym)
		for _, prod := range prods {
			for _, s := range prod.rhs {
				if _, ok := reachable[s]; ok {
					continue
				}
				reachable[s] = struct{}{}
				if s.IsNonTerminal() {
					stack = append(stack, s)
				}
			}
		}
	}
	return reachable
}

// GrammarBuilder converts the AST of a grammar source into a Grammar.
type GrammarBuilder struct {
	AST *parser.RootNode

	a *assembler
}

func (b *GrammarBuilder) Build() (*Grammar, error) {
	b.a = newAssembler()
	a := b.a

	var specName string
	var startName string
	var startPos parser.Position
	for _, dir := range b.AST.Directives {
		switch dir.Name {
		case "name":
			if len(dir.Parameters) != 1 {
				a.raise(semErrDirInvalidParam, "'name' takes just one ID parameter", dir.Pos)
				continue
			}
			specName = dir.Parameters[0].ID
		case "start":
			if len(dir.Parameters) != 1 {
				a.raise(semErrDirInvalidParam, "'start' takes just one ID parameter", dir.Pos)
				continue
			}
			startName = dir.Parameters[0].ID
			startPos = dir.Parameters[0].Pos
		default:
			a.raise(semErrDirInvalidName, dir.Name, dir.Pos)
		}
	}

	if len(b.AST.Productions) == 0 {
		a.raise(semErrNoProduction, "", parser.Position{})
		return nil, a.errs
	}
	if startName == "" {
		startName = b.AST.Productions[0].LHS
		startPos = b.AST.Productions[0].Pos
	}

	if err := b.registerNamedTerminals(); err != nil {
		return nil, err
	}
	nonTermPos, err := b.registerNonTerminals()
	if err != nil {
		return nil, err
	}
	if err := b.registerAnonymousTerminals(); err != nil {
		return nil, err
	}
	if len(a.errs) > 0 {
		return nil, a.errs
	}

	r := a.symTab.Reader()
	for _, prod := range b.AST.Productions {
		lhs, _ := r.ToSymbol(prod.LHS)
		for _, alt := range prod.RHS {
			rhs := make([]symbol.Symbol, 0, len(alt.Elements))
			for _, elem := range alt.Elements {
				sym, ok := b.elementSymbol(elem)
				if !ok {
					return nil, fmt.Errorf("symbol of an element is not registered; element: %+v", elem)
				}
				rhs = append(rhs, sym)
			}
			pos := alt.Pos
			if len(alt.Elements) > 0 {
				pos = alt.Elements[0].Pos
			}
			if err := a.appendProduction(lhs, rhs, pos); err != nil {
				return nil, err
			}
		}
	}

	return a.finish(specName, startName, startPos, nonTermPos)
}

func (b *GrammarBuilder) registerNamedTerminals() error {
	a := b.a
	for _, prod := range b.AST.LexProductions {
		if prod.LHS == symbol.SymbolNameRoot {
			a.raise(semErrReservedName, prod.LHS, prod.Pos)
			continue
		}
		if _, exist := a.symTab.Reader().ToSymbol(prod.LHS); exist {
			a.raise(semErrDuplicateTerminal, prod.LHS, prod.Pos)
			continue
		}

		elem := prod.RHS[0].Elements[0]
		t := &terminal{
			name:    prod.LHS,
			literal: elem.Literally,
			pattern: elem.Pattern,
		}
		if elem.Literally {
			t.pattern = mlspec.EscapePattern(elem.Pattern)
		}
		for _, dir := range prod.Directives {
			if dir.Name != "skip" {
				a.raise(semErrDirInvalidName, dir.Name, dir.Pos)
				continue
			}
			if len(dir.Parameters) > 0 {
				a.raise(semErrDirInvalidParam, "'skip' takes no parameter", dir.Pos)
				continue
			}
			t.skip = true
		}
		if err := a.registerTerminal(t); err != nil {
			return err
		}
	}
	return nil
}

// registerNonTerminals registers the LHS of each production and then the identifiers that appear only
// in alternatives. The latter have no production, so the builder warns about them.
func (b *GrammarBuilder) registerNonTerminals() (map[symbol.Symbol]parser.Position, error) {
	a := b.a
	w := a.symTab.Writer()
	r := a.symTab.Reader()
	nonTermPos := map[symbol.Symbol]parser.Position{}
	for _, prod := range b.AST.Productions {
		if prod.LHS == symbol.SymbolNameRoot {
			a.raise(semErrReservedName, prod.LHS, prod.Pos)
			continue
		}
		for _, dir := range prod.Directives {
			a.raise(semErrDirInvalidName, dir.Name, dir.Pos)
		}
		if sym, exist := r.ToSymbol(prod.LHS); exist {
			if sym.IsTerminal() {
				a.raise(semErrDuplicateName, prod.LHS, prod.Pos)
			}
			continue
		}
		sym, err := w.RegisterNonTerminalSymbol(prod.LHS)
		if err != nil {
			return nil, err
		}
		nonTermPos[sym] = prod.Pos
	}

	for _, prod := range b.AST.Productions {
		for _, alt := range prod.RHS {
			for _, elem := range alt.Elements {
				if elem.ID == "" {
					continue
				}
				if _, exist := r.ToSymbol(elem.ID); exist {
					continue
				}
				sym, err := w.RegisterNonTerminalSymbol(elem.ID)
				if err != nil {
					return nil, err
				}
				nonTermPos[sym] = elem.Pos
				a.warn(semWarnUndefinedNonTerminal, elem.ID, elem.Pos)
			}
		}
	}

	return nonTermPos, nil
}

// registerAnonymousTerminals registers the literals appearing in alternatives. A literal equal to the
// literal of a named terminal refers to that terminal.
func (b *GrammarBuilder) registerAnonymousTerminals() error {
	a := b.a
	r := a.symTab.Reader()
	for _, prod := range b.AST.Productions {
		for _, alt := range prod.RHS {
			for _, elem := range alt.Elements {
				if elem.ID != "" {
					continue
				}
				if b.namedLiteral(elem.Pattern) != nil {
					continue
				}
				if sym, exist := r.ToSymbol(elem.Pattern); exist {
					if t, ok := a.sym2Term[sym]; !ok || !t.anonymous {
						a.raise(semErrDuplicateName, elem.Pattern, elem.Pos)
					}
					continue
				}
				err := a.registerTerminal(&terminal{
					name:      elem.Pattern,
					pattern:   mlspec.EscapePattern(elem.Pattern),
					literal:   true,
					anonymous: true,
				})
				if err != nil {
					return err
				}
			}
		}
	}
	return nil
}

func (b *GrammarBuilder) namedLiteral(lit string) *terminal {
	pat := mlspec.EscapePattern(lit)
	for _, t := range b.a.terminals {
		if t.literal && !t.anonymous && t.pattern == pat {
			return t
		}
	}
	return nil
}

func (b *GrammarBuilder) elementSymbol(elem *parser.ElementNode) (symbol.Symbol, bool) {
	if elem.ID != "" {
		return b.a.symTab.Reader().ToSymbol(elem.ID)
	}
	if t := b.namedLiteral(elem.Pattern); t != nil {
		return t.sym, true
	}
	return b.a.symTab.Reader().ToSymbol(elem.Pattern)
}

type rule struct {
	lhs string
	rhs []string
}

// Builder builds a grammar from rules written in Go. A symbol is a non-terminal when it appears as
// the LHS of a rule or is declared with NonTerminal. Every other symbol is a terminal that matches
// tokens whose kind equals the symbol name.
//
//	g, err := grammar.NewBuilder("s").
//		Rule("s", "a", "s", "a").
//		Rule("s").
//		Build()
type Builder struct {
	name     string
	start    string
	rules    []*rule
	nonTerms []string
}

func NewBuilder(start string) *Builder {
	return &Builder{
		start: start,
	}
}

// Name sets the name of the grammar.
func (b *Builder) Name(name string) *Builder {
	b.name = name
	return b
}

// Rule adds a production. Calling Rule with no RHS symbol adds an empty production.
func (b *Builder) Rule(lhs string, rhs ...string) *Builder {
	b.rules = append(b.rules, &rule{
		lhs: lhs,
		rhs: rhs,
	})
	return b
}

// NonTerminal declares a non-terminal that may have no rule.
func (b *Builder) NonTerminal(name string) *Builder {
	b.nonTerms = append(b.nonTerms, name)
	return b
}

func (b *Builder) Build() (*Grammar, error) {
	a := newAssembler()
	if len(b.rules) == 0 {
		a.raise(semErrNoProduction, "", parser.Position{})
		return nil, a.errs
	}

	isNonTerm := map[string]bool{}
	var nonTerms []string
	for _, r := range b.rules {
		if !isNonTerm[r.lhs] {
			isNonTerm[r.lhs] = true
			nonTerms = append(nonTerms, r.lhs)
		}
	}
	for _, name := range b.nonTerms {
		if !isNonTerm[name] {
			isNonTerm[name] = true
			nonTerms = append(nonTerms, name)
		}
	}

	for _, r := range b.rules {
		for _, name := range append([]string{r.lhs}, r.rhs...) {
			if name == symbol.SymbolNameRoot {
				a.raise(semErrReservedName, name, parser.Position{})
			}
			if name == "" {
				a.raise(semErrEmptyName, r.lhs, parser.Position{})
			}
		}
	}
	if len(a.errs) > 0 {
		return nil, a.errs
	}

	w := a.symTab.Writer()
	r := a.symTab.Reader()
	for _, name := range nonTerms {
		if _, err := w.RegisterNonTerminalSymbol(name); err != nil {
			return nil, err
		}
	}
	for _, rl := range b.rules {
		for _, name := range rl.rhs {
			if _, exist := r.ToSymbol(name); exist {
				continue
			}
			err := a.registerTerminal(&terminal{
				name:    name,
				pattern: mlspec.EscapePattern(name),
				literal: true,
			})
			if err != nil {
				return nil, err
			}
		}
	}

	for _, rl := range b.rules {
		lhs, _ := r.ToSymbol(rl.lhs)
		rhs := make([]symbol.Symbol, len(rl.rhs))
		for i, name := range rl.rhs {
			rhs[i], _ = r.ToSymbol(name)
		}
		if err := a.appendProduction(lhs, rhs, parser.Position{}); err != nil {
			return nil, err
		}
	}

	for _, name := range b.nonTerms {
		sym, _ := r.ToSymbol(name)
		if _, ok := a.prods.findByLHS(sym); ok || !a.isUsedInProductions(sym) {
			continue
		}
		a.warn(semWarnUndefinedNonTerminal, name, parser.Position{})
	}

	return a.finish(b.name, b.start, parser.Position{}, nil)
}
