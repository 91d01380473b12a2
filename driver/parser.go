package driver

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/nihei9/earley/grammar"
	"github.com/nihei9/earley/grammar/symbol"
)

type ParserOption func(p *Parser) error

// MaxItems limits the number of items a run may create. When a run creates more items than the limit,
// it stops and returns an incomplete result. Zero means no limit.
func MaxItems(n int) ParserOption {
	return func(p *Parser) error {
		if n < 0 {
			return fmt.Errorf("the maximum number of items must be zero or more: %v", n)
		}
		p.maxItems = n
		return nil
	}
}

// MaxTrees limits the number of trees that Result.Trees materializes. Zero means no limit.
func MaxTrees(n int) ParserOption {
	return func(p *Parser) error {
		if n < 0 {
			return fmt.Errorf("the maximum number of trees must be zero or more: %v", n)
		}
		p.maxTrees = n
		return nil
	}
}

func Logger(l *slog.Logger) ParserOption {
	return func(p *Parser) error {
		if l == nil {
			return fmt.Errorf("a logger must be non-nil")
		}
		p.logger = l
		return nil
	}
}

// Parser recognizes token sequences with an Earley chart. A Parser keeps no state between runs, so it
// can parse any number of inputs.
type Parser struct {
	gram     *grammar.Grammar
	maxItems int
	maxTrees int
	logger   *slog.Logger
}

func NewParser(gram *grammar.Grammar, opts ...ParserOption) (*Parser, error) {
	if gram == nil {
		return nil, fmt.Errorf("a grammar must be non-nil")
	}

	p := &Parser{
		gram:   gram,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	for _, opt := range opts {
		err := opt(p)
		if err != nil {
			return nil, err
		}
	}

	return p, nil
}

// ParseStream reads all tokens from a stream and parses them.
func (p *Parser) ParseStream(ts TokenStream) (*Result, error) {
	toks, err := ReadTokens(ts)
	if err != nil {
		return nil, err
	}
	return p.Parse(toks)
}

// Parse builds a chart for tokens. Rejecting the tokens is not an error; it is a result that is not accepted.
func (p *Parser) Parse(toks []*Token) (*Result, error) {
	r := newRun(p, toks)
	r.run()

	res := &Result{
		gram:       p.gram,
		toks:       toks,
		chart:      &Chart{positions: r.positions},
		incomplete: r.exhausted,
		maxTrees:   p.maxTrees,
	}
	if !r.exhausted {
		if root, ok := r.positions[len(toks)].keys[r.rootKey(1)]; ok {
			res.accepted = true
			res.forest = newForest(p.gram, toks, r.positions, root)
		}
	}

	p.logger.Debug("parse finished",
		slog.Int("tokens", len(toks)),
		slog.Int("items", r.itemCount),
		slog.Bool("accepted", res.accepted),
		slog.Bool("incomplete", res.incomplete))

	return res, nil
}

// run holds the state of one parse. The root production `<root> → start` exists only here, so a grammar
// is never modified by parsing.
type run struct {
	p         *Parser
	toks      []*Token
	terms     []symbol.Symbol
	positions []*position
	rootRHS   []symbol.Symbol
	links     map[link]struct{}
	itemCount int
	exhausted bool

	predictions int
	scans       int
	completions int
}

func newRun(p *Parser, toks []*Token) *run {
	terms := make([]symbol.Symbol, len(toks))
	for i, tok := range toks {
		terms[i] = symbol.SymbolNil
		if tok.Invalid {
			continue
		}
		sym, ok := p.gram.ToSymbol(tok.Kind)
		if !ok || !sym.IsTerminal() {
			continue
		}
		terms[i] = sym
	}

	positions := make([]*position, len(toks)+1)
	for i := range positions {
		positions[i] = newPosition(i)
	}

	return &run{
		p:         p,
		toks:      toks,
		terms:     terms,
		positions: positions,
		rootRHS:   []symbol.Symbol{p.gram.Start()},
		links:     map[link]struct{}{},
	}
}

func (r *run) rootKey(dot int) itemKey {
	return itemKey{
		lhs:   symbol.SymbolRoot,
		dot:   dot,
		start: 0,
	}
}

func (r *run) run() {
	r.insert(r.positions[0], &Item{
		gram:  r.p.gram,
		lhs:   symbol.SymbolRoot,
		rhs:   r.rootRHS,
		dot:   0,
		start: 0,
		end:   0,
	})

	for k, pos := range r.positions {
		r.predictions, r.scans, r.completions = 0, 0, 0

		// The loop reads the length on every iteration because processing an item may append items
		// to the same position.
		for i := 0; i < len(pos.items); i++ {
			if r.exhausted {
				return
			}
			it := pos.items[i]
			switch {
			case it.IsComplete():
				r.complete(pos, it)
			case it.next().IsNonTerminal():
				r.predict(pos, it)
			default:
				r.scan(k, it)
			}
		}

		r.p.logger.Debug("position processed",
			slog.Int("position", k),
			slog.Int("items", len(pos.items)),
			slog.Int("predictions", r.predictions),
			slog.Int("scans", r.scans),
			slog.Int("completions", r.completions))
	}
}

// insert adds an item to a position. When the position already has the same item, insert records the
// links of the new one on the existing item so that no derivation is lost.
func (r *run) insert(pos *position, it *Item) {
	if r.exhausted {
		return
	}
	stored, inserted := pos.add(it)
	if inserted {
		r.itemCount++
		if r.p.maxItems > 0 && r.itemCount > r.p.maxItems {
			r.exhausted = true
		}
		for _, l := range it.links {
			r.links[*l] = struct{}{}
		}
		return
	}
	for _, l := range it.links {
		if _, ok := r.links[*l]; ok {
			continue
		}
		r.links[*l] = struct{}{}
		stored.links = append(stored.links, l)
	}
}

// predict adds the productions of the symbol after the dot. When the symbol has already been completed
// with no token at this position, the item is advanced over it here because the completion will not
// be processed again.
func (r *run) predict(pos *position, it *Item) {
	sym := it.next()
	for _, prod := range r.p.gram.Productions(sym) {
		r.predictions++
		r.insert(pos, &Item{
			gram:  r.p.gram,
			lhs:   sym,
			prod:  prod,
			rhs:   prod.RHS(),
			dot:   0,
			start: pos.index,
			end:   pos.index,
		})
	}

	for _, empty := range pos.completedItems(sym, pos.index) {
		r.advance(pos, it, empty)
	}
}

// scan adds a leaf item to the next position when the token matches the symbol after the dot.
func (r *run) scan(k int, it *Item) {
	if k >= len(r.toks) {
		return
	}
	sym := it.next()
	if r.terms[k].IsNil() || r.terms[k] != sym {
		return
	}
	r.scans++
	r.insert(r.positions[k+1], &Item{
		gram:  r.p.gram,
		lhs:   sym,
		rhs:   []symbol.Symbol{sym},
		dot:   1,
		start: k,
		end:   k + 1,
		tok:   r.toks[k],
	})
}

// complete advances the items waiting for the LHS of a complete item at the item's start.
func (r *run) complete(pos *position, it *Item) {
	origin := r.positions[it.start]
	waiting := origin.waiting[it.lhs]
	for i := 0; i < len(waiting); i++ {
		r.advance(pos, waiting[i], it)
		if r.exhausted {
			return
		}
		// The waiting list of the current position can grow while the loop runs.
		waiting = origin.waiting[it.lhs]
	}
}

func (r *run) advance(pos *position, pred *Item, child *Item) {
	r.completions++
	r.insert(pos, &Item{
		gram:  r.p.gram,
		lhs:   pred.lhs,
		prod:  pred.prod,
		rhs:   pred.rhs,
		dot:   pred.dot + 1,
		start: pred.start,
		end:   pos.index,
		links: []*link{
			{
				pred:  pred,
				child: child,
			},
		},
	})
}
