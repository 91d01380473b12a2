package parser

import (
	"fmt"
	"io"

	verr "github.com/nihei9/earley/error"
)

type RootNode struct {
	Directives     []*DirectiveNode
	Productions    []*ProductionNode
	LexProductions []*ProductionNode
}

type ProductionNode struct {
	Directives []*DirectiveNode
	LHS        string
	RHS        []*AlternativeNode
	Pos        Position
}

// isLexical reports whether a production defines a terminal symbol. A lexical production looks like
// `num: "[0-9]+";` or `add: '+';`.
func (n *ProductionNode) isLexical() bool {
	if len(n.RHS) != 1 {
		return false
	}
	alt := n.RHS[0]
	if len(alt.Elements) != 1 {
		return false
	}
	return alt.Elements[0].Pattern != ""
}

type AlternativeNode struct {
	Elements []*ElementNode
	Pos      Position
}

type ElementNode struct {
	ID        string
	Pattern   string
	Literally bool
	Pos       Position
}

type DirectiveNode struct {
	Name       string
	Parameters []*ParameterNode
	Pos        Position
}

type ParameterNode struct {
	ID  string
	Pos Position
}

func raiseSyntaxError(pos Position, synErr *SyntaxError) {
	panic(&verr.SpecError{
		Cause: synErr,
		Row:   pos.Row,
		Col:   pos.Col,
	})
}

func raiseSyntaxErrorWithDetail(pos Position, synErr *SyntaxError, detail string) {
	panic(&verr.SpecError{
		Cause:  synErr,
		Detail: detail,
		Row:    pos.Row,
		Col:    pos.Col,
	})
}

// Parse reads a grammar. When the source contains syntax errors, Parse returns verr.SpecErrors
// holding every error found.
func Parse(src io.Reader) (*RootNode, error) {
	p, err := newParser(src)
	if err != nil {
		return nil, err
	}
	root, err := p.parse()
	if err != nil {
		return nil, err
	}
	if len(p.errs) > 0 {
		return nil, p.errs
	}
	return root, nil
}

type parser struct {
	lex       *lexer
	peekedTok *token
	lastTok   *token
	errs      verr.SpecErrors

	// A token position is updated every time the parser reads a token, so the parser can report
	// where an unexpected token is.
	pos Position
}

func newParser(src io.Reader) (*parser, error) {
	lex, err := newLexer(src)
	if err != nil {
		return nil, err
	}
	return &parser{
		lex: lex,
	}, nil
}

func (p *parser) parse() (root *RootNode, retErr error) {
	root = &RootNode{}
	for {
		done, err := p.parseTopLevel(root)
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	return root, nil
}

// parseTopLevel parses a top-level directive or a production. When a syntax error occurs, it records the
// error and skips tokens until a semicolon so that the parser can report the subsequent errors too.
func (p *parser) parseTopLevel(root *RootNode) (done bool, retErr error) {
	defer func() {
		v := recover()
		if v == nil {
			return
		}
		specErr, ok := v.(*verr.SpecError)
		if !ok {
			err, ok := v.(error)
			if !ok {
				panic(v)
			}
			retErr = err
			return
		}
		p.errs = append(p.errs, specErr)
		done = p.skipOverTo(tokenKindSemicolon)
	}()

	if p.consume(tokenKindEOF) {
		return true, nil
	}

	if dir := p.parseTopLevelDirective(); dir != nil {
		root.Directives = append(root.Directives, dir)
		return false, nil
	}

	prod := p.parseProduction()
	if prod.isLexical() {
		root.LexProductions = append(root.LexProductions, prod)
		return false, nil
	}

	// The production has been read up to its semicolon, so the parser records the error and goes on
	// without skipping tokens.
	valid := true
	for _, alt := range prod.RHS {
		for _, elem := range alt.Elements {
			if elem.Pattern != "" && !elem.Literally {
				p.errs = append(p.errs, &verr.SpecError{
					Cause:  synErrPatternInAlt,
					Detail: elem.Pattern,
					Row:    elem.Pos.Row,
					Col:    elem.Pos.Col,
				})
				valid = false
			}
		}
	}
	if valid {
		root.Productions = append(root.Productions, prod)
	}
	return false, nil
}

func (p *parser) parseTopLevelDirective() *DirectiveNode {
	if !p.consume(tokenKindDirectiveMarker) {
		return nil
	}
	dir := p.parseDirectiveBody()
	if !p.consume(tokenKindSemicolon) {
		raiseSyntaxError(p.pos, synErrTopLevelDirNoSemicolon)
	}
	return dir
}

// parseDirectiveBody parses a directive following the directive marker `#`.
func (p *parser) parseDirectiveBody() *DirectiveNode {
	markerPos := p.lastTok.pos
	if !p.consume(tokenKindID) {
		raiseSyntaxError(p.pos, synErrNoDirectiveName)
	}
	dir := &DirectiveNode{
		Name: p.lastTok.text,
		Pos:  markerPos,
	}
	for p.consume(tokenKindID) {
		dir.Parameters = append(dir.Parameters, &ParameterNode{
			ID:  p.lastTok.text,
			Pos: p.lastTok.pos,
		})
	}
	return dir
}

func (p *parser) parseProduction() *ProductionNode {
	if !p.consume(tokenKindID) {
		raiseSyntaxError(p.pos, synErrNoProductionName)
	}
	prod := &ProductionNode{
		LHS: p.lastTok.text,
		Pos: p.lastTok.pos,
	}

	for p.consume(tokenKindDirectiveMarker) {
		prod.Directives = append(prod.Directives, p.parseDirectiveBody())
	}

	if !p.consume(tokenKindColon) {
		raiseSyntaxError(p.pos, synErrNoColon)
	}
	prod.RHS = append(prod.RHS, p.parseAlternative())
	for p.consume(tokenKindOr) {
		prod.RHS = append(prod.RHS, p.parseAlternative())
	}
	if !p.consume(tokenKindSemicolon) {
		raiseSyntaxError(p.pos, synErrNoSemicolon)
	}
	return prod
}

func (p *parser) parseAlternative() *AlternativeNode {
	alt := &AlternativeNode{
		Pos: p.pos,
	}
	for {
		elem := p.parseElement()
		if elem == nil {
			break
		}
		alt.Elements = append(alt.Elements, elem)
	}
	return alt
}

func (p *parser) parseElement() *ElementNode {
	switch {
	case p.consume(tokenKindID):
		return &ElementNode{
			ID:  p.lastTok.text,
			Pos: p.lastTok.pos,
		}
	case p.consume(tokenKindTerminalPattern):
		return &ElementNode{
			Pattern: p.lastTok.text,
			Pos:     p.lastTok.pos,
		}
	case p.consume(tokenKindStringLiteral):
		return &ElementNode{
			Pattern:   p.lastTok.text,
			Literally: true,
			Pos:       p.lastTok.pos,
		}
	}
	return nil
}

// skipOverTo skips tokens until it consumes a token of the kind. It returns true when it reaches EOF.
func (p *parser) skipOverTo(kind tokenKind) bool {
	for {
		tok, err := p.read()
		if err != nil || tok.kind == tokenKindEOF {
			return true
		}
		if tok.kind == kind {
			return false
		}
	}
}

func (p *parser) consume(expected tokenKind) bool {
	tok, err := p.read()
	if err != nil {
		panic(err)
	}
	p.lastTok = tok
	p.pos = tok.pos
	if tok.kind == tokenKindInvalid {
		raiseSyntaxErrorWithDetail(tok.pos, synErrInvalidToken, tok.text)
	}
	if tok.kind == expected {
		return true
	}
	p.peekedTok = tok
	p.lastTok = nil

	return false
}

func (p *parser) read() (*token, error) {
	if p.peekedTok != nil {
		tok := p.peekedTok
		p.peekedTok = nil
		return tok, nil
	}
	tok, err := p.lex.next()
	if err != nil {
		if _, ok := err.(*verr.SpecError); ok {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read a grammar: %w", err)
	}
	return tok, nil
}
