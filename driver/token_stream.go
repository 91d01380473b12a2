package driver

import (
	"io"

	"github.com/nihei9/earley/grammar"
	mldriver "github.com/nihei9/maleeni/driver"
)

// Token is an input element of a parser. Kind is the name of a terminal symbol. A token whose kind
// the grammar doesn't know, or an invalid token, matches no terminal.
type Token struct {
	Kind    string
	Text    string
	Row     int
	Col     int
	EOF     bool
	Invalid bool
}

type TokenStream interface {
	// Next returns the next token. After the last token, Next returns a token whose EOF is true.
	Next() (*Token, error)
}

// ReadTokens reads tokens until EOF. The EOF token isn't included.
func ReadTokens(ts TokenStream) ([]*Token, error) {
	var toks []*Token
	for {
		tok, err := ts.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return toks, nil
		}
		toks = append(toks, tok)
	}
}

type tokenStream struct {
	lex            *mldriver.Lexer
	kindToTerminal []string
	skip           []bool
}

// NewTokenStream returns a token stream that tokenizes a source with the lexical specification
// of a grammar. The stream drops tokens of skipped kinds.
func NewTokenStream(lexSpec *grammar.LexSpec, src io.Reader) (TokenStream, error) {
	if lexSpec.Spec == nil {
		return &emptyTokenStream{
			src: src,
		}, nil
	}

	lex, err := mldriver.NewLexer(mldriver.NewLexSpec(lexSpec.Spec), src)
	if err != nil {
		return nil, err
	}

	return &tokenStream{
		lex:            lex,
		kindToTerminal: lexSpec.KindToTerminal,
		skip:           lexSpec.Skip,
	}, nil
}

func (s *tokenStream) Next() (*Token, error) {
	for {
		tok, err := s.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return &Token{
				Row: tok.Row,
				Col: tok.Col,
				EOF: true,
			}, nil
		}
		if tok.Invalid {
			return &Token{
				Text:    string(tok.Lexeme),
				Row:     tok.Row,
				Col:     tok.Col,
				Invalid: true,
			}, nil
		}
		if s.skip[tok.KindID] {
			continue
		}
		return &Token{
			Kind: s.kindToTerminal[tok.KindID],
			Text: string(tok.Lexeme),
			Row:  tok.Row,
			Col:  tok.Col,
		}, nil
	}
}

// emptyTokenStream serves a grammar that has no terminal. Any character in the source is invalid.
type emptyTokenStream struct {
	src  io.Reader
	done bool
}

func (s *emptyTokenStream) Next() (*Token, error) {
	if s.done {
		return &Token{
			EOF: true,
		}, nil
	}
	s.done = true
	b, err := io.ReadAll(s.src)
	if err != nil {
		return nil, err
	}
	if len(b) == 0 {
		return &Token{
			EOF: true,
		}, nil
	}
	return &Token{
		Text:    string(b),
		Invalid: true,
	}, nil
}
