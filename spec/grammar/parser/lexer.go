package parser

import (
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	verr "github.com/nihei9/earley/error"
	mlcompiler "github.com/nihei9/maleeni/compiler"
	mldriver "github.com/nihei9/maleeni/driver"
	mlspec "github.com/nihei9/maleeni/spec"
)

type tokenKind string

const (
	tokenKindID              = tokenKind("id")
	tokenKindTerminalPattern = tokenKind("terminal pattern")
	tokenKindStringLiteral   = tokenKind("string")
	tokenKindColon           = tokenKind(":")
	tokenKindOr              = tokenKind("|")
	tokenKindSemicolon       = tokenKind(";")
	tokenKindDirectiveMarker = tokenKind("#")
	tokenKindEOF             = tokenKind("eof")
	tokenKindInvalid         = tokenKind("invalid")
)

type Position struct {
	Row int
	Col int
}

func newPosition(row, col int) Position {
	return Position{
		Row: row,
		Col: col,
	}
}

type token struct {
	kind tokenKind
	text string
	pos  Position
}

func newSymbolToken(kind tokenKind, pos Position) *token {
	return &token{
		kind: kind,
		pos:  pos,
	}
}

func newIDToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindID,
		text: text,
		pos:  pos,
	}
}

func newTerminalPatternToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindTerminalPattern,
		text: text,
		pos:  pos,
	}
}

func newStringLiteralToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindStringLiteral,
		text: text,
		pos:  pos,
	}
}

func newEOFToken(pos Position) *token {
	return &token{
		kind: tokenKindEOF,
		pos:  pos,
	}
}

func newInvalidToken(text string, pos Position) *token {
	return &token{
		kind: tokenKindInvalid,
		text: text,
		pos:  pos,
	}
}

const (
	lexModeTerminal      = mlspec.LexModeName("terminal")
	lexModeStringLiteral = mlspec.LexModeName("string_literal")
)

// lexEntries defines the tokens of the grammar language. A terminal pattern and a string literal have
// their own modes because their contents follow different rules from the rest of a grammar.
var lexEntries = []*mlspec.LexEntry{
	{Kind: "white_space", Pattern: `[\u{0009}\u{000A}\u{000D}\u{0020}]+`},
	{Kind: "line_comment", Pattern: `//[^\u{000A}]*`},
	{Kind: "identifier", Pattern: `[0-9A-Za-z_]+`},
	{Kind: "colon", Pattern: `:`},
	{Kind: "or", Pattern: `\|`},
	{Kind: "semicolon", Pattern: `;`},
	{Kind: "directive_marker", Pattern: `#`},
	{Kind: "terminal_open", Pattern: `"`, Push: lexModeTerminal},
	{Kind: "string_literal_open", Pattern: `'`, Push: lexModeStringLiteral},

	{Kind: "pattern", Pattern: `[^\\"\u{000A}]+`, Modes: []mlspec.LexModeName{lexModeTerminal}},
	{Kind: "escaped_double_quot", Pattern: `\\"`, Modes: []mlspec.LexModeName{lexModeTerminal}},
	{Kind: "escape_seq", Pattern: `\\[^"\u{000A}]`, Modes: []mlspec.LexModeName{lexModeTerminal}},
	{Kind: "escape_symbol", Pattern: `\\`, Modes: []mlspec.LexModeName{lexModeTerminal}},
	{Kind: "terminal_newline", Pattern: `\u{000A}`, Modes: []mlspec.LexModeName{lexModeTerminal}},
	{Kind: "terminal_close", Pattern: `"`, Modes: []mlspec.LexModeName{lexModeTerminal}, Pop: true},

	{Kind: "char_seq", Pattern: `[^\\'\u{000A}]+`, Modes: []mlspec.LexModeName{lexModeStringLiteral}},
	{Kind: "escaped_quot", Pattern: `\\'`, Modes: []mlspec.LexModeName{lexModeStringLiteral}},
	{Kind: "escaped_back_slash", Pattern: `\\\\`, Modes: []mlspec.LexModeName{lexModeStringLiteral}},
	{Kind: "escaped_char", Pattern: `\\[^\\'\u{000A}]`, Modes: []mlspec.LexModeName{lexModeStringLiteral}},
	{Kind: "string_literal_escape_symbol", Pattern: `\\`, Modes: []mlspec.LexModeName{lexModeStringLiteral}},
	{Kind: "string_literal_newline", Pattern: `\u{000A}`, Modes: []mlspec.LexModeName{lexModeStringLiteral}},
	{Kind: "string_literal_close", Pattern: `'`, Modes: []mlspec.LexModeName{lexModeStringLiteral}, Pop: true},
}

var (
	lexSpecOnce sync.Once
	lexSpec     *mlspec.CompiledLexSpec
	lexSpecErr  error
)

func compileLexSpec() (*mlspec.CompiledLexSpec, error) {
	lexSpecOnce.Do(func() {
		s := &mlspec.LexSpec{
			Name:    "grammar",
			Entries: lexEntries,
		}
		lexSpec, lexSpecErr, _ = mlcompiler.Compile(s, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	})
	return lexSpec, lexSpecErr
}

type lexer struct {
	s *mlspec.CompiledLexSpec
	d *mldriver.Lexer

	// row and col point at the character following the last lexeme. Both are 1-origin.
	row int
	col int
}

func newLexer(src io.Reader) (*lexer, error) {
	s, err := compileLexSpec()
	if err != nil {
		return nil, err
	}
	d, err := mldriver.NewLexer(mldriver.NewLexSpec(s), src)
	if err != nil {
		return nil, err
	}
	return &lexer{
		s:   s,
		d:   d,
		row: 1,
		col: 1,
	}, nil
}

func (l *lexer) next() (*token, error) {
	for {
		tok, kind, pos, err := l.read()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return newEOFToken(pos), nil
		}
		if tok.Invalid {
			return newInvalidToken(string(tok.Lexeme), pos), nil
		}

		switch kind {
		case "white_space", "line_comment":
			continue
		case "identifier":
			id := string(tok.Lexeme)
			if cause := validateID(id); cause != nil {
				return nil, &verr.SpecError{
					Cause:  cause,
					Detail: id,
					Row:    pos.Row,
					Col:    pos.Col,
				}
			}
			return newIDToken(id, pos), nil
		case "colon":
			return newSymbolToken(tokenKindColon, pos), nil
		case "or":
			return newSymbolToken(tokenKindOr, pos), nil
		case "semicolon":
			return newSymbolToken(tokenKindSemicolon, pos), nil
		case "directive_marker":
			return newSymbolToken(tokenKindDirectiveMarker, pos), nil
		case "terminal_open":
			return l.lexTerminalPattern(pos)
		case "string_literal_open":
			return l.lexStringLiteral(pos)
		default:
			return newInvalidToken(string(tok.Lexeme), pos), nil
		}
	}
}

// read returns the next token of maleeni along with its kind name and position.
func (l *lexer) read() (*mldriver.Token, mlspec.LexKindName, Position, error) {
	tok, err := l.d.Next()
	if err != nil {
		return nil, mlspec.LexKindNameNil, Position{}, err
	}
	pos := newPosition(l.row, l.col)
	for b := tok.Lexeme; len(b) > 0; {
		c, size := utf8.DecodeRune(b)
		b = b[size:]
		if c == '\n' {
			l.row++
			l.col = 1
		} else {
			l.col++
		}
	}
	kind := mlspec.LexKindNameNil
	if !tok.EOF && !tok.Invalid {
		kind = l.s.KindNames[tok.KindID]
	}
	return tok, kind, pos, nil
}

func validateID(id string) *SyntaxError {
	for _, c := range id {
		if !(c >= 'a' && c <= 'z') && !(c >= '0' && c <= '9') && c != '_' {
			return synErrIDInvalidChar
		}
	}
	if strings.HasPrefix(id, "_") || strings.HasSuffix(id, "_") {
		return synErrIDInvalidUnderscorePos
	}
	if strings.Contains(id, "__") {
		return synErrIDConsecutiveUnderscores
	}
	if id[0] >= '0' && id[0] <= '9' {
		return synErrIDInvalidDigitsPos
	}
	return nil
}

// lexTerminalPattern reads a pattern enclosed in double quotes. The escape sequences are interpreted
// by the tokenizer, except for the \" that is a delimiter of the pattern.
func (l *lexer) lexTerminalPattern(pos Position) (*token, error) {
	var b strings.Builder
	for {
		tok, kind, _, err := l.read()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return nil, raise(synErrUnclosedTerminal, pos)
		}
		if tok.Invalid {
			b.Write(tok.Lexeme)
			continue
		}
		switch kind {
		case "pattern", "escape_seq":
			b.Write(tok.Lexeme)
		case "escaped_double_quot":
			b.WriteRune('"')
		case "escape_symbol":
			return nil, raise(synErrIncompletedEscSeq, pos)
		case "terminal_newline":
			return nil, raise(synErrUnclosedTerminal, pos)
		case "terminal_close":
			pat := b.String()
			if pat == "" {
				return nil, raise(synErrEmptyPattern, pos)
			}
			return newTerminalPatternToken(pat, pos), nil
		}
	}
}

// lexStringLiteral reads a string enclosed in single quotes. Only \' and \\ are escape sequences.
func (l *lexer) lexStringLiteral(pos Position) (*token, error) {
	var b strings.Builder
	for {
		tok, kind, _, err := l.read()
		if err != nil {
			return nil, err
		}
		if tok.EOF {
			return nil, raise(synErrUnclosedString, pos)
		}
		if tok.Invalid {
			b.Write(tok.Lexeme)
			continue
		}
		switch kind {
		case "char_seq", "escaped_char":
			b.Write(tok.Lexeme)
		case "escaped_quot":
			b.WriteRune('\'')
		case "escaped_back_slash":
			b.WriteRune('\\')
		case "string_literal_escape_symbol":
			return nil, raise(synErrIncompletedEscSeq, pos)
		case "string_literal_newline":
			return nil, raise(synErrUnclosedString, pos)
		case "string_literal_close":
			str := b.String()
			if str == "" {
				return nil, raise(synErrEmptyString, pos)
			}
			return newStringLiteralToken(str, pos), nil
		}
	}
}

func raise(cause *SyntaxError, pos Position) *verr.SpecError {
	return &verr.SpecError{
		Cause: cause,
		Row:   pos.Row,
		Col:   pos.Col,
	}
}
