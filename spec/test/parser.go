package test

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/nihei9/earley/driver"
	"github.com/nihei9/earley/grammar"
	"github.com/nihei9/earley/spec/grammar/parser"
)

type TreeDiff struct {
	ExpectedPath string
	ActualPath   string
	Message      string
}

func newTreeDiff(expected, actual *Tree, message string) *TreeDiff {
	return &TreeDiff{
		ExpectedPath: expected.path(),
		ActualPath:   actual.path(),
		Message:      message,
	}
}

// Tree is an expected derivation tree. A leaf has no kind and holds the text of a token.
type Tree struct {
	Parent   *Tree
	Offset   int
	Kind     string
	Children []*Tree
	Lexeme   string
}

func NewNonTerminalTree(kind string, children ...*Tree) *Tree {
	return &Tree{
		Kind:     kind,
		Children: children,
	}
}

// NewTerminalTree returns a tree of a named terminal. The tree has the text of the token as a leaf.
func NewTerminalTree(kind string, lexeme string) *Tree {
	return &Tree{
		Kind: kind,
		Children: []*Tree{
			NewLeaf(lexeme),
		},
	}
}

func NewLeaf(lexeme string) *Tree {
	return &Tree{
		Lexeme: lexeme,
	}
}

func (t *Tree) IsLeaf() bool {
	return t.Kind == "" && len(t.Children) == 0
}

func (t *Tree) Fill() *Tree {
	for i, c := range t.Children {
		c.Parent = t
		c.Offset = i
		c.Fill()
	}
	return t
}

func (t *Tree) path() string {
	kind := t.Kind
	if t.IsLeaf() {
		kind = fmt.Sprintf("%#v", t.Lexeme)
	}
	if t.Parent == nil {
		return kind
	}
	return fmt.Sprintf("%v.[%v]%v", t.Parent.path(), t.Offset, kind)
}

func (t *Tree) Format() []byte {
	var b bytes.Buffer
	t.format(&b, 0)
	return b.Bytes()
}

func (t *Tree) format(buf *bytes.Buffer, depth int) {
	for i := 0; i < depth; i++ {
		buf.WriteString("    ")
	}
	if t.IsLeaf() {
		buf.WriteString(strconv.Quote(t.Lexeme))
		return
	}
	buf.WriteString("(")
	buf.WriteString(t.Kind)
	if len(t.Children) > 0 {
		buf.WriteString("\n")
		for i, c := range t.Children {
			c.format(buf, depth+1)
			if i < len(t.Children)-1 {
				buf.WriteString("\n")
			}
		}
	}
	buf.WriteString(")")
}

func DiffTree(expected, actual *Tree) []*TreeDiff {
	if expected == nil && actual == nil {
		return nil
	}
	if expected.IsLeaf() != actual.IsLeaf() {
		msg := "unexpected node: expected a leaf and a node to be the same kind of node"
		if expected.IsLeaf() {
			msg = fmt.Sprintf("unexpected node: expected a leaf %#v but got '%v'", expected.Lexeme, actual.Kind)
		} else if actual.IsLeaf() {
			msg = fmt.Sprintf("unexpected node: expected '%v' but got a leaf %#v", expected.Kind, actual.Lexeme)
		}
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	// _ matches any symbols.
	if expected.Kind != "_" && actual.Kind != expected.Kind {
		msg := fmt.Sprintf("unexpected kind: expected '%v' but got '%v'", expected.Kind, actual.Kind)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if expected.Lexeme != actual.Lexeme {
		msg := fmt.Sprintf("unexpected lexeme: expected %#v but got %#v", expected.Lexeme, actual.Lexeme)
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	if len(actual.Children) != len(expected.Children) {
		msg := fmt.Sprintf("unexpected node count: expected %v but got %v", len(expected.Children), len(actual.Children))
		return []*TreeDiff{
			newTreeDiff(expected, actual, msg),
		}
	}
	var diffs []*TreeDiff
	for i, exp := range expected.Children {
		if ds := DiffTree(exp, actual.Children[i]); len(ds) > 0 {
			diffs = append(diffs, ds...)
		}
	}
	return diffs
}

// TestCase is a source and the trees a grammar must derive from it. The output `(error)` means the
// grammar must reject the source.
type TestCase struct {
	Description string
	Source      []byte
	Output      []*Tree
}

// Rejected reports whether the test case expects the source to be rejected.
func (c *TestCase) Rejected() bool {
	return len(c.Output) == 0
}

func ParseTestCase(r io.Reader) (*TestCase, error) {
	parts, err := splitIntoParts(r)
	if err != nil {
		return nil, err
	}
	if len(parts) != 3 {
		return nil, fmt.Errorf("too many or too few part delimiters: a test case consists of just tree parts: %v parts found", len(parts))
	}

	tp := &treeParser{
		lineOffset: parts[0].lineCount + parts[1].lineCount + 2,
	}
	trees, err := tp.parseTrees(bytes.NewReader(parts[2].buf))
	if err != nil {
		return nil, err
	}
	if len(trees) == 1 && trees[0].Kind == kindError {
		trees = nil
	}

	return &TestCase{
		Description: string(parts[0].buf),
		Source:      parts[1].buf,
		Output:      trees,
	}, nil
}

type testCasePart struct {
	buf       []byte
	lineCount int
}

func splitIntoParts(r io.Reader) ([]*testCasePart, error) {
	var bufs []*testCasePart
	s := bufio.NewScanner(r)
	for {
		buf, lineCount, err := readPart(s)
		if err != nil {
			return nil, err
		}
		if buf == nil {
			break
		}
		bufs = append(bufs, &testCasePart{
			buf:       buf,
			lineCount: lineCount,
		})
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return bufs, nil
}

const kindError = "error"

var reDelim = regexp.MustCompile(`^\s*---+\s*$`)

func readPart(s *bufio.Scanner) ([]byte, int, error) {
	if !s.Scan() {
		return nil, 0, s.Err()
	}
	buf := &bytes.Buffer{}
	line := s.Bytes()
	if reDelim.Match(line) {
		// Return an empty slice because (*bytes.Buffer).Bytes() returns nil if we have never written data.
		return []byte{}, 0, nil
	}
	_, err := buf.Write(line)
	if err != nil {
		return nil, 0, err
	}
	lineCount := 1
	for s.Scan() {
		line := s.Bytes()
		if reDelim.Match(line) {
			return buf.Bytes(), lineCount, nil
		}
		_, err := buf.Write([]byte("\n"))
		if err != nil {
			return nil, 0, err
		}
		_, err = buf.Write(line)
		if err != nil {
			return nil, 0, err
		}
		lineCount++
	}
	if err := s.Err(); err != nil {
		return nil, 0, err
	}
	return buf.Bytes(), lineCount, nil
}

// treeGrammarSrc describes the notation of expected trees. A tree is `(kind child...)`, and a child is
// either a tree or a quoted text of a token. A single-quoted text is read as is, and a double-quoted
// text takes the escape sequences of Go.
const treeGrammarSrc = `
#name tree;
#start trees;

trees
    : tree
    | trees tree
    ;
tree
    : '(' id ')'
    | '(' id children ')'
    ;
children
    : child
    | children child
    ;
child
    : tree
    | raw_string
    | interpreted_string
    ;

ws #skip: "[\u{0009}\u{000A}\u{000D}\u{0020}]+";
id: "[A-Za-z_][0-9A-Za-z_]*";
raw_string: "'[^']*'";
interpreted_string: "\"([^\"\\]|\\.)*\"";
`

var (
	treeGramOnce    sync.Once
	treeGram        *grammar.Grammar
	treeGramLexSpec *grammar.LexSpec
	treeGramErr     error
)

func treeGrammar() (*grammar.Grammar, *grammar.LexSpec, error) {
	treeGramOnce.Do(func() {
		ast, err := parser.Parse(strings.NewReader(treeGrammarSrc))
		if err != nil {
			treeGramErr = err
			return
		}
		b := &grammar.GrammarBuilder{
			AST: ast,
		}
		gram, err := b.Build()
		if err != nil {
			treeGramErr = err
			return
		}
		lexSpec, err := grammar.CompileLexSpec(gram)
		if err != nil {
			treeGramErr = err
			return
		}
		treeGram = gram
		treeGramLexSpec = lexSpec
	})
	return treeGram, treeGramLexSpec, treeGramErr
}

type treeParser struct {
	lineOffset int
}

func (tp *treeParser) parseTrees(src io.Reader) ([]*Tree, error) {
	gram, lexSpec, err := treeGrammar()
	if err != nil {
		return nil, err
	}
	ts, err := driver.NewTokenStream(lexSpec, src)
	if err != nil {
		return nil, err
	}
	toks, err := driver.ReadTokens(ts)
	if err != nil {
		return nil, err
	}
	for _, tok := range toks {
		if tok.Invalid {
			return nil, fmt.Errorf("%v:%v: invalid token: %#v", tp.lineOffset+tok.Row+1, tok.Col+1, tok.Text)
		}
	}
	p, err := driver.NewParser(gram)
	if err != nil {
		return nil, err
	}
	res, err := p.Parse(toks)
	if err != nil {
		return nil, err
	}
	if !res.Accepted() {
		return nil, tp.syntaxError(res, toks)
	}

	// The notation is unambiguous, so an accepted source has just one derivation.
	root := res.Trees()[0]
	nodes := flatten(root, "trees")
	var trees []*Tree
	for _, n := range nodes {
		t, err := tp.genTree(n, len(nodes) == 1)
		if err != nil {
			return nil, err
		}
		trees = append(trees, t.Fill())
	}
	return trees, nil
}

// syntaxError reports the first token that no derivation can consume.
func (tp *treeParser) syntaxError(res *driver.Result, toks []*driver.Token) error {
	k := res.Reached()
	if k >= len(toks) {
		return fmt.Errorf("unexpected end of the tree")
	}
	tok := toks[k]
	return fmt.Errorf("%v:%v: unexpected token: %#v", tp.lineOffset+tok.Row+1, tok.Col+1, tok.Text)
}

// flatten returns the elements of a left-recursive list.
func flatten(node *driver.Node, kind string) []*driver.Node {
	var elems []*driver.Node
	for node.KindName == kind {
		if len(node.Children) == 1 {
			elems = append(elems, node.Children[0])
			break
		}
		elems = append(elems, node.Children[1])
		node = node.Children[0]
	}
	for i, j := 0, len(elems)-1; i < j; i, j = i+1, j-1 {
		elems[i], elems[j] = elems[j], elems[i]
	}
	return elems
}

func (tp *treeParser) genTree(node *driver.Node, top bool) (*Tree, error) {
	// tree: '(' id children? ')'
	kindNode := node.Children[1]
	kind := kindNode.Text
	if kind == kindError {
		switch {
		case !top:
			return nil, fmt.Errorf("%v:%v: error node must be the only tree of an output", tp.lineOffset+kindNode.Row+1, kindNode.Col+1)
		case len(node.Children) > 3:
			return nil, fmt.Errorf("%v:%v: error node cannot take children", tp.lineOffset+kindNode.Row+1, kindNode.Col+1)
		}
	}
	if len(node.Children) == 3 {
		return NewNonTerminalTree(kind), nil
	}

	var children []*Tree
	for _, c := range flatten(node.Children[2], "children") {
		c = c.Children[0]
		switch c.KindName {
		case "tree":
			t, err := tp.genTree(c, false)
			if err != nil {
				return nil, err
			}
			children = append(children, t)
		case "raw_string":
			children = append(children, NewLeaf(strings.TrimSuffix(strings.TrimPrefix(c.Text, "'"), "'")))
		case "interpreted_string":
			text, err := strconv.Unquote(c.Text)
			if err != nil {
				return nil, fmt.Errorf("%v:%v: invalid string: %v: %v", tp.lineOffset+c.Row+1, c.Col+1, c.Text, err)
			}
			children = append(children, NewLeaf(text))
		}
	}
	return NewNonTerminalTree(kind, children...), nil
}
