package driver

import (
	"bytes"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"testing"

	"github.com/nihei9/earley/grammar"
	"github.com/nihei9/earley/grammar/symbol"
)

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		caption  string
		builder  *grammar.Builder
		tokens   []*Token
		accepted bool
		trees    []string
	}{
		{
			caption: "a nested pair is accepted",
			builder: grammar.NewBuilder("S").
				Rule("S", "a", "S", "a").
				Rule("S"),
			tokens:   genTokens("a", "a"),
			accepted: true,
			trees: []string{
				"S(a, S(), a)",
			},
		},
		{
			caption: "a single terminal is accepted",
			builder: grammar.NewBuilder("S").
				Rule("S", "a"),
			tokens:   genTokens("a"),
			accepted: true,
			trees: []string{
				"S(a)",
			},
		},
		{
			caption: "a mismatched terminal is rejected",
			builder: grammar.NewBuilder("S").
				Rule("S", "a"),
			tokens: genTokens("b"),
		},
		{
			caption: "the empty input is accepted when the start symbol derives the empty string",
			builder: grammar.NewBuilder("S").
				Rule("S"),
			tokens:   genTokens(),
			accepted: true,
			trees: []string{
				"S()",
			},
		},
		{
			caption: "the empty input is rejected when the start symbol doesn't derive the empty string",
			builder: grammar.NewBuilder("S").
				Rule("S", "a"),
			tokens: genTokens(),
		},
		{
			caption: "a prefix of a sentence is rejected",
			builder: grammar.NewBuilder("S").
				Rule("S", "a", "b"),
			tokens: genTokens("a"),
		},
		{
			caption: "trailing tokens are rejected",
			builder: grammar.NewBuilder("S").
				Rule("S", "a"),
			tokens: genTokens("a", "a"),
		},
		{
			caption: "a left-recursive grammar is accepted",
			builder: grammar.NewBuilder("E").
				Rule("E", "E", "+", "n").
				Rule("E", "n"),
			tokens:   genTokens("n", "+", "n", "+", "n"),
			accepted: true,
			trees: []string{
				"E(E(E(n), +, n), +, n)",
			},
		},
		{
			caption: "a right-recursive grammar is accepted",
			builder: grammar.NewBuilder("E").
				Rule("E", "n", "+", "E").
				Rule("E", "n"),
			tokens:   genTokens("n", "+", "n", "+", "n"),
			accepted: true,
			trees: []string{
				"E(n, +, E(n, +, E(n)))",
			},
		},
		{
			caption: "an ambiguous grammar yields every derivation",
			builder: grammar.NewBuilder("S").
				Rule("S", "S", "S").
				Rule("S", "a"),
			tokens:   genTokens("a", "a", "a"),
			accepted: true,
			trees: []string{
				"S(S(S(a), S(a)), S(a))",
				"S(S(a), S(S(a), S(a)))",
			},
		},
		{
			caption: "nullable non-terminals before a terminal are completed",
			builder: grammar.NewBuilder("S").
				Rule("S", "A", "A", "a").
				Rule("A"),
			tokens:   genTokens("a"),
			accepted: true,
			trees: []string{
				"S(A(), A(), a)",
			},
		},
		{
			caption: "nullable non-terminals yield one tree per placement of a terminal",
			builder: grammar.NewBuilder("S").
				Rule("S", "A", "A", "A", "A").
				Rule("A", "a").
				Rule("A", "E").
				Rule("E"),
			tokens:   genTokens("a"),
			accepted: true,
			trees: []string{
				"S(A(a), A(E()), A(E()), A(E()))",
				"S(A(E()), A(a), A(E()), A(E()))",
				"S(A(E()), A(E()), A(a), A(E()))",
				"S(A(E()), A(E()), A(E()), A(a))",
			},
		},
		{
			caption: "a non-terminal without productions matches nothing",
			builder: grammar.NewBuilder("S").
				Rule("S", "A").
				Rule("S", "b").
				NonTerminal("A"),
			tokens:   genTokens("b"),
			accepted: true,
			trees: []string{
				"S(b)",
			},
		},
		{
			caption: "a cyclic derivation is cut",
			builder: grammar.NewBuilder("S").
				Rule("S", "S").
				Rule("S", "a"),
			tokens:   genTokens("a"),
			accepted: true,
			trees: []string{
				"S(a)",
			},
		},
		{
			caption: "a cyclic derivation of the empty string is cut",
			builder: grammar.NewBuilder("S").
				Rule("S", "S").
				Rule("S"),
			tokens:   genTokens(),
			accepted: true,
			trees: []string{
				"S()",
			},
		},
		{
			caption: "a token of an unknown kind is rejected",
			builder: grammar.NewBuilder("S").
				Rule("S", "a"),
			tokens: []*Token{
				{Kind: "unknown", Text: "a"},
			},
		},
		{
			caption: "a token whose kind is a non-terminal is rejected",
			builder: grammar.NewBuilder("S").
				Rule("S", "T").
				Rule("T", "a"),
			tokens: genTokens("T"),
		},
		{
			caption: "an invalid token is rejected",
			builder: grammar.NewBuilder("S").
				Rule("S", "a"),
			tokens: []*Token{
				{Kind: "a", Text: "a", Invalid: true},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			gram, err := tt.builder.Build()
			if err != nil {
				t.Fatal(err)
			}
			p, err := NewParser(gram)
			if err != nil {
				t.Fatal(err)
			}
			res, err := p.Parse(tt.tokens)
			if err != nil {
				t.Fatal(err)
			}
			if res.Incomplete() {
				t.Fatalf("a result must be complete")
			}
			if res.Accepted() != tt.accepted {
				t.Fatalf("unexpected acceptance; want: %v, got: %v", tt.accepted, res.Accepted())
			}
			if !tt.accepted {
				if res.Forest() != nil {
					t.Fatalf("a rejected input must have no forest")
				}
				if len(res.Trees()) != 0 || res.TreeCount() != 0 {
					t.Fatalf("a rejected input must have no tree")
				}
				return
			}
			testTrees(t, res.Trees(), tt.trees)
			if res.TreeCount() != len(tt.trees) {
				t.Fatalf("unexpected tree count; want: %v, got: %v", len(tt.trees), res.TreeCount())
			}
		})
	}
}

func TestParser_Deterministic(t *testing.T) {
	gram := buildSSGrammar(t)
	p, err := NewParser(gram)
	if err != nil {
		t.Fatal(err)
	}
	toks := genTokens("a", "a", "a", "a", "a")

	res1, err := p.Parse(toks)
	if err != nil {
		t.Fatal(err)
	}
	res2, err := p.Parse(toks)
	if err != nil {
		t.Fatal(err)
	}

	var chart1, chart2 bytes.Buffer
	res1.Chart().Print(&chart1)
	res2.Chart().Print(&chart2)
	if chart1.String() != chart2.String() {
		t.Fatalf("charts are different:\n%v\n---\n%v", chart1.String(), chart2.String())
	}

	trees1 := res1.Trees()
	trees2 := res2.Trees()
	if len(trees1) != len(trees2) {
		t.Fatalf("tree counts are different; first: %v, second: %v", len(trees1), len(trees2))
	}
	for i := range trees1 {
		if treeString(trees1[i]) != treeString(trees2[i]) {
			t.Fatalf("tree #%v is different; first: %v, second: %v", i, treeString(trees1[i]), treeString(trees2[i]))
		}
	}
}

func TestParser_DoesNotModifyGrammar(t *testing.T) {
	gram := buildSSGrammar(t)
	before := describeProductions(gram)

	p, err := NewParser(gram)
	if err != nil {
		t.Fatal(err)
	}
	for _, toks := range [][]*Token{genTokens(), genTokens("a"), genTokens("a", "a", "a"), genTokens("b")} {
		_, err := p.Parse(toks)
		if err != nil {
			t.Fatal(err)
		}
	}

	after := describeProductions(gram)
	if before != after {
		t.Fatalf("the grammar was modified;\nbefore:\n%v\nafter:\n%v", before, after)
	}
	if prods := gram.Productions(symbol.SymbolRoot); len(prods) != 0 {
		t.Fatalf("the grammar must not have productions of the root symbol")
	}
}

func TestParser_ItemCountIsPolynomial(t *testing.T) {
	gram := buildSSGrammar(t)
	p, err := NewParser(gram)
	if err != nil {
		t.Fatal(err)
	}
	kinds := make([]string, 30)
	for i := range kinds {
		kinds[i] = "a"
	}
	res, err := p.Parse(genTokens(kinds...))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Accepted() {
		t.Fatalf("the input must be accepted")
	}

	// The grammar has 8 dotted rules including the root and leaf items, and an item in position k
	// starts at one of k+1 positions.
	const dottedRules = 8
	chart := res.Chart()
	if chart.Len() != len(kinds)+1 {
		t.Fatalf("unexpected position count; want: %v, got: %v", len(kinds)+1, chart.Len())
	}
	for k := 0; k < chart.Len(); k++ {
		if n := len(chart.Items(k)); n > dottedRules*(k+1) {
			t.Fatalf("too many items in position %v; limit: %v, got: %v", k, dottedRules*(k+1), n)
		}
	}
}

func TestParser_TreeCountOfAmbiguousGrammar(t *testing.T) {
	gram := buildSSGrammar(t)
	p, err := NewParser(gram)
	if err != nil {
		t.Fatal(err)
	}

	// The number of binary trees with n leaves is the (n-1)-th Catalan number.
	catalan := []int{1, 1, 2, 5, 14, 42, 132, 429, 1430}
	for n := 1; n <= len(catalan); n++ {
		kinds := make([]string, n)
		for i := range kinds {
			kinds[i] = "a"
		}
		res, err := p.Parse(genTokens(kinds...))
		if err != nil {
			t.Fatal(err)
		}
		if c := res.TreeCount(); c != catalan[n-1] {
			t.Fatalf("unexpected tree count for %v tokens; want: %v, got: %v", n, catalan[n-1], c)
		}
		if c := len(res.Trees()); c != catalan[n-1] {
			t.Fatalf("unexpected number of trees for %v tokens; want: %v, got: %v", n, catalan[n-1], c)
		}
	}
}

func TestParser_MaxTrees(t *testing.T) {
	gram := buildSSGrammar(t)
	p, err := NewParser(gram, MaxTrees(3))
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Parse(genTokens("a", "a", "a", "a", "a"))
	if err != nil {
		t.Fatal(err)
	}
	if n := len(res.Trees()); n != 3 {
		t.Fatalf("unexpected number of trees; want: 3, got: %v", n)
	}
	if c := res.TreeCount(); c != 14 {
		t.Fatalf("the tree count must not be limited; want: 14, got: %v", c)
	}
}

func TestParser_MaxItems(t *testing.T) {
	gram := buildSSGrammar(t)
	p, err := NewParser(gram, MaxItems(10))
	if err != nil {
		t.Fatal(err)
	}
	kinds := make([]string, 20)
	for i := range kinds {
		kinds[i] = "a"
	}
	res, err := p.Parse(genTokens(kinds...))
	if err != nil {
		t.Fatal(err)
	}
	if !res.Incomplete() {
		t.Fatalf("the result must be incomplete")
	}
	if res.Accepted() {
		t.Fatalf("an incomplete result must not be accepted")
	}
	if n := res.Chart().ItemCount(); n > 11 {
		t.Fatalf("the run must stop right after exceeding the limit; got: %v items", n)
	}
}

func TestParser_Forest(t *testing.T) {
	gram := buildSSGrammar(t)
	p, err := NewParser(gram)
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Parse(genTokens("a", "a", "a"))
	if err != nil {
		t.Fatal(err)
	}
	root := res.Forest().Root()
	if root.KindName() != "S" {
		t.Fatalf("unexpected kind name of the root; want: S, got: %v", root.KindName())
	}
	if start, end := root.Span(); start != 0 || end != 3 {
		t.Fatalf("unexpected span of the root; want: (0, 3), got: (%v, %v)", start, end)
	}
	if n := len(root.Alternatives()); n != 2 {
		t.Fatalf("unexpected alternative count of the root; want: 2, got: %v", n)
	}
	for _, alt := range root.Alternatives() {
		if len(alt.Children) != 2 {
			t.Fatalf("unexpected child count; want: 2, got: %v", len(alt.Children))
		}
		if alt.Production == nil || len(alt.Production.RHS()) != 2 {
			t.Fatalf("an alternative must refer to `S → S S`")
		}
	}

	// S over each of the 6 spans plus a leaf per token.
	if n := res.Forest().NodeCount(); n != 9 {
		t.Fatalf("unexpected node count; want: 9, got: %v", n)
	}
}

func TestParser_Chart(t *testing.T) {
	gram, err := grammar.NewBuilder("S").
		Rule("S", "a").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewParser(gram)
	if err != nil {
		t.Fatal(err)
	}
	res, err := p.Parse(genTokens("a"))
	if err != nil {
		t.Fatal(err)
	}

	expected := [][]string{
		{
			"<root> → • S (0, 0)",
			"S → • a (0, 0)",
		},
		{
			"a → a • (0, 1)",
			"S → a • (0, 1)",
			"<root> → S • (0, 1)",
		},
	}
	chart := res.Chart()
	if chart.Len() != len(expected) {
		t.Fatalf("unexpected position count; want: %v, got: %v", len(expected), chart.Len())
	}
	for k, items := range expected {
		if len(chart.Items(k)) != len(items) {
			t.Fatalf("unexpected item count in position %v; want: %v, got: %v", k, len(items), len(chart.Items(k)))
		}
		for i, it := range chart.Items(k) {
			if it.String() != items[i] {
				t.Fatalf("unexpected item #%v in position %v; want: %v, got: %v", i, k, items[i], it.String())
			}
		}
	}
	leaf := chart.Items(1)[0]
	if !leaf.IsLeaf() || leaf.Token().Text != "a" {
		t.Fatalf("the first item in position 1 must be a leaf item of `a`")
	}
}

func TestResult_Reached(t *testing.T) {
	gram, err := grammar.NewBuilder("s").
		Rule("s", "a", "b", "c").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewParser(gram)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		caption  string
		tokens   []*Token
		accepted bool
		reached  int
	}{
		{
			caption:  "an accepted input reaches the last position",
			tokens:   genTokens("a", "b", "c"),
			accepted: true,
			reached:  3,
		},
		{
			caption: "a rejected input stops before an unexpected token",
			tokens:  genTokens("a", "b", "x", "c"),
			reached: 2,
		},
		{
			caption: "a truncated input reaches its end",
			tokens:  genTokens("a", "b"),
			reached: 2,
		},
		{
			caption: "an input starting with an unexpected token reaches only the first position",
			tokens:  genTokens("c"),
			reached: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			res, err := p.Parse(tt.tokens)
			if err != nil {
				t.Fatal(err)
			}
			if res.Accepted() != tt.accepted {
				t.Fatalf("unexpected acceptance; want: %v, got: %v", tt.accepted, res.Accepted())
			}
			if res.Reached() != tt.reached {
				t.Fatalf("unexpected position; want: %v, got: %v", tt.reached, res.Reached())
			}
		})
	}
}

func TestParser_Logger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	gram := buildSSGrammar(t)
	p, err := NewParser(gram, Logger(logger))
	if err != nil {
		t.Fatal(err)
	}
	_, err = p.Parse(genTokens("a", "a"))
	if err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	if strings.Count(out, "position processed") != 3 {
		t.Fatalf("a record per position is expected:\n%v", out)
	}
	if !strings.Contains(out, "accepted=true") {
		t.Fatalf("the final record must report the acceptance:\n%v", out)
	}
}

func TestNewParser_InvalidOptions(t *testing.T) {
	gram := buildSSGrammar(t)
	tests := []struct {
		caption string
		opt     ParserOption
	}{
		{
			caption: "the maximum number of items cannot be negative",
			opt:     MaxItems(-1),
		},
		{
			caption: "the maximum number of trees cannot be negative",
			opt:     MaxTrees(-1),
		},
		{
			caption: "a logger cannot be nil",
			opt:     Logger(nil),
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			_, err := NewParser(gram, tt.opt)
			if err == nil {
				t.Fatalf("an error must occur")
			}
		})
	}
}

func buildSSGrammar(t *testing.T) *grammar.Grammar {
	t.Helper()

	gram, err := grammar.NewBuilder("S").
		Rule("S", "S", "S").
		Rule("S", "a").
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return gram
}

func genTokens(kinds ...string) []*Token {
	toks := make([]*Token, len(kinds))
	for i, k := range kinds {
		toks[i] = &Token{
			Kind: k,
			Text: k,
			Row:  0,
			Col:  i,
		}
	}
	return toks
}

func describeProductions(gram *grammar.Grammar) string {
	var b strings.Builder
	for _, prod := range gram.AllProductions() {
		fmt.Fprintf(&b, "%v %v %v\n", prod.Num(), prod.LHS(), prod.RHS())
	}
	return b.String()
}

// treeString formats a tree like `S(a, S(), a)`. A terminal is written as its kind name.
func treeString(n *Node) string {
	if n.Terminal {
		return n.KindName
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%v(", n.KindName)
	for i, c := range n.Children {
		if i > 0 {
			fmt.Fprintf(&b, ", ")
		}
		fmt.Fprintf(&b, "%v", treeString(c))
	}
	fmt.Fprintf(&b, ")")
	return b.String()
}

func testTrees(t *testing.T, trees []*Node, expected []string) {
	t.Helper()

	actual := make([]string, len(trees))
	for i, tree := range trees {
		actual[i] = treeString(tree)
	}
	sort.Strings(actual)
	exp := make([]string, len(expected))
	copy(exp, expected)
	sort.Strings(exp)
	if len(actual) != len(exp) {
		t.Fatalf("unexpected trees; want: %v, got: %v", exp, actual)
	}
	for i := range exp {
		if actual[i] != exp[i] {
			t.Fatalf("unexpected trees; want: %v, got: %v", exp, actual)
		}
	}
}
