package grammar

import (
	"testing"
)

type first struct {
	symbol  string
	symbols []string
	empty   bool
}

func TestGrammar_First(t *testing.T) {
	tests := []struct {
		caption string
		src     string
		first   []first
	}{
		{
			caption: "productions contain only non-empty productions",
			src: `
#name test;

expr
    : expr add term
    | term
    ;
term
    : term mul factor
    | factor
    ;
factor
    : l_paren expr r_paren
    | id
    ;
add: "\+";
mul: "\*";
l_paren: "\(";
r_paren: "\)";
id: "[A-Za-z_][0-9A-Za-z_]*";
`,
			first: []first{
				{symbol: "expr", symbols: []string{"l_paren", "id"}},
				{symbol: "term", symbols: []string{"l_paren", "id"}},
				{symbol: "factor", symbols: []string{"l_paren", "id"}},
				{symbol: "add", symbols: []string{"add"}},
			},
		},
		{
			caption: "productions contain the empty start production",
			src: `
#name test;

s
    :
    ;
`,
			first: []first{
				{symbol: "s", symbols: []string{}, empty: true},
			},
		},
		{
			caption: "a non-terminal preceded by nullable non-terminals contributes to FIRST",
			src: `
#name test;

s
    : a b c
    ;
a
    : foo
    |
    ;
b
    : bar
    |
    ;
c
    : baz
    ;
foo: 'foo';
bar: 'bar';
baz: 'baz';
`,
			first: []first{
				{symbol: "s", symbols: []string{"foo", "bar", "baz"}},
				{symbol: "a", symbols: []string{"foo"}, empty: true},
				{symbol: "b", symbols: []string{"bar"}, empty: true},
				{symbol: "c", symbols: []string{"baz"}},
			},
		},
		{
			caption: "a sequence of nullable non-terminals is nullable",
			src: `
#name test;

s
    : a b
    ;
a
    : foo
    |
    ;
b
    : a a
    ;
foo: 'foo';
`,
			first: []first{
				{symbol: "s", symbols: []string{"foo"}, empty: true},
				{symbol: "b", symbols: []string{"foo"}, empty: true},
			},
		},
		{
			caption: "a cyclic non-terminal gets only what its other productions give",
			src: `
#name test;

s
    : s
    | foo
    ;
foo: 'foo';
`,
			first: []first{
				{symbol: "s", symbols: []string{"foo"}},
			},
		},
		{
			caption: "a non-terminal having no production derives nothing",
			src: `
#name test;

s
    : undefined foo
    ;
foo: 'foo';
`,
			first: []first{
				{symbol: "s", symbols: []string{}},
				{symbol: "undefined", symbols: []string{}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			gram, err := buildGrammar(t, tt.src)
			if err != nil {
				t.Fatal(err)
			}
			genSym := newTestSymbolGenerator(t, gram)
			for _, fst := range tt.first {
				sym := genSym(fst.symbol)
				if gram.IsNullable(sym) != fst.empty {
					t.Fatalf("unexpected nullability of %v; want: %v, got: %v", fst.symbol, fst.empty, gram.IsNullable(sym))
				}
				actual := map[string]struct{}{}
				for _, s := range gram.First(sym) {
					text, _ := gram.ToText(s)
					actual[text] = struct{}{}
				}
				if len(actual) != len(fst.symbols) {
					t.Fatalf("unexpected FIRST of %v; want: %v, got: %v", fst.symbol, fst.symbols, actual)
				}
				for _, s := range fst.symbols {
					if _, ok := actual[s]; !ok {
						t.Fatalf("%v must be in FIRST of %v; got: %v", s, fst.symbol, actual)
					}
				}
			}
		})
	}
}
