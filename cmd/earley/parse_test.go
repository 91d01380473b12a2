package main

import (
	"fmt"
	"strings"
	"testing"

	"github.com/nihei9/earley/driver"
	"github.com/nihei9/earley/grammar"
)

func TestParseCommand_MaxTreesDefault(t *testing.T) {
	cmd, _, err := rootCmd.Find([]string{"parse"})
	if err != nil {
		t.Fatal(err)
	}
	f := cmd.Flags().Lookup("max-trees")
	if f == nil {
		t.Fatal("the parse command must have --max-trees")
	}
	if f.DefValue != "100" {
		t.Fatalf("unexpected default of --max-trees; want: 100, got: %v", f.DefValue)
	}
}

func TestWriteTrees(t *testing.T) {
	gram, err := grammar.NewBuilder("s").
		Name("catalan").
		Rule("s", "s", "s").
		Rule("s", "a").
		Build()
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		caption  string
		tokCount int
		printed  int
		numbered bool
	}{
		{
			caption:  "an unambiguous source prints one tree without a number",
			tokCount: 2,
			printed:  1,
		},
		{
			caption:  "an ambiguous source prints every tree with a number",
			tokCount: 3,
			printed:  2,
			numbered: true,
		},
		{
			caption:  "a highly ambiguous source prints no more trees than the default limit",
			tokCount: 20,
			printed:  defaultMaxTrees,
			numbered: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.caption, func(t *testing.T) {
			var toks []*driver.Token
			for i := 0; i < tt.tokCount; i++ {
				toks = append(toks, &driver.Token{
					Kind: "a",
					Text: "a",
					Col:  i,
				})
			}
			p, err := driver.NewParser(gram, driver.MaxTrees(defaultMaxTrees))
			if err != nil {
				t.Fatal(err)
			}
			res, err := p.Parse(toks)
			if err != nil {
				t.Fatal(err)
			}
			if !res.Accepted() {
				t.Fatal("the source must be accepted")
			}
			if res.TreeCount() < tt.printed {
				t.Fatalf("the tree count must be at least %v; got: %v", tt.printed, res.TreeCount())
			}

			var b strings.Builder
			printed := writeTrees(&b, res)
			if printed != tt.printed {
				t.Fatalf("unexpected printed tree count; want: %v, got: %v", tt.printed, printed)
			}
			out := b.String()
			if strings.HasPrefix(out, "# 1\n") != tt.numbered {
				t.Fatalf("unexpected numbering; numbered: %v, output:\n%v", tt.numbered, out)
			}
			if tt.numbered && !strings.Contains(out, fmt.Sprintf("# %v\n", tt.printed)) {
				t.Fatalf("the last tree must be numbered %v:\n%v", tt.printed, out)
			}
		})
	}
}
