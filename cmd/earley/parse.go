package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"

	"github.com/nihei9/earley/driver"
	"github.com/spf13/cobra"
)

// defaultMaxTrees bounds the trees the parse command builds unless --max-trees is given.
const defaultMaxTrees = 100

var parseFlags = struct {
	source    *string
	maxTrees  *int
	maxItems  *int
	chart     *bool
	countOnly *bool
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "parse <grammar file path>",
		Short:   "Parse a text stream and print its derivation trees",
		Example: `  cat src | earley parse grammar.earley`,
		Args:    cobra.ExactArgs(1),
		RunE:    runParse,
	}
	parseFlags.source = cmd.Flags().StringP("source", "s", "", "source file path (default stdin)")
	parseFlags.maxTrees = cmd.Flags().Int("max-trees", defaultMaxTrees, "the maximum number of trees to print (0 means no limit)")
	parseFlags.maxItems = cmd.Flags().Int("max-items", 0, "the maximum number of chart items before the parser gives up (0 means no limit)")
	parseFlags.chart = cmd.Flags().Bool("chart", false, "print the chart before the trees")
	parseFlags.countOnly = cmd.Flags().Bool("count", false, "print only the number of trees")
	rootCmd.AddCommand(cmd)
}

var errNoParse = errors.New("no parse")

func runParse(cmd *cobra.Command, args []string) (retErr error) {
	defer func() {
		v := recover()
		if v != nil {
			retErr = fmt.Errorf("an unexpected error occurred: %v", v)
			fmt.Fprintf(os.Stderr, "%v:\n%v", retErr, string(debug.Stack()))
		}
	}()

	gram, lexSpec, err := readGrammar(args[0])
	if err != nil {
		return err
	}

	var res *driver.Result
	var toks []*driver.Token
	{
		src := os.Stdin
		if *parseFlags.source != "" {
			f, err := os.Open(*parseFlags.source)
			if err != nil {
				return fmt.Errorf("Cannot open the source file %s: %w", *parseFlags.source, err)
			}
			defer f.Close()
			src = f
		}

		ts, err := driver.NewTokenStream(lexSpec, src)
		if err != nil {
			return err
		}
		toks, err = driver.ReadTokens(ts)
		if err != nil {
			return err
		}

		p, err := driver.NewParser(gram,
			driver.MaxTrees(*parseFlags.maxTrees),
			driver.MaxItems(*parseFlags.maxItems),
			driver.Logger(logger))
		if err != nil {
			return err
		}
		res, err = p.Parse(toks)
		if err != nil {
			return err
		}
	}

	if *parseFlags.chart {
		res.Chart().Print(os.Stdout)
	}

	if res.Incomplete() {
		return fmt.Errorf("the parser gave up because the chart exceeded %v items", *parseFlags.maxItems)
	}
	if !res.Accepted() {
		k := res.Reached()
		if k >= len(toks) {
			return fmt.Errorf("%w: unexpected end of input", errNoParse)
		}
		tok := toks[k]
		if tok.Invalid {
			return fmt.Errorf("%w: %v:%v: invalid token: %#v", errNoParse, tok.Row+1, tok.Col+1, tok.Text)
		}
		return fmt.Errorf("%w: %v:%v: unexpected token: %#v (%v)", errNoParse, tok.Row+1, tok.Col+1, tok.Text, tok.Kind)
	}

	count := res.TreeCount()
	if *parseFlags.countOnly {
		fmt.Fprintln(os.Stdout, count)
		return nil
	}

	printed := writeTrees(os.Stdout, res)
	if printed < count {
		logger.Warn("trees were omitted",
			slog.Int("printed", printed),
			slog.Int("derived", count))
	}

	return nil
}

// writeTrees prints the trees of an accepted result, numbering them when there are two or more.
// It returns the number of printed trees.
func writeTrees(w io.Writer, res *driver.Result) int {
	trees := res.Trees()
	for i, tree := range trees {
		if len(trees) > 1 {
			fmt.Fprintf(w, "# %v\n", i+1)
		}
		driver.PrintTree(w, tree)
	}
	return len(trees)
}
