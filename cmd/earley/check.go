package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	cmd := &cobra.Command{
		Use:     "check <grammar file path>",
		Short:   "Check a grammar for errors and warnings",
		Example: `  earley check grammar.earley`,
		Args:    cobra.ExactArgs(1),
		RunE:    runCheck,
	}
	rootCmd.AddCommand(cmd)
}

// runCheck loads a grammar and its lexical specification. Warnings are reported by the logger while the
// grammar is loaded, so this command prints only a summary.
func runCheck(cmd *cobra.Command, args []string) error {
	gram, _, err := readGrammar(args[0])
	if err != nil {
		return err
	}

	switch n := len(gram.Warnings()); n {
	case 0:
		fmt.Fprintf(os.Stdout, "%v: ok\n", args[0])
	case 1:
		fmt.Fprintf(os.Stdout, "%v: ok with 1 warning\n", args[0])
	default:
		fmt.Fprintf(os.Stdout, "%v: ok with %v warnings\n", args[0], n)
	}
	return nil
}
