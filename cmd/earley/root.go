package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nihei9/earley"
	"github.com/spf13/cobra"
)

var rootFlags = struct {
	debug       *bool
	verbose     *bool
	quiet       *bool
	showVersion *bool
}{}

// logger is replaced in the pre-run hook according to the persistent flags.
var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

var rootCmd = &cobra.Command{
	Use:   "earley",
	Short: "Parse a text stream with an arbitrary context-free grammar",
	Long: `earley provides three features:
- Parses a text stream with a grammar and prints every derivation tree.
  A grammar may be ambiguous, left-recursive, or have empty productions.
- Tests a grammar against test cases describing the expected trees.
- Describes a grammar and reports the problems found in it.`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if *rootFlags.showVersion {
			fmt.Printf("earley: version %q\n", earley.Version().Core())
		}
		logger = newLogger(os.Stderr)
		return nil
	},
}

func init() {
	rootFlags.debug = rootCmd.PersistentFlags().Bool("debug", false, "log debugging information")
	rootFlags.verbose = rootCmd.PersistentFlags().Bool("verbose", false, "log more information")
	rootFlags.quiet = rootCmd.PersistentFlags().Bool("quiet", false, "log less information")
	rootFlags.showVersion = rootCmd.PersistentFlags().Bool("show-version", false, "show version")
}

func newLogger(w io.Writer) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case *rootFlags.debug:
		level = slog.LevelDebug
	case *rootFlags.verbose:
		level = slog.LevelInfo
	case *rootFlags.quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: level,
	}))
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return err
	}
	return nil
}
