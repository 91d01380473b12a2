package main

import (
	"fmt"
	"log/slog"
	"os"

	verr "github.com/nihei9/earley/error"
	"github.com/nihei9/earley/grammar"
	"github.com/nihei9/earley/spec/grammar/parser"
)

// readGrammar reads a grammar file and builds the grammar and its lexical specification. Errors
// located in the file are annotated with the file path so that they show the offending line.
func readGrammar(path string) (gram *grammar.Grammar, lexSpec *grammar.LexSpec, retErr error) {
	defer func() {
		if retErr == nil {
			return
		}
		switch err := retErr.(type) {
		case verr.SpecErrors:
			for _, e := range err {
				e.FilePath = path
				e.SourceName = path
			}
		case *verr.SpecError:
			err.FilePath = path
			err.SourceName = path
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("Cannot open the grammar file %s: %w", path, err)
	}
	defer f.Close()

	ast, err := parser.Parse(f)
	if err != nil {
		return nil, nil, err
	}

	b := grammar.GrammarBuilder{
		AST: ast,
	}
	gram, err = b.Build()
	if err != nil {
		return nil, nil, err
	}
	for _, w := range gram.Warnings() {
		logger.Warn(w.Cause.Error(),
			slog.String("grammar", path),
			slog.Int("row", w.Row),
			slog.Int("col", w.Col),
			slog.String("detail", w.Detail))
	}

	lexSpec, err = grammar.CompileLexSpec(gram)
	if err != nil {
		return nil, nil, fmt.Errorf("Cannot compile the lexical specification: %w", err)
	}
	logger.Info("grammar loaded",
		slog.String("grammar", path),
		slog.String("name", gram.Name()),
		slog.Int("productions", len(gram.AllProductions())),
		slog.Int("terminals", len(gram.TerminalSymbols())))

	return gram, lexSpec, nil
}
