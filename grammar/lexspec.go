package grammar

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	mlcompiler "github.com/nihei9/maleeni/compiler"
	mlspec "github.com/nihei9/maleeni/spec"
)

const defaultLexSpecName = "earley"

// LexSpec is a compiled lexical specification of the terminals of a grammar.
type LexSpec struct {
	Spec *mlspec.CompiledLexSpec

	// KindToTerminal maps a kind ID of the lexer to the name of a terminal symbol.
	KindToTerminal []string

	// Skip is indexed by a kind ID and is true when the tokenizer drops tokens of the kind.
	Skip []bool
}

var kindNameRE = regexp.MustCompile(`^[a-z](_?[a-z0-9])*$`)

// CompileLexSpec compiles the terminals of a grammar into a lexical specification. Literals take
// precedence over patterns when both match the same text. A grammar without terminals yields a LexSpec
// whose Spec is nil.
func CompileLexSpec(gram *Grammar) (*LexSpec, error) {
	if len(gram.terminals) == 0 {
		return &LexSpec{}, nil
	}

	kind2Term := map[mlspec.LexKindName]*terminal{}
	taken := map[string]struct{}{}
	for _, t := range gram.terminals {
		taken[t.name] = struct{}{}
	}
	num := 1
	genKindName := func() mlspec.LexKindName {
		for {
			kind := fmt.Sprintf("x_%v", num)
			num++
			if _, ok := taken[kind]; !ok {
				return mlspec.LexKindName(kind)
			}
		}
	}

	var literals []*mlspec.LexEntry
	var patterns []*mlspec.LexEntry
	for _, t := range gram.terminals {
		var kind mlspec.LexKindName
		if !t.anonymous && kindNameRE.MatchString(t.name) {
			kind = mlspec.LexKindName(t.name)
		} else {
			kind = genKindName()
		}
		kind2Term[kind] = t

		entry := &mlspec.LexEntry{
			Kind:    kind,
			Pattern: mlspec.LexPattern(t.pattern),
		}
		if t.literal {
			literals = append(literals, entry)
		} else {
			patterns = append(patterns, entry)
		}
	}

	name := gram.name
	if name == "" {
		name = defaultLexSpecName
	}
	lexSpec := &mlspec.LexSpec{
		Name:    name,
		Entries: append(literals, patterns...),
	}

	compiled, err, cErrs := mlcompiler.Compile(lexSpec, mlcompiler.CompressionLevel(mlcompiler.CompressionLevelMax))
	if err != nil {
		if len(cErrs) > 0 {
			var b strings.Builder
			writeCompileError(&b, cErrs[0])
			for _, cerr := range cErrs[1:] {
				fmt.Fprintf(&b, "\n")
				writeCompileError(&b, cerr)
			}
			return nil, fmt.Errorf("failed to compile the lexical specification:\n%v", b.String())
		}
		return nil, fmt.Errorf("failed to compile the lexical specification: %w", err)
	}

	kindToTerm := make([]string, len(compiled.KindNames))
	skip := make([]bool, len(compiled.KindNames))
	for i, k := range compiled.KindNames {
		if k == mlspec.LexKindNameNil {
			continue
		}
		t, ok := kind2Term[k]
		if !ok {
			return nil, fmt.Errorf("a kind of the lexical specification is not a terminal: %v", k)
		}
		kindToTerm[i] = t.name
		skip[i] = t.skip
	}

	return &LexSpec{
		Spec:           compiled,
		KindToTerminal: kindToTerm,
		Skip:           skip,
	}, nil
}

func writeCompileError(w io.Writer, cErr *mlcompiler.CompileError) {
	if cErr.Fragment {
		fmt.Fprintf(w, "fragment ")
	}
	fmt.Fprintf(w, "%v: %v", cErr.Kind, cErr.Cause)
	if cErr.Detail != "" {
		fmt.Fprintf(w, ": %v", cErr.Detail)
	}
}
