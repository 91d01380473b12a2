package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	spec "github.com/nihei9/earley/spec/grammar"
	"github.com/spf13/cobra"
)

var describeFlags = struct {
	format *string
}{}

func init() {
	cmd := &cobra.Command{
		Use:     "describe <grammar file path>",
		Short:   "Print the symbols and productions of a grammar in readable format",
		Example: `  earley describe grammar.earley`,
		Args:    cobra.ExactArgs(1),
		RunE:    runDescribe,
	}
	describeFlags.format = cmd.Flags().StringP("format", "f", "text", "output format: one of text|json")
	rootCmd.AddCommand(cmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	gram, _, err := readGrammar(args[0])
	if err != nil {
		return err
	}
	report := gram.Report()

	switch *describeFlags.format {
	case "text":
		return writeReport(os.Stdout, report)
	case "json":
		b, err := json.Marshal(report)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "%v\n", string(b))
		return nil
	default:
		return fmt.Errorf("invalid output format: %v", *describeFlags.format)
	}
}

const reportTemplate = `# Name

{{ printName . }}

# Start Symbol

{{ .Start }}

# Terminals

{{ range .Terminals -}}
{{ printTerminal . }}
{{ end }}
# Non-terminals

{{ range .NonTerminals -}}
{{ printNonTerminal . }}
{{ end }}
# Productions

{{ range .Productions -}}
{{ printProduction . }}
{{ end }}
# Warnings

{{ printWarningSummary . }}
{{ range .Warnings -}}
{{ printWarning . }}
{{ end }}`

func writeReport(w io.Writer, report *spec.Report) error {
	fns := template.FuncMap{
		"printName": func(report *spec.Report) string {
			if report.Name == "" {
				return "-"
			}
			return report.Name
		},
		"printTerminal": func(term *spec.Terminal) string {
			var attrs []string
			if term.Anonymous {
				attrs = append(attrs, "anonymous")
			}
			if term.Skip {
				attrs = append(attrs, "skip")
			}
			kind := "pattern"
			if term.Literal {
				kind = "literal"
			}
			s := fmt.Sprintf("%4v %v %v %#v", term.Number, term.Name, kind, term.Pattern)
			if len(attrs) > 0 {
				s += fmt.Sprintf(" (%v)", strings.Join(attrs, ", "))
			}
			return s
		},
		"printNonTerminal": func(nonTerm *spec.NonTerminal) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%4v %v", nonTerm.Number, nonTerm.Name)
			if nonTerm.Nullable {
				fmt.Fprintf(&b, " (nullable)")
			}
			if len(nonTerm.First) > 0 {
				fmt.Fprintf(&b, " first: %v", strings.Join(nonTerm.First, ", "))
			}
			return b.String()
		},
		"printProduction": func(prod *spec.Production) string {
			var b strings.Builder
			fmt.Fprintf(&b, "%v →", prod.LHS)
			if len(prod.RHS) > 0 {
				for _, e := range prod.RHS {
					fmt.Fprintf(&b, " %v", e)
				}
			} else {
				fmt.Fprintf(&b, " ε")
			}
			return fmt.Sprintf("%4v %v", prod.Number, b.String())
		},
		"printWarningSummary": func(report *spec.Report) string {
			count := len(report.Warnings)
			if count == 1 {
				return "1 warning was detected."
			} else if count > 1 {
				return fmt.Sprintf("%v warnings were detected.", count)
			}
			return "No warning was detected."
		},
		"printWarning": func(warn *spec.Warning) string {
			if warn.Row != 0 && warn.Col != 0 {
				return fmt.Sprintf("%v:%v: %v", warn.Row, warn.Col, warn.Message)
			}
			return warn.Message
		},
	}

	tmpl, err := template.New("").Funcs(fns).Parse(reportTemplate)
	if err != nil {
		return err
	}

	err = tmpl.Execute(w, report)
	if err != nil {
		return err
	}

	return nil
}
