package cmd

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"ttgen/internal/automaton"
	"ttgen/internal/generate"
)

var inspectWalk string

var inspectCmd = &cobra.Command{
	Use:   "inspect [column|markup]",
	Short: "Print the compiled transition tables",
	Long: `Compiles the configured grammars and prints the transitions and final
states of each table. With --walk, feeds the given text through the tables
from the start state and reports where it stops.`,
	Args:      cobra.MaximumNArgs(1),
	ValidArgs: []string{automaton.ColumnNamespace, automaton.MarkupNamespace},
	RunE:      runInspect,
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectWalk, "walk", "w", "", "text to walk through the tables")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	b, err := generate.New(cfg, logger).Build()
	if err != nil {
		return err
	}

	tables := []*automaton.Table{b.Result.Column, b.Result.Markup}
	if len(args) == 1 {
		switch args[0] {
		case automaton.ColumnNamespace:
			tables = tables[:1]
		case automaton.MarkupNamespace:
			tables = tables[1:]
		default:
			return fmt.Errorf("unknown table %q (want %s or %s)", args[0], automaton.ColumnNamespace, automaton.MarkupNamespace)
		}
	}

	out := cmd.OutOrStdout()
	if inspectWalk != "" {
		for _, t := range tables {
			printWalk(out, t, inspectWalk)
		}
		return nil
	}

	for _, t := range tables {
		printTransitions(out, t)
		printFinals(out, t)
	}
	if len(args) == 0 || args[0] == automaton.MarkupNamespace {
		syms := make([]string, len(b.Result.MarkupSymbols))
		for i, s := range b.Result.MarkupSymbols {
			syms[i] = strconv.Quote(s)
		}
		fmt.Fprintf(out, "markup symbols: %s\n", strings.Join(syms, " "))
	}
	return nil
}

func newTable(w io.Writer, header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetAutoWrapText(false)
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetNoWhiteSpace(true)
	table.SetTablePadding("    ")
	return table
}

func printTransitions(w io.Writer, t *automaton.Table) {
	fmt.Fprintf(w, "%s: %d states, %d transitions\n\n", t.Namespace(), t.NumStates(), t.Len())
	table := newTable(w, []string{"FROM", "SYMBOL", "TO"})
	for _, tr := range t.Transitions() {
		table.Append([]string{tr.From, strconv.Quote(tr.Symbol), tr.To})
	}
	table.Render()
	fmt.Fprintln(w)
}

func printFinals(w io.Writer, t *automaton.Table) {
	table := newTable(w, []string{"FINAL", "TAG"})
	for _, f := range t.Finals() {
		table.Append([]string{f.State, f.Tag})
	}
	table.Render()
	fmt.Fprintln(w)
}

func printWalk(w io.Writer, t *automaton.Table, text string) {
	state := t.Start()
	consumed := 0
	for _, r := range text {
		next := t.Step(state, string(r))
		if next == automaton.DeadState {
			break
		}
		state = next
		consumed++
	}

	result := "no match"
	if tag, ok := t.Tag(state); ok {
		result = "matches " + tag
	} else if consumed > 0 && t.CanMatch(state) {
		result = "partial"
	}
	fmt.Fprintf(w, "%s: %s after %d of %d characters at %s\n",
		t.Namespace(), result, consumed, len([]rune(text)), t.Label(state))
}
