package automaton

import (
	"fmt"
	"log/slog"

	"ttgen/internal/grammar"
)

// Result holds the compiled column and markup tables.
type Result struct {
	Column *Table
	Markup *Table

	// MarkupSymbols lists the first character of every markup delimiter,
	// de-duplicated in grammar order. A scanner checks it before trying a
	// markup walk.
	MarkupSymbols []Symbol
}

// IsMarkupSymbol reports whether sym can open a markup span.
func (r *Result) IsMarkupSymbol(sym Symbol) bool {
	for _, s := range r.MarkupSymbols {
		if s == sym {
			return true
		}
	}
	return false
}

// Compiler turns an ordered grammar list into transition tables.
// A Compiler holds no state between calls.
type Compiler struct {
	logger *slog.Logger
}

// NewCompiler creates a Compiler. A nil logger uses slog.Default().
func NewCompiler(logger *slog.Logger) *Compiler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Compiler{logger: logger}
}

// Compile validates every grammar and builds both tables. Any error aborts
// the whole compilation and no tables are returned.
func (c *Compiler) Compile(specs []grammar.Spec) (*Result, error) {
	if err := grammar.ValidateSet(specs); err != nil {
		return nil, err
	}

	column := newColumnBuilder(c.logger)
	markup := newMarkupBuilder(c.logger)

	for _, s := range specs {
		var err error
		if s.IsColumn() {
			err = column.add(s)
		} else {
			err = markup.add(s)
		}
		if err != nil {
			return nil, fmt.Errorf("compile %s: %w", s.Name, err)
		}
	}

	columnTable, err := column.freeze()
	if err != nil {
		return nil, err
	}
	markupTable, err := markup.freeze()
	if err != nil {
		return nil, err
	}
	res := &Result{
		Column:        columnTable,
		Markup:        markupTable,
		MarkupSymbols: markup.symbolList(),
	}

	c.logger.Info("compiled transition tables",
		"grammars", len(specs),
		"column_states", res.Column.NumStates(),
		"column_transitions", res.Column.Len(),
		"column_merges", column.merges,
		"markup_states", res.Markup.NumStates(),
		"markup_transitions", res.Markup.Len(),
		"markup_merges", markup.merges,
	)
	return res, nil
}

// Compile compiles specs with the default logger.
func Compile(specs []grammar.Spec) (*Result, error) {
	return NewCompiler(nil).Compile(specs)
}
