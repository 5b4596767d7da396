package automaton

import (
	"fmt"
	"log/slog"

	"ttgen/internal/grammar"
)

// ColumnNamespace names the block-level state namespace.
const ColumnNamespace = "column"

// columnBuilder compiles trivial, flat, fenced and nested grammars into the
// column table. Grammar order decides which grammar owns a contested path.
type columnBuilder struct {
	*builder
}

func newColumnBuilder(logger *slog.Logger) *columnBuilder {
	return &columnBuilder{builder: newBuilder(ColumnNamespace, logger)}
}

func (c *columnBuilder) add(s grammar.Spec) error {
	switch s.Kind {
	case grammar.KindTrivial:
		return c.addTrivial(s)
	case grammar.KindFlat, grammar.KindFenced:
		return c.addFlat(s)
	case grammar.KindNested:
		return c.addNested(s)
	default:
		return fmt.Errorf("%w: %q is not a column kind", grammar.ErrUnknownKind, s.Kind)
	}
}

// addTrivial maps the delimiter's first character straight to the final state.
func (c *columnBuilder) addTrivial(s grammar.Spec) error {
	final := c.newFinal(s.Name, s.Tag())
	return c.claim(s.Name, 0, StartState, symbols(s.Delimiter)[0], final)
}

// addFlat walks the delimiter one character at a time, then lets trailing
// spaces settle on the final state. Fenced grammars share this shape; the
// open/close pairing is tracked by the scanner.
func (c *columnBuilder) addFlat(s grammar.Spec) error {
	final := c.newFinal(s.Name, s.Tag())

	cur := StartState
	syms := symbols(s.Delimiter)
	for i, sym := range syms {
		next, err := c.advance(s.Name, i, cur, sym, fmt.Sprintf("%s_%d", s.Name, i))
		if err != nil {
			return err
		}
		cur = next
	}

	if err := c.claim(s.Name, len(syms), cur, SpaceSymbol, final); err != nil {
		return err
	}
	c.insert(final, SpaceSymbol, final)
	return nil
}

// addNested consumes the whole delimiter as one repeatable marker. Nesting
// depth is the number of repeats and is left to the scanner to count.
func (c *columnBuilder) addNested(s grammar.Spec) error {
	final := c.newFinal(s.Name, s.Tag())
	marker := c.newState(s.Name + "_0")

	if err := c.claim(s.Name, 0, StartState, s.Delimiter, marker); err != nil {
		return err
	}
	c.insert(marker, s.Delimiter, marker)
	c.insert(marker, SpaceSymbol, final)
	c.insert(final, SpaceSymbol, final)
	return nil
}

// symbols splits a delimiter into single-character symbols.
func symbols(delim string) []Symbol {
	out := make([]Symbol, 0, len(delim))
	for _, r := range delim {
		out = append(out, string(r))
	}
	return out
}
