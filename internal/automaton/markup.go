package automaton

import (
	"fmt"
	"log/slog"

	"github.com/emirpasic/gods/sets/linkedhashset"

	"ttgen/internal/grammar"
)

// MarkupNamespace names the inline toggle state namespace.
const MarkupNamespace = "markup"

// markupBuilder compiles markup grammars into their own table. Each delimiter
// yields an opening walk from the start state ending in <NAME>_M ("armed") and
// a closing walk from <NAME>_M ending in <NAME>_F. Markup spans do not absorb
// trailing spaces.
type markupBuilder struct {
	*builder

	// symbols holds opening characters in first-seen order.
	symbols *linkedhashset.Set
}

func newMarkupBuilder(logger *slog.Logger) *markupBuilder {
	return &markupBuilder{
		builder: newBuilder(MarkupNamespace, logger),
		symbols: linkedhashset.New(),
	}
}

func (m *markupBuilder) add(s grammar.Spec) error {
	if s.Kind != grammar.KindMarkup {
		return fmt.Errorf("%w: %q is not a markup kind", grammar.ErrUnknownKind, s.Kind)
	}

	syms := symbols(s.Delimiter)
	n := len(syms)
	final := m.newFinal(s.Name, s.Tag())

	cur := StartState
	for i, sym := range syms {
		label := fmt.Sprintf("%s_%d", s.Name, i)
		if i == n-1 {
			label = s.Name + "_M"
		}
		next, err := m.advance(s.Name, i, cur, sym, label)
		if err != nil {
			return err
		}
		cur = next
	}

	for i, sym := range syms {
		pos := n + i
		if i == n-1 {
			if err := m.claim(s.Name, pos, cur, sym, final); err != nil {
				return err
			}
			break
		}
		next, err := m.advance(s.Name, pos, cur, sym, fmt.Sprintf("%s_%d", s.Name, pos))
		if err != nil {
			return err
		}
		cur = next
	}

	m.symbols.Add(syms[0])
	return nil
}

func (m *markupBuilder) symbolList() []Symbol {
	out := make([]Symbol, 0, m.symbols.Size())
	for _, v := range m.symbols.Values() {
		out = append(out, v.(Symbol))
	}
	return out
}
