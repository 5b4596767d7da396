package automaton

import (
	"errors"
	"fmt"
	"log/slog"
)

// Reserved state labels.
const (
	DeadLabel  = "DEAD"
	StartLabel = "START"
)

var (
	ErrDelimiterCollision = errors.New("delimiter collision")
	ErrDuplicateLabel     = errors.New("duplicate state label")
)

// CollisionError reports a grammar whose delimiter path runs into a state
// already claimed by an earlier grammar.
type CollisionError struct {
	Namespace string
	Grammar   string
	Symbol    Symbol
	Position  int
	Existing  string
}

func (e *CollisionError) Error() string {
	return fmt.Sprintf("delimiter collision in %s table for %s: %q at position %d conflicts with existing state %s",
		e.Namespace, e.Grammar, e.Symbol, e.Position, e.Existing)
}

func (e *CollisionError) Unwrap() error {
	return ErrDelimiterCollision
}

type edgeKey struct {
	from State
	sym  Symbol
}

// builder owns one namespace's arena of states and its transition map while
// grammars are being compiled. It is discarded by freeze.
type builder struct {
	namespace string
	logger    *slog.Logger

	labels []string
	final  []bool
	tags   map[State]string
	finals []State

	// edges[(from, sym)] = to. order keeps insertion order for emitters.
	edges map[edgeKey]State
	order []edgeKey

	merges int
}

func newBuilder(namespace string, logger *slog.Logger) *builder {
	return &builder{
		namespace: namespace,
		logger:    logger,
		labels:    []string{DeadLabel, StartLabel},
		final:     []bool{false, false},
		tags:      make(map[State]string),
		edges:     make(map[edgeKey]State),
	}
}

func (b *builder) newState(label string) State {
	s := State(len(b.labels))
	b.labels = append(b.labels, label)
	b.final = append(b.final, false)
	return s
}

// newFinal allocates the final state <name>_F carrying tag.
func (b *builder) newFinal(name, tag string) State {
	s := b.newState(name + "_F")
	b.final[s] = true
	b.tags[s] = tag
	b.finals = append(b.finals, s)
	return s
}

func (b *builder) lookup(from State, sym Symbol) (State, bool) {
	to, ok := b.edges[edgeKey{from, sym}]
	return to, ok
}

func (b *builder) insert(from State, sym Symbol, to State) {
	k := edgeKey{from, sym}
	if _, exists := b.edges[k]; exists {
		panic(fmt.Sprintf("automaton: duplicate transition (%s, %q)", b.labels[from], sym))
	}
	b.edges[k] = to
	b.order = append(b.order, k)
}

// advance consumes one delimiter symbol of a walk starting at from.
//
// When no transition exists a fresh state labelled label is created. When one
// exists and leads to a final state, the new delimiter would extend a completed
// one and a CollisionError is returned. Otherwise both grammars share the
// prefix: the existing target becomes the merged state, its label is prefixed
// with label, and the walk continues from it. Child transitions are keyed by
// state index so they stay attached to the merged state as they are.
func (b *builder) advance(grammar string, pos int, from State, sym Symbol, label string) (State, error) {
	to, ok := b.lookup(from, sym)
	if !ok {
		s := b.newState(label)
		b.insert(from, sym, s)
		return s, nil
	}
	if b.final[to] {
		return DeadState, b.collision(grammar, pos, sym, to)
	}

	merged := label + "_" + b.labels[to]
	b.logger.Debug("merged prefix state",
		"namespace", b.namespace,
		"grammar", grammar,
		"symbol", sym,
		"old", b.labels[to],
		"new", merged,
	)
	b.labels[to] = merged
	b.merges++
	return to, nil
}

// claim inserts a transition that no earlier grammar may own.
func (b *builder) claim(grammar string, pos int, from State, sym Symbol, to State) error {
	if existing, ok := b.lookup(from, sym); ok {
		return b.collision(grammar, pos, sym, existing)
	}
	b.insert(from, sym, to)
	return nil
}

func (b *builder) collision(grammar string, pos int, sym Symbol, existing State) error {
	return &CollisionError{
		Namespace: b.namespace,
		Grammar:   grammar,
		Symbol:    sym,
		Position:  pos,
		Existing:  b.labels[existing],
	}
}

// freeze hands the arena over to an immutable Table. Emitted tables are keyed
// by label, so two states sharing a label are rejected.
func (b *builder) freeze() (*Table, error) {
	t := &Table{
		namespace: b.namespace,
		labels:    b.labels,
		final:     b.final,
		tags:      b.tags,
		finals:    b.finals,
		edges:     b.edges,
		order:     b.order,
		byLabel:   make(map[string]State, len(b.labels)),
	}
	for i := int(DeadState) + 1; i < len(b.labels); i++ {
		label := b.labels[i]
		if prev, ok := t.byLabel[label]; ok {
			return nil, fmt.Errorf("%w in %s table: %s (states %d and %d)", ErrDuplicateLabel, b.namespace, label, prev, i)
		}
		t.byLabel[label] = State(i)
	}
	t.live = liveStates(t)
	return t, nil
}

// liveStates marks every state from which a final state is reachable by
// walking the transitions backwards from the finals.
func liveStates(t *Table) []bool {
	reverse := make(map[State][]State, len(t.order))
	for _, k := range t.order {
		to := t.edges[k]
		reverse[to] = append(reverse[to], k.from)
	}

	live := make([]bool, len(t.labels))
	stack := make([]State, 0, len(t.finals))
	for _, f := range t.finals {
		live[f] = true
		stack = append(stack, f)
	}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, prev := range reverse[s] {
			if !live[prev] {
				live[prev] = true
				stack = append(stack, prev)
			}
		}
	}
	return live
}
