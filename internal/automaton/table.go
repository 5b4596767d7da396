package automaton

// Transition is one labelled edge of a compiled table.
type Transition struct {
	From   string `json:"from" yaml:"from"`
	Symbol Symbol `json:"symbol" yaml:"symbol"`
	To     string `json:"to" yaml:"to"`
}

// Final pairs a final state label with its classification tag.
type Final struct {
	State string `json:"state" yaml:"state"`
	Tag   string `json:"tag" yaml:"tag"`
}

// Table is a compiled, immutable transition table for one namespace.
// It is safe for concurrent use.
type Table struct {
	namespace string

	labels []string
	final  []bool
	live   []bool
	tags   map[State]string
	finals []State

	edges   map[edgeKey]State
	order   []edgeKey
	byLabel map[string]State
}

// Namespace returns the name of the table's state namespace.
func (t *Table) Namespace() string { return t.namespace }

func (t *Table) Start() State { return StartState }

func (t *Table) Step(state State, sym Symbol) State {
	if state == DeadState || int(state) >= len(t.labels) {
		return DeadState
	}
	to, ok := t.edges[edgeKey{state, sym}]
	if !ok {
		return DeadState
	}
	return to
}

func (t *Table) IsAccept(state State) bool {
	if state == DeadState || int(state) >= len(t.final) {
		return false
	}
	return t.final[state]
}

func (t *Table) CanMatch(state State) bool {
	if state == DeadState || int(state) >= len(t.live) {
		return false
	}
	return t.live[state]
}

// Tag returns the classification tag of a final state.
func (t *Table) Tag(state State) (string, bool) {
	tag, ok := t.tags[state]
	return tag, ok
}

// Label returns the display label of a state, or "" if the state is unknown.
func (t *Table) Label(state State) string {
	if int(state) >= len(t.labels) {
		return ""
	}
	return t.labels[state]
}

// Lookup resolves a display label back to its state.
func (t *Table) Lookup(label string) (State, bool) {
	s, ok := t.byLabel[label]
	return s, ok
}

// NumStates returns the number of states, excluding the dead state.
func (t *Table) NumStates() int { return len(t.labels) - 1 }

// Len returns the number of transitions.
func (t *Table) Len() int { return len(t.order) }

// Walk steps through syms from the start state and returns where it ends.
// It stops at DeadState.
func (t *Table) Walk(syms ...Symbol) State {
	state := t.Start()
	for _, sym := range syms {
		state = t.Step(state, sym)
		if state == DeadState {
			return DeadState
		}
	}
	return state
}

// WalkString walks s one character at a time.
func (t *Table) WalkString(s string) State {
	syms := make([]Symbol, 0, len(s))
	for _, r := range s {
		syms = append(syms, string(r))
	}
	return t.Walk(syms...)
}

// Transitions returns every edge with resolved labels, in insertion order.
func (t *Table) Transitions() []Transition {
	out := make([]Transition, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, Transition{
			From:   t.labels[k.from],
			Symbol: k.sym,
			To:     t.labels[t.edges[k]],
		})
	}
	return out
}

// Finals returns the final states in grammar order.
func (t *Table) Finals() []Final {
	out := make([]Final, 0, len(t.finals))
	for _, s := range t.finals {
		out = append(out, Final{State: t.labels[s], Tag: t.tags[s]})
	}
	return out
}

// Tags returns the classification tags in grammar order.
func (t *Table) Tags() []string {
	out := make([]string, 0, len(t.finals))
	for _, s := range t.finals {
		out = append(out, t.tags[s])
	}
	return out
}
