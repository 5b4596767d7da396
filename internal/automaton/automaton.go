package automaton

// State identifies a node in a compiled transition table. States are indices
// into the table's arena; labels are only for display.
type State uint32

const (
	// DeadState is the sink reached when no transition exists.
	DeadState State = 0

	// StartState is the shared root of every table.
	StartState State = 1
)

// Symbol is the input unit consumed by one transition. Most symbols are a
// single character; a nested grammar consumes its whole delimiter as one symbol.
type Symbol = string

// SpaceSymbol is the absorbing symbol that closes a block delimiter run.
const SpaceSymbol Symbol = " "

// Automaton is the read-only contract a downstream scanner walks.
//
// Properties:
//   - Deterministic: single transition per (state, symbol)
//   - Finite: bounded state count
//   - No ε-transitions
type Automaton interface {
	// Start returns the initial state.
	Start() State

	// Step returns the next state for the given symbol.
	// Returns DeadState if no transition exists.
	Step(state State, sym Symbol) State

	// IsAccept returns true if the state is a final state.
	IsAccept(state State) bool

	// CanMatch returns true if any final state is reachable from this state.
	// Scanners use it to stop walking early.
	CanMatch(state State) bool
}

var _ Automaton = (*Table)(nil)
