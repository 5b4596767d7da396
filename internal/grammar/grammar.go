package grammar

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// Kind is the structural category of a grammar. It selects the automaton
// construction pattern used for its delimiter.
type Kind string

// Grammar kind constants.
const (
	KindTrivial Kind = "trivial"
	KindFlat    Kind = "flat"
	KindFenced  Kind = "fenced"
	KindNested  Kind = "nested"
	KindMarkup  Kind = "markup"
)

// Kinds lists every recognized kind in declaration order.
var Kinds = []Kind{KindTrivial, KindFlat, KindFenced, KindNested, KindMarkup}

// Delimiters that the downstream scanner reserves for its own use.
var reservedDelimiters = map[string]bool{
	"<": true,
	">": true,
}

var (
	ErrInvalidDelimiter  = errors.New("invalid delimiter")
	ErrReservedDelimiter = errors.New("reserved delimiter")
	ErrNameNotUppercase  = errors.New("grammar name must be uppercase")
	ErrUnknownKind       = errors.New("unknown grammar kind")
	ErrDuplicateName     = errors.New("duplicate grammar name")
)

// Spec declares a single block or markup grammar.
type Spec struct {
	Name      string `toml:"name" yaml:"name" json:"name"`
	Kind      Kind   `toml:"kind" yaml:"kind" json:"kind"`
	Delimiter string `toml:"delimiter" yaml:"delimiter" json:"delimiter"`
}

// Tag returns the classification tag reported for the grammar's final state.
func (s Spec) Tag() string {
	return strings.ToLower(s.Name)
}

// IsColumn reports whether the grammar compiles into the column (block) table.
func (s Spec) IsColumn() bool {
	return s.Kind != KindMarkup
}

func (s Spec) String() string {
	return fmt.Sprintf("%s(%s %q)", s.Name, s.Kind, s.Delimiter)
}

// Validate checks a single grammar declaration. Checks run in a fixed order:
// delimiter whitespace, reserved delimiter, name case, kind.
func Validate(s Spec) error {
	if s.Delimiter == "" {
		return fmt.Errorf("%w: delimiter for %s is empty", ErrInvalidDelimiter, s.Name)
	}
	if strings.IndexFunc(s.Delimiter, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: delimiter %q for %s cannot contain whitespace", ErrInvalidDelimiter, s.Delimiter, s.Name)
	}
	if reservedDelimiters[s.Delimiter] {
		return fmt.Errorf("%w: delimiter %q for %s cannot be '<' or '>'", ErrReservedDelimiter, s.Delimiter, s.Name)
	}
	if err := validateName(s.Name); err != nil {
		return err
	}
	if !ValidKind(s.Kind) {
		return fmt.Errorf("%w: %q for %s (must be one of %v)", ErrUnknownKind, s.Kind, s.Name, Kinds)
	}
	return nil
}

// ValidateSet validates every grammar in order and then checks that names are
// unique, since two grammars sharing a name would share a final state tag.
func ValidateSet(specs []Spec) error {
	seen := make(map[string]int, len(specs))
	for i, s := range specs {
		if err := Validate(s); err != nil {
			return fmt.Errorf("grammar %d: %w", i, err)
		}
		if prev, ok := seen[s.Name]; ok {
			return fmt.Errorf("%w: %q declared at %d and %d", ErrDuplicateName, s.Name, prev, i)
		}
		seen[s.Name] = i
	}
	return nil
}

// ValidKind reports whether k is one of the recognized kinds.
func ValidKind(k Kind) bool {
	switch k {
	case KindTrivial, KindFlat, KindFenced, KindNested, KindMarkup:
		return true
	default:
		return false
	}
}

// validateName accepts only A-Z. State labels join names and positions with
// '_', so a name holding '_' or digits could spell another state's label.
func validateName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: name is empty", ErrNameNotUppercase)
	}
	for _, r := range name {
		if r < 'A' || r > 'Z' {
			return fmt.Errorf("%w: %q has invalid character %q (only A-Z)", ErrNameNotUppercase, name, r)
		}
	}
	return nil
}
