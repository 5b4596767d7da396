// Package emit renders compiled transition tables into source or data files
// for the scanner that consumes them.
package emit

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"regexp"

	"ttgen/internal/automaton"
	"ttgen/internal/grammar"
	"ttgen/internal/storage"
)

// Output formats.
const (
	FormatNim  = "nim"
	FormatGo   = "go"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Formats lists every supported output format.
var Formats = []string{FormatNim, FormatGo, FormatJSON, FormatYAML}

// DefaultGoPackage is the package clause used for Go output.
const DefaultGoPackage = "transitions"

// headerScanLines bounds how far ReadChecksum looks into a file.
const headerScanLines = 8

var (
	ErrUnknownFormat = errors.New("unknown output format")
	ErrNoChecksum    = errors.New("no grammar checksum header found")
	ErrInvalidKind   = errors.New("invalid kind name")
)

var (
	checksumPattern = regexp.MustCompile(`"?checksum"?:\s*"?(sha256:[0-9a-f]{64})`)
	kindPattern     = regexp.MustCompile(`^[a-z][a-z0-9]*$`)
)

// Options controls rendering.
type Options struct {
	// DefaultColumnKind is emitted first in the column kind list and names
	// lines that match no block delimiter.
	DefaultColumnKind string

	// Package is the Go package clause for FormatGo.
	Package string

	// Checksum identifies the grammar set the tables were compiled from.
	Checksum storage.Checksum
}

func (o Options) withDefaults() Options {
	if o.DefaultColumnKind == "" {
		o.DefaultColumnKind = grammar.DefaultColumnKind
	}
	if o.Package == "" {
		o.Package = DefaultGoPackage
	}
	return o
}

// Document is the format-independent view of a compiled Result.
type Document struct {
	Checksum          storage.Checksum       `json:"checksum,omitempty" yaml:"checksum,omitempty"`
	ColumnKinds       []string               `json:"column_kinds" yaml:"column_kinds"`
	MarkupKinds       []string               `json:"markup_kinds" yaml:"markup_kinds"`
	ColumnTransitions []automaton.Transition `json:"column_transitions" yaml:"column_transitions"`
	ColumnFinalStates []automaton.Final      `json:"column_final_states" yaml:"column_final_states"`
	MarkupSymbols     []string               `json:"markup_symbols" yaml:"markup_symbols"`
	MarkupTransitions []automaton.Transition `json:"markup_transitions" yaml:"markup_transitions"`
	MarkupFinalStates []automaton.Final      `json:"markup_final_states" yaml:"markup_final_states"`
}

// NewDocument flattens res for rendering.
func NewDocument(res *automaton.Result, opts Options) *Document {
	opts = opts.withDefaults()
	return &Document{
		Checksum:          opts.Checksum,
		ColumnKinds:       append([]string{opts.DefaultColumnKind}, res.Column.Tags()...),
		MarkupKinds:       res.Markup.Tags(),
		ColumnTransitions: res.Column.Transitions(),
		ColumnFinalStates: res.Column.Finals(),
		MarkupSymbols:     append([]string(nil), res.MarkupSymbols...),
		MarkupTransitions: res.Markup.Transitions(),
		MarkupFinalStates: res.Markup.Finals(),
	}
}

// ValidFormat reports whether format is supported.
func ValidFormat(format string) bool {
	for _, f := range Formats {
		if f == format {
			return true
		}
	}
	return false
}

// Check reports whether res can be rendered in format. Kind names become
// enum members in generated code, so each must be a unique lowercase
// identifier and, for Nim, not a keyword.
func Check(res *automaton.Result, format string, opts Options) error {
	if !ValidFormat(format) {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	return checkKinds(NewDocument(res, opts), format)
}

func checkKinds(doc *Document, format string) error {
	for _, kinds := range [][]string{doc.ColumnKinds, doc.MarkupKinds} {
		seen := make(map[string]bool, len(kinds))
		for _, k := range kinds {
			if !kindPattern.MatchString(k) {
				return fmt.Errorf("%w: %q is not a lowercase identifier", ErrInvalidKind, k)
			}
			if seen[k] {
				return fmt.Errorf("%w: %q is declared twice", ErrInvalidKind, k)
			}
			seen[k] = true
			if format == FormatNim && nimKeywords[k] {
				return fmt.Errorf("%w: %q is a Nim keyword", ErrInvalidKind, k)
			}
		}
	}
	return nil
}

// Render writes res to w in the given format.
func Render(w io.Writer, format string, res *automaton.Result, opts Options) error {
	opts = opts.withDefaults()
	doc := NewDocument(res, opts)
	if err := checkKinds(doc, format); err != nil {
		return err
	}

	switch format {
	case FormatNim:
		return renderNim(w, doc)
	case FormatGo:
		return renderGo(w, doc, opts.Package)
	case FormatJSON:
		return renderJSON(w, doc)
	case FormatYAML:
		return renderYAML(w, doc)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// GrammarChecksum fingerprints an ordered grammar list. Order is significant
// because it decides which grammar owns a contested path.
func GrammarChecksum(specs []grammar.Spec) (storage.Checksum, error) {
	data, err := json.Marshal(specs)
	if err != nil {
		return "", fmt.Errorf("marshal grammars for checksum: %w", err)
	}
	return storage.ComputeChecksum(data), nil
}

// Fingerprint identifies everything a file rendered in format depends on: the
// ordered grammar list plus the options that change the output. It is the
// checksum written into the file header.
func Fingerprint(specs []grammar.Spec, format string, opts Options) (storage.Checksum, error) {
	opts = opts.withDefaults()
	input := struct {
		Grammars          []grammar.Spec `json:"grammars"`
		Format            string         `json:"format"`
		DefaultColumnKind string         `json:"default_column_kind"`
		Package           string         `json:"package,omitempty"`
	}{
		Grammars:          specs,
		Format:            format,
		DefaultColumnKind: opts.DefaultColumnKind,
	}
	if format == FormatGo {
		input.Package = opts.Package
	}
	data, err := json.Marshal(input)
	if err != nil {
		return "", fmt.Errorf("marshal render inputs for checksum: %w", err)
	}
	return storage.ComputeChecksum(data), nil
}

// ReadChecksum extracts the grammar checksum from the header of a rendered file.
func ReadChecksum(r io.Reader) (storage.Checksum, error) {
	sc := bufio.NewScanner(r)
	for i := 0; i < headerScanLines && sc.Scan(); i++ {
		m := checksumPattern.FindStringSubmatch(sc.Text())
		if m == nil {
			continue
		}
		c := storage.Checksum(m[1])
		if _, err := storage.ParseChecksum(c); err != nil {
			return "", err
		}
		return c, nil
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("read checksum header: %w", err)
	}
	return "", ErrNoChecksum
}

func renderJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json tables: %w", err)
	}
	return nil
}
