// Package testutil holds fixtures shared by the ttgen package tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"ttgen/internal/grammar"
)

// WriteFile writes content to name under dir and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("MkdirAll(%s): %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s): %v", path, err)
	}
	return path
}

// CollidingGrammars is a YAML grammar list whose second entry reuses the
// first entry's trivial delimiter.
const CollidingGrammars = `
grammars:
  - {name: FOOTNOTE, kind: trivial, delimiter: "#"}
  - {name: TAG, kind: trivial, delimiter: "#"}
`

// ExtraGrammar is a TOML grammar list with a single flat grammar.
const ExtraGrammar = `
[[grammars]]
name = "NOTE"
kind = "flat"
delimiter = "~~"
`

// SampleGrammars returns a small mixed grammar set touching every kind.
func SampleGrammars() []grammar.Spec {
	return []grammar.Spec{
		{Name: "TITLE", Kind: grammar.KindTrivial, Delimiter: "="},
		{Name: "QUOTE", Kind: grammar.KindFlat, Delimiter: "%%"},
		{Name: "ASIDE", Kind: grammar.KindFenced, Delimiter: "%!"},
		{Name: "NEST", Kind: grammar.KindNested, Delimiter: "::"},
		{Name: "STRONG", Kind: grammar.KindMarkup, Delimiter: "*"},
	}
}

// AssertFileExists checks that a file exists at the given path.
func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("expected file to exist: %s", path)
	}
}

// AssertFileMissing checks that nothing exists at the given path.
func AssertFileMissing(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file at %s", path)
	}
}
