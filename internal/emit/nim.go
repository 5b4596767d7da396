package emit

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"ttgen/internal/automaton"
)

var nimTemplate = template.Must(template.New("nim").Funcs(template.FuncMap{
	"join":    strings.Join,
	"table":   nimTable,
	"finals":  nimFinals,
	"symbols": nimSymbols,
}).Parse(`# Generated transition tables for the document scanner.
# This file is auto-generated by ttgen. Do not edit manually.
{{- if .Checksum}}
# ttgen checksum: {{.Checksum}}
{{- end}}

import std/tables

type
   ColumnKind* {.pure.} = enum
      {{join .ColumnKinds ", "}}

   MarkupKind* {.pure.} = enum
      {{join .MarkupKinds ", "}}

const
   columnTransitions* = {{table .ColumnTransitions}}

   columnFinalStates* = {{finals .ColumnFinalStates "ColumnKind"}}

   markupSymbols* = {{symbols .MarkupSymbols}}

   markupTransitions* = {{table .MarkupTransitions}}

   markupFinalStates* = {{finals .MarkupFinalStates "MarkupKind"}}
`))

// nimKeywords cannot be used as enum members.
var nimKeywords = map[string]bool{
	"addr": true, "and": true, "as": true, "asm": true, "bind": true,
	"block": true, "break": true, "case": true, "cast": true, "concept": true,
	"const": true, "continue": true, "converter": true, "defer": true,
	"discard": true, "distinct": true, "div": true, "do": true, "elif": true,
	"else": true, "end": true, "enum": true, "except": true, "export": true,
	"finally": true, "for": true, "from": true, "func": true, "if": true,
	"import": true, "in": true, "include": true, "interface": true, "is": true,
	"isnot": true, "iterator": true, "let": true, "macro": true, "method": true,
	"mixin": true, "mod": true, "nil": true, "not": true, "notin": true,
	"object": true, "of": true, "or": true, "out": true, "proc": true,
	"ptr": true, "raise": true, "ref": true, "return": true, "shl": true,
	"shr": true, "static": true, "template": true, "try": true, "tuple": true,
	"type": true, "using": true, "var": true, "when": true, "while": true,
	"xor": true, "yield": true,
}

func renderNim(w io.Writer, doc *Document) error {
	if err := nimTemplate.Execute(w, doc); err != nil {
		return fmt.Errorf("render nim tables: %w", err)
	}
	return nil
}

// charSymbols reports whether every symbol fits a Nim char literal. When one
// does not, the whole table is keyed by strings so its key type stays uniform.
func charSymbols(syms []string) bool {
	for _, s := range syms {
		if len(s) != 1 || s[0] >= 0x80 {
			return false
		}
	}
	return true
}

func nimSymbol(sym string, asChar bool) string {
	if !asChar {
		return strconv.Quote(sym)
	}
	switch c := sym[0]; {
	case c == '\'':
		return `'\''`
	case c == '\\':
		return `'\\'`
	case c < 0x20 || c == 0x7f:
		return fmt.Sprintf(`'\x%02X'`, c)
	default:
		return "'" + sym + "'"
	}
}

func nimTable(trs []automaton.Transition) string {
	syms := make([]string, len(trs))
	for i, tr := range trs {
		syms[i] = tr.Symbol
	}
	asChar := charSymbols(syms)

	if len(trs) == 0 {
		if asChar {
			return "initTable[(string, char), string]()"
		}
		return "initTable[(string, string), string]()"
	}

	var b strings.Builder
	b.WriteString("{\n")
	for _, tr := range trs {
		fmt.Fprintf(&b, "      (%s, %s): %s,\n", strconv.Quote(tr.From), nimSymbol(tr.Symbol, asChar), strconv.Quote(tr.To))
	}
	b.WriteString("   }.toTable")
	return b.String()
}

func nimFinals(finals []automaton.Final, enum string) string {
	if len(finals) == 0 {
		return fmt.Sprintf("initTable[string, %s]()", enum)
	}
	var b strings.Builder
	b.WriteString("{\n")
	for _, f := range finals {
		fmt.Fprintf(&b, "      %s: %s.%s,\n", strconv.Quote(f.State), enum, f.Tag)
	}
	b.WriteString("   }.toTable")
	return b.String()
}

func nimSymbols(syms []string) string {
	asChar := charSymbols(syms)
	if len(syms) == 0 {
		if asChar {
			return "newSeq[char]()"
		}
		return "newSeq[string]()"
	}
	parts := make([]string, len(syms))
	for i, s := range syms {
		parts[i] = nimSymbol(s, asChar)
	}
	return "@[" + strings.Join(parts, ", ") + "]"
}
