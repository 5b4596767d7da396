package emit

import (
	"bytes"
	"fmt"
	"go/format"
	"io"
	"strconv"
	"text/template"
)

var goTemplate = template.Must(template.New("go").Funcs(template.FuncMap{
	"quote": strconv.Quote,
}).Parse(`// Code generated by ttgen. DO NOT EDIT.
{{- if .Doc.Checksum}}
// ttgen checksum: {{.Doc.Checksum}}
{{- end}}

package {{.Package}}

// Key addresses one transition: the source state and the consumed symbol.
type Key struct {
	State  string
	Symbol string
}

// ColumnKinds lists the block classifications; the first is the fallback.
var ColumnKinds = []string{
{{- range .Doc.ColumnKinds}}
	{{quote .}},
{{- end}}
}

// MarkupKinds lists the inline markup classifications.
var MarkupKinds = []string{
{{- range .Doc.MarkupKinds}}
	{{quote .}},
{{- end}}
}

var ColumnTransitions = map[Key]string{
{{- range .Doc.ColumnTransitions}}
	{ {{- quote .From}}, {{quote .Symbol -}} }: {{quote .To}},
{{- end}}
}

var ColumnFinalStates = map[string]string{
{{- range .Doc.ColumnFinalStates}}
	{{quote .State}}: {{quote .Tag}},
{{- end}}
}

var MarkupSymbols = []string{
{{- range .Doc.MarkupSymbols}}
	{{quote .}},
{{- end}}
}

var MarkupTransitions = map[Key]string{
{{- range .Doc.MarkupTransitions}}
	{ {{- quote .From}}, {{quote .Symbol -}} }: {{quote .To}},
{{- end}}
}

var MarkupFinalStates = map[string]string{
{{- range .Doc.MarkupFinalStates}}
	{{quote .State}}: {{quote .Tag}},
{{- end}}
}
`))

func renderGo(w io.Writer, doc *Document, pkg string) error {
	var buf bytes.Buffer
	err := goTemplate.Execute(&buf, struct {
		Doc     *Document
		Package string
	}{doc, pkg})
	if err != nil {
		return fmt.Errorf("render go tables: %w", err)
	}

	src, err := format.Source(buf.Bytes())
	if err != nil {
		return fmt.Errorf("format go tables: %w", err)
	}
	_, err = w.Write(src)
	return err
}
