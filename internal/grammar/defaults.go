package grammar

// DefaultColumnKind is the column classification used for lines that match no
// block delimiter.
const DefaultColumnKind = "paragraph"

// Defaults returns the built-in grammar set in compilation order.
func Defaults() []Spec {
	return []Spec{
		{Name: "HEADING", Kind: KindNested, Delimiter: "&"},
		{Name: "LIST", Kind: KindNested, Delimiter: "="},
		{Name: "COMMENT", Kind: KindFlat, Delimiter: "--"},
		{Name: "ANNOTATION", Kind: KindFlat, Delimiter: "||"},
		{Name: "WARNING", Kind: KindFlat, Delimiter: "!!"},
		{Name: "METADATA", Kind: KindFlat, Delimiter: "::"},
		{Name: "CODE", Kind: KindFenced, Delimiter: "|>"},
		{Name: "MATH", Kind: KindFenced, Delimiter: ">>="},
		{Name: "FOOTNOTE", Kind: KindTrivial, Delimiter: "#"},
		{Name: "INLINECODE", Kind: KindMarkup, Delimiter: "`"},
		{Name: "HIGHLIGHT", Kind: KindMarkup, Delimiter: "|"},
	}
}
