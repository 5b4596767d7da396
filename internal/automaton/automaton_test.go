package automaton

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/go-cmp/cmp"

	"ttgen/internal/grammar"
)

func mustCompile(t *testing.T, specs ...grammar.Spec) *Result {
	t.Helper()
	res, err := Compile(specs)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	return res
}

// stepAll feeds every character of s to the table starting from state.
func stepAll(a Automaton, state State, s string) State {
	for _, r := range s {
		state = a.Step(state, string(r))
		if state == DeadState {
			return DeadState
		}
	}
	return state
}

// columnFinal walks a column grammar's delimiter plus one closing space.
func columnFinal(t *Table, s grammar.Spec) State {
	switch s.Kind {
	case grammar.KindTrivial:
		return t.Walk(symbols(s.Delimiter)[0])
	case grammar.KindNested:
		return t.Walk(s.Delimiter, SpaceSymbol)
	default:
		return t.WalkString(s.Delimiter + " ")
	}
}

func flat(name, delim string) grammar.Spec {
	return grammar.Spec{Name: name, Kind: grammar.KindFlat, Delimiter: delim}
}

func markupSpec(name, delim string) grammar.Spec {
	return grammar.Spec{Name: name, Kind: grammar.KindMarkup, Delimiter: delim}
}

// --- End-to-end ---

func TestCompile_Defaults(t *testing.T) {
	res := mustCompile(t, grammar.Defaults()...)

	wantColumn := []string{"heading", "list", "comment", "annotation", "warning", "metadata", "code", "math", "footnote"}
	if diff := cmp.Diff(wantColumn, res.Column.Tags()); diff != "" {
		t.Errorf("column tags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"inlinecode", "highlight"}, res.Markup.Tags()); diff != "" {
		t.Errorf("markup tags mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]Symbol{"`", "|"}, res.MarkupSymbols); diff != "" {
		t.Errorf("markup symbols mismatch (-want +got):\n%s", diff)
	}
	if !res.IsMarkupSymbol("|") || res.IsMarkupSymbol("#") {
		t.Error("IsMarkupSymbol disagrees with MarkupSymbols")
	}
}

func TestCompile_DefaultsReachability(t *testing.T) {
	res := mustCompile(t, grammar.Defaults()...)

	for _, s := range grammar.Defaults() {
		if s.IsColumn() {
			state := columnFinal(res.Column, s)
			if !res.Column.IsAccept(state) {
				t.Errorf("%s: walk ended in %q, want a final state", s.Name, res.Column.Label(state))
				continue
			}
			if tag, _ := res.Column.Tag(state); tag != s.Tag() {
				t.Errorf("%s: tag = %q, want %q", s.Name, tag, s.Tag())
			}
			continue
		}

		armed := res.Markup.WalkString(s.Delimiter)
		if got := res.Markup.Label(armed); got != s.Name+"_M" {
			t.Errorf("%s: opening walk ended in %q, want %s_M", s.Name, got, s.Name)
		}
		closed := stepAll(res.Markup, armed, s.Delimiter)
		if tag, ok := res.Markup.Tag(closed); !ok || tag != s.Tag() {
			t.Errorf("%s: closing walk ended in %q", s.Name, res.Markup.Label(closed))
		}
	}
}

func TestCompile_DefaultsSharedPipePrefix(t *testing.T) {
	res := mustCompile(t, grammar.Defaults()...)

	shared := res.Column.Step(StartState, "|")
	if got := res.Column.Label(shared); got != "CODE_0_ANNOTATION_0" {
		t.Errorf("merged label = %q, want CODE_0_ANNOTATION_0", got)
	}
	if got := res.Column.Label(res.Column.Step(shared, "|")); got != "ANNOTATION_1" {
		t.Errorf("after || = %q, want ANNOTATION_1", got)
	}
	if got := res.Column.Label(res.Column.Step(shared, ">")); got != "CODE_1" {
		t.Errorf("after |> = %q, want CODE_1", got)
	}

	// The markup table is independent: '|' opens a highlight span there.
	if got := res.Markup.Label(res.Markup.Step(StartState, "|")); got != "HIGHLIGHT_M" {
		t.Errorf("markup '|' = %q, want HIGHLIGHT_M", got)
	}
}

// assertUniqueKeys checks what an emitter relies on: every state has its own
// label and every (label, symbol) key has exactly one target.
func assertUniqueKeys(t *testing.T, tbl *Table) {
	t.Helper()
	for s := State(1); int(s) <= tbl.NumStates(); s++ {
		if got, ok := tbl.Lookup(tbl.Label(s)); !ok || got != s {
			t.Errorf("%s: label %q of state %d resolves to state %d", tbl.Namespace(), tbl.Label(s), s, got)
		}
	}
	seen := make(map[[2]string]string)
	for _, tr := range tbl.Transitions() {
		key := [2]string{tr.From, tr.Symbol}
		if prev, ok := seen[key]; ok {
			t.Errorf("%s: key (%s, %q) emitted twice: -> %s and -> %s", tbl.Namespace(), tr.From, tr.Symbol, prev, tr.To)
		}
		seen[key] = tr.To
	}
	if len(seen) != tbl.Len() {
		t.Errorf("%s: %d distinct keys, %d transitions", tbl.Namespace(), len(seen), tbl.Len())
	}
}

func TestCompile_Determinism(t *testing.T) {
	sets := map[string][]grammar.Spec{
		"defaults": grammar.Defaults(),
		"merged prefixes": {
			flat("B", "xy"),
			flat("A", "xz"),
			flat("AOB", "qy"),
			flat("AB", "xy!"),
		},
	}
	for name, specs := range sets {
		t.Run(name, func(t *testing.T) {
			res := mustCompile(t, specs...)
			assertUniqueKeys(t, res.Column)
			assertUniqueKeys(t, res.Markup)
		})
	}
}

func TestCompile_RejectsLabelLikeNames(t *testing.T) {
	// A name shaped like a merged label would share that label.
	_, err := Compile([]grammar.Spec{flat("B", "xy"), flat("A", "xz"), flat("A_0_B", "qy")})
	if !errors.Is(err, grammar.ErrNameNotUppercase) {
		t.Fatalf("err = %v, want ErrNameNotUppercase", err)
	}
}

func TestFreeze_DuplicateLabel(t *testing.T) {
	b := newBuilder(ColumnNamespace, slog.New(slog.NewTextHandler(io.Discard, nil)))
	x := b.newState("A_0_B_0")
	y := b.newState("A_0_B_0")
	b.insert(StartState, "x", x)
	b.insert(StartState, "q", y)

	tbl, err := b.freeze()
	if !errors.Is(err, ErrDuplicateLabel) {
		t.Fatalf("err = %v, want ErrDuplicateLabel", err)
	}
	if tbl != nil {
		t.Error("failed freeze returned a table")
	}
}

func TestCompile_SpaceAbsorption(t *testing.T) {
	res := mustCompile(t, grammar.Defaults()...)

	for _, s := range grammar.Defaults() {
		if !s.IsColumn() || s.Kind == grammar.KindTrivial {
			continue
		}
		final := columnFinal(res.Column, s)
		state := final
		for i := 0; i < 5; i++ {
			state = res.Column.Step(state, SpaceSymbol)
			if state != final {
				t.Fatalf("%s: space %d moved from %q to %q", s.Name, i, res.Column.Label(final), res.Column.Label(state))
			}
		}
	}
}

func TestCompile_MarkupDoesNotAbsorbSpace(t *testing.T) {
	res := mustCompile(t, grammar.Defaults()...)

	closed := res.Markup.WalkString("``")
	if !res.Markup.IsAccept(closed) {
		t.Fatal("`` should close an inline code span")
	}
	if res.Markup.Step(closed, SpaceSymbol) != DeadState {
		t.Error("markup final state should have no space transition")
	}
}

func TestCompile_NestedRepeats(t *testing.T) {
	res := mustCompile(t, grammar.Defaults()...)

	marker := res.Column.Walk("&")
	for i := 0; i < 4; i++ {
		if next := res.Column.Step(marker, "&"); next != marker {
			t.Fatalf("repeat %d left the marker state", i)
		}
	}
	if tag, _ := res.Column.Tag(res.Column.Walk("&", "&", "&", " ")); tag != "heading" {
		t.Errorf("&&& + space tag = %q, want heading", tag)
	}
}

func TestCompile_CanMatch(t *testing.T) {
	res := mustCompile(t, grammar.Defaults()...)

	if !res.Column.CanMatch(res.Column.Start()) {
		t.Error("start state should CanMatch")
	}
	if !res.Column.CanMatch(res.Column.Walk(">", ">")) {
		t.Error(">> should CanMatch")
	}
	dead := res.Column.Walk("x")
	if dead != DeadState {
		t.Fatalf("x should be dead, got %q", res.Column.Label(dead))
	}
	if res.Column.CanMatch(dead) {
		t.Error("dead state should not CanMatch")
	}
}

// --- Prefix merge ---

func TestCompile_PrefixMerge(t *testing.T) {
	res := mustCompile(t, flat("A", "--"), flat("B", "-!"))
	tbl := res.Column

	if tag, _ := tbl.Tag(tbl.WalkString("-- ")); tag != "a" {
		t.Errorf("-- tag = %q, want a", tag)
	}
	if tag, _ := tbl.Tag(tbl.WalkString("-! ")); tag != "b" {
		t.Errorf("-! tag = %q, want b", tag)
	}

	want := []Transition{
		{From: "START", Symbol: "-", To: "B_0_A_0"},
		{From: "B_0_A_0", Symbol: "-", To: "A_1"},
		{From: "A_1", Symbol: " ", To: "A_F"},
		{From: "A_F", Symbol: " ", To: "A_F"},
		{From: "B_0_A_0", Symbol: "!", To: "B_1"},
		{From: "B_1", Symbol: " ", To: "B_F"},
		{From: "B_F", Symbol: " ", To: "B_F"},
	}
	if diff := cmp.Diff(want, tbl.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}

	if _, ok := tbl.Lookup("A_0"); ok {
		t.Error("stale label A_0 still resolvable after merge")
	}
	if s, ok := tbl.Lookup("B_0_A_0"); !ok || s != tbl.Walk("-") {
		t.Error("merged label should resolve to the shared state")
	}
}

func TestCompile_PrefixMergeChain(t *testing.T) {
	res := mustCompile(t, flat("A", "-->"), flat("B", "--!"), flat("C", "--?"))
	tbl := res.Column

	if got := tbl.Label(tbl.Walk("-")); got != "C_0_B_0_A_0" {
		t.Errorf("first shared label = %q", got)
	}
	if got := tbl.Label(tbl.Walk("-", "-")); got != "C_1_B_1_A_1" {
		t.Errorf("second shared label = %q", got)
	}
	for delim, tag := range map[string]string{"--> ": "a", "--! ": "b", "--? ": "c"} {
		if got, _ := tbl.Tag(tbl.WalkString(delim)); got != tag {
			t.Errorf("%q tag = %q, want %q", delim, got, tag)
		}
	}
}

func TestCompile_ShorterAfterLonger(t *testing.T) {
	res := mustCompile(t, flat("LONG", "--x"), flat("SHORT", "--"))
	tbl := res.Column

	if tag, _ := tbl.Tag(tbl.WalkString("--x ")); tag != "long" {
		t.Errorf("--x tag = %q", tag)
	}
	if tag, _ := tbl.Tag(tbl.WalkString("-- ")); tag != "short" {
		t.Errorf("-- tag = %q", tag)
	}
}

func TestCompile_FencedMatchesFlat(t *testing.T) {
	a := mustCompile(t, flat("CODE", "|>"))
	b := mustCompile(t, grammar.Spec{Name: "CODE", Kind: grammar.KindFenced, Delimiter: "|>"})
	if diff := cmp.Diff(a.Column.Transitions(), b.Column.Transitions()); diff != "" {
		t.Errorf("fenced differs from flat (-flat +fenced):\n%s", diff)
	}
}

func TestCompile_UnicodeDelimiter(t *testing.T) {
	res := mustCompile(t, flat("SECTION", "§§"), markupSpec("EMPH", "¦"))
	if tag, _ := res.Column.Tag(res.Column.WalkString("§§ ")); tag != "section" {
		t.Errorf("§§ tag = %q", tag)
	}
	if diff := cmp.Diff([]Symbol{"¦"}, res.MarkupSymbols); diff != "" {
		t.Errorf("markup symbols (-want +got):\n%s", diff)
	}
}

// --- Collisions ---

func TestCompile_Collisions(t *testing.T) {
	cases := []struct {
		name     string
		specs    []grammar.Spec
		symbol   Symbol
		position int
		existing string
	}{
		{
			name: "two trivial on same character",
			specs: []grammar.Spec{
				{Name: "A", Kind: grammar.KindTrivial, Delimiter: "#"},
				{Name: "B", Kind: grammar.KindTrivial, Delimiter: "#"},
			},
			symbol: "#", position: 0, existing: "A_F",
		},
		{
			name: "flat extends trivial",
			specs: []grammar.Spec{
				{Name: "A", Kind: grammar.KindTrivial, Delimiter: "#"},
				flat("B", "#!"),
			},
			symbol: "#", position: 0, existing: "A_F",
		},
		{
			name:   "identical flat delimiters",
			specs:  []grammar.Spec{flat("A", "--"), flat("B", "--")},
			symbol: " ", position: 2, existing: "A_F",
		},
		{
			name: "trivial on a shared prefix",
			specs: []grammar.Spec{
				flat("A", "--"),
				{Name: "B", Kind: grammar.KindTrivial, Delimiter: "-"},
			},
			symbol: "-", position: 0, existing: "A_0",
		},
		{
			name: "nested over occupied start",
			specs: []grammar.Spec{
				{Name: "A", Kind: grammar.KindNested, Delimiter: "&"},
				{Name: "B", Kind: grammar.KindNested, Delimiter: "&"},
			},
			symbol: "&", position: 0, existing: "A_0",
		},
		{
			name:   "markup extends markup",
			specs:  []grammar.Spec{markupSpec("A", "|"), markupSpec("B", "||")},
			symbol: "|", position: 1, existing: "A_F",
		},
		{
			name:   "identical markup",
			specs:  []grammar.Spec{markupSpec("A", "*"), markupSpec("B", "*")},
			symbol: "*", position: 1, existing: "A_F",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Compile(tc.specs)
			if !errors.Is(err, ErrDelimiterCollision) {
				t.Fatalf("expected ErrDelimiterCollision, got: %v", err)
			}
			if res != nil {
				t.Error("failed compilation must not return tables")
			}
			var ce *CollisionError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *CollisionError, got %T", err)
			}
			if ce.Grammar != "B" || ce.Symbol != tc.symbol || ce.Position != tc.position || ce.Existing != tc.existing {
				t.Errorf("collision = %+v, want grammar B symbol %q position %d existing %s",
					*ce, tc.symbol, tc.position, tc.existing)
			}
		})
	}
}

func TestCompile_NamespacesIndependent(t *testing.T) {
	// Same delimiter in both namespaces does not collide.
	res := mustCompile(t, flat("BAR", "||"), markupSpec("PIPE", "|"))
	if res.Column.Len() == 0 || res.Markup.Len() == 0 {
		t.Fatal("both tables should be populated")
	}
}

// --- Markup ---

func TestCompile_MarkupMultiCharacter(t *testing.T) {
	res := mustCompile(t, markupSpec("BOLD", "**"))

	want := []Transition{
		{From: "START", Symbol: "*", To: "BOLD_0"},
		{From: "BOLD_0", Symbol: "*", To: "BOLD_M"},
		{From: "BOLD_M", Symbol: "*", To: "BOLD_2"},
		{From: "BOLD_2", Symbol: "*", To: "BOLD_F"},
	}
	if diff := cmp.Diff(want, res.Markup.Transitions()); diff != "" {
		t.Errorf("transitions mismatch (-want +got):\n%s", diff)
	}
	if res.Column.Len() != 0 {
		t.Errorf("column table has %d transitions, want 0", res.Column.Len())
	}
}

func TestCompile_MarkupSharedOpening(t *testing.T) {
	res := mustCompile(t, markupSpec("BOLD", "**"), markupSpec("UNDER", "*_"))

	if got := res.Markup.Label(res.Markup.Walk("*")); got != "UNDER_0_BOLD_0" {
		t.Errorf("shared opening label = %q", got)
	}
	if diff := cmp.Diff([]Symbol{"*"}, res.MarkupSymbols); diff != "" {
		t.Errorf("symbols not de-duplicated (-want +got):\n%s", diff)
	}
	armed := res.Markup.WalkString("*_")
	if tag, _ := res.Markup.Tag(stepAll(res.Markup, armed, "*_")); tag != "under" {
		t.Errorf("*_ *_ tag = %q, want under", tag)
	}
}

// --- Validation gate ---

func TestCompile_ValidatesFirst(t *testing.T) {
	specs := grammar.Defaults()
	specs = append(specs, grammar.Spec{Name: "bad", Kind: grammar.KindFlat, Delimiter: "~~"})
	if _, err := Compile(specs); !errors.Is(err, grammar.ErrNameNotUppercase) {
		t.Errorf("expected ErrNameNotUppercase, got: %v", err)
	}

	dup := append(grammar.Defaults(), flat("COMMENT", "~~"))
	if _, err := Compile(dup); !errors.Is(err, grammar.ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName, got: %v", err)
	}
}

func TestCompile_Independent(t *testing.T) {
	c := NewCompiler(nil)
	a, err := c.Compile(grammar.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	b, err := c.Compile(grammar.Defaults())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a.Column.Transitions(), b.Column.Transitions()); diff != "" {
		t.Errorf("repeated compile differs:\n%s", diff)
	}
}

func TestTable_UnknownStates(t *testing.T) {
	res := mustCompile(t, grammar.Defaults()...)
	bogus := State(10_000)

	if res.Column.Step(bogus, "-") != DeadState {
		t.Error("Step on unknown state should be dead")
	}
	if res.Column.IsAccept(bogus) || res.Column.CanMatch(bogus) {
		t.Error("unknown state should not accept or match")
	}
	if res.Column.Label(bogus) != "" {
		t.Error("unknown state should have no label")
	}
	if res.Column.Label(StartState) != StartLabel {
		t.Errorf("start label = %q", res.Column.Label(StartState))
	}
}
