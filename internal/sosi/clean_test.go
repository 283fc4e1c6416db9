package sosi

import (
	"strings"
	"testing"
)

func pointsSelection(objTypes, fields []string) Selection {
	sel := Selection{}
	if objTypes != nil {
		sel.ObjTypesByCategory = map[Category][]string{CategoryPoints: objTypes}
	}
	if fields != nil {
		sel.FieldsByCategory = map[Category][]string{CategoryPoints: fields}
	}
	return sel
}

func TestCleanKeepSingleObjType(t *testing.T) {
	got := Clean(sampleDoc, pointsSelection([]string{"Kum"}, nil), FieldModeRemove)

	if strings.Contains(got, "Sluk") {
		t.Error("excluded object type survived")
	}
	res := Analyze(got)
	if res.Points.Features != 1 {
		t.Errorf("points features = %d, want 1", res.Points.Features)
	}
	if res.Points.ObjTypes["Kum"] != 1 || len(res.Points.ObjTypes) != 1 {
		t.Errorf("objTypes = %v, want only Kum", res.Points.ObjTypes)
	}
	// Untouched dimensions: the line block and the header/footer.
	if res.Lines.Features != 1 {
		t.Errorf("lines features = %d, want 1", res.Lines.Features)
	}
	if res.Unknown.Features != 2 {
		t.Errorf("unknown features = %d, want 2", res.Unknown.Features)
	}
}

func TestCleanEmptySelectionIsIdentity(t *testing.T) {
	if got := Clean(sampleDoc, Selection{}, FieldModeRemove); got != sampleDoc {
		t.Errorf("output diverged from input:\n%s", got)
	}
}

func TestCleanFullSelectionIsIdentity(t *testing.T) {
	sel := Selection{
		ObjTypesByCategory: map[Category][]string{
			CategoryPoints: {"Kum", "Sluk"},
			CategoryLines:  {"VL"},
		},
		FieldsByCategory: map[Category][]string{
			CategoryPoints: {"OBJTYPE", "PUNKTDATA", "P_TEMA", "DIM", "NØ"},
			CategoryLines:  {"OBJTYPE", "LEDNINGSDATA", "L_TEMA", "DIM", "NØ"},
		},
	}
	if got := Clean(sampleDoc, sel, FieldModeRemove); got != sampleDoc {
		t.Errorf("output diverged from input:\n%s", got)
	}
}

func TestCleanRemoveFields(t *testing.T) {
	got := Clean(sampleDoc, pointsSelection(nil, []string{"P_TEMA"}), FieldModeRemove)

	if strings.Contains(got, "DIM 650") || strings.Contains(got, "DIM 400") {
		t.Error("unselected point field survived")
	}
	if !strings.Contains(got, "...DIM 150") {
		t.Error("line field removed by a points-only selection")
	}
	if !strings.Contains(got, "...P_TEMA KUM") {
		t.Error("selected field removed")
	}
	// Structure survives: group headers, geometry carriers, raw
	// coordinates.
	for _, want := range []string{"..PUNKTDATA", "..NØ", "6543210 567890"} {
		if !strings.Contains(got, want) {
			t.Errorf("structural line %q removed", want)
		}
	}
}

func TestCleanClearValues(t *testing.T) {
	got := Clean(sampleDoc, pointsSelection(nil, []string{"P_TEMA"}), FieldModeClear)

	if strings.Contains(got, "DIM 650") {
		t.Error("unselected value survived clearing")
	}
	if !strings.Contains(got, "\n...DIM\n") {
		t.Error("cleared line lost its key")
	}
	// Clearing is idempotent: a cleared line is a valueless header and
	// passes the next run untouched.
	if again := Clean(got, pointsSelection(nil, []string{"P_TEMA"}), FieldModeClear); again != got {
		t.Error("second clear pass changed the document")
	}
}

func TestCleanMandatoryFieldPermanence(t *testing.T) {
	// The field list names neither OBJTYPE nor the group keys; they
	// must survive anyway.
	got := Clean(sampleDoc, pointsSelection(nil, []string{"DIM"}), FieldModeRemove)

	if !strings.Contains(got, "..OBJTYPE Kum") || !strings.Contains(got, "..OBJTYPE Sluk") {
		t.Error("object type line removed")
	}
	if !strings.Contains(got, "..PUNKTDATA") {
		t.Error("group key removed")
	}
	if strings.Contains(got, "P_TEMA KUM") {
		t.Error("unselected theme survived")
	}
}

func TestCleanUnknownBlocksPassThrough(t *testing.T) {
	doc := ".HODE\n..EIER Etaten\n..TEGNSETT UTF-8\n.SLUTT\n"
	sel := pointsSelection([]string{"Kum"}, []string{"DIM"})
	if got := Clean(doc, sel, FieldModeRemove); got != doc {
		t.Errorf("header lines not preserved:\n%s", got)
	}
}

func TestCleanBlockWithoutObjTypePassesThrough(t *testing.T) {
	for _, doc := range []string{
		".PUNKT 1:\n..PUNKTDATA\n...DIM 9\n",
		".PUNKT 1:\n..OBJTYPE\n..DIM 9\n",
	} {
		got := Clean(doc, pointsSelection([]string{"Kum"}, []string{"P_TEMA"}), FieldModeRemove)
		if got != doc {
			t.Errorf("undetermined block rewritten:\n%s", got)
		}
	}
}

func TestCleanDropsAllWhenNoTypeMatches(t *testing.T) {
	got := Clean(sampleDoc, pointsSelection([]string{"Hydrant"}, nil), FieldModeRemove)
	res := Analyze(got)
	if res.Points.Features != 0 {
		t.Errorf("points features = %d, want 0", res.Points.Features)
	}
	if res.Lines.Features != 1 || res.Unknown.Features != 2 {
		t.Errorf("other dimensions changed: lines %d unknown %d", res.Lines.Features, res.Unknown.Features)
	}
}

func TestCleanCommentLinesSurvive(t *testing.T) {
	doc := ".PUNKT 1:\n..OBJTYPE Kum\n!intern merknad\n..DIM 5\n"
	got := Clean(doc, pointsSelection(nil, []string{"P_TEMA"}), FieldModeRemove)
	if !strings.Contains(got, "!intern merknad") {
		t.Error("comment line removed")
	}
	if strings.Contains(got, "DIM 5") {
		t.Error("unselected field survived")
	}
}

func TestCleanPreservesNewlineConvention(t *testing.T) {
	doc := ".PUNKT 1:\r\n..OBJTYPE Kum\r\n..DIM 5"
	got := Clean(doc, pointsSelection(nil, []string{"P_TEMA"}), FieldModeRemove)
	want := ".PUNKT 1:\r\n..OBJTYPE Kum"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	// Same document with a trailing break keeps it.
	got = Clean(doc+"\r\n", pointsSelection(nil, []string{"P_TEMA"}), FieldModeRemove)
	if got != want+"\r\n" {
		t.Errorf("got %q, want %q", got, want+"\r\n")
	}
}

func TestParseFieldMode(t *testing.T) {
	tests := []struct {
		in     string
		want   FieldMode
		wantOK bool
	}{
		{"", FieldModeRemove, true},
		{"remove-fields", FieldModeRemove, true},
		{"remove", FieldModeRemove, true},
		{"Clear-Values", FieldModeClear, true},
		{"clear", FieldModeClear, true},
		{"delete", FieldModeRemove, false},
	}
	for _, tt := range tests {
		got, ok := ParseFieldMode(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseFieldMode(%q) = %v, %v, want %v, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
