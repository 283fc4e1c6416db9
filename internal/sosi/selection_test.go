package sosi

import (
	"reflect"
	"strings"
	"testing"
)

func TestParseSelection(t *testing.T) {
	data := []byte(`{
		"objTypesByCategory": {"points": ["Kum"], "lines": []},
		"fieldsByCategory": {"points": ["OBJTYPE", "P_TEMA"]}
	}`)
	sel, err := ParseSelection(data)
	if err != nil {
		t.Fatalf("ParseSelection: %v", err)
	}
	if !reflect.DeepEqual(sel.ObjTypesByCategory[CategoryPoints], []string{"Kum"}) {
		t.Errorf("objTypes = %v", sel.ObjTypesByCategory)
	}
	if len(sel.ObjTypesByCategory[CategoryLines]) != 0 {
		t.Errorf("lines objTypes = %v, want empty", sel.ObjTypesByCategory[CategoryLines])
	}
	if !reflect.DeepEqual(sel.FieldsByCategory[CategoryPoints], []string{"OBJTYPE", "P_TEMA"}) {
		t.Errorf("fields = %v", sel.FieldsByCategory)
	}
}

func TestParseSelectionRejectsUnknownKeys(t *testing.T) {
	if _, err := ParseSelection([]byte(`{"objTypes": {"points": []}}`)); err == nil {
		t.Error("unknown top-level key accepted")
	}
}

func TestParseSelectionRejectsUnknownCategory(t *testing.T) {
	if _, err := ParseSelection([]byte(`{"objTypesByCategory": {"polygons": ["X"]}}`)); err == nil {
		t.Error("unknown category key accepted")
	}
}

func TestSelectionEmpty(t *testing.T) {
	tests := []struct {
		name string
		sel  Selection
		want bool
	}{
		{"zero value", Selection{}, true},
		{"empty lists", Selection{
			ObjTypesByCategory: map[Category][]string{CategoryPoints: {}},
			FieldsByCategory:   map[Category][]string{CategoryLines: {}},
		}, true},
		{"objtype constraint", pointsSelection([]string{"Kum"}, nil), false},
		{"field constraint", pointsSelection(nil, []string{"DIM"}), false},
	}
	for _, tt := range tests {
		if got := tt.sel.Empty(); got != tt.want {
			t.Errorf("%s: Empty() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestSelectionFieldNormalization(t *testing.T) {
	doc := ".PUNKT 1:\n..OBJTYPE Kum\n..Dim 5\n..SONE A\n"
	got := Clean(doc, pointsSelection(nil, []string{" dim "}), FieldModeRemove)
	if !strings.Contains(got, "..Dim 5") {
		t.Error("field match is not case-insensitive")
	}
	if strings.Contains(got, "SONE") {
		t.Error("unselected field survived")
	}
}
