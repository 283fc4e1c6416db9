package sosi

import (
	"fmt"
	"reflect"
	"strings"
	"testing"
)

// dimDoc builds one point block per value, each typed Kum with a
// single DIM attribute.
func dimDoc(dims ...string) string {
	var b strings.Builder
	for i, d := range dims {
		fmt.Fprintf(&b, ".PUNKT %d:\n..OBJTYPE Kum\n..DIM %s\n", i+1, d)
	}
	return b.String()
}

func TestFieldFrequencySampleDoc(t *testing.T) {
	got := FieldFrequency(sampleDoc, CategoryPoints, "P_TEMA")
	want := []ValueCount{{Value: "KUM", Count: 1}, {Value: "SLU", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FieldFrequency = %v, want %v", got, want)
	}
}

func TestFieldFrequencyOrdering(t *testing.T) {
	var b strings.Builder
	for i, v := range []string{"B", "A", "A", "C", "C", "C"} {
		fmt.Fprintf(&b, ".PUNKT %d:\n..OBJTYPE Kum\n..SONE %s\n", i+1, v)
	}
	got := FieldFrequency(b.String(), CategoryPoints, "SONE")
	want := []ValueCount{
		{Value: "C", Count: 3},
		{Value: "A", Count: 2},
		{Value: "B", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FieldFrequency = %v, want %v", got, want)
	}
}

func TestFieldFrequencyEmptyValueSentinel(t *testing.T) {
	doc := ".PUNKT 1:\n..OBJTYPE Kum\n..MERKNAD\n.PUNKT 2:\n..OBJTYPE Kum\n..MERKNAD sjekket\n"
	got := FieldFrequency(doc, CategoryPoints, "MERKNAD")
	want := []ValueCount{
		{Value: EmptyValueLabel, Count: 1},
		{Value: "sjekket", Count: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FieldFrequency = %v, want %v", got, want)
	}
}

func TestFieldFrequencyZeroOccurrences(t *testing.T) {
	if got := FieldFrequency(sampleDoc, CategoryPoints, "FINNES_IKKE"); len(got) != 0 {
		t.Errorf("FieldFrequency = %v, want empty", got)
	}
}

func TestFieldFrequencyObjTypeFirstOccurrence(t *testing.T) {
	doc := ".PUNKT 1:\n..OBJTYPE Kum\n..OBJTYPE Sluk\n...OBJTYPE Hydrant\n"
	got := FieldFrequency(doc, CategoryPoints, "objtype")
	want := []ValueCount{{Value: "Kum", Count: 1}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("FieldFrequency = %v, want %v", got, want)
	}
}

func TestPivotCategorical(t *testing.T) {
	res := Pivot2D(sampleDoc, CategoryPoints, "OBJTYPE", "P_TEMA", PivotOptions{})

	if res.GrandTotal != 2 {
		t.Errorf("grandTotal = %d, want 2", res.GrandTotal)
	}
	if res.Exploded || res.NumericCols {
		t.Errorf("flags = exploded %v numeric %v, want false/false", res.Exploded, res.NumericCols)
	}
	if res.Cells["Kum"]["KUM"] != 1 || res.Cells["Sluk"]["SLU"] != 1 {
		t.Errorf("cells = %v", res.Cells)
	}
	if !reflect.DeepEqual(res.Rows, []string{"Kum", "Sluk"}) {
		t.Errorf("rows = %v", res.Rows)
	}
	if res.RowTotals["Kum"] != 1 || res.ColTotals["SLU"] != 1 {
		t.Errorf("totals = %v / %v", res.RowTotals, res.ColTotals)
	}
}

func TestPivotRequiresBothFields(t *testing.T) {
	doc := ".PUNKT 1:\n..OBJTYPE Kum\n..DIM 5\n" +
		".PUNKT 2:\n..OBJTYPE Kum\n" +
		".PUNKT 3:\n..DIM 7\n"
	res := Pivot2D(doc, CategoryPoints, "OBJTYPE", "DIM", PivotOptions{})
	if res.GrandTotal != 1 {
		t.Errorf("grandTotal = %d, want 1 (only the block holding both fields)", res.GrandTotal)
	}
}

func TestPivotExplosion(t *testing.T) {
	doc := ".PUNKT 1:\n..OBJTYPE Kum\n..SONE A\n..SONE B\n"
	res := Pivot2D(doc, CategoryPoints, "OBJTYPE", "SONE", PivotOptions{})
	if !res.Exploded {
		t.Error("exploded = false, want true")
	}
	if res.GrandTotal != 2 {
		t.Errorf("grandTotal = %d, want 2 (one block, two pairs)", res.GrandTotal)
	}
	if res.RowTotals["Kum"] != 2 {
		t.Errorf("rowTotals = %v", res.RowTotals)
	}
}

func TestPivotEqualWidthBins(t *testing.T) {
	res := Pivot2D(dimDoc("0", "1", "2", "3", "4", "5", "6", "7", "8", "9"),
		CategoryPoints, "OBJTYPE", "DIM",
		PivotOptions{NumericBins: 3})

	if !res.NumericCols {
		t.Fatal("numericCols = false, want true")
	}
	// Columns follow frequency order, so the closed last interval with
	// four members leads: 3 and 6 open their own bins and 9 still lands
	// in the final one.
	wantCols := []string{"6 - 9", "0 - 3", "3 - 6"}
	if !reflect.DeepEqual(res.Cols, wantCols) {
		t.Fatalf("cols = %v, want %v", res.Cols, wantCols)
	}
	if res.ColTotals["0 - 3"] != 3 || res.ColTotals["3 - 6"] != 3 || res.ColTotals["6 - 9"] != 4 {
		t.Errorf("colTotals = %v", res.ColTotals)
	}
	if res.GrandTotal != 10 {
		t.Errorf("grandTotal = %d, want 10", res.GrandTotal)
	}
}

func TestPivotQuantileBins(t *testing.T) {
	dims := make([]string, 100)
	for i := range dims {
		dims[i] = fmt.Sprint(i + 1)
	}
	res := Pivot2D(dimDoc(dims...), CategoryPoints, "OBJTYPE", "DIM",
		PivotOptions{NumericBins: 4, BinningMode: BinQuantile, Seed: 1})

	if !res.NumericCols {
		t.Fatal("numericCols = false, want true")
	}
	if len(res.Cols) != 4 {
		t.Fatalf("cols = %v, want 4 quantile bins", res.Cols)
	}
	for _, c := range res.Cols {
		if res.ColTotals[c] != 25 {
			t.Errorf("colTotals[%q] = %d, want 25", c, res.ColTotals[c])
		}
	}
}

func TestPivotDegenerateRange(t *testing.T) {
	res := Pivot2D(dimDoc("5", "5", "5"), CategoryPoints, "OBJTYPE", "DIM", PivotOptions{})
	if !res.NumericCols {
		t.Fatal("numericCols = false, want true")
	}
	if !reflect.DeepEqual(res.Cols, []string{"5"}) {
		t.Errorf("cols = %v, want single degenerate bin", res.Cols)
	}
	if res.ColTotals["5"] != 3 {
		t.Errorf("colTotals = %v", res.ColTotals)
	}
}

func TestPivotSingleNonNumericDisablesBinning(t *testing.T) {
	res := Pivot2D(dimDoc("1", "2", "ukjent", "4"), CategoryPoints, "OBJTYPE", "DIM", PivotOptions{})
	if res.NumericCols {
		t.Error("numericCols = true, want false when any value fails to parse")
	}
	if res.ColTotals["ukjent"] != 1 {
		t.Errorf("colTotals = %v, want raw values as labels", res.ColTotals)
	}
}

func TestPivotDecimalComma(t *testing.T) {
	res := Pivot2D(dimDoc("1,5", "2,5", "3.5"), CategoryPoints, "OBJTYPE", "DIM", PivotOptions{})
	if !res.NumericCols {
		t.Error("numericCols = false, want true for comma decimals")
	}
	if res.GrandTotal != 3 {
		t.Errorf("grandTotal = %d, want 3", res.GrandTotal)
	}
}

func TestPivotColumnOverflowBucket(t *testing.T) {
	var b strings.Builder
	n := 0
	for value, count := range map[string]int{"A": 3, "B": 2, "C": 1, "D": 1} {
		for i := 0; i < count; i++ {
			n++
			fmt.Fprintf(&b, ".PUNKT %d:\n..OBJTYPE Kum\n..SONE %s\n", n, value)
		}
	}
	res := Pivot2D(b.String(), CategoryPoints, "OBJTYPE", "SONE", PivotOptions{TopColumns: 2})

	wantCols := []string{"A", "B", OtherLabel}
	if !reflect.DeepEqual(res.Cols, wantCols) {
		t.Fatalf("cols = %v, want %v", res.Cols, wantCols)
	}
	if res.ColTotals[OtherLabel] != 2 {
		t.Errorf("overflow total = %d, want 2", res.ColTotals[OtherLabel])
	}
	if res.GrandTotal != 7 {
		t.Errorf("grandTotal = %d, want 7", res.GrandTotal)
	}
}

func TestPivotRowCapBucket(t *testing.T) {
	var b strings.Builder
	for i := 0; i < 5; i++ {
		fmt.Fprintf(&b, ".PUNKT %d:\n..OBJTYPE Type%d\n..SONE A\n", i+1, i+1)
	}
	res := Pivot2D(b.String(), CategoryPoints, "OBJTYPE", "SONE", PivotOptions{RowCap: 3})

	if len(res.Rows) != 4 || res.Rows[3] != OtherLabel {
		t.Fatalf("rows = %v, want 3 rows plus overflow", res.Rows)
	}
	if res.RowTotals[OtherLabel] != 2 {
		t.Errorf("overflow row total = %d, want 2", res.RowTotals[OtherLabel])
	}
}

func TestPivotZeroOccurrences(t *testing.T) {
	res := Pivot2D(sampleDoc, CategoryPoints, "OBJTYPE", "FINNES_IKKE", PivotOptions{})
	if res.GrandTotal != 0 {
		t.Errorf("grandTotal = %d, want 0", res.GrandTotal)
	}
	if len(res.Cols) != 0 {
		t.Errorf("cols = %v, want empty", res.Cols)
	}
}

func TestPivotEmptySecondaryValueSentinel(t *testing.T) {
	doc := ".PUNKT 1:\n..OBJTYPE Kum\n..MERKNAD\n"
	res := Pivot2D(doc, CategoryPoints, "OBJTYPE", "MERKNAD", PivotOptions{})
	if res.Cells["Kum"][EmptyValueLabel] != 1 {
		t.Errorf("cells = %v, want empty-value sentinel column", res.Cells)
	}
}

func TestPivotSeededSamplingDeterministic(t *testing.T) {
	dims := make([]string, 200)
	for i := range dims {
		dims[i] = fmt.Sprint(i)
	}
	doc := dimDoc(dims...)
	opts := PivotOptions{BinningMode: BinQuantile, QuantileSampleSize: 20, Seed: 42}

	a := Pivot2D(doc, CategoryPoints, "OBJTYPE", "DIM", opts)
	b := Pivot2D(doc, CategoryPoints, "OBJTYPE", "DIM", opts)
	if !reflect.DeepEqual(a, b) {
		t.Error("identical seeds produced different pivots")
	}
}
