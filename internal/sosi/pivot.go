package sosi

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Axis labels reserved by the frequency and pivot operations. Empty
// attribute values tally under EmptyValueLabel; values beyond the
// configured axis caps collapse into OtherLabel.
const (
	EmptyValueLabel = "(tom)"
	OtherLabel      = "Andre"
)

// Defaults for PivotOptions.
const (
	DefaultTopColumns         = 25
	DefaultRowCap             = 200
	DefaultNumericBins        = 10
	DefaultQuantileSampleSize = 50000
)

// ValueCount is one entry of a frequency table.
type ValueCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// sortValueCounts orders entries by count descending, then value
// ascending, which fixes the ordering for equal counts.
func sortValueCounts(vc []ValueCount) {
	sort.Slice(vc, func(i, j int) bool {
		if vc[i].Count == vc[j].Count {
			return vc[i].Value < vc[j].Value
		}
		return vc[i].Count > vc[j].Count
	})
}

// BinningMode selects how numeric secondary values are grouped into
// column bins.
type BinningMode uint8

const (
	BinEqualWidth BinningMode = iota
	BinQuantile
)

// String returns the mode name used in requests and config files.
func (m BinningMode) String() string {
	if m == BinQuantile {
		return "quantile"
	}
	return "equal-width"
}

// MarshalText implements encoding.TextMarshaler.
func (m BinningMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *BinningMode) UnmarshalText(text []byte) error {
	parsed, ok := ParseBinningMode(string(text))
	if !ok {
		return fmt.Errorf("unknown binning mode %q", string(text))
	}
	*m = parsed
	return nil
}

// ParseBinningMode resolves a mode name; the empty string selects the
// default.
func ParseBinningMode(name string) (BinningMode, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "equal-width", "equalwidth":
		return BinEqualWidth, true
	case "quantile":
		return BinQuantile, true
	}
	return BinEqualWidth, false
}

// PivotOptions tune the crosstab computation. The zero value selects
// all defaults; nonpositive fields fall back to their defaults as
// well. Seed fixes the reservoir sampler for reproducible runs; zero
// seeds from the clock.
type PivotOptions struct {
	TopColumns         int         `json:"topColumns"`
	RowCap             int         `json:"rowCap"`
	NumericBins        int         `json:"numericBins"`
	BinningMode        BinningMode `json:"binningMode"`
	QuantileSampleSize int         `json:"quantileSampleSize"`
	Seed               int64       `json:"seed,omitempty"`
}

// DefaultPivotOptions returns the standard option set.
func DefaultPivotOptions() PivotOptions {
	return PivotOptions{
		TopColumns:         DefaultTopColumns,
		RowCap:             DefaultRowCap,
		NumericBins:        DefaultNumericBins,
		BinningMode:        BinEqualWidth,
		QuantileSampleSize: DefaultQuantileSampleSize,
	}
}

func (o PivotOptions) withDefaults() PivotOptions {
	if o.TopColumns <= 0 {
		o.TopColumns = DefaultTopColumns
	}
	if o.RowCap <= 0 {
		o.RowCap = DefaultRowCap
	}
	if o.NumericBins <= 0 {
		o.NumericBins = DefaultNumericBins
	}
	if o.QuantileSampleSize <= 0 {
		o.QuantileSampleSize = DefaultQuantileSampleSize
	}
	return o
}

// PivotResult is a sparse crosstab. Rows and Cols list the retained
// axis labels in display order (frequency order, any overflow bucket
// last); Cells maps row label to column label to count, materializing
// only nonzero cells. Exploded reports that at least one contributing
// block was multi-valued in one of the fields, in which case totals
// may exceed the block count. NumericCols reports that the secondary
// field was treated as numeric and its labels are bin ranges.
type PivotResult struct {
	Rows        []string                  `json:"rows"`
	Cols        []string                  `json:"cols"`
	Cells       map[string]map[string]int `json:"cells"`
	RowTotals   map[string]int            `json:"rowTotals"`
	ColTotals   map[string]int            `json:"colTotals"`
	GrandTotal  int                       `json:"grandTotal"`
	Exploded    bool                      `json:"exploded"`
	NumericCols bool                      `json:"numericCols"`
}

// fieldExtractor collects the occurrences of one requested field
// within the current block. The object-type key is special: only the
// first occurrence at depth 2 counts, so it never produces more than
// one value per block.
type fieldExtractor struct {
	key     string
	objType bool
	values  []string
	taken   bool
}

func newFieldExtractor(key string) *fieldExtractor {
	key = strings.ToUpper(strings.TrimSpace(key))
	return &fieldExtractor{key: key, objType: key == KeyObjType}
}

func (e *fieldExtractor) reset() {
	e.values = e.values[:0]
	e.taken = false
}

func (e *fieldExtractor) observe(key string, run int, line string) {
	if e.objType {
		if key != KeyObjType || run != 2 || e.taken {
			return
		}
		e.taken = true
		e.values = append(e.values, AttributeValue(line))
		return
	}
	if key == e.key {
		e.values = append(e.values, AttributeValue(line))
	}
}

// forEachBlockValues streams the document once and invokes fn after
// each feature block of the requested category, with the extractors
// holding that block's values. Peak memory stays proportional to the
// largest single block.
func forEachBlockValues(text string, cat Category, exts []*fieldExtractor, fn func()) {
	inTarget := false
	flush := func() {
		if inTarget {
			fn()
		}
		for _, e := range exts {
			e.reset()
		}
	}

	sc := lineScanner{text: text}
	for {
		line, ok := sc.Next()
		if !ok {
			break
		}
		if line == "" {
			continue
		}
		if IsFeatureStart(line) {
			flush()
			section, _ := SectionOf(line)
			inTarget = CategoryOf(section) == cat
			continue
		}
		if !inTarget {
			continue
		}
		key, ok := AttributeKey(line)
		if !ok {
			continue
		}
		run := MarkerRun(line)
		for _, e := range exts {
			e.observe(key, run, line)
		}
	}
	flush()
}

// labelFor normalizes an observed value to its axis label.
func labelFor(v string) string {
	if v == "" {
		return EmptyValueLabel
	}
	return v
}

// FieldFrequency tallies how often each value of key occurs across
// the feature blocks of one category, counting every occurrence.
// Empty values tally under EmptyValueLabel. The result is ordered by
// count descending, then value ascending; a key with no occurrences
// yields an empty list.
func FieldFrequency(text string, cat Category, key string) []ValueCount {
	ext := newFieldExtractor(key)
	counts := make(map[string]int)
	forEachBlockValues(text, cat, []*fieldExtractor{ext}, func() {
		for _, v := range ext.values {
			counts[labelFor(v)]++
		}
	})

	out := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		out = append(out, ValueCount{Value: v, Count: n})
	}
	sortValueCounts(out)
	return out
}

// parseNumber parses a value as a float, accepting either a decimal
// point or the decimal comma the domain's exports favor.
func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.Count(s, ",") == 1 && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsInf(f, 0) || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// numericProbe accumulates the numeric state of the secondary field
// during the first pass: whether every non-empty value parses as a
// number, the exact global min and max, and a uniform reservoir
// sample for quantile cut points.
type numericProbe struct {
	allNumeric bool
	seen       int
	min, max   float64
	sample     []float64
	sampleCap  int
	rng        *rand.Rand
}

func newNumericProbe(sampleCap int, seed int64) *numericProbe {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &numericProbe{
		allNumeric: true,
		sampleCap:  sampleCap,
		rng:        rand.New(rand.NewSource(seed)),
	}
}

func (p *numericProbe) observe(v string) {
	if !p.allNumeric || v == "" {
		return
	}
	f, ok := parseNumber(v)
	if !ok {
		p.allNumeric = false
		p.sample = nil
		return
	}
	if p.seen == 0 {
		p.min, p.max = f, f
	} else {
		if f < p.min {
			p.min = f
		}
		if f > p.max {
			p.max = f
		}
	}
	p.seen++
	if len(p.sample) < p.sampleCap {
		p.sample = append(p.sample, f)
		return
	}
	if j := p.rng.Intn(p.seen); j < p.sampleCap {
		p.sample[j] = f
	}
}

// numeric reports whether binning applies: every non-empty value
// parsed, and at least one was seen.
func (p *numericProbe) numeric() bool {
	return p.allNumeric && p.seen > 0
}

// binner maps numeric values to labeled intervals. Edges has one more
// entry than labels; every interval is half-open except the last,
// which is closed so the maximum lands in a bin.
type binner struct {
	edges  []float64
	labels []string
}

func singleValueBinner(v float64) *binner {
	return &binner{edges: []float64{v, v}, labels: []string{formatBinEdge(v)}}
}

// equalWidthBins splits [min,max] into n intervals of equal width. A
// degenerate range yields exactly one bin.
func equalWidthBins(min, max float64, n int) *binner {
	if min == max || n <= 1 {
		if min == max {
			return singleValueBinner(min)
		}
		n = 1
	}
	edges := make([]float64, n+1)
	width := (max - min) / float64(n)
	for i := 0; i <= n; i++ {
		edges[i] = min + width*float64(i)
	}
	edges[n] = max
	return &binner{edges: edges, labels: makeBinLabels(edges)}
}

// quantileBins derives n+1 cut points from a sorted sample, one per
// quantile step. Duplicate cut points from skewed samples collapse,
// so the bin count can come out lower than requested.
func quantileBins(sample []float64, n int) *binner {
	sorted := make([]float64, len(sample))
	copy(sorted, sample)
	sort.Float64s(sorted)

	cuts := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		c := quantile(sorted, float64(i)/float64(n))
		if len(cuts) == 0 || c != cuts[len(cuts)-1] {
			cuts = append(cuts, c)
		}
	}
	if len(cuts) < 2 {
		return singleValueBinner(cuts[0])
	}
	return &binner{edges: cuts, labels: makeBinLabels(cuts)}
}

// quantile returns the q-quantile of a sorted slice using linear
// interpolation between the two nearest ranks.
func quantile(sorted []float64, q float64) float64 {
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	frac := pos - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

// makeBinLabels renders "lo - hi" range labels. Labels use six
// significant digits; if rounding makes two labels collide, all
// labels are rebuilt at full precision so bins stay distinguishable.
func makeBinLabels(edges []float64) []string {
	labels := renderBinLabels(edges, 6)
	seen := make(map[string]bool, len(labels))
	for _, l := range labels {
		if seen[l] {
			return renderBinLabels(edges, -1)
		}
		seen[l] = true
	}
	return labels
}

func renderBinLabels(edges []float64, prec int) []string {
	labels := make([]string, len(edges)-1)
	for i := range labels {
		labels[i] = formatBinEdgePrec(edges[i], prec) + " - " + formatBinEdgePrec(edges[i+1], prec)
	}
	return labels
}

// formatBinEdge renders one edge with the domain's decimal comma.
func formatBinEdge(v float64) string {
	return formatBinEdgePrec(v, 6)
}

func formatBinEdgePrec(v float64, prec int) string {
	return strings.ReplaceAll(strconv.FormatFloat(v, 'g', prec, 64), ".", ",")
}

// assign places a value in its bin by linear scan. Values outside the
// edge range (possible in quantile mode, where edges come from a
// sample) clamp to the outer bins.
func (b *binner) assign(f float64) string {
	last := len(b.labels) - 1
	for i := 0; i < last; i++ {
		if f >= b.edges[i] && f < b.edges[i+1] {
			return b.labels[i]
		}
	}
	if f >= b.edges[last] && f <= b.edges[last+1] {
		return b.labels[last]
	}
	if f < b.edges[0] {
		return b.labels[0]
	}
	return b.labels[last]
}

// topLabels picks the retained labels of one axis: the top max entries
// by count descending then label ascending, plus an overflow flag
// when anything fell outside.
func topLabels(counts map[string]int, max int) (ordered []string, keep map[string]bool, overflow bool) {
	vc := make([]ValueCount, 0, len(counts))
	for v, n := range counts {
		vc = append(vc, ValueCount{Value: v, Count: n})
	}
	sortValueCounts(vc)

	if len(vc) > max {
		overflow = true
		vc = vc[:max]
	}
	ordered = make([]string, len(vc))
	keep = make(map[string]bool, len(vc))
	for i, e := range vc {
		ordered[i] = e.Value
		keep[e.Value] = true
	}
	return ordered, keep, overflow
}

// Pivot2D computes a two-field crosstab over the feature blocks of
// one category in two streaming passes.
//
// The first pass tallies each field's unconditioned frequency,
// detects whether the secondary field is numeric (every non-empty
// value must parse, with decimal comma or point), and accumulates the
// numeric state for bin edges. The second pass walks the document
// again and increments one cell per (primary x secondary) value pair
// a block produces; a multi-valued field therefore contributes its
// Cartesian product, flagged as Exploded. Blocks missing either field
// contribute no pairs. Labels beyond the axis caps collapse into the
// overflow bucket appended to that axis.
//
// Requesting fields without occurrences yields an empty result with a
// zero grand total rather than an error.
func Pivot2D(text string, cat Category, primaryKey, secondaryKey string, opts PivotOptions) *PivotResult {
	opts = opts.withDefaults()

	pExt := newFieldExtractor(primaryKey)
	sExt := newFieldExtractor(secondaryKey)
	exts := []*fieldExtractor{pExt, sExt}

	pCounts := make(map[string]int)
	sCounts := make(map[string]int)
	probe := newNumericProbe(opts.QuantileSampleSize, opts.Seed)
	exploded := false

	forEachBlockValues(text, cat, exts, func() {
		for _, v := range pExt.values {
			pCounts[labelFor(v)]++
		}
		for _, v := range sExt.values {
			sCounts[labelFor(v)]++
			probe.observe(v)
		}
		if len(pExt.values) > 0 && len(sExt.values) > 0 &&
			(len(pExt.values) > 1 || len(sExt.values) > 1) {
			exploded = true
		}
	})

	// Bin the secondary axis when numeric, then recompute its
	// frequency over bin labels so the column cap applies to bins,
	// not raw values.
	numeric := probe.numeric()
	var bins *binner
	colCounts := sCounts
	if numeric {
		if opts.BinningMode == BinQuantile {
			bins = quantileBins(probe.sample, opts.NumericBins)
		} else {
			bins = equalWidthBins(probe.min, probe.max, opts.NumericBins)
		}
		colCounts = make(map[string]int, len(bins.labels)+1)
		for v, n := range sCounts {
			colCounts[binLabel(v, bins)] += n
		}
	}

	rows, keepRows, rowOverflow := topLabels(pCounts, opts.RowCap)
	cols, keepCols, colOverflow := topLabels(colCounts, opts.TopColumns)
	if rowOverflow {
		rows = append(rows, OtherLabel)
	}
	if colOverflow {
		cols = append(cols, OtherLabel)
	}

	res := &PivotResult{
		Rows:        rows,
		Cols:        cols,
		Cells:       make(map[string]map[string]int),
		RowTotals:   make(map[string]int, len(rows)),
		ColTotals:   make(map[string]int, len(cols)),
		Exploded:    exploded,
		NumericCols: numeric,
	}
	for _, r := range rows {
		res.RowTotals[r] = 0
	}
	for _, c := range cols {
		res.ColTotals[c] = 0
	}

	rowLabel := func(v string) string {
		l := labelFor(v)
		if !keepRows[l] {
			return OtherLabel
		}
		return l
	}
	colLabel := func(v string) string {
		var l string
		if numeric {
			l = binLabel(v, bins)
		} else {
			l = labelFor(v)
		}
		if !keepCols[l] {
			return OtherLabel
		}
		return l
	}

	forEachBlockValues(text, cat, exts, func() {
		if len(pExt.values) == 0 || len(sExt.values) == 0 {
			return
		}
		for _, pv := range pExt.values {
			r := rowLabel(pv)
			for _, sv := range sExt.values {
				c := colLabel(sv)
				cells := res.Cells[r]
				if cells == nil {
					cells = make(map[string]int)
					res.Cells[r] = cells
				}
				cells[c]++
				res.RowTotals[r]++
				res.ColTotals[c]++
				res.GrandTotal++
			}
		}
	})
	return res
}

// binLabel maps one raw secondary value to its bin label; empty
// values keep the empty-value label and never enter a bin.
func binLabel(v string, bins *binner) string {
	if v == "" {
		return EmptyValueLabel
	}
	if f, ok := parseNumber(v); ok {
		return bins.assign(f)
	}
	return labelFor(v)
}
