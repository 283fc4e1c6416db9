package sosi

// CategoryStats aggregates the counters of one category. Fields counts
// every occurrence of every attribute key, not unique keys per block,
// so repeated keys are visible in the totals. Themes is populated only
// for the two real categories; the unknown bucket has no theme key
// bound to it.
type CategoryStats struct {
	Features int            `json:"features"`
	ObjTypes map[string]int `json:"objTypes"`
	Fields   map[string]int `json:"fields"`
	Themes   map[string]int `json:"themes,omitempty"`
}

// AnalysisResult is the outcome of one full aggregation pass:
// per-category statistics, an unknown bucket for unclassifiable
// blocks (the header and end marker land there by construction), and
// raw per-section feature counts.
type AnalysisResult struct {
	Points   CategoryStats  `json:"points"`
	Lines    CategoryStats  `json:"lines"`
	Unknown  CategoryStats  `json:"unknown"`
	Sections map[string]int `json:"sections"`
}

// Stats returns the mutable bucket for a category.
func (r *AnalysisResult) Stats(c Category) *CategoryStats {
	switch c {
	case CategoryPoints:
		return &r.Points
	case CategoryLines:
		return &r.Lines
	default:
		return &r.Unknown
	}
}

func newAnalysisResult() *AnalysisResult {
	return &AnalysisResult{
		Points: CategoryStats{
			ObjTypes: make(map[string]int),
			Fields:   make(map[string]int),
			Themes:   make(map[string]int),
		},
		Lines: CategoryStats{
			ObjTypes: make(map[string]int),
			Fields:   make(map[string]int),
			Themes:   make(map[string]int),
		},
		Unknown: CategoryStats{
			ObjTypes: make(map[string]int),
			Fields:   make(map[string]int),
		},
		Sections: make(map[string]int),
	}
}

// Analyze runs a single forward pass over the document and tallies
// features, object types, attribute keys, and theme codes per
// category. Object type and theme code follow first-occurrence-wins
// within a block; attribute keys count every occurrence. A theme key
// observed under the category it is not bound to stays out of the
// theme tally but remains visible in the key counts, which is what
// lets callers surface it as an anomaly. Analyze is deterministic and
// never fails.
func Analyze(text string) *AnalysisResult {
	res := newAnalysisResult()

	var (
		cur       *CategoryStats
		themeKey  string
		haveObj   bool
		haveTheme bool
		inBlock   bool
	)

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
			section, _ := SectionOf(line)
			cat := CategoryOf(section)
			cur = res.Stats(cat)
			cur.Features++
			res.Sections[section]++
			themeKey, _ = ThemeKey(cat)
			haveObj, haveTheme = false, false
			inBlock = true
			continue
		}
		if !inBlock {
			continue
		}
		key, ok := AttributeKey(line)
		if !ok {
			continue
		}
		cur.Fields[key]++

		switch {
		case key == KeyObjType && MarkerRun(line) == 2 && !haveObj:
			haveObj = true
			if v := AttributeValue(line); v != "" {
				cur.ObjTypes[v]++
			}
		case key == themeKey && MarkerRun(line) == 3 && !haveTheme:
			haveTheme = true
			if v := AttributeValue(line); v != "" {
				cur.Themes[v]++
			}
		}
	}
	return res
}
