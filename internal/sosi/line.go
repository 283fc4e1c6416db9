package sosi

import (
	"sort"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"
)

// markerByte is the nesting marker that opens every structural line.
// The marker-run length encodes depth: one marker starts a feature,
// two or more mark an attribute at that nesting level.
const markerByte = '.'

// commentByte opens a comment line. Comment lines carry no data and
// survive rewriting untouched.
const commentByte = '!'

// Reserved attribute keys of the municipal dialect.
const (
	// KeyObjType names the object type of a feature block. Only the
	// first occurrence at depth 2 is authoritative.
	KeyObjType = "OBJTYPE"

	// KeyPointTheme and KeyLineTheme are the depth-3 theme codes,
	// each bound to one category. A theme key observed under the
	// other category is an anomaly, not an error.
	KeyPointTheme = "P_TEMA"
	KeyLineTheme  = "L_TEMA"

	// GroupPointData and GroupLineData are the depth-2 group keys the
	// theme codes nest under.
	GroupPointData = "PUNKTDATA"
	GroupLineData  = "LEDNINGSDATA"
)

// Category is the two-way domain classification of a feature block,
// derived from its section identifier.
type Category uint8

const (
	CategoryUnknown Category = iota
	CategoryPoints
	CategoryLines
)

// String returns the category name used in JSON payloads and selection
// files.
func (c Category) String() string {
	switch c {
	case CategoryPoints:
		return "points"
	case CategoryLines:
		return "lines"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler so categories can key
// JSON maps.
func (c Category) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Category) UnmarshalText(text []byte) error {
	parsed, ok := ParseCategory(string(text))
	if !ok {
		return &UnknownCategoryError{Name: string(text)}
	}
	*c = parsed
	return nil
}

// ParseCategory maps a category name to its value. The match is
// case-insensitive.
func ParseCategory(name string) (Category, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "points":
		return CategoryPoints, true
	case "lines":
		return CategoryLines, true
	case "unknown":
		return CategoryUnknown, true
	}
	return CategoryUnknown, false
}

// UnknownCategoryError reports a category name outside the fixed set.
type UnknownCategoryError struct {
	Name string
}

func (e *UnknownCategoryError) Error() string {
	return "unknown category " + strconv.Quote(e.Name)
}

// sectionCategories is the fixed section-to-category table. Sections
// absent from the table classify as unknown and pass through every
// operation untouched. Text features carry point geometry, so TEKST
// counts as points.
var sectionCategories = map[string]Category{
	"PUNKT": CategoryPoints,
	"TEKST": CategoryPoints,
	"KURVE": CategoryLines,
}

// themeKeys binds each theme code to the only category it is valid
// under.
var themeKeys = map[Category]string{
	CategoryPoints: KeyPointTheme,
	CategoryLines:  KeyLineTheme,
}

// mandatoryFields are the keys the rewriter must never remove; dropping
// them would leave surviving blocks structurally invalid.
var mandatoryFields = map[string]bool{
	KeyObjType:     true,
	GroupPointData: true,
	GroupLineData:  true,
}

// IsMandatoryField reports whether key must survive any selection. The
// key is expected in its normalized (uppercase) form.
func IsMandatoryField(key string) bool {
	return mandatoryFields[key]
}

// MandatoryFields returns the keys that always survive filtering, for
// callers that render them as locked.
func MandatoryFields() []string {
	keys := make([]string, 0, len(mandatoryFields))
	for k := range mandatoryFields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ThemeKey returns the theme-code key bound to a category, if any.
func ThemeKey(c Category) (string, bool) {
	key, ok := themeKeys[c]
	return key, ok
}

// MarkerRun returns the length of the leading marker run, zero for
// lines that do not start with the marker.
func MarkerRun(line string) int {
	n := 0
	for n < len(line) && line[n] == markerByte {
		n++
	}
	return n
}

// IsFeatureStart reports whether line opens a feature block: a marker
// run of exactly one followed immediately by a letter. Attribute lines
// (run of two or more) and bare markers do not qualify.
func IsFeatureStart(line string) bool {
	if len(line) < 2 || line[0] != markerByte || line[1] == markerByte {
		return false
	}
	r, _ := utf8.DecodeRuneInString(line[1:])
	return unicode.IsLetter(r)
}

// IsComment reports whether line is a comment.
func IsComment(line string) bool {
	return len(line) > 0 && line[0] == commentByte
}

// SectionOf extracts the uppercased section identifier from a feature
// start line. The second return is false for any other line shape.
func SectionOf(line string) (string, bool) {
	if !IsFeatureStart(line) {
		return "", false
	}
	rest := line[1:]
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		rest = rest[:i]
	}
	rest = strings.TrimSuffix(rest, ":")
	if rest == "" {
		return "", false
	}
	return strings.ToUpper(rest), true
}

// CategoryOf resolves a section identifier against the fixed lookup
// table.
func CategoryOf(section string) Category {
	return sectionCategories[section]
}

// AttributeKey extracts the normalized key of an attribute line (marker
// run of two or more). The second return is false for any other line
// shape, including feature starts, geometry lines, and comments.
func AttributeKey(line string) (string, bool) {
	run := MarkerRun(line)
	if run < 2 {
		return "", false
	}
	fields := strings.Fields(line[run:])
	if len(fields) == 0 {
		return "", false
	}
	return strings.ToUpper(fields[0]), true
}

// AttributeValue returns the trimmed remainder after an attribute
// line's key. Group headers and cleared lines yield the empty string,
// as does any line that is not an attribute line.
func AttributeValue(line string) string {
	run := MarkerRun(line)
	if run < 2 {
		return ""
	}
	rest := strings.TrimSpace(line[run:])
	if i := strings.IndexAny(rest, " \t"); i >= 0 {
		return strings.TrimSpace(rest[i+1:])
	}
	return ""
}

// attributeKeyRaw returns the key token exactly as written, without
// case normalization. The rewriter uses it to clear values while
// leaving the author's casing alone.
func attributeKeyRaw(line string) string {
	run := MarkerRun(line)
	if run < 2 {
		return ""
	}
	fields := strings.Fields(line[run:])
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
