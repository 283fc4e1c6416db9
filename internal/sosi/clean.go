package sosi

import (
	"fmt"
	"strings"
)

// FieldMode selects what happens to attribute lines whose key falls
// outside the keep-set.
type FieldMode uint8

const (
	// FieldModeRemove drops the line entirely.
	FieldModeRemove FieldMode = iota
	// FieldModeClear keeps the line but strips its value, so the
	// structure survives without the data.
	FieldModeClear
)

// String returns the mode name used in requests and on the command
// line.
func (m FieldMode) String() string {
	if m == FieldModeClear {
		return "clear-values"
	}
	return "remove-fields"
}

// MarshalText implements encoding.TextMarshaler.
func (m FieldMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *FieldMode) UnmarshalText(text []byte) error {
	parsed, ok := ParseFieldMode(string(text))
	if !ok {
		return fmt.Errorf("unknown field mode %q", string(text))
	}
	*m = parsed
	return nil
}

// ParseFieldMode resolves a mode name; the empty string selects the
// default.
func ParseFieldMode(name string) (FieldMode, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "remove-fields", "remove":
		return FieldModeRemove, true
	case "clear-values", "clear":
		return FieldModeClear, true
	}
	return FieldModeRemove, false
}

// Clean rewrites the document, keeping only the object types and
// fields the selection names.
//
// Blocks of unknown category, blocks whose object type cannot be
// determined, and lines outside any block pass through byte for byte;
// the header and end marker survive that way. A classified block is
// dropped whole when the selection's object-type list for its
// category is non-empty and does not name the block's type. Surviving
// blocks keep their feature-start, geometry, and comment lines
// verbatim, keep valueless group headers, keep every mandatory key,
// keep selected fields verbatim, and handle unselected fields
// according to mode. The output follows the input's newline
// convention, including the presence of a trailing line break.
func Clean(text string, sel Selection, mode FieldMode) string {
	nl := detectNewline(text)
	idx := sel.index()

	var out strings.Builder
	out.Grow(len(text))

	var (
		block    []string
		blockCat Category
		inBlock  bool
	)
	flush := func() {
		if inBlock {
			writeBlock(&out, block, blockCat, idx, mode, nl)
		}
		block = block[:0]
	}

	sc := lineScanner{text: text}
	for {
		line, ok := sc.Next()
		if !ok {
			break
		}
		if IsFeatureStart(line) {
			flush()
			section, _ := SectionOf(line)
			blockCat = CategoryOf(section)
			inBlock = true
			block = append(block, line)
			continue
		}
		if !inBlock {
			out.WriteString(line)
			out.WriteString(nl)
			continue
		}
		block = append(block, line)
	}
	flush()

	result := out.String()
	if !hasFinalNewline(text) {
		result = strings.TrimSuffix(result, nl)
	}
	return result
}

// writeBlock emits one feature block through the selection filter.
func writeBlock(out *strings.Builder, lines []string, cat Category, idx selectionIndex, mode FieldMode, nl string) {
	passThrough := func() {
		for _, line := range lines {
			out.WriteString(line)
			out.WriteString(nl)
		}
	}

	if cat == CategoryUnknown {
		passThrough()
		return
	}
	objType := blockObjType(lines)
	if objType == "" {
		// No determinable object type: do not guess, do not touch.
		passThrough()
		return
	}
	if !idx.keepObjType(cat, objType) {
		return
	}

	for _, line := range lines {
		key, ok := AttributeKey(line)
		if !ok {
			// Feature start, geometry, comments, anything
			// unrecognized.
			out.WriteString(line)
			out.WriteString(nl)
			continue
		}
		switch {
		case AttributeValue(line) == "":
			// Group headers establish nesting, not data.
		case IsMandatoryField(key):
		case idx.keepField(cat, key):
		case mode == FieldModeClear:
			out.WriteString(line[:MarkerRun(line)])
			out.WriteString(attributeKeyRaw(line))
			out.WriteString(nl)
			continue
		default:
			continue
		}
		out.WriteString(line)
		out.WriteString(nl)
	}
}

// blockObjType resolves a block's object type. The first OBJTYPE line
// at depth 2 is authoritative even when its value is empty, in which
// case the type stays undetermined.
func blockObjType(lines []string) string {
	for _, line := range lines {
		key, ok := AttributeKey(line)
		if !ok || key != KeyObjType || MarkerRun(line) != 2 {
			continue
		}
		return AttributeValue(line)
	}
	return ""
}
