package sosi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Selection is the declarative keep-list driving Clean: per category,
// which object types survive and which attribute fields survive. An
// empty or absent list keeps everything in that dimension, so the
// zero value filters nothing; callers materialize explicit lists from
// analysis output when they want actual narrowing.
//
// The wire form mirrors the struct directly:
//
//	{
//	  "objTypesByCategory": {"points": ["Kum"], "lines": []},
//	  "fieldsByCategory":   {"points": ["OBJTYPE", "P_TEMA"]}
//	}
type Selection struct {
	ObjTypesByCategory map[Category][]string `json:"objTypesByCategory"`
	FieldsByCategory   map[Category][]string `json:"fieldsByCategory"`
}

// ParseSelection decodes the persisted selection format. Unknown
// top-level keys are rejected so a malformed file fails loudly
// instead of silently keeping everything.
func ParseSelection(data []byte) (Selection, error) {
	var sel Selection
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&sel); err != nil {
		return Selection{}, fmt.Errorf("parse selection: %w", err)
	}
	return sel, nil
}

// Empty reports whether the selection constrains nothing.
func (s Selection) Empty() bool {
	for _, v := range s.ObjTypesByCategory {
		if len(v) > 0 {
			return false
		}
	}
	for _, v := range s.FieldsByCategory {
		if len(v) > 0 {
			return false
		}
	}
	return true
}

// selectionIndex is the lookup form of a Selection. A nil set means
// keep all. Object types match case-sensitively, field keys are
// normalized to uppercase.
type selectionIndex struct {
	objTypes map[Category]map[string]bool
	fields   map[Category]map[string]bool
}

func (s Selection) index() selectionIndex {
	idx := selectionIndex{
		objTypes: make(map[Category]map[string]bool, len(s.ObjTypesByCategory)),
		fields:   make(map[Category]map[string]bool, len(s.FieldsByCategory)),
	}
	for cat, list := range s.ObjTypesByCategory {
		if len(list) == 0 {
			continue
		}
		set := make(map[string]bool, len(list))
		for _, v := range list {
			set[v] = true
		}
		idx.objTypes[cat] = set
	}
	for cat, list := range s.FieldsByCategory {
		if len(list) == 0 {
			continue
		}
		set := make(map[string]bool, len(list))
		for _, v := range list {
			set[strings.ToUpper(strings.TrimSpace(v))] = true
		}
		idx.fields[cat] = set
	}
	return idx
}

func (idx selectionIndex) keepObjType(cat Category, objType string) bool {
	set := idx.objTypes[cat]
	return set == nil || set[objType]
}

func (idx selectionIndex) keepField(cat Category, key string) bool {
	set := idx.fields[cat]
	return set == nil || set[key]
}
