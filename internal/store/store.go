// Package store persists named selections so cleaning profiles survive
// server restarts and can be shared between the web UI and the command
// line. Two implementations exist: an in-memory store for standalone
// runs and a PostgreSQL-backed store used when a database is
// configured.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/mkleiva/sosivask/internal/sosi"
)

// ErrNotFound is returned when no selection with the requested name
// exists.
var ErrNotFound = errors.New("selection not found")

// ErrInvalidName is returned for empty or oversized selection names.
var ErrInvalidName = errors.New("invalid selection name")

// maxNameLen bounds selection names; they end up in URLs and as a
// primary key.
const maxNameLen = 128

// StoredSelection is a named selection with its last modification time.
type StoredSelection struct {
	Name      string         `json:"name"`
	Selection sosi.Selection `json:"selection"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// SelectionStore is the persistence contract for named selections.
// Put creates or replaces; Get and Delete report ErrNotFound for
// missing names; List returns all selections ordered by name.
type SelectionStore interface {
	Get(ctx context.Context, name string) (StoredSelection, error)
	Put(ctx context.Context, name string, sel sosi.Selection) (StoredSelection, error)
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]StoredSelection, error)
}

func validateName(name string) error {
	if name == "" || len(name) > maxNameLen {
		return ErrInvalidName
	}
	return nil
}

// cloneSelection copies the selection's maps and slices so stored
// state never aliases caller state.
func cloneSelection(sel sosi.Selection) sosi.Selection {
	out := sosi.Selection{}
	if sel.ObjTypesByCategory != nil {
		out.ObjTypesByCategory = make(map[sosi.Category][]string, len(sel.ObjTypesByCategory))
		for cat, list := range sel.ObjTypesByCategory {
			out.ObjTypesByCategory[cat] = append([]string(nil), list...)
		}
	}
	if sel.FieldsByCategory != nil {
		out.FieldsByCategory = make(map[sosi.Category][]string, len(sel.FieldsByCategory))
		for cat, list := range sel.FieldsByCategory {
			out.FieldsByCategory[cat] = append([]string(nil), list...)
		}
	}
	return out
}
