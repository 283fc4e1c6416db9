package core

import (
	"context"

	"github.com/mkleiva/sosivask/internal/sosi"
	"github.com/mkleiva/sosivask/internal/store"
)

// Selection persistence passes through to the configured store so
// transports never touch it directly.

// SaveSelection stores a named selection, replacing any previous one.
func (s *Service) SaveSelection(ctx context.Context, name string, sel sosi.Selection) (store.StoredSelection, error) {
	return s.selections.Put(ctx, name, sel)
}

// GetSelection returns a named selection.
func (s *Service) GetSelection(ctx context.Context, name string) (store.StoredSelection, error) {
	return s.selections.Get(ctx, name)
}

// DeleteSelection removes a named selection.
func (s *Service) DeleteSelection(ctx context.Context, name string) error {
	return s.selections.Delete(ctx, name)
}

// ListSelections returns all stored selections ordered by name.
func (s *Service) ListSelections(ctx context.Context) ([]store.StoredSelection, error) {
	return s.selections.List(ctx)
}
