package web

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/mkleiva/sosivask/internal/core"
	"github.com/mkleiva/sosivask/internal/sosi"
	"github.com/mkleiva/sosivask/internal/store"
)

// selectionStatus maps store errors to HTTP status codes.
func selectionStatus(err error) int {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrInvalidName):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) handleListSelections(w http.ResponseWriter, r *http.Request) {
	selections, err := s.service.ListSelections(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	if selections == nil {
		selections = []store.StoredSelection{}
	}
	writeJSON(w, http.StatusOK, selections)
}

func (s *Server) handleGetSelection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	stored, err := s.service.GetSelection(r.Context(), name)
	if err != nil {
		s.respondError(w, r, err, selectionStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleSaveSelection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	body, err := core.ReadAllLimit(r.Body, maxJSONBody)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	sel, err := sosi.ParseSelection(body)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	stored, err := s.service.SaveSelection(r.Context(), name, sel)
	if err != nil {
		s.respondError(w, r, err, selectionStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, stored)
}

func (s *Server) handleDeleteSelection(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.service.DeleteSelection(r.Context(), name); err != nil {
		s.respondError(w, r, err, selectionStatus(err))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
