package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mkleiva/sosivask/internal/core"
	"github.com/mkleiva/sosivask/internal/sosi"
)

// handleListDatasets returns metadata for every resident dataset.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.ListDatasets())
}

// handleGetDataset returns metadata for one dataset.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")

	ds, err := s.service.GetDataset(datasetID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, ds.Detail())
}

// handleDeleteDataset evicts a dataset from the registry.
func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")

	if err := s.service.DeleteDataset(datasetID); err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// handlePreview returns the first lines of the decoded document. The
// lines query parameter overrides the configured default.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")
	lines := parseIntParam(r, "lines", 0)

	preview, err := s.service.Preview(datasetID, lines)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}

// handleAnalysis returns the per-category statistics for a dataset.
func (s *Server) handleAnalysis(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")

	analysis, err := s.service.Analysis(datasetID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, analysis)
}

type frequencyResponse struct {
	DatasetID string            `json:"datasetId"`
	Category  sosi.Category     `json:"category"`
	Field     string            `json:"field"`
	Values    []sosi.ValueCount `json:"values"`
}

// handleFrequency tallies one field's values across the features of one
// category. Category and field come from query parameters.
func (s *Server) handleFrequency(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")

	catName := r.URL.Query().Get("category")
	cat, ok := sosi.ParseCategory(catName)
	if !ok {
		s.respondError(w, r, fmt.Errorf("unknown category %q", catName), http.StatusBadRequest)
		return
	}

	field := strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("field")))
	if field == "" {
		writeError(w, http.StatusBadRequest, "missing field parameter")
		return
	}

	values, err := s.service.FieldFrequency(datasetID, cat, field)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, frequencyResponse{
		DatasetID: datasetID,
		Category:  cat,
		Field:     field,
		Values:    values,
	})
}

type pivotRequest struct {
	Category  string            `json:"category"`
	Primary   string            `json:"primary"`
	Secondary string            `json:"secondary"`
	Options   sosi.PivotOptions `json:"options"`
}

// handlePivot computes a two-field crosstab for a dataset. Unset
// options fall back to the configured defaults.
func (s *Server) handlePivot(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")

	var req pivotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
		return
	}

	cat, ok := sosi.ParseCategory(req.Category)
	if !ok {
		s.respondError(w, r, fmt.Errorf("unknown category %q", req.Category), http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Primary) == "" || strings.TrimSpace(req.Secondary) == "" {
		writeError(w, http.StatusBadRequest, "primary and secondary fields are required")
		return
	}

	result, err := s.service.Pivot(datasetID, cat, req.Primary, req.Secondary, req.Options)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrDatasetNotFound) {
			status = http.StatusNotFound
		}
		s.respondError(w, r, err, status)
		return
	}

	writeJSON(w, http.StatusOK, result)
}
