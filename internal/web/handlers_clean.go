package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkleiva/sosivask/internal/core"
	"github.com/mkleiva/sosivask/internal/sosi"
	"github.com/mkleiva/sosivask/internal/store"
)

type cleanRequest struct {
	// Selection is an inline selection payload. SelectionName loads a
	// stored one instead; it wins when both are set.
	Selection     json.RawMessage `json:"selection,omitempty"`
	SelectionName string          `json:"selectionName,omitempty"`
	Mode          string          `json:"mode,omitempty"`
}

// handleClean rewrites a dataset per the requested selection and
// streams the result back as a download in the dataset's original
// character set.
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	datasetID := chi.URLParam(r, "datasetID")

	body, err := core.ReadAllLimit(r.Body, maxJSONBody)
	if err != nil {
		s.respondError(w, r, err, http.StatusBadRequest)
		return
	}

	var req cleanRequest
	if len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			s.respondError(w, r, fmt.Errorf("invalid request body: %w", err), http.StatusBadRequest)
			return
		}
	}

	mode, ok := sosi.ParseFieldMode(req.Mode)
	if !ok {
		s.respondError(w, r, fmt.Errorf("unknown field mode %q", req.Mode), http.StatusBadRequest)
		return
	}

	var sel sosi.Selection
	switch {
	case req.SelectionName != "":
		stored, err := s.service.GetSelection(r.Context(), req.SelectionName)
		if err != nil {
			status := http.StatusInternalServerError
			if errors.Is(err, store.ErrNotFound) {
				status = http.StatusNotFound
			} else if errors.Is(err, store.ErrInvalidName) {
				status = http.StatusBadRequest
			}
			s.respondError(w, r, err, status)
			return
		}
		sel = stored.Selection
	case len(req.Selection) > 0:
		sel, err = sosi.ParseSelection(req.Selection)
		if err != nil {
			s.respondError(w, r, err, http.StatusBadRequest)
			return
		}
	}

	res, err := s.service.CleanDataset(datasetID, sel, mode)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrDatasetNotFound) {
			status = http.StatusNotFound
		}
		s.respondError(w, r, err, status)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset="+charsetName(res.Encoding))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, res.FileName))
	w.Header().Set("Content-Length", strconv.Itoa(len(res.Data)))
	w.Write(res.Data)
}

// charsetName maps an encoding to its IANA charset label for the
// Content-Type header.
func charsetName(enc sosi.Encoding) string {
	switch enc {
	case sosi.EncodingWindows1252:
		return "windows-1252"
	case sosi.EncodingUTF8:
		return "utf-8"
	default:
		return "iso-8859-1"
	}
}
