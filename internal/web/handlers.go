// Package web provides HTTP handlers for the SOSI cleaning service.
// This file contains the health endpoint and helpers shared across
// handlers.
package web

import (
	"net/http"
	"strconv"

	"github.com/mkleiva/sosivask/internal/core"
)

const (
	// multipartMemory is how much of a parsed multipart form is held in
	// memory before spilling to disk.
	multipartMemory = 32 << 20

	// multipartOverhead covers boundaries and part headers when capping
	// the request body relative to the file size limit.
	multipartOverhead = 64 << 10

	// maxJSONBody caps request bodies on the JSON endpoints.
	maxJSONBody = 1 << 20
)

type healthResponse struct {
	Status   string                   `json:"status"`
	Datasets int                      `json:"datasets"`
	Ingest   core.IngestLimiterStatus `json:"ingest"`
}

// handleHealth reports liveness plus a coarse capacity snapshot.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		Datasets: len(s.service.ListDatasets()),
		Ingest:   s.service.LimiterStatus(),
	})
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 1 {
		return defaultVal
	}
	return i
}
