package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/mkleiva/sosivask/internal/core"
)

// handleIngest accepts a multipart upload and starts an asynchronous
// ingest, answering 202 with the ingest ID before decoding begins.
// Clients follow progress via the events or progress endpoints.
func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Ingest.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize+multipartOverhead)

	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		s.respondError(w, r, fmt.Errorf("file too large or invalid form: %w", err), http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, errors.New("no file provided"), http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := core.ReadAllLimit(file, maxSize)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, core.ErrFileTooLarge) {
			status = http.StatusRequestEntityTooLarge
		}
		s.respondError(w, r, err, status)
		return
	}

	id, err := s.service.StartIngest(r.Context(), header.Filename, data)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, core.ErrTooManyIngests) {
			status = http.StatusServiceUnavailable
		}
		s.respondError(w, r, err, status)
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"ingestId": id})
}

// handleIngestProgress returns the current progress snapshot.
func (s *Server) handleIngestProgress(w http.ResponseWriter, r *http.Request) {
	ingestID := chi.URLParam(r, "ingestID")

	progress, err := s.service.GetIngestProgress(ingestID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, progress)
}

// handleIngestEvents streams ingest progress via Server-Sent Events.
// Supports resumption via the lastEventId query parameter after
// reconnection.
func (s *Server) handleIngestEvents(w http.ResponseWriter, r *http.Request) {
	ingestID := chi.URLParam(r, "ingestID")

	// The event ID is the progress percentage, so a reconnecting client
	// can skip events it already rendered.
	lastEventIDStr := r.URL.Query().Get("lastEventId")
	var lastEventID int
	if lastEventIDStr != "" {
		lastEventID, _ = strconv.Atoi(lastEventIDStr)
	}

	progressCh, err := s.service.SubscribeProgress(ingestID)
	if err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		s.respondError(w, r, errors.New("streaming not supported"), http.StatusInternalServerError)
		return
	}

	for {
		select {
		case progress, ok := <-progressCh:
			if !ok {
				// Channel closed - ingest finished one way or another.
				fmt.Fprintf(w, "event: complete\ndata: {}\n\n")
				flusher.Flush()
				return
			}

			// Skip already-delivered percentages on resumption, but
			// never a terminal snapshot: a failed ingest can end below
			// the last delivered percentage.
			currentPercent := progress.Percent()
			if lastEventIDStr != "" && currentPercent <= lastEventID && !progress.Phase.Terminal() {
				continue
			}

			data, _ := json.Marshal(progress)
			fmt.Fprintf(w, "id: %d\nevent: progress\ndata: %s\n\n", currentPercent, data)
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

// handleIngestResult blocks until the ingest finishes, then returns the
// final result.
func (s *Server) handleIngestResult(w http.ResponseWriter, r *http.Request) {
	ingestID := chi.URLParam(r, "ingestID")

	result, err := s.service.GetIngestResult(r.Context(), ingestID)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, core.ErrIngestNotFound) {
			status = http.StatusNotFound
		}
		s.respondError(w, r, err, status)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// handleCancelIngest cancels an in-progress ingest.
func (s *Server) handleCancelIngest(w http.ResponseWriter, r *http.Request) {
	ingestID := chi.URLParam(r, "ingestID")

	if err := s.service.CancelIngest(ingestID); err != nil {
		s.respondError(w, r, err, http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

// handleQueueStatus returns the current state of the ingest limiter.
// Used for monitoring and to check if the system can accept more
// uploads.
func (s *Server) handleQueueStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.service.LimiterStatus())
}
