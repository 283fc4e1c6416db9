package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mkleiva/sosivask/internal/logging"
	"github.com/mkleiva/sosivask/internal/sosi"
)

// processIngest runs the decode and analyze pipeline for one ingest.
// It owns the ingest's progress record and always leaves it in a
// terminal phase before closing Done.
func (s *Service) processIngest(ctx context.Context, ing *activeIngest, data []byte) {
	start := time.Now()
	logger := logging.WithFields(ctx, "ingest_id", ing.ID, "filename", ing.FileName)

	result := &IngestResult{
		IngestID: ing.ID,
		FileName: ing.FileName,
		Bytes:    int64(len(data)),
	}

	defer func() {
		result.DurationMs = time.Since(start).Milliseconds()
		s.mu.Lock()
		ing.Result = result
		s.mu.Unlock()
		s.notifyProgress(ing)
		s.closeListeners(ing)
		close(ing.Done)
		s.scheduleCleanup(ing.ID)
		s.limiter.Release()
	}()

	s.setPhase(ing, PhaseDecoding)
	if err := ctx.Err(); err != nil {
		s.failIngest(logger, ing, result, err)
		return
	}

	decision := s.decideEncoding(data)
	text, err := sosi.Decode(data, decision.Encoding)
	if err != nil {
		s.failIngest(logger, ing, result, fmt.Errorf("decode %s: %w", decision.Encoding, err))
		return
	}
	result.Encoding = decision

	s.mu.Lock()
	ing.Progress.BytesRead = int64(len(data))
	s.mu.Unlock()
	s.setPhase(ing, PhaseAnalyzing)
	if err := ctx.Err(); err != nil {
		s.failIngest(logger, ing, result, err)
		return
	}

	analysis := sosi.Analyze(text)
	if err := ctx.Err(); err != nil {
		s.failIngest(logger, ing, result, err)
		return
	}

	lineCount := countLines(text)
	ds := &Dataset{
		ID:        ing.ID,
		FileName:  ing.FileName,
		Text:      text,
		Encoding:  decision,
		Analysis:  analysis,
		Size:      int64(len(data)),
		LineCount: lineCount,
		CreatedAt: time.Now().UTC(),
	}
	s.datasets.Add(ds.ID, ds)

	result.DatasetID = ds.ID
	result.Lines = lineCount
	result.Analysis = analysis

	s.mu.Lock()
	ing.Progress.Phase = PhaseComplete
	s.mu.Unlock()

	logger.Info("ingest completed",
		"dataset_id", ds.ID,
		"encoding", decision.Encoding.String(),
		"declared", decision.Declared,
		"lines", lineCount,
		"point_features", analysis.Points.Features,
		"line_features", analysis.Lines.Features,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// setPhase moves the ingest to a new phase and notifies subscribers.
func (s *Service) setPhase(ing *activeIngest, phase IngestPhase) {
	s.mu.Lock()
	ing.Progress.Phase = phase
	s.mu.Unlock()
	s.notifyProgress(ing)
}

// failIngest records a terminal failure, distinguishing caller
// cancellation from the ingest deadline. The deferred block in
// processIngest handles notification and teardown.
func (s *Service) failIngest(logger *slog.Logger, ing *activeIngest, result *IngestResult, err error) {
	phase := PhaseFailed
	switch {
	case errors.Is(err, context.Canceled):
		phase = PhaseCancelled
		result.Cancelled = true
		err = errors.New("ingest cancelled")
	case errors.Is(err, context.DeadlineExceeded):
		err = fmt.Errorf("ingest timed out after %s", s.ingestTimeout)
	}
	result.Error = err.Error()

	s.mu.Lock()
	ing.Progress.Phase = phase
	ing.Progress.Error = result.Error
	s.mu.Unlock()

	if phase == PhaseCancelled {
		logger.Info("ingest cancelled")
	} else {
		logger.Error("ingest failed", "error", result.Error)
	}
}

// decideEncoding applies the forced ingest encoding when configured,
// otherwise runs detection on the raw bytes.
func (s *Service) decideEncoding(data []byte) sosi.Decision {
	if s.forced != nil {
		return sosi.Decision{Encoding: *s.forced}
	}
	return sosi.Detect(data)
}

// countLines counts physical lines, including a final line without a
// trailing newline.
func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
