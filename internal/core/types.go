package core

import (
	"time"

	"github.com/mkleiva/sosivask/internal/sosi"
)

// IngestPhase identifies where in the pipeline an ingest currently is.
type IngestPhase string

const (
	PhaseStarting  IngestPhase = "starting"
	PhaseDecoding  IngestPhase = "decoding"
	PhaseAnalyzing IngestPhase = "analyzing"
	PhaseComplete  IngestPhase = "complete"
	PhaseFailed    IngestPhase = "failed"
	PhaseCancelled IngestPhase = "cancelled"
)

// Terminal reports whether the phase is an end state.
func (p IngestPhase) Terminal() bool {
	return p == PhaseComplete || p == PhaseFailed || p == PhaseCancelled
}

// IngestProgress is a snapshot of one ingest, broadcast to subscribers
// after every phase transition.
type IngestProgress struct {
	IngestID   string      `json:"ingestId"`
	FileName   string      `json:"fileName"`
	Phase      IngestPhase `json:"phase"`
	BytesRead  int64       `json:"bytesRead"`
	BytesTotal int64       `json:"bytesTotal"`
	Error      string      `json:"error,omitempty"`
}

// Percent estimates completion from the byte counters. It reports 100
// only for a completed ingest; a running one caps at 99 so clients
// never see a full bar before the terminal event.
func (p IngestProgress) Percent() int {
	if p.Phase == PhaseComplete {
		return 100
	}
	if p.BytesTotal <= 0 {
		return 0
	}
	pct := int(p.BytesRead * 100 / p.BytesTotal)
	if pct > 99 {
		pct = 99
	}
	return pct
}

// IngestResult contains the final outcome of one ingest. A successful
// result carries the dataset ID and the analysis computed during the
// run.
type IngestResult struct {
	IngestID   string               `json:"ingestId"`
	DatasetID  string               `json:"datasetId,omitempty"`
	FileName   string               `json:"fileName"`
	Encoding   sosi.Decision        `json:"encoding"`
	Bytes      int64                `json:"bytes"`
	Lines      int                  `json:"lines"`
	Analysis   *sosi.AnalysisResult `json:"analysis,omitempty"`
	Cancelled  bool                 `json:"cancelled,omitempty"`
	Error      string               `json:"error,omitempty"`
	DurationMs int64                `json:"durationMs"`
}

// Dataset is one decoded document held in the registry. Text is the
// UTF-8 working copy; the source character set survives in Encoding so
// exports can round-trip.
type Dataset struct {
	ID        string               `json:"id"`
	FileName  string               `json:"fileName"`
	Text      string               `json:"-"`
	Encoding  sosi.Decision        `json:"encoding"`
	Analysis  *sosi.AnalysisResult `json:"-"`
	Size      int64                `json:"size"`
	LineCount int                  `json:"lineCount"`
	CreatedAt time.Time            `json:"createdAt"`
}

// Info returns the listing view of the dataset.
func (d *Dataset) Info() DatasetInfo {
	info := DatasetInfo{
		ID:        d.ID,
		FileName:  d.FileName,
		Size:      d.Size,
		LineCount: d.LineCount,
		Encoding:  d.Encoding.Encoding.String(),
		CreatedAt: d.CreatedAt,
	}
	if d.Analysis != nil {
		info.PointFeatures = d.Analysis.Points.Features
		info.LineFeatures = d.Analysis.Lines.Features
	}
	return info
}

// Detail returns the single-dataset view: the listing fields plus the
// full encoding decision, so clients can tell a declared charset from a
// fallback.
func (d *Dataset) Detail() DatasetDetail {
	return DatasetDetail{DatasetInfo: d.Info(), Decision: d.Encoding}
}

// DatasetInfo is the metadata row returned by dataset listings.
type DatasetInfo struct {
	ID            string    `json:"id"`
	FileName      string    `json:"fileName"`
	Size          int64     `json:"size"`
	LineCount     int       `json:"lineCount"`
	Encoding      string    `json:"encoding"`
	PointFeatures int       `json:"pointFeatures"`
	LineFeatures  int       `json:"lineFeatures"`
	CreatedAt     time.Time `json:"createdAt"`
}

// DatasetDetail is the response for a single-dataset lookup.
type DatasetDetail struct {
	DatasetInfo
	Decision sosi.Decision `json:"decision"`
}
