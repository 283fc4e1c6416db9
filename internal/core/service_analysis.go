package core

import (
	"fmt"
	"strings"

	"github.com/mkleiva/sosivask/internal/sosi"
)

// PreviewResult is the head of a decoded document.
type PreviewResult struct {
	DatasetID  string   `json:"datasetId"`
	FileName   string   `json:"fileName"`
	Lines      []string `json:"lines"`
	TotalLines int      `json:"totalLines"`
	Truncated  bool     `json:"truncated"`
	Encoding   string   `json:"encoding"`
}

// Preview returns the first maxLines lines of the dataset text. A
// nonpositive maxLines selects the configured default.
func (s *Service) Preview(datasetID string, maxLines int) (*PreviewResult, error) {
	ds, err := s.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}
	if maxLines <= 0 {
		maxLines = s.previewLines
	}

	lines := make([]string, 0, maxLines)
	rest := ds.Text
	for len(lines) < maxLines && rest != "" {
		line, tail, _ := strings.Cut(rest, "\n")
		lines = append(lines, strings.TrimSuffix(line, "\r"))
		rest = tail
	}

	return &PreviewResult{
		DatasetID:  ds.ID,
		FileName:   ds.FileName,
		Lines:      lines,
		TotalLines: ds.LineCount,
		Truncated:  len(lines) < ds.LineCount,
		Encoding:   ds.Encoding.Encoding.String(),
	}, nil
}

// Analysis returns the per-category statistics computed at ingest.
func (s *Service) Analysis(datasetID string) (*sosi.AnalysisResult, error) {
	ds, err := s.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}
	return ds.Analysis, nil
}

// FieldFrequency tallies the values of one field across the feature
// blocks of one category.
func (s *Service) FieldFrequency(datasetID string, cat sosi.Category, key string) ([]sosi.ValueCount, error) {
	ds, err := s.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}
	return sosi.FieldFrequency(ds.Text, cat, key), nil
}

// Pivot computes a two-field crosstab, serving repeated identical
// requests from the cache. Unset options fall back to the configured
// defaults before the cache key is built, so equivalent requests share
// an entry.
func (s *Service) Pivot(datasetID string, cat sosi.Category, primary, secondary string, opts sosi.PivotOptions) (*sosi.PivotResult, error) {
	ds, err := s.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}
	opts = s.applyPivotDefaults(opts)

	key := pivotCacheKey(datasetID, cat, primary, secondary, opts)
	if cached, ok := s.pivotCache.Get(key); ok {
		return cached, nil
	}

	res := sosi.Pivot2D(ds.Text, cat, primary, secondary, opts)
	s.pivotCache.Add(key, res)
	return res, nil
}

// applyPivotDefaults fills unset request options from the configured
// defaults.
func (s *Service) applyPivotDefaults(opts sosi.PivotOptions) sosi.PivotOptions {
	if opts.TopColumns <= 0 {
		opts.TopColumns = s.pivotDefaults.TopColumns
	}
	if opts.RowCap <= 0 {
		opts.RowCap = s.pivotDefaults.RowCap
	}
	if opts.NumericBins <= 0 {
		opts.NumericBins = s.pivotDefaults.NumericBins
	}
	if opts.QuantileSampleSize <= 0 {
		opts.QuantileSampleSize = s.pivotDefaults.QuantileSampleSize
	}
	return opts
}

// pivotCacheKey folds every request parameter into the cache key.
// Field keys are normalized the same way the computation normalizes
// them, so casing differences do not split entries.
func pivotCacheKey(datasetID string, cat sosi.Category, primary, secondary string, opts sosi.PivotOptions) string {
	return fmt.Sprintf("%s|%s|%s|%s|%d|%d|%d|%s|%d|%d",
		datasetID, cat,
		strings.ToUpper(strings.TrimSpace(primary)),
		strings.ToUpper(strings.TrimSpace(secondary)),
		opts.TopColumns, opts.RowCap, opts.NumericBins, opts.BinningMode,
		opts.QuantileSampleSize, opts.Seed,
	)
}
