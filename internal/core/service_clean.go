package core

import (
	"fmt"
	"path"
	"strings"

	"github.com/mkleiva/sosivask/internal/sosi"
)

// CleanResult carries the rewritten document, encoded back to the
// dataset's source character set, plus the statistics of what
// survived.
type CleanResult struct {
	DatasetID string
	FileName  string
	Encoding  sosi.Encoding
	Data      []byte
	Analysis  *sosi.AnalysisResult
}

// CleanDataset rewrites the dataset per the selection and field mode,
// re-encodes the result in the source character set, and analyzes the
// cleaned document so callers can report what remains.
func (s *Service) CleanDataset(datasetID string, sel sosi.Selection, mode sosi.FieldMode) (*CleanResult, error) {
	ds, err := s.GetDataset(datasetID)
	if err != nil {
		return nil, err
	}

	cleaned := sosi.Clean(ds.Text, sel, mode)
	data, err := sosi.Encode(cleaned, ds.Encoding.Encoding)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", ds.Encoding.Encoding, err)
	}

	return &CleanResult{
		DatasetID: ds.ID,
		FileName:  cleanedFileName(ds.FileName),
		Encoding:  ds.Encoding.Encoding,
		Data:      data,
		Analysis:  sosi.Analyze(cleaned),
	}, nil
}

// cleanedFileName derives the download name by tagging the original
// base name, keeping its extension.
func cleanedFileName(name string) string {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" || base == "" {
		base = "dokument.sos"
	}
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if ext == "" {
		ext = ".sos"
	}
	return stem + "_vasket" + ext
}
