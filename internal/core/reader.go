package core

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrEmptyFile reports a zero-length document body.
	ErrEmptyFile = errors.New("empty file")

	// ErrFileTooLarge reports a document beyond the configured size
	// cap.
	ErrFileTooLarge = errors.New("file too large")
)

// ReadAllLimit reads r to EOF, failing with ErrFileTooLarge once more
// than limit bytes arrive. A nonpositive limit reads without a cap.
// Transports use this for request bodies, the CLI for local files and
// stdin.
func ReadAllLimit(r io.Reader, limit int64) ([]byte, error) {
	if limit <= 0 {
		return io.ReadAll(r)
	}
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: limit is %d bytes", ErrFileTooLarge, limit)
	}
	return data, nil
}
