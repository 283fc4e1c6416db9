package core

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/mkleiva/sosivask/internal/config"
	"github.com/mkleiva/sosivask/internal/logging"
	"github.com/mkleiva/sosivask/internal/sosi"
	"github.com/mkleiva/sosivask/internal/store"
)

// ingestStateRetention is how long finished ingest state stays
// addressable, so late status polls and subscribers still find the
// result.
const ingestStateRetention = 5 * time.Minute

var (
	// ErrDatasetNotFound is returned for dataset IDs that were never
	// ingested, were deleted, or aged out of the registry.
	ErrDatasetNotFound = errors.New("dataset not found")

	// ErrIngestNotFound is returned for unknown or expired ingest IDs.
	ErrIngestNotFound = errors.New("ingest not found")
)

// Service owns the dataset registry and every ingest, analysis, and
// rewrite operation. It has no transport dependencies; web handlers
// and CLI commands both go through it.
type Service struct {
	datasets   *expirable.LRU[string, *Dataset]
	pivotCache *expirable.LRU[string, *sosi.PivotResult]
	selections store.SelectionStore
	limiter    *IngestLimiter

	mu      sync.RWMutex
	ingests map[string]*activeIngest

	forced        *sosi.Encoding
	maxFileSize   int64
	ingestTimeout time.Duration
	previewLines  int
	pivotDefaults sosi.PivotOptions
}

// activeIngest tracks one ingest through its lifetime. Progress and
// Result are guarded by the service mutex, Listeners by ListenerMu.
type activeIngest struct {
	ID       string
	FileName string
	Cancel   context.CancelFunc
	Progress IngestProgress
	Result   *IngestResult
	Done     chan struct{}

	ListenerMu sync.Mutex
	Listeners  []chan IngestProgress
	closed     bool
}

// NewService creates the service from a validated configuration and a
// selection store.
func NewService(cfg *config.Config, selections store.SelectionStore) *Service {
	s := &Service{
		datasets:      expirable.NewLRU[string, *Dataset](cfg.Datasets.MaxEntries, nil, cfg.Datasets.TTL),
		pivotCache:    expirable.NewLRU[string, *sosi.PivotResult](cfg.Pivot.CacheSize, nil, cfg.Pivot.CacheTTL),
		selections:    selections,
		limiter:       NewIngestLimiter(cfg.Ingest.MaxConcurrent, cfg.Ingest.MaxWaitTime),
		ingests:       make(map[string]*activeIngest),
		maxFileSize:   cfg.Ingest.MaxFileSize,
		ingestTimeout: cfg.Ingest.Timeout,
		previewLines:  cfg.Datasets.PreviewLines,
		pivotDefaults: sosi.PivotOptions{
			TopColumns:         cfg.Pivot.TopColumns,
			RowCap:             cfg.Pivot.RowCap,
			NumericBins:        cfg.Pivot.NumericBins,
			QuantileSampleSize: cfg.Pivot.QuantileSampleSize,
		},
	}
	if enc, ok := sosi.ParseEncoding(cfg.Ingest.ForcedEncoding); ok && cfg.Ingest.ForcedEncoding != "" {
		s.forced = &enc
	}
	return s
}

// StartIngest registers a new ingest and processes the document in the
// background, returning the ingest ID immediately. It blocks while the
// concurrency limiter is saturated, up to the configured wait time,
// then fails with ErrTooManyIngests.
func (s *Service) StartIngest(ctx context.Context, fileName string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", ErrEmptyFile
	}
	if s.maxFileSize > 0 && int64(len(data)) > s.maxFileSize {
		return "", fmt.Errorf("%w: %d bytes exceeds the %d byte limit", ErrFileTooLarge, len(data), s.maxFileSize)
	}
	if err := s.limiter.Acquire(ctx); err != nil {
		return "", err
	}

	id := uuid.New().String()
	ingestCtx, cancel := context.WithTimeout(context.Background(), s.ingestTimeout)

	ing := &activeIngest{
		ID:       id,
		FileName: fileName,
		Cancel:   cancel,
		Done:     make(chan struct{}),
		Progress: IngestProgress{
			IngestID:   id,
			FileName:   fileName,
			Phase:      PhaseStarting,
			BytesTotal: int64(len(data)),
		},
	}

	s.mu.Lock()
	s.ingests[id] = ing
	s.mu.Unlock()

	logging.FromContext(ctx).Info("ingest started",
		"ingest_id", id,
		"filename", fileName,
		"bytes", len(data),
	)

	go s.processIngest(ingestCtx, ing, data)

	return id, nil
}

// SubscribeProgress returns a channel of progress snapshots for the
// given ingest, seeded with the current state. The channel closes once
// the ingest reaches a terminal phase; subscribing to a finished
// ingest yields the final state and an immediately closed channel.
func (s *Service) SubscribeProgress(id string) (<-chan IngestProgress, error) {
	s.mu.RLock()
	ing, ok := s.ingests[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIngestNotFound, id)
	}

	ch := make(chan IngestProgress, 10)

	ing.ListenerMu.Lock()
	if ing.closed {
		ing.ListenerMu.Unlock()
		s.mu.RLock()
		final := ing.Progress
		s.mu.RUnlock()
		ch <- final
		close(ch)
		return ch, nil
	}
	ing.Listeners = append(ing.Listeners, ch)
	ing.ListenerMu.Unlock()

	// Seed the subscriber so it does not wait for the next transition.
	s.mu.RLock()
	current := ing.Progress
	s.mu.RUnlock()
	select {
	case ch <- current:
	default:
	}

	return ch, nil
}

// CancelIngest aborts a running ingest. Cancelling one that already
// finished is a no-op.
func (s *Service) CancelIngest(id string) error {
	s.mu.RLock()
	ing, ok := s.ingests[id]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrIngestNotFound, id)
	}
	ing.Cancel()
	return nil
}

// GetIngestProgress returns the current progress snapshot.
func (s *Service) GetIngestProgress(id string) (IngestProgress, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ing, ok := s.ingests[id]
	if !ok {
		return IngestProgress{}, fmt.Errorf("%w: %s", ErrIngestNotFound, id)
	}
	return ing.Progress, nil
}

// GetIngestResult blocks until the ingest finishes or ctx is done,
// then returns the final result.
func (s *Service) GetIngestResult(ctx context.Context, id string) (*IngestResult, error) {
	s.mu.RLock()
	ing, ok := s.ingests[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrIngestNotFound, id)
	}

	select {
	case <-ing.Done:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return ing.Result, nil
}

// notifyProgress fans the current snapshot out to all listeners
// without blocking; a slow subscriber misses intermediate states, not
// the terminal one.
func (s *Service) notifyProgress(ing *activeIngest) {
	s.mu.RLock()
	progress := ing.Progress
	s.mu.RUnlock()

	ing.ListenerMu.Lock()
	for _, ch := range ing.Listeners {
		select {
		case ch <- progress:
		default:
		}
	}
	ing.ListenerMu.Unlock()
}

// closeListeners closes all subscriber channels and marks the ingest
// so late subscribers get the terminal snapshot instead of a channel
// nobody will ever close.
func (s *Service) closeListeners(ing *activeIngest) {
	ing.ListenerMu.Lock()
	ing.closed = true
	for _, ch := range ing.Listeners {
		close(ch)
	}
	ing.Listeners = nil
	ing.ListenerMu.Unlock()
}

// scheduleCleanup drops finished ingest state after the retention
// window.
func (s *Service) scheduleCleanup(id string) {
	time.AfterFunc(ingestStateRetention, func() {
		s.mu.Lock()
		delete(s.ingests, id)
		s.mu.Unlock()
	})
}

// GetDataset returns a dataset by ID and refreshes its position in the
// eviction order.
func (s *Service) GetDataset(id string) (*Dataset, error) {
	ds, ok := s.datasets.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	return ds, nil
}

// ListDatasets returns metadata for every resident dataset, newest
// first.
func (s *Service) ListDatasets() []DatasetInfo {
	values := s.datasets.Values()
	infos := make([]DatasetInfo, 0, len(values))
	for _, ds := range values {
		infos = append(infos, ds.Info())
	}
	sort.Slice(infos, func(i, j int) bool {
		if infos[i].CreatedAt.Equal(infos[j].CreatedAt) {
			return infos[i].ID < infos[j].ID
		}
		return infos[i].CreatedAt.After(infos[j].CreatedAt)
	})
	return infos
}

// DeleteDataset removes a dataset and any pivot results computed from
// it.
func (s *Service) DeleteDataset(id string) error {
	if !s.datasets.Remove(id) {
		return fmt.Errorf("%w: %s", ErrDatasetNotFound, id)
	}
	s.invalidatePivots(id)
	return nil
}

// invalidatePivots drops cached pivot results for one dataset. Cache
// keys are prefixed with the dataset ID.
func (s *Service) invalidatePivots(datasetID string) {
	prefix := datasetID + "|"
	for _, key := range s.pivotCache.Keys() {
		if strings.HasPrefix(key, prefix) {
			s.pivotCache.Remove(key)
		}
	}
}

// ActiveIngests returns the number of ingests currently holding a
// limiter slot.
func (s *Service) ActiveIngests() int {
	return s.limiter.ActiveCount()
}

// WaitForIngests blocks until all running ingests release their
// limiter slots or ctx is done. Used during graceful shutdown.
func (s *Service) WaitForIngests(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// LimiterStatus reports the current ingest limiter occupancy.
func (s *Service) LimiterStatus() IngestLimiterStatus {
	return s.limiter.Status()
}
