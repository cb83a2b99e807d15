package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ErrSubmissionInProgress is returned when a session already has an
// extraction outstanding.
var ErrSubmissionInProgress = errors.New("a submission for this session is already in progress")

// DefaultSession is used when a caller does not identify its session.
const DefaultSession = "default"

// Extractor turns a transcript into raw line items.
type Extractor interface {
	Extract(ctx context.Context, transcript string) ([]RawItem, error)
}

// Service runs the transcript -> extraction -> record -> history pipeline.
type Service struct {
	storage   Storage
	extractor Extractor
	builder   *Builder
	metrics   *Metrics
	logger    *zap.Logger

	mu       sync.Mutex
	inFlight map[string]struct{}
}

// NewService creates a new Service. A nil builder rejects empty batches,
// nil metrics are created unregistered.
func NewService(storage Storage, extractor Extractor, builder *Builder, metrics *Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger, _ = zap.NewProduction()
	}
	if builder == nil {
		builder = NewBuilder(false)
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	return &Service{
		storage:   storage,
		extractor: extractor,
		builder:   builder,
		metrics:   metrics,
		logger:    logger,
		inFlight:  map[string]struct{}{},
	}
}

// ProcessTranscript extracts items from transcript, commits them as a new
// record and appends it to the history. On any error the history is left
// unchanged. Only one call per session may be outstanding at a time.
func (s *Service) ProcessTranscript(ctx context.Context, sessionID, transcript string) (CommitResult, error) {
	raw, err := s.Extract(ctx, sessionID, transcript)
	if err != nil {
		return CommitResult{}, err
	}
	return s.commit(ctx, raw, strings.TrimSpace(transcript))
}

// Extract runs extraction only, without committing anything.
func (s *Service) Extract(ctx context.Context, sessionID, transcript string) ([]RawItem, error) {
	release, err := s.acquire(sessionID)
	if err != nil {
		s.logger.Warn("rejected overlapping submission", zap.String("session_id", sessionID))
		return nil, err
	}
	defer release()

	raw, err := s.extractor.Extract(ctx, transcript)
	if err != nil {
		s.metrics.extractions.WithLabelValues("failed").Inc()
		s.logger.Error("extraction failed", zap.String("session_id", sessionID), zap.Error(err))
		return nil, fmt.Errorf("extract sales: %w", err)
	}

	s.metrics.extractions.WithLabelValues("ok").Inc()
	s.logger.Info("transcript extracted", zap.String("session_id", sessionID), zap.Int("items", len(raw)))
	return raw, nil
}

// CommitItems commits manually entered items, bypassing extraction.
func (s *Service) CommitItems(ctx context.Context, raw []RawItem) (CommitResult, error) {
	return s.commit(ctx, raw, "")
}

func (s *Service) commit(ctx context.Context, raw []RawItem, transcript string) (CommitResult, error) {
	result, err := s.builder.Commit(raw)
	if n := len(result.Discarded); n > 0 {
		s.metrics.discardedItems.Add(float64(n))
		s.logger.Info("items discarded", zap.Int("count", n), zap.Any("discarded", result.Discarded))
	}
	if err != nil {
		return result, err
	}

	result.Record.Transcript = transcript
	if err := s.storage.Append(ctx, result.Record); err != nil {
		s.logger.Error("failed to save sales record", zap.String("record_id", result.Record.ID), zap.Error(err))
		return CommitResult{Discarded: result.Discarded}, fmt.Errorf("failed to save sales record: %w", err)
	}

	s.metrics.commits.Inc()
	s.logger.Info("sales record committed",
		zap.String("record_id", result.Record.ID),
		zap.Int("items", len(result.Record.Items)),
		zap.Stringer("total", result.Record.Total),
	)
	return result, nil
}

// History returns the stored records matching filter, newest first. An
// unreadable history is reported as an empty, degraded result.
func (s *Service) History(ctx context.Context, filter HistoryFilter) (HistoryResult, error) {
	all, err := s.storage.ReadAll(ctx)
	if errors.Is(err, ErrUnavailable) {
		s.metrics.historyReads.WithLabelValues("degraded").Inc()
		s.logger.Warn("sales history unreadable, serving empty history", zap.Error(err))
		return HistoryResult{Results: []*SalesRecord{}, Metadata: SalesMetadata{TotalAmount: decimal.Zero}, Degraded: true}, nil
	}
	if err != nil {
		s.metrics.historyReads.WithLabelValues("failed").Inc()
		return HistoryResult{}, fmt.Errorf("failed to retrieve sales: %w", err)
	}

	filtered := make([]*SalesRecord, 0, len(all))
	metadata := SalesMetadata{TotalAmount: decimal.Zero}
	for _, record := range all {
		if !filter.match(record) {
			continue
		}
		filtered = append(filtered, record)

		metadata.Records++
		metadata.Items += len(record.Items)
		metadata.TotalAmount = metadata.TotalAmount.Add(record.Total)
	}

	s.metrics.historyReads.WithLabelValues("ok").Inc()
	s.logger.Debug("sales history read",
		zap.Time("from", filter.From),
		zap.Time("to", filter.To),
		zap.Int("results_count", len(filtered)),
	)
	return HistoryResult{Results: filtered, Metadata: metadata}, nil
}

// GetRecord returns the record with the given ID. An unreadable history
// fails with ErrUnavailable rather than ErrNotFound.
func (s *Service) GetRecord(ctx context.Context, id string) (*SalesRecord, error) {
	all, err := s.storage.ReadAll(ctx)
	if err != nil {
		s.logger.Warn("failed to read sales history", zap.String("record_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to retrieve sale: %w", err)
	}
	for _, record := range all {
		if record.ID == id {
			return record, nil
		}
	}
	return nil, ErrNotFound
}

// ClearHistory removes every stored record.
func (s *Service) ClearHistory(ctx context.Context) error {
	if err := s.storage.Clear(ctx); err != nil {
		s.logger.Error("failed to clear sales history", zap.Error(err))
		return fmt.Errorf("failed to clear sales history: %w", err)
	}
	s.logger.Info("sales history cleared")
	return nil
}

// acquire reserves the session's extraction slot. The returned func frees it.
func (s *Service) acquire(sessionID string) (func(), error) {
	if sessionID == "" {
		sessionID = DefaultSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, busy := s.inFlight[sessionID]; busy {
		return nil, ErrSubmissionInProgress
	}
	s.inFlight[sessionID] = struct{}{}

	return func() {
		s.mu.Lock()
		delete(s.inFlight, sessionID)
		s.mu.Unlock()
	}, nil
}
