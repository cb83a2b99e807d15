package sales

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"waras/internal/blob"
)

// ErrNotFound is returned when a sales record with the given ID is not found.
var ErrNotFound = errors.New("sales record not found")

// ErrEmptyID is returned when trying to store a record without an ID.
var ErrEmptyID = errors.New("empty sales record ID")

// ErrUnavailable is returned when the stored history cannot be read.
var ErrUnavailable = errors.New("sales history unavailable")

// ErrWriteFailed is returned when the history could not be updated. The
// stored history is unchanged when it is returned.
var ErrWriteFailed = errors.New("sales history write failed")

// Storage is the history store: an append-ordered list of committed records,
// read newest first.
type Storage interface {
	Append(ctx context.Context, record *SalesRecord) error
	ReadAll(ctx context.Context) ([]*SalesRecord, error)
	Clear(ctx context.Context) error
}

// BlobStorage keeps the whole history as one JSON array under a single key
// of a blob.Store.
type BlobStorage struct {
	mu     sync.Mutex
	blobs  blob.Store
	key    string
	logger *zap.Logger
	clock  func() time.Time
}

// NewBlobStorage returns a Storage persisting under key in blobs.
func NewBlobStorage(blobs blob.Store, key string, logger *zap.Logger) *BlobStorage {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlobStorage{
		blobs:  blobs,
		key:    key,
		logger: logger,
		clock:  time.Now,
	}
}

// NewLocalStorage instantiates an in-memory history, for tests and
// ephemeral runs.
func NewLocalStorage() *BlobStorage {
	return NewBlobStorage(blob.NewMemory(), "waras_sales_history", nil)
}

// Append adds record to the front of the history.
// A corrupt stored history is moved aside to <key>.corrupt.<unix> and a new
// history is started, so a damaged blob never blocks new sales.
func (s *BlobStorage) Append(ctx context.Context, record *SalesRecord) error {
	if record == nil || record.ID == "" {
		return ErrEmptyID
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, corrupt, err := s.load(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	if corrupt {
		aside := fmt.Sprintf("%s.corrupt.%d", s.key, s.clock().Unix())
		if err := s.blobs.Rename(ctx, s.key, aside); err != nil {
			return fmt.Errorf("%w: move corrupt history aside: %w", ErrWriteFailed, err)
		}
		s.logger.Warn("corrupt sales history moved aside", zap.String("key", s.key), zap.String("moved_to", aside))
		existing = nil
	}

	updated := make([]*SalesRecord, 0, len(existing)+1)
	updated = append(updated, record)
	updated = append(updated, existing...)

	data, err := json.Marshal(updated)
	if err != nil {
		return fmt.Errorf("%w: encode history: %w", ErrWriteFailed, err)
	}
	if err := s.blobs.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// ReadAll returns the full history, newest first. It returns an empty slice
// when nothing was stored yet and ErrUnavailable when the medium cannot be
// read or decoded.
func (s *BlobStorage) ReadAll(ctx context.Context) ([]*SalesRecord, error) {
	records, corrupt, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	if corrupt {
		return nil, fmt.Errorf("%w: stored history is not a valid record list", ErrUnavailable)
	}
	return records, nil
}

// Clear removes every stored record.
func (s *BlobStorage) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.blobs.Delete(ctx, s.key); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFailed, err)
	}
	return nil
}

// load reads and decodes the stored history. corrupt reports a blob that was
// read but could not be decoded; err reports a medium failure.
func (s *BlobStorage) load(ctx context.Context) (records []*SalesRecord, corrupt bool, err error) {
	data, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, blob.ErrNotFound) {
		return []*SalesRecord{}, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, true, nil
	}
	for _, r := range records {
		if r == nil {
			return nil, true, nil
		}
	}
	if records == nil {
		records = []*SalesRecord{}
	}
	return records, false, nil
}
