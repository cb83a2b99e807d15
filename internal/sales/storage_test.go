package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"waras/internal/blob"
)

func newRecord(id string, total int64) *SalesRecord {
	return &SalesRecord{
		ID:        id,
		Timestamp: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
		Items: []LineItem{{
			Name:      "Aqua",
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(total),
			Subtotal:  decimal.NewFromInt(total),
		}},
		Total: decimal.NewFromInt(total),
	}
}

func ids(records []*SalesRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}

func TestBlobStorage_ReadAllEmpty(t *testing.T) {
	s := NewLocalStorage()

	records, err := s.ReadAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, records)
	assert.Empty(t, records)
}

func TestBlobStorage_AppendIsNewestFirst(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage()

	for _, id := range []string{"a", "b", "c"} {
		before, err := s.ReadAll(ctx)
		require.NoError(t, err)

		require.NoError(t, s.Append(ctx, newRecord(id, 1000)))

		after, err := s.ReadAll(ctx)
		require.NoError(t, err)
		require.Len(t, after, len(before)+1)
		assert.Equal(t, id, after[0].ID)
		assert.Equal(t, ids(before), ids(after[1:]))
	}

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, ids(records))
	assert.Equal(t, "1000", records[0].Total.String())
	assert.True(t, records[0].Timestamp.Equal(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)))
}

func TestBlobStorage_ReadAllIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage()
	require.NoError(t, s.Append(ctx, newRecord("a", 500)))
	require.NoError(t, s.Append(ctx, newRecord("b", 700)))

	first, err := s.ReadAll(ctx)
	require.NoError(t, err)
	second, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))

	// callers get copies; mutating one read does not leak into the store
	first[0].ID = "mutated"
	third, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, "b", third[0].ID)
}

func TestBlobStorage_Clear(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage()
	require.NoError(t, s.Append(ctx, newRecord("a", 500)))

	require.NoError(t, s.Clear(ctx))
	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// clearing an empty history is fine
	require.NoError(t, s.Clear(ctx))
}

func TestBlobStorage_AppendRejectsEmptyID(t *testing.T) {
	s := NewLocalStorage()
	assert.ErrorIs(t, s.Append(context.Background(), &SalesRecord{}), ErrEmptyID)
	assert.ErrorIs(t, s.Append(context.Background(), nil), ErrEmptyID)
}

func TestBlobStorage_CorruptHistory(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := NewBlobStorage(blobs, "history", nil)
	s.clock = func() time.Time { return time.Unix(1700000000, 0) }

	require.NoError(t, blobs.Put(ctx, "history", []byte(`{not json`)))

	_, err := s.ReadAll(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	require.NoError(t, s.Append(ctx, newRecord("fresh", 100)))

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh"}, ids(records))

	aside, err := blobs.Get(ctx, "history.corrupt.1700000000")
	require.NoError(t, err)
	assert.Equal(t, `{not json`, string(aside))
}

func TestBlobStorage_NullEntryIsCorrupt(t *testing.T) {
	ctx := context.Background()
	blobs := blob.NewMemory()
	s := NewBlobStorage(blobs, "history", nil)
	require.NoError(t, blobs.Put(ctx, "history", []byte(`[null]`)))

	_, err := s.ReadAll(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}

type failingBlobs struct {
	*blob.Memory
	putErr error
	getErr error
}

func (f *failingBlobs) Get(ctx context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	return f.Memory.Get(ctx, key)
}

func (f *failingBlobs) Put(ctx context.Context, key string, value []byte) error {
	if f.putErr != nil {
		return f.putErr
	}
	return f.Memory.Put(ctx, key, value)
}

func TestBlobStorage_WriteFailureLeavesHistoryUnchanged(t *testing.T) {
	ctx := context.Background()
	blobs := &failingBlobs{Memory: blob.NewMemory()}
	s := NewBlobStorage(blobs, "history", nil)
	require.NoError(t, s.Append(ctx, newRecord("a", 100)))

	blobs.putErr = errors.New("disk full")
	err := s.Append(ctx, newRecord("b", 200))
	assert.ErrorIs(t, err, ErrWriteFailed)

	records, err := s.ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, ids(records))
}

func TestBlobStorage_ReadFailureIsUnavailable(t *testing.T) {
	ctx := context.Background()
	blobs := &failingBlobs{Memory: blob.NewMemory(), getErr: errors.New("medium gone")}
	s := NewBlobStorage(blobs, "history", nil)

	_, err := s.ReadAll(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)

	err = s.Append(ctx, newRecord("a", 100))
	assert.ErrorIs(t, err, ErrWriteFailed)
}

func TestBlobStorage_FileMediumSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	files, err := blob.NewFile(dir)
	require.NoError(t, err)
	s := NewBlobStorage(files, "waras_sales_history", nil)
	require.NoError(t, s.Append(ctx, newRecord("a", 100)))
	require.NoError(t, s.Append(ctx, newRecord("b", 200)))

	reopened, err := blob.NewFile(dir)
	require.NoError(t, err)
	records, err := NewBlobStorage(reopened, "waras_sales_history", nil).ReadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a"}, ids(records))
	assert.Equal(t, "200", records[0].Total.String())
}
