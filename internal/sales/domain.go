package sales

import (
	"time"

	"github.com/shopspring/decimal"
)

// RawItem is a line item exactly as the extraction endpoint returned it.
// Quantity and price are nullable so incomplete items reach the Builder
// instead of failing the whole batch at decode time.
type RawItem struct {
	Name      string              `json:"barang"`
	Quantity  decimal.NullDecimal `json:"jumlah"`
	UnitPrice decimal.NullDecimal `json:"harga"`
}

// LineItem is one validated product entry of a committed sale.
type LineItem struct {
	Name      string          `json:"name" validate:"required"`
	Quantity  int64           `json:"quantity" validate:"gt=0"`
	UnitPrice decimal.Decimal `json:"unit_price" validate:"nonnegative"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// SalesRecord is a committed, timestamped group of line items.
// Records are never modified after the Builder creates them.
type SalesRecord struct {
	ID         string          `json:"id"`
	Timestamp  time.Time       `json:"timestamp"`
	Items      []LineItem      `json:"items"`
	Total      decimal.Decimal `json:"total"`
	Transcript string          `json:"transcript,omitempty"`
}

// Discard explains why a raw item was left out of a record.
type Discard struct {
	Index  int    `json:"index"`
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// CommitResult pairs a committed record with the items dropped while building it.
type CommitResult struct {
	Record    *SalesRecord `json:"record"`
	Discarded []Discard    `json:"discarded"`
}

// SalesMetadata summarises a slice of history.
type SalesMetadata struct {
	Records     int             `json:"records"`
	Items       int             `json:"items"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// HistoryFilter limits a history read to records committed within [From, To].
// Zero values leave that side open.
type HistoryFilter struct {
	From time.Time
	To   time.Time
}

func (f HistoryFilter) match(r *SalesRecord) bool {
	if !f.From.IsZero() && r.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && r.Timestamp.After(f.To) {
		return false
	}
	return true
}

// HistoryResult is the response of a history read.
type HistoryResult struct {
	Results  []*SalesRecord `json:"results"`
	Metadata SalesMetadata  `json:"metadata"`
	// Degraded is set when the stored history could not be read and an
	// empty history was returned in its place.
	Degraded bool `json:"degraded"`
}
