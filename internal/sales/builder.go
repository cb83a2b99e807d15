package sales

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ErrEmptyBatch is returned when no item survives validation and empty
// records are not allowed.
var ErrEmptyBatch = errors.New("no valid items to commit")

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	// Sign is read from the decimal itself; a float conversion turns tiny
	// negatives into -0.
	if err := validate.RegisterValidation("nonnegative", func(fl validator.FieldLevel) bool {
		d, ok := fl.Field().Interface().(decimal.Decimal)
		return ok && !d.IsNegative()
	}); err != nil {
		panic(err)
	}
}

// Builder turns raw extracted items into committed sales records.
type Builder struct {
	allowEmpty bool
	clock      func() time.Time
	newID      func() string
}

// NewBuilder creates a Builder. When allowEmpty is false, a batch with no
// valid items fails with ErrEmptyBatch instead of producing an empty record.
func NewBuilder(allowEmpty bool) *Builder {
	return &Builder{
		allowEmpty: allowEmpty,
		clock:      time.Now,
		newID:      uuid.NewString,
	}
}

// Commit validates raw, computes subtotals and the total, and stamps a new
// record. Invalid items are dropped and reported in CommitResult.Discarded.
// The returned result carries the discards even when err is ErrEmptyBatch.
func (b *Builder) Commit(raw []RawItem) (CommitResult, error) {
	items := make([]LineItem, 0, len(raw))
	discarded := make([]Discard, 0)
	total := decimal.Zero

	for i, r := range raw {
		item, reason := toLineItem(r)
		if reason != "" {
			discarded = append(discarded, Discard{Index: i, Name: strings.TrimSpace(r.Name), Reason: reason})
			continue
		}
		item.Subtotal = item.UnitPrice.Mul(decimal.NewFromInt(item.Quantity))
		total = total.Add(item.Subtotal)
		items = append(items, item)
	}

	if len(items) == 0 && !b.allowEmpty {
		return CommitResult{Discarded: discarded}, ErrEmptyBatch
	}

	record := &SalesRecord{
		ID:        b.newID(),
		Timestamp: b.clock().UTC(),
		Items:     items,
		Total:     total,
	}
	return CommitResult{Record: record, Discarded: discarded}, nil
}

// toLineItem converts r and returns a non-empty reason when it is invalid.
func toLineItem(r RawItem) (LineItem, string) {
	if !r.Quantity.Valid {
		return LineItem{}, "quantity is missing"
	}
	if !r.Quantity.Decimal.IsInteger() {
		return LineItem{}, fmt.Sprintf("quantity %s is not a whole number", r.Quantity.Decimal)
	}
	if !r.Quantity.Decimal.BigInt().IsInt64() {
		return LineItem{}, fmt.Sprintf("quantity %s is out of range", r.Quantity.Decimal)
	}
	if !r.UnitPrice.Valid {
		return LineItem{}, "unit_price is missing"
	}

	item := LineItem{
		Name:      strings.TrimSpace(r.Name),
		Quantity:  r.Quantity.Decimal.IntPart(),
		UnitPrice: r.UnitPrice.Decimal,
	}
	if err := validate.Struct(item); err != nil {
		return LineItem{}, describe(err)
	}
	return item, ""
}

func describe(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) || len(ve) == 0 {
		return err.Error()
	}
	e := ve[0]
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", e.Field())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", e.Field(), e.Param())
	case "nonnegative":
		return fmt.Sprintf("%s must not be negative", e.Field())
	default:
		return fmt.Sprintf("%s failed on '%s'", e.Field(), e.Tag())
	}
}
