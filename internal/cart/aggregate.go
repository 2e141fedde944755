package cart

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
	"github.com/marketmaster/marketmaster-backend/pkg/kv"
	"github.com/marketmaster/marketmaster-backend/pkg/logger"
)

// ErrInvalidQuantity rejects AddItem calls with a quantity below 1. Removal
// is a separate operation, never a side effect of adding.
var ErrInvalidQuantity = pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")

// Aggregate owns the line items of one shopping session. It is bound to a
// fixed persistence slot at construction and rewrites that slot after every
// mutation. Single logical owner; callers serialize access.
type Aggregate struct {
	store    kv.Store
	slot     string
	logg     *logger.Logger
	notifier Notifier
	lines    []Line
}

// NewAggregate restores the cart from its slot. Absent, unreadable, or
// corrupt payloads degrade to an empty cart; construction never fails.
func NewAggregate(ctx context.Context, store kv.Store, slot string, logg *logger.Logger, notifier Notifier) (*Aggregate, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store is required")
	}
	if slot == "" {
		return nil, fmt.Errorf("slot key is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}

	agg := &Aggregate{store: store, slot: slot, logg: logg, notifier: notifier}
	agg.restore(ctx)
	return agg, nil
}

func (a *Aggregate) restore(ctx context.Context) {
	ctx = a.logg.WithCartSlot(ctx, a.slot)

	raw, present, err := a.store.Read(ctx, a.slot)
	if err != nil {
		a.logg.Warn(ctx, "cart slot read failed, starting empty")
		return
	}
	if !present {
		return
	}

	lines, err := decodeLines(raw)
	if err != nil {
		a.logg.Warn(ctx, "discarding corrupt cart payload, starting empty")
		return
	}
	a.lines = lines
}

// AddItem merges quantity into an existing line for the product or appends a
// new one. The returned event reports which of the two happened.
func (a *Aggregate) AddItem(ctx context.Context, product Product, quantity int) (Line, error) {
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}
	if product.ID == "" {
		return Line{}, pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
	}

	kind := EventItemAdded
	idx := a.indexOf(product.ID)
	if idx >= 0 {
		a.lines[idx].Quantity += quantity
		kind = EventQuantityUpdated
	} else {
		a.lines = append(a.lines, Line{Product: product.snapshot(), Quantity: quantity})
		idx = len(a.lines) - 1
	}

	line := a.lines[idx]
	a.persist(ctx)
	a.notifier.Notify(ctx, Event{
		Kind:         kind,
		ProductID:    line.Product.ID,
		ProductTitle: line.Product.Title,
		Quantity:     line.Quantity,
	})
	return line, nil
}

// RemoveItem deletes the line for the product. Absence is a no-op, not an
// error, and emits no event.
func (a *Aggregate) RemoveItem(ctx context.Context, productID string) {
	idx := a.indexOf(productID)
	if idx < 0 {
		return
	}

	removed := a.lines[idx]
	a.lines = append(a.lines[:idx], a.lines[idx+1:]...)
	a.persist(ctx)
	a.notifier.Notify(ctx, Event{
		Kind:         EventItemRemoved,
		ProductID:    removed.Product.ID,
		ProductTitle: removed.Product.Title,
	})
}

// UpdateQuantity sets the line's quantity to an absolute value. A quantity of
// zero or less removes the line. Unknown product IDs are a no-op; only
// AddItem creates lines.
func (a *Aggregate) UpdateQuantity(ctx context.Context, productID string, quantity int) {
	if quantity <= 0 {
		a.RemoveItem(ctx, productID)
		return
	}

	idx := a.indexOf(productID)
	if idx < 0 {
		return
	}
	a.lines[idx].Quantity = quantity
	a.persist(ctx)
}

// Clear empties the cart and erases the slot rather than writing an empty
// payload, so a fresh session restores nothing.
func (a *Aggregate) Clear(ctx context.Context) {
	a.lines = nil
	a.persist(ctx)
	a.notifier.Notify(ctx, Event{Kind: EventCartCleared})
}

// Lines returns a copy of the current line items in insertion order.
func (a *Aggregate) Lines() []Line {
	out := make([]Line, len(a.lines))
	for i, line := range a.lines {
		out[i] = Line{Product: line.Product.snapshot(), Quantity: line.Quantity}
	}
	return out
}

// Total sums the effective line totals. Zero for an empty cart.
func (a *Aggregate) Total() decimal.Decimal {
	total := decimal.Zero
	for _, line := range a.lines {
		total = total.Add(line.Total())
	}
	return total
}

// Count sums quantities across all lines.
func (a *Aggregate) Count() int {
	count := 0
	for _, line := range a.lines {
		count += line.Quantity
	}
	return count
}

// LineCount reports the number of distinct products.
func (a *Aggregate) LineCount() int {
	return len(a.lines)
}

func (a *Aggregate) indexOf(productID string) int {
	for i, line := range a.lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// persist rewrites the whole slot, or erases it when the cart is empty.
// Storage failure degrades persistence, never the in-memory state.
func (a *Aggregate) persist(ctx context.Context) {
	ctx = a.logg.WithCartSlot(ctx, a.slot)

	if len(a.lines) == 0 {
		if err := a.store.Erase(ctx, a.slot); err != nil {
			a.logg.Warn(ctx, "cart slot erase failed, in-memory state kept")
		}
		return
	}

	encoded, err := encodeLines(a.lines)
	if err != nil {
		a.logg.Error(ctx, "cart serialization failed", err)
		return
	}
	if err := a.store.Write(ctx, a.slot, encoded); err != nil {
		a.logg.Warn(ctx, "cart slot write failed, in-memory state kept")
	}
}

func encodeLines(lines []Line) (string, error) {
	raw, err := json.Marshal(lines)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func decodeLines(raw string) ([]Line, error) {
	var lines []Line
	if err := json.Unmarshal([]byte(raw), &lines); err != nil {
		return nil, err
	}
	for _, line := range lines {
		if line.Product.ID == "" || line.Quantity < 1 {
			return nil, fmt.Errorf("invalid cart line for product %q", line.Product.ID)
		}
	}
	return lines, nil
}
