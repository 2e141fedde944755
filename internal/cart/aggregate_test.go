package cart

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marketmaster/marketmaster-backend/pkg/kv"
	"github.com/marketmaster/marketmaster-backend/pkg/logger"
)

const testSlot = "mm:cart:test-session"

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
}

func mustAggregate(t *testing.T, store kv.Store, notifier Notifier) *Aggregate {
	t.Helper()
	agg, err := NewAggregate(context.Background(), store, testSlot, testLogger(), notifier)
	if err != nil {
		t.Fatalf("new aggregate: %v", err)
	}
	return agg
}

func discountOf(value int64) *decimal.Decimal {
	d := decimal.NewFromInt(value)
	return &d
}

func priceProduct(id string, price int64, discount *decimal.Decimal) Product {
	return Product{
		ID:       id,
		Title:    "Product " + id,
		Price:    decimal.NewFromInt(price),
		Discount: discount,
		Stock:    100,
		Category: "general",
	}
}

type recordingNotifier struct {
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, event Event) {
	r.events = append(r.events, event)
}

type failingStore struct{}

func (failingStore) Read(context.Context, string) (string, bool, error) {
	return "", false, errors.New("store down")
}

func (failingStore) Write(context.Context, string, string) error {
	return errors.New("store down")
}

func (failingStore) Erase(context.Context, string) error {
	return errors.New("store down")
}

func TestAddItemMergesIntoExistingLine(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, kv.NewMemory(), nil)
	ctx := context.Background()
	p := priceProduct("p1", 10, nil)

	line, err := agg.AddItem(ctx, p, 2)
	if err != nil {
		t.Fatalf("first add: %v", err)
	}
	if line.Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", line.Quantity)
	}

	line, err = agg.AddItem(ctx, p, 3)
	if err != nil {
		t.Fatalf("second add: %v", err)
	}
	if line.Quantity != 5 {
		t.Fatalf("expected merged quantity 5, got %d", line.Quantity)
	}
	if agg.LineCount() != 1 {
		t.Fatalf("expected exactly one line, got %d", agg.LineCount())
	}
}

func TestAddItemRejectsNonPositiveQuantity(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, kv.NewMemory(), nil)
	ctx := context.Background()

	for _, qty := range []int{0, -1} {
		if _, err := agg.AddItem(ctx, priceProduct("p1", 10, nil), qty); !errors.Is(err, ErrInvalidQuantity) {
			t.Fatalf("qty %d: expected ErrInvalidQuantity, got %v", qty, err)
		}
	}
	if agg.LineCount() != 0 {
		t.Fatalf("rejected add must not create lines, got %d", agg.LineCount())
	}
}

func TestUpdateQuantityIsAbsoluteWhileAddIsAdditive(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := priceProduct("p1", 10, nil)

	agg := mustAggregate(t, kv.NewMemory(), nil)
	if _, err := agg.AddItem(ctx, p, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	agg.UpdateQuantity(ctx, "p1", 5)
	if got := agg.Lines()[0].Quantity; got != 5 {
		t.Fatalf("update must replace, expected 5 got %d", got)
	}

	agg = mustAggregate(t, kv.NewMemory(), nil)
	if _, err := agg.AddItem(ctx, p, 3); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := agg.AddItem(ctx, p, 5); err != nil {
		t.Fatalf("add: %v", err)
	}
	if got := agg.Lines()[0].Quantity; got != 8 {
		t.Fatalf("add must accumulate, expected 8 got %d", got)
	}
}

func TestUpdateQuantityNonPositiveRemovesLine(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, kv.NewMemory(), nil)
	ctx := context.Background()

	if _, err := agg.AddItem(ctx, priceProduct("p1", 10, nil), 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	agg.UpdateQuantity(ctx, "p1", 0)
	if agg.LineCount() != 0 {
		t.Fatalf("expected empty cart, got %d lines", agg.LineCount())
	}
}

func TestUpdateQuantityNeverCreatesLines(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, kv.NewMemory(), nil)
	agg.UpdateQuantity(context.Background(), "ghost", 4)
	if agg.LineCount() != 0 {
		t.Fatalf("update on unknown product must be a no-op, got %d lines", agg.LineCount())
	}
}

func TestRemoveItemAbsentIsNoop(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	agg := mustAggregate(t, kv.NewMemory(), notifier)

	agg.RemoveItem(context.Background(), "ghost")
	if len(notifier.events) != 0 {
		t.Fatalf("no event expected for absent product, got %v", notifier.events)
	}
}

func TestPersistedCartRoundTrips(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	ctx := context.Background()

	agg := mustAggregate(t, store, nil)
	if _, err := agg.AddItem(ctx, priceProduct("p1", 50, nil), 1); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if _, err := agg.AddItem(ctx, priceProduct("p2", 20, discountOf(50)), 3); err != nil {
		t.Fatalf("add p2: %v", err)
	}

	restored := mustAggregate(t, store, nil)
	lines := restored.Lines()
	if len(lines) != 2 {
		t.Fatalf("expected 2 restored lines, got %d", len(lines))
	}
	if lines[0].Product.ID != "p1" || lines[1].Product.ID != "p2" {
		t.Fatalf("insertion order lost: %s, %s", lines[0].Product.ID, lines[1].Product.ID)
	}
	if lines[0].Quantity != 1 || lines[1].Quantity != 3 {
		t.Fatalf("quantities lost: %d, %d", lines[0].Quantity, lines[1].Quantity)
	}
	if lines[0].Product.Discount != nil {
		t.Fatal("absent discount must stay absent after round trip")
	}
	if lines[1].Product.Discount == nil || !lines[1].Product.Discount.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("discount lost in round trip: %v", lines[1].Product.Discount)
	}
}

func TestTotalAppliesDiscount(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, kv.NewMemory(), nil)
	if _, err := agg.AddItem(context.Background(), priceProduct("p1", 100, discountOf(20)), 2); err != nil {
		t.Fatalf("add: %v", err)
	}

	want := decimal.NewFromInt(160)
	if got := agg.Total(); !got.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, got)
	}
}

func TestCountVersusLineCount(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, kv.NewMemory(), nil)
	ctx := context.Background()

	if _, err := agg.AddItem(ctx, priceProduct("p1", 10, nil), 3); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if _, err := agg.AddItem(ctx, priceProduct("p2", 10, nil), 4); err != nil {
		t.Fatalf("add p2: %v", err)
	}

	if got := agg.Count(); got != 7 {
		t.Fatalf("expected summed count 7, got %d", got)
	}
	if got := agg.LineCount(); got != 2 {
		t.Fatalf("expected 2 distinct lines, got %d", got)
	}
}

func TestClearErasesSlot(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	ctx := context.Background()

	agg := mustAggregate(t, store, nil)
	if _, err := agg.AddItem(ctx, priceProduct("p1", 10, nil), 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	agg.Clear(ctx)

	if store.Len() != 0 {
		t.Fatalf("clear must erase the slot, store still holds %d entries", store.Len())
	}

	fresh := mustAggregate(t, store, nil)
	if fresh.LineCount() != 0 {
		t.Fatalf("fresh aggregate restored %d phantom lines", fresh.LineCount())
	}
}

func TestEmptyCartTotalIsZero(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, kv.NewMemory(), nil)
	if got := agg.Total(); !got.IsZero() {
		t.Fatalf("expected zero total, got %s", got)
	}
}

func TestStorefrontScenario(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, kv.NewMemory(), nil)
	ctx := context.Background()

	if _, err := agg.AddItem(ctx, priceProduct("p1", 50, nil), 1); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if _, err := agg.AddItem(ctx, priceProduct("p2", 20, discountOf(50)), 3); err != nil {
		t.Fatalf("add p2: %v", err)
	}

	if got := agg.Count(); got != 4 {
		t.Fatalf("expected count 4, got %d", got)
	}
	if got := agg.LineCount(); got != 2 {
		t.Fatalf("expected 2 lines, got %d", got)
	}
	if want := decimal.NewFromInt(80); !agg.Total().Equal(want) {
		t.Fatalf("expected total %s, got %s", want, agg.Total())
	}

	agg.UpdateQuantity(ctx, "p1", 0)

	if got := agg.LineCount(); got != 1 {
		t.Fatalf("expected 1 line after removal, got %d", got)
	}
	if got := agg.Count(); got != 3 {
		t.Fatalf("expected count 3 after removal, got %d", got)
	}
	if want := decimal.NewFromInt(30); !agg.Total().Equal(want) {
		t.Fatalf("expected total %s, got %s", want, agg.Total())
	}
}

func TestCorruptPayloadDegradesToEmpty(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	ctx := context.Background()
	if err := store.Write(ctx, testSlot, "{not json"); err != nil {
		t.Fatalf("seed corrupt payload: %v", err)
	}

	agg := mustAggregate(t, store, nil)
	if agg.LineCount() != 0 {
		t.Fatalf("corrupt payload must yield empty cart, got %d lines", agg.LineCount())
	}
}

func TestInvalidLinePayloadDegradesToEmpty(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	ctx := context.Background()
	// well-formed JSON, but a quantity below 1 is not a valid cart line
	if err := store.Write(ctx, testSlot, `[{"product":{"id":"p1","price":"10"},"quantity":0}]`); err != nil {
		t.Fatalf("seed payload: %v", err)
	}

	agg := mustAggregate(t, store, nil)
	if agg.LineCount() != 0 {
		t.Fatalf("invalid line must yield empty cart, got %d lines", agg.LineCount())
	}
}

func TestStorageFailureKeepsInMemoryState(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, failingStore{}, nil)
	ctx := context.Background()

	line, err := agg.AddItem(ctx, priceProduct("p1", 10, nil), 2)
	if err != nil {
		t.Fatalf("add must succeed despite storage failure: %v", err)
	}
	if line.Quantity != 2 || agg.LineCount() != 1 {
		t.Fatalf("in-memory mutation lost: quantity=%d lines=%d", line.Quantity, agg.LineCount())
	}

	agg.Clear(ctx)
	if agg.LineCount() != 0 {
		t.Fatalf("clear must empty in-memory state, got %d lines", agg.LineCount())
	}
}

func TestAddItemEventsDistinguishAddFromUpdate(t *testing.T) {
	t.Parallel()

	notifier := &recordingNotifier{}
	agg := mustAggregate(t, kv.NewMemory(), notifier)
	ctx := context.Background()
	p := priceProduct("p1", 10, nil)

	if _, err := agg.AddItem(ctx, p, 1); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := agg.AddItem(ctx, p, 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	agg.RemoveItem(ctx, "p1")
	agg.Clear(ctx)

	kinds := make([]EventKind, len(notifier.events))
	for i, event := range notifier.events {
		kinds[i] = event.Kind
	}
	want := []EventKind{EventItemAdded, EventQuantityUpdated, EventItemRemoved, EventCartCleared}
	if len(kinds) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), kinds)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Fatalf("event %d: expected %s, got %s", i, want[i], kinds[i])
		}
	}

	removed := notifier.events[2]
	if removed.ProductID != "p1" || removed.ProductTitle == "" {
		t.Fatalf("removal event must name the product, got %+v", removed)
	}
}

func TestSnapshotIsolatesCallerMutations(t *testing.T) {
	t.Parallel()

	agg := mustAggregate(t, kv.NewMemory(), nil)
	ctx := context.Background()

	source := priceProduct("p1", 100, discountOf(20))
	source.Images = []string{"a.jpg"}
	if _, err := agg.AddItem(ctx, source, 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	// mutate the caller's product after adding; the cart keeps its snapshot
	source.Price = decimal.NewFromInt(999)
	source.Images[0] = "b.jpg"
	*source.Discount = decimal.NewFromInt(90)

	line := agg.Lines()[0]
	if !line.Product.Price.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("price snapshot lost: %s", line.Product.Price)
	}
	if line.Product.Images[0] != "a.jpg" {
		t.Fatalf("images snapshot lost: %s", line.Product.Images[0])
	}
	if !line.Product.Discount.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("discount snapshot lost: %s", line.Product.Discount)
	}
}
