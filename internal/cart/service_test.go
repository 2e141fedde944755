package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/marketmaster/marketmaster-backend/pkg/kv"
)

type staticKeyer struct{}

func (staticKeyer) CartSlotKey(sessionKey string) string {
	return "mm:cart:" + sessionKey
}

func newTestService(t *testing.T, store kv.Store) *Service {
	t.Helper()
	svc, err := NewService(store, staticKeyer{}, testLogger(), NopNotifier{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestServiceSnapshotRoundsAtPresentation(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, kv.NewMemory())
	ctx := context.Background()

	product := Product{
		ID:       "p1",
		Title:    "Wireless Mouse",
		Price:    decimal.RequireFromString("19.99"),
		Discount: discountOf(15),
		Stock:    10,
		Category: "electronics",
	}

	snap, err := svc.AddItem(ctx, "sess-1", product, 3)
	if err != nil {
		t.Fatalf("add item: %v", err)
	}

	if len(snap.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(snap.Items))
	}
	// 19.99 * 0.85 = 16.9915, rounded to 16.99 for display only
	if want := decimal.RequireFromString("16.99"); !snap.Items[0].UnitPrice.Equal(want) {
		t.Fatalf("expected unit price %s, got %s", want, snap.Items[0].UnitPrice)
	}
	// 16.9915 * 3 = 50.9745, rounded once at the end to 50.97
	if want := decimal.RequireFromString("50.97"); !snap.Total.Equal(want) {
		t.Fatalf("expected total %s, got %s", want, snap.Total)
	}
	if snap.Count != 3 || snap.LineCount != 1 {
		t.Fatalf("unexpected counts: count=%d line_count=%d", snap.Count, snap.LineCount)
	}
}

func TestServiceSessionsAreIsolated(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, kv.NewMemory())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "sess-a", priceProduct("p1", 10, nil), 1); err != nil {
		t.Fatalf("add: %v", err)
	}

	snap, err := svc.Get(ctx, "sess-b")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.LineCount != 0 {
		t.Fatalf("session b must start empty, got %d lines", snap.LineCount)
	}
}

func TestServicePropagatesInvalidQuantity(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, kv.NewMemory())

	_, err := svc.AddItem(context.Background(), "sess-1", priceProduct("p1", 10, nil), 0)
	if !errors.Is(err, ErrInvalidQuantity) {
		t.Fatalf("expected ErrInvalidQuantity, got %v", err)
	}
}

func TestServiceMutationsPersistAcrossLoads(t *testing.T) {
	t.Parallel()

	store := kv.NewMemory()
	svc := newTestService(t, store)
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "sess-1", priceProduct("p1", 10, nil), 2); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.UpdateQuantity(ctx, "sess-1", "p1", 5); err != nil {
		t.Fatalf("update: %v", err)
	}

	snap, err := svc.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Count != 5 {
		t.Fatalf("expected persisted count 5, got %d", snap.Count)
	}

	if _, err := svc.Clear(ctx, "sess-1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if store.Len() != 0 {
		t.Fatalf("clear must erase the slot, %d entries remain", store.Len())
	}
}

func TestServiceMutationsCarryNotification(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, kv.NewMemory())
	ctx := context.Background()

	snap, err := svc.AddItem(ctx, "sess-1", priceProduct("p1", 10, nil), 2)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if snap.Notification == nil || snap.Notification.Kind != EventItemAdded {
		t.Fatalf("expected item_added notification, got %+v", snap.Notification)
	}

	// removing an absent product emits nothing
	snap, err = svc.RemoveItem(ctx, "sess-1", "missing")
	if err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if snap.Notification != nil {
		t.Fatalf("expected no notification for absent product, got %+v", snap.Notification)
	}

	snap, err = svc.Get(ctx, "sess-1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if snap.Notification != nil {
		t.Fatalf("reads must not carry notifications, got %+v", snap.Notification)
	}
}

func TestServiceLinesForCheckout(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, kv.NewMemory())
	ctx := context.Background()

	if _, err := svc.AddItem(ctx, "sess-1", priceProduct("p1", 50, nil), 1); err != nil {
		t.Fatalf("add p1: %v", err)
	}
	if _, err := svc.AddItem(ctx, "sess-1", priceProduct("p2", 20, discountOf(50)), 3); err != nil {
		t.Fatalf("add p2: %v", err)
	}

	lines, err := svc.Lines(ctx, "sess-1")
	if err != nil {
		t.Fatalf("lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}

	total := decimal.Zero
	for _, line := range lines {
		total = total.Add(line.Total())
	}
	if want := decimal.NewFromInt(80); !total.Equal(want) {
		t.Fatalf("expected checkout total %s, got %s", want, total)
	}
}
