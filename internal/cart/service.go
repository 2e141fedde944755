package cart

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/marketmaster/marketmaster-backend/pkg/kv"
	"github.com/marketmaster/marketmaster-backend/pkg/logger"
)

type slotKeyer interface {
	CartSlotKey(sessionKey string) string
}

// Service is the session-facing facade over the aggregate: it binds a session
// key to its slot, applies at most one mutation, and returns a consistent
// snapshot. Product lookups happen upstream; the cart never consults the
// catalog itself.
type Service struct {
	store    kv.Store
	keyer    slotKeyer
	logg     *logger.Logger
	notifier Notifier
}

func NewService(store kv.Store, keyer slotKeyer, logg *logger.Logger, notifier Notifier) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("kv store is required")
	}
	if keyer == nil {
		return nil, fmt.Errorf("slot keyer is required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Service{store: store, keyer: keyer, logg: logg, notifier: notifier}, nil
}

// LineView is one cart line with presentation-rounded money fields.
type LineView struct {
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// Snapshot is the full cart view returned after every operation. Mutations
// attach the emitted event so the client can word its toast.
type Snapshot struct {
	Items        []LineView      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"count"`
	LineCount    int             `json:"line_count"`
	Notification *Event          `json:"notification,omitempty"`
}

// eventRecorder forwards events to the configured notifier while keeping the
// last one for the mutation response.
type eventRecorder struct {
	next Notifier
	last *Event
}

func (r *eventRecorder) Notify(ctx context.Context, event Event) {
	captured := event
	r.last = &captured
	r.next.Notify(ctx, event)
}

func (s *Service) load(ctx context.Context, sessionKey string) (*Aggregate, error) {
	if sessionKey == "" {
		return nil, fmt.Errorf("session key is required")
	}
	return NewAggregate(ctx, s.store, s.keyer.CartSlotKey(sessionKey), s.logg, s.notifier)
}

func (s *Service) loadRecorded(ctx context.Context, sessionKey string) (*Aggregate, *eventRecorder, error) {
	if sessionKey == "" {
		return nil, nil, fmt.Errorf("session key is required")
	}
	rec := &eventRecorder{next: s.notifier}
	agg, err := NewAggregate(ctx, s.store, s.keyer.CartSlotKey(sessionKey), s.logg, rec)
	if err != nil {
		return nil, nil, err
	}
	return agg, rec, nil
}

// Get returns the current cart without mutating it.
func (s *Service) Get(ctx context.Context, sessionKey string) (*Snapshot, error) {
	agg, err := s.load(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return snapshotOf(agg), nil
}

// AddItem merges the product into the cart and returns the updated view.
func (s *Service) AddItem(ctx context.Context, sessionKey string, product Product, quantity int) (*Snapshot, error) {
	agg, rec, err := s.loadRecorded(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	if _, err := agg.AddItem(ctx, product, quantity); err != nil {
		return nil, err
	}
	return snapshotWith(agg, rec), nil
}

// UpdateQuantity sets the absolute quantity for a product line.
func (s *Service) UpdateQuantity(ctx context.Context, sessionKey, productID string, quantity int) (*Snapshot, error) {
	agg, rec, err := s.loadRecorded(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	agg.UpdateQuantity(ctx, productID, quantity)
	return snapshotWith(agg, rec), nil
}

// RemoveItem drops a product line if present.
func (s *Service) RemoveItem(ctx context.Context, sessionKey, productID string) (*Snapshot, error) {
	agg, rec, err := s.loadRecorded(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	agg.RemoveItem(ctx, productID)
	return snapshotWith(agg, rec), nil
}

// Clear empties the cart and erases its slot.
func (s *Service) Clear(ctx context.Context, sessionKey string) (*Snapshot, error) {
	agg, rec, err := s.loadRecorded(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	agg.Clear(ctx)
	return snapshotWith(agg, rec), nil
}

// Lines exposes the raw line items for checkout; the order service recomputes
// and snapshots totals itself.
func (s *Service) Lines(ctx context.Context, sessionKey string) ([]Line, error) {
	agg, err := s.load(ctx, sessionKey)
	if err != nil {
		return nil, err
	}
	return agg.Lines(), nil
}

func snapshotOf(agg *Aggregate) *Snapshot {
	lines := agg.Lines()
	items := make([]LineView, len(lines))
	for i, line := range lines {
		items[i] = LineView{
			Product:   line.Product,
			Quantity:  line.Quantity,
			UnitPrice: EffectivePrice(line.Product).Round(2),
			LineTotal: line.Total().Round(2),
		}
	}
	return &Snapshot{
		Items:     items,
		Total:     agg.Total().Round(2),
		Count:     agg.Count(),
		LineCount: agg.LineCount(),
	}
}

func snapshotWith(agg *Aggregate, rec *eventRecorder) *Snapshot {
	snap := snapshotOf(agg)
	snap.Notification = rec.last
	return snap
}
