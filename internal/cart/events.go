package cart

import (
	"context"

	"github.com/marketmaster/marketmaster-backend/pkg/logger"
)

type EventKind string

const (
	EventItemAdded       EventKind = "item_added"
	EventQuantityUpdated EventKind = "quantity_updated"
	EventItemRemoved     EventKind = "item_removed"
	EventCartCleared     EventKind = "cart_cleared"
)

// Event describes one completed cart mutation. Added and quantity-updated are
// distinct kinds so the client can word its toast accordingly.
type Event struct {
	Kind         EventKind `json:"kind"`
	ProductID    string    `json:"product_id,omitempty"`
	ProductTitle string    `json:"product_title,omitempty"`
	Quantity     int       `json:"quantity,omitempty"`
}

// Notifier receives an event after each mutation has been applied and
// persisted. Implementations must not fail the mutation.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// LogNotifier records cart events as structured log lines.
type LogNotifier struct {
	logg *logger.Logger
}

func NewLogNotifier(logg *logger.Logger) *LogNotifier {
	return &LogNotifier{logg: logg}
}

func (n *LogNotifier) Notify(ctx context.Context, event Event) {
	fields := map[string]any{"event": string(event.Kind)}
	if event.ProductID != "" {
		fields["product_id"] = event.ProductID
		fields["product_title"] = event.ProductTitle
		fields["quantity"] = event.Quantity
	}
	n.logg.Info(n.logg.WithFields(ctx, fields), "cart event")
}

// NopNotifier discards events.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Event) {}
