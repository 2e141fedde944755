package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketmaster/marketmaster-backend/internal/cart"
	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	"github.com/marketmaster/marketmaster-backend/pkg/enums"
)

// ShippingDetails is the address block captured at checkout.
type ShippingDetails struct {
	Name       string  `json:"name"`
	Address    string  `json:"address"`
	City       string  `json:"city"`
	PostalCode string  `json:"postal_code"`
	Country    string  `json:"country"`
	Phone      *string `json:"phone,omitempty"`
}

// PlaceOrderInput consumes the caller's cart lines plus shipping details.
type PlaceOrderInput struct {
	UserID   uuid.UUID
	Shipping ShippingDetails
	Lines    []cart.Line
}

// OrderItemDTO is the wire shape of one snapshotted line.
type OrderItemDTO struct {
	ProductID       uuid.UUID        `json:"product_id"`
	Title           string           `json:"title"`
	UnitPrice       decimal.Decimal  `json:"unit_price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	Quantity        int              `json:"quantity"`
	LineTotal       decimal.Decimal  `json:"line_total"`
}

// OrderDTO is the wire shape of an order.
type OrderDTO struct {
	ID          uuid.UUID         `json:"id"`
	OrderNumber int64             `json:"order_number"`
	UserID      uuid.UUID         `json:"user_id"`
	Status      enums.OrderStatus `json:"status"`
	Subtotal    decimal.Decimal   `json:"subtotal"`
	Discount    decimal.Decimal   `json:"discount"`
	Total       decimal.Decimal   `json:"total"`
	Shipping    ShippingDetails   `json:"shipping"`
	Items       []OrderItemDTO    `json:"items"`
	CreatedAt   time.Time         `json:"created_at"`
}

// OrderList is a cursor page of orders.
type OrderList struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor string     `json:"next_cursor,omitempty"`
}

func toDTO(row models.Order) OrderDTO {
	items := make([]OrderItemDTO, len(row.Items))
	for i, item := range row.Items {
		items[i] = OrderItemDTO{
			ProductID:       item.ProductID,
			Title:           item.Title,
			UnitPrice:       item.UnitPrice,
			DiscountPercent: item.DiscountPercent,
			Quantity:        item.Quantity,
			LineTotal:       item.LineTotal,
		}
	}
	return OrderDTO{
		ID:          row.ID,
		OrderNumber: row.OrderNumber,
		UserID:      row.UserID,
		Status:      row.Status,
		Subtotal:    row.Subtotal,
		Discount:    row.Discount,
		Total:       row.Total,
		Shipping: ShippingDetails{
			Name:       row.ShippingName,
			Address:    row.ShippingAddress,
			City:       row.ShippingCity,
			PostalCode: row.ShippingPostalCode,
			Country:    row.ShippingCountry,
			Phone:      row.ShippingPhone,
		},
		Items:     items,
		CreatedAt: row.CreatedAt,
	}
}
