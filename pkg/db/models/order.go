package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketmaster/marketmaster-backend/pkg/enums"
)

// Order is the authoritative record created from the cart snapshot at
// checkout.
type Order struct {
	ID          uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber int64             `gorm:"column:order_number;autoIncrement;uniqueIndex"`
	UserID      uuid.UUID         `gorm:"column:user_id;type:uuid;not null;index"`
	Status      enums.OrderStatus `gorm:"column:status;type:text;not null;default:'pending'"`
	Subtotal    decimal.Decimal   `gorm:"column:subtotal;type:numeric(12,2);not null"`
	Discount    decimal.Decimal   `gorm:"column:discount;type:numeric(12,2);not null;default:0"`
	Total       decimal.Decimal   `gorm:"column:total;type:numeric(12,2);not null"`

	ShippingName       string  `gorm:"column:shipping_name;not null"`
	ShippingAddress    string  `gorm:"column:shipping_address;not null"`
	ShippingCity       string  `gorm:"column:shipping_city;not null"`
	ShippingPostalCode string  `gorm:"column:shipping_postal_code;not null"`
	ShippingCountry    string  `gorm:"column:shipping_country;not null"`
	ShippingPhone      *string `gorm:"column:shipping_phone"`

	Items     []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time   `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderItem snapshots one cart line at checkout time. Product data is copied,
// not referenced, so later catalog edits never rewrite order history.
type OrderItem struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID         uuid.UUID        `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID       uuid.UUID        `gorm:"column:product_id;type:uuid;not null"`
	Title           string           `gorm:"column:title;not null"`
	UnitPrice       decimal.Decimal  `gorm:"column:unit_price;type:numeric(12,2);not null"`
	DiscountPercent *decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2)"`
	Quantity        int              `gorm:"column:quantity;not null"`
	LineTotal       decimal.Decimal  `gorm:"column:line_total;type:numeric(12,2);not null"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
}
