package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Product represents a seller's catalog listing. Prices are numeric(12,2);
// DiscountPercent is a whole-number percentage (0-100) or NULL.
type Product struct {
	ID              uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID        uuid.UUID        `gorm:"column:seller_id;type:uuid;not null"`
	Seller          *User            `gorm:"foreignKey:SellerID"`
	CategoryID      uuid.UUID        `gorm:"column:category_id;type:uuid;not null"`
	Category        *Category        `gorm:"foreignKey:CategoryID"`
	Title           string           `gorm:"column:title;not null"`
	Description     string           `gorm:"column:description;not null;default:''"`
	Price           decimal.Decimal  `gorm:"column:price;type:numeric(12,2);not null"`
	DiscountPercent *decimal.Decimal `gorm:"column:discount_percent;type:numeric(5,2)"`
	Stock           int              `gorm:"column:stock;not null;default:0"`
	Rating          float64          `gorm:"column:rating;type:numeric(3,2);not null;default:0"`
	Images          pq.StringArray   `gorm:"column:images;type:text[];not null;default:ARRAY[]::text[]"`
	IsActive        bool             `gorm:"column:is_active;not null;default:true"`
	IsFeatured      bool             `gorm:"column:is_featured;not null;default:false"`
	CreatedAt       time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
