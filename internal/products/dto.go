package products

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	"github.com/marketmaster/marketmaster-backend/pkg/enums"
	"github.com/marketmaster/marketmaster-backend/pkg/pagination"
)

// ListFilters describe the filter knobs for the browse endpoint.
type ListFilters struct {
	CategorySlug string
	PriceMin     *decimal.Decimal
	PriceMax     *decimal.Decimal
	Discounted   *bool
	Query        string
}

// ListInput captures the inputs needed to paginate, filter, and sort the
// storefront listing.
type ListInput struct {
	Filters    ListFilters
	Sort       enums.ProductSort
	Pagination pagination.Params
	// IncludeInactive is only honored for admin and seller views.
	IncludeInactive bool
	SellerID        *uuid.UUID
}

// SellerSummary is the public shape of the product's seller.
type SellerSummary struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ProductDTO is the product shape returned by the API.
type ProductDTO struct {
	ID              uuid.UUID        `json:"id"`
	Title           string           `json:"title"`
	Description     string           `json:"description"`
	Price           decimal.Decimal  `json:"price"`
	DiscountPercent *decimal.Decimal `json:"discount_percent,omitempty"`
	Stock           int              `json:"stock"`
	Rating          float64          `json:"rating"`
	Images          []string         `json:"images"`
	IsActive        bool             `json:"is_active"`
	IsFeatured      bool             `json:"is_featured"`
	CategoryID      uuid.UUID        `json:"category_id"`
	CategoryName    string           `json:"category_name,omitempty"`
	CategorySlug    string           `json:"category_slug,omitempty"`
	Seller          SellerSummary    `json:"seller"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ListResult wraps the paginated products plus the next page cursor.
type ListResult struct {
	Products   []ProductDTO `json:"products"`
	NextCursor string       `json:"next_cursor,omitempty"`
}

func toDTO(row models.Product) ProductDTO {
	dto := ProductDTO{
		ID:              row.ID,
		Title:           row.Title,
		Description:     row.Description,
		Price:           row.Price,
		DiscountPercent: row.DiscountPercent,
		Stock:           row.Stock,
		Rating:          row.Rating,
		Images:          append([]string(nil), row.Images...),
		IsActive:        row.IsActive,
		IsFeatured:      row.IsFeatured,
		CategoryID:      row.CategoryID,
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
	if dto.Images == nil {
		dto.Images = []string{}
	}
	if row.Category != nil {
		dto.CategoryName = row.Category.Name
		dto.CategorySlug = row.Category.Slug
	}
	if row.Seller != nil {
		dto.Seller = SellerSummary{ID: row.Seller.ID, Name: row.Seller.Name}
	} else {
		dto.Seller = SellerSummary{ID: row.SellerID}
	}
	return dto
}
