package products

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marketmaster/marketmaster-backend/internal/cart"
	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
)

// Service exposes storefront reads and back-office writes for the catalog.
type Service interface {
	List(ctx context.Context, input ListInput) (*ListResult, error)
	Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error)
	Featured(ctx context.Context, limit int) ([]ProductDTO, error)
	Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*ProductDTO, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	SnapshotFor(ctx context.Context, id uuid.UUID) (cart.Product, error)
}

type service struct {
	repo Repository
}

// NewService builds a catalog service backed by the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("products repository required")
	}
	return &service{repo: repo}, nil
}

// CreateInput captures the admin/seller create payload.
type CreateInput struct {
	CategoryID      uuid.UUID
	Title           string
	Description     string
	Price           decimal.Decimal
	DiscountPercent *decimal.Decimal
	Stock           int
	Images          []string
	IsFeatured      bool
}

// UpdateInput captures the admin/seller update payload. Nil fields stay
// unchanged; ClearDiscount removes an existing discount.
type UpdateInput struct {
	CategoryID      *uuid.UUID
	Title           *string
	Description     *string
	Price           *decimal.Decimal
	DiscountPercent *decimal.Decimal
	ClearDiscount   bool
	Stock           *int
	Images          []string
	IsActive        *bool
	IsFeatured      *bool
}

func (s *service) List(ctx context.Context, input ListInput) (*ListResult, error) {
	result, err := s.repo.List(ctx, input)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list products")
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, id uuid.UUID) (*ProductDTO, error) {
	row, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*row)
	return &dto, nil
}

func (s *service) Featured(ctx context.Context, limit int) ([]ProductDTO, error) {
	rows, err := s.repo.ListFeatured(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list featured products")
	}
	dtos := make([]ProductDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toDTO(row)
	}
	return dtos, nil
}

func (s *service) Create(ctx context.Context, sellerID uuid.UUID, input CreateInput) (*ProductDTO, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller id is required")
	}
	if input.CategoryID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "title is required")
	}
	if input.Price.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
	}
	if err := validateDiscount(input.DiscountPercent); err != nil {
		return nil, err
	}
	if input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	created, err := s.repo.Create(ctx, &models.Product{
		SellerID:        sellerID,
		CategoryID:      input.CategoryID,
		Title:           title,
		Description:     strings.TrimSpace(input.Description),
		Price:           input.Price,
		DiscountPercent: input.DiscountPercent,
		Stock:           input.Stock,
		Images:          input.Images,
		IsActive:        true,
		IsFeatured:      input.IsFeatured,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create product")
	}
	dto := toDTO(*created)
	return &dto, nil
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateInput) (*ProductDTO, error) {
	row, err := s.findProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.CategoryID != nil {
		if *input.CategoryID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "category id cannot be empty")
		}
		row.CategoryID = *input.CategoryID
		row.Category = nil
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "title cannot be empty")
		}
		row.Title = title
	}
	if input.Description != nil {
		row.Description = strings.TrimSpace(*input.Description)
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price cannot be negative")
		}
		row.Price = *input.Price
	}
	if input.ClearDiscount {
		row.DiscountPercent = nil
	} else if input.DiscountPercent != nil {
		if err := validateDiscount(input.DiscountPercent); err != nil {
			return nil, err
		}
		row.DiscountPercent = input.DiscountPercent
	}
	if input.Stock != nil {
		if *input.Stock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		row.Stock = *input.Stock
	}
	if input.Images != nil {
		row.Images = input.Images
	}
	if input.IsActive != nil {
		row.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		row.IsFeatured = *input.IsFeatured
	}

	updated, err := s.repo.Update(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update product")
	}
	dto := toDTO(*updated)
	return &dto, nil
}

// Deactivate soft-deletes a listing. Order items keep their snapshots, so
// nothing else needs cleanup.
func (s *service) Deactivate(ctx context.Context, id uuid.UUID) error {
	row, err := s.findProduct(ctx, id)
	if err != nil {
		return err
	}
	if !row.IsActive {
		return nil
	}
	row.IsActive = false
	if _, err := s.repo.Update(ctx, row); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate product")
	}
	return nil
}

// SnapshotFor converts a live catalog row into the snapshot the cart stores.
// Inactive products cannot be added to a cart.
func (s *service) SnapshotFor(ctx context.Context, id uuid.UUID) (cart.Product, error) {
	row, err := s.findProduct(ctx, id)
	if err != nil {
		return cart.Product{}, err
	}
	if !row.IsActive {
		return cart.Product{}, pkgerrors.New(pkgerrors.CodeValidation, "product is not available")
	}
	return Snapshot(*row), nil
}

// Snapshot maps a catalog row to the cart's product snapshot shape.
func Snapshot(row models.Product) cart.Product {
	snapshot := cart.Product{
		ID:     row.ID.String(),
		Title:  row.Title,
		Price:  row.Price,
		Stock:  row.Stock,
		Images: append([]string(nil), row.Images...),
	}
	if row.DiscountPercent != nil {
		d := *row.DiscountPercent
		snapshot.Discount = &d
	}
	if row.Category != nil {
		snapshot.Category = row.Category.Name
	}
	return snapshot
}

func (s *service) findProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load product")
	}
	return row, nil
}

func validateDiscount(discount *decimal.Decimal) error {
	if discount == nil {
		return nil
	}
	if !discount.IsPositive() || discount.GreaterThan(decimal.NewFromInt(100)) {
		return pkgerrors.New(pkgerrors.CodeValidation, "discount percent must be between 0 and 100")
	}
	return nil
}
