package products

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	"github.com/marketmaster/marketmaster-backend/pkg/enums"
	"github.com/marketmaster/marketmaster-backend/pkg/pagination"
)

// Repository defines persistence operations for the products table.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	List(ctx context.Context, input ListInput) (*ListResult, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ListFeatured(ctx context.Context, limit int) ([]models.Product, error)
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
	Create(ctx context.Context, product *models.Product) (*models.Product, error)
	Update(ctx context.Context, product *models.Product) (*models.Product, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a products repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) List(ctx context.Context, input ListInput) (*ListResult, error) {
	pageSize := pagination.NormalizeLimit(input.Pagination.Limit)
	limitWithBuffer := pagination.LimitWithBuffer(input.Pagination.Limit)

	qb := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Category").
		Preload("Seller").
		Joins("JOIN categories c ON c.id = products.category_id")

	if !input.IncludeInactive {
		qb = qb.Where("products.is_active = ?", true)
	}
	if input.SellerID != nil {
		qb = qb.Where("products.seller_id = ?", *input.SellerID)
	}

	filter := input.Filters
	if slug := strings.TrimSpace(filter.CategorySlug); slug != "" {
		qb = qb.Where("c.slug = ?", slug)
	}
	if filter.PriceMin != nil {
		qb = qb.Where("products.price >= ?", *filter.PriceMin)
	}
	if filter.PriceMax != nil {
		qb = qb.Where("products.price <= ?", *filter.PriceMax)
	}
	if filter.Discounted != nil {
		if *filter.Discounted {
			qb = qb.Where("products.discount_percent IS NOT NULL AND products.discount_percent > 0")
		} else {
			qb = qb.Where("products.discount_percent IS NULL OR products.discount_percent = 0")
		}
	}
	if search := strings.TrimSpace(filter.Query); search != "" {
		pattern := "%" + strings.ToLower(search) + "%"
		qb = qb.Where("(LOWER(products.title) LIKE ? OR LOWER(products.description) LIKE ?)", pattern, pattern)
	}

	// The opaque cursor encodes (created_at, id); it only composes with the
	// newest-first ordering. Other sorts return a single bounded page.
	sort := input.Sort
	if !sort.IsValid() {
		sort = enums.ProductSortNewest
	}
	switch sort {
	case enums.ProductSortNewest:
		cursor, err := pagination.ParseCursor(input.Pagination.Cursor)
		if err != nil {
			return nil, err
		}
		if cursor != nil {
			qb = qb.Where(
				"(products.created_at < ?) OR (products.created_at = ? AND products.id < ?)",
				cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
			)
		}
		qb = qb.Order("products.created_at DESC").Order("products.id DESC").Limit(limitWithBuffer)

	case enums.ProductSortPriceAsc:
		qb = qb.Order("products.price ASC").Order("products.id ASC").Limit(pageSize)
	case enums.ProductSortPriceDesc:
		qb = qb.Order("products.price DESC").Order("products.id ASC").Limit(pageSize)
	case enums.ProductSortRating:
		qb = qb.Order("products.rating DESC").Order("products.id ASC").Limit(pageSize)
	}

	var rows []models.Product
	if err := qb.Find(&rows).Error; err != nil {
		return nil, err
	}

	nextCursor := ""
	if sort == enums.ProductSortNewest && len(rows) > pageSize {
		rows = rows[:pageSize]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}

	dtos := make([]ProductDTO, len(rows))
	for i, row := range rows {
		dtos[i] = toDTO(row)
	}

	return &ListResult{Products: dtos, NextCursor: nextCursor}, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Seller").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) ListFeatured(ctx context.Context, limit int) ([]models.Product, error) {
	if limit <= 0 {
		limit = pagination.DefaultLimit
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Seller").
		Where("is_featured = ? AND is_active = ?", true, true).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Seller").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) Create(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Create(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

func (r *repository) Update(ctx context.Context, product *models.Product) (*models.Product, error) {
	if err := r.db.WithContext(ctx).Save(product).Error; err != nil {
		return nil, err
	}
	return product, nil
}

// DecrementStock atomically reduces stock, failing when fewer than qty units
// remain. Runs inside the checkout transaction.
func (r *repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	result := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("insufficient stock for product %s", id)
	}
	return nil
}
