package products

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	"github.com/marketmaster/marketmaster-backend/pkg/enums"
	"github.com/marketmaster/marketmaster-backend/pkg/pagination"
)

func setupProductsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// unique shared-cache name so the pool's connections see one database
	// while tests stay isolated from each other
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	users := `
CREATE TABLE IF NOT EXISTS users (
  id TEXT PRIMARY KEY,
  email TEXT NOT NULL UNIQUE,
  password_hash TEXT NOT NULL,
  name TEXT NOT NULL,
  avatar_url TEXT,
  role TEXT NOT NULL DEFAULT 'customer',
  is_active INTEGER NOT NULL DEFAULT 1,
  last_login_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	categories := `
CREATE TABLE IF NOT EXISTS categories (
  id TEXT PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  slug TEXT NOT NULL UNIQUE,
  icon TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
	products := `
CREATE TABLE IF NOT EXISTS products (
  id TEXT PRIMARY KEY,
  seller_id TEXT NOT NULL,
  category_id TEXT NOT NULL,
  title TEXT NOT NULL,
  description TEXT NOT NULL DEFAULT '',
  price NUMERIC NOT NULL,
  discount_percent NUMERIC,
  stock INTEGER NOT NULL DEFAULT 0,
  rating NUMERIC NOT NULL DEFAULT 0,
  images TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  is_featured INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`
	require.NoError(t, db.Exec(users).Error)
	require.NoError(t, db.Exec(categories).Error)
	require.NoError(t, db.Exec(products).Error)
	return db
}

func seedSeller(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()

	seller := &models.User{
		ID:           uuid.New(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
		Name:         "Acme Supply",
		Role:         enums.UserRoleSeller,
		IsActive:     true,
	}
	require.NoError(t, db.Create(seller).Error)
	return seller
}

func seedCategory(t *testing.T, db *gorm.DB, name, slug string) *models.Category {
	t.Helper()

	category := &models.Category{ID: uuid.New(), Name: name, Slug: slug}
	require.NoError(t, db.Create(category).Error)
	return category
}

func seedProduct(t *testing.T, db *gorm.DB, seller *models.User, category *models.Category, title string, price int64, createdAt time.Time) *models.Product {
	t.Helper()

	product := &models.Product{
		ID:         uuid.New(),
		SellerID:   seller.ID,
		CategoryID: category.ID,
		Title:      title,
		Price:      decimal.NewFromInt(price),
		Stock:      10,
		IsActive:   true,
		CreatedAt:  createdAt,
		UpdatedAt:  createdAt,
	}
	require.NoError(t, db.Create(product).Error)
	return product
}

func TestListFiltersByCategorySlug(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := seedSeller(t, db)
	electronics := seedCategory(t, db, "Electronics", "electronics")
	garden := seedCategory(t, db, "Garden", "garden")
	now := time.Now().UTC()

	seedProduct(t, db, seller, electronics, "Mouse", 25, now)
	seedProduct(t, db, seller, garden, "Shovel", 15, now.Add(time.Second))

	result, err := repo.List(ctx, ListInput{
		Filters: ListFilters{CategorySlug: "electronics"},
	})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Mouse", result.Products[0].Title)
	assert.Equal(t, "electronics", result.Products[0].CategorySlug)
	assert.Equal(t, seller.Name, result.Products[0].Seller.Name)
}

func TestListHidesInactiveByDefault(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := seedSeller(t, db)
	category := seedCategory(t, db, "Electronics", "electronics")
	now := time.Now().UTC()

	seedProduct(t, db, seller, category, "Visible", 25, now)
	hidden := seedProduct(t, db, seller, category, "Hidden", 30, now)
	require.NoError(t, db.Model(hidden).Update("is_active", false).Error)

	result, err := repo.List(ctx, ListInput{})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Visible", result.Products[0].Title)

	all, err := repo.List(ctx, ListInput{IncludeInactive: true})
	require.NoError(t, err)
	assert.Len(t, all.Products, 2)
}

func TestListSortsByPrice(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := seedSeller(t, db)
	category := seedCategory(t, db, "Electronics", "electronics")
	now := time.Now().UTC()

	seedProduct(t, db, seller, category, "Mid", 50, now)
	seedProduct(t, db, seller, category, "Cheap", 10, now)
	seedProduct(t, db, seller, category, "Dear", 90, now)

	result, err := repo.List(ctx, ListInput{Sort: enums.ProductSortPriceAsc})
	require.NoError(t, err)
	require.Len(t, result.Products, 3)
	assert.Equal(t, "Cheap", result.Products[0].Title)
	assert.Equal(t, "Dear", result.Products[2].Title)
	assert.Empty(t, result.NextCursor)
}

func TestListNewestPaginatesWithCursor(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := seedSeller(t, db)
	category := seedCategory(t, db, "Electronics", "electronics")
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		seedProduct(t, db, seller, category, "Item", 10, base.Add(time.Duration(i)*time.Minute))
	}

	first, err := repo.List(ctx, ListInput{
		Sort:       enums.ProductSortNewest,
		Pagination: pagination.Params{Limit: 2},
	})
	require.NoError(t, err)
	require.Len(t, first.Products, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, ListInput{
		Sort:       enums.ProductSortNewest,
		Pagination: pagination.Params{Limit: 2, Cursor: first.NextCursor},
	})
	require.NoError(t, err)
	require.Len(t, second.Products, 2)

	// no overlap between pages
	seen := map[uuid.UUID]bool{}
	for _, p := range append(first.Products, second.Products...) {
		assert.False(t, seen[p.ID], "duplicate product across pages")
		seen[p.ID] = true
	}
}

func TestListSearchMatchesTitle(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := seedSeller(t, db)
	category := seedCategory(t, db, "Electronics", "electronics")
	now := time.Now().UTC()

	seedProduct(t, db, seller, category, "Wireless Mouse", 25, now)
	seedProduct(t, db, seller, category, "Keyboard", 45, now)

	result, err := repo.List(ctx, ListInput{Filters: ListFilters{Query: "mouse"}})
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Wireless Mouse", result.Products[0].Title)
}

func TestDecrementStockGuardsAgainstOverselling(t *testing.T) {
	db := setupProductsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	seller := seedSeller(t, db)
	category := seedCategory(t, db, "Electronics", "electronics")
	product := seedProduct(t, db, seller, category, "Mouse", 25, time.Now().UTC())

	require.NoError(t, repo.DecrementStock(ctx, product.ID, 4))

	var remaining models.Product
	require.NoError(t, db.First(&remaining, "id = ?", product.ID).Error)
	assert.Equal(t, 6, remaining.Stock)

	err := repo.DecrementStock(ctx, product.ID, 7)
	require.Error(t, err)
	require.NoError(t, db.First(&remaining, "id = ?", product.ID).Error)
	assert.Equal(t, 6, remaining.Stock)
}
