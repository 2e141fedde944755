package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	dbtypes "github.com/marketmaster/marketmaster-backend/pkg/db/types"
	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
)

type productFinder interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type categoryFinder interface {
	ListByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Category, error)
}

// HomepageDTO is the wire shape of the homepage settings.
type HomepageDTO struct {
	HeroTitle           string      `json:"hero_title"`
	HeroSubtitle        string      `json:"hero_subtitle"`
	BannerImageURL      *string     `json:"banner_image_url,omitempty"`
	FeaturedCategoryIDs []uuid.UUID `json:"featured_category_ids"`
	FeaturedProductIDs  []uuid.UUID `json:"featured_product_ids"`
	UpdatedAt           time.Time   `json:"updated_at"`
}

// UpdateInput carries the admin homepage update. Nil fields stay unchanged.
type UpdateInput struct {
	HeroTitle           *string
	HeroSubtitle        *string
	BannerImageURL      *string
	FeaturedCategoryIDs []uuid.UUID
	FeaturedProductIDs  []uuid.UUID
}

// Service exposes the homepage settings.
type Service interface {
	Homepage(ctx context.Context) (*HomepageDTO, error)
	UpdateHomepage(ctx context.Context, input UpdateInput) (*HomepageDTO, error)
}

type service struct {
	repo       Repository
	products   productFinder
	categories categoryFinder
}

// NewService builds a content service. The product and category finders guard
// the featured id lists against dangling references.
func NewService(repo Repository, products productFinder, categories categoryFinder) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("content repository is required")
	}
	if products == nil {
		return nil, fmt.Errorf("product finder is required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category finder is required")
	}
	return &service{repo: repo, products: products, categories: categories}, nil
}

func (s *service) Homepage(ctx context.Context) (*HomepageDTO, error) {
	row, err := s.repo.GetHomepage(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "homepage content not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load homepage content")
	}
	return toDTO(row), nil
}

func (s *service) UpdateHomepage(ctx context.Context, input UpdateInput) (*HomepageDTO, error) {
	row, err := s.repo.GetHomepage(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			row = &models.HomepageContent{}
		} else {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load homepage content")
		}
	}

	if input.HeroTitle != nil {
		row.HeroTitle = strings.TrimSpace(*input.HeroTitle)
	}
	if input.HeroSubtitle != nil {
		row.HeroSubtitle = strings.TrimSpace(*input.HeroSubtitle)
	}
	if input.BannerImageURL != nil {
		if strings.TrimSpace(*input.BannerImageURL) == "" {
			row.BannerImageURL = nil
		} else {
			row.BannerImageURL = input.BannerImageURL
		}
	}
	if input.FeaturedCategoryIDs != nil {
		if err := s.checkCategories(ctx, input.FeaturedCategoryIDs); err != nil {
			return nil, err
		}
		row.FeaturedCategoryIDs = dbtypes.UUIDArray(input.FeaturedCategoryIDs)
	}
	if input.FeaturedProductIDs != nil {
		if err := s.checkProducts(ctx, input.FeaturedProductIDs); err != nil {
			return nil, err
		}
		row.FeaturedProductIDs = dbtypes.UUIDArray(input.FeaturedProductIDs)
	}

	saved, err := s.repo.SaveHomepage(ctx, row)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save homepage content")
	}
	return toDTO(saved), nil
}

func (s *service) checkCategories(ctx context.Context, ids []uuid.UUID) error {
	rows, err := s.categories.ListByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify featured categories")
	}
	found := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		found[row.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown featured category %s", id))
		}
	}
	return nil
}

func (s *service) checkProducts(ctx context.Context, ids []uuid.UUID) error {
	rows, err := s.products.ListByIDs(ctx, ids)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify featured products")
	}
	found := make(map[uuid.UUID]bool, len(rows))
	for _, row := range rows {
		found[row.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("unknown featured product %s", id))
		}
	}
	return nil
}

func toDTO(row *models.HomepageContent) *HomepageDTO {
	return &HomepageDTO{
		HeroTitle:           row.HeroTitle,
		HeroSubtitle:        row.HeroSubtitle,
		BannerImageURL:      row.BannerImageURL,
		FeaturedCategoryIDs: append([]uuid.UUID{}, row.FeaturedCategoryIDs...),
		FeaturedProductIDs:  append([]uuid.UUID{}, row.FeaturedProductIDs...),
		UpdatedAt:           row.UpdatedAt,
	}
}
