package content

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	dbtypes "github.com/marketmaster/marketmaster-backend/pkg/db/types"
	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
)

type stubContentRepo struct {
	row *models.HomepageContent
}

func (s *stubContentRepo) GetHomepage(_ context.Context) (*models.HomepageContent, error) {
	if s.row == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.row, nil
}

func (s *stubContentRepo) SaveHomepage(_ context.Context, row *models.HomepageContent) (*models.HomepageContent, error) {
	row.ID = 1
	s.row = row
	return row, nil
}

type stubProductFinder struct {
	known map[uuid.UUID]bool
}

func (s *stubProductFinder) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.Product, error) {
	var rows []models.Product
	for _, id := range ids {
		if s.known[id] {
			rows = append(rows, models.Product{ID: id})
		}
	}
	return rows, nil
}

type stubCategoryFinder struct {
	known map[uuid.UUID]bool
}

func (s *stubCategoryFinder) ListByIDs(_ context.Context, ids []uuid.UUID) ([]models.Category, error) {
	var rows []models.Category
	for _, id := range ids {
		if s.known[id] {
			rows = append(rows, models.Category{ID: id})
		}
	}
	return rows, nil
}

func newContentFixture(t *testing.T, knownProducts, knownCategories []uuid.UUID) (Service, *stubContentRepo) {
	t.Helper()

	repo := &stubContentRepo{
		row: &models.HomepageContent{
			ID:           1,
			HeroTitle:    "Welcome",
			HeroSubtitle: "Shop everything",
		},
	}
	products := &stubProductFinder{known: map[uuid.UUID]bool{}}
	for _, id := range knownProducts {
		products.known[id] = true
	}
	categories := &stubCategoryFinder{known: map[uuid.UUID]bool{}}
	for _, id := range knownCategories {
		categories.known[id] = true
	}

	svc, err := NewService(repo, products, categories)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo
}

func TestUpdateHomepageKeepsUnsetFields(t *testing.T) {
	t.Parallel()

	svc, _ := newContentFixture(t, nil, nil)

	subtitle := "New arrivals daily"
	dto, err := svc.UpdateHomepage(context.Background(), UpdateInput{HeroSubtitle: &subtitle})
	if err != nil {
		t.Fatalf("update homepage: %v", err)
	}
	if dto.HeroTitle != "Welcome" {
		t.Fatalf("unset hero title must survive, got %q", dto.HeroTitle)
	}
	if dto.HeroSubtitle != "New arrivals daily" {
		t.Fatalf("subtitle not applied: %q", dto.HeroSubtitle)
	}
}

func TestUpdateHomepageRejectsUnknownFeaturedProduct(t *testing.T) {
	t.Parallel()

	known := uuid.New()
	svc, _ := newContentFixture(t, []uuid.UUID{known}, nil)

	_, err := svc.UpdateHomepage(context.Background(), UpdateInput{
		FeaturedProductIDs: []uuid.UUID{known, uuid.New()},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateHomepageStoresFeaturedCategories(t *testing.T) {
	t.Parallel()

	a, b := uuid.New(), uuid.New()
	svc, repo := newContentFixture(t, nil, []uuid.UUID{a, b})

	dto, err := svc.UpdateHomepage(context.Background(), UpdateInput{
		FeaturedCategoryIDs: []uuid.UUID{a, b},
	})
	if err != nil {
		t.Fatalf("update homepage: %v", err)
	}
	if len(dto.FeaturedCategoryIDs) != 2 {
		t.Fatalf("expected 2 featured categories, got %d", len(dto.FeaturedCategoryIDs))
	}
	if len(repo.row.FeaturedCategoryIDs) != 2 {
		t.Fatalf("featured categories not persisted")
	}
}

func TestUpdateHomepageClearsBanner(t *testing.T) {
	t.Parallel()

	svc, repo := newContentFixture(t, nil, nil)
	banner := "https://cdn.example.com/banner.png"
	repo.row.BannerImageURL = &banner

	empty := ""
	dto, err := svc.UpdateHomepage(context.Background(), UpdateInput{BannerImageURL: &empty})
	if err != nil {
		t.Fatalf("update homepage: %v", err)
	}
	if dto.BannerImageURL != nil {
		t.Fatalf("banner must be cleared, got %q", *dto.BannerImageURL)
	}
}

func TestHomepageMissingRowIsNotFound(t *testing.T) {
	t.Parallel()

	svc, repo := newContentFixture(t, nil, nil)
	repo.row = nil

	_, err := svc.Homepage(context.Background())
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestHomepageReturnsSeededRow(t *testing.T) {
	t.Parallel()

	svc, repo := newContentFixture(t, nil, nil)
	repo.row.FeaturedProductIDs = dbtypes.UUIDArray{uuid.New()}

	dto, err := svc.Homepage(context.Background())
	if err != nil {
		t.Fatalf("homepage: %v", err)
	}
	if dto.HeroTitle != "Welcome" || len(dto.FeaturedProductIDs) != 1 {
		t.Fatalf("unexpected dto: %+v", dto)
	}
}
