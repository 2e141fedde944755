package categories

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
)

type stubRepo struct {
	Repository
	rows         map[uuid.UUID]*models.Category
	productCount int64
	deleted      []uuid.UUID
}

func newStubRepo() *stubRepo {
	return &stubRepo{rows: map[uuid.UUID]*models.Category{}}
}

func (s *stubRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Category, error) {
	row, ok := s.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return row, nil
}

func (s *stubRepo) Create(_ context.Context, category *models.Category) (*models.Category, error) {
	category.ID = uuid.New()
	s.rows[category.ID] = category
	return category, nil
}

func (s *stubRepo) Update(_ context.Context, category *models.Category) (*models.Category, error) {
	s.rows[category.ID] = category
	return category, nil
}

func (s *stubRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.rows, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRepo) CountProducts(_ context.Context, _ uuid.UUID) (int64, error) {
	return s.productCount, nil
}

func TestSlugify(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Electronics":       "electronics",
		"Home & Garden":     "home-garden",
		"  Toys / Games  ":  "toys-games",
		"Déjà":              "d-j",
		"---":               "",
		"Books, Music, Art": "books-music-art",
	}
	for input, want := range cases {
		if got := Slugify(input); got != want {
			t.Errorf("Slugify(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestCreateRejectsEmptyName(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Create(context.Background(), CreateInput{Name: "   "})
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCreateGeneratesSlug(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	dto, err := svc.Create(context.Background(), CreateInput{Name: "Home & Garden"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if dto.Slug != "home-garden" {
		t.Fatalf("expected slug home-garden, got %q", dto.Slug)
	}
}

func TestDeleteBlockedWhileProductsRemain(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	repo.productCount = 3
	id := uuid.New()
	repo.rows[id] = &models.Category{ID: id, Name: "Electronics", Slug: "electronics"}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	err = svc.Delete(context.Background(), id)
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected conflict error, got %v", err)
	}
	if len(repo.deleted) != 0 {
		t.Fatal("category must not be deleted while products reference it")
	}
}

func TestDeleteRemovesEmptyCategory(t *testing.T) {
	t.Parallel()

	repo := newStubRepo()
	id := uuid.New()
	repo.rows[id] = &models.Category{ID: id, Name: "Electronics", Slug: "electronics"}

	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	if err := svc.Delete(context.Background(), id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != id {
		t.Fatalf("expected delete of %s, got %v", id, repo.deleted)
	}
}

func TestGetUnknownCategoryIsNotFound(t *testing.T) {
	t.Parallel()

	svc, err := NewService(newStubRepo())
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	_, err = svc.Get(context.Background(), uuid.New())
	if pkgerrors.As(err) == nil || pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found error, got %v", err)
	}
}
