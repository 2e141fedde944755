package content

import (
	"context"

	"gorm.io/gorm"

	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
)

// homepageRowID is the only row in homepage_content; the table is a
// singleton seeded by migration.
const homepageRowID = 1

// Repository reads and writes the homepage settings row.
type Repository interface {
	GetHomepage(ctx context.Context) (*models.HomepageContent, error)
	SaveHomepage(ctx context.Context, row *models.HomepageContent) (*models.HomepageContent, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a content repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetHomepage(ctx context.Context) (*models.HomepageContent, error) {
	var row models.HomepageContent
	if err := r.db.WithContext(ctx).Where("id = ?", homepageRowID).First(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}

func (r *repository) SaveHomepage(ctx context.Context, row *models.HomepageContent) (*models.HomepageContent, error) {
	row.ID = homepageRowID
	if err := r.db.WithContext(ctx).Save(row).Error; err != nil {
		return nil, err
	}
	return row, nil
}
