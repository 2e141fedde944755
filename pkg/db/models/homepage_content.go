package models

import (
	"time"

	dbtypes "github.com/marketmaster/marketmaster-backend/pkg/db/types"
)

// HomepageContent is the single-row record behind the admin "homepage
// settings" screen.
type HomepageContent struct {
	ID                  int               `gorm:"column:id;primaryKey"`
	HeroTitle           string            `gorm:"column:hero_title;not null;default:''"`
	HeroSubtitle        string            `gorm:"column:hero_subtitle;not null;default:''"`
	BannerImageURL      *string           `gorm:"column:banner_image_url"`
	FeaturedCategoryIDs dbtypes.UUIDArray `gorm:"column:featured_category_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	FeaturedProductIDs  dbtypes.UUIDArray `gorm:"column:featured_product_ids;type:uuid[];not null;default:ARRAY[]::uuid[]"`
	UpdatedAt           time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
