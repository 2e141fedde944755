package categories

import (
	"time"

	"github.com/google/uuid"

	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
)

// CategoryDTO is the category shape returned by the API.
type CategoryDTO struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Slug      string    `json:"slug"`
	Icon      *string   `json:"icon,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func toDTO(row models.Category) CategoryDTO {
	return CategoryDTO{
		ID:        row.ID,
		Name:      row.Name,
		Slug:      row.Slug,
		Icon:      row.Icon,
		CreatedAt: row.CreatedAt,
		UpdatedAt: row.UpdatedAt,
	}
}
