package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marketmaster/marketmaster-backend/api/responses"
	"github.com/marketmaster/marketmaster-backend/api/validators"
	"github.com/marketmaster/marketmaster-backend/internal/content"
	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
	"github.com/marketmaster/marketmaster-backend/pkg/logger"
)

// ContentHomepage serves the storefront homepage settings.
func ContentHomepage(svc content.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		dto, err := svc.Homepage(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

type homepageUpdateBody struct {
	HeroTitle           *string     `json:"hero_title,omitempty"`
	HeroSubtitle        *string     `json:"hero_subtitle,omitempty"`
	BannerImageURL      *string     `json:"banner_image_url,omitempty"`
	FeaturedCategoryIDs []uuid.UUID `json:"featured_category_ids,omitempty"`
	FeaturedProductIDs  []uuid.UUID `json:"featured_product_ids,omitempty"`
}

// AdminContentUpdate patches the homepage settings. Absent fields keep their
// stored values.
func AdminContentUpdate(svc content.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "content service unavailable"))
			return
		}

		var body homepageUpdateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.UpdateHomepage(r.Context(), content.UpdateInput{
			HeroTitle:           body.HeroTitle,
			HeroSubtitle:        body.HeroSubtitle,
			BannerImageURL:      body.BannerImageURL,
			FeaturedCategoryIDs: body.FeaturedCategoryIDs,
			FeaturedProductIDs:  body.FeaturedProductIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}
