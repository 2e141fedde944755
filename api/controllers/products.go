package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marketmaster/marketmaster-backend/api/middleware"
	"github.com/marketmaster/marketmaster-backend/api/responses"
	"github.com/marketmaster/marketmaster-backend/api/validators"
	"github.com/marketmaster/marketmaster-backend/internal/products"
	"github.com/marketmaster/marketmaster-backend/pkg/enums"
	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
	"github.com/marketmaster/marketmaster-backend/pkg/logger"
)

const featuredLimitMax = 48

// ProductList serves the storefront catalog listing.
func ProductList(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		input, err := parseListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ProductDetail serves one catalog listing by id.
func ProductDetail(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// ProductFeatured serves the homepage's featured listing strip.
func ProductFeatured(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", 12, 1, featuredLimitMax)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dtos, err := svc.Featured(r.Context(), limit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dtos)
	}
}

type productCreateBody struct {
	CategoryID      uuid.UUID `json:"category_id" validate:"required"`
	Title           string    `json:"title" validate:"required"`
	Description     string    `json:"description"`
	Price           string    `json:"price" validate:"required"`
	DiscountPercent *string   `json:"discount_percent,omitempty"`
	Stock           int       `json:"stock" validate:"min=0"`
	Images          []string  `json:"images,omitempty"`
	IsFeatured      bool      `json:"is_featured"`
}

// AdminProductCreate creates a listing owned by the calling admin.
func AdminProductCreate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		sellerID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productCreateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		price, err := parseMoney(body.Price, "price")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		discount, err := parseOptionalMoney(body.DiscountPercent, "discount_percent")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Create(r.Context(), sellerID, products.CreateInput{
			CategoryID:      body.CategoryID,
			Title:           body.Title,
			Description:     body.Description,
			Price:           price,
			DiscountPercent: discount,
			Stock:           body.Stock,
			Images:          body.Images,
			IsFeatured:      body.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, dto)
	}
}

type productUpdateBody struct {
	CategoryID      *uuid.UUID `json:"category_id,omitempty"`
	Title           *string    `json:"title,omitempty"`
	Description     *string    `json:"description,omitempty"`
	Price           *string    `json:"price,omitempty"`
	DiscountPercent *string    `json:"discount_percent,omitempty"`
	ClearDiscount   bool       `json:"clear_discount"`
	Stock           *int       `json:"stock,omitempty"`
	Images          []string   `json:"images,omitempty"`
	IsActive        *bool      `json:"is_active,omitempty"`
	IsFeatured      *bool      `json:"is_featured,omitempty"`
}

// AdminProductUpdate patches a listing.
func AdminProductUpdate(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body productUpdateBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var price *decimal.Decimal
		if body.Price != nil {
			parsed, err := parseMoney(*body.Price, "price")
			if err != nil {
				responses.WriteError(r.Context(), logg, w, err)
				return
			}
			price = &parsed
		}
		discount, err := parseOptionalMoney(body.DiscountPercent, "discount_percent")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		dto, err := svc.Update(r.Context(), id, products.UpdateInput{
			CategoryID:      body.CategoryID,
			Title:           body.Title,
			Description:     body.Description,
			Price:           price,
			DiscountPercent: discount,
			ClearDiscount:   body.ClearDiscount,
			Stock:           body.Stock,
			Images:          body.Images,
			IsActive:        body.IsActive,
			IsFeatured:      body.IsFeatured,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, dto)
	}
}

// AdminProductDelete soft-deletes a listing via its active flag.
func AdminProductDelete(svc products.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "products service unavailable"))
			return
		}

		id, err := validators.ParseUUIDParam(r, "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Deactivate(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deactivated"})
	}
}

func parseListInput(r *http.Request) (products.ListInput, error) {
	params, err := validators.ParsePagination(r)
	if err != nil {
		return products.ListInput{}, err
	}

	query := r.URL.Query()
	filters := products.ListFilters{
		CategorySlug: strings.TrimSpace(query.Get("category")),
		Query:        strings.TrimSpace(query.Get("q")),
	}

	if raw := strings.TrimSpace(query.Get("price_min")); raw != "" {
		parsed, err := parseMoney(raw, "price_min")
		if err != nil {
			return products.ListInput{}, err
		}
		filters.PriceMin = &parsed
	}
	if raw := strings.TrimSpace(query.Get("price_max")); raw != "" {
		parsed, err := parseMoney(raw, "price_max")
		if err != nil {
			return products.ListInput{}, err
		}
		filters.PriceMax = &parsed
	}
	if raw := strings.TrimSpace(query.Get("discounted")); raw != "" {
		discounted := raw == "true" || raw == "1"
		filters.Discounted = &discounted
	}

	sort := enums.ProductSort(strings.TrimSpace(query.Get("sort")))
	if sort != "" && !sort.IsValid() {
		return products.ListInput{}, pkgerrors.New(pkgerrors.CodeValidation, "unknown sort order").WithDetails(map[string]any{"field": "sort"})
	}

	return products.ListInput{
		Filters:    filters,
		Sort:       sort,
		Pagination: params,
	}, nil
}

func parseMoney(raw, field string) (decimal.Decimal, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Decimal{}, pkgerrors.New(pkgerrors.CodeValidation, "must be a decimal number").WithDetails(map[string]any{"field": field})
	}
	return value, nil
}

func parseOptionalMoney(raw *string, field string) (*decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := parseMoney(*raw, field)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func userIDFromContext(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing user context")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid user context")
	}
	return id, nil
}
