package controllers

import (
	"net/http"

	"github.com/marketmaster/marketmaster-backend/api/responses"
	"github.com/marketmaster/marketmaster-backend/api/validators"
	"github.com/marketmaster/marketmaster-backend/internal/cart"
	"github.com/marketmaster/marketmaster-backend/internal/orders"
	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
	"github.com/marketmaster/marketmaster-backend/pkg/logger"
)

type checkoutBody struct {
	Name       string  `json:"name" validate:"required"`
	Address    string  `json:"address" validate:"required"`
	City       string  `json:"city" validate:"required"`
	PostalCode string  `json:"postal_code" validate:"required"`
	Country    string  `json:"country" validate:"required"`
	Phone      *string `json:"phone,omitempty"`
}

// Checkout converts the session's cart into an order. The cart is cleared
// here, after the order commits, so a failed checkout leaves it intact.
func Checkout(ordersSvc orders.Service, cartSvc *cart.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if ordersSvc == nil || cartSvc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable"))
			return
		}

		userID, err := userIDFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sessionKey, err := cartSessionKey(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body checkoutBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		lines, err := cartSvc.Lines(r.Context(), sessionKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := ordersSvc.PlaceOrder(r.Context(), orders.PlaceOrderInput{
			UserID: userID,
			Shipping: orders.ShippingDetails{
				Name:       body.Name,
				Address:    body.Address,
				City:       body.City,
				PostalCode: body.PostalCode,
				Country:    body.Country,
				Phone:      body.Phone,
			},
			Lines: lines,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if _, err := cartSvc.Clear(r.Context(), sessionKey); err != nil {
			logg.Error(r.Context(), "checkout.cart_clear_failed", err)
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, order)
	}
}
