package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marketmaster/marketmaster-backend/internal/products"
	"github.com/marketmaster/marketmaster-backend/pkg/db/models"
	"github.com/marketmaster/marketmaster-backend/pkg/enums"
	pkgerrors "github.com/marketmaster/marketmaster-backend/pkg/errors"
	"github.com/marketmaster/marketmaster-backend/pkg/pagination"
)

type txManager interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// Service exposes checkout and order history operations.
type Service interface {
	PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error)
	GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error)
	ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error)
	Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error)
	ListAll(ctx context.Context, params pagination.Params, status string) (*OrderList, error)
	UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error)
}

type service struct {
	tx       txManager
	repo     Repository
	products products.Repository
}

// NewService builds an orders service. The transaction manager is the GORM
// handle shared with both repositories.
func NewService(tx txManager, repo Repository, productsRepo products.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("transaction manager is required")
	}
	if repo == nil {
		return nil, fmt.Errorf("orders repository is required")
	}
	if productsRepo == nil {
		return nil, fmt.Errorf("products repository is required")
	}
	return &service{tx: tx, repo: repo, products: productsRepo}, nil
}

// PlaceOrder turns cart lines into an order. Stock is decremented and the
// order row written in one transaction; the caller clears the cart afterwards.
func (s *service) PlaceOrder(ctx context.Context, input PlaceOrderInput) (*OrderDTO, error) {
	if len(input.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "cart is empty")
	}
	if err := validateShipping(input.Shipping); err != nil {
		return nil, err
	}

	items := make([]models.OrderItem, 0, len(input.Lines))
	subtotal := decimal.Zero
	total := decimal.Zero
	for _, line := range input.Lines {
		productID, err := uuid.Parse(line.Product.ID)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation,
				fmt.Sprintf("invalid product id %q in cart", line.Product.ID))
		}

		lineTotal := line.Total().Round(2)
		subtotal = subtotal.Add(line.Product.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		total = total.Add(lineTotal)

		var discount *decimal.Decimal
		if line.Product.Discount != nil {
			d := line.Product.Discount.Copy()
			discount = &d
		}
		items = append(items, models.OrderItem{
			ProductID:       productID,
			Title:           line.Product.Title,
			UnitPrice:       line.Product.Price.Round(2),
			DiscountPercent: discount,
			Quantity:        line.Quantity,
			LineTotal:       lineTotal,
		})
	}
	subtotal = subtotal.Round(2)

	order := &models.Order{
		UserID:             input.UserID,
		Status:             enums.OrderStatusPending,
		Subtotal:           subtotal,
		Discount:           subtotal.Sub(total),
		Total:              total,
		ShippingName:       strings.TrimSpace(input.Shipping.Name),
		ShippingAddress:    strings.TrimSpace(input.Shipping.Address),
		ShippingCity:       strings.TrimSpace(input.Shipping.City),
		ShippingPostalCode: strings.TrimSpace(input.Shipping.PostalCode),
		ShippingCountry:    strings.TrimSpace(input.Shipping.Country),
		ShippingPhone:      input.Shipping.Phone,
		Items:              items,
	}

	err := s.tx.Transaction(func(tx *gorm.DB) error {
		productsTx := s.products.WithTx(tx)
		for i := range items {
			if err := productsTx.DecrementStock(ctx, items[i].ProductID, items[i].Quantity); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "reserve stock")
			}
		}
		if _, err := s.repo.WithTx(tx).Create(ctx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create order")
		}
		return nil
	})
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order")
	}

	dto := toDTO(*order)
	return &dto, nil
}

// GetForUser loads one order and hides other users' orders behind a 404.
func (s *service) GetForUser(ctx context.Context, userID, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	dto := toDTO(*order)
	return &dto, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID, params pagination.Params) (*OrderList, error) {
	list, err := s.repo.ListByUser(ctx, userID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

func (s *service) Get(ctx context.Context, orderID uuid.UUID) (*OrderDTO, error) {
	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	dto := toDTO(*order)
	return &dto, nil
}

func (s *service) ListAll(ctx context.Context, params pagination.Params, status string) (*OrderList, error) {
	if status != "" && !enums.OrderStatus(status).IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", status))
	}
	list, err := s.repo.ListAll(ctx, params, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list orders")
	}
	return list, nil
}

// UpdateStatus moves an order through the fulfillment lifecycle.
func (s *service) UpdateStatus(ctx context.Context, orderID uuid.UUID, next enums.OrderStatus) (*OrderDTO, error) {
	if !next.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown order status %q", next))
	}

	order, err := s.find(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, pkgerrors.New(pkgerrors.CodeConflict,
			fmt.Sprintf("cannot move order from %s to %s", order.Status, next))
	}

	if err := s.repo.UpdateStatus(ctx, orderID, next); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order status")
	}
	order.Status = next
	dto := toDTO(*order)
	return &dto, nil
}

func (s *service) find(ctx context.Context, orderID uuid.UUID) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load order")
	}
	return order, nil
}

func validateShipping(s ShippingDetails) error {
	required := []struct {
		field string
		value string
	}{
		{"name", s.Name},
		{"address", s.Address},
		{"city", s.City},
		{"postal_code", s.PostalCode},
		{"country", s.Country},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("shipping %s is required", f.field))
		}
	}
	return nil
}
