package cart

import "github.com/shopspring/decimal"

// Product is the snapshot a line carries. It is copied into the cart when the
// item is added; later catalog edits do not reach back into existing lines.
type Product struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	Price    decimal.Decimal  `json:"price"`
	Discount *decimal.Decimal `json:"discount,omitempty"`
	Stock    int              `json:"stock"`
	Category string           `json:"category"`
	Images   []string         `json:"images,omitempty"`
}

// Line pairs a product snapshot with a quantity of at least 1. A cart holds
// at most one line per product ID.
type Line struct {
	Product  Product `json:"product"`
	Quantity int     `json:"quantity"`
}

var oneHundred = decimal.NewFromInt(100)

// EffectivePrice applies the product's discount percentage when one is set
// and positive. The result is unrounded; rounding happens at presentation.
func EffectivePrice(p Product) decimal.Decimal {
	if p.Discount == nil || !p.Discount.IsPositive() {
		return p.Price
	}
	factor := decimal.NewFromInt(1).Sub(p.Discount.Div(oneHundred))
	return p.Price.Mul(factor)
}

// Total returns effective price times quantity for the line, unrounded.
func (l Line) Total() decimal.Decimal {
	return EffectivePrice(l.Product).Mul(decimal.NewFromInt(int64(l.Quantity)))
}

func (p Product) snapshot() Product {
	copied := p
	if p.Discount != nil {
		d := *p.Discount
		copied.Discount = &d
	}
	if p.Images != nil {
		copied.Images = append([]string(nil), p.Images...)
	}
	return copied
}
