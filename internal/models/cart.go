package models

import (
	"github.com/shopspring/decimal"
)

// LineItem is one row of the cart: a product at a size and color.
type LineItem struct {
	ID        string          `json:"id"`
	ProductID ID              `json:"product_id"`
	Name      string          `json:"name"`
	Image     string          `json:"image,omitempty"`
	UnitPrice decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"`
}

func (l LineItem) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Matches reports whether the line holds the given product/size/color tuple.
func (l LineItem) Matches(productID ID, size, color string) bool {
	return l.ProductID == productID && l.Size == size && l.Color == color
}

type AddItemRequest struct {
	ProductID ID              `json:"product_id" validate:"required"`
	Name      string          `json:"name"       validate:"required"`
	Image     string          `json:"image"`
	UnitPrice decimal.Decimal `json:"price"`
	Size      string          `json:"size"`
	Color     string          `json:"color"`
	Quantity  int             `json:"quantity"   validate:"required,min=1"`
}

// UpdateQuantityRequest requires the quantity to be present; zero or less
// removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required"`
}

type CartResponse struct {
	Items      []LineItem      `json:"items"`
	ItemCount  int             `json:"item_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
}
