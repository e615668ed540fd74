package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   ID     `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// Variant is a concrete purchasable unit of a product.
type Variant struct {
	ID       ID                  `json:"id"`
	SKU      string              `json:"sku"`
	Size     string              `json:"size"`
	Color    string              `json:"color"`
	Price    decimal.NullDecimal `json:"price"`
	Stock    int                 `json:"stock"`
	IsActive bool                `json:"is_active"`
}

type Product struct {
	ID       ID              `json:"id"`
	Name     string          `json:"name"`
	Slug     string          `json:"slug"`
	Price    decimal.Decimal `json:"price"`
	Category *Category       `json:"category,omitempty"`
	Variants []Variant       `json:"variants"`
}

// FindVariant returns the variant matching size and color, compared
// case-insensitively after trimming.
func (p *Product) FindVariant(size, color string) (*Variant, bool) {

	size = strings.TrimSpace(size)
	color = strings.TrimSpace(color)

	for i := range p.Variants {
		v := &p.Variants[i]
		if strings.EqualFold(strings.TrimSpace(v.Size), size) && strings.EqualFold(strings.TrimSpace(v.Color), color) {
			return v, true
		}
	}

	return nil, false
}
