package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountPercentage DiscountType = "percentage"
	DiscountFixed      DiscountType = "fixed"
)

var hundred = decimal.NewFromInt(100)

// Coupon is a discount authorization issued by the remote API. It is never
// mutated locally.
type Coupon struct {
	ID                ID                  `json:"id"`
	Code              string              `json:"code"`
	Description       string              `json:"description,omitempty"`
	DiscountType      DiscountType        `json:"discount_type"`
	DiscountValue     decimal.Decimal     `json:"discount_value"`
	MinPurchaseAmount decimal.Decimal     `json:"min_purchase_amount"`
	MaxDiscountAmount decimal.NullDecimal `json:"max_discount_amount"`
	ValidFrom         time.Time           `json:"valid_from"`
	ValidUntil        time.Time           `json:"valid_until"`
	UsageLimit        *int                `json:"usage_limit"`
	UsedCount         int                 `json:"used_count"`
	IsActive          bool                `json:"is_active"`
}

// IsUsable reports whether the coupon is active, inside its validity window
// and below its usage limit. A nil usage limit means unlimited.
func (c *Coupon) IsUsable(now time.Time) bool {

	if !c.IsActive {
		return false
	}

	if !c.ValidFrom.IsZero() && now.Before(c.ValidFrom) {
		return false
	}

	if !c.ValidUntil.IsZero() && now.After(c.ValidUntil) {
		return false
	}

	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}

	return true
}

// DiscountFor previews the discount this coupon grants on subtotal. The
// remote API stays authoritative; this is used for display only.
func (c *Coupon) DiscountFor(subtotal decimal.Decimal) decimal.Decimal {

	if subtotal.LessThan(c.MinPurchaseAmount) || !subtotal.IsPositive() {
		return decimal.Zero
	}

	var discount decimal.Decimal

	switch c.DiscountType {
	case DiscountPercentage:
		discount = subtotal.Mul(c.DiscountValue).Div(hundred)
		if c.MaxDiscountAmount.Valid && discount.GreaterThan(c.MaxDiscountAmount.Decimal) {
			discount = c.MaxDiscountAmount.Decimal
		}
	case DiscountFixed:
		discount = c.DiscountValue
	default:
		return decimal.Zero
	}

	return decimal.Min(discount, subtotal).Round(2)
}

// AppliedCoupon is the client-side result of a successful validation.
type AppliedCoupon struct {
	Coupon   *Coupon         `json:"coupon"`
	Discount decimal.Decimal `json:"discount"`
	Message  string          `json:"message,omitempty"`
}

type ValidateCouponRequest struct {
	Code   string          `json:"code"   validate:"required"`
	Amount decimal.Decimal `json:"amount"`
}

type ValidateCouponResponse struct {
	Coupon         *Coupon         `json:"coupon"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Message        string          `json:"message"`
}

type ApplyCouponRequest struct {
	Code string `json:"code" validate:"required,max=64"`
}

type CouponPreview struct {
	Coupon          *Coupon         `json:"coupon"`
	PreviewDiscount decimal.Decimal `json:"preview_discount"`
}
