package models_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int { return &v }

func TestCoupon_IsUsable(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

	base := models.Coupon{
		Code:       "SPRING10",
		IsActive:   true,
		ValidFrom:  now.Add(-24 * time.Hour),
		ValidUntil: now.Add(24 * time.Hour),
	}

	tests := []struct {
		name   string
		mutate func(c *models.Coupon)
		want   bool
	}{
		{"Active inside window, unlimited", func(c *models.Coupon) {}, true},
		{"Inactive flag", func(c *models.Coupon) { c.IsActive = false }, false},
		{"Not yet valid", func(c *models.Coupon) { c.ValidFrom = now.Add(time.Hour) }, false},
		{"Expired", func(c *models.Coupon) { c.ValidUntil = now.Add(-time.Hour) }, false},
		{"Usage exhausted", func(c *models.Coupon) { c.UsageLimit = intPtr(3); c.UsedCount = 3 }, false},
		{"Usage remaining", func(c *models.Coupon) { c.UsageLimit = intPtr(3); c.UsedCount = 2 }, true},
		{"Open-ended window", func(c *models.Coupon) { c.ValidFrom = time.Time{}; c.ValidUntil = time.Time{} }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			assert.Equal(t, tt.want, c.IsUsable(now))
		})
	}
}

func TestCoupon_DiscountFor(t *testing.T) {
	t.Run("Percentage", func(t *testing.T) {
		c := models.Coupon{DiscountType: models.DiscountPercentage, DiscountValue: decimal.NewFromInt(10)}
		assert.True(t, decimal.RequireFromString("6.5").Equal(c.DiscountFor(decimal.NewFromInt(65))))
	})

	t.Run("Percentage capped by max discount", func(t *testing.T) {
		c := models.Coupon{
			DiscountType:      models.DiscountPercentage,
			DiscountValue:     decimal.NewFromInt(50),
			MaxDiscountAmount: decimal.NewNullDecimal(decimal.NewFromInt(20)),
		}
		assert.True(t, decimal.NewFromInt(20).Equal(c.DiscountFor(decimal.NewFromInt(100))))
	})

	t.Run("Fixed capped at subtotal", func(t *testing.T) {
		c := models.Coupon{DiscountType: models.DiscountFixed, DiscountValue: decimal.NewFromInt(30)}
		assert.True(t, decimal.NewFromInt(25).Equal(c.DiscountFor(decimal.NewFromInt(25))))
	})

	t.Run("Below minimum purchase", func(t *testing.T) {
		c := models.Coupon{
			DiscountType:      models.DiscountFixed,
			DiscountValue:     decimal.NewFromInt(10),
			MinPurchaseAmount: decimal.NewFromInt(40),
		}
		assert.True(t, c.DiscountFor(decimal.NewFromInt(39)).IsZero())
	})
}

func TestID_JSON(t *testing.T) {
	t.Run("Numeric id round trip", func(t *testing.T) {
		var v struct {
			ID models.ID `json:"id"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"id": 42}`), &v))
		assert.Equal(t, models.ID("42"), v.ID)

		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id": 42}`, string(out))
	})

	t.Run("UUID id stays a string", func(t *testing.T) {
		var v struct {
			ID models.ID `json:"id"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"id": "8a1c1c5e-8f0e-4d59-9e1e-1b0f6f0f2a11"}`), &v))

		out, err := json.Marshal(v)
		require.NoError(t, err)
		assert.JSONEq(t, `{"id": "8a1c1c5e-8f0e-4d59-9e1e-1b0f6f0f2a11"}`, string(out))
	})

	t.Run("Null id", func(t *testing.T) {
		var v struct {
			ID models.ID `json:"id"`
		}
		require.NoError(t, json.Unmarshal([]byte(`{"id": null}`), &v))
		assert.True(t, v.ID.IsZero())
	})
}

func TestProduct_FindVariant(t *testing.T) {
	p := models.Product{
		ID: "1",
		Variants: []models.Variant{
			{ID: "11", Size: "M", Color: "Black"},
			{ID: "12", Size: "L", Color: "Black"},
		},
	}

	v, ok := p.FindVariant(" m ", "black")
	require.True(t, ok)
	assert.Equal(t, models.ID("11"), v.ID)

	_, ok = p.FindVariant("XL", "Black")
	assert.False(t, ok)
}

func TestLineItem_LineTotal(t *testing.T) {
	item := models.LineItem{UnitPrice: decimal.RequireFromString("19.99"), Quantity: 3}
	assert.Equal(t, "59.97", item.LineTotal().StringFixed(2))
}
