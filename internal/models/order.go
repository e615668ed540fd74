package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type Address struct {
	ID           ID     `json:"id,omitempty"`
	FullName     string `json:"full_name" validate:"required"`
	Phone        string `json:"phone" validate:"required"`
	AddressLine1 string `json:"address_line1" validate:"required"`
	AddressLine2 string `json:"address_line2,omitempty"`
	City         string `json:"city" validate:"required"`
	State        string `json:"state" validate:"required"`
	PostalCode   string `json:"postal_code" validate:"required"`
	Country      string `json:"country" validate:"required"`
	IsDefault    bool   `json:"is_default"`
}

// OrderItemRequest is one order line. It references either a resolved
// variant (SKUID) or carries the raw size/color for the remote side to
// resolve.
type OrderItemRequest struct {
	ProductID ID     `json:"product_id"`
	Quantity  int    `json:"quantity"`
	SKUID     ID     `json:"sku_id,omitempty"`
	Size      string `json:"size,omitempty"`
	Color     string `json:"color,omitempty"`
}

type CreateOrderRequest struct {
	AddressID  ID                 `json:"address_id"`
	Items      []OrderItemRequest `json:"items"`
	CouponCode string             `json:"coupon_code,omitempty"`
}

// CheckoutRequest is what the storefront UI posts to place an order: an
// existing address or a new one to create first.
type CheckoutRequest struct {
	AddressID ID       `json:"address_id" validate:"required_without=Address"`
	Address   *Address `json:"address,omitempty"`
}

type OrderItem struct {
	ID          ID              `json:"id"`
	ProductID   ID              `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Size        string          `json:"size,omitempty"`
	Color       string          `json:"color,omitempty"`
}

type Order struct {
	ID             ID              `json:"id"`
	OrderNumber    string          `json:"order_number,omitempty"`
	Status         OrderStatus     `json:"status"`
	Items          []OrderItem     `json:"items"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ShippingCost   decimal.Decimal `json:"shipping_cost"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	Total          decimal.Decimal `json:"total"`
	CouponCode     string          `json:"coupon_code,omitempty"`
	Address        *Address        `json:"address,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
}

// CheckoutSummary is recomputed from the cart and applied coupon on every read.
type CheckoutSummary struct {
	ItemCount             int             `json:"item_count"`
	Subtotal              decimal.Decimal `json:"subtotal"`
	Shipping              decimal.Decimal `json:"shipping"`
	Discount              decimal.Decimal `json:"discount"`
	Total                 decimal.Decimal `json:"total"`
	FreeShippingRemaining decimal.Decimal `json:"free_shipping_remaining"`
	CouponCode            string          `json:"coupon_code,omitempty"`
	Currency              string          `json:"currency"`
}
