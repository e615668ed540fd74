// Package storage is the durable client-side key-value storage the session
// and cart state are persisted to. Values are JSON encoded.
package storage

import (
	"context"
)

type Store interface {
	// Get decodes the value stored under key into value. found is false
	// when the key does not exist.
	Get(ctx context.Context, key string, value any) (found bool, err error)
	Set(ctx context.Context, key string, value any) error
	// Delete removes all keys in one operation.
	Delete(ctx context.Context, keys ...string) error
	Close() error
}

func Key(prefix string, id string) string {
	if prefix == "" {
		return id
	}

	return prefix + ":" + id
}

const (
	AccessTokenKey       = "access_token"
	RefreshTokenKey      = "refresh_token"
	UserKey              = "user"
	AdminAccessTokenKey  = "admin_access_token"
	AdminRefreshTokenKey = "admin_refresh_token"
	IsAdminKey           = "is_admin"
	CartItemsKey         = "cart_items"
	AppliedCouponKey     = "applied_coupon"
	CouponDiscountKey    = "coupon_discount"
)

// SessionKeys are purged together whenever a session ends.
var SessionKeys = []string{
	AccessTokenKey,
	RefreshTokenKey,
	UserKey,
	AdminAccessTokenKey,
	AdminRefreshTokenKey,
	IsAdminKey,
}

// CouponKeys are cleared together so the applied coupon and its discount
// never drift apart.
var CouponKeys = []string{
	AppliedCouponKey,
	CouponDiscountKey,
}
