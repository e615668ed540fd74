package repository

import (
	"context"
	"encoding/json"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/httpclient"
	"github.com/aaravmahajanofficial/storefront/internal/models"
)

// Repositories groups the remote API repositories sharing one pipeline.
type Repositories struct {
	User    UserRepository
	Order   OrderRepository
	Product ProductRepository
}

func New(client *httpclient.Client) *Repositories {
	return &Repositories{
		User:    NewUserRepo(client),
		Order:   NewOrderRepository(client),
		Product: NewProductRepo(client),
	}
}

// Doer is the part of *httpclient.Client the repositories use.
type Doer interface {
	Do(ctx context.Context, req *httpclient.Request) error
}

// decodeList accepts both a bare JSON array and the paginated envelope.
func decodeList[T any](raw json.RawMessage) ([]T, error) {

	if len(raw) == 0 {
		return []T{}, nil
	}

	var list []T
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var page models.Page[T]
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, errors.ThirdPartyError("Unexpected list response from the store service").WithError(err)
	}

	if page.Results == nil {
		return []T{}, nil
	}

	return page.Results, nil
}
