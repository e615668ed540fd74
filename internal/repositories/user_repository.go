package repository

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/httpclient"
	"github.com/aaravmahajanofficial/storefront/internal/models"
)

type UserRepository interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error)
	RefreshToken(ctx context.Context, refresh string) (*models.RefreshResponse, error)
	Me(ctx context.Context) (*models.User, error)
	ListAddresses(ctx context.Context) ([]models.Address, error)
	GetAddress(ctx context.Context, id models.ID) (*models.Address, error)
	CreateAddress(ctx context.Context, address *models.Address) (*models.Address, error)
	UpdateAddress(ctx context.Context, id models.ID, address *models.Address) (*models.Address, error)
	DeleteAddress(ctx context.Context, id models.ID) error
}

type userRepository struct {
	client Doer
}

func NewUserRepo(client Doer) UserRepository {
	return &userRepository{client: client}
}

func (r *userRepository) Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResponse, error) {

	resp := &models.LoginResponse{}

	err := r.client.Do(ctx, &httpclient.Request{
		Method:    http.MethodPost,
		Path:      "/users/login",
		Body:      req,
		Result:    resp,
		Anonymous: true,
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (r *userRepository) Register(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResponse, error) {

	resp := &models.RegisterResponse{}

	err := r.client.Do(ctx, &httpclient.Request{
		Method:    http.MethodPost,
		Path:      "/users/register",
		Body:      req,
		Result:    resp,
		Anonymous: true,
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

// RefreshToken is anonymous so that it can never trigger a refresh itself.
func (r *userRepository) RefreshToken(ctx context.Context, refresh string) (*models.RefreshResponse, error) {

	resp := &models.RefreshResponse{}

	err := r.client.Do(ctx, &httpclient.Request{
		Method:    http.MethodPost,
		Path:      "/users/token/refresh",
		Body:      models.RefreshRequest{Refresh: refresh},
		Result:    resp,
		Anonymous: true,
	})
	if err != nil {
		return nil, err
	}

	return resp, nil
}

func (r *userRepository) Me(ctx context.Context) (*models.User, error) {

	user := &models.User{}

	if err := r.client.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: "/users/me", Result: user}); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *userRepository) ListAddresses(ctx context.Context) ([]models.Address, error) {

	var raw json.RawMessage

	if err := r.client.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: "/users/addresses", Result: &raw}); err != nil {
		return nil, err
	}

	return decodeList[models.Address](raw)
}

func (r *userRepository) GetAddress(ctx context.Context, id models.ID) (*models.Address, error) {

	address := &models.Address{}

	if err := r.client.Do(ctx, &httpclient.Request{Method: http.MethodGet, Path: "/users/addresses/" + id.String(), Result: address}); err != nil {
		return nil, err
	}

	return address, nil
}

func (r *userRepository) CreateAddress(ctx context.Context, address *models.Address) (*models.Address, error) {

	created := &models.Address{}

	if err := r.client.Do(ctx, &httpclient.Request{Method: http.MethodPost, Path: "/users/addresses", Body: address, Result: created}); err != nil {
		return nil, err
	}

	return created, nil
}

func (r *userRepository) UpdateAddress(ctx context.Context, id models.ID, address *models.Address) (*models.Address, error) {

	updated := &models.Address{}

	if err := r.client.Do(ctx, &httpclient.Request{Method: http.MethodPatch, Path: "/users/addresses/" + id.String(), Body: address, Result: updated}); err != nil {
		return nil, err
	}

	return updated, nil
}

func (r *userRepository) DeleteAddress(ctx context.Context, id models.ID) error {
	return r.client.Do(ctx, &httpclient.Request{Method: http.MethodDelete, Path: "/users/addresses/" + id.String()})
}
