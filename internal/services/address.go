package service

import (
	"context"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/go-playground/validator/v10"
)

type AddressService interface {
	ListAddresses(ctx context.Context) ([]models.Address, error)
	CreateAddress(ctx context.Context, address *models.Address) (*models.Address, error)
}

type addressService struct {
	userRepo  repository.UserRepository
	validator *validator.Validate
}

func NewAddressService(userRepo repository.UserRepository) AddressService {
	return &addressService{userRepo: userRepo, validator: validator.New()}
}

func (s *addressService) ListAddresses(ctx context.Context) ([]models.Address, error) {
	return s.userRepo.ListAddresses(ctx)
}

func (s *addressService) CreateAddress(ctx context.Context, address *models.Address) (*models.Address, error) {

	if err := s.validator.Struct(address); err != nil {
		return nil, validationError(err)
	}

	return s.userRepo.CreateAddress(ctx, address)
}
