package service

import (
	"context"
	"log/slog"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
	"github.com/aaravmahajanofficial/storefront/internal/session"
	"github.com/go-playground/validator/v10"
)

type AuthService interface {
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, error)
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.User, error)
	Logout(ctx context.Context) error
	Profile(ctx context.Context) (*models.User, error)
}

type authService struct {
	users      repository.UserRepository
	adminUsers repository.UserRepository
	customer   *session.Coordinator
	admin      *session.Coordinator
	cart       CartService
	coupons    CouponService
	validator  *validator.Validate
	logger     *slog.Logger
}

// AuthDeps are the collaborators of the auth service. AdminUsers must send
// requests with the admin session's token.
type AuthDeps struct {
	Users      repository.UserRepository
	AdminUsers repository.UserRepository
	Customer   *session.Coordinator
	Admin      *session.Coordinator
	Cart       CartService
	Coupons    CouponService
	Logger     *slog.Logger
}

func NewAuthService(deps AuthDeps) AuthService {

	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &authService{
		users:      deps.Users,
		adminUsers: deps.AdminUsers,
		customer:   deps.Customer,
		admin:      deps.Admin,
		cart:       deps.Cart,
		coupons:    deps.Coupons,
		validator:  validator.New(),
		logger:     logger.With(slog.String("component", "auth")),
	}
}

// Login signs the customer in. The profile is fetched when the login
// response carries none; failing to fetch it does not fail the login.
func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, error) {

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	resp, err := s.users.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.customer.Establish(ctx, resp.Tokens, resp.User); err != nil {
		return nil, err
	}

	if resp.User != nil {
		return resp.User, nil
	}

	user, err := s.users.Me(ctx)
	if err != nil {
		s.logger.Warn("Signed in without a profile", slog.String("error", err.Error()))
		return nil, nil
	}

	if err := s.customer.SetUser(ctx, user); err != nil {
		s.logger.Warn("Failed to store profile", slog.String("error", err.Error()))
	}

	return user, nil
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	resp, err := s.users.Register(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := s.customer.Establish(ctx, resp.Tokens, resp.User); err != nil {
		return nil, err
	}

	s.logger.Info("Account registered")

	return resp.User, nil
}

// AdminLogin signs in to the admin scope. Accounts without staff rights
// are rejected and the admin session is ended again, which also ends the
// customer session sharing its storage.
func (s *authService) AdminLogin(ctx context.Context, req *models.LoginRequest) (*models.User, error) {

	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err)
	}

	resp, err := s.users.Login(ctx, req)
	if err != nil {
		return nil, err
	}

	if resp.User != nil && !resp.User.IsStaff {
		return nil, errors.ForbiddenError("This account has no admin access")
	}

	if err := s.admin.Establish(ctx, resp.Tokens, nil); err != nil {
		return nil, err
	}

	user := resp.User
	if user == nil {
		user, err = s.adminUsers.Me(ctx)
		if err != nil {
			s.endAdmin(ctx)
			return nil, err
		}
	}

	if !user.IsStaff {
		s.endAdmin(ctx)
		return nil, errors.ForbiddenError("This account has no admin access")
	}

	s.logger.Info("Admin signed in", slog.String("user_id", user.ID.String()))

	return user, nil
}

// Logout ends the session and empties the cart and coupon with it.
func (s *authService) Logout(ctx context.Context) error {

	if err := s.customer.Logout(ctx); err != nil {
		return err
	}

	return ClearWithCoupon(ctx, s.cart, s.coupons)
}

// Profile returns the fresh profile and updates the stored snapshot.
func (s *authService) Profile(ctx context.Context) (*models.User, error) {

	if s.customer.State() == session.Unauthenticated {
		return nil, errors.UnauthorizedError("Authentication required")
	}

	user, err := s.users.Me(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.customer.SetUser(ctx, user); err != nil {
		s.logger.Warn("Failed to store profile", slog.String("error", err.Error()))
	}

	return user, nil
}

func (s *authService) endAdmin(ctx context.Context) {
	if err := s.admin.Logout(ctx); err != nil {
		s.logger.Error("Failed to end admin session", slog.String("error", err.Error()))
	}
}
