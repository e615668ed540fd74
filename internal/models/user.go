package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Tokens is the bearer credential pair issued by the remote API.
type Tokens struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type User struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Phone     string `json:"phone,omitempty"`
	IsStaff   bool   `json:"is_staff"`
}

// for registration
type RegisterRequest struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	FirstName       string `json:"first_name" validate:"required"`
	LastName        string `json:"last_name" validate:"required"`
}

// for login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LoginResponse struct {
	Tokens Tokens `json:"tokens"`
	User   *User  `json:"user,omitempty"`
}

type RegisterResponse struct {
	User   *User  `json:"user"`
	Tokens Tokens `json:"tokens"`
}

type RefreshRequest struct {
	Refresh string `json:"refresh"`
}

// RefreshResponse may omit the refresh token when rotation is disabled upstream.
type RefreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// AccessClaims is the payload of an upstream access token. It is decoded
// without verification: the client only reads expiry and subject.
type AccessClaims struct {
	UserID    ID     `json:"user_id"`
	TokenType string `json:"token_type"`
	jwt.RegisteredClaims
}
