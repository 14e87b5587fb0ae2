package auth

import (
	"github.com/google/uuid"

	"github.com/permanentprinting/storefront-backend/internal/users"
	"github.com/permanentprinting/storefront-backend/pkg/enums"
)

// LoginRequest captures the user credentials sent to the login endpoint.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the storefront sign-up form.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone" validate:"required"`
	Region   string `json:"region" validate:"required"`
	City     string `json:"city" validate:"required"`
}

// RefreshRequest carries the (possibly expired) access token and its refresh token.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" validate:"required"`
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// AuthResponse contains the tokens and user produced by register, login and refresh.
type AuthResponse struct {
	AccessToken  string         `json:"access_token"`
	RefreshToken string         `json:"refresh_token"`
	ExpiresIn    int64          `json:"expires_in"`
	User         *users.UserDTO `json:"user"`
}

// Identity is what a verified access token resolves to.
type Identity struct {
	UserID   uuid.UUID      `json:"user_id"`
	Email    string         `json:"email"`
	Role     enums.UserRole `json:"role"`
	AccessID string         `json:"-"`
}
