package dto

import (
	"time"

	"github.com/authgate/auth-service/internal/domain"
	"github.com/authgate/auth-service/internal/service"
)

// RegisterRequest payload for new accounts.
type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest payload for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest payload for the refresh flow.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// UserResponse is the client-safe account view.
type UserResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Authorities []string `json:"authorities"`
}

// TokenPairResponse carries issued tokens and their expirations.
type TokenPairResponse struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshToken     string    `json:"refresh_token"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// AuthResponse is the standard success response for auth endpoints.
type AuthResponse struct {
	User   UserResponse      `json:"user"`
	Tokens TokenPairResponse `json:"tokens"`
}

// NewAuthResponse maps domain values onto the response shape.
func NewAuthResponse(user *domain.User, pair *service.TokenPair) AuthResponse {
	return AuthResponse{
		User: UserResponse{
			ID:          user.ID,
			Name:        user.Name,
			Email:       user.Email,
			Authorities: user.Authorities,
		},
		Tokens: TokenPairResponse{
			AccessToken:      pair.AccessToken,
			AccessExpiresAt:  pair.AccessExpiresAt,
			RefreshToken:     pair.RefreshToken,
			RefreshExpiresAt: pair.RefreshExpiresAt,
		},
	}
}
