package dto

import (
	"time"

	"github.com/spec-kit/helpdesk/internal/domain"
)

// TokenRequest asks for a development token for a known user.
type TokenRequest struct {
	UserID int         `json:"user_id"`
	Role   domain.Role `json:"role"`
}

// TokenResponse carries a signed access token.
type TokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresAt   time.Time `json:"expires_at"`
}
