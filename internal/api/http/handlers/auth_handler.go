package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk/internal/api/dto"
	"github.com/spec-kit/helpdesk/internal/auth"
	"github.com/spec-kit/helpdesk/internal/domain"
	"github.com/spec-kit/helpdesk/internal/liststore"
	"github.com/spec-kit/helpdesk/internal/repository"
	apperrors "github.com/spec-kit/helpdesk/pkg/util"
)

// AuthHandler issues development tokens. Production tokens come from the
// identity provider.
type AuthHandler struct {
	users  repository.UserRepository
	tokens *auth.TokenManager
}

// NewAuthHandler constructs handler.
func NewAuthHandler(users repository.UserRepository, tokens *auth.TokenManager) *AuthHandler {
	return &AuthHandler{users: users, tokens: tokens}
}

// IssueToken POST /auth/token.
func (h *AuthHandler) IssueToken(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.UserID <= 0 {
		return apperrors.NewValidationError("user_id required", nil)
	}
	if req.Role == "" {
		req.Role = domain.RoleRequester
	}
	if !req.Role.Valid() {
		return apperrors.NewValidationError("unknown role", map[string]any{"role": req.Role})
	}

	user, err := h.users.GetByID(c.UserContext(), req.UserID)
	if err != nil {
		if errors.Is(err, liststore.ErrNotFound) {
			return apperrors.NewNotFound("user", map[string]any{"user_id": req.UserID})
		}
		return err
	}
	token, expiresAt, err := h.tokens.GenerateToken(*user, req.Role)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": dto.TokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   expiresAt,
	}})
}
