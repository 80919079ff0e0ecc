package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/authgate/auth-service/internal/api/dto"
	"github.com/authgate/auth-service/internal/auth"
	"github.com/authgate/auth-service/internal/service"
	"github.com/authgate/auth-service/pkg/util/errorutil"
)

// AuthHandler exposes the registration, login, and refresh endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.Wrap(errorutil.KindValidationFailed, "invalid payload", err)
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return errorutil.New(errorutil.KindValidationFailed, "name, email, and password are required")
	}

	user, pair, err := h.auth.Register(c.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"success": true,
		"data":    dto.NewAuthResponse(user, pair),
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.Wrap(errorutil.KindValidationFailed, "invalid payload", err)
	}
	if req.Email == "" || req.Password == "" {
		return errorutil.New(errorutil.KindValidationFailed, "email and password are required")
	}

	user, pair, err := h.auth.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewAuthResponse(user, pair),
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *fiber.Ctx) error {
	var req dto.RefreshRequest
	if err := c.BodyParser(&req); err != nil {
		return errorutil.Wrap(errorutil.KindValidationFailed, "invalid payload", err)
	}
	if req.RefreshToken == "" {
		return errorutil.New(errorutil.KindTokenMissing, "refresh_token is required")
	}

	user, pair, err := h.auth.Refresh(c.Context(), req.RefreshToken)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    dto.NewAuthResponse(user, pair),
	})
}

// PasswordRequirements handles GET /auth/password/requirements.
func (h *AuthHandler) PasswordRequirements(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"success": true,
		"data":    service.PasswordRequirements(),
	})
}

// Me handles GET /me, returning the principal attached by the gate.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return errorutil.New(errorutil.KindTokenMissing, "")
	}
	return c.JSON(fiber.Map{
		"success": true,
		"data": fiber.Map{
			"id":          principal.ID,
			"email":       principal.Identifier,
			"name":        principal.DisplayName,
			"authorities": principal.Authorities,
		},
	})
}
