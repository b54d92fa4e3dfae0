package handlers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-auth/internal/api/dto"
	"github.com/spec-kit/campus-auth/internal/repository"
	"github.com/spec-kit/campus-auth/internal/service"
	apperrors "github.com/spec-kit/campus-auth/pkg/util"
)

// AuthHandler exposes the issuance endpoints.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	user, err := h.auth.Register(c.UserContext(), req.Email, req.Password, req.Role)
	if err != nil {
		return mapIssuanceError(err, req.Email)
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data": dto.RegisterResponse{
			ID:    user.ID,
			Email: user.Email,
			Role:  string(user.Role),
		},
	})
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Email == "" || req.Password == "" {
		return apperrors.NewValidationError("email and password required", nil)
	}

	token, role, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return mapIssuanceError(err, req.Email)
	}

	return c.JSON(fiber.Map{
		"data": dto.LoginResponse{Token: token, Role: string(role)},
	})
}

func mapIssuanceError(err error, email string) error {
	switch {
	case errors.Is(err, service.ErrIdentityExists):
		return apperrors.NewIdentityExists(email)
	case errors.Is(err, service.ErrUserNotFound):
		return apperrors.NewUserNotFound()
	case errors.Is(err, service.ErrInvalidCredentials):
		return apperrors.NewInvalidCredentials()
	case errors.Is(err, service.ErrInvalidRole):
		return apperrors.NewValidationError(err.Error(), nil)
	case errors.Is(err, service.ErrLoginThrottled):
		return apperrors.NewLoginThrottled()
	case errors.Is(err, repository.ErrUnavailable):
		return apperrors.NewUpstreamUnavailable(err)
	default:
		return err
	}
}
