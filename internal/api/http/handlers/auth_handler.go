package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/api/dto"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/auth"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/service"
	apperrors "github.com/khaldi-abdarhmane/user-management-microservice/pkg/util"
)

// AuthHandler exposes registration, login and token-lifecycle endpoints.
type AuthHandler struct {
	login *service.LoginService
	users *service.UserService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(loginService *service.LoginService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{login: loginService, users: userService}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req dto.RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	birthDate, err := dto.ParseBirthDate(req.BirthDate)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	user, err := h.users.Register(c.Context(), service.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Civility:    req.Civility,
		Phone:       req.Phone,
		Address:     req.Address.Domain(),
		CompanyName: req.CompanyName,
		Siren:       req.Siren,
		BirthDate:   birthDate,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(dto.NewUserResponse(user))
}

// Login handles POST /auth/jwt/login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if req.Email == "" || req.Password == "" {
		return fiber.NewError(http.StatusBadRequest, "email and password required")
	}

	payload, err := h.login.Login(c.Context(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(payload)
}

// Logout handles POST /auth/jwt/logout. Tokens are stateless and cannot be
// revoked before expiry, which is reported rather than silently accepted.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	return auth.ErrDestroyNotSupported
}

// RequestVerifyToken handles POST /auth/request-verify-token.
func (h *AuthHandler) RequestVerifyToken(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.users.RequestVerification(c.Context(), req.Email); err != nil {
		return err
	}
	return c.SendStatus(http.StatusAccepted)
}

// Verify handles POST /auth/verify.
func (h *AuthHandler) Verify(c *fiber.Ctx) error {
	var req dto.VerifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	user, err := h.users.Verify(c.Context(), req.Token)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}

// ForgotPassword handles POST /auth/forgot-password.
func (h *AuthHandler) ForgotPassword(c *fiber.Ctx) error {
	var req dto.EmailRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.users.RequestPasswordReset(c.Context(), req.Email); err != nil {
		return err
	}
	return c.SendStatus(http.StatusAccepted)
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *fiber.Ctx) error {
	var req dto.ResetPasswordRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}
	if err := h.users.ConfirmPasswordReset(c.Context(), req.Token, req.Password); err != nil {
		return err
	}
	return c.SendStatus(http.StatusOK)
}
