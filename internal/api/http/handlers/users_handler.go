package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/khaldi-abdarhmane/user-management-microservice/internal/api/dto"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/auth"
	"github.com/khaldi-abdarhmane/user-management-microservice/internal/service"
	apperrors "github.com/khaldi-abdarhmane/user-management-microservice/pkg/util"
)

// UsersHandler exposes profile endpoints for the authenticated user.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Me handles GET /users/me.
func (h *UsersHandler) Me(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}
	return c.JSON(dto.NewUserResponse(user))
}

// UpdateMe handles PATCH /users/me.
func (h *UsersHandler) UpdateMe(c *fiber.Ctx) error {
	user, ok := auth.UserFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("not authenticated")
	}

	var req dto.UpdateProfileRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid payload")
	}

	birthDate, err := dto.ParseBirthDate(req.BirthDate)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), nil)
	}

	updated, err := h.users.UpdateProfile(c.Context(), user.ID, service.UpdateProfileInput{
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
	return c.JSON(dto.NewUserResponse(updated))
}

// GetByID handles GET /users/:id, restricted to admin roles.
func (h *UsersHandler) GetByID(c *fiber.Ctx) error {
	user, err := h.users.GetUser(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
