package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/request-service/internal/api/dto"
	"github.com/spec-kit/request-service/internal/domain"
	"github.com/spec-kit/request-service/internal/service"
	apperrors "github.com/spec-kit/request-service/pkg/util"
)

// UsersHandler exposes user endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// List handles GET /api/users. An optional role query filters by role.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var (
		users []domain.User
		err   error
	)
	if roleStr := c.Query("role"); roleStr != "" {
		role, parseErr := domain.ParseRole(roleStr)
		if parseErr != nil {
			return apperrors.NewValidationError("invalid role", map[string]any{"role": roleStr})
		}
		users, err = h.users.GetByRole(c.UserContext(), role)
	} else {
		users, err = h.users.GetAll(c.UserContext())
	}
	if err != nil {
		return err
	}

	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"success": true, "data": items})
}

// GetByID handles GET /api/users/:id.
func (h *UsersHandler) GetByID(c *fiber.Ctx) error {
	id, err := parseID(c, "user id")
	if err != nil {
		return err
	}
	user, err := h.users.GetByID(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "data": dto.NewUserResponse(user)})
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if messages := dto.Validate(req); messages != nil {
		return apperrors.NewFieldValidationError(messages)
	}

	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": req.Role})
	}

	user, err := h.users.Create(c.UserContext(), req.Name, req.Email, role)
	if err != nil {
		return err
	}

	c.Set(fiber.HeaderLocation, fmt.Sprintf("/api/users/%d", user.ID))
	return c.Status(http.StatusCreated).JSON(fiber.Map{"success": true, "data": dto.NewUserResponse(user)})
}
