package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/account-service/internal/api/dto"
	"github.com/spec-kit/account-service/internal/auth"
	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/repository"
	"github.com/spec-kit/account-service/internal/service"
	apperrors "github.com/spec-kit/account-service/pkg/util/errorutil"
)

// UsersHandler exposes administrative account management endpoints.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

func requestor(c *fiber.Ctx) *domain.User {
	if principal, ok := auth.PrincipalFromContext(c); ok {
		return principal.User
	}
	return nil
}

// Create handles POST /users.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, err := h.users.Create(c.UserContext(), requestor(c), service.CreateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		CPF:          req.CPF,
		Phone:        req.Phone,
		Role:         domain.Role(req.Role),
		Observations: req.Observations,
	})
	if err != nil {
		return err
	}

	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"data":    dto.NewUserResponse(user),
		"message": "user created; a set-password email has been sent",
	})
}

// List handles GET /users.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	var query dto.ListUsersQuery
	if err := c.QueryParser(&query); err != nil {
		return apperrors.NewValidationError("invalid query", nil)
	}
	if err := dto.Validate(query); err != nil {
		return err
	}

	page, err := h.users.List(c.UserContext(), repository.UserListFilters{
		Name:   query.Name,
		Email:  query.Email,
		Status: query.Status,
	}, query.Page, query.PerPage)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserListResponse(page))
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *fiber.Ctx) error {
	user, err := h.users.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// Update handles PUT /users/:id.
func (h *UsersHandler) Update(c *fiber.Ctx) error {
	var req dto.UpdateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	user, err := h.users.Update(c.UserContext(), requestor(c), c.Params("id"), service.UpdateUserInput{
		Name:         req.Name,
		Email:        req.Email,
		CPF:          req.CPF,
		Phone:        req.Phone,
		Role:         domain.Role(req.Role),
		Observations: req.Observations,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewUserResponse(user)})
}

// ToggleStatus handles PATCH /users/:id/status.
func (h *UsersHandler) ToggleStatus(c *fiber.Ctx) error {
	user, err := h.users.ToggleStatus(c.UserContext(), requestor(c), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data":    dto.NewUserResponse(user),
		"message": "status updated",
	})
}

// Delete handles DELETE /users/:id.
func (h *UsersHandler) Delete(c *fiber.Ctx) error {
	if err := h.users.Delete(c.UserContext(), requestor(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "user deleted"}})
}

// ResendOnboarding handles POST /users/:id/resend-onboarding.
func (h *UsersHandler) ResendOnboarding(c *fiber.Ctx) error {
	if err := h.users.ResendOnboarding(c.UserContext(), requestor(c), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"message": "onboarding email sent"}})
}
