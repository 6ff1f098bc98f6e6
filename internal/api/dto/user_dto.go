package dto

import (
	"time"

	"github.com/spec-kit/account-service/internal/domain"
	"github.com/spec-kit/account-service/internal/service"
)

// CreateUserRequest payload for the admin account-creation path.
type CreateUserRequest struct {
	Name         string  `json:"name" validate:"required,min=3"`
	Email        string  `json:"email" validate:"required,email"`
	CPF          string  `json:"cpf" validate:"required,len=11,numeric"`
	Phone        *string `json:"phone" validate:"omitempty,len=11,numeric"`
	Role         string  `json:"role" validate:"required,oneof=admin coordinator operator"`
	Observations *string `json:"observations" validate:"omitempty,max=500"`
}

// UpdateUserRequest payload for profile updates.
type UpdateUserRequest struct {
	Name         string  `json:"name" validate:"required,min=3"`
	Email        string  `json:"email" validate:"required,email"`
	CPF          string  `json:"cpf" validate:"required,len=11,numeric"`
	Phone        *string `json:"phone" validate:"omitempty,len=11,numeric"`
	Role         string  `json:"role" validate:"required,oneof=admin coordinator operator"`
	Observations *string `json:"observations" validate:"omitempty,max=500"`
}

// ListUsersQuery captures listing filters and pagination.
type ListUsersQuery struct {
	Page    int    `query:"page"`
	PerPage int    `query:"perPage"`
	Name    string `query:"name"`
	Email   string `query:"email"`
	Status  string `query:"status" validate:"omitempty,oneof=active inactive all"`
}

// UserResponse is the outward account representation; the credential
// hash never leaves the service.
type UserResponse struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	CPF          string     `json:"cpf"`
	Phone        *string    `json:"phone,omitempty"`
	Role         string     `json:"role"`
	Observations *string    `json:"observations,omitempty"`
	Active       bool       `json:"active"`
	LastLoginAt  *time.Time `json:"last_login,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// NewUserResponse maps a domain user to its response shape.
func NewUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:           user.ID,
		Name:         user.Name,
		Email:        user.Email,
		CPF:          user.CPF,
		Phone:        user.Phone,
		Role:         string(user.Role),
		Observations: user.Observations,
		Active:       user.Active,
		LastLoginAt:  user.LastLoginAt,
		CreatedAt:    user.CreatedAt,
		UpdatedAt:    user.UpdatedAt,
	}
}

// PaginationMeta describes a listing page.
type PaginationMeta struct {
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
	TotalRecords int64 `json:"totalRecords"`
	TotalPages   int   `json:"totalPages"`
}

// UserListResponse is the paginated listing envelope.
type UserListResponse struct {
	Data       []UserResponse `json:"data"`
	Pagination PaginationMeta `json:"pagination"`
}

// NewUserListResponse maps a service page to its response shape.
func NewUserListResponse(page *service.UserPage) UserListResponse {
	items := make([]UserResponse, 0, len(page.Items))
	for i := range page.Items {
		items = append(items, NewUserResponse(&page.Items[i]))
	}
	return UserListResponse{
		Data: items,
		Pagination: PaginationMeta{
			CurrentPage:  page.Page,
			ItemsPerPage: page.PerPage,
			TotalRecords: page.TotalRecords,
			TotalPages:   page.TotalPages,
		},
	}
}
