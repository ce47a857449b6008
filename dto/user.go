package dto

import (
	"time"

	"github.com/authgate/authgate/models"
)

// UserResponse represents a user in API responses. The password hash never
// leaves the store layer; roles are flattened to names.
type UserResponse struct {
	ID        string            `json:"id"`
	Email     string            `json:"email"`
	FirstName string            `json:"first_name"`
	LastName  string            `json:"last_name"`
	Status    models.UserStatus `json:"status"`
	Roles     []string          `json:"roles"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// FromUser converts a models.User to UserResponse. RoleUsers must be
// preloaded with their Role for the names to appear.
func FromUser(u *models.User) UserResponse {
	roles := []string{}
	for _, ru := range u.RoleUsers {
		if ru.Role != nil {
			roles = append(roles, string(ru.Role.Name))
		}
	}
	return UserResponse{
		ID:        u.ID,
		Email:     u.Email,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Status:    u.Status,
		Roles:     roles,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// FromUsers converts a slice of models.User to a slice of UserResponse.
func FromUsers(users []models.User) []UserResponse {
	responses := make([]UserResponse, len(users))
	for i := range users {
		responses[i] = FromUser(&users[i])
	}
	return responses
}

// UpdateUserRequest carries a partial user update; nil fields are left
// untouched.
type UpdateUserRequest struct {
	Email     *string `json:"email" binding:"omitempty,email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	Status    *string `json:"status"`
}
