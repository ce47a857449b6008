package dto

import (
	"time"

	"github.com/authgate/authgate/models"
)

type CreateRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

type UpdateRoleRequest struct {
	Name string `json:"name" binding:"required"`
}

// AssignPermissionRequest links a permission to a role. CanDoTheAction
// defaults to true when omitted.
type AssignPermissionRequest struct {
	RoleID         string `json:"role_id" binding:"required"`
	PermissionID   string `json:"permission_id" binding:"required"`
	CanDoTheAction *bool  `json:"can_do_the_action"`
}

type UpdateRolePermissionRequest struct {
	RoleID         string `json:"role_id" binding:"required"`
	PermissionID   string `json:"permission_id" binding:"required"`
	CanDoTheAction bool   `json:"can_do_the_action"`
}

type RevokeRolePermissionRequest struct {
	RoleID       string `json:"role_id" binding:"required"`
	PermissionID string `json:"permission_id" binding:"required"`
}

// RolePermissionResponse is one granted (or soft-disabled) permission on a
// role.
type RolePermissionResponse struct {
	ID             string    `json:"id"`
	PermissionID   string    `json:"permission_id"`
	Key            string    `json:"key,omitempty"`
	CanDoTheAction bool      `json:"can_do_the_action"`
	CreatedAt      time.Time `json:"created_at"`
}

type RoleResponse struct {
	ID          string                   `json:"id"`
	Name        models.RoleName          `json:"name"`
	Permissions []RolePermissionResponse `json:"permissions"`
	Users       []UserResponse           `json:"users,omitempty"`
	CreatedAt   time.Time                `json:"created_at"`
	UpdatedAt   time.Time                `json:"updated_at"`
}

// FromRole converts a models.Role to RoleResponse. Associations appear only
// when preloaded.
func FromRole(r *models.Role) RoleResponse {
	perms := make([]RolePermissionResponse, 0, len(r.RolePermissions))
	for _, rp := range r.RolePermissions {
		pr := RolePermissionResponse{
			ID:             rp.ID,
			PermissionID:   rp.PermissionID,
			CanDoTheAction: rp.CanDoTheAction,
			CreatedAt:      rp.CreatedAt,
		}
		if rp.Permission != nil {
			pr.Key = rp.Permission.Key()
		}
		perms = append(perms, pr)
	}
	resp := RoleResponse{
		ID:          r.ID,
		Name:        r.Name,
		Permissions: perms,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	for _, ru := range r.RoleUsers {
		if ru.User != nil {
			resp.Users = append(resp.Users, FromUser(ru.User))
		}
	}
	return resp
}

func FromRoles(roles []models.Role) []RoleResponse {
	responses := make([]RoleResponse, len(roles))
	for i := range roles {
		responses[i] = FromRole(&roles[i])
	}
	return responses
}
