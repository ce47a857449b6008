package dto

import (
	"time"

	"github.com/authgate/authgate/models"
)

type CreatePermissionRequest struct {
	Action string `json:"action" binding:"required"`
	Module string `json:"module" binding:"required"`
}

// UpdatePermissionRequest is a partial update; either field may be omitted.
type UpdatePermissionRequest struct {
	Action *string `json:"action"`
	Module *string `json:"module"`
}

type PermissionResponse struct {
	ID        string                  `json:"id"`
	Action    models.PermissionAction `json:"action"`
	Module    models.PermissionModule `json:"module"`
	Key       string                  `json:"key"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
}

func FromPermission(p *models.Permission) PermissionResponse {
	return PermissionResponse{
		ID:        p.ID,
		Action:    p.Action,
		Module:    p.Module,
		Key:       p.Key(),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func FromPermissions(perms []models.Permission) []PermissionResponse {
	responses := make([]PermissionResponse, len(perms))
	for i := range perms {
		responses[i] = FromPermission(&perms[i])
	}
	return responses
}
