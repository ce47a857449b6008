package models

import "time"

// PermissionAction is one of the four CRUD verbs a permission can grant.
type PermissionAction string

const (
	ActionCreate PermissionAction = "create"
	ActionRead   PermissionAction = "read"
	ActionUpdate PermissionAction = "update"
	ActionDelete PermissionAction = "delete"
)

// PermissionModule names the resource a permission applies to.
type PermissionModule string

const (
	ModuleUser           PermissionModule = "user"
	ModuleRole           PermissionModule = "role"
	ModulePermission     PermissionModule = "permission"
	ModuleRoleUser       PermissionModule = "role_user"
	ModuleRolePermission PermissionModule = "role_permission"
)

// PermissionActions returns all actions in seeding order.
func PermissionActions() []PermissionAction {
	return []PermissionAction{ActionCreate, ActionRead, ActionUpdate, ActionDelete}
}

// PermissionModules returns all modules in seeding order.
func PermissionModules() []PermissionModule {
	return []PermissionModule{ModuleUser, ModuleRole, ModulePermission, ModuleRoleUser, ModuleRolePermission}
}

// IsValidAction reports whether s is a known permission action.
func IsValidAction(s string) bool {
	switch PermissionAction(s) {
	case ActionCreate, ActionRead, ActionUpdate, ActionDelete:
		return true
	}
	return false
}

// IsValidModule reports whether s is a known permission module.
func IsValidModule(s string) bool {
	switch PermissionModule(s) {
	case ModuleUser, ModuleRole, ModulePermission, ModuleRoleUser, ModuleRolePermission:
		return true
	}
	return false
}

// PermissionKey builds the "module.action" key used by route requirements
// and guard evaluation, e.g. "user.create". Building keys from the
// enumerations keeps route declarations tied to rows the seeder creates.
func PermissionKey(module PermissionModule, action PermissionAction) string {
	return string(module) + "." + string(action)
}

// Permission grants one action on one module; (action, module) is unique.
type Permission struct {
	ID        string           `gorm:"column:id;primaryKey" json:"id"`
	Action    PermissionAction `gorm:"column:action;uniqueIndex:idx_permissions_action_module" json:"action"`
	Module    PermissionModule `gorm:"column:module;uniqueIndex:idx_permissions_action_module" json:"module"`
	CreatedAt time.Time        `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time        `gorm:"column:updated_at" json:"updated_at"`
}

func (Permission) TableName() string { return "permissions" }

// Key returns the permission's "module.action" key.
func (p Permission) Key() string { return PermissionKey(p.Module, p.Action) }

// RolePermission links a role to a permission; (role_id, permission_id) is
// unique. CanDoTheAction is a soft-disable flag distinct from the link's
// existence: a link with the flag false grants nothing.
type RolePermission struct {
	ID             string    `gorm:"column:id;primaryKey" json:"id"`
	RoleID         string    `gorm:"column:role_id;uniqueIndex:idx_role_permissions_role_permission" json:"role_id"`
	PermissionID   string    `gorm:"column:permission_id;uniqueIndex:idx_role_permissions_role_permission" json:"permission_id"`
	CanDoTheAction bool      `gorm:"column:can_do_the_action" json:"can_do_the_action"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`

	Permission *Permission `gorm:"foreignKey:PermissionID" json:"permission,omitempty"`
}

func (RolePermission) TableName() string { return "role_permissions" }
