package models

import "time"

// RoleName is a closed enumeration; role names are not free text.
type RoleName string

const (
	RoleNameAdmin     RoleName = "admin"
	RoleNameUser      RoleName = "user"
	RoleNameModerator RoleName = "moderator"
	RoleNameDeveloper RoleName = "developer"
)

// SystemRoleNames lists every role the system recognizes, in seeding order.
func SystemRoleNames() []RoleName {
	return []RoleName{RoleNameAdmin, RoleNameUser, RoleNameModerator, RoleNameDeveloper}
}

// IsValidRoleName reports whether name is part of the closed enumeration.
func IsValidRoleName(name string) bool {
	switch RoleName(name) {
	case RoleNameAdmin, RoleNameUser, RoleNameModerator, RoleNameDeveloper:
		return true
	}
	return false
}

// Role is a named permission bucket.
type Role struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	Name      RoleName  `gorm:"column:name;uniqueIndex" json:"name"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`

	RolePermissions []RolePermission `gorm:"foreignKey:RoleID" json:"role_permissions,omitempty"`
	RoleUsers       []RoleUser       `gorm:"foreignKey:RoleID" json:"role_users,omitempty"`
}

func (Role) TableName() string { return "roles" }
