package models

import "time"

// UserStatus tracks the verification lifecycle of a user.
type UserStatus string

const (
	UserStatusUnverified UserStatus = "unverified"
	UserStatusActive     UserStatus = "active"
	UserStatusSuspended  UserStatus = "suspended"
)

// User is an identity record. Password always holds the bcrypt hash,
// never plaintext, and is excluded from JSON responses.
type User struct {
	ID        string     `gorm:"column:id;primaryKey" json:"id"`
	Email     string     `gorm:"column:email;uniqueIndex" json:"email"`
	Password  string     `gorm:"column:password" json:"-"`
	FirstName string     `gorm:"column:first_name" json:"first_name"`
	LastName  string     `gorm:"column:last_name" json:"last_name"`
	Status    UserStatus `gorm:"column:status" json:"status"`
	CreatedAt time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time  `gorm:"column:updated_at" json:"updated_at"`

	RoleUsers []RoleUser `gorm:"foreignKey:UserID" json:"role_users,omitempty"`
}

func (User) TableName() string { return "users" }

// RoleUser links a user to a role; (user_id, role_id) is unique.
type RoleUser struct {
	ID        string    `gorm:"column:id;primaryKey" json:"id"`
	UserID    string    `gorm:"column:user_id;uniqueIndex:idx_role_users_user_role" json:"user_id"`
	RoleID    string    `gorm:"column:role_id;uniqueIndex:idx_role_users_user_role" json:"role_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`

	Role *Role `gorm:"foreignKey:RoleID" json:"role,omitempty"`
	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (RoleUser) TableName() string { return "role_users" }
