package models

import "time"

// AuthToken records an issued access/refresh token pair. Refresh and logout
// validate against this record, so deleting it revokes the pair.
type AuthToken struct {
	ID           string    `gorm:"column:id;primaryKey" json:"id"`
	UserID       string    `gorm:"column:user_id;index" json:"user_id"`
	AccessToken  string    `gorm:"column:access_token;index" json:"access_token"`
	RefreshToken string    `gorm:"column:refresh_token" json:"refresh_token"`
	CreatedAt    time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt    time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (AuthToken) TableName() string { return "auth_tokens" }

// VerificationPurpose scopes a verification token to one flow.
type VerificationPurpose string

const (
	PurposeEmailVerification VerificationPurpose = "email_verification"
	PurposePasswordReset     VerificationPurpose = "password_reset"
)

// VerificationToken is a single-use, expiring token tied to a user and a
// purpose. Consumption deletes the row.
type VerificationToken struct {
	ID        string              `gorm:"column:id;primaryKey" json:"id"`
	UserID    string              `gorm:"column:user_id;index" json:"user_id"`
	Token     string              `gorm:"column:token" json:"token"`
	Purpose   VerificationPurpose `gorm:"column:purpose" json:"purpose"`
	ExpiresAt time.Time           `gorm:"column:expires_at" json:"expires_at"`
	CreatedAt time.Time           `gorm:"column:created_at" json:"created_at"`
}

func (VerificationToken) TableName() string { return "verification_tokens" }
