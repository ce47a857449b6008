// Package dto defines the request and response shapes of the HTTP API.
// Request structs carry gin binding tags; response structs strip anything a
// client should not see, most notably password hashes.
package dto

import (
	"unicode"

	"github.com/authgate/authgate/errs"
)

// RegisterRequest creates a new account. The password must pass
// ValidatePassword; the status always starts unverified.
type RegisterRequest struct {
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest exchanges an access token plus its live refresh token for a
// new pair. The access token may already be expired; its signature must
// still check out.
type RefreshRequest struct {
	AccessToken  string `json:"access_token" binding:"required"`
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Token string `json:"token" binding:"required"`
}

type ResendVerificationRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ChangePasswordRequest rotates the caller's own password; the old one must
// verify first.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" binding:"required"`
	NewPassword string `json:"new_password" binding:"required"`
}

// ChangeEmailRequest moves the caller's own account to a new address.
type ChangeEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest completes the forgot-password flow with the emailed
// token.
type ResetPasswordRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AssignRoleRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	RoleName string `json:"role_name" binding:"required"`
}

type RevokeRoleRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	RoleName string `json:"role_name" binding:"required"`
}

type SetUserEmailRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Email  string `json:"email" binding:"required,email"`
}

type SetUserPasswordRequest struct {
	UserID   string `json:"user_id" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse is the body returned by login and refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
}

// ValidatePassword enforces the account password policy: at least 8
// characters with an upper-case letter, a lower-case letter, a digit, and a
// symbol.
func ValidatePassword(pw string) error {
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			symbol = true
		}
	}
	if len(pw) < 8 || !upper || !lower || !digit || !symbol {
		return errs.InvalidInput("PASSWORD_TOO_WEAK")
	}
	return nil
}
