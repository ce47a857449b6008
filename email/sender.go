// Package email delivers the verification and password-reset mails the auth
// flows depend on. The Sender interface hides the transport; console is the
// development default and SMTP the production one.
package email

import "context"

// ProviderType identifies an email transport.
type ProviderType string

const (
	ProviderTypeConsole ProviderType = "console"
	ProviderTypeSMTP    ProviderType = "smtp"
)

// SMTPConfig holds SMTP-specific configuration.
type SMTPConfig struct {
	Host       string `json:"host"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	UseTLS     bool   `json:"use_tls"`
	UseSSL     bool   `json:"use_ssl"`
	SkipVerify bool   `json:"skip_verify"`
}

// VerificationEmailData carries everything the verification mail renders.
// The same shape serves password resets; Purpose switches the wording.
type VerificationEmailData struct {
	To           string
	Name         string
	Token        string
	ExpiresInMin int
	AppName      string
	SupportEmail string
}

// EmailData represents a generic email.
type EmailData struct {
	To          string
	Subject     string
	TextBody    string
	HTMLBody    string
	FromAddress string
	FromName    string
}

// Sender delivers account emails.
type Sender interface {
	// SendVerification sends the email-verification token mail.
	SendVerification(ctx context.Context, data VerificationEmailData) error

	// SendPasswordReset sends the password-reset token mail.
	SendPasswordReset(ctx context.Context, data VerificationEmailData) error

	// SendEmail sends a generic email.
	SendEmail(ctx context.Context, data EmailData) error

	// Health checks if the transport is available.
	Health(ctx context.Context) error

	// ProviderType returns the type of the provider.
	ProviderType() ProviderType
}
