package email

import (
	"context"
	"log"
)

// ConsoleSender logs emails to the server console, for development and
// tests. The token lines make flows completable without a mailbox.
type ConsoleSender struct{}

// NewConsoleSender creates a console-based email sender.
func NewConsoleSender() Sender {
	return &ConsoleSender{}
}

func (c *ConsoleSender) SendVerification(ctx context.Context, data VerificationEmailData) error {
	log.Printf("[EMAIL] Email Verification")
	log.Printf("  To: %s", data.To)
	log.Printf("  Name: %s", data.Name)
	log.Printf("  Token: %s", data.Token)
	log.Printf("  Expires in: %d minutes", data.ExpiresInMin)
	return nil
}

func (c *ConsoleSender) SendPasswordReset(ctx context.Context, data VerificationEmailData) error {
	log.Printf("[EMAIL] Password Reset")
	log.Printf("  To: %s", data.To)
	log.Printf("  Name: %s", data.Name)
	log.Printf("  Token: %s", data.Token)
	log.Printf("  Expires in: %d minutes", data.ExpiresInMin)
	return nil
}

func (c *ConsoleSender) SendEmail(ctx context.Context, data EmailData) error {
	log.Printf("[EMAIL] Sending Email")
	log.Printf("  From: %s <%s>", data.FromName, data.FromAddress)
	log.Printf("  To: %s", data.To)
	log.Printf("  Subject: %s", data.Subject)
	log.Printf("  Body: %s", data.TextBody)
	return nil
}

// Health always returns nil for console sender.
func (c *ConsoleSender) Health(ctx context.Context) error {
	return nil
}

func (c *ConsoleSender) ProviderType() ProviderType {
	return ProviderTypeConsole
}

// NoOpSender discards emails silently; useful in tests that only care
// about the API side effects.
type NoOpSender struct{}

func NewNoOpSender() Sender {
	return &NoOpSender{}
}

func (n *NoOpSender) SendVerification(ctx context.Context, data VerificationEmailData) error {
	return nil
}

func (n *NoOpSender) SendPasswordReset(ctx context.Context, data VerificationEmailData) error {
	return nil
}

func (n *NoOpSender) SendEmail(ctx context.Context, data EmailData) error {
	return nil
}

func (n *NoOpSender) Health(ctx context.Context) error {
	return nil
}

func (n *NoOpSender) ProviderType() ProviderType {
	return ProviderTypeConsole
}
