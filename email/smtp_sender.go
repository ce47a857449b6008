package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net/smtp"
	"strings"
	"time"
)

// SMTPSender sends emails via SMTP.
type SMTPSender struct {
	config       SMTPConfig
	fromAddress  string
	fromName     string
	appName      string
	supportEmail string
}

// NewSMTPSender creates a new SMTP email sender.
func NewSMTPSender(config SMTPConfig, fromAddress, fromName, appName, supportEmail string) *SMTPSender {
	if config.Port == 0 {
		if config.UseSSL {
			config.Port = 465
		} else {
			config.Port = 587
		}
	}
	if fromName == "" {
		fromName = appName
	}
	return &SMTPSender{
		config:       config,
		fromAddress:  fromAddress,
		fromName:     fromName,
		appName:      appName,
		supportEmail: supportEmail,
	}
}

// SendVerification sends the email-verification token mail.
func (s *SMTPSender) SendVerification(ctx context.Context, data VerificationEmailData) error {
	return s.sendTokenMail(ctx, data, tokenMailCopy{
		Subject: "Verify your email address",
		Heading: "Email Verification",
		Lead:    "Thanks for signing up. Use the token below to verify your email address:",
		Ignore:  "If you didn't create an account, you can safely ignore this email.",
	})
}

// SendPasswordReset sends the password-reset token mail.
func (s *SMTPSender) SendPasswordReset(ctx context.Context, data VerificationEmailData) error {
	return s.sendTokenMail(ctx, data, tokenMailCopy{
		Subject: "Password reset request",
		Heading: "Password Reset Request",
		Lead:    "We received a request to reset your password. Use the token below to complete the process:",
		Ignore:  "If you didn't request a password reset, you can safely ignore this email. Your password will not be changed.",
	})
}

// tokenMailCopy is the per-purpose wording of a token mail.
type tokenMailCopy struct {
	Subject string
	Heading string
	Lead    string
	Ignore  string
}

func (s *SMTPSender) sendTokenMail(ctx context.Context, data VerificationEmailData, cp tokenMailCopy) error {
	if data.AppName == "" {
		data.AppName = s.appName
	}
	if data.SupportEmail == "" {
		data.SupportEmail = s.supportEmail
	}

	htmlBody, err := s.renderTokenHTML(data, cp)
	if err != nil {
		return fmt.Errorf("failed to render email template: %w", err)
	}

	return s.SendEmail(ctx, EmailData{
		To:       data.To,
		Subject:  cp.Subject,
		TextBody: s.renderTokenText(data, cp),
		HTMLBody: htmlBody,
	})
}

// SendEmail sends a generic email.
func (s *SMTPSender) SendEmail(ctx context.Context, data EmailData) error {
	fromAddr := data.FromAddress
	if fromAddr == "" {
		fromAddr = s.fromAddress
	}
	fromName := data.FromName
	if fromName == "" {
		fromName = s.fromName
	}

	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	headers := make(map[string]string)
	headers["From"] = fmt.Sprintf("%s <%s>", fromName, fromAddr)
	headers["To"] = data.To
	headers["Subject"] = data.Subject
	headers["MIME-Version"] = "1.0"

	var msg strings.Builder

	if data.HTMLBody != "" {
		boundary := "boundary-authgate-email"
		headers["Content-Type"] = fmt.Sprintf("multipart/alternative; boundary=%s", boundary)

		for k, v := range headers {
			msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
		}
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
		msg.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		msg.WriteString(data.TextBody)
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s\r\n", boundary))
		msg.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
		msg.WriteString("Content-Transfer-Encoding: quoted-printable\r\n\r\n")
		msg.WriteString(data.HTMLBody)
		msg.WriteString("\r\n")

		msg.WriteString(fmt.Sprintf("--%s--\r\n", boundary))
	} else {
		headers["Content-Type"] = "text/plain; charset=UTF-8"
		for k, v := range headers {
			msg.WriteString(fmt.Sprintf("%s: %s\r\n", k, v))
		}
		msg.WriteString("\r\n")
		msg.WriteString(data.TextBody)
	}

	var auth smtp.Auth
	if s.config.Username != "" && s.config.Password != "" {
		auth = smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	}

	if s.config.UseSSL {
		return s.sendEmailSSL(addr, auth, data.To, msg.String())
	}

	return s.sendEmailTLS(addr, auth, data.To, msg.String())
}

// Health checks if the SMTP server is reachable.
func (s *SMTPSender) Health(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	done := make(chan error, 1)

	go func() {
		conn, err := smtp.Dial(addr)
		if err != nil {
			done <- fmt.Errorf("failed to connect to SMTP server: %w", err)
			return
		}
		conn.Close()
		done <- nil
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("SMTP health check timeout")
	}
}

func (s *SMTPSender) ProviderType() ProviderType {
	return ProviderTypeSMTP
}

func (s *SMTPSender) sendEmailTLS(addr string, auth smtp.Auth, to, message string) error {
	client, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer client.Close()

	if s.config.UseTLS {
		tlsConfig := &tls.Config{
			ServerName:         s.config.Host,
			InsecureSkipVerify: s.config.SkipVerify,
		}
		if err := client.StartTLS(tlsConfig); err != nil {
			return fmt.Errorf("failed to start TLS: %w", err)
		}
	}

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	fromAddr := s.fromAddress
	if fromAddr == "" {
		fromAddr = s.config.Username
	}

	if err := client.Mail(fromAddr); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err = w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close email body: %w", err)
	}

	return client.Quit()
}

func (s *SMTPSender) sendEmailSSL(addr string, auth smtp.Auth, to, message string) error {
	tlsConfig := &tls.Config{
		ServerName:         s.config.Host,
		InsecureSkipVerify: s.config.SkipVerify,
	}

	conn, err := tls.Dial("tcp", addr, tlsConfig)
	if err != nil {
		return fmt.Errorf("failed to connect to SMTP server via SSL: %w", err)
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return fmt.Errorf("SMTP authentication failed: %w", err)
		}
	}

	fromAddr := s.fromAddress
	if fromAddr == "" {
		fromAddr = s.config.Username
	}

	if err := client.Mail(fromAddr); err != nil {
		return fmt.Errorf("MAIL FROM failed: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("RCPT TO failed: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("DATA command failed: %w", err)
	}
	if _, err = w.Write([]byte(message)); err != nil {
		return fmt.Errorf("failed to write email body: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close email body: %w", err)
	}

	return client.Quit()
}

func (s *SMTPSender) renderTokenHTML(data VerificationEmailData, cp tokenMailCopy) (string, error) {
	tmpl := `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>{{.Copy.Heading}}</title>
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, 'Helvetica Neue', Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <div style="background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); padding: 30px; text-align: center; border-radius: 10px 10px 0 0;">
        <h1 style="color: white; margin: 0; font-size: 24px;">{{.Data.AppName}}</h1>
    </div>

    <div style="background: #ffffff; padding: 30px; border: 1px solid #e0e0e0; border-top: none; border-radius: 0 0 10px 10px;">
        <h2 style="color: #333; margin-top: 0;">{{.Copy.Heading}}</h2>

        <p>Hello{{if .Data.Name}} <strong>{{.Data.Name}}</strong>{{end}},</p>

        <p>{{.Copy.Lead}}</p>

        <div style="background: #f5f5f5; border-radius: 8px; padding: 20px; text-align: center; margin: 25px 0;">
            <span style="font-size: 20px; font-weight: bold; letter-spacing: 2px; color: #667eea;">{{.Data.Token}}</span>
        </div>

        <p style="color: #666; font-size: 14px;">
            This token will expire in <strong>{{.Data.ExpiresInMin}} minutes</strong>.
        </p>

        <p style="color: #666; font-size: 14px;">{{.Copy.Ignore}}</p>

        <hr style="border: none; border-top: 1px solid #e0e0e0; margin: 25px 0;">

        <p style="color: #999; font-size: 12px; margin-bottom: 0;">
            This is an automated message from {{.Data.AppName}}.
            {{if .Data.SupportEmail}}If you need help, contact us at <a href="mailto:{{.Data.SupportEmail}}" style="color: #667eea;">{{.Data.SupportEmail}}</a>.{{end}}
        </p>
    </div>
</body>
</html>`

	t, err := template.New("token_mail").Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf strings.Builder
	if err := t.Execute(&buf, struct {
		Data VerificationEmailData
		Copy tokenMailCopy
	}{data, cp}); err != nil {
		return "", err
	}

	return buf.String(), nil
}

func (s *SMTPSender) renderTokenText(data VerificationEmailData, cp tokenMailCopy) string {
	var buf strings.Builder

	buf.WriteString(fmt.Sprintf("%s - %s\n\n", data.AppName, cp.Heading))

	if data.Name != "" {
		buf.WriteString(fmt.Sprintf("Hello %s,\n\n", data.Name))
	} else {
		buf.WriteString("Hello,\n\n")
	}

	buf.WriteString(cp.Lead + "\n\n")
	buf.WriteString(fmt.Sprintf("    %s\n\n", data.Token))
	buf.WriteString(fmt.Sprintf("This token will expire in %d minutes.\n\n", data.ExpiresInMin))
	buf.WriteString(cp.Ignore + "\n\n")

	if data.SupportEmail != "" {
		buf.WriteString(fmt.Sprintf("If you need help, contact us at %s.\n", data.SupportEmail))
	}

	return buf.String()
}
