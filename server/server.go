// Package server wires the HTTP API: gin routes, the three authorization
// gates (token, role, permission), and the handlers that drive the stores.
package server

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/authgate/authgate/email"
	"github.com/authgate/authgate/store"
	"github.com/authgate/authgate/token"
)

// Server holds every collaborator a handler needs. All dependencies are
// injected; nothing reaches for globals, which keeps tests free to swap in
// an in-memory token store or a no-op mailer.
type Server struct {
	Config *AppConfig
	DB     *gorm.DB

	Users         *store.UserStore
	Roles         *store.RoleStore
	Permissions   *store.PermissionStore
	Tokens        store.TokenRecords
	Verifications *store.VerificationTokenStore

	Issuer *token.Issuer
	Mailer email.Sender
}

// NewServer builds a Server from a database handle and config.
func NewServer(db *gorm.DB, cfg *AppConfig) (*Server, error) {
	records, err := newTokenRecords(db, cfg)
	if err != nil {
		return nil, err
	}

	var mailer email.Sender
	switch cfg.Email.Provider {
	case string(email.ProviderTypeSMTP):
		mailer = email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.Email.SMTP.Host,
			Port:     cfg.Email.SMTP.Port,
			Username: cfg.Email.SMTP.Username,
			Password: cfg.Email.SMTP.Password,
			UseTLS:   cfg.Email.SMTP.UseTLS,
			UseSSL:   cfg.Email.SMTP.UseSSL,
		}, cfg.Email.FromAddress, cfg.Email.FromName, cfg.AppName, cfg.Email.SupportEmail)
	default:
		mailer = email.NewConsoleSender()
	}

	return &Server{
		Config:        cfg,
		DB:            db,
		Users:         store.NewUserStore(db),
		Roles:         store.NewRoleStore(db),
		Permissions:   store.NewPermissionStore(db),
		Tokens:        records,
		Verifications: store.NewVerificationTokenStore(db),
		Issuer: token.NewIssuer(
			[]byte(cfg.JWT.Secret),
			cfg.JWT.AccessTTL,
			cfg.JWT.RefreshTTL,
		),
		Mailer: mailer,
	}, nil
}

// newTokenRecords picks the token record backend from
// token_store.backend: "gorm", "buntdb" or "valkey". Left empty, valkey is
// used when an address is configured and the database otherwise.
func newTokenRecords(db *gorm.DB, cfg *AppConfig) (store.TokenRecords, error) {
	backend := cfg.TokenStore.Backend
	if backend == "" {
		if cfg.Valkey.Addr != "" {
			backend = "valkey"
		} else {
			backend = "gorm"
		}
	}
	switch backend {
	case "valkey":
		return store.NewValkeyTokenRecords(cfg.Valkey.Addr, cfg.Valkey.Prefix)
	case "buntdb":
		return store.NewMemoryTokenRecords()
	case "gorm":
		return store.NewAuthTokenStore(db), nil
	default:
		return nil, fmt.Errorf("unknown token_store.backend %q", backend)
	}
}

// Token TTL defaults, applied when config leaves them zero.
const (
	DefaultAccessTTL  = 15 * time.Minute
	DefaultRefreshTTL = 7 * 24 * time.Hour

	VerificationTTL  = 24 * time.Hour
	PasswordResetTTL = time.Hour
)
