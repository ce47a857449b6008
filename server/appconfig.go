package server

import (
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// AppConfig defines application configuration loaded from files and
// environment.
type AppConfig struct {
	Env        string           `koanf:"env"`
	AppName    string           `koanf:"app_name"`
	Listen     string           `koanf:"listen"`
	Database   DatabaseConfig   `koanf:"database"`
	JWT        JWTConfig        `koanf:"jwt"`
	TokenStore TokenStoreConfig `koanf:"token_store"`
	Valkey     ValkeyConfig     `koanf:"valkey"`
	Email      EmailConfig      `koanf:"email"`
	// TestEndpoints enables the destructive /test/setup route; never set
	// in production.
	TestEndpoints bool `koanf:"test_endpoints"`
}

type DatabaseConfig struct {
	DSN string `koanf:"dsn"`
}

type JWTConfig struct {
	Secret     string        `koanf:"secret"`
	AccessTTL  time.Duration `koanf:"access_ttl"`
	RefreshTTL time.Duration `koanf:"refresh_ttl"`
}

// TokenStoreConfig selects where issued token pairs are recorded.
type TokenStoreConfig struct {
	// Backend is one of "gorm", "buntdb" or "valkey". Empty picks valkey
	// when valkey.addr is set, gorm otherwise.
	Backend string `koanf:"backend"`
}

type ValkeyConfig struct {
	Addr   string `koanf:"addr"`
	Prefix string `koanf:"prefix"`
}

type EmailConfig struct {
	Provider     string          `koanf:"provider"`
	FromAddress  string          `koanf:"from_address"`
	FromName     string          `koanf:"from_name"`
	SupportEmail string          `koanf:"support_email"`
	SMTP         SMTPEmailConfig `koanf:"smtp"`
}

type SMTPEmailConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	Username string `koanf:"username"`
	Password string `koanf:"password"`
	UseTLS   bool   `koanf:"use_tls"`
	UseSSL   bool   `koanf:"use_ssl"`
}

// LoadConfig loads configuration. Loading order:
// 1) config/config.yaml (optional)
// 2) config/config.<APP_ENV>.yaml (optional), APP_ENV defaults to "local"
// 3) Environment variables with prefix AUTHGATE_ mapped using __ as nested
// separator, e.g. AUTHGATE_DATABASE__DSN
func LoadConfig() *AppConfig {
	k := koanf.New(".")
	// Config directory (CONFIG_DIR) default ./config
	configDir := os.Getenv("CONFIG_DIR")
	if configDir == "" {
		configDir = "config"
	}
	// Whether to load files (default: disabled to keep tests isolated)
	loadFiles := strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "1") || strings.EqualFold(os.Getenv("APP_CONFIG_FILES"), "true")
	if loadFiles {
		base := filepath.Join(configDir, "config.yaml")
		if _, err := os.Stat(base); err == nil {
			if err := k.Load(file.Provider(base), yaml.Parser()); err != nil {
				log.Printf("config: failed loading base: %v", err)
			}
		}
	}
	envName := os.Getenv("APP_ENV")
	if envName == "" {
		envName = "local"
	}
	if loadFiles {
		envFile := filepath.Join(configDir, "config."+envName+".yaml")
		if _, err := os.Stat(envFile); err == nil {
			if err := k.Load(file.Provider(envFile), yaml.Parser()); err != nil {
				log.Printf("config: failed loading env file: %v", err)
			}
		}
	}
	// env vars: AUTHGATE_ prefix, __ delim for nesting
	_ = k.Load(env.Provider("AUTHGATE_", "__", func(s string) string {
		// AUTHGATE_DATABASE__DSN -> database.dsn
		return strings.ToLower(strings.TrimPrefix(s, "AUTHGATE_"))
	}), nil)

	var c AppConfig
	if err := k.Unmarshal("", &c); err != nil {
		log.Printf("config: unmarshal error: %v", err)
	}
	if c.Env == "" {
		c.Env = envName
	}
	c.applyDefaults()
	return &c
}

func (c *AppConfig) applyDefaults() {
	if c.AppName == "" {
		c.AppName = "AuthGate"
	}
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.JWT.AccessTTL == 0 {
		c.JWT.AccessTTL = DefaultAccessTTL
	}
	if c.JWT.RefreshTTL == 0 {
		c.JWT.RefreshTTL = DefaultRefreshTTL
	}
	if c.JWT.Secret == "" {
		log.Printf("config: jwt.secret not set, using insecure development default")
		c.JWT.Secret = "00000000"
	}
}

// DatabaseDSN returns the effective DSN (config first, then env fallback to
// MIGRATE_DSN so one variable serves both the service and the migrator).
func (c *AppConfig) DatabaseDSN() string {
	if c != nil && c.Database.DSN != "" {
		return strings.TrimSpace(c.Database.DSN)
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))
	if dsn == "" {
		dsn = strings.TrimSpace(os.Getenv("MIGRATE_DSN"))
	}
	return dsn
}
