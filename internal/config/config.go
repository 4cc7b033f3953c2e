// Package config resolves runtime settings from the environment and an
// optional .env file.
package config

import (
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

type Config struct {
	Port    string
	GinMode string

	StoreDriver     string
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	MigrateOnStart  bool

	JWTSecret string
	JWTTTL    time.Duration

	FrontendURL string
	UploadDir   string
	BaseURL     string

	AdminEmail    string
	AdminPassword string

	WhatsAppCountryCode string
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("STORE_DRIVER", DriverMySQL)
	v.SetDefault("DB_DSN", "root:root@tcp(127.0.0.1:3306)/education_center")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 25)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("MIGRATE_ON_START", false)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_TTL", 72*time.Hour)
	v.SetDefault("FRONTEND_URL", "http://localhost:5173")
	v.SetDefault("UPLOAD_DIR", "uploads")
	v.SetDefault("BASE_URL", "")
	v.SetDefault("ADMIN_EMAIL", "")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("WHATSAPP_COUNTRY_CODE", "20")

	v.AutomaticEnv()
	return v
}

// Load reads .env (when present) and then the process environment. Values
// already set in the environment win over the file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		if !os.IsNotExist(errors.Cause(err)) {
			return nil, errors.Wrap(err, "config: load .env")
		}
		log.Println("WARNING: no .env file found, relying on system environment variables")
	}
	return FromViper(newViper())
}

// FromViper builds a Config out of an already populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Port:                v.GetString("PORT"),
		GinMode:             v.GetString("GIN_MODE"),
		StoreDriver:         strings.ToLower(strings.TrimSpace(v.GetString("STORE_DRIVER"))),
		DSN:                 v.GetString("DB_DSN"),
		MaxOpenConns:        v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:        v.GetInt("DB_MAX_IDLE_CONNS"),
		ConnMaxLifetime:     v.GetDuration("DB_CONN_MAX_LIFETIME"),
		MigrateOnStart:      v.GetBool("MIGRATE_ON_START"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		JWTTTL:              v.GetDuration("JWT_TTL"),
		FrontendURL:         v.GetString("FRONTEND_URL"),
		UploadDir:           v.GetString("UPLOAD_DIR"),
		BaseURL:             strings.TrimRight(v.GetString("BASE_URL"), "/"),
		AdminEmail:          strings.TrimSpace(v.GetString("ADMIN_EMAIL")),
		AdminPassword:       v.GetString("ADMIN_PASSWORD"),
		WhatsAppCountryCode: strings.TrimPrefix(v.GetString("WHATSAPP_COUNTRY_CODE"), "+"),
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:" + cfg.Port
	}
	return cfg, cfg.Validate()
}

// Validate checks the settings every command needs.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case DriverMySQL:
		if c.DSN == "" {
			return errors.New("config: DB_DSN is required for the mysql store")
		}
	case DriverMemory:
	default:
		return errors.Errorf("config: unknown STORE_DRIVER %q", c.StoreDriver)
	}
	return nil
}

// ValidateAPI checks the settings only the HTTP server needs.
func (c *Config) ValidateAPI() error {
	if c.JWTSecret == "" {
		return errors.New("config: JWT_SECRET is required")
	}
	if c.JWTTTL <= 0 {
		return errors.New("config: JWT_TTL must be positive")
	}
	if (c.AdminEmail == "") != (c.AdminPassword == "") {
		return errors.New("config: ADMIN_EMAIL and ADMIN_PASSWORD must be set together")
	}
	return nil
}
