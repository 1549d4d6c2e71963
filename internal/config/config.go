package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

const appName = "calendarhub"

type Config struct {
	DatabasePath string `env:"DATABASE_PATH"`
	HTTPAddr     string `env:"HTTP_ADDR" envDefault:":8080"`
	BaseURL      string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	JWTSecret     string        `env:"JWT_SECRET_KEY"`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"24h"`
	SessionSecret string        `env:"SESSION_SECRET"`
	CookieSecure  bool          `env:"COOKIE_SECURE" envDefault:"false"`

	Google        Google `envPrefix:"GOOGLE_"`
	FacebookAppID string `env:"FACEBOOK_APP_ID"`

	// TokenRefreshMargin is how close to expiry a stored access token is
	// refreshed before use.
	TokenRefreshMargin time.Duration `env:"TOKEN_REFRESH_MARGIN" envDefault:"5m"`
	// SyncWindow bounds how far ahead a sync imports. Zero means no bound.
	SyncWindow time.Duration `env:"SYNC_WINDOW" envDefault:"0s"`
}

type Google struct {
	ClientID     string `env:"CLIENT_ID"`
	ClientSecret string `env:"CLIENT_SECRET"`
	RedirectURL  string `env:"REDIRECT_URL"`
}

// Load reads the configuration from the environment after loading envFile
// into it. An empty envFile loads ./.env when present.
func Load(envFile string) (*Config, error) {
	if envFile == "" {
		// Load .env file first, but don't error if it doesn't exist.
		_ = godotenv.Load()
	} else if err := godotenv.Load(envFile); err != nil {
		return nil, fmt.Errorf("loading %s: %w", envFile, err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultDatabasePath()
	}
	if cfg.Google.RedirectURL == "" {
		cfg.Google.RedirectURL = cfg.BaseURL + "/oauth/google/callback"
	}
	return cfg, nil
}

func DefaultDatabasePath() string {
	return filepath.Join(xdg.DataHome, appName, appName+".db")
}

// CheckGoogle reports the missing settings needed to talk to Google.
func (c Config) CheckGoogle() error {
	var errs []error
	if c.Google.ClientID == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_ID is not set"))
	}
	if c.Google.ClientSecret == "" {
		errs = append(errs, errors.New("GOOGLE_CLIENT_SECRET is not set"))
	}
	return errors.Join(errs...)
}

// CheckServer reports the missing settings needed to serve the HTTP API.
func (c Config) CheckServer() error {
	var errs []error
	if err := c.CheckGoogle(); err != nil {
		errs = append(errs, err)
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET_KEY is not set"))
	}
	if c.SessionSecret == "" {
		errs = append(errs, errors.New("SESSION_SECRET is not set"))
	}
	return errors.Join(errs...)
}
