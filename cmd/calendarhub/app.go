package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"github.com/guilherme-santos/calendarhub/calendar"
	"github.com/guilherme-santos/calendarhub/calendar/google"
	"github.com/guilherme-santos/calendarhub/internal"
	"github.com/guilherme-santos/calendarhub/internal/auth"
	"github.com/guilherme-santos/calendarhub/internal/config"
	"github.com/guilherme-santos/calendarhub/internal/sqlite"
	"github.com/guilherme-santos/calendarhub/internal/syncer"
	"github.com/guilherme-santos/calendarhub/internal/token"
)

// app holds the components shared by every command.
type app struct {
	cfg      *config.Config
	logger   *slog.Logger
	db       *sql.DB
	storage  *sqlite.Storage
	oauthCfg *oauth2.Config
	tokens   *token.Provider
	google   *google.Client
	syncer   *syncer.Syncer
}

func newApp(c *cli.Context) (*app, error) {
	cfg, err := config.Load(c.String("env-file"))
	if err != nil {
		return nil, err
	}
	if v := c.String("db"); v != "" {
		cfg.DatabasePath = v
	}
	if v := c.String("log-level"); v != "" {
		cfg.LogLevel = v
	}
	logger := internal.NewLogger(os.Stderr, cfg.LogLevel)

	db, err := sqlite.Open(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	storage := sqlite.NewStorage(db)
	logger.Debug("Database ready.", "path", cfg.DatabasePath)

	oauthCfg := auth.NewOAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)

	tokens := token.New(logger, storage, oauthCfg)
	tokens.Margin = cfg.TokenRefreshMargin

	googleCal := google.NewClient(logger, tokens)
	mux := calendar.NewMux()
	mux.Register(internal.GoogleProvider, googleCal)

	s := syncer.New(logger, mux, storage)
	s.Window = cfg.SyncWindow

	return &app{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		storage:  storage,
		oauthCfg: oauthCfg,
		tokens:   tokens,
		google:   googleCal,
		syncer:   s,
	}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

// withApp builds the app for a command and releases it afterwards.
func withApp(fn func(*cli.Context, *app) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		a, err := newApp(c)
		if err != nil {
			return err
		}
		defer a.Close()

		return fn(c, a)
	}
}
