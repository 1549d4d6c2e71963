package main

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/guilherme-santos/calendarhub/internal/auth"
	"github.com/guilherme-santos/calendarhub/internal/share"
	"github.com/guilherme-santos/calendarhub/internal/web"
)

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "addr",
				Usage: "listen `ADDRESS` (overrides HTTP_ADDR)",
			},
		},
		Action: withApp(func(c *cli.Context, a *app) error {
			if err := a.cfg.CheckServer(); err != nil {
				return err
			}
			addr := a.cfg.HTTPAddr
			if v := c.String("addr"); v != "" {
				addr = v
			}

			store := auth.NewCookieStore(a.cfg.SessionSecret, a.cfg.CookieSecure || strings.HasPrefix(a.cfg.BaseURL, "https://"))
			server := web.New(a.logger, auth.NewIssuer(a.cfg.JWTSecret, a.cfg.SessionTTL), a.cfg.BaseURL, web.Dependencies{
				Tokens:    a.tokens,
				Calendars: a.google,
				Events:    a.storage,
				Syncer:    a.syncer,
				Share:     share.New(a.logger, a.storage, a.cfg.BaseURL, a.cfg.FacebookAppID),
				Google:    auth.NewGoogleConnector(a.logger, a.oauthCfg, store, a.storage),
			})
			return server.ListenAndServe(c.Context, addr)
		}),
	}
}
