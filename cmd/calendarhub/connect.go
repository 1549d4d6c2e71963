package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/guilherme-santos/calendarhub/internal/auth"
)

func connectCommand() *cli.Command {
	return &cli.Command{
		Name:  "connect",
		Usage: "Link a Google calendar to a user from the terminal.",
		Description: "Prints the Google consent link and waits for the redirect on GOOGLE_REDIRECT_URL,\n" +
			"which must point to this machine (e.g. http://localhost:8080/oauth/google/callback).",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "user `ID` the account is linked to",
				Required: true,
			},
		},
		Action: withApp(func(c *cli.Context, a *app) error {
			if err := a.cfg.CheckGoogle(); err != nil {
				return err
			}

			connector := auth.NewGoogleConnector(a.logger, a.oauthCfg, nil, a.storage)
			acc, err := connector.Login(c.Context, c.String("user"), c.App.Writer)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Google calendar connected for user %s.\n", acc.UserID)
			return nil
		}),
	}
}
