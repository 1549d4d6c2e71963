package main

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/guilherme-santos/calendarhub/internal/auth"
)

func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "Issue a session token for a user, for development and automation.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "user `ID` the token is issued for",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "email",
				Usage: "email stored in the token claims",
			},
		},
		Action: withApp(func(c *cli.Context, a *app) error {
			if a.cfg.JWTSecret == "" {
				return errors.New("JWT_SECRET_KEY is not set")
			}

			issuer := auth.NewIssuer(a.cfg.JWTSecret, a.cfg.SessionTTL)
			tok, err := issuer.Generate(c.String("user"), c.String("email"))
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, tok)
			return nil
		}),
	}
}
