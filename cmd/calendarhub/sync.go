package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/guilherme-santos/calendarhub/internal"
	"github.com/guilherme-santos/calendarhub/internal/syncer"
)

func syncCommand() *cli.Command {
	var from, to internal.Date

	return &cli.Command{
		Name:  "sync",
		Usage: "Sync a user's events with their primary Google calendar.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "user",
				Usage:    "user `ID` to sync",
				Required: true,
			},
			&cli.GenericFlag{
				Name:  "from",
				Usage: "only import events since the date (e.g. 2024-01-10), skipping the export",
				Value: &from,
			},
			&cli.GenericFlag{
				Name:  "to",
				Usage: "only import events before the date, used with --from",
				Value: &to,
			},
		},
		Action: withApp(func(c *cli.Context, a *app) error {
			if err := a.cfg.CheckGoogle(); err != nil {
				return err
			}
			userID := c.String("user")

			var res *syncer.Result
			if !from.IsZero() {
				res = a.syncer.Import(c.Context, userID, from.Time, to.Time)
			} else {
				res = a.syncer.Sync(c.Context, userID)
			}

			w := c.App.Writer
			fmt.Fprintf(w, "Imported: %d, updated: %d, deleted: %d\n", res.Imported, res.Updated, res.Deleted)
			for _, msg := range res.Errors {
				fmt.Fprintln(w, "  -", msg)
			}
			if !res.Success {
				return cli.Exit("sync failed", 1)
			}
			return nil
		}),
	}
}
