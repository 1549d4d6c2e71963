package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := newCLI().RunContext(ctx, os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func newCLI() *cli.App {
	return &cli.App{
		Name:  "calendarhub",
		Usage: "Keep a local event store in sync with Google Calendar and share events for RSVP.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "load environment variables from `FILE` (default: ./.env when present)",
			},
			&cli.StringFlag{
				Name:  "db",
				Usage: "sqlite database `PATH` (overrides DATABASE_PATH)",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level: debug, info, warn, error (overrides LOG_LEVEL)",
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			syncCommand(),
			connectCommand(),
			tokenCommand(),
		},
	}
}
