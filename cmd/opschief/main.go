package main

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/opschief/internal/config"
	"github.com/mtlprog/opschief/internal/logger"
)

const (
	metaConfig    = "config"
	metaLogCloser = "log-closer"
)

func main() {
	// .env is optional; real environment variables win over it.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
		os.Exit(1)
	}

	portFlag := &cli.StringFlag{
		Name:    "port",
		Aliases: []string{"p"},
		Value:   config.DefaultPort,
		Usage:   "HTTP server port",
		EnvVars: []string{"PORT"},
	}

	eventsFlag := &cli.PathFlag{
		Name:    "events",
		Usage:   "JSON file of event records exported from the record store, used instead of the demo events",
		EnvVars: []string{"OPSCHIEF_EVENTS_FILE"},
	}

	app := &cli.App{
		Name:     "opschief",
		Usage:    "Operational alert and resolution engine for catering events",
		Metadata: map[string]interface{}{},
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to a YAML config file",
				EnvVars: []string{"OPSCHIEF_CONFIG"},
			},
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Value:   config.DefaultLogLevel,
				Usage:   "Log level (debug, info, warn, error)",
				EnvVars: []string{"LOG_LEVEL"},
			},
			&cli.StringFlag{
				Name:    "log-file",
				Usage:   "Also write logs to this file, rotated by size",
				EnvVars: []string{"LOG_FILE"},
			},
			&cli.StringFlag{
				Name:    "database-url",
				Aliases: []string{"d"},
				Value:   config.DefaultDatabaseURL,
				Usage:   "PostgreSQL database URL",
				EnvVars: []string{"DATABASE_URL"},
			},
			&cli.DurationFlag{
				Name:    "auto-dismiss-delay",
				Value:   config.DefaultAutoDismissDelay,
				Usage:   "How long a resolved session stays visible",
				EnvVars: []string{"AUTO_DISMISS_DELAY"},
			},
			&cli.DurationFlag{
				Name:    "write-timeout",
				Value:   config.DefaultWriteTimeout,
				Usage:   "Timeout for a single event store write",
				EnvVars: []string{"WRITE_TIMEOUT"},
			},
		},
		Before: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			c.App.Metadata[metaConfig] = cfg
			c.App.Metadata[metaLogCloser] = logger.Setup(logger.ParseLevel(cfg.Log.Level), cfg.Log.File)
			return nil
		},
		After: func(c *cli.Context) error {
			if closer, ok := c.App.Metadata[metaLogCloser].(io.Closer); ok {
				return closer.Close()
			}
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Start the web server",
				Flags:  []cli.Flag{portFlag},
				Action: runServe,
			},
			{
				Name:   "demo",
				Usage:  "Start the web server on seeded in-memory data, without a database or authentication",
				Flags:  []cli.Flag{portFlag, eventsFlag},
				Action: runDemo,
			},
			{
				Name:  "alerts",
				Usage: "Print the current alert projection",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "demo",
						Usage: "Project the built-in demo events instead of the database",
					},
					eventsFlag,
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Print JSON instead of a table",
					},
				},
				Action: runAlerts,
			},
			{
				Name:  "migrate",
				Usage: "Manage the database schema",
				Subcommands: []*cli.Command{
					{
						Name:   "up",
						Usage:  "Apply all pending migrations",
						Action: runMigrateUp,
					},
					{
						Name:   "down",
						Usage:  "Roll back the most recent migration",
						Action: runMigrateDown,
					},
					{
						Name:   "status",
						Usage:  "Print the status of every migration",
						Action: runMigrateStatus,
					},
				},
				Action: runMigrateUp,
			},
			{
				Name:   "seed",
				Usage:  "Insert the demo events and staff into the database",
				Flags:  []cli.Flag{eventsFlag},
				Action: runSeed,
			},
			{
				Name:  "operator",
				Usage: "Manage operator API tokens",
				Subcommands: []*cli.Command{
					{
						Name:  "add",
						Usage: "Create an operator and print its token",
						Flags: []cli.Flag{
							&cli.StringFlag{
								Name:     "name",
								Usage:    "Operator display name",
								Required: true,
							},
							&cli.StringFlag{
								Name:  "token",
								Usage: "API token (generated when empty)",
							},
						},
						Action: runOperatorAdd,
					},
				},
			},
		},
		Action: runServe,
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the optional config file and applies flags and
// environment variables on top of it.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-file") {
		cfg.Log.File = c.String("log-file")
	}
	if c.IsSet("database-url") {
		cfg.Database.URL = c.String("database-url")
	}
	if c.IsSet("auto-dismiss-delay") {
		cfg.Session.AutoDismissDelay = c.Duration("auto-dismiss-delay")
	}
	if c.IsSet("write-timeout") {
		cfg.Session.WriteTimeout = c.Duration("write-timeout")
	}

	return cfg, nil
}

func appConfig(c *cli.Context) *config.Config {
	if cfg, ok := c.App.Metadata[metaConfig].(*config.Config); ok {
		return cfg
	}
	return config.Default()
}
