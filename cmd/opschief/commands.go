package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/mtlprog/opschief/internal/alerts"
	"github.com/mtlprog/opschief/internal/config"
	"github.com/mtlprog/opschief/internal/database"
	"github.com/mtlprog/opschief/internal/domain"
	"github.com/mtlprog/opschief/internal/handler"
	"github.com/mtlprog/opschief/internal/metrics"
	"github.com/mtlprog/opschief/internal/repository"
	"github.com/mtlprog/opschief/internal/service"
)

var errNoDatabaseURL = errors.New("database URL is required (--database-url, DATABASE_URL or database.url in the config file)")

// connect opens the pool and, when migrate is set, brings the schema up to date.
func connect(ctx context.Context, cfg *config.Config, migrate bool) (*database.DB, error) {
	if cfg.Database.URL == "" {
		return nil, errNoDatabaseURL
	}

	db, err := database.New(ctx, cfg.Database.URL, database.Options{
		MaxConns: cfg.Database.MaxConns,
		MinConns: cfg.Database.MinConns,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if migrate {
		if err := database.RunMigrations(ctx, db.Pool()); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return db, nil
}

func managerConfig(cfg *config.Config) service.ManagerConfig {
	return service.ManagerConfig{
		AutoDismissDelay: cfg.Session.AutoDismissDelay,
		WriteTimeout:     cfg.Session.WriteTimeout,
	}
}

func serverConfig(c *cli.Context) config.Server {
	srv := appConfig(c).Server
	if c.IsSet("port") {
		srv.Port = c.String("port")
	}
	return srv
}

func runServe(c *cli.Context) error {
	ctx := c.Context
	cfg := appConfig(c)

	db, err := connect(ctx, cfg, true)
	if err != nil {
		return err
	}
	defer db.Close()

	pool := db.Pool()
	events := repository.NewEventRepository(pool)
	staff := repository.NewStaffRepository(pool)
	resolutions := repository.NewResolutionRepository(pool)

	m := metrics.New()
	manager := service.NewManager(events, staff, resolutions, managerConfig(cfg))
	manager.SetObserver(m)
	defer manager.Close()

	h := handler.New(handler.Deps{
		Events:    events,
		Staff:     staff,
		History:   resolutions,
		Manager:   manager,
		Metrics:   m,
		Operators: repository.NewOperatorRepository(pool),
		Ping:      pool.Ping,
	})

	return listenAndServe(ctx, serverConfig(c), h.Routes())
}

// eventsSource returns the records from --events, or the demo events when
// the flag is unset.
func eventsSource(c *cli.Context) ([]domain.EventRecord, error) {
	path := c.Path("events")
	if path == "" {
		return repository.DemoEvents(), nil
	}
	return repository.LoadEventsFile(path)
}

func runDemo(c *cli.Context) error {
	cfg := appConfig(c)

	events, err := eventsSource(c)
	if err != nil {
		return err
	}

	store := repository.NewMemoryStore(events, repository.DemoStaff())

	m := metrics.New()
	manager := service.NewManager(store, store, store, managerConfig(cfg))
	manager.SetObserver(m)
	defer manager.Close()

	h := handler.New(handler.Deps{
		Events:  store,
		Staff:   store,
		History: store,
		Manager: manager,
		Metrics: m,
	})

	slog.Warn("demo mode: in-memory data, authentication disabled")
	return listenAndServe(c.Context, serverConfig(c), h.Routes())
}

func listenAndServe(ctx context.Context, cfg config.Server, routes http.Handler) error {
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           routes,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		ReadHeaderTimeout: 5 * time.Second,
	}

	serverErr := make(chan error, 1)
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(done)

	go func() {
		slog.Info("starting server", "server_addr", "http://localhost:"+cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-done:
		slog.Info("shutting down server")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

func runAlerts(c *cli.Context) error {
	ctx := c.Context

	var events []domain.EventRecord
	if c.Bool("demo") || c.IsSet("events") {
		var err error
		if events, err = eventsSource(c); err != nil {
			return err
		}
	} else {
		db, err := connect(ctx, appConfig(c), false)
		if err != nil {
			return err
		}
		defer db.Close()

		events, err = repository.NewEventRepository(db.Pool()).ListEvents(ctx)
		if err != nil {
			return fmt.Errorf("failed to list events: %w", err)
		}
	}

	projection := alerts.Project(events)

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(projection)
	}

	tw := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SEVERITY\tRULE\tEVENT\tMESSAGE")
	for _, a := range projection.All() {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Severity, a.RuleID, a.EventName, a.Message)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(c.App.Writer, "\n%d critical, %d warning\n", len(projection.Critical), len(projection.Warning))
	return nil
}

func runMigrateUp(c *cli.Context) error {
	return withDB(c, func(ctx context.Context, db *database.DB) error {
		return database.RunMigrations(ctx, db.Pool())
	})
}

func runMigrateDown(c *cli.Context) error {
	return withDB(c, func(ctx context.Context, db *database.DB) error {
		return database.RollbackMigration(ctx, db.Pool())
	})
}

func runMigrateStatus(c *cli.Context) error {
	return withDB(c, func(ctx context.Context, db *database.DB) error {
		return database.MigrationStatus(ctx, db.Pool())
	})
}

func runSeed(c *cli.Context) error {
	ctx := c.Context

	db, err := connect(ctx, appConfig(c), true)
	if err != nil {
		return err
	}
	defer db.Close()

	events, err := eventsSource(c)
	if err != nil {
		return err
	}
	staff := repository.DemoStaff()

	pool := db.Pool()
	if err := repository.Seed(ctx, repository.NewEventRepository(pool), repository.NewStaffRepository(pool), events, staff); err != nil {
		return err
	}

	slog.Info("data seeded",
		"events", len(events),
		"staff", len(staff),
		"events_file", c.Path("events"),
	)
	return nil
}

func runOperatorAdd(c *cli.Context) error {
	ctx := c.Context

	db, err := connect(ctx, appConfig(c), true)
	if err != nil {
		return err
	}
	defer db.Close()

	token := c.String("token")
	if token == "" {
		token = uuid.NewString()
	}

	op := &domain.Operator{
		Name:     c.String("name"),
		Token:    token,
		IsActive: true,
	}
	if err := repository.NewOperatorRepository(db.Pool()).Create(ctx, op); err != nil {
		return fmt.Errorf("failed to create operator: %w", err)
	}

	slog.Info("operator created", "operator_id", op.ID, "name", op.Name)
	fmt.Fprintln(c.App.Writer, op.Token)
	return nil
}

func withDB(c *cli.Context, fn func(ctx context.Context, db *database.DB) error) error {
	ctx := c.Context

	db, err := connect(ctx, appConfig(c), false)
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(ctx, db)
}
