package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/m04kA/SMC-RentalService/internal/api"
	"github.com/m04kA/SMC-RentalService/internal/worker/reconciliation"
	"github.com/m04kA/SMC-RentalService/migrations"
)

func main() {
	app := &cli.App{
		Name:  "smc-rental-service",
		Usage: "сервис аренды автомобилей: контракты, парк, клиенты",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.toml",
				Usage:   "путь к config.toml",
				EnvVars: []string{"RENTAL_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			reconcileCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "запустить HTTP API, планировщик сверки и доставку outbox",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "migrate",
				Usage: "применить миграции перед запуском",
			},
		},
		Action: runServe,
	}
}

func runServe(c *cli.Context) error {
	cfg, log, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info("Starting SMC-RentalService...")
	if c.Bool("migrate") {
		cfg.Database.AutoMigrate = true
	}

	db, err := openDB(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	app, err := newApplication(cfg, log, db)
	if err != nil {
		return err
	}
	defer app.Close()

	var scheduler *reconciliation.Scheduler
	if cfg.Scheduler.Enabled {
		scheduler, err = reconciliation.NewScheduler(app.reconciler, cfg.Scheduler.Cron, log)
		if err != nil {
			return err
		}
		if err := scheduler.Start(); err != nil {
			return err
		}
	}

	router := api.NewRouter(app.dependencies(scheduler))

	addr := fmt.Sprintf(":%d", cfg.Server.HTTPPort)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("Starting server on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	if cfg.Outbox.Enabled {
		g.Go(func() error {
			return app.dispatcher.Run(gctx)
		})
	}

	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
		)
		defer cancel()

		if scheduler != nil {
			if err := scheduler.Stop(shutdownCtx); err != nil {
				log.Warn("Reconciliation scheduler did not stop in time: %v", err)
			}
		}
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server forced to shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("Service stopped with error: %v", err)
		return err
	}

	log.Info("Server stopped gracefully")
	return nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "управление схемой базы данных",
		Subcommands: []*cli.Command{
			{
				Name:  "up",
				Usage: "применить все миграции",
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *sql.DB) error {
						return migrations.Up(db)
					})
				},
			},
			{
				Name:  "down",
				Usage: "откатить миграции",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "steps", Value: 1, Usage: "сколько миграций откатить"},
				},
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *sql.DB) error {
						return migrations.Down(db, c.Int("steps"))
					})
				},
			},
			{
				Name:  "version",
				Usage: "показать текущую версию схемы",
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *sql.DB) error {
						version, dirty, err := migrations.Version(db)
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "version=%d dirty=%t\n", version, dirty)
						return nil
					})
				},
			},
		},
	}
}

func reconcileCommand() *cli.Command {
	return &cli.Command{
		Name:  "reconcile",
		Usage: "выполнить одну сверку контрактов и вывести отчёт",
		Description: "С --server сверка запускается через POST /api/v1/admin/reconciliation работающего сервиса\n" +
			"и присоединяется к уже идущему запуску. Без него сверка выполняется в этом процессе.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "server",
				Usage:   "адрес работающего сервиса, например http://localhost:8080",
				EnvVars: []string{"RENTAL_SERVER_URL"},
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "таймаут запроса к сервису",
				Value: 5 * time.Minute,
			},
		},
		Action: func(c *cli.Context) error {
			if server := c.String("server"); server != "" {
				return reconcileRemote(c, server)
			}
			return reconcileLocal(c)
		},
	}
}

// reconcileRemote запускает сверку в работающем сервисе, чтобы она не пересекалась с запуском по cron
func reconcileRemote(c *cli.Context, server string) error {
	ctx, cancel := context.WithTimeout(c.Context, c.Duration("timeout"))
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/api/v1/admin/reconciliation", nil)
	if err != nil {
		return fmt.Errorf("reconcile: build request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("reconcile: request %s: %w", server, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reconcile: read response: %w", err)
	}

	var report reconciliation.Report
	if err := json.Unmarshal(body, &report); err != nil || report.RunID == "" {
		return fmt.Errorf("reconcile: server responded %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := printReport(c, &report); err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reconcile: server responded %d", resp.StatusCode)
	}
	return nil
}

// reconcileLocal выполняет сверку в этом процессе. С запуском в сервисе она может пересечься,
// это безопасно: каждый переход блокирует строку контракта и перепроверяет статус.
func reconcileLocal(c *cli.Context) error {
	cfg, log, err := loadConfig(c.String("config"))
	if err != nil {
		return err
	}
	defer log.Close()

	db, err := openDB(cfg.Database, log)
	if err != nil {
		return err
	}
	defer db.Close()

	app, err := newApplication(cfg, log, db)
	if err != nil {
		return err
	}
	defer app.Close()

	report, runErr := app.reconciler.Run(c.Context)
	if report != nil {
		if err := printReport(c, report); err != nil {
			return err
		}
	}
	return runErr
}

func printReport(c *cli.Context, report *reconciliation.Report) error {
	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, string(out))
	return nil
}
