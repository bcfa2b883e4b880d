package main

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	"github.com/urfave/cli/v2"

	"github.com/m04kA/SMC-RentalService/internal/api"
	"github.com/m04kA/SMC-RentalService/internal/config"
	"github.com/m04kA/SMC-RentalService/internal/domain"
	clientRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/client"
	contractRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/contract"
	outboxRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/outbox"
	vehicleRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/vehicle"
	clientsService "github.com/m04kA/SMC-RentalService/internal/service/clients"
	"github.com/m04kA/SMC-RentalService/internal/service/conflict"
	contractsService "github.com/m04kA/SMC-RentalService/internal/service/contracts"
	vehiclesService "github.com/m04kA/SMC-RentalService/internal/service/vehicles"
	"github.com/m04kA/SMC-RentalService/internal/worker/audit"
	"github.com/m04kA/SMC-RentalService/internal/worker/cascade"
	outboxWorker "github.com/m04kA/SMC-RentalService/internal/worker/outbox"
	"github.com/m04kA/SMC-RentalService/internal/worker/reconciliation"
	"github.com/m04kA/SMC-RentalService/migrations"
	"github.com/m04kA/SMC-RentalService/pkg/dbmetrics"
	"github.com/m04kA/SMC-RentalService/pkg/logger"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
	"github.com/m04kA/SMC-RentalService/pkg/txmanager"
)

// application собранные зависимости процесса
type application struct {
	cfg     *config.Config
	log     *logger.Logger
	db      *sql.DB
	metrics *metrics.Metrics

	stopMetricsCh chan struct{}

	contracts  *contractsService.Service
	vehicles   *vehiclesService.Service
	clients    *clientsService.Service
	reconciler *reconciliation.Reconciler
	dispatcher *outboxWorker.Dispatcher
}

// loadConfig загружает конфигурацию и создает логгер
func loadConfig(path string) (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log, err := logger.New(cfg.Logs.File, cfg.Logs.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, log, nil
}

// openDB подключается к Postgres и настраивает пул соединений
func openDB(cfg config.DatabaseConfig, log *logger.Logger) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Second)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info("Successfully connected to database (host=%s, port=%d, db=%s)", cfg.Host, cfg.Port, cfg.DBName)
	return db, nil
}

// newApplication собирает репозитории, сервисы и воркеры
func newApplication(cfg *config.Config, log *logger.Logger, db *sql.DB) (*application, error) {
	app := &application{
		cfg:           cfg,
		log:           log,
		db:            db,
		stopMetricsCh: make(chan struct{}),
	}

	if cfg.Metrics.Enabled {
		app.metrics = metrics.New(cfg.Metrics.ServiceName)
		log.Info("Metrics enabled at %s", cfg.Metrics.Path)
	}

	if cfg.Database.AutoMigrate {
		if err := migrations.Up(db); err != nil {
			return nil, err
		}
		log.Info("Database migrations applied")
	}

	wrappedDB := dbmetrics.WrapWithDefault(db, app.metrics, app.stopMetricsCh)
	txManager := txmanager.NewTransactionManager(wrappedDB, app.metrics)
	clock := contractsService.RealTimeProvider{}

	// Репозитории
	contractRepository := contractRepo.NewRepository(wrappedDB)
	vehicleRepository := vehicleRepo.NewRepository(wrappedDB)
	clientRepository := clientRepo.NewRepository(wrappedDB)
	outboxRepository := outboxRepo.NewRepository(wrappedDB)

	// Сервисы
	detector := conflict.NewDetector(vehicleRepository, contractRepository)
	app.contracts = contractsService.NewService(
		contractRepository,
		clientRepository,
		vehicleRepository,
		detector,
		txManager,
		clock,
		app.metrics,
		log,
	)
	app.vehicles = vehiclesService.NewService(vehicleRepository, outboxRepository, txManager, clock, log)
	app.clients = clientsService.NewService(clientRepository, clock, log)

	// Воркеры
	app.reconciler = reconciliation.NewReconciler(
		contractRepository,
		app.contracts,
		outboxRepository,
		txManager,
		clock,
		app.metrics,
		log,
		reconciliation.Config{
			BatchSize:  uint64(cfg.Scheduler.BatchSize),
			RunTimeout: time.Duration(cfg.Scheduler.RunTimeout) * time.Second,
		},
	)

	app.dispatcher = outboxWorker.NewDispatcher(
		outboxRepository,
		txManager,
		clock,
		app.metrics,
		log,
		outboxWorker.Config{
			PollInterval: time.Duration(cfg.Outbox.PollInterval) * time.Second,
			BatchSize:    cfg.Outbox.BatchSize,
			MaxAttempts:  cfg.Outbox.MaxAttempts,
			RetryDelay:   time.Duration(cfg.Outbox.RetryDelay) * time.Second,
			LeaseTimeout: time.Duration(cfg.Outbox.LeaseTimeout) * time.Second,
		},
	)

	cascadeHandler := cascade.NewHandler(contractRepository, app.contracts, log)
	auditHandler := audit.NewHandler(log)
	for eventType, handle := range map[domain.EventType]outboxWorker.HandlerFunc{
		domain.EventVehicleBrokenDown: cascadeHandler.Handle,
		domain.EventContractOverdue:   auditHandler.Handle,
		domain.EventContractCancelled: auditHandler.Handle,
	} {
		if err := app.dispatcher.Register(eventType, handle); err != nil {
			return nil, err
		}
	}

	return app, nil
}

// dependencies зависимости HTTP слоя; scheduler может быть nil
func (a *application) dependencies(scheduler *reconciliation.Scheduler) api.Dependencies {
	deps := api.Dependencies{
		Contracts:   a.contracts,
		Vehicles:    a.vehicles,
		Clients:     a.clients,
		Metrics:     a.metrics,
		MetricsPath: a.cfg.Metrics.Path,
		Logger:      a.log,
	}
	if scheduler != nil {
		deps.Reconciliation = scheduler
	}
	return deps
}

// Close останавливает сбор метрик пула
func (a *application) Close() {
	close(a.stopMetricsCh)
}

// withDB загружает конфигурацию, подключается к базе и выполняет fn
func withDB(c *cli.Context, fn func(db *sql.DB) error) error {
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

	return fn(db)
}
