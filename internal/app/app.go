package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cradoe/quickcred/internal/cache"
	"github.com/cradoe/quickcred/internal/config"
	"github.com/cradoe/quickcred/internal/errHandler"
	"github.com/cradoe/quickcred/internal/helper"
	"github.com/cradoe/quickcred/internal/lending"
	"github.com/cradoe/quickcred/internal/repository"
	"github.com/cradoe/quickcred/internal/repository/memory"
	seeders "github.com/cradoe/quickcred/internal/seeder"
	"github.com/cradoe/quickcred/internal/smtp"
	"github.com/cradoe/quickcred/internal/stream"
	"github.com/cradoe/quickcred/internal/worker"
)

// Essential services and resources are exposed to the application
// this makes it possible for methods to have access to these items and when they need them
type Application struct {
	Config *config.Config
	DB     repository.Database
	Logger *slog.Logger
	Mailer smtp.MailerInterface
	WG     sync.WaitGroup

	errorHandler *errHandler.ErrorRepository
	helper       *helper.HelperRepository

	// Kafka and Cache are nil when their servers are not configured
	Kafka *stream.KafkaStream
	Cache *cache.Cache

	Wallet *lending.WalletLedger
	Engine *lending.Engine

	worker  *worker.Worker
	sweeper *worker.Sweeper
	// inline is set when loan events are handled in-process
	inline *worker.InlinePublisher

	ctx    context.Context
	cancel context.CancelFunc
}

func NewApplication(logger *slog.Logger) (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return newApplication(cfg, logger)
}

func newApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	ctx, cancel := context.WithCancel(context.Background())
	app := &Application{
		Config: cfg,
		Logger: logger,
		ctx:    ctx,
		cancel: cancel,
	}

	db, err := openDatabase(cfg, logger)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	app.DB = db

	mailer, err := smtp.NewMailer(cfg.Smtp.Host, cfg.Smtp.Port, cfg.Smtp.Username, cfg.Smtp.Password, cfg.Smtp.From)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to initialize mailer: %w", err)
	}
	app.Mailer = mailer

	app.errorHandler = errHandler.New(cfg.Notifications.Email, cfg.BaseURL, mailer, logger)
	app.helper = helper.New(cfg.BaseURL, cfg.Currency, &app.WG, app.errorHandler)

	var analyticsCache lending.Cache
	if cfg.Redis.Addr != "" {
		app.Cache = cache.New(cfg.Redis.Addr, cfg.Redis.DB)

		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		err := app.Cache.Ping(pingCtx)
		pingCancel()
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to reach redis: %w", err)
		}
		analyticsCache = app.Cache
	}

	app.worker = worker.New(&worker.Worker{
		UserRepo: db.User(),
		Activity: db.Activity(),
		Mailer:   mailer,
		Helper:   app.helper,
		Logger:   logger,
		Ctx:      ctx,
	})

	// without a broker, loan events are handled in-process
	var publisher lending.Publisher
	if cfg.KafkaServers != "" {
		app.Kafka = stream.New(cfg.KafkaServers, logger)
		app.worker.KafkaStream = app.Kafka
		publisher = app.Kafka
	} else {
		app.inline = worker.NewInlinePublisher(app.worker)
		publisher = app.inline
	}

	app.Wallet = lending.NewWalletLedger(db, logger, nil)
	app.Engine, err = lending.NewEngine(db, app.Wallet, lending.Options{
		Rates:        cfg.Rates(),
		Limits:       cfg.Limits(),
		Publisher:    publisher,
		Cache:        analyticsCache,
		AnalyticsTTL: cfg.Redis.AnalyticsTTL,
		Logger:       logger,
	})
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("invalid lending configuration: %w", err)
	}

	if cfg.Sweep.Enabled {
		app.sweeper, err = worker.NewSweeper(app.Engine, worker.SweepConfig{
			Schedule: cfg.Sweep.Schedule,
			Workers:  cfg.Sweep.Workers,
			Batch:    cfg.Sweep.Batch,
		}, logger, nil)
		if err != nil {
			app.Close()
			return nil, fmt.Errorf("failed to initialize default sweep: %w", err)
		}
	}

	return app, nil
}

func openDatabase(cfg *config.Config, logger *slog.Logger) (repository.Database, error) {
	switch cfg.Db.Driver {
	case "memory":
		logger.Warn("using in-memory ledger store, data will not survive a restart")
		return memory.New(), nil
	case "postgres", "":
		return repository.New(cfg.Db.Dsn, cfg.Db.Automigrate)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Db.Driver)
	}
}

// StartBackground seeds demo data when asked to, then starts the
// notification consumer and the default sweep.
func (app *Application) StartBackground() error {
	if app.Config.SeedDemoData {
		seeder := seeders.New(&seeders.Seeder{
			DB:     app.DB,
			Wallet: app.Wallet,
			Engine: app.Engine,
			Logger: app.Logger,
		})
		if err := seeder.Run(); err != nil {
			return fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	if app.Kafka != nil {
		app.WG.Add(1)
		go func() {
			defer app.WG.Done()

			if err := app.worker.NotificationWorker(); err != nil {
				app.errorHandler.ReportServerError(nil, err)
			}
		}()
	}

	if app.sweeper != nil {
		if err := app.sweeper.Start(); err != nil {
			return err
		}
	}

	return nil
}

// Close stops background work, waits for it to finish and then releases
// every connection the application opened. It is safe to call on a
// partially built application. Loan events produced after Close starts are
// dropped.
func (app *Application) Close() {
	if app.sweeper != nil {
		app.sweeper.Stop()
	}
	if app.inline != nil {
		app.inline.Close()
	}
	app.cancel()
	app.WG.Wait()

	if app.Kafka != nil {
		app.Kafka.Close()
	}
	if app.Cache != nil {
		if err := app.Cache.Close(); err != nil {
			app.Logger.Warn("close redis", "error", err.Error())
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			app.Logger.Warn("close database", "error", err.Error())
		}
	}
}
