package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cradoe/quickcred/internal/models"
	"github.com/panjf2000/ants/v2"
	"github.com/robfig/cron/v3"
)

// DefaultSweeper is the part of the lending engine the sweep needs.
type DefaultSweeper interface {
	ListOverdue(ctx context.Context, now time.Time, limit int) ([]models.Loan, error)
	DefaultLoan(ctx context.Context, loanID string, now time.Time) (bool, error)
}

type SweepConfig struct {
	// Schedule is a cron spec or descriptor such as "@every 1h"
	Schedule string
	Workers  int
	// Batch caps the loans handled per run; zero means no cap
	Batch int
}

// Sweeper periodically moves overdue funded loans to defaulted. Each run
// lists the overdue loans and defaults them concurrently on a bounded pool.
type Sweeper struct {
	engine DefaultSweeper
	cfg    SweepConfig
	logger *slog.Logger
	now    func() time.Time

	pool *ants.Pool
	cron *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func NewSweeper(engine DefaultSweeper, cfg SweepConfig, logger *slog.Logger, now func() time.Time) (*Sweeper, error) {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	if logger == nil {
		logger = slog.Default()
	}

	pool, err := ants.NewPool(cfg.Workers, ants.WithPanicHandler(func(p any) {
		logger.Error("sweep task panicked", "panic", fmt.Sprint(p))
	}))
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	cronLogger := cronLog{logger: logger}
	return &Sweeper{
		engine: engine,
		cfg:    cfg,
		logger: logger,
		now:    now,
		pool:   pool,
		cron: cron.New(
			cron.WithLogger(cronLogger),
			cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
		),
		ctx:    ctx,
		cancel: cancel,
	}, nil
}

// Start schedules the sweep. It returns an error for an invalid schedule.
func (s *Sweeper) Start() error {
	_, err := s.cron.AddFunc(s.cfg.Schedule, func() {
		if _, err := s.Sweep(s.ctx); err != nil {
			s.logger.Error("default sweep failed", "error", err.Error())
		}
	})
	if err != nil {
		return fmt.Errorf("invalid sweep schedule %q: %w", s.cfg.Schedule, err)
	}

	s.logger.Info("default sweep scheduled", "schedule", s.cfg.Schedule, "workers", s.cfg.Workers)
	s.cron.Start()
	return nil
}

// Stop cancels a running sweep, waits for it to finish and releases the pool.
func (s *Sweeper) Stop() {
	s.cancel()
	<-s.cron.Stop().Done()
	s.pool.Release()
}

// Sweep defaults every loan overdue at the sweeper's current time and
// returns how many were moved. A loan repaid in the meantime is skipped.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	now := s.now()

	loans, err := s.engine.ListOverdue(ctx, now, s.cfg.Batch)
	if err != nil {
		return 0, err
	}
	if len(loans) == 0 {
		return 0, nil
	}

	var (
		wg        sync.WaitGroup
		defaulted atomic.Int64
		failed    atomic.Int64
	)

	for _, loan := range loans {
		loanID := loan.ID
		wg.Add(1)

		err := s.pool.Submit(func() {
			defer wg.Done()

			ok, err := s.engine.DefaultLoan(ctx, loanID, now)
			if err != nil {
				failed.Add(1)
				s.logger.Error("default loan", "loan_id", loanID, "error", err.Error())
				return
			}
			if ok {
				defaulted.Add(1)
			}
		})
		if err != nil {
			wg.Done()
			failed.Add(1)
			s.logger.Error("submit sweep task", "loan_id", loanID, "error", err.Error())
		}
	}

	wg.Wait()

	s.logger.Info("default sweep finished",
		"overdue", len(loans),
		"defaulted", defaulted.Load(),
		"failed", failed.Load(),
	)

	return int(defaulted.Load()), nil
}

// cronLog routes the scheduler's own logging through slog.
type cronLog struct {
	logger *slog.Logger
}

func (l cronLog) Info(msg string, keysAndValues ...any) {
	l.logger.Debug(msg, keysAndValues...)
}

func (l cronLog) Error(err error, msg string, keysAndValues ...any) {
	l.logger.Error(msg, append(keysAndValues, "error", err.Error())...)
}
