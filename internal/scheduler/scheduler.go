// Package scheduler повторяет обход по интервалу или cron-выражению.
// Каждый запуск: полный обход с offset 0.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"consumidor-reports-parser/internal/config"
	"consumidor-reports-parser/internal/observability"
)

const (
	ModeOneshot  = "oneshot"
	ModeInterval = "interval"
	ModeCron     = "cron"
)

type Job func(ctx context.Context) error

type Scheduler struct {
	mode   string
	spec   string
	job    Job
	logger *observability.Logger
}

func New(cfg config.SchedulerConfig, logger *observability.Logger, job Job) (*Scheduler, error) {
	s := &Scheduler{mode: cfg.Mode, job: job, logger: logger}

	switch cfg.Mode {
	case ModeOneshot, "":
		s.mode = ModeOneshot
	case ModeInterval:
		if cfg.IntervalS <= 0 {
			return nil, fmt.Errorf("interval must be > 0")
		}
		s.spec = fmt.Sprintf("@every %s", time.Duration(cfg.IntervalS)*time.Second)
	case ModeCron:
		if _, err := cron.ParseStandard(cfg.CronExpr); err != nil {
			return nil, fmt.Errorf("invalid cron expression %q: %w", cfg.CronExpr, err)
		}
		s.spec = cfg.CronExpr
	default:
		return nil, fmt.Errorf("unknown scheduler mode %q", cfg.Mode)
	}

	return s, nil
}

func (s *Scheduler) Spec() string {
	return s.spec
}

// Run в режиме oneshot выполняет job один раз и возвращает его ошибку.
// В остальных режимах запускает job сразу и затем по расписанию, пока не отменён ctx.
// Запуск, пришедшийся на ещё идущий обход, пропускается.
func (s *Scheduler) Run(ctx context.Context) error {
	if s.mode == ModeOneshot {
		return s.job(ctx)
	}

	logger := cronLogger{logger: s.logger}
	c := cron.New(
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	id, err := c.AddFunc(s.spec, func() {
		if err := s.job(ctx); err != nil {
			s.logger.Error("Scheduled crawl failed", "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("cron.AddFunc: %w", err)
	}

	c.Start()
	s.logger.Info("Scheduler started", "mode", s.mode, "spec", s.spec)

	// Первый обход сразу, через ту же цепочку, чтобы не пересечься с тиком
	var first sync.WaitGroup
	first.Add(1)
	go func() {
		defer first.Done()
		c.Entry(id).WrappedJob.Run()
	}()

	<-ctx.Done()

	stopCtx := c.Stop()
	<-stopCtx.Done()
	first.Wait()
	s.logger.Info("Scheduler stopped")

	return nil
}

// cronLogger пишет события cron в наш логгер
type cronLogger struct {
	logger *observability.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
