package reconciliation

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/singleflight"
)

const runKey = "reconciliation"

// Runner один запуск сверки (*Reconciler)
type Runner interface {
	Run(ctx context.Context) (*Report, error)
}

// Scheduler запускает сверку по cron. Одновременно выполняется не больше одного запуска:
// задача cron обёрнута в SkipIfStillRunning, ручные запуски присоединяются к текущему через singleflight.
type Scheduler struct {
	runner Runner
	cron   *cron.Cron
	spec   string
	group  singleflight.Group
	logger Logger
}

// NewScheduler создает планировщик с cron-выражением spec (поддерживаются дескрипторы вида @daily)
func NewScheduler(runner Runner, spec string, logger Logger) (*Scheduler, error) {
	if _, err := cron.ParseStandard(spec); err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, spec, err)
	}

	cronLog := cronLogger{logger: logger}
	return &Scheduler{
		runner: runner,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLog),
			cron.WithChain(cron.Recover(cronLog), cron.SkipIfStillRunning(cronLog)),
		),
		spec:   spec,
		logger: logger,
	}, nil
}

// Start регистрирует задачу и запускает cron в фоне
func (s *Scheduler) Start() error {
	if _, err := s.cron.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(context.Background()); err != nil {
			s.logger.Error("Scheduler: scheduled run failed: %v", err)
		}
	}); err != nil {
		return fmt.Errorf("%w: %q: %w", ErrInvalidSchedule, s.spec, err)
	}

	s.cron.Start()
	s.logger.Info("Scheduler: started with schedule %q", s.spec)
	return nil
}

// Stop останавливает cron и ждёт завершения текущего запуска, но не дольше ctx
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	select {
	case <-done.Done():
		s.logger.Info("Scheduler: stopped")
		return nil
	case <-ctx.Done():
		return fmt.Errorf("scheduler: stop: %w", ctx.Err())
	}
}

// RunOnce выполняет сверку сейчас. Если запуск уже идёт, ждёт его и возвращает его отчёт.
// Отмена ctx вызывающего не прерывает общий запуск, у него свой таймаут.
func (s *Scheduler) RunOnce(ctx context.Context) (*Report, error) {
	ch := s.group.DoChan(runKey, func() (interface{}, error) {
		return s.runner.Run(context.WithoutCancel(ctx))
	})

	select {
	case res := <-ch:
		if res.Shared {
			s.logger.Info("Scheduler: joined in-flight run")
		}
		report, ok := res.Val.(*Report)
		if !ok && res.Val != nil {
			return nil, ErrUnexpectedResult
		}
		return report, res.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// cronLogger адаптер printf-логгера к cron.Logger
type cronLogger struct {
	logger Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info("cron: %s %v", msg, keysAndValues)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: %s: %v %v", msg, err, keysAndValues)
}
