package reconciliation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts"
	contractModels "github.com/m04kA/SMC-RentalService/internal/service/contracts/models"
)

// Config параметры проходов
type Config struct {
	BatchSize  uint64
	RunTimeout time.Duration
}

// Reconciler сверка контрактов: просрочка ONGOING и снятие блокировок PENDING.
// Каждый проход best-effort: ошибка по одному контракту логируется, проход продолжается.
type Reconciler struct {
	contractRepo    ContractRepository
	contractService ContractService
	outboxRepo      OutboxRepository
	txManager       TransactionManager
	timeProvider    TimeProvider
	metrics         MetricsRecorder
	logger          Logger
	cfg             Config
}

// NewReconciler создает сверку. metrics может быть nil.
func NewReconciler(
	contractRepo ContractRepository,
	contractService ContractService,
	outboxRepo OutboxRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics MetricsRecorder,
	logger Logger,
	cfg Config,
) *Reconciler {
	return &Reconciler{
		contractRepo:    contractRepo,
		contractService: contractService,
		outboxRepo:      outboxRepo,
		txManager:       txManager,
		timeProvider:    timeProvider,
		metrics:         metrics,
		logger:          logger,
		cfg:             cfg,
	}
}

// Run выполняет проход просрочки, затем проход блокировок.
// Ошибка возвращается, только если какой-то проход не смог выбрать кандидатов; отчёт есть всегда.
func (r *Reconciler) Run(ctx context.Context) (*Report, error) {
	if r.cfg.RunTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.RunTimeout)
		defer cancel()
	}

	report := &Report{
		RunID:     uuid.NewString(),
		StartedAt: r.timeProvider.Now(),
	}
	r.logger.Info("Reconciliation: run %s started", report.RunID)

	var errs []error

	aging, err := r.AgingPass(ctx, report.RunID)
	report.Aging = aging
	if err != nil {
		errs = append(errs, err)
	}

	blocking, err := r.BlockingPass(ctx, report.RunID)
	report.Blocking = blocking
	if err != nil {
		errs = append(errs, err)
	}

	report.FinishedAt = r.timeProvider.Now()
	result := report.Result()
	if r.metrics != nil {
		r.metrics.ObserveReconciliationRun(result, report.FinishedAt.Sub(report.StartedAt).Seconds())
	}

	r.logger.Info("Reconciliation: run %s finished (%s): overdue=%d, cancelled=%d, failed=%d",
		report.RunID, result, len(aging.Changed), len(blocking.Changed), len(aging.Failed)+len(blocking.Failed))

	return report, errors.Join(errs...)
}

// AgingPass переводит в OVERDUE все ONGOING контракты, чей EndDate уже прошёл
func (r *Reconciler) AgingPass(ctx context.Context, runID string) (PassReport, error) {
	now := r.timeProvider.Now()
	return r.pass(ctx, PassAging,
		func(ctx context.Context, afterID int64) ([]*domain.Contract, error) {
			return r.contractRepo.ListEndedBefore(ctx, domain.ContractOngoing, now, afterID, r.cfg.BatchSize)
		},
		func(ctx context.Context, c *domain.Contract, report *PassReport) {
			r.apply(ctx, PassAging, c, domain.EventContractOverdue, runID, report, r.contractService.MarkOverdue)
		},
	)
}

// BlockingPass отменяет OVERDUE контракты, которые не дают начаться PENDING контракту того же автомобиля
func (r *Reconciler) BlockingPass(ctx context.Context, runID string) (PassReport, error) {
	return r.pass(ctx, PassBlocking,
		func(ctx context.Context, afterID int64) ([]*domain.Contract, error) {
			return r.contractRepo.ListBlockingOverdue(ctx, afterID, r.cfg.BatchSize)
		},
		func(ctx context.Context, c *domain.Contract, report *PassReport) {
			r.apply(ctx, PassBlocking, c, domain.EventContractCancelled, runID, report, r.contractService.Cancel)
		},
	)
}

// pass листает кандидатов страницами по BatchSize, курсор сдвигается по id.
// Контракты, упавшие на этой странице, не мешают дойти до следующих.
func (r *Reconciler) pass(
	ctx context.Context,
	name string,
	list func(ctx context.Context, afterID int64) ([]*domain.Contract, error),
	handle func(ctx context.Context, c *domain.Contract, report *PassReport),
) (PassReport, error) {
	report := newPassReport()

	var afterID int64
	for {
		candidates, err := list(ctx, afterID)
		if err != nil {
			r.logger.Error("%s: failed to list candidates after id=%d: %v", name, afterID, err)
			report.Error = err.Error()
			return report, fmt.Errorf("%w: %s: %w", ErrPassFailed, name, err)
		}
		report.Candidates += len(candidates)

		for _, c := range candidates {
			if ctx.Err() != nil {
				r.logger.Warn("%s: stopped: %v", name, ctx.Err())
				return report, nil
			}
			handle(ctx, c, &report)
		}

		if r.cfg.BatchSize == 0 || uint64(len(candidates)) < r.cfg.BatchSize {
			return report, nil
		}
		afterID = candidates[len(candidates)-1].ID
	}
}

// apply меняет статус контракта и пишет событие в одной транзакции
func (r *Reconciler) apply(
	ctx context.Context,
	pass string,
	c *domain.Contract,
	eventType domain.EventType,
	runID string,
	report *PassReport,
	change func(ctx context.Context, id int64) (*contractModels.ContractResponse, error),
) {
	err := r.txManager.Do(ctx, func(ctx context.Context) error {
		changed, err := change(ctx, c.ID)
		if err != nil {
			return err
		}

		payload, err := json.Marshal(domain.ContractEventPayload{
			ContractID: changed.ID,
			VehicleID:  changed.VehicleID,
			ClientID:   changed.ClientID,
			From:       c.Status,
			To:         domain.ContractStatus(changed.Status),
			EndDate:    changed.EndDate,
			RunID:      runID,
			OccurredAt: r.timeProvider.Now(),
		})
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}

		return r.outboxRepo.Enqueue(ctx, &domain.Event{
			Type:        eventType,
			AggregateID: changed.ID,
			Payload:     payload,
		})
	})

	switch {
	case err == nil:
		report.Changed = append(report.Changed, c.ID)
		r.observe(pass, ResultSuccess)
		r.logger.Info("%s: contract id=%d %s -> %s", pass, c.ID, c.Status, eventType)
	case errors.Is(err, contracts.ErrInvalidTransition), errors.Is(err, contracts.ErrNotFound):
		// контракт успели изменить или удалить между выборкой и блокировкой
		report.Skipped = append(report.Skipped, c.ID)
		r.observe(pass, ResultSkipped)
		r.logger.Warn("%s: contract id=%d skipped: %v", pass, c.ID, err)
	default:
		report.Failed = append(report.Failed, c.ID)
		r.observe(pass, ResultError)
		r.logger.Error("%s: contract id=%d failed: %v", pass, c.ID, err)
	}
}

func (r *Reconciler) observe(pass, result string) {
	if r.metrics != nil {
		r.metrics.ObserveReconciliationItem(pass, result)
	}
}
