package outbox

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

// Результаты обработки (метка result в метриках)
const (
	ResultProcessed = "processed"
	ResultFailed    = "failed"
	ResultUnhandled = "unhandled"
)

// DefaultLeaseTimeout на сколько событие скрывается от других диспетчеров на время обработки
const DefaultLeaseTimeout = 5 * time.Minute

// HandlerFunc обработчик события. Должен быть идемпотентным: доставка at-least-once.
// Вызывается вне транзакции: обработчик сам открывает транзакции на каждый объект.
type HandlerFunc func(ctx context.Context, event *domain.Event) error

// Config параметры опроса outbox
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
	RetryDelay   time.Duration
	LeaseTimeout time.Duration
}

// Dispatcher доставляет события outbox зарегистрированным обработчикам.
// Событие захватывается короткой транзакцией (FOR UPDATE SKIP LOCKED и аренда до now+LeaseTimeout),
// затем обработчик выполняется без внешней транзакции, и событие отмечается processed.
// Изменения, которые обработчик успел зафиксировать до ошибки, остаются; попытка
// фиксируется с отложенным повтором. Если процесс упал во время обработки, событие
// снова станет доступно после истечения аренды.
type Dispatcher struct {
	repo         EventRepository
	txManager    TransactionManager
	timeProvider TimeProvider
	metrics      MetricsRecorder
	logger       Logger
	cfg          Config

	mu       sync.RWMutex
	handlers map[domain.EventType]HandlerFunc
}

// NewDispatcher создает диспетчер. metrics может быть nil.
func NewDispatcher(
	repo EventRepository,
	txManager TransactionManager,
	timeProvider TimeProvider,
	metrics MetricsRecorder,
	logger Logger,
	cfg Config,
) *Dispatcher {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 1
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = time.Second
	}
	if cfg.LeaseTimeout <= 0 {
		cfg.LeaseTimeout = DefaultLeaseTimeout
	}
	return &Dispatcher{
		repo:         repo,
		txManager:    txManager,
		timeProvider: timeProvider,
		metrics:      metrics,
		logger:       logger,
		cfg:          cfg,
		handlers:     make(map[domain.EventType]HandlerFunc),
	}
}

// Register назначает обработчик типу события
func (d *Dispatcher) Register(eventType domain.EventType, handler HandlerFunc) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.handlers[eventType]; ok {
		return fmt.Errorf("%w: %s", ErrHandlerExists, eventType)
	}
	d.handlers[eventType] = handler
	return nil
}

// Run опрашивает outbox каждые PollInterval до отмены ctx
func (d *Dispatcher) Run(ctx context.Context) error {
	d.logger.Info("Outbox: dispatcher started, poll interval %s", d.cfg.PollInterval)

	ticker := time.NewTicker(d.cfg.PollInterval)
	defer ticker.Stop()

	for {
		if _, err := d.DispatchOnce(ctx); err != nil && ctx.Err() == nil {
			d.logger.Error("Outbox: dispatch failed: %v", err)
		}

		select {
		case <-ctx.Done():
			d.logger.Info("Outbox: dispatcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// DispatchOnce обрабатывает до BatchSize готовых событий и возвращает их число
func (d *Dispatcher) DispatchOnce(ctx context.Context) (int, error) {
	handled := 0
	for handled < d.cfg.BatchSize {
		if ctx.Err() != nil {
			return handled, nil
		}

		ok, err := d.dispatchNext(ctx)
		if err != nil {
			return handled, err
		}
		if !ok {
			break
		}
		handled++
	}
	return handled, nil
}

// dispatchNext обрабатывает одно событие; false, если готовых событий нет
func (d *Dispatcher) dispatchNext(ctx context.Context) (bool, error) {
	event, handler, err := d.claim(ctx)
	if err != nil || event == nil {
		return false, err
	}
	if handler == nil {
		return true, nil
	}

	handlerErr := handler(ctx, event)
	if handlerErr == nil {
		d.observe(event.Type, ResultProcessed)
		return true, d.markProcessed(ctx, event)
	}

	retryAt := d.timeProvider.Now().Add(d.cfg.RetryDelay)
	d.logger.Warn("Outbox: event %s (%s) attempt %d failed, retry at %s: %v",
		event.ID, event.Type, event.Attempts+1, retryAt.Format(domain.DateTimeFormat), handlerErr)
	d.observe(event.Type, ResultFailed)

	if err := d.repo.MarkFailed(ctx, event.ID, handlerErr.Error(), retryAt); err != nil {
		return true, fmt.Errorf("%w: %s: %w", ErrMark, event.ID, err)
	}
	if d.cfg.MaxAttempts > 0 && event.Attempts+1 >= d.cfg.MaxAttempts {
		d.logger.Error("Outbox: event %s (%s) gave up after %d attempts", event.ID, event.Type, event.Attempts+1)
	}
	return true, nil
}

// claim выбирает одно готовое событие и продлевает его аренду в одной транзакции.
// Событие без обработчика сразу отмечается processed, handler тогда nil.
func (d *Dispatcher) claim(ctx context.Context) (*domain.Event, HandlerFunc, error) {
	var (
		event   *domain.Event
		handler HandlerFunc
	)

	err := d.txManager.Do(ctx, func(ctx context.Context) error {
		events, err := d.repo.FetchPending(ctx, 1, d.cfg.MaxAttempts)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrFetch, err)
		}
		if len(events) == 0 {
			return nil
		}
		event = events[0]

		h, ok := d.handler(event.Type)
		if !ok {
			d.logger.Warn("Outbox: no handler for event %s (%s), marking processed", event.ID, event.Type)
			d.observe(event.Type, ResultUnhandled)
			return d.markProcessed(ctx, event)
		}
		handler = h

		leaseUntil := d.timeProvider.Now().Add(d.cfg.LeaseTimeout)
		if err := d.repo.Lease(ctx, event.ID, leaseUntil); err != nil {
			return fmt.Errorf("%w: %s: %w", ErrMark, event.ID, err)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return event, handler, nil
}

func (d *Dispatcher) markProcessed(ctx context.Context, event *domain.Event) error {
	if err := d.repo.MarkProcessed(ctx, event.ID); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrMark, event.ID, err)
	}
	return nil
}

func (d *Dispatcher) handler(eventType domain.EventType) (HandlerFunc, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	h, ok := d.handlers[eventType]
	return h, ok
}

func (d *Dispatcher) observe(eventType domain.EventType, result string) {
	if d.metrics != nil {
		d.metrics.ObserveOutboxEvent(string(eventType), result)
	}
}
