package outbox

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/conflict"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles"
	"github.com/m04kA/SMC-RentalService/internal/testutil/memstore"
	"github.com/m04kA/SMC-RentalService/internal/testutil/testdoubles"
	"github.com/m04kA/SMC-RentalService/internal/worker/cascade"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

type realClock struct{}

func (realClock) Now() time.Time { return time.Now().UTC() }

func newDispatcher(store *memstore.Store, m *metrics.Metrics) *Dispatcher {
	return NewDispatcher(store.Outbox(), store.TxManager(), realClock{}, m, testdoubles.NewLoggerSpy(), Config{
		PollInterval: 10 * time.Millisecond,
		BatchSize:    10,
		MaxAttempts:  3,
		RetryDelay:   time.Hour,
	})
}

func enqueue(t *testing.T, store *memstore.Store, eventType domain.EventType, aggregateID int64) {
	t.Helper()
	require.NoError(t, store.Outbox().Enqueue(context.Background(), &domain.Event{
		Type:        eventType,
		AggregateID: aggregateID,
		Payload:     []byte(`{}`),
	}))
}

func TestDispatchOnce_BreakdownCascade(t *testing.T) {
	store := memstore.New()
	logger := testdoubles.NewLoggerSpy()
	clock := realClock{}

	contractService := contracts.NewService(
		store.Contracts(), store.Clients(), store.Vehicles(),
		conflict.NewDetector(store.Vehicles(), store.Contracts()),
		store.TxManager(), clock, nil, logger,
	)
	vehicleService := vehicles.NewService(store.Vehicles(), store.Outbox(), store.TxManager(), clock, logger)

	vehicle := store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-123-CD"})
	client := store.PutClient(domain.Client{LicenseNumber: "L-1"})
	start := time.Now().UTC().Add(24 * time.Hour)
	pending := store.PutContract(domain.Contract{ClientID: client.ID, VehicleID: vehicle.ID, StartDate: start, EndDate: start.Add(time.Hour), Status: domain.ContractPending})
	ongoing := store.PutContract(domain.Contract{ClientID: client.ID, VehicleID: vehicle.ID, StartDate: start.Add(-48 * time.Hour), EndDate: start.Add(-24 * time.Hour), Status: domain.ContractOngoing})

	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	dispatcher := newDispatcher(store, m)
	require.NoError(t, dispatcher.Register(domain.EventVehicleBrokenDown, cascade.NewHandler(store.Contracts(), contractService, logger).Handle))

	_, err := vehicleService.MarkBrokenDown(context.Background(), vehicle.ID)
	require.NoError(t, err)

	handled, err := dispatcher.DispatchOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, handled)

	c, _ := store.Contract(pending.ID)
	assert.Equal(t, domain.ContractCancelled, c.Status)
	c, _ = store.Contract(ongoing.ID)
	assert.Equal(t, domain.ContractOngoing, c.Status)

	events := store.Events()
	require.Len(t, events, 1)
	assert.NotNil(t, events[0].ProcessedAt)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.OutboxEvents.WithLabelValues(string(domain.EventVehicleBrokenDown), ResultProcessed)))

	handled, err = dispatcher.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, handled)
}

func TestDispatchOnce_HandlerFailureSchedulesRetry(t *testing.T) {
	store := memstore.New()
	enqueue(t, store, domain.EventContractOverdue, 1)

	dispatcher := newDispatcher(store, nil)
	require.NoError(t, dispatcher.Register(domain.EventContractOverdue, func(ctx context.Context, event *domain.Event) error {
		return errors.New("downstream unavailable")
	}))

	before := time.Now()
	handled, err := dispatcher.DispatchOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, handled)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Nil(t, events[0].ProcessedAt)
	assert.Equal(t, 1, events[0].Attempts)
	require.NotNil(t, events[0].LastError)
	assert.Equal(t, "downstream unavailable", *events[0].LastError)
	assert.True(t, events[0].AvailableAt.After(before.Add(59*time.Minute)))
}

func TestDispatchOnce_EventLeasedWhileHandled(t *testing.T) {
	store := memstore.New()
	enqueue(t, store, domain.EventContractOverdue, 1)

	dispatcher := newDispatcher(store, nil)
	require.NoError(t, dispatcher.Register(domain.EventContractOverdue, func(ctx context.Context, event *domain.Event) error {
		visible, err := store.Outbox().FetchPending(ctx, 10, 0)
		require.NoError(t, err)
		assert.Empty(t, visible)
		return nil
	}))

	handled, err := dispatcher.DispatchOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, handled)
	assert.NotNil(t, store.Events()[0].ProcessedAt)
}

func TestDispatchOnce_BreakdownCascadeKeepsCancellationsOnPartialFailure(t *testing.T) {
	store := memstore.New()
	logger := testdoubles.NewLoggerSpy()
	clock := realClock{}

	contractService := contracts.NewService(
		store.Contracts(), store.Clients(), store.Vehicles(),
		conflict.NewDetector(store.Vehicles(), store.Contracts()),
		store.TxManager(), clock, nil, logger,
	)
	vehicleService := vehicles.NewService(store.Vehicles(), store.Outbox(), store.TxManager(), clock, logger)

	vehicle := store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-123-CD"})
	client := store.PutClient(domain.Client{LicenseNumber: "L-1"})
	start := time.Now().UTC().Add(24 * time.Hour)

	ids := make([]int64, 0, 3)
	for i := 0; i < 3; i++ {
		from := start.Add(time.Duration(i) * 48 * time.Hour)
		c := store.PutContract(domain.Contract{ClientID: client.ID, VehicleID: vehicle.ID, StartDate: from, EndDate: from.Add(time.Hour), Status: domain.ContractPending})
		ids = append(ids, c.ID)
	}
	store.FailOn("contract.UpdateStatus", ids[1], errors.New("boom"))

	dispatcher := newDispatcher(store, nil)
	dispatcher.cfg.BatchSize = 1
	dispatcher.cfg.RetryDelay = 0
	require.NoError(t, dispatcher.Register(domain.EventVehicleBrokenDown, cascade.NewHandler(store.Contracts(), contractService, logger).Handle))

	_, err := vehicleService.MarkBrokenDown(context.Background(), vehicle.ID)
	require.NoError(t, err)

	handled, err := dispatcher.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, handled)

	// отмены соседних контрактов зафиксированы, несмотря на ошибку по одному
	for _, id := range []int64{ids[0], ids[2]} {
		c, _ := store.Contract(id)
		assert.Equal(t, domain.ContractCancelled, c.Status, "contract %d", id)
	}
	c, _ := store.Contract(ids[1])
	assert.Equal(t, domain.ContractPending, c.Status)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Nil(t, events[0].ProcessedAt)
	assert.Equal(t, 1, events[0].Attempts)

	// повтор доотменяет оставшийся контракт
	store.FailOn("contract.UpdateStatus", ids[1], nil)
	handled, err = dispatcher.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, handled)

	for _, id := range ids {
		c, _ := store.Contract(id)
		assert.Equal(t, domain.ContractCancelled, c.Status, "contract %d", id)
	}
	assert.NotNil(t, store.Events()[0].ProcessedAt)
}

func TestDispatchOnce_UnhandledEventIsMarkedProcessed(t *testing.T) {
	store := memstore.New()
	enqueue(t, store, domain.EventContractCancelled, 5)

	handled, err := newDispatcher(store, nil).DispatchOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, handled)
	assert.NotNil(t, store.Events()[0].ProcessedAt)
}

func TestDispatchOnce_RespectsBatchSize(t *testing.T) {
	store := memstore.New()
	for i := int64(1); i <= 3; i++ {
		enqueue(t, store, domain.EventContractOverdue, i)
	}
	dispatcher := newDispatcher(store, nil)
	dispatcher.cfg.BatchSize = 2

	calls := 0
	require.NoError(t, dispatcher.Register(domain.EventContractOverdue, func(ctx context.Context, event *domain.Event) error {
		calls++
		return nil
	}))

	handled, err := dispatcher.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, handled)

	handled, err = dispatcher.DispatchOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, handled)
	assert.Equal(t, 3, calls)
}

func TestRegister_Duplicate(t *testing.T) {
	dispatcher := newDispatcher(memstore.New(), nil)
	noop := func(ctx context.Context, event *domain.Event) error { return nil }

	require.NoError(t, dispatcher.Register(domain.EventVehicleBrokenDown, noop))
	assert.ErrorIs(t, dispatcher.Register(domain.EventVehicleBrokenDown, noop), ErrHandlerExists)
}

func TestRun_StopsOnCancel(t *testing.T) {
	store := memstore.New()
	enqueue(t, store, domain.EventContractCancelled, 1)
	dispatcher := newDispatcher(store, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- dispatcher.Run(ctx) }()

	assert.Eventually(t, func() bool { return store.Events()[0].ProcessedAt != nil }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("dispatcher did not stop")
	}
}
