package reconciliation

import (
	"context"
	"encoding/json"
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
	"github.com/m04kA/SMC-RentalService/internal/testutil/memstore"
	"github.com/m04kA/SMC-RentalService/internal/testutil/testdoubles"
	"github.com/m04kA/SMC-RentalService/pkg/metrics"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var now = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type fixture struct {
	store      *memstore.Store
	logger     *testdoubles.LoggerSpy
	metrics    *metrics.Metrics
	reconciler *Reconciler
	vehicle    *domain.Vehicle
	client     *domain.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	logger := testdoubles.NewLoggerSpy()
	m := metrics.NewWithRegisterer("test", prometheus.NewRegistry())
	clock := fixedClock{now: now}

	service := contracts.NewService(
		store.Contracts(),
		store.Clients(),
		store.Vehicles(),
		conflict.NewDetector(store.Vehicles(), store.Contracts()),
		store.TxManager(),
		clock,
		m,
		logger,
	)

	return &fixture{
		store:   store,
		logger:  logger,
		metrics: m,
		reconciler: NewReconciler(
			store.Contracts(), service, store.Outbox(), store.TxManager(), clock, m, logger,
			Config{BatchSize: 100, RunTimeout: time.Minute},
		),
		vehicle: store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-123-CD"}),
		client:  store.PutClient(domain.Client{LicenseNumber: "L-1"}),
	}
}

func (f *fixture) put(vehicleID int64, start, end time.Time, status domain.ContractStatus) *domain.Contract {
	return f.store.PutContract(domain.Contract{
		ClientID:  f.client.ID,
		VehicleID: vehicleID,
		StartDate: start,
		EndDate:   end,
		Status:    status,
	})
}

func (f *fixture) status(t *testing.T, id int64) domain.ContractStatus {
	t.Helper()
	c, ok := f.store.Contract(id)
	require.True(t, ok)
	return c.Status
}

func TestAgingPass_MarksEndedOngoingOverdue(t *testing.T) {
	f := newFixture(t)
	yesterday := now.Add(-24 * time.Hour)
	ended := f.put(f.vehicle.ID, yesterday.Add(-72*time.Hour), yesterday, domain.ContractOngoing)
	running := f.put(f.vehicle.ID, now.Add(time.Hour), now.Add(48*time.Hour), domain.ContractOngoing)
	pending := f.put(f.vehicle.ID, yesterday.Add(-240*time.Hour), yesterday.Add(-200*time.Hour), domain.ContractPending)

	report, err := f.reconciler.AgingPass(context.Background(), "run-1")

	require.NoError(t, err)
	assert.Equal(t, []int64{ended.ID}, report.Changed)
	assert.Equal(t, domain.ContractOverdue, f.status(t, ended.ID))
	assert.Equal(t, domain.ContractOngoing, f.status(t, running.ID))
	assert.Equal(t, domain.ContractPending, f.status(t, pending.ID))

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventContractOverdue, events[0].Type)
	assert.Equal(t, ended.ID, events[0].AggregateID)

	var payload domain.ContractEventPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, domain.ContractOngoing, payload.From)
	assert.Equal(t, domain.ContractOverdue, payload.To)
	assert.Equal(t, "run-1", payload.RunID)
	assert.True(t, yesterday.Equal(payload.EndDate))

	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReconciliationItems.WithLabelValues(PassAging, ResultSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ContractTransitions.WithLabelValues("ONGOING", "OVERDUE")))
}

func TestBlockingPass_CancelsOverdueNotPending(t *testing.T) {
	f := newFixture(t)
	tomorrow := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	overdue := f.put(f.vehicle.ID, now.Add(-96*time.Hour), tomorrow.Add(10*time.Hour), domain.ContractOverdue)
	pending := f.put(f.vehicle.ID, tomorrow.Add(8*time.Hour), tomorrow.Add(48*time.Hour), domain.ContractPending)

	report, err := f.reconciler.BlockingPass(context.Background(), "run-2")

	require.NoError(t, err)
	assert.Equal(t, []int64{overdue.ID}, report.Changed)
	assert.Equal(t, domain.ContractCancelled, f.status(t, overdue.ID))
	assert.Equal(t, domain.ContractPending, f.status(t, pending.ID))

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventContractCancelled, events[0].Type)
}

func TestBlockingPass_IgnoresNonBlocking(t *testing.T) {
	f := newFixture(t)
	other := f.store.PutVehicle(domain.Vehicle{RegistrationPlate: "ZZ-999-ZZ"})
	overdue := f.put(f.vehicle.ID, now.Add(-96*time.Hour), now.Add(-24*time.Hour), domain.ContractOverdue)
	f.put(f.vehicle.ID, now.Add(24*time.Hour), now.Add(48*time.Hour), domain.ContractPending)
	otherOverdue := f.put(other.ID, now.Add(-96*time.Hour), now.Add(72*time.Hour), domain.ContractOverdue)

	report, err := f.reconciler.BlockingPass(context.Background(), "run-3")

	require.NoError(t, err)
	assert.Empty(t, report.Changed)
	assert.Equal(t, domain.ContractOverdue, f.status(t, overdue.ID))
	assert.Equal(t, domain.ContractOverdue, f.status(t, otherOverdue.ID))
	assert.Empty(t, f.store.Events())
}

func TestRun_AgingThenBlocking(t *testing.T) {
	f := newFixture(t)
	// просрочен и при этом мешает PENDING, начинающемуся раньше его конца
	late := f.put(f.vehicle.ID, now.Add(-72*time.Hour), now.Add(-time.Hour), domain.ContractOngoing)
	pending := f.put(f.vehicle.ID, now.Add(-2*time.Hour), now.Add(24*time.Hour), domain.ContractPending)

	report, err := f.reconciler.Run(context.Background())

	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, []int64{late.ID}, report.Aging.Changed)
	assert.Equal(t, []int64{late.ID}, report.Blocking.Changed)
	assert.Equal(t, ResultSuccess, report.Result())
	assert.Equal(t, domain.ContractCancelled, f.status(t, late.ID))
	assert.Equal(t, domain.ContractPending, f.status(t, pending.ID))

	events := f.store.Events()
	require.Len(t, events, 2)
	assert.Equal(t, domain.EventContractOverdue, events[0].Type)
	assert.Equal(t, domain.EventContractCancelled, events[1].Type)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.ReconciliationRuns.WithLabelValues(ResultSuccess)))
}

func TestAgingPass_ContinuesAfterItemError(t *testing.T) {
	f := newFixture(t)
	first := f.put(f.vehicle.ID, now.Add(-96*time.Hour), now.Add(-72*time.Hour), domain.ContractOngoing)
	second := f.put(f.vehicle.ID, now.Add(-48*time.Hour), now.Add(-24*time.Hour), domain.ContractOngoing)
	f.store.FailOn("contract.UpdateStatus", first.ID, errors.New("connection reset"))

	report, err := f.reconciler.AgingPass(context.Background(), "run-4")

	require.NoError(t, err)
	assert.Equal(t, []int64{first.ID}, report.Failed)
	assert.Equal(t, []int64{second.ID}, report.Changed)
	assert.Equal(t, domain.ContractOngoing, f.status(t, first.ID))
	assert.Equal(t, domain.ContractOverdue, f.status(t, second.ID))
	assert.True(t, f.logger.Contains("error", "failed"))

	events := f.store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, second.ID, events[0].AggregateID)
}

func TestAgingPass_FailingHeadDoesNotStarveLaterPages(t *testing.T) {
	f := newFixture(t)
	f.reconciler.cfg.BatchSize = 1
	stuck := f.put(f.vehicle.ID, now.Add(-96*time.Hour), now.Add(-72*time.Hour), domain.ContractOngoing)
	second := f.put(f.vehicle.ID, now.Add(-48*time.Hour), now.Add(-24*time.Hour), domain.ContractOngoing)
	third := f.put(f.vehicle.ID, now.Add(-24*time.Hour), now.Add(-time.Hour), domain.ContractOngoing)
	f.store.FailOn("contract.UpdateStatus", stuck.ID, errors.New("connection reset"))

	for run := 0; run < 2; run++ {
		report, err := f.reconciler.AgingPass(context.Background(), "run-5")
		require.NoError(t, err)
		assert.Equal(t, []int64{stuck.ID}, report.Failed)
		if run == 0 {
			assert.Equal(t, 3, report.Candidates)
			assert.Equal(t, []int64{second.ID, third.ID}, report.Changed)
		}
	}

	assert.Equal(t, domain.ContractOngoing, f.status(t, stuck.ID))
	assert.Equal(t, domain.ContractOverdue, f.status(t, second.ID))
	assert.Equal(t, domain.ContractOverdue, f.status(t, third.ID))
}

func TestBlockingPass_PagesPastFailures(t *testing.T) {
	f := newFixture(t)
	f.reconciler.cfg.BatchSize = 1
	other := f.store.PutVehicle(domain.Vehicle{RegistrationPlate: "ZZ-999-ZZ"})
	tomorrow := time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)
	stuck := f.put(f.vehicle.ID, now.Add(-96*time.Hour), tomorrow.Add(10*time.Hour), domain.ContractOverdue)
	f.put(f.vehicle.ID, tomorrow.Add(8*time.Hour), tomorrow.Add(48*time.Hour), domain.ContractPending)
	blocking := f.put(other.ID, now.Add(-96*time.Hour), tomorrow.Add(10*time.Hour), domain.ContractOverdue)
	f.put(other.ID, tomorrow.Add(8*time.Hour), tomorrow.Add(48*time.Hour), domain.ContractPending)
	f.store.FailOn("contract.UpdateStatus", stuck.ID, errors.New("connection reset"))

	report, err := f.reconciler.BlockingPass(context.Background(), "run-6")

	require.NoError(t, err)
	assert.Equal(t, 2, report.Candidates)
	assert.Equal(t, []int64{stuck.ID}, report.Failed)
	assert.Equal(t, []int64{blocking.ID}, report.Changed)
	assert.Equal(t, domain.ContractCancelled, f.status(t, blocking.ID))
}

type brokenRepo struct{ ContractRepository }

func (brokenRepo) ListEndedBefore(ctx context.Context, status domain.ContractStatus, before time.Time, afterID int64, limit uint64) ([]*domain.Contract, error) {
	return nil, errors.New("db down")
}

func (brokenRepo) ListBlockingOverdue(ctx context.Context, afterID int64, limit uint64) ([]*domain.Contract, error) {
	return []*domain.Contract{}, nil
}

func TestRun_ListFailure(t *testing.T) {
	f := newFixture(t)
	f.reconciler.contractRepo = brokenRepo{}

	report, err := f.reconciler.Run(context.Background())

	assert.ErrorIs(t, err, ErrPassFailed)
	require.NotNil(t, report)
	assert.Equal(t, "db down", report.Aging.Error)
	assert.Equal(t, ResultError, report.Result())
}
