package cascade

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/conflict"
	"github.com/m04kA/SMC-RentalService/internal/service/contracts"
	"github.com/m04kA/SMC-RentalService/internal/testutil/memstore"
	"github.com/m04kA/SMC-RentalService/internal/testutil/testdoubles"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var now = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	store   *memstore.Store
	logger  *testdoubles.LoggerSpy
	handler *Handler
	vehicle *domain.Vehicle
	client  *domain.Client
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memstore.New()
	logger := testdoubles.NewLoggerSpy()
	service := contracts.NewService(
		store.Contracts(),
		store.Clients(),
		store.Vehicles(),
		conflict.NewDetector(store.Vehicles(), store.Contracts()),
		store.TxManager(),
		fixedClock{now: now},
		nil,
		logger,
	)

	return &fixture{
		store:   store,
		logger:  logger,
		handler: NewHandler(store.Contracts(), service, logger),
		vehicle: store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-123-CD", Status: domain.VehicleBrokenDown}),
		client:  store.PutClient(domain.Client{LicenseNumber: "L-1"}),
	}
}

func (f *fixture) put(vehicleID int64, dayOffset int, status domain.ContractStatus) *domain.Contract {
	start := now.AddDate(0, 0, dayOffset)
	return f.store.PutContract(domain.Contract{
		ClientID:  f.client.ID,
		VehicleID: vehicleID,
		StartDate: start,
		EndDate:   start.Add(24 * time.Hour),
		Status:    status,
	})
}

func (f *fixture) status(t *testing.T, id int64) domain.ContractStatus {
	t.Helper()
	c, ok := f.store.Contract(id)
	require.True(t, ok)
	return c.Status
}

func TestHandleVehicleBrokenDown_CancelsOnlyPending(t *testing.T) {
	f := newFixture(t)
	ongoing := f.put(f.vehicle.ID, 0, domain.ContractOngoing)
	first := f.put(f.vehicle.ID, 2, domain.ContractPending)
	second := f.put(f.vehicle.ID, 5, domain.ContractPending)
	other := f.store.PutVehicle(domain.Vehicle{RegistrationPlate: "ZZ-999-ZZ"})
	foreign := f.put(other.ID, 2, domain.ContractPending)

	require.NoError(t, f.handler.HandleVehicleBrokenDown(context.Background(), f.vehicle.ID))

	assert.Equal(t, domain.ContractCancelled, f.status(t, first.ID))
	assert.Equal(t, domain.ContractCancelled, f.status(t, second.ID))
	assert.Equal(t, domain.ContractOngoing, f.status(t, ongoing.ID))
	assert.Equal(t, domain.ContractPending, f.status(t, foreign.ID))
}

func TestHandleVehicleBrokenDown_Idempotent(t *testing.T) {
	f := newFixture(t)
	pending := f.put(f.vehicle.ID, 1, domain.ContractPending)
	overdue := f.put(f.vehicle.ID, -3, domain.ContractOverdue)

	require.NoError(t, f.handler.HandleVehicleBrokenDown(context.Background(), f.vehicle.ID))
	before := f.store.AllContracts()

	require.NoError(t, f.handler.HandleVehicleBrokenDown(context.Background(), f.vehicle.ID))

	assert.Equal(t, before, f.store.AllContracts())
	assert.Equal(t, domain.ContractCancelled, f.status(t, pending.ID))
	assert.Equal(t, domain.ContractOverdue, f.status(t, overdue.ID))
}

func TestHandleVehicleBrokenDown_ContinuesAfterFailure(t *testing.T) {
	f := newFixture(t)
	broken := f.put(f.vehicle.ID, 1, domain.ContractPending)
	fine := f.put(f.vehicle.ID, 3, domain.ContractPending)
	f.store.FailOn("contract.UpdateStatus", broken.ID, errors.New("connection reset"))

	err := f.handler.HandleVehicleBrokenDown(context.Background(), f.vehicle.ID)

	assert.ErrorIs(t, err, ErrIncomplete)
	assert.Equal(t, domain.ContractPending, f.status(t, broken.ID))
	assert.Equal(t, domain.ContractCancelled, f.status(t, fine.ID))
}

func TestHandleVehicleBrokenDown_Paginates(t *testing.T) {
	f := newFixture(t)
	f.handler.batchSize = 2
	ids := make([]int64, 0, 5)
	for i := 0; i < 5; i++ {
		ids = append(ids, f.put(f.vehicle.ID, i*2, domain.ContractPending).ID)
	}

	require.NoError(t, f.handler.HandleVehicleBrokenDown(context.Background(), f.vehicle.ID))

	for _, id := range ids {
		assert.Equal(t, domain.ContractCancelled, f.status(t, id))
	}
}

func TestHandle_DecodesEvent(t *testing.T) {
	f := newFixture(t)
	pending := f.put(f.vehicle.ID, 1, domain.ContractPending)
	payload, err := json.Marshal(domain.VehicleEventPayload{VehicleID: f.vehicle.ID, OccurredAt: now})
	require.NoError(t, err)

	err = f.handler.Handle(context.Background(), &domain.Event{
		ID:          uuid.New(),
		Type:        domain.EventVehicleBrokenDown,
		AggregateID: f.vehicle.ID,
		Payload:     payload,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.ContractCancelled, f.status(t, pending.ID))

	err = f.handler.Handle(context.Background(), &domain.Event{ID: uuid.New(), Payload: []byte("not json")})
	assert.ErrorIs(t, err, ErrInvalidPayload)
}
