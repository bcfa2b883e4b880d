package vehicles

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	"github.com/m04kA/SMC-RentalService/internal/service/vehicles/models"
	"github.com/m04kA/SMC-RentalService/internal/testutil/memstore"
	"github.com/m04kA/SMC-RentalService/internal/testutil/testdoubles"
	"github.com/m04kA/SMC-RentalService/pkg/ptr"
)

type fixedClock struct{ now time.Time }

func (c fixedClock) Now() time.Time { return c.now }

var now = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newService(store *memstore.Store) *Service {
	return NewService(store.Vehicles(), store.Outbox(), store.TxManager(), fixedClock{now: now}, testdoubles.NewLoggerSpy())
}

func TestCreate(t *testing.T) {
	store := memstore.New()
	svc := newService(store)

	v, err := svc.Create(context.Background(), &models.CreateVehicleRequest{
		RegistrationPlate: " AB-123-CD ",
		Brand:             "Renault",
		Model:             "Clio",
		Color:             ptr.Ptr("blue"),
		AcquisitionDate:   "2024-03-15",
	})

	require.NoError(t, err)
	assert.Equal(t, "AB-123-CD", v.RegistrationPlate)
	assert.Equal(t, "2024-03-15", v.AcquisitionDate)
	assert.Equal(t, string(domain.VehicleAvailable), v.Status)

	_, err = svc.Create(context.Background(), &models.CreateVehicleRequest{
		RegistrationPlate: "AB-123-CD", Brand: "Peugeot", Model: "208", AcquisitionDate: "2024-01-01",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(memstore.New())

	tests := []struct {
		name string
		req  *models.CreateVehicleRequest
	}{
		{name: "nil", req: nil},
		{name: "no plate", req: &models.CreateVehicleRequest{Brand: "Renault", Model: "Clio", AcquisitionDate: "2024-01-01"}},
		{name: "no brand", req: &models.CreateVehicleRequest{RegistrationPlate: "A", Model: "Clio", AcquisitionDate: "2024-01-01"}},
		{name: "no model", req: &models.CreateVehicleRequest{RegistrationPlate: "A", Brand: "Renault", AcquisitionDate: "2024-01-01"}},
		{name: "bad date", req: &models.CreateVehicleRequest{RegistrationPlate: "A", Brand: "Renault", Model: "Clio", AcquisitionDate: "15/03/2024"}},
		{name: "future date", req: &models.CreateVehicleRequest{RegistrationPlate: "A", Brand: "Renault", Model: "Clio", AcquisitionDate: "2025-07-01"}},
		{name: "long plate", req: &models.CreateVehicleRequest{RegistrationPlate: "ABCDEFGHIJKLMNOPQRSTUVWXYZ", Brand: "Renault", Model: "Clio", AcquisitionDate: "2024-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestMarkBrokenDown_EnqueuesEventOnce(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	vehicle := store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-1"})

	v, err := svc.MarkBrokenDown(context.Background(), vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.VehicleBrokenDown), v.Status)

	_, err = svc.MarkBrokenDown(context.Background(), vehicle.ID)
	require.NoError(t, err)

	events := store.Events()
	require.Len(t, events, 1)
	assert.Equal(t, domain.EventVehicleBrokenDown, events[0].Type)
	assert.Equal(t, vehicle.ID, events[0].AggregateID)

	var payload domain.VehicleEventPayload
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, vehicle.ID, payload.VehicleID)
	assert.True(t, now.Equal(payload.OccurredAt))
}

func TestMarkBrokenDown_NotFound(t *testing.T) {
	store := memstore.New()
	svc := newService(store)

	_, err := svc.MarkBrokenDown(context.Background(), 42)

	assert.ErrorIs(t, err, ErrNotFound)
	assert.Empty(t, store.Events())
}

func TestMarkRepaired(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	vehicle := store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-1", Status: domain.VehicleBrokenDown})

	v, err := svc.MarkRepaired(context.Background(), vehicle.ID)

	require.NoError(t, err)
	assert.Equal(t, string(domain.VehicleAvailable), v.Status)
	assert.Empty(t, store.Events())
}

func TestListAvailable(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	free := store.PutVehicle(domain.Vehicle{RegistrationPlate: "FREE"})
	busy := store.PutVehicle(domain.Vehicle{RegistrationPlate: "BUSY"})
	store.PutVehicle(domain.Vehicle{RegistrationPlate: "BROKEN", Status: domain.VehicleBrokenDown})
	store.PutContract(domain.Contract{VehicleID: busy.ID, StartDate: now, EndDate: now.Add(48 * time.Hour), Status: domain.ContractPending})
	store.PutContract(domain.Contract{VehicleID: free.ID, StartDate: now, EndDate: now.Add(48 * time.Hour), Status: domain.ContractCancelled})

	resp, err := svc.ListAvailable(context.Background(), &models.AvailableVehiclesRequest{Start: now.Add(time.Hour), End: now.Add(2 * time.Hour)})

	require.NoError(t, err)
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, free.ID, resp.Vehicles[0].ID)

	_, err = svc.ListAvailable(context.Background(), &models.AvailableVehiclesRequest{Start: now, End: now})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestList_InvalidStatus(t *testing.T) {
	svc := newService(memstore.New())

	_, err := svc.List(context.Background(), &models.ListVehiclesRequest{Status: ptr.Ptr("lost")})

	assert.ErrorIs(t, err, ErrValidation)
}

func TestDelete(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	used := store.PutVehicle(domain.Vehicle{RegistrationPlate: "USED"})
	unused := store.PutVehicle(domain.Vehicle{RegistrationPlate: "UNUSED"})
	store.PutContract(domain.Contract{VehicleID: used.ID, StartDate: now, EndDate: now.Add(time.Hour), Status: domain.ContractCompleted})

	assert.ErrorIs(t, svc.Delete(context.Background(), used.ID), ErrInUse)
	assert.NoError(t, svc.Delete(context.Background(), unused.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), unused.ID), ErrNotFound)
}

func TestUpdate(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	vehicle := store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-1", Brand: "Renault", Model: "Clio", Status: domain.VehicleBrokenDown})
	store.PutVehicle(domain.Vehicle{RegistrationPlate: "TAKEN"})

	v, err := svc.Update(context.Background(), vehicle.ID, &models.UpdateVehicleRequest{
		RegistrationPlate: " AB-2 ",
		Brand:             "Renault",
		Model:             "Megane",
		Color:             ptr.Ptr("red"),
		AcquisitionDate:   "2023-09-01",
	})

	require.NoError(t, err)
	assert.Equal(t, "AB-2", v.RegistrationPlate)
	assert.Equal(t, "Megane", v.Model)
	assert.Equal(t, "2023-09-01", v.AcquisitionDate)
	// статус меняется только через отдельные действия
	assert.Equal(t, string(domain.VehicleBrokenDown), v.Status)

	_, err = svc.Update(context.Background(), vehicle.ID, &models.UpdateVehicleRequest{
		RegistrationPlate: "TAKEN", Brand: "Renault", Model: "Clio", AcquisitionDate: "2023-09-01",
	})
	assert.ErrorIs(t, err, ErrAlreadyExists)

	// свой же номер не считается дубликатом
	_, err = svc.Update(context.Background(), vehicle.ID, &models.UpdateVehicleRequest{
		RegistrationPlate: "AB-2", Brand: "Renault", Model: "Clio", AcquisitionDate: "2023-09-01",
	})
	assert.NoError(t, err)
}

func TestUpdate_Errors(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	vehicle := store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-1"})

	_, err := svc.Update(context.Background(), 404, &models.UpdateVehicleRequest{
		RegistrationPlate: "AB-9", Brand: "Renault", Model: "Clio", AcquisitionDate: "2023-09-01",
	})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Update(context.Background(), vehicle.ID, &models.UpdateVehicleRequest{
		RegistrationPlate: "AB-1", Brand: "", Model: "Clio", AcquisitionDate: "2023-09-01",
	})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Update(context.Background(), vehicle.ID, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestMarkRented(t *testing.T) {
	store := memstore.New()
	svc := newService(store)
	vehicle := store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-1"})
	broken := store.PutVehicle(domain.Vehicle{RegistrationPlate: "AB-2", Status: domain.VehicleBrokenDown})

	v, err := svc.MarkRented(context.Background(), vehicle.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.VehicleRented), v.Status)

	_, err = svc.MarkRented(context.Background(), broken.ID)
	assert.ErrorIs(t, err, ErrUnavailable)
	stored, err := store.Vehicles().GetByID(context.Background(), broken.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.VehicleBrokenDown, stored.Status)

	_, err = svc.MarkRented(context.Background(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
