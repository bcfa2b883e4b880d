package memstore

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
	clientRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/client"
	contractRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/contract"
	outboxRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/outbox"
	vehicleRepo "github.com/m04kA/SMC-RentalService/internal/infra/storage/vehicle"
)

// VehicleRepository вид Store для автомобилей
type VehicleRepository struct{ s *Store }

func (s *Store) Vehicles() *VehicleRepository { return &VehicleRepository{s: s} }

func (r *VehicleRepository) Create(ctx context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.vehicles {
		if existing.RegistrationPlate == v.RegistrationPlate {
			return nil, vehicleRepo.ErrDuplicatePlate
		}
	}
	v.ID = r.s.id()
	v.CreatedAt = r.s.now()
	v.UpdatedAt = v.CreatedAt
	r.s.vehicles[v.ID] = *v
	return v, nil
}

func (r *VehicleRepository) GetByID(ctx context.Context, id int64) (*domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("vehicle.GetByID", id); err != nil {
		return nil, err
	}
	v, ok := r.s.vehicles[id]
	if !ok {
		return nil, vehicleRepo.ErrVehicleNotFound
	}
	return &v, nil
}

func (r *VehicleRepository) List(ctx context.Context, filter domain.VehiclesFilter) ([]*domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Vehicle, 0)
	for _, v := range r.s.vehicles {
		v := v
		if filter.Status != nil && v.Status != *filter.Status {
			continue
		}
		if filter.Brand != nil && !strings.EqualFold(v.Brand, *filter.Brand) {
			continue
		}
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *VehicleRepository) ListAvailable(ctx context.Context, start, end time.Time) ([]*domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Vehicle, 0)
	for _, v := range r.s.vehicles {
		v := v
		if v.IsBrokenDown() || r.s.overlapsLocked(v.ID, start, end, nil) {
			continue
		}
		out = append(out, &v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *VehicleRepository) Update(ctx context.Context, v *domain.Vehicle) (*domain.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.vehicles[v.ID]
	if !ok {
		return nil, vehicleRepo.ErrVehicleNotFound
	}
	for id, existing := range r.s.vehicles {
		if id != v.ID && existing.RegistrationPlate == v.RegistrationPlate {
			return nil, vehicleRepo.ErrDuplicatePlate
		}
	}
	v.Status = current.Status
	v.CreatedAt = current.CreatedAt
	v.UpdatedAt = r.s.now()
	r.s.vehicles[v.ID] = *v
	return v, nil
}

func (r *VehicleRepository) UpdateStatus(ctx context.Context, id int64, status domain.VehicleStatus) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok {
		return vehicleRepo.ErrVehicleNotFound
	}
	v.Status = status
	v.UpdatedAt = r.s.now()
	r.s.vehicles[id] = v
	return nil
}

func (r *VehicleRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.vehicles[id]; !ok {
		return vehicleRepo.ErrVehicleNotFound
	}
	for _, c := range r.s.contracts {
		if c.VehicleID == id {
			return vehicleRepo.ErrVehicleInUse
		}
	}
	delete(r.s.vehicles, id)
	return nil
}

// ClientRepository вид Store для клиентов
type ClientRepository struct{ s *Store }

func (s *Store) Clients() *ClientRepository { return &ClientRepository{s: s} }

func (r *ClientRepository) Create(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.clients {
		if existing.LicenseNumber == c.LicenseNumber {
			return nil, clientRepo.ErrDuplicateLicense
		}
		if existing.FirstName == c.FirstName && existing.LastName == c.LastName && existing.DateOfBirth.Equal(c.DateOfBirth) {
			return nil, clientRepo.ErrDuplicateIdentity
		}
	}
	c.ID = r.s.id()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.clients[c.ID] = *c
	return c, nil
}

func (r *ClientRepository) GetByID(ctx context.Context, id int64) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	c, ok := r.s.clients[id]
	if !ok {
		return nil, clientRepo.ErrClientNotFound
	}
	return &c, nil
}

func (r *ClientRepository) List(ctx context.Context, filter domain.ClientsFilter) ([]*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Client, 0)
	for _, c := range r.s.clients {
		c := c
		if filter.LastName != nil && c.LastName != *filter.LastName {
			continue
		}
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *ClientRepository) Update(ctx context.Context, c *domain.Client) (*domain.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	current, ok := r.s.clients[c.ID]
	if !ok {
		return nil, clientRepo.ErrClientNotFound
	}
	for id, existing := range r.s.clients {
		if id == c.ID {
			continue
		}
		if existing.LicenseNumber == c.LicenseNumber {
			return nil, clientRepo.ErrDuplicateLicense
		}
		if existing.FirstName == c.FirstName && existing.LastName == c.LastName && existing.DateOfBirth.Equal(c.DateOfBirth) {
			return nil, clientRepo.ErrDuplicateIdentity
		}
	}
	c.CreatedAt = current.CreatedAt
	c.UpdatedAt = r.s.now()
	r.s.clients[c.ID] = *c
	return c, nil
}

func (r *ClientRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[id]; !ok {
		return clientRepo.ErrClientNotFound
	}
	for _, c := range r.s.contracts {
		if c.ClientID == id {
			return clientRepo.ErrClientInUse
		}
	}
	delete(r.s.clients, id)
	return nil
}

// ContractRepository вид Store для контрактов
type ContractRepository struct{ s *Store }

func (s *Store) Contracts() *ContractRepository { return &ContractRepository{s: s} }

func (r *ContractRepository) Create(ctx context.Context, c *domain.Contract) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.clients[c.ClientID]; !ok {
		return nil, contractRepo.ErrReferenceNotFound
	}
	if _, ok := r.s.vehicles[c.VehicleID]; !ok {
		return nil, contractRepo.ErrReferenceNotFound
	}
	c.ID = r.s.id()
	c.CreatedAt = r.s.now()
	c.UpdatedAt = c.CreatedAt
	r.s.contracts[c.ID] = *c
	return c, nil
}

func (r *ContractRepository) GetByID(ctx context.Context, id int64) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("contract.GetByID", id); err != nil {
		return nil, err
	}
	c, ok := r.s.contracts[id]
	if !ok {
		return nil, contractRepo.ErrContractNotFound
	}
	return &c, nil
}

func (r *ContractRepository) List(ctx context.Context, filter domain.ContractsFilter) ([]*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Contract, 0)
	for _, c := range r.s.sortedContractsLocked() {
		c := c
		if filter.ClientID != nil && c.ClientID != *filter.ClientID {
			continue
		}
		if filter.VehicleID != nil && c.VehicleID != *filter.VehicleID {
			continue
		}
		if filter.Status != nil && c.Status != *filter.Status {
			continue
		}
		out = append(out, &c)
		if filter.Limit > 0 && uint64(len(out)) == filter.Limit {
			break
		}
	}
	return out, nil
}

func (r *ContractRepository) Update(ctx context.Context, c *domain.Contract) (*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	existing, ok := r.s.contracts[c.ID]
	if !ok {
		return nil, contractRepo.ErrContractNotFound
	}
	existing.ClientID = c.ClientID
	existing.VehicleID = c.VehicleID
	existing.StartDate = c.StartDate
	existing.EndDate = c.EndDate
	existing.UpdatedAt = r.s.now()
	r.s.contracts[c.ID] = existing
	updated := existing
	return &updated, nil
}

func (r *ContractRepository) UpdateStatus(ctx context.Context, id int64, status domain.ContractStatus) (time.Time, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.failure("contract.UpdateStatus", id); err != nil {
		return time.Time{}, err
	}
	c, ok := r.s.contracts[id]
	if !ok {
		return time.Time{}, contractRepo.ErrContractNotFound
	}
	c.Status = status
	c.UpdatedAt = r.s.now()
	r.s.contracts[id] = c
	return c.UpdatedAt, nil
}

func (r *ContractRepository) Delete(ctx context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.contracts[id]; !ok {
		return contractRepo.ErrContractNotFound
	}
	delete(r.s.contracts, id)
	return nil
}

func (r *ContractRepository) HasOverlapping(ctx context.Context, vehicleID int64, start, end time.Time, excludeID *int64) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	return r.s.overlapsLocked(vehicleID, start, end, excludeID), nil
}

func (r *ContractRepository) ListEndedBefore(ctx context.Context, status domain.ContractStatus, before time.Time, afterID int64, limit uint64) ([]*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Contract, 0)
	for _, c := range r.s.sortedContractsLocked() {
		c := c
		if c.ID > afterID && c.Status == status && c.EndDate.Before(before) {
			out = append(out, &c)
		}
		if limit > 0 && uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (r *ContractRepository) ListBlockingOverdue(ctx context.Context, afterID int64, limit uint64) ([]*domain.Contract, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := make([]*domain.Contract, 0)
	for _, o := range r.s.sortedContractsLocked() {
		o := o
		if o.ID <= afterID || o.Status != domain.ContractOverdue {
			continue
		}
		for _, p := range r.s.contracts {
			if p.VehicleID == o.VehicleID && p.Status == domain.ContractPending && o.EndDate.After(p.StartDate) {
				out = append(out, &o)
				break
			}
		}
		if limit > 0 && uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (s *Store) sortedContractsLocked() []domain.Contract {
	out := make([]domain.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) overlapsLocked(vehicleID int64, start, end time.Time, excludeID *int64) bool {
	for _, c := range s.contracts {
		c := c
		if c.VehicleID != vehicleID || !c.HoldsVehicle() {
			continue
		}
		if excludeID != nil && c.ID == *excludeID {
			continue
		}
		if c.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// OutboxRepository вид Store для событий outbox
type OutboxRepository struct{ s *Store }

func (s *Store) Outbox() *OutboxRepository { return &OutboxRepository{s: s} }

func (r *OutboxRepository) Enqueue(ctx context.Context, e *domain.Event) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = newEventID()
	}
	e.CreatedAt = r.s.now()
	e.AvailableAt = e.CreatedAt
	r.s.events = append(r.s.events, *e)
	return nil
}

func (r *OutboxRepository) FetchPending(ctx context.Context, limit uint64, maxAttempts int) ([]*domain.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	now := r.s.now()
	out := make([]*domain.Event, 0)
	for _, e := range r.s.events {
		e := e
		if e.ProcessedAt != nil || e.AvailableAt.After(now) {
			continue
		}
		if maxAttempts > 0 && e.Attempts >= maxAttempts {
			continue
		}
		out = append(out, &e)
		if limit > 0 && uint64(len(out)) == limit {
			break
		}
	}
	return out, nil
}

func (r *OutboxRepository) Lease(ctx context.Context, id uuid.UUID, until time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.events {
		if r.s.events[i].ID == id && r.s.events[i].ProcessedAt == nil {
			r.s.events[i].AvailableAt = until
			return nil
		}
	}
	return outboxRepo.ErrEventNotFound
}

func (r *OutboxRepository) MarkProcessed(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.events {
		if r.s.events[i].ID == id {
			now := r.s.now()
			r.s.events[i].ProcessedAt = &now
			r.s.events[i].Attempts++
			r.s.events[i].LastError = nil
			return nil
		}
	}
	return outboxRepo.ErrEventNotFound
}

func (r *OutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string, retryAt time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for i := range r.s.events {
		if r.s.events[i].ID == id {
			r.s.events[i].Attempts++
			r.s.events[i].LastError = &reason
			r.s.events[i].AvailableAt = retryAt
			return nil
		}
	}
	return outboxRepo.ErrEventNotFound
}
