// Package memstore хранилище в памяти с теми же контрактами и ошибками, что и Postgres-репозитории.
// Транзакции сериализуются одним мьютексом и откатываются снимком состояния.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-RentalService/internal/domain"
)

type txKey struct{}

// Store общее состояние всех репозиториев
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID    int64
	vehicles  map[int64]domain.Vehicle
	clients   map[int64]domain.Client
	contracts map[int64]domain.Contract
	events    []domain.Event

	failures map[failureKey]error
	now      func() time.Time
}

type failureKey struct {
	op string
	id int64
}

// New создает пустое хранилище
func New() *Store {
	return &Store{
		vehicles:  make(map[int64]domain.Vehicle),
		clients:   make(map[int64]domain.Client),
		contracts: make(map[int64]domain.Contract),
		failures:  make(map[failureKey]error),
		now:       time.Now,
	}
}

// FailOn заставляет операцию op над объектом id вернуть err (например "contract.UpdateStatus")
func (s *Store) FailOn(op string, id int64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failureKey{op: op, id: id}] = err
}

func (s *Store) failure(op string, id int64) error {
	return s.failures[failureKey{op: op, id: id}]
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

type snapshot struct {
	nextID    int64
	vehicles  map[int64]domain.Vehicle
	clients   map[int64]domain.Client
	contracts map[int64]domain.Contract
	events    []domain.Event
}

func (s *Store) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{
		nextID:    s.nextID,
		vehicles:  make(map[int64]domain.Vehicle, len(s.vehicles)),
		clients:   make(map[int64]domain.Client, len(s.clients)),
		contracts: make(map[int64]domain.Contract, len(s.contracts)),
		events:    append([]domain.Event(nil), s.events...),
	}
	for k, v := range s.vehicles {
		snap.vehicles[k] = v
	}
	for k, v := range s.clients {
		snap.clients[k] = v
	}
	for k, v := range s.contracts {
		snap.contracts[k] = v
	}
	return snap
}

func (s *Store) restore(snap snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID = snap.nextID
	s.vehicles = snap.vehicles
	s.clients = snap.clients
	s.contracts = snap.contracts
	s.events = snap.events
}

// TxManager реализует Do/DoSerializable/DoReadOnly поверх Store
type TxManager struct {
	store *Store
}

func (s *Store) TxManager() *TxManager {
	return &TxManager{store: s}
}

func (m *TxManager) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if ctx.Value(txKey{}) != nil {
		return fn(ctx)
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()

	snap := m.store.snapshot()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		m.store.restore(snap)
		return err
	}
	return nil
}

func (m *TxManager) DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}

func (m *TxManager) DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error {
	return m.Do(ctx, fn)
}

// Events возвращает копию всех событий outbox
func (s *Store) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Event(nil), s.events...)
}

// PutVehicle кладёт автомобиль как есть (для подготовки данных в тестах)
func (s *Store) PutVehicle(v domain.Vehicle) *domain.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == 0 {
		v.ID = s.id()
	} else if v.ID > s.nextID {
		s.nextID = v.ID
	}
	if v.Status == "" {
		v.Status = domain.VehicleAvailable
	}
	s.vehicles[v.ID] = v
	return &v
}

// PutClient кладёт клиента как есть
func (s *Store) PutClient(c domain.Client) *domain.Client {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	} else if c.ID > s.nextID {
		s.nextID = c.ID
	}
	s.clients[c.ID] = c
	return &c
}

// PutContract кладёт контракт в произвольном статусе, минуя проверки сервиса
func (s *Store) PutContract(c domain.Contract) *domain.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.ID == 0 {
		c.ID = s.id()
	} else if c.ID > s.nextID {
		s.nextID = c.ID
	}
	s.contracts[c.ID] = c
	return &c
}

// Contract возвращает копию контракта (ok=false, если его нет)
func (s *Store) Contract(id int64) (domain.Contract, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.contracts[id]
	return c, ok
}

// AllContracts возвращает все контракты, упорядоченные по id
func (s *Store) AllContracts() []domain.Contract {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Contract, 0, len(s.contracts))
	for _, c := range s.contracts {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func newEventID() uuid.UUID {
	return uuid.New()
}
