package trips

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/godown-ops/godown/internal/fleet"
	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/shared"
)

// memoryStore is a transactional in-memory backend. WithTx serialises callers
// and restores a snapshot when fn fails.
type memoryStore struct {
	mu       sync.Mutex
	vehicles map[uuid.UUID]fleet.Vehicle
	products map[uuid.UUID]inventory.Product
	trips    map[uuid.UUID]Trip
	keys     map[string]struct{}
	writes   []uuid.UUID
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		vehicles: make(map[uuid.UUID]fleet.Vehicle),
		products: make(map[uuid.UUID]inventory.Product),
		trips:    make(map[uuid.UUID]Trip),
		keys:     make(map[string]struct{}),
	}
}

type snapshot struct {
	vehicles map[uuid.UUID]fleet.Vehicle
	products map[uuid.UUID]inventory.Product
	trips    map[uuid.UUID]Trip
	keys     map[string]struct{}
}

func (m *memoryStore) snapshot() snapshot {
	s := snapshot{
		vehicles: make(map[uuid.UUID]fleet.Vehicle, len(m.vehicles)),
		products: make(map[uuid.UUID]inventory.Product, len(m.products)),
		trips:    make(map[uuid.UUID]Trip, len(m.trips)),
		keys:     make(map[string]struct{}, len(m.keys)),
	}
	for k, v := range m.vehicles {
		s.vehicles[k] = v
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.trips {
		s.trips[k] = cloneTrip(v)
	}
	for k := range m.keys {
		s.keys[k] = struct{}{}
	}
	return s
}

func (m *memoryStore) restore(s snapshot) {
	m.vehicles, m.products, m.trips, m.keys = s.vehicles, s.products, s.trips, s.keys
}

func cloneTrip(t Trip) Trip {
	t.LoadedItems = append([]LineItem(nil), t.LoadedItems...)
	return t
}

func (m *memoryStore) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := m.snapshot()
	if err := fn(ctx, m); err != nil {
		m.restore(snap)
		return err
	}
	return nil
}

func (m *memoryStore) GetTrip(ctx context.Context, id uuid.UUID) (Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.trips[id]
	if !ok {
		return Trip{}, ErrTripNotFound
	}
	return cloneTrip(t), nil
}

func (m *memoryStore) ListTrips(ctx context.Context, warehouseID uuid.UUID) ([]Trip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Trip, 0)
	for _, t := range m.trips {
		if t.WarehouseID == warehouseID {
			out = append(out, cloneTrip(t))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) GetVehicleForUpdate(ctx context.Context, id uuid.UUID) (fleet.Vehicle, error) {
	v, ok := m.vehicles[id]
	if !ok {
		return fleet.Vehicle{}, fleet.ErrVehicleNotFound
	}
	return v, nil
}

func (m *memoryStore) SetVehicleStatus(ctx context.Context, id uuid.UUID, from, to fleet.Status) (bool, error) {
	v, ok := m.vehicles[id]
	if !ok || v.Status != from {
		return false, nil
	}
	v.Status = to
	m.vehicles[id] = v
	return true, nil
}

func (m *memoryStore) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error) {
	out := make(map[uuid.UUID]inventory.Product, len(ids))
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *memoryStore) AddQuantity(ctx context.Context, id uuid.UUID, delta int64) (int64, bool, error) {
	p, ok := m.products[id]
	if !ok || p.Quantity+delta < 0 {
		return 0, false, nil
	}
	p.Quantity += delta
	m.products[id] = p
	m.writes = append(m.writes, id)
	return p.Quantity, true, nil
}

func (m *memoryStore) ClaimIdempotencyKey(ctx context.Context, key string) error {
	if _, ok := m.keys[key]; ok {
		return shared.ErrIdempotencyConflict
	}
	m.keys[key] = struct{}{}
	return nil
}

func (m *memoryStore) InsertTrip(ctx context.Context, t Trip) error {
	m.trips[t.ID] = cloneTrip(t)
	return nil
}

func (m *memoryStore) GetTripForUpdate(ctx context.Context, id uuid.UUID) (Trip, error) {
	t, ok := m.trips[id]
	if !ok {
		return Trip{}, ErrTripNotFound
	}
	return cloneTrip(t), nil
}

func (m *memoryStore) UpdateTrip(ctx context.Context, t Trip) error {
	if _, ok := m.trips[t.ID]; !ok {
		return ErrTripNotFound
	}
	m.trips[t.ID] = cloneTrip(t)
	return nil
}

// Catalog and Vehicles read the same state outside a transaction.

func (m *memoryStore) ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.LockProducts(ctx, ids)
}

func (m *memoryStore) GetVehicle(ctx context.Context, id uuid.UUID) (fleet.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.GetVehicleForUpdate(ctx, id)
}

func (m *memoryStore) ListVehicles(ctx context.Context, warehouseID uuid.UUID) ([]fleet.Vehicle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]fleet.Vehicle, 0)
	for _, v := range m.vehicles {
		if v.WarehouseID == warehouseID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (m *memoryStore) quantity(id uuid.UUID) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].Quantity
}

func (m *memoryStore) vehicleStatus(id uuid.UUID) fleet.Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.vehicles[id].Status
}

type staticAuthz map[uuid.UUID]bool

func (a staticAuthz) Authorize(ctx context.Context, p shared.Principal, warehouseID uuid.UUID) error {
	if !p.Valid() {
		return shared.ErrUnauthenticated
	}
	if p.IsAdmin() || a[warehouseID] {
		return nil
	}
	return shared.ErrForbidden
}
