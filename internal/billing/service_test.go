package billing

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/godown-ops/godown/internal/fleet"
	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/shared"
	"github.com/godown-ops/godown/internal/trips"
)

type memoryBills struct {
	mu    sync.Mutex
	bills map[uuid.UUID]Bill
}

func (m *memoryBills) InsertBill(ctx context.Context, b Bill) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.bills {
		if existing.TripID == b.TripID {
			return ErrBillAlreadyExists
		}
	}
	m.bills[b.ID] = b
	return nil
}

func (m *memoryBills) BillExists(ctx context.Context, tripID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bills {
		if b.TripID == tripID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryBills) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bills[id]
	if !ok {
		return Bill{}, ErrBillNotFound
	}
	return b, nil
}

func (m *memoryBills) ListBills(ctx context.Context, warehouseID uuid.UUID) ([]Bill, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Bill, 0)
	for _, b := range m.bills {
		if b.WarehouseID == warehouseID {
			b.Lines = nil
			out = append(out, b)
		}
	}
	return out, nil
}

type world struct {
	trips    map[uuid.UUID]trips.Trip
	products map[uuid.UUID]inventory.Product
	prices   map[string]map[uuid.UUID]decimal.Decimal
	vehicles []fleet.Vehicle
	bills    *memoryBills
}

func (w *world) GetTrip(ctx context.Context, id uuid.UUID) (trips.Trip, error) {
	t, ok := w.trips[id]
	if !ok {
		return trips.Trip{}, trips.ErrTripNotFound
	}
	return t, nil
}

func (w *world) VerifiedUnbilled(ctx context.Context, warehouseID uuid.UUID) ([]trips.Trip, error) {
	out := make([]trips.Trip, 0)
	for _, t := range w.trips {
		if t.WarehouseID != warehouseID || t.Status != trips.StatusVerified {
			continue
		}
		if billed, _ := w.bills.BillExists(ctx, t.ID); !billed {
			out = append(out, t)
		}
	}
	return out, nil
}

func (w *world) ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error) {
	out := make(map[uuid.UUID]inventory.Product)
	for _, id := range ids {
		if p, ok := w.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (w *world) PricesFor(ctx context.Context, warehouseID uuid.UUID, date string, ids []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	out := make(map[uuid.UUID]decimal.Decimal)
	for _, id := range ids {
		if v, ok := w.prices[date][id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func (w *world) ListVehicles(ctx context.Context, warehouseID uuid.UUID) ([]fleet.Vehicle, error) {
	return w.vehicles, nil
}

type allowWarehouse uuid.UUID

func (a allowWarehouse) Authorize(ctx context.Context, p shared.Principal, warehouseID uuid.UUID) error {
	if !p.Valid() {
		return shared.ErrUnauthenticated
	}
	if p.IsAdmin() || uuid.UUID(a) == warehouseID {
		return nil
	}
	return shared.ErrForbidden
}

func setup(t *testing.T) (*Service, *world, uuid.UUID, uuid.UUID) {
	t.Helper()
	wh := uuid.New()
	vehicle := fleet.Vehicle{ID: uuid.New(), WarehouseID: wh, Number: "B 1", Status: fleet.StatusAvailable}
	cola := inventory.Product{ID: uuid.New(), WarehouseID: wh, Name: "Cola", Price: dec(20), InvoiceCost: decimal.NewNullDecimal(dec(15))}
	w := &world{
		trips:    make(map[uuid.UUID]trips.Trip),
		products: map[uuid.UUID]inventory.Product{cola.ID: cola},
		prices:   make(map[string]map[uuid.UUID]decimal.Decimal),
		vehicles: []fleet.Vehicle{vehicle},
		bills:    &memoryBills{bills: make(map[uuid.UUID]Bill)},
	}
	svc := NewService(w.bills, Deps{Trips: w, Catalog: w, Prices: w, Vehicles: w, Authz: allowWarehouse(wh)})
	svc.now = func() time.Time { return time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC) }
	return svc, w, wh, cola.ID
}

func addTrip(w *world, wh, product uuid.UUID, status trips.Status, loaded, returned int64) trips.Trip {
	t := trips.Trip{
		ID:          uuid.New(),
		WarehouseID: wh,
		VehicleID:   w.vehicles[0].ID,
		Status:      status,
		LoadedItems: []trips.LineItem{{ProductID: product, QtyLoaded: loaded, QtyReturned: returned}},
	}
	w.trips[t.ID] = t
	return t
}

func TestGenerateBill(t *testing.T) {
	svc, w, wh, cola := setup(t)
	ctx := context.Background()
	staff := shared.Principal{ID: "staff-1", Role: shared.RoleStaff}
	trip := addTrip(w, wh, cola, trips.StatusVerified, 30, 5)

	bill, err := svc.Generate(ctx, staff, GenerateInput{TripID: trip.ID})
	require.NoError(t, err)
	require.True(t, bill.TotalAmount.Equal(dec(500)))
	require.True(t, bill.TotalProfit.Equal(dec(125)))
	require.Equal(t, "2025-03-09", bill.BillingDate)
	require.Equal(t, "staff-1", bill.GeneratedBy)
	require.Equal(t, w.vehicles[0].ID, bill.VehicleID)
	require.Len(t, bill.Lines, 1)
	require.EqualValues(t, 25, bill.Lines[0].Sold)

	_, err = svc.Generate(ctx, staff, GenerateInput{TripID: trip.ID})
	require.ErrorIs(t, err, ErrBillAlreadyExists)
	require.Len(t, w.bills.bills, 1)

	got, err := svc.Get(ctx, staff, bill.ID)
	require.NoError(t, err)
	require.True(t, got.TotalAmount.Equal(dec(500)))
}

func TestGenerateUsesOverrideForBillingDateOnly(t *testing.T) {
	svc, w, wh, cola := setup(t)
	ctx := context.Background()
	staff := shared.Principal{ID: "staff-1", Role: shared.RoleStaff}
	w.prices["2025-03-10"] = map[uuid.UUID]decimal.Decimal{cola: dec(18)}

	onOverride := addTrip(w, wh, cola, trips.StatusVerified, 30, 5)
	bill, err := svc.Generate(ctx, staff, GenerateInput{TripID: onOverride.ID, Date: "2025-03-10"})
	require.NoError(t, err)
	require.True(t, bill.TotalAmount.Equal(dec(450)))
	require.True(t, bill.TotalProfit.Equal(dec(75)))
	require.Equal(t, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC), bill.GeneratedAt)

	otherDay := addTrip(w, wh, cola, trips.StatusVerified, 30, 5)
	bill, err = svc.Generate(ctx, staff, GenerateInput{TripID: otherDay.ID, Date: "2025-03-11T09:00:00+07:00"})
	require.NoError(t, err)
	require.Equal(t, "2025-03-11", bill.BillingDate)
	require.True(t, bill.TotalAmount.Equal(dec(500)))

	late := addTrip(w, wh, cola, trips.StatusVerified, 1, 0)
	bill, err = svc.Generate(ctx, staff, GenerateInput{TripID: late.ID, Date: "2025-03-11T01:00:00+07:00"})
	require.NoError(t, err)
	require.Equal(t, "2025-03-10", bill.BillingDate)
	require.True(t, bill.TotalAmount.Equal(dec(18)))
}

func TestGenerateOffsetDateBillsOnUTCDay(t *testing.T) {
	svc, w, wh, cola := setup(t)
	ctx := context.Background()
	staff := shared.Principal{ID: "staff-1", Role: shared.RoleStaff}
	w.prices["2026-10-13"] = map[uuid.UUID]decimal.Decimal{cola: dec(18)}
	w.prices["2026-10-14"] = map[uuid.UUID]decimal.Decimal{cola: dec(25)}

	trip := addTrip(w, wh, cola, trips.StatusVerified, 10, 0)
	bill, err := svc.Generate(ctx, staff, GenerateInput{TripID: trip.ID, Date: "2026-10-14T01:00:00+05:30"})
	require.NoError(t, err)
	require.Equal(t, "2026-10-13", bill.BillingDate)
	require.Equal(t, time.Date(2026, 10, 13, 19, 30, 0, 0, time.UTC), bill.GeneratedAt)
	require.True(t, bill.TotalAmount.Equal(dec(180)))

	west := addTrip(w, wh, cola, trips.StatusVerified, 10, 0)
	bill, err = svc.Generate(ctx, staff, GenerateInput{TripID: west.ID, Date: "2026-10-13T20:00:00-05:00"})
	require.NoError(t, err)
	require.Equal(t, "2026-10-14", bill.BillingDate)
	require.True(t, bill.TotalAmount.Equal(dec(250)))
}

func TestGenerateFailures(t *testing.T) {
	svc, w, wh, cola := setup(t)
	ctx := context.Background()
	staff := shared.Principal{ID: "staff-1", Role: shared.RoleStaff}
	loaded := addTrip(w, wh, cola, trips.StatusLoaded, 30, 0)
	foreign := addTrip(w, uuid.New(), cola, trips.StatusVerified, 1, 0)

	_, err := svc.Generate(ctx, staff, GenerateInput{TripID: uuid.New()})
	require.ErrorIs(t, err, trips.ErrTripNotFound)

	_, err = svc.Generate(ctx, staff, GenerateInput{TripID: loaded.ID})
	require.ErrorIs(t, err, ErrTripNotVerified)
	require.ErrorIs(t, err, shared.ErrPrecondition)

	_, err = svc.Generate(ctx, staff, GenerateInput{TripID: foreign.ID})
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Generate(ctx, shared.Principal{}, GenerateInput{TripID: loaded.ID})
	require.ErrorIs(t, err, shared.ErrUnauthenticated)

	_, err = svc.Generate(ctx, staff, GenerateInput{TripID: loaded.ID, Date: "10/03/2025"})
	require.ErrorIs(t, err, shared.ErrValidation)
	require.Empty(t, w.bills.bills)
}

func TestListSplitsBilledAndPending(t *testing.T) {
	svc, w, wh, cola := setup(t)
	ctx := context.Background()
	staff := shared.Principal{ID: "staff-1", Role: shared.RoleStaff}
	billed := addTrip(w, wh, cola, trips.StatusVerified, 3, 0)
	pending := addTrip(w, wh, cola, trips.StatusVerified, 2, 0)
	addTrip(w, wh, cola, trips.StatusLoaded, 2, 0)

	_, err := svc.Generate(ctx, staff, GenerateInput{TripID: billed.ID})
	require.NoError(t, err)

	overview, err := svc.List(ctx, staff, wh)
	require.NoError(t, err)
	require.Len(t, overview.Bills, 1)
	require.Equal(t, billed.ID, overview.Bills[0].TripID)
	require.NotNil(t, overview.Bills[0].Vehicle)
	require.Empty(t, overview.Bills[0].Lines)
	require.Len(t, overview.PendingTrips, 1)
	require.Equal(t, pending.ID, overview.PendingTrips[0].ID)
	require.Equal(t, "B 1", overview.PendingTrips[0].Vehicle.Number)

	_, err = svc.List(ctx, staff, uuid.New())
	require.ErrorIs(t, err, shared.ErrForbidden)
}
