package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/godown-ops/godown/internal/shared"
)

type memoryLedger struct {
	products map[uuid.UUID]Product
	locked   [][]uuid.UUID
	added    []uuid.UUID
}

func newMemoryLedger(products ...Product) *memoryLedger {
	l := &memoryLedger{products: make(map[uuid.UUID]Product)}
	for _, p := range products {
		l.products[p.ID] = p
	}
	return l
}

func (l *memoryLedger) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	l.locked = append(l.locked, append([]uuid.UUID(nil), ids...))
	out := make(map[uuid.UUID]Product)
	for _, id := range ids {
		if p, ok := l.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (l *memoryLedger) AddQuantity(ctx context.Context, id uuid.UUID, delta int64) (int64, bool, error) {
	p, ok := l.products[id]
	if !ok || p.Quantity+delta < 0 {
		return 0, false, nil
	}
	p.Quantity += delta
	l.products[id] = p
	l.added = append(l.added, id)
	return p.Quantity, true, nil
}

func product(wh uuid.UUID, name string, qty int64) Product {
	return Product{ID: uuid.New(), WarehouseID: wh, Name: name, Quantity: qty, Price: decimal.NewFromInt(20)}
}

func TestReserveStockDecrements(t *testing.T) {
	wh := uuid.New()
	p := product(wh, "Cola", 100)
	ledger := newMemoryLedger(p)

	got, err := ReserveStock(context.Background(), ledger, p.ID, wh, 30)
	require.NoError(t, err)
	require.EqualValues(t, 70, got.Quantity)
	require.EqualValues(t, 70, ledger.products[p.ID].Quantity)
}

func TestReserveStockFailures(t *testing.T) {
	wh := uuid.New()
	p := product(wh, "Cola", 70)

	cases := []struct {
		name    string
		id      uuid.UUID
		wh      uuid.UUID
		qty     int64
		wantErr error
		class   error
		message string
	}{
		{"insufficient", p.ID, wh, 150, ErrInsufficientStock, shared.ErrPrecondition, "insufficient stock for Cola: available 70, requested 150"},
		{"wrong warehouse", p.ID, uuid.New(), 1, ErrWrongWarehouse, shared.ErrPrecondition, "product Cola belongs to a different warehouse"},
		{"missing", uuid.New(), wh, 1, ErrProductNotFound, shared.ErrNotFound, ""},
		{"zero", p.ID, wh, 0, ErrInvalidQuantity, shared.ErrValidation, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ledger := newMemoryLedger(p)
			_, err := ReserveStock(context.Background(), ledger, tc.id, tc.wh, tc.qty)
			require.ErrorIs(t, err, tc.wantErr)
			require.ErrorIs(t, err, tc.class)
			if tc.message != "" {
				require.EqualError(t, err, tc.message)
			}
			require.EqualValues(t, 70, ledger.products[p.ID].Quantity)
		})
	}
}

func TestReserveAllInputOrderAndLockOrder(t *testing.T) {
	wh := uuid.New()
	a := product(wh, "Alpha", 5)
	b := product(wh, "Bravo", 1)
	c := product(wh, "Charlie", 5)
	ledger := newMemoryLedger(a, b, c)

	_, err := ReserveAll(context.Background(), ledger, wh, []Reservation{
		{ProductID: c.ID, Qty: 2},
		{ProductID: b.ID, Qty: 3},
		{ProductID: a.ID, Qty: 2},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "Bravo")

	require.EqualValues(t, 3, ledger.products[c.ID].Quantity, "first item was applied before the failure; the caller's transaction undoes it")
	require.EqualValues(t, 5, ledger.products[a.ID].Quantity, "items after the failure are untouched")

	require.Len(t, ledger.locked, 1)
	ids := ledger.locked[0]
	require.Len(t, ids, 3)
	for i := 1; i < len(ids); i++ {
		require.Negative(t, compareUUID(ids[i-1], ids[i]))
	}
}

func TestReserveAllDuplicateProductSeesUpdatedQuantity(t *testing.T) {
	wh := uuid.New()
	p := product(wh, "Cola", 10)
	ledger := newMemoryLedger(p)

	_, err := ReserveAll(context.Background(), ledger, wh, []Reservation{{ProductID: p.ID, Qty: 6}, {ProductID: p.ID, Qty: 6}})
	require.ErrorIs(t, err, ErrInsufficientStock)
	require.Contains(t, err.Error(), "available 4, requested 6")
}

func TestRestoreStock(t *testing.T) {
	wh := uuid.New()
	p := product(wh, "Cola", 70)
	ledger := newMemoryLedger(p)

	require.NoError(t, RestoreStock(context.Background(), ledger, p.ID, 5))
	require.EqualValues(t, 75, ledger.products[p.ID].Quantity)
	require.ErrorIs(t, RestoreStock(context.Background(), ledger, p.ID, 0), ErrInvalidQuantity)
	require.ErrorIs(t, RestoreStock(context.Background(), ledger, uuid.New(), 1), ErrProductNotFound)
}

func TestRestoreAllLocksAndWritesInIDOrder(t *testing.T) {
	wh := uuid.New()
	lo := Product{ID: uuid.MustParse("00000000-0000-0000-0000-000000000001"), WarehouseID: wh, Name: "Alpha", Quantity: 10}
	hi := Product{ID: uuid.MustParse("ffffffff-0000-0000-0000-000000000002"), WarehouseID: wh, Name: "Bravo", Quantity: 10}
	ledger := newMemoryLedger(lo, hi)

	require.NoError(t, RestoreAll(context.Background(), ledger, []Reservation{
		{ProductID: hi.ID, Qty: 4},
		{ProductID: lo.ID, Qty: 1},
	}))
	require.Equal(t, [][]uuid.UUID{{lo.ID, hi.ID}}, ledger.locked)
	require.Equal(t, []uuid.UUID{lo.ID, hi.ID}, ledger.added)
	require.EqualValues(t, 11, ledger.products[lo.ID].Quantity)
	require.EqualValues(t, 14, ledger.products[hi.ID].Quantity)
}

func TestRestoreAllFailures(t *testing.T) {
	wh := uuid.New()
	p := product(wh, "Cola", 10)
	ledger := newMemoryLedger(p)

	require.NoError(t, RestoreAll(context.Background(), ledger, nil))
	require.ErrorIs(t, RestoreAll(context.Background(), ledger, []Reservation{{ProductID: p.ID, Qty: 0}}), ErrInvalidQuantity)
	require.ErrorIs(t, RestoreAll(context.Background(), ledger, []Reservation{{ProductID: uuid.New(), Qty: 1}}), ErrProductNotFound)
	require.EqualValues(t, 10, ledger.products[p.ID].Quantity)
}

func compareUUID(a, b uuid.UUID) int {
	for i := range a {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}
