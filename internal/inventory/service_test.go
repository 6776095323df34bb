package inventory

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/godown-ops/godown/internal/shared"
)

type memoryRepo struct {
	products map[uuid.UUID]Product
	inUse    map[uuid.UUID]bool
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{products: make(map[uuid.UUID]Product), inUse: make(map[uuid.UUID]bool)}
}

func (r *memoryRepo) InsertProduct(ctx context.Context, p Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memoryRepo) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrProductNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context, warehouseID uuid.UUID) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		if p.WarehouseID == warehouseID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *memoryRepo) ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	out := make(map[uuid.UUID]Product)
	for _, id := range ids {
		if p, ok := r.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (r *memoryRepo) UpdateProduct(ctx context.Context, p Product) error {
	r.products[p.ID] = p
	return nil
}

func (r *memoryRepo) Restock(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	p, ok := r.products[id]
	if !ok {
		return 0, ErrProductNotFound
	}
	p.Quantity += qty
	r.products[id] = p
	return p.Quantity, nil
}

func (r *memoryRepo) DeleteUnused(ctx context.Context, id uuid.UUID) error {
	if r.inUse[id] {
		return ErrProductInUse
	}
	delete(r.products, id)
	return nil
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

var (
	admin = shared.Principal{ID: "admin", Role: shared.RoleAdmin}
	staff = shared.Principal{ID: "staff", Role: shared.RoleStaff}
)

func TestCreateProductGeneratesSKU(t *testing.T) {
	wh := uuid.New()
	svc := NewService(newMemoryRepo(), allowWarehouse(wh), nil, nil)

	p, err := svc.Create(context.Background(), staff, CreateInput{
		WarehouseID: wh, Name: "Cola", Flavour: "Lemon", Pack: "500ml", Quantity: 100, Price: decimal.NewFromInt(20),
	})
	require.NoError(t, err)
	require.Regexp(t, `^COL-LEM-500-\d{4}$`, p.SKU)

	p, err = svc.Create(context.Background(), staff, CreateInput{WarehouseID: wh, Name: "Teh", SKU: "teh-1", Price: decimal.NewFromInt(5)})
	require.NoError(t, err)
	require.Equal(t, "TEH-1", p.SKU)
}

func TestCreateProductValidation(t *testing.T) {
	wh := uuid.New()
	svc := NewService(newMemoryRepo(), allowWarehouse(wh), nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, staff, CreateInput{WarehouseID: wh, Name: "X", Quantity: -1})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, staff, CreateInput{WarehouseID: wh, Name: "X", Price: decimal.NewFromInt(-1)})
	require.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.Create(ctx, staff, CreateInput{WarehouseID: uuid.New(), Name: "X"})
	require.ErrorIs(t, err, shared.ErrForbidden)
}

func TestUpdateClearsSalePrice(t *testing.T) {
	wh := uuid.New()
	repo := newMemoryRepo()
	svc := NewService(repo, allowWarehouse(wh), nil, nil)
	svc.now = func() time.Time { return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC) }
	ctx := context.Background()

	p, err := svc.Create(ctx, staff, CreateInput{
		WarehouseID: wh, Name: "Cola", Price: decimal.NewFromInt(20),
		SalePrice: decimal.NewNullDecimal(decimal.NewFromInt(19)),
	})
	require.NoError(t, err)

	cleared := decimal.NullDecimal{}
	price := decimal.NewFromInt(22)
	updated, err := svc.Update(ctx, staff, p.ID, UpdateInput{SalePrice: &cleared, Price: &price})
	require.NoError(t, err)
	require.False(t, updated.SalePrice.Valid)
	require.True(t, updated.Price.Equal(price))
	require.EqualValues(t, 0, updated.Quantity)
}

func TestRestockAndDelete(t *testing.T) {
	wh := uuid.New()
	repo := newMemoryRepo()
	svc := NewService(repo, allowWarehouse(wh), nil, nil)
	ctx := context.Background()

	p, err := svc.Create(ctx, staff, CreateInput{WarehouseID: wh, Name: "Cola", Quantity: 10, Price: decimal.NewFromInt(20)})
	require.NoError(t, err)

	got, err := svc.Restock(ctx, staff, p.ID, 15)
	require.NoError(t, err)
	require.EqualValues(t, 25, got.Quantity)

	_, err = svc.Restock(ctx, staff, p.ID, 0)
	require.ErrorIs(t, err, ErrInvalidQuantity)

	require.ErrorIs(t, svc.Delete(ctx, staff, p.ID), shared.ErrForbidden)

	repo.inUse[p.ID] = true
	require.ErrorIs(t, svc.Delete(ctx, admin, p.ID), ErrProductInUse)

	repo.inUse[p.ID] = false
	require.NoError(t, svc.Delete(ctx, admin, p.ID))
	require.ErrorIs(t, svc.Delete(ctx, admin, p.ID), ErrProductNotFound)
}

type failingAudit struct{}

func (failingAudit) Record(ctx context.Context, log shared.AuditLog) error {
	return errors.New("audit store down")
}

func TestRestockSucceedsWhenAuditFails(t *testing.T) {
	wh := uuid.New()
	var buf bytes.Buffer
	svc := NewService(newMemoryRepo(), allowWarehouse(wh), failingAudit{}, slog.New(slog.NewTextHandler(&buf, nil)))
	ctx := context.Background()

	p, err := svc.Create(ctx, staff, CreateInput{WarehouseID: wh, Name: "Cola", Quantity: 10, Price: decimal.NewFromInt(20)})
	require.NoError(t, err)

	got, err := svc.Restock(ctx, staff, p.ID, 5)
	require.NoError(t, err)
	require.EqualValues(t, 15, got.Quantity)
	require.Contains(t, buf.String(), "audit restock")
	require.Contains(t, buf.String(), "audit store down")
	require.Contains(t, buf.String(), p.ID.String())
}
