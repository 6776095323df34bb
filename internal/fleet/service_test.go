package fleet

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/godown-ops/godown/internal/shared"
)

type memoryRepo struct {
	vehicles map[uuid.UUID]Vehicle
	busy     map[uuid.UUID]bool
}

func (r *memoryRepo) InsertVehicle(ctx context.Context, v Vehicle) error {
	r.vehicles[v.ID] = v
	return nil
}

func (r *memoryRepo) GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return Vehicle{}, ErrVehicleNotFound
	}
	return v, nil
}

func (r *memoryRepo) ListVehicles(ctx context.Context, warehouseID uuid.UUID) ([]Vehicle, error) {
	var out []Vehicle
	for _, v := range r.vehicles {
		if v.WarehouseID == warehouseID {
			out = append(out, v)
		}
	}
	return out, nil
}

func (r *memoryRepo) DeleteIdle(ctx context.Context, id uuid.UUID) error {
	if r.busy[id] {
		return ErrVehicleBusy
	}
	delete(r.vehicles, id)
	return nil
}

type warehouseGrants map[uuid.UUID]bool

func (g warehouseGrants) Authorize(ctx context.Context, p shared.Principal, warehouseID uuid.UUID) error {
	if p.IsAdmin() || g[warehouseID] {
		return nil
	}
	return shared.ErrForbidden
}

func TestCreateListDelete(t *testing.T) {
	wh := uuid.New()
	repo := &memoryRepo{vehicles: map[uuid.UUID]Vehicle{}, busy: map[uuid.UUID]bool{}}
	svc := NewService(repo, warehouseGrants{wh: true})
	staff := shared.Principal{ID: "s1", Role: shared.RoleStaff}
	ctx := context.Background()

	v, err := svc.Create(ctx, staff, CreateInput{WarehouseID: wh, Number: "b 9 x", DriverName: "Rudi"})
	require.NoError(t, err)
	require.Equal(t, StatusAvailable, v.Status)
	require.Equal(t, "B 9 X", v.Number)

	_, err = svc.Create(ctx, staff, CreateInput{WarehouseID: uuid.New(), Number: "C 1", DriverName: "Ana"})
	require.ErrorIs(t, err, shared.ErrForbidden)

	_, err = svc.Create(ctx, staff, CreateInput{WarehouseID: wh, Number: " "})
	require.ErrorIs(t, err, shared.ErrValidation)

	list, err := svc.List(ctx, staff, wh)
	require.NoError(t, err)
	require.Len(t, list, 1)

	repo.busy[v.ID] = true
	require.ErrorIs(t, svc.Delete(ctx, staff, v.ID), ErrVehicleBusy)

	repo.busy[v.ID] = false
	require.NoError(t, svc.Delete(ctx, staff, v.ID))
	require.ErrorIs(t, svc.Delete(ctx, staff, v.ID), ErrVehicleNotFound)
}
