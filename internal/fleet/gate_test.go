package fleet

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/godown-ops/godown/internal/shared"
)

type memoryGate struct {
	vehicles map[uuid.UUID]Vehicle
	// steal flips the vehicle to IN_TRANSIT between read and write, as a
	// competing transaction would without the row lock.
	steal bool
}

func (g *memoryGate) GetVehicleForUpdate(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	v, ok := g.vehicles[id]
	if !ok {
		return Vehicle{}, ErrVehicleNotFound
	}
	return v, nil
}

func (g *memoryGate) SetVehicleStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	v := g.vehicles[id]
	if g.steal {
		v.Status = StatusInTransit
	}
	if v.Status != from {
		return false, nil
	}
	v.Status = to
	g.vehicles[id] = v
	return true, nil
}

func TestReserve(t *testing.T) {
	wh := uuid.New()
	vehicle := Vehicle{ID: uuid.New(), WarehouseID: wh, Number: "B 1234 XY", Status: StatusAvailable}

	cases := []struct {
		name    string
		mutate  func(g *memoryGate)
		id      uuid.UUID
		wh      uuid.UUID
		wantErr error
	}{
		{name: "ok", id: vehicle.ID, wh: wh},
		{name: "not found", id: uuid.New(), wh: wh, wantErr: ErrVehicleNotFound},
		{name: "wrong warehouse", id: vehicle.ID, wh: uuid.New(), wantErr: ErrVehicleWrongWarehouse},
		{name: "in transit", id: vehicle.ID, wh: wh, wantErr: ErrVehicleUnavailable, mutate: func(g *memoryGate) {
			v := g.vehicles[vehicle.ID]
			v.Status = StatusInTransit
			g.vehicles[vehicle.ID] = v
		}},
		{name: "lost race", id: vehicle.ID, wh: wh, wantErr: ErrVehicleUnavailable, mutate: func(g *memoryGate) { g.steal = true }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gate := &memoryGate{vehicles: map[uuid.UUID]Vehicle{vehicle.ID: vehicle}}
			if tc.mutate != nil {
				tc.mutate(gate)
			}
			got, err := Reserve(context.Background(), gate, tc.id, tc.wh)
			if tc.wantErr != nil {
				require.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, StatusInTransit, got.Status)
			require.Equal(t, StatusInTransit, gate.vehicles[vehicle.ID].Status)
		})
	}
}

func TestReserveErrorClasses(t *testing.T) {
	wh := uuid.New()
	v := Vehicle{ID: uuid.New(), WarehouseID: wh, Number: "L 77", Status: StatusInTransit}
	gate := &memoryGate{vehicles: map[uuid.UUID]Vehicle{v.ID: v}}

	_, err := Reserve(context.Background(), gate, v.ID, wh)
	require.ErrorIs(t, err, shared.ErrPrecondition)
	require.Contains(t, err.Error(), "L 77")

	_, err = Reserve(context.Background(), gate, uuid.New(), wh)
	require.ErrorIs(t, err, shared.ErrNotFound)
	require.False(t, errors.Is(err, shared.ErrPrecondition))
}

func TestRelease(t *testing.T) {
	v := Vehicle{ID: uuid.New(), WarehouseID: uuid.New(), Status: StatusInTransit}
	gate := &memoryGate{vehicles: map[uuid.UUID]Vehicle{v.ID: v}}

	require.NoError(t, Release(context.Background(), gate, v.ID))
	require.Equal(t, StatusAvailable, gate.vehicles[v.ID].Status)

	require.NoError(t, Release(context.Background(), gate, v.ID))
	require.ErrorIs(t, Release(context.Background(), gate, uuid.New()), ErrVehicleNotFound)
}
