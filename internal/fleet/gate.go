package fleet

import (
	"context"

	"github.com/google/uuid"
)

// GateStore is the transactional view of vehicles used by trip transitions.
// Implementations must run inside the caller's transaction.
type GateStore interface {
	// GetVehicleForUpdate reads the vehicle and locks it until the transaction ends.
	GetVehicleForUpdate(ctx context.Context, id uuid.UUID) (Vehicle, error)
	// SetVehicleStatus moves the vehicle from one status to another and
	// reports false when its current status is not from.
	SetVehicleStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error)
}

// Reserve claims an AVAILABLE vehicle of warehouseID for a new trip.
func Reserve(ctx context.Context, store GateStore, vehicleID, warehouseID uuid.UUID) (Vehicle, error) {
	v, err := store.GetVehicleForUpdate(ctx, vehicleID)
	if err != nil {
		return Vehicle{}, err
	}
	if v.WarehouseID != warehouseID {
		return Vehicle{}, ErrVehicleWrongWarehouse.Withf("vehicle %s belongs to a different warehouse", v.Number)
	}
	if v.Status != StatusAvailable {
		return Vehicle{}, ErrVehicleUnavailable.Withf("vehicle %s is not available (status %s)", v.Number, v.Status)
	}
	ok, err := store.SetVehicleStatus(ctx, vehicleID, StatusAvailable, StatusInTransit)
	if err != nil {
		return Vehicle{}, err
	}
	if !ok {
		return Vehicle{}, ErrVehicleUnavailable.Withf("vehicle %s was reserved concurrently", v.Number)
	}
	v.Status = StatusInTransit
	return v, nil
}

// Release returns the vehicle of a verified trip to AVAILABLE. It is only
// called from trip verification.
func Release(ctx context.Context, store GateStore, vehicleID uuid.UUID) error {
	v, err := store.GetVehicleForUpdate(ctx, vehicleID)
	if err != nil {
		return err
	}
	if v.Status == StatusAvailable {
		return nil
	}
	_, err = store.SetVehicleStatus(ctx, vehicleID, v.Status, StatusAvailable)
	return err
}
