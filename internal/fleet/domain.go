package fleet

import (
	"time"

	"github.com/google/uuid"

	"github.com/godown-ops/godown/internal/shared"
)

// Status enumerates vehicle availability.
type Status string

const (
	// StatusAvailable marks a vehicle that may be loaded.
	StatusAvailable Status = "AVAILABLE"
	// StatusInTransit marks a vehicle bound to an unverified trip.
	StatusInTransit Status = "IN_TRANSIT"
)

// Vehicle is a delivery vehicle owned by one warehouse.
type Vehicle struct {
	ID          uuid.UUID `json:"id"`
	WarehouseID uuid.UUID `json:"warehouseId"`
	Number      string    `json:"number"`
	DriverName  string    `json:"driverName"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
}

var (
	// ErrVehicleNotFound reports a missing vehicle.
	ErrVehicleNotFound = shared.NewError(shared.ErrNotFound, "VehicleNotFound", "vehicle not found")
	// ErrVehicleUnavailable reports a vehicle that is not AVAILABLE.
	ErrVehicleUnavailable = shared.NewError(shared.ErrPrecondition, "VehicleUnavailable", "vehicle is not available")
	// ErrVehicleWrongWarehouse reports a vehicle owned by another warehouse.
	ErrVehicleWrongWarehouse = shared.NewError(shared.ErrPrecondition, "VehicleWrongWarehouse", "vehicle belongs to a different warehouse")
	// ErrVehicleBusy reports a delete attempted while a trip is still open.
	ErrVehicleBusy = shared.NewError(shared.ErrPrecondition, "VehicleBusy", "vehicle has an active trip")
)
