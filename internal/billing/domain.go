package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/godown-ops/godown/internal/fleet"
	"github.com/godown-ops/godown/internal/shared"
	"github.com/godown-ops/godown/internal/trips"
)

// Bill is the immutable invoice of one verified trip.
type Bill struct {
	ID          uuid.UUID       `json:"id"`
	TripID      uuid.UUID       `json:"tripId"`
	WarehouseID uuid.UUID       `json:"warehouseId"`
	VehicleID   uuid.UUID       `json:"vehicleId"`
	TotalAmount decimal.Decimal `json:"totalAmount"`
	TotalProfit decimal.Decimal `json:"totalProfit"`
	BillingDate string          `json:"billingDate"`
	GeneratedBy string          `json:"generatedBy"`
	GeneratedAt time.Time       `json:"generatedAt"`
	Lines       []Line          `json:"lines,omitempty"`
}

// Line is the priced breakdown of one sold product, captured at generation.
type Line struct {
	ProductID   uuid.UUID       `json:"productId"`
	ProductName string          `json:"productName"`
	SKU         string          `json:"sku"`
	Sold        int64           `json:"sold"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	Amount      decimal.Decimal `json:"amount"`
	Profit      decimal.Decimal `json:"profit"`
}

// Summary is a bill row of the warehouse listing.
type Summary struct {
	Bill
	Vehicle *fleet.Vehicle `json:"vehicle,omitempty"`
}

// PendingTrip is a verified trip still waiting for its bill.
type PendingTrip struct {
	trips.Trip
	Vehicle *fleet.Vehicle `json:"vehicle,omitempty"`
}

// Overview lists the bills of a warehouse and the trips not billed yet.
type Overview struct {
	Bills        []Summary     `json:"bills"`
	PendingTrips []PendingTrip `json:"pendingTrips"`
}

var (
	// ErrBillNotFound reports a missing bill.
	ErrBillNotFound = shared.NewError(shared.ErrNotFound, "BillNotFound", "bill not found")
	// ErrBillAlreadyExists reports a second bill for the same trip.
	ErrBillAlreadyExists = shared.NewError(shared.ErrPrecondition, "BillAlreadyExists", "bill already exists for this trip")
	// ErrTripNotVerified reports billing of a trip that is still LOADED.
	ErrTripNotVerified = shared.NewError(shared.ErrPrecondition, "TripNotVerified", "trip must be verified before billing")
)
