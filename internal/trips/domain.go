package trips

import (
	"time"

	"github.com/google/uuid"

	"github.com/godown-ops/godown/internal/fleet"
	"github.com/godown-ops/godown/internal/shared"
)

// Status is the trip lifecycle state. LOADED is initial, VERIFIED terminal.
type Status string

const (
	StatusLoaded   Status = "LOADED"
	StatusVerified Status = "VERIFIED"
)

// LineItem is one product carried by a trip.
type LineItem struct {
	ProductID   uuid.UUID `json:"productId"`
	QtyLoaded   int64     `json:"qtyLoaded"`
	QtyReturned int64     `json:"qtyReturned"`
}

// Sold is the quantity that left inventory for good.
func (l LineItem) Sold() int64 {
	return l.QtyLoaded - l.QtyReturned
}

// Trip is a vehicle run loaded from one warehouse.
type Trip struct {
	ID          uuid.UUID  `json:"id"`
	WarehouseID uuid.UUID  `json:"warehouseId"`
	VehicleID   uuid.UUID  `json:"vehicleId"`
	Status      Status     `json:"status"`
	LoadedItems []LineItem `json:"loadedItems"`
	StartTime   time.Time  `json:"startTime"`
	EndTime     *time.Time `json:"endTime,omitempty"`
	VerifiedBy  string     `json:"verifiedBy,omitempty"`
	CreatedBy   string     `json:"createdBy"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// TotalSold sums sold units across the manifest.
func (t Trip) TotalSold() int64 {
	var n int64
	for _, it := range t.LoadedItems {
		n += it.Sold()
	}
	return n
}

// ItemView is a line item enriched with catalogue fields for display.
type ItemView struct {
	LineItem
	ProductName string `json:"productName"`
	SKU         string `json:"sku"`
	Pack        string `json:"pack,omitempty"`
	Flavour     string `json:"flavour,omitempty"`
}

// View is a trip with enriched line items and its vehicle.
type View struct {
	Trip
	LoadedItems []ItemView     `json:"loadedItems"`
	Vehicle     *fleet.Vehicle `json:"vehicle,omitempty"`
}

// UnknownProductName labels line items whose product no longer exists.
const UnknownProductName = "Unknown"

var (
	// ErrTripNotFound reports a missing trip.
	ErrTripNotFound = shared.NewError(shared.ErrNotFound, "TripNotFound", "trip not found")
	// ErrAlreadyVerified reports a second verification attempt.
	ErrAlreadyVerified = shared.NewError(shared.ErrPrecondition, "AlreadyVerified", "trip already verified")
	// ErrReturnExceedsLoad reports a return larger than the loaded quantity.
	ErrReturnExceedsLoad = shared.NewError(shared.ErrValidation, "ReturnExceedsLoad", "returned quantity exceeds loaded quantity")
	// ErrUnknownManifestItem reports a return for a product the trip never carried.
	ErrUnknownManifestItem = shared.NewError(shared.ErrValidation, "UnknownManifestItem", "returned product is not on the trip manifest")
	// ErrDuplicateItem reports the same product listed twice in one request.
	ErrDuplicateItem = shared.NewError(shared.ErrValidation, "DuplicateItem", "product listed more than once")
	// ErrEmptyManifest reports a trip without items.
	ErrEmptyManifest = shared.NewError(shared.ErrValidation, "EmptyManifest", "items must not be empty")
)
