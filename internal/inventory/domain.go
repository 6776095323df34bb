package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/godown-ops/godown/internal/shared"
)

// Product is a stocked item of one warehouse. Quantity is the authoritative
// on-hand count and never goes negative.
type Product struct {
	ID          uuid.UUID           `json:"id"`
	WarehouseID uuid.UUID           `json:"warehouseId"`
	Name        string              `json:"name"`
	SKU         string              `json:"sku"`
	Quantity    int64               `json:"quantity"`
	Price       decimal.Decimal     `json:"price"`
	InvoiceCost decimal.NullDecimal `json:"invoiceCost"`
	SalePrice   decimal.NullDecimal `json:"salePrice"`
	Pack        string              `json:"pack"`
	Flavour     string              `json:"flavour"`
	Location    string              `json:"location"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// Label names the product in error messages.
func (p Product) Label() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID.String()
}

var (
	// ErrProductNotFound reports a missing product.
	ErrProductNotFound = shared.NewError(shared.ErrNotFound, "ProductNotFound", "product not found")
	// ErrWrongWarehouse reports a product owned by another warehouse.
	ErrWrongWarehouse = shared.NewError(shared.ErrPrecondition, "WrongWarehouse", "product belongs to a different warehouse")
	// ErrInsufficientStock reports a reservation larger than on-hand stock.
	ErrInsufficientStock = shared.NewError(shared.ErrPrecondition, "InsufficientStock", "insufficient stock")
	// ErrInvalidQuantity reports a non-positive movement quantity.
	ErrInvalidQuantity = shared.NewError(shared.ErrValidation, "InvalidQuantity", "quantity must be greater than zero")
	// ErrProductInUse reports a delete attempted while an open trip carries the product.
	ErrProductInUse = shared.NewError(shared.ErrPrecondition, "ProductInUse", "product is loaded on an active trip")
	// ErrDuplicateSKU reports an SKU already used in the warehouse.
	ErrDuplicateSKU = shared.NewError(shared.ErrConflict, "DuplicateSKU", "sku already exists in this warehouse")
)
