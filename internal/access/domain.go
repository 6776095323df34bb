package access

import (
	"time"

	"github.com/google/uuid"

	"github.com/godown-ops/godown/internal/shared"
)

// Status is the lifecycle state of a warehouse grant.
type Status string

const (
	// StatusPending marks a request awaiting an admin decision.
	StatusPending Status = "PENDING"
	// StatusApproved marks an approved grant; it lapses after the grant TTL.
	StatusApproved Status = "APPROVED"
	// StatusRejected marks a refused request.
	StatusRejected Status = "REJECTED"
)

// DefaultGrantTTL is the lifetime of an approval, measured from UpdatedAt.
const DefaultGrantTTL = 365 * 24 * time.Hour

// Grant is a user's access record for one warehouse.
type Grant struct {
	ID            uuid.UUID   `json:"id"`
	UserID        string      `json:"userId"`
	UserEmail     string      `json:"userEmail,omitempty"`
	UserName      string      `json:"userName,omitempty"`
	WarehouseID   uuid.UUID   `json:"warehouseId"`
	WarehouseName string      `json:"warehouseName,omitempty"`
	Role          shared.Role `json:"role"`
	Status        Status      `json:"status"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
	ExpiresAt     *time.Time  `json:"expiresAt,omitempty"`
}

// ActiveAt reports whether the grant is approved and inside its window at now.
func (g Grant) ActiveAt(now time.Time, ttl time.Duration) bool {
	return g.Status == StatusApproved && !now.After(g.UpdatedAt.Add(ttl))
}

func (g Grant) withExpiry(ttl time.Duration) Grant {
	if g.Status == StatusApproved {
		at := g.UpdatedAt.Add(ttl)
		g.ExpiresAt = &at
	}
	return g
}

// Warehouse is a tenant boundary: stock, vehicles, trips and bills belong to one.
type Warehouse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

var (
	// ErrRequestExists reports a pending or still-active grant for the pair.
	ErrRequestExists = shared.NewError(shared.ErrConflict, "AccessRequestExists", "access request already exists")
	// ErrRequestNotFound reports a missing grant.
	ErrRequestNotFound = shared.NewError(shared.ErrNotFound, "AccessRequestNotFound", "access request not found")
	// ErrWarehouseNotFound reports a missing warehouse.
	ErrWarehouseNotFound = shared.NewError(shared.ErrNotFound, "WarehouseNotFound", "warehouse not found")
	// ErrAccessDenied reports a staff member without an approved grant.
	ErrAccessDenied = shared.NewError(shared.ErrForbidden, "WarehouseAccessDenied", "no approved access to this warehouse")
	// ErrAccessExpired reports an approval older than the grant window.
	ErrAccessExpired = shared.NewError(shared.ErrForbidden, "WarehouseAccessExpired", "warehouse access expired, request renewal")
	// ErrInvalidDecision reports a decision other than APPROVED or REJECTED.
	ErrInvalidDecision = shared.NewError(shared.ErrValidation, "InvalidDecision", "decision must be APPROVED or REJECTED")
)
