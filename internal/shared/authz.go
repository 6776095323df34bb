package shared

import (
	"context"

	"github.com/google/uuid"
)

// WarehouseAuthorizer decides whether a principal may operate on a warehouse.
type WarehouseAuthorizer interface {
	Authorize(ctx context.Context, p Principal, warehouseID uuid.UUID) error
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log AuditLog) error
}
