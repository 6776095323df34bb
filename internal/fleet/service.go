package fleet

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/godown-ops/godown/internal/shared"
)

// Repository persists vehicles outside trip transitions.
type Repository interface {
	InsertVehicle(ctx context.Context, v Vehicle) error
	GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error)
	ListVehicles(ctx context.Context, warehouseID uuid.UUID) ([]Vehicle, error)
	// DeleteIdle removes the vehicle unless a non-verified trip references it.
	DeleteIdle(ctx context.Context, id uuid.UUID) error
}

// Service manages the vehicle register of each warehouse.
type Service struct {
	repo  Repository
	authz shared.WarehouseAuthorizer
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, authz shared.WarehouseAuthorizer) *Service {
	return &Service{repo: repo, authz: authz, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput describes a vehicle registration.
type CreateInput struct {
	WarehouseID uuid.UUID
	Number      string
	DriverName  string
}

// Create registers an AVAILABLE vehicle.
func (s *Service) Create(ctx context.Context, p shared.Principal, in CreateInput) (Vehicle, error) {
	in.Number = strings.TrimSpace(in.Number)
	in.DriverName = strings.TrimSpace(in.DriverName)
	if in.WarehouseID == uuid.Nil || in.Number == "" || in.DriverName == "" {
		return Vehicle{}, shared.Validationf("warehouseId, number and driverName are required")
	}
	if err := s.authz.Authorize(ctx, p, in.WarehouseID); err != nil {
		return Vehicle{}, err
	}
	v := Vehicle{
		ID:          uuid.New(),
		WarehouseID: in.WarehouseID,
		Number:      strings.ToUpper(in.Number),
		DriverName:  in.DriverName,
		Status:      StatusAvailable,
		CreatedAt:   s.now(),
	}
	if err := s.repo.InsertVehicle(ctx, v); err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

// List returns the vehicles of a warehouse.
func (s *Service) List(ctx context.Context, p shared.Principal, warehouseID uuid.UUID) ([]Vehicle, error) {
	if err := s.authz.Authorize(ctx, p, warehouseID); err != nil {
		return nil, err
	}
	return s.repo.ListVehicles(ctx, warehouseID)
}

// Get loads a single vehicle.
func (s *Service) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (Vehicle, error) {
	v, err := s.repo.GetVehicle(ctx, id)
	if err != nil {
		return Vehicle{}, err
	}
	if err := s.authz.Authorize(ctx, p, v.WarehouseID); err != nil {
		return Vehicle{}, err
	}
	return v, nil
}

// Delete removes an idle vehicle.
func (s *Service) Delete(ctx context.Context, p shared.Principal, id uuid.UUID) error {
	if _, err := s.Get(ctx, p, id); err != nil {
		return err
	}
	return s.repo.DeleteIdle(ctx, id)
}
