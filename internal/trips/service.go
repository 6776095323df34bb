package trips

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/godown-ops/godown/internal/fleet"
	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/observability"
	"github.com/godown-ops/godown/internal/shared"
)

// Tx is the unit of work a trip transition runs in. Every write made through
// it commits or rolls back together.
type Tx interface {
	fleet.GateStore
	inventory.LedgerStore
	// ClaimIdempotencyKey fails with shared.ErrIdempotencyConflict when the
	// key was already used.
	ClaimIdempotencyKey(ctx context.Context, key string) error
	InsertTrip(ctx context.Context, t Trip) error
	GetTripForUpdate(ctx context.Context, id uuid.UUID) (Trip, error)
	UpdateTrip(ctx context.Context, t Trip) error
}

// Repository persists trips.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	GetTrip(ctx context.Context, id uuid.UUID) (Trip, error)
	ListTrips(ctx context.Context, warehouseID uuid.UUID) ([]Trip, error)
}

// Catalog resolves products for display.
type Catalog interface {
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error)
}

// Vehicles resolves vehicles for display.
type Vehicles interface {
	GetVehicle(ctx context.Context, id uuid.UUID) (fleet.Vehicle, error)
	ListVehicles(ctx context.Context, warehouseID uuid.UUID) ([]fleet.Vehicle, error)
}

// Deps groups the collaborators of Service.
type Deps struct {
	Authz    shared.WarehouseAuthorizer
	Audit    shared.AuditPort
	Catalog  Catalog
	Vehicles Vehicles
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Service runs the trip state machine.
type Service struct {
	repo     Repository
	authz    shared.WarehouseAuthorizer
	audit    shared.AuditPort
	catalog  Catalog
	vehicles Vehicles
	metrics  *observability.Metrics
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs Service.
func NewService(repo Repository, deps Deps) *Service {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		authz:    deps.Authz,
		audit:    deps.Audit,
		catalog:  deps.Catalog,
		vehicles: deps.Vehicles,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// CreateInput describes a vehicle load.
type CreateInput struct {
	VehicleID      uuid.UUID
	WarehouseID    uuid.UUID
	Items          []LoadItem
	IdempotencyKey string
}

// Create loads a vehicle. The vehicle is reserved, stock is decremented per
// item in input order and the trip is stored in one transaction; on any
// failure nothing is applied.
func (s *Service) Create(ctx context.Context, p shared.Principal, in CreateInput) (Trip, error) {
	if in.VehicleID == uuid.Nil {
		return Trip{}, shared.Validationf("vehicleId is required")
	}
	if in.WarehouseID == uuid.Nil {
		return Trip{}, shared.Validationf("warehouseId is required")
	}
	if err := checkLoad(in.Items); err != nil {
		return Trip{}, err
	}
	if err := s.authz.Authorize(ctx, p, in.WarehouseID); err != nil {
		return Trip{}, err
	}

	now := s.now()
	trip := Trip{
		ID:          uuid.New(),
		WarehouseID: in.WarehouseID,
		VehicleID:   in.VehicleID,
		Status:      StatusLoaded,
		LoadedItems: newManifest(in.Items),
		StartTime:   now,
		CreatedBy:   p.ID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		if in.IdempotencyKey != "" {
			if err := tx.ClaimIdempotencyKey(ctx, in.IdempotencyKey); err != nil {
				return err
			}
		}
		if _, err := fleet.Reserve(ctx, tx, in.VehicleID, in.WarehouseID); err != nil {
			return err
		}
		if _, err := inventory.ReserveAll(ctx, tx, in.WarehouseID, reservations(in.Items)); err != nil {
			return err
		}
		return tx.InsertTrip(ctx, trip)
	})
	if err != nil {
		s.rejected("trip_create", err)
		return Trip{}, err
	}

	s.metrics.TripCreated()
	s.record(ctx, p, "trips:create", trip, map[string]any{
		"vehicle_id":   trip.VehicleID.String(),
		"warehouse_id": trip.WarehouseID.String(),
		"items":        len(trip.LoadedItems),
	})
	s.logger.Info("trip loaded", slog.String("trip_id", trip.ID.String()), slog.String("vehicle_id", trip.VehicleID.String()))
	return trip, nil
}

// VerifyInput closes a trip with the quantities brought back.
type VerifyInput struct {
	TripID     uuid.UUID
	Returned   []ReturnItem
	VerifiedAt *time.Time
}

// Verify moves a LOADED trip to VERIFIED. Returned units go back to stock,
// the manifest is updated and the vehicle released in one transaction.
func (s *Service) Verify(ctx context.Context, p shared.Principal, in VerifyInput) (Trip, error) {
	if !p.Valid() {
		return Trip{}, shared.ErrUnauthenticated
	}
	var out Trip
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx Tx) error {
		trip, err := tx.GetTripForUpdate(ctx, in.TripID)
		if err != nil {
			return err
		}
		if err := s.authz.Authorize(ctx, p, trip.WarehouseID); err != nil {
			return err
		}
		if trip.Status == StatusVerified {
			return ErrAlreadyVerified.Withf("trip %s already verified", trip.ID)
		}
		merged, err := mergeReturns(trip.LoadedItems, in.Returned)
		if err != nil {
			return err
		}
		restock := make([]inventory.Reservation, 0, len(merged))
		for _, it := range merged {
			if it.QtyReturned > 0 {
				restock = append(restock, inventory.Reservation{ProductID: it.ProductID, Qty: it.QtyReturned})
			}
		}
		if err := inventory.RestoreAll(ctx, tx, restock); err != nil {
			return err
		}
		now := s.now()
		end := now
		if in.VerifiedAt != nil && !in.VerifiedAt.IsZero() {
			end = in.VerifiedAt.UTC()
		}
		trip.LoadedItems = merged
		trip.Status = StatusVerified
		trip.EndTime = &end
		trip.VerifiedBy = p.ID
		trip.UpdatedAt = now
		if err := tx.UpdateTrip(ctx, trip); err != nil {
			return err
		}
		if err := fleet.Release(ctx, tx, trip.VehicleID); err != nil {
			return err
		}
		out = trip
		return nil
	})
	if err != nil {
		s.rejected("trip_verify", err)
		return Trip{}, err
	}

	s.metrics.TripVerified(out.TotalSold())
	s.record(ctx, p, "trips:verify", out, map[string]any{"sold": out.TotalSold()})
	return out, nil
}

// Get returns a trip with enriched line items and its vehicle.
func (s *Service) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (View, error) {
	trip, err := s.repo.GetTrip(ctx, id)
	if err != nil {
		return View{}, err
	}
	if err := s.authz.Authorize(ctx, p, trip.WarehouseID); err != nil {
		return View{}, err
	}
	products, err := s.catalog.ProductsByIDs(ctx, productIDs([]Trip{trip}))
	if err != nil {
		return View{}, err
	}
	view := enrich(trip, products, true)
	v, err := s.vehicles.GetVehicle(ctx, trip.VehicleID)
	switch {
	case err == nil:
		view.Vehicle = &v
	case !errors.Is(err, fleet.ErrVehicleNotFound):
		return View{}, err
	}
	return view, nil
}

// List returns the trips of a warehouse, newest first.
func (s *Service) List(ctx context.Context, p shared.Principal, warehouseID uuid.UUID) ([]View, error) {
	if err := s.authz.Authorize(ctx, p, warehouseID); err != nil {
		return nil, err
	}
	list, err := s.repo.ListTrips(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	products, err := s.catalog.ProductsByIDs(ctx, productIDs(list))
	if err != nil {
		return nil, err
	}
	vehicles, err := s.vehicles.ListVehicles(ctx, warehouseID)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]fleet.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}
	out := make([]View, 0, len(list))
	for _, t := range list {
		view := enrich(t, products, false)
		if v, ok := byID[t.VehicleID]; ok {
			view.Vehicle = &v
		}
		out = append(out, view)
	}
	return out, nil
}

func productIDs(list []Trip) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	ids := make([]uuid.UUID, 0)
	for _, t := range list {
		for _, it := range t.LoadedItems {
			if _, ok := seen[it.ProductID]; ok {
				continue
			}
			seen[it.ProductID] = struct{}{}
			ids = append(ids, it.ProductID)
		}
	}
	return ids
}

func enrich(t Trip, products map[uuid.UUID]inventory.Product, detail bool) View {
	items := make([]ItemView, len(t.LoadedItems))
	for i, it := range t.LoadedItems {
		item := ItemView{LineItem: it, ProductName: UnknownProductName}
		if p, ok := products[it.ProductID]; ok {
			item.ProductName = p.Name
			item.SKU = p.SKU
			if detail {
				item.Pack = p.Pack
				item.Flavour = p.Flavour
			}
		}
		items[i] = item
	}
	return View{Trip: t, LoadedItems: items}
}

func (s *Service) rejected(operation string, err error) {
	code := shared.ErrorCode(err)
	if code == "" {
		return
	}
	s.metrics.Rejected(operation, code)
	s.logger.Info("trip transition rejected", slog.String("operation", operation), slog.String("code", code), slog.String("reason", err.Error()))
}

func (s *Service) record(ctx context.Context, p shared.Principal, action string, t Trip, meta map[string]any) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.ID,
		Action:   action,
		Entity:   "trip",
		EntityID: t.ID.String(),
		Meta:     meta,
	})
	if err != nil {
		s.logger.Warn("audit trip transition", slog.String("trip_id", t.ID.String()), slog.Any("error", err))
	}
}
