package billing

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/godown-ops/godown/internal/fleet"
	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/observability"
	"github.com/godown-ops/godown/internal/pricing"
	"github.com/godown-ops/godown/internal/shared"
	"github.com/godown-ops/godown/internal/trips"
)

// Repository persists bills.
type Repository interface {
	// InsertBill fails with ErrBillAlreadyExists when the trip is billed.
	InsertBill(ctx context.Context, b Bill) error
	BillExists(ctx context.Context, tripID uuid.UUID) (bool, error)
	GetBill(ctx context.Context, id uuid.UUID) (Bill, error)
	ListBills(ctx context.Context, warehouseID uuid.UUID) ([]Bill, error)
}

// TripReader loads trips for billing.
type TripReader interface {
	GetTrip(ctx context.Context, id uuid.UUID) (trips.Trip, error)
	VerifiedUnbilled(ctx context.Context, warehouseID uuid.UUID) ([]trips.Trip, error)
}

// Catalog resolves products.
type Catalog interface {
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]inventory.Product, error)
}

// PriceBook returns daily overrides.
type PriceBook interface {
	PricesFor(ctx context.Context, warehouseID uuid.UUID, date string, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// Vehicles lists the vehicles of a warehouse.
type Vehicles interface {
	ListVehicles(ctx context.Context, warehouseID uuid.UUID) ([]fleet.Vehicle, error)
}

// Deps groups the collaborators of Service.
type Deps struct {
	Trips    TripReader
	Catalog  Catalog
	Prices   PriceBook
	Vehicles Vehicles
	Authz    shared.WarehouseAuthorizer
	Audit    shared.AuditPort
	Metrics  *observability.Metrics
	Logger   *slog.Logger
}

// Service generates and lists bills.
type Service struct {
	repo     Repository
	trips    TripReader
	catalog  Catalog
	prices   PriceBook
	vehicles Vehicles
	authz    shared.WarehouseAuthorizer
	audit    shared.AuditPort
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
		trips:    deps.Trips,
		catalog:  deps.Catalog,
		prices:   deps.Prices,
		vehicles: deps.Vehicles,
		authz:    deps.Authz,
		audit:    deps.Audit,
		metrics:  deps.Metrics,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// GenerateInput requests a bill. Date is optional, YYYY-MM-DD or RFC 3339.
type GenerateInput struct {
	TripID uuid.UUID
	Date   string
}

// Generate prices a verified trip and stores its bill.
func (s *Service) Generate(ctx context.Context, p shared.Principal, in GenerateInput) (Bill, error) {
	if !p.Valid() {
		return Bill{}, shared.ErrUnauthenticated
	}
	generatedAt, err := s.billingTime(in.Date)
	if err != nil {
		return Bill{}, err
	}
	trip, err := s.trips.GetTrip(ctx, in.TripID)
	if err != nil {
		return Bill{}, err
	}
	if err := s.authz.Authorize(ctx, p, trip.WarehouseID); err != nil {
		return Bill{}, err
	}
	exists, err := s.repo.BillExists(ctx, trip.ID)
	if err != nil {
		return Bill{}, err
	}
	if exists {
		return Bill{}, ErrBillAlreadyExists.Withf("bill already exists for trip %s", trip.ID)
	}
	if trip.Status != trips.StatusVerified {
		return Bill{}, ErrTripNotVerified.Withf("trip %s must be verified before billing", trip.ID)
	}

	ids := make([]uuid.UUID, 0, len(trip.LoadedItems))
	for _, it := range trip.LoadedItems {
		ids = append(ids, it.ProductID)
	}
	date := pricing.DateKey(generatedAt)
	products, err := s.catalog.ProductsByIDs(ctx, ids)
	if err != nil {
		return Bill{}, err
	}
	overrides, err := s.prices.PricesFor(ctx, trip.WarehouseID, date, ids)
	if err != nil {
		return Bill{}, err
	}
	totals := Calculate(trip.LoadedItems, products, overrides)
	for _, id := range totals.Missing {
		s.logger.Warn("billing skipped missing product", slog.String("trip_id", trip.ID.String()), slog.String("product_id", id.String()))
	}

	bill := Bill{
		ID:          uuid.New(),
		TripID:      trip.ID,
		WarehouseID: trip.WarehouseID,
		VehicleID:   trip.VehicleID,
		TotalAmount: totals.Amount,
		TotalProfit: totals.Profit,
		BillingDate: date,
		GeneratedBy: p.ID,
		GeneratedAt: generatedAt,
		Lines:       totals.Lines,
	}
	if err := s.repo.InsertBill(ctx, bill); err != nil {
		return Bill{}, err
	}

	s.metrics.BillGenerated()
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  p.ID,
			Action:   "billing:generate",
			Entity:   "bill",
			EntityID: bill.ID.String(),
			Meta:     map[string]any{"trip_id": trip.ID.String(), "amount": bill.TotalAmount.String(), "date": date},
		})
		if err != nil {
			s.logger.Warn("audit bill", slog.String("bill_id", bill.ID.String()), slog.Any("error", err))
		}
	}
	return bill, nil
}

// billingTime resolves the billing instant. An RFC 3339 value with an offset is
// normalised to UTC, so its billing date (and the daily price it is charged at)
// is the UTC calendar day, not the local day written in the offset.
func (s *Service) billingTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return s.now(), nil
	}
	if t, err := time.Parse(pricing.DateLayout, raw); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, shared.Validationf("date must be YYYY-MM-DD or RFC 3339")
	}
	return t.UTC(), nil
}

// Get returns a bill with its line breakdown.
func (s *Service) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (Bill, error) {
	bill, err := s.repo.GetBill(ctx, id)
	if err != nil {
		return Bill{}, err
	}
	if err := s.authz.Authorize(ctx, p, bill.WarehouseID); err != nil {
		return Bill{}, err
	}
	return bill, nil
}

// List returns the bills of a warehouse, newest first, with the verified
// trips that still lack a bill.
func (s *Service) List(ctx context.Context, p shared.Principal, warehouseID uuid.UUID) (Overview, error) {
	if err := s.authz.Authorize(ctx, p, warehouseID); err != nil {
		return Overview{}, err
	}
	var (
		bills    []Bill
		pending  []trips.Trip
		vehicles []fleet.Vehicle
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		bills, err = s.repo.ListBills(gctx, warehouseID)
		return err
	})
	g.Go(func() error {
		var err error
		pending, err = s.trips.VerifiedUnbilled(gctx, warehouseID)
		return err
	})
	g.Go(func() error {
		var err error
		vehicles, err = s.vehicles.ListVehicles(gctx, warehouseID)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, err
	}

	byID := make(map[uuid.UUID]fleet.Vehicle, len(vehicles))
	for _, v := range vehicles {
		byID[v.ID] = v
	}
	out := Overview{Bills: make([]Summary, 0, len(bills)), PendingTrips: make([]PendingTrip, 0, len(pending))}
	for _, b := range bills {
		sum := Summary{Bill: b}
		if v, ok := byID[b.VehicleID]; ok {
			sum.Vehicle = &v
		}
		out.Bills = append(out.Bills, sum)
	}
	for _, t := range pending {
		pt := PendingTrip{Trip: t}
		if v, ok := byID[t.VehicleID]; ok {
			pt.Vehicle = &v
		}
		out.PendingTrips = append(out.PendingTrips, pt)
	}
	return out, nil
}
