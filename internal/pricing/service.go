package pricing

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/shared"
)

// Repository persists daily overrides.
type Repository interface {
	Upsert(ctx context.Context, p DailyPrice) (DailyPrice, error)
	ListForDate(ctx context.Context, warehouseID uuid.UUID, date string) ([]DailyPrice, error)
	PricesFor(ctx context.Context, warehouseID uuid.UUID, date string, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error)
}

// ProductReader loads catalogue products.
type ProductReader interface {
	GetProduct(ctx context.Context, id uuid.UUID) (inventory.Product, error)
}

// Service manages daily price overrides.
type Service struct {
	repo     Repository
	products ProductReader
	authz    shared.WarehouseAuthorizer
	audit    shared.AuditPort
	logger   *slog.Logger
	now      func() time.Time
}

// NewService constructs Service.
func NewService(repo Repository, products ProductReader, authz shared.WarehouseAuthorizer, audit shared.AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, products: products, authz: authz, audit: audit, logger: logger, now: time.Now}
}

// SetInput describes an override write.
type SetInput struct {
	ProductID   uuid.UUID
	WarehouseID uuid.UUID
	Date        string
	Price       decimal.Decimal
}

// Set upserts the override for (product, warehouse, date). Admin only.
func (s *Service) Set(ctx context.Context, p shared.Principal, in SetInput) (DailyPrice, error) {
	if err := p.RequireAdmin(); err != nil {
		return DailyPrice{}, err
	}
	if in.Price.IsNegative() {
		return DailyPrice{}, shared.Validationf("price must not be negative")
	}
	date, err := ParseDate(in.Date)
	if err != nil {
		return DailyPrice{}, err
	}
	prod, err := s.products.GetProduct(ctx, in.ProductID)
	if err != nil {
		return DailyPrice{}, err
	}
	if prod.WarehouseID != in.WarehouseID {
		return DailyPrice{}, inventory.ErrWrongWarehouse.Withf("product %s belongs to a different warehouse", prod.Label())
	}
	saved, err := s.repo.Upsert(ctx, DailyPrice{
		ProductID:   in.ProductID,
		WarehouseID: in.WarehouseID,
		Date:        date,
		Price:       in.Price,
		UpdatedBy:   p.ID,
		UpdatedAt:   s.now().UTC(),
	})
	if err != nil {
		return DailyPrice{}, err
	}
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  p.ID,
			Action:   "pricing:set",
			Entity:   "product",
			EntityID: in.ProductID.String(),
			Meta:     map[string]any{"date": date, "price": in.Price.String(), "warehouse_id": in.WarehouseID.String()},
		})
		if err != nil {
			s.logger.Warn("audit daily price", slog.String("product_id", in.ProductID.String()), slog.String("date", date), slog.Any("error", err))
		}
	}
	return saved, nil
}

// List returns the overrides of a warehouse for date, today when empty.
func (s *Service) List(ctx context.Context, p shared.Principal, warehouseID uuid.UUID, date string) ([]DailyPrice, error) {
	if err := s.authz.Authorize(ctx, p, warehouseID); err != nil {
		return nil, err
	}
	if date == "" {
		date = DateKey(s.now())
	} else {
		var err error
		if date, err = ParseDate(date); err != nil {
			return nil, err
		}
	}
	return s.repo.ListForDate(ctx, warehouseID, date)
}

// PricesFor returns the overrides in effect for the given products on date.
// Products without an override are absent.
func (s *Service) PricesFor(ctx context.Context, warehouseID uuid.UUID, date string, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	if len(productIDs) == 0 {
		return map[uuid.UUID]decimal.Decimal{}, nil
	}
	return s.repo.PricesFor(ctx, warehouseID, date, productIDs)
}
