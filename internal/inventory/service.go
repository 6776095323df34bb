package inventory

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/godown-ops/godown/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	InsertProduct(ctx context.Context, p Product) error
	GetProduct(ctx context.Context, id uuid.UUID) (Product, error)
	ListProducts(ctx context.Context, warehouseID uuid.UUID) ([]Product, error)
	ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error)
	UpdateProduct(ctx context.Context, p Product) error
	// Restock increments quantity atomically and returns the new count.
	Restock(ctx context.Context, id uuid.UUID, qty int64) (int64, error)
	// DeleteUnused removes the product unless an open trip carries it.
	DeleteUnused(ctx context.Context, id uuid.UUID) error
}

// Service coordinates product catalogue and restock operations. Trip-driven
// stock movements go through the ledger functions instead.
type Service struct {
	repo  RepositoryPort
	authz shared.WarehouseAuthorizer
	audit  shared.AuditPort
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, authz shared.WarehouseAuthorizer, audit shared.AuditPort, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, authz: authz, audit: audit, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// CreateInput describes a new product.
type CreateInput struct {
	WarehouseID uuid.UUID
	Name        string
	SKU         string
	Quantity    int64
	Price       decimal.Decimal
	InvoiceCost decimal.NullDecimal
	SalePrice   decimal.NullDecimal
	Pack        string
	Flavour     string
	Location    string
}

// Create adds a product with its opening stock.
func (s *Service) Create(ctx context.Context, p shared.Principal, in CreateInput) (Product, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.WarehouseID == uuid.Nil {
		return Product{}, shared.Validationf("warehouseId is required")
	}
	if in.Name == "" {
		return Product{}, shared.Validationf("name is required")
	}
	if in.Quantity < 0 {
		return Product{}, shared.Validationf("quantity must not be negative")
	}
	if err := checkMoney(in.Price, in.InvoiceCost, in.SalePrice); err != nil {
		return Product{}, err
	}
	if err := s.authz.Authorize(ctx, p, in.WarehouseID); err != nil {
		return Product{}, err
	}
	sku := strings.ToUpper(strings.TrimSpace(in.SKU))
	if sku == "" {
		sku = GenerateSKU(in.Name, in.Flavour, in.Pack)
	}
	now := s.now()
	prod := Product{
		ID:          uuid.New(),
		WarehouseID: in.WarehouseID,
		Name:        in.Name,
		SKU:         sku,
		Quantity:    in.Quantity,
		Price:       in.Price,
		InvoiceCost: in.InvoiceCost,
		SalePrice:   in.SalePrice,
		Pack:        strings.TrimSpace(in.Pack),
		Flavour:     strings.TrimSpace(in.Flavour),
		Location:    strings.TrimSpace(in.Location),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertProduct(ctx, prod); err != nil {
		return Product{}, err
	}
	return prod, nil
}

// List returns the products of a warehouse.
func (s *Service) List(ctx context.Context, p shared.Principal, warehouseID uuid.UUID) ([]Product, error) {
	if err := s.authz.Authorize(ctx, p, warehouseID); err != nil {
		return nil, err
	}
	return s.repo.ListProducts(ctx, warehouseID)
}

// Get loads a product visible to p.
func (s *Service) Get(ctx context.Context, p shared.Principal, id uuid.UUID) (Product, error) {
	prod, err := s.repo.GetProduct(ctx, id)
	if err != nil {
		return Product{}, err
	}
	if err := s.authz.Authorize(ctx, p, prod.WarehouseID); err != nil {
		return Product{}, err
	}
	return prod, nil
}

// UpdateInput patches catalogue fields. Nil fields stay unchanged; a
// non-nil NullDecimal with Valid=false clears the value. Quantity is not
// editable here.
type UpdateInput struct {
	Name        *string
	Price       *decimal.Decimal
	InvoiceCost *decimal.NullDecimal
	SalePrice   *decimal.NullDecimal
	Pack        *string
	Flavour     *string
	Location    *string
}

// Update applies a catalogue patch.
func (s *Service) Update(ctx context.Context, p shared.Principal, id uuid.UUID, in UpdateInput) (Product, error) {
	prod, err := s.Get(ctx, p, id)
	if err != nil {
		return Product{}, err
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return Product{}, shared.Validationf("name must not be empty")
		}
		prod.Name = name
	}
	if in.Price != nil {
		prod.Price = *in.Price
	}
	if in.InvoiceCost != nil {
		prod.InvoiceCost = *in.InvoiceCost
	}
	if in.SalePrice != nil {
		prod.SalePrice = *in.SalePrice
	}
	if in.Pack != nil {
		prod.Pack = strings.TrimSpace(*in.Pack)
	}
	if in.Flavour != nil {
		prod.Flavour = strings.TrimSpace(*in.Flavour)
	}
	if in.Location != nil {
		prod.Location = strings.TrimSpace(*in.Location)
	}
	if err := checkMoney(prod.Price, prod.InvoiceCost, prod.SalePrice); err != nil {
		return Product{}, err
	}
	prod.UpdatedAt = s.now()
	if err := s.repo.UpdateProduct(ctx, prod); err != nil {
		return Product{}, err
	}
	return prod, nil
}

// Restock adds qty units to a product.
func (s *Service) Restock(ctx context.Context, p shared.Principal, id uuid.UUID, qty int64) (Product, error) {
	if qty <= 0 {
		return Product{}, ErrInvalidQuantity
	}
	prod, err := s.Get(ctx, p, id)
	if err != nil {
		return Product{}, err
	}
	newQty, err := s.repo.Restock(ctx, id, qty)
	if err != nil {
		return Product{}, err
	}
	prod.Quantity = newQty
	if s.audit != nil {
		err := s.audit.Record(ctx, shared.AuditLog{
			ActorID:  p.ID,
			Action:   "inventory:restock",
			Entity:   "product",
			EntityID: id.String(),
			Meta:     map[string]any{"qty": qty, "warehouse_id": prod.WarehouseID.String()},
		})
		if err != nil {
			s.logger.Warn("audit restock", slog.String("product_id", id.String()), slog.Any("error", err))
		}
	}
	return prod, nil
}

// Delete removes a product. Admin only.
func (s *Service) Delete(ctx context.Context, p shared.Principal, id uuid.UUID) error {
	if err := p.RequireAdmin(); err != nil {
		return err
	}
	if _, err := s.repo.GetProduct(ctx, id); err != nil {
		return err
	}
	return s.repo.DeleteUnused(ctx, id)
}

func checkMoney(price decimal.Decimal, cost, sale decimal.NullDecimal) error {
	if price.IsNegative() {
		return shared.Validationf("price must not be negative")
	}
	for name, v := range map[string]decimal.NullDecimal{"invoiceCost": cost, "salePrice": sale} {
		if v.Valid && v.Decimal.IsNegative() {
			return shared.Validationf("%s must not be negative", name)
		}
	}
	return nil
}
