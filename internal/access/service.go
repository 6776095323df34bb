package access

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/godown-ops/godown/internal/shared"
)

// Repository persists grants and warehouses.
type Repository interface {
	FindGrant(ctx context.Context, userID string, warehouseID uuid.UUID) (Grant, error)
	GetGrant(ctx context.Context, id uuid.UUID) (Grant, error)
	InsertGrant(ctx context.Context, g Grant) error
	SetGrantStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) (Grant, error)
	UpsertApproved(ctx context.Context, g Grant) (Grant, error)
	ListGrantsByUser(ctx context.Context, userID string) ([]Grant, error)
	ListGrantsByStatus(ctx context.Context, status Status) ([]Grant, error)

	InsertWarehouse(ctx context.Context, w Warehouse) error
	ListWarehouses(ctx context.Context) ([]Warehouse, error)
	WarehouseExists(ctx context.Context, id uuid.UUID) (bool, error)
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	GrantTTL time.Duration
	Logger   *slog.Logger
}

// Service implements warehouse access checks and the request workflow.
type Service struct {
	repo   Repository
	audit  shared.AuditPort
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

// NewService builds Service.
func NewService(repo Repository, audit shared.AuditPort, cfg ServiceConfig) *Service {
	ttl := cfg.GrantTTL
	if ttl <= 0 {
		ttl = DefaultGrantTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, audit: audit, ttl: ttl, logger: logger, now: func() time.Time { return time.Now().UTC() }}
}

// Authorize lets admins through and requires staff to hold an approved grant
// updated within the grant window. Expiry is evaluated on every call.
func (s *Service) Authorize(ctx context.Context, p shared.Principal, warehouseID uuid.UUID) error {
	if !p.Valid() {
		return shared.ErrUnauthenticated
	}
	if p.IsAdmin() {
		return nil
	}
	g, err := s.repo.FindGrant(ctx, p.ID, warehouseID)
	if err != nil {
		if errors.Is(err, ErrRequestNotFound) {
			return ErrAccessDenied
		}
		return err
	}
	if g.Status != StatusApproved {
		return ErrAccessDenied
	}
	if !g.ActiveAt(s.now(), s.ttl) {
		return ErrAccessExpired
	}
	return nil
}

// RequestAccess files a PENDING staff request. A rejected or lapsed grant is
// reopened instead of duplicated.
func (s *Service) RequestAccess(ctx context.Context, p shared.Principal, warehouseID uuid.UUID) (Grant, error) {
	if !p.Valid() {
		return Grant{}, shared.ErrUnauthenticated
	}
	if err := s.requireWarehouse(ctx, warehouseID); err != nil {
		return Grant{}, err
	}
	now := s.now()
	existing, err := s.repo.FindGrant(ctx, p.ID, warehouseID)
	switch {
	case err == nil:
		if existing.Status == StatusPending || existing.ActiveAt(now, s.ttl) {
			return Grant{}, ErrRequestExists
		}
		g, err := s.repo.SetGrantStatus(ctx, existing.ID, StatusPending, now)
		if err != nil {
			return Grant{}, err
		}
		return g, nil
	case !errors.Is(err, ErrRequestNotFound):
		return Grant{}, err
	}
	g := Grant{
		ID:          uuid.New(),
		UserID:      p.ID,
		UserEmail:   p.Email,
		UserName:    p.Name,
		WarehouseID: warehouseID,
		Role:        shared.RoleStaff,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.InsertGrant(ctx, g); err != nil {
		return Grant{}, err
	}
	return g, nil
}

// Decide approves or rejects a request. Approval restarts the grant window.
func (s *Service) Decide(ctx context.Context, p shared.Principal, id uuid.UUID, decision Status) (Grant, error) {
	if err := p.RequireAdmin(); err != nil {
		return Grant{}, err
	}
	if decision != StatusApproved && decision != StatusRejected {
		return Grant{}, ErrInvalidDecision
	}
	if _, err := s.repo.GetGrant(ctx, id); err != nil {
		return Grant{}, err
	}
	g, err := s.repo.SetGrantStatus(ctx, id, decision, s.now())
	if err != nil {
		return Grant{}, err
	}
	s.record(ctx, p, "access:"+strings.ToLower(string(decision)), g)
	return g.withExpiry(s.ttl), nil
}

// InviteInput names the user an admin grants access to directly.
type InviteInput struct {
	UserID      string
	Email       string
	Name        string
	WarehouseID uuid.UUID
}

// Invite grants APPROVED access without a request, refreshing any prior grant.
func (s *Service) Invite(ctx context.Context, p shared.Principal, in InviteInput) (Grant, error) {
	if err := p.RequireAdmin(); err != nil {
		return Grant{}, err
	}
	if strings.TrimSpace(in.UserID) == "" {
		return Grant{}, shared.Validationf("userId is required")
	}
	if err := s.requireWarehouse(ctx, in.WarehouseID); err != nil {
		return Grant{}, err
	}
	now := s.now()
	g, err := s.repo.UpsertApproved(ctx, Grant{
		ID:          uuid.New(),
		UserID:      strings.TrimSpace(in.UserID),
		UserEmail:   in.Email,
		UserName:    in.Name,
		WarehouseID: in.WarehouseID,
		Role:        shared.RoleStaff,
		Status:      StatusApproved,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		return Grant{}, err
	}
	s.record(ctx, p, "access:invite", g)
	return g.withExpiry(s.ttl), nil
}

// ListMine returns the caller's grants with computed expiry.
func (s *Service) ListMine(ctx context.Context, p shared.Principal) ([]Grant, error) {
	if !p.Valid() {
		return nil, shared.ErrUnauthenticated
	}
	grants, err := s.repo.ListGrantsByUser(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return s.decorate(grants), nil
}

// ListByStatus lists grants in status for admins.
func (s *Service) ListByStatus(ctx context.Context, p shared.Principal, status Status) ([]Grant, error) {
	if err := p.RequireAdmin(); err != nil {
		return nil, err
	}
	switch status {
	case StatusPending, StatusApproved, StatusRejected:
	default:
		return nil, shared.Validationf("status must be one of PENDING, APPROVED, REJECTED")
	}
	grants, err := s.repo.ListGrantsByStatus(ctx, status)
	if err != nil {
		return nil, err
	}
	return s.decorate(grants), nil
}

// CreateWarehouse registers a warehouse. Admin only.
func (s *Service) CreateWarehouse(ctx context.Context, p shared.Principal, name, location string) (Warehouse, error) {
	if err := p.RequireAdmin(); err != nil {
		return Warehouse{}, err
	}
	name, location = strings.TrimSpace(name), strings.TrimSpace(location)
	if name == "" || location == "" {
		return Warehouse{}, shared.Validationf("name and location are required")
	}
	w := Warehouse{ID: uuid.New(), Name: name, Location: location, CreatedBy: p.ID, CreatedAt: s.now()}
	if err := s.repo.InsertWarehouse(ctx, w); err != nil {
		return Warehouse{}, err
	}
	return w, nil
}

// ListWarehouses lists every warehouse so staff can pick one to request.
func (s *Service) ListWarehouses(ctx context.Context, p shared.Principal) ([]Warehouse, error) {
	if !p.Valid() {
		return nil, shared.ErrUnauthenticated
	}
	return s.repo.ListWarehouses(ctx)
}

func (s *Service) requireWarehouse(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return shared.Validationf("warehouseId is required")
	}
	ok, err := s.repo.WarehouseExists(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrWarehouseNotFound
	}
	return nil
}

func (s *Service) decorate(grants []Grant) []Grant {
	out := make([]Grant, len(grants))
	for i, g := range grants {
		out[i] = g.withExpiry(s.ttl)
	}
	return out
}

func (s *Service) record(ctx context.Context, p shared.Principal, action string, g Grant) {
	if s.audit == nil {
		return
	}
	err := s.audit.Record(ctx, shared.AuditLog{
		ActorID:  p.ID,
		Action:   action,
		Entity:   "warehouse_access",
		EntityID: g.ID.String(),
		Meta: map[string]any{
			"user_id":      g.UserID,
			"warehouse_id": g.WarehouseID.String(),
			"status":       string(g.Status),
		},
	})
	if err != nil {
		s.logger.Warn("audit access decision", slog.Any("error", err))
	}
}
