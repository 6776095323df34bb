package access

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-ops/godown/internal/platform/db"
)

const grantColumns = `a.id, a.user_id, a.user_email, a.user_name, a.warehouse_id, w.name, a.role, a.status, a.created_at, a.updated_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs the Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanGrant(row pgx.Row) (Grant, error) {
	var g Grant
	err := row.Scan(&g.ID, &g.UserID, &g.UserEmail, &g.UserName, &g.WarehouseID, &g.WarehouseName, &g.Role, &g.Status, &g.CreatedAt, &g.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Grant{}, ErrRequestNotFound
	}
	return g, err
}

func collectGrants(rows pgx.Rows) ([]Grant, error) {
	defer rows.Close()
	var out []Grant
	for rows.Next() {
		g, err := scanGrant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// FindGrant loads the grant for a user and warehouse.
func (r *PostgresRepository) FindGrant(ctx context.Context, userID string, warehouseID uuid.UUID) (Grant, error) {
	return scanGrant(r.pool.QueryRow(ctx, `SELECT `+grantColumns+` FROM warehouse_access a JOIN warehouses w ON w.id = a.warehouse_id WHERE a.user_id = $1 AND a.warehouse_id = $2`, userID, warehouseID))
}

// GetGrant loads a grant by id.
func (r *PostgresRepository) GetGrant(ctx context.Context, id uuid.UUID) (Grant, error) {
	return scanGrant(r.pool.QueryRow(ctx, `SELECT `+grantColumns+` FROM warehouse_access a JOIN warehouses w ON w.id = a.warehouse_id WHERE a.id = $1`, id))
}

// InsertGrant stores a new request.
func (r *PostgresRepository) InsertGrant(ctx context.Context, g Grant) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO warehouse_access (id, user_id, user_email, user_name, warehouse_id, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		g.ID, g.UserID, g.UserEmail, g.UserName, g.WarehouseID, g.Role, g.Status, g.CreatedAt, g.UpdatedAt)
	if db.IsUniqueViolation(err, "warehouse_access_user_warehouse_key") {
		return ErrRequestExists
	}
	return err
}

// SetGrantStatus changes status and stamps updated_at.
func (r *PostgresRepository) SetGrantStatus(ctx context.Context, id uuid.UUID, status Status, at time.Time) (Grant, error) {
	tag, err := r.pool.Exec(ctx, `UPDATE warehouse_access SET status = $2, updated_at = $3 WHERE id = $1`, id, status, at)
	if err != nil {
		return Grant{}, err
	}
	if tag.RowsAffected() == 0 {
		return Grant{}, ErrRequestNotFound
	}
	return r.GetGrant(ctx, id)
}

// UpsertApproved inserts or refreshes an APPROVED grant for the pair.
func (r *PostgresRepository) UpsertApproved(ctx context.Context, g Grant) (Grant, error) {
	var id uuid.UUID
	err := r.pool.QueryRow(ctx, `INSERT INTO warehouse_access (id, user_id, user_email, user_name, warehouse_id, role, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, 'APPROVED', $7, $7)
		ON CONFLICT ON CONSTRAINT warehouse_access_user_warehouse_key
		DO UPDATE SET status = 'APPROVED', updated_at = EXCLUDED.updated_at,
			user_email = COALESCE(NULLIF(EXCLUDED.user_email, ''), warehouse_access.user_email),
			user_name = COALESCE(NULLIF(EXCLUDED.user_name, ''), warehouse_access.user_name)
		RETURNING id`,
		g.ID, g.UserID, g.UserEmail, g.UserName, g.WarehouseID, g.Role, g.UpdatedAt).Scan(&id)
	if err != nil {
		return Grant{}, err
	}
	return r.GetGrant(ctx, id)
}

// ListGrantsByUser lists a user's grants, newest first.
func (r *PostgresRepository) ListGrantsByUser(ctx context.Context, userID string) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+grantColumns+` FROM warehouse_access a JOIN warehouses w ON w.id = a.warehouse_id WHERE a.user_id = $1 ORDER BY a.created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

// ListGrantsByStatus lists grants in status, newest first.
func (r *PostgresRepository) ListGrantsByStatus(ctx context.Context, status Status) ([]Grant, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+grantColumns+` FROM warehouse_access a JOIN warehouses w ON w.id = a.warehouse_id WHERE a.status = $1 ORDER BY a.created_at DESC`, status)
	if err != nil {
		return nil, err
	}
	return collectGrants(rows)
}

// InsertWarehouse stores a warehouse.
func (r *PostgresRepository) InsertWarehouse(ctx context.Context, w Warehouse) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO warehouses (id, name, location, created_by, created_at) VALUES ($1, $2, $3, $4, $5)`,
		w.ID, w.Name, w.Location, w.CreatedBy, w.CreatedAt)
	return err
}

// ListWarehouses lists warehouses, newest first.
func (r *PostgresRepository) ListWarehouses(ctx context.Context) ([]Warehouse, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, location, created_by, created_at FROM warehouses ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Warehouse
	for rows.Next() {
		var w Warehouse
		if err := rows.Scan(&w.ID, &w.Name, &w.Location, &w.CreatedBy, &w.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// WarehouseExists reports whether id names a warehouse.
func (r *PostgresRepository) WarehouseExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM warehouses WHERE id = $1)`, id).Scan(&ok)
	return ok, err
}
