package trips

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-ops/godown/internal/fleet"
	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/platform/db"
	"github.com/godown-ops/godown/internal/shared"
)

const idempotencyModule = "trips"

const tripColumns = `id, warehouse_id, vehicle_id, status, loaded_items, start_time, end_time, COALESCE(verified_by, ''), created_by, created_at, updated_at`

// PostgresRepository stores trips in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// WithTx runs fn in a READ COMMITTED transaction. Row locks taken by the gate
// and ledger serialise concurrent loads of the same vehicle or product.
func (r *PostgresRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	return db.WithTxOptions(ctx, r.pool, db.ReadCommitted, func(tx pgx.Tx) error {
		return fn(ctx, &txRepo{
			GateStore:   fleet.NewTxStore(tx),
			LedgerStore: inventory.NewTxStore(tx),
			tx:          tx,
		})
	})
}

// GetTrip loads a trip by id.
func (r *PostgresRepository) GetTrip(ctx context.Context, id uuid.UUID) (Trip, error) {
	return scanTrip(r.pool.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1`, id))
}

// ListTrips lists trips of a warehouse, newest first.
func (r *PostgresRepository) ListTrips(ctx context.Context, warehouseID uuid.UUID) ([]Trip, error) {
	return queryTrips(ctx, r.pool, `SELECT `+tripColumns+` FROM trips WHERE warehouse_id = $1 ORDER BY created_at DESC`, warehouseID)
}

// VerifiedUnbilled lists verified trips of a warehouse that have no bill yet.
func (r *PostgresRepository) VerifiedUnbilled(ctx context.Context, warehouseID uuid.UUID) ([]Trip, error) {
	return queryTrips(ctx, r.pool, `SELECT `+tripColumns+` FROM trips t
WHERE t.warehouse_id = $1 AND t.status = 'VERIFIED'
  AND NOT EXISTS (SELECT 1 FROM bills b WHERE b.trip_id = t.id)
ORDER BY t.end_time DESC NULLS LAST`, warehouseID)
}

type txRepo struct {
	fleet.GateStore
	inventory.LedgerStore
	tx pgx.Tx
}

func (t *txRepo) ClaimIdempotencyKey(ctx context.Context, key string) error {
	return shared.ClaimIdempotencyKey(ctx, t.tx, key, idempotencyModule)
}

func (t *txRepo) InsertTrip(ctx context.Context, trip Trip) error {
	items, err := json.Marshal(trip.LoadedItems)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	_, err = t.tx.Exec(ctx, `INSERT INTO trips (id, warehouse_id, vehicle_id, status, loaded_items, start_time, created_by, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		trip.ID, trip.WarehouseID, trip.VehicleID, trip.Status, items, trip.StartTime, trip.CreatedBy, trip.CreatedAt, trip.UpdatedAt)
	return err
}

func (t *txRepo) GetTripForUpdate(ctx context.Context, id uuid.UUID) (Trip, error) {
	return scanTrip(t.tx.QueryRow(ctx, `SELECT `+tripColumns+` FROM trips WHERE id = $1 FOR UPDATE`, id))
}

func (t *txRepo) UpdateTrip(ctx context.Context, trip Trip) error {
	items, err := json.Marshal(trip.LoadedItems)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	tag, err := t.tx.Exec(ctx, `UPDATE trips SET status = $2, loaded_items = $3, end_time = $4, verified_by = $5, updated_at = $6 WHERE id = $1`,
		trip.ID, trip.Status, items, trip.EndTime, trip.VerifiedBy, trip.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTripNotFound
	}
	return nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryTrips(ctx context.Context, q querier, sql string, args ...any) ([]Trip, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Trip, 0)
	for rows.Next() {
		t, err := scanTrip(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTrip(row pgx.Row) (Trip, error) {
	var (
		t     Trip
		items []byte
	)
	err := row.Scan(&t.ID, &t.WarehouseID, &t.VehicleID, &t.Status, &items, &t.StartTime, &t.EndTime, &t.VerifiedBy, &t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Trip{}, ErrTripNotFound
	}
	if err != nil {
		return Trip{}, err
	}
	if err := json.Unmarshal(items, &t.LoadedItems); err != nil {
		return Trip{}, fmt.Errorf("decode manifest of trip %s: %w", t.ID, err)
	}
	return t, nil
}
