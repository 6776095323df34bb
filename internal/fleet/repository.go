package fleet

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-ops/godown/internal/platform/db"
	"github.com/godown-ops/godown/internal/shared"
)

// ErrDuplicateNumber reports a plate number already used in the warehouse.
var ErrDuplicateNumber = shared.NewError(shared.ErrConflict, "VehicleNumberTaken", "vehicle number already registered in this warehouse")

const vehicleColumns = `id, warehouse_id, number, driver_name, status, created_at`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(&v.ID, &v.WarehouseID, &v.Number, &v.DriverName, &v.Status, &v.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, ErrVehicleNotFound
	}
	return v, err
}

// InsertVehicle stores a vehicle.
func (r *PostgresRepository) InsertVehicle(ctx context.Context, v Vehicle) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO vehicles (`+vehicleColumns+`) VALUES ($1, $2, $3, $4, $5, $6)`,
		v.ID, v.WarehouseID, v.Number, v.DriverName, v.Status, v.CreatedAt)
	if db.IsUniqueViolation(err, "vehicles_warehouse_number_key") {
		return ErrDuplicateNumber.Withf("vehicle %s already registered in this warehouse", v.Number)
	}
	return err
}

// GetVehicle loads a vehicle by id.
func (r *PostgresRepository) GetVehicle(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	return scanVehicle(r.pool.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1`, id))
}

// ListVehicles lists vehicles of a warehouse, newest first.
func (r *PostgresRepository) ListVehicles(ctx context.Context, warehouseID uuid.UUID) ([]Vehicle, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE warehouse_id = $1 ORDER BY created_at DESC`, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Vehicle, 0)
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// DeleteIdle locks the vehicle, checks for an open trip and deletes it.
func (r *PostgresRepository) DeleteIdle(ctx context.Context, id uuid.UUID) error {
	return db.WithTxOptions(ctx, r.pool, db.ReadCommitted, func(tx pgx.Tx) error {
		store := NewTxStore(tx)
		v, err := store.GetVehicleForUpdate(ctx, id)
		if err != nil {
			return err
		}
		var active bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE vehicle_id = $1 AND status <> 'VERIFIED')`, id).Scan(&active); err != nil {
			return err
		}
		if active {
			return ErrVehicleBusy.Withf("vehicle %s has an active trip", v.Number)
		}
		_, err = tx.Exec(ctx, `DELETE FROM vehicles WHERE id = $1`, id)
		return err
	})
}

// TxStore implements GateStore on an open transaction.
type TxStore struct {
	tx pgx.Tx
}

// NewTxStore wraps tx.
func NewTxStore(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

// GetVehicleForUpdate reads the vehicle with a row lock.
func (s *TxStore) GetVehicleForUpdate(ctx context.Context, id uuid.UUID) (Vehicle, error) {
	return scanVehicle(s.tx.QueryRow(ctx, `SELECT `+vehicleColumns+` FROM vehicles WHERE id = $1 FOR UPDATE`, id))
}

// SetVehicleStatus performs the conditional status write.
func (s *TxStore) SetVehicleStatus(ctx context.Context, id uuid.UUID, from, to Status) (bool, error) {
	tag, err := s.tx.Exec(ctx, `UPDATE vehicles SET status = $3 WHERE id = $1 AND status = $2`, id, from, to)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
