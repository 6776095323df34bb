package billing

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-ops/godown/internal/platform/db"
)

const billColumns = `id, trip_id, warehouse_id, vehicle_id, total_amount, total_profit, to_char(billing_date, 'YYYY-MM-DD'), generated_by, generated_at`

// PostgresRepository stores bills in PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// InsertBill stores the bill. The unique trip_id constraint rejects a second
// bill even when two requests pass the existence check together.
func (r *PostgresRepository) InsertBill(ctx context.Context, b Bill) error {
	lines, err := json.Marshal(b.Lines)
	if err != nil {
		return fmt.Errorf("encode bill lines: %w", err)
	}
	_, err = r.pool.Exec(ctx, `INSERT INTO bills (id, trip_id, warehouse_id, vehicle_id, total_amount, total_profit, billing_date, generated_by, generated_at, lines)
VALUES ($1, $2, $3, $4, $5, $6, $7::date, $8, $9, $10)`,
		b.ID, b.TripID, b.WarehouseID, b.VehicleID, b.TotalAmount, b.TotalProfit, b.BillingDate, b.GeneratedBy, b.GeneratedAt, lines)
	if db.IsUniqueViolation(err, "bills_trip_id_key") {
		return ErrBillAlreadyExists.Withf("bill already exists for trip %s", b.TripID)
	}
	return err
}

// BillExists reports whether tripID is billed.
func (r *PostgresRepository) BillExists(ctx context.Context, tripID uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM bills WHERE trip_id = $1)`, tripID).Scan(&exists)
	return exists, err
}

// GetBill loads a bill with its lines.
func (r *PostgresRepository) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	var (
		b     Bill
		lines []byte
	)
	err := r.pool.QueryRow(ctx, `SELECT `+billColumns+`, lines FROM bills WHERE id = $1`, id).Scan(
		&b.ID, &b.TripID, &b.WarehouseID, &b.VehicleID, &b.TotalAmount, &b.TotalProfit, &b.BillingDate, &b.GeneratedBy, &b.GeneratedAt, &lines)
	if errors.Is(err, pgx.ErrNoRows) {
		return Bill{}, ErrBillNotFound
	}
	if err != nil {
		return Bill{}, err
	}
	if err := json.Unmarshal(lines, &b.Lines); err != nil {
		return Bill{}, fmt.Errorf("decode lines of bill %s: %w", b.ID, err)
	}
	return b, nil
}

// ListBills lists bills of a warehouse without lines, newest first.
func (r *PostgresRepository) ListBills(ctx context.Context, warehouseID uuid.UUID) ([]Bill, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+billColumns+` FROM bills WHERE warehouse_id = $1 ORDER BY generated_at DESC`, warehouseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Bill, 0)
	for rows.Next() {
		var b Bill
		if err := rows.Scan(&b.ID, &b.TripID, &b.WarehouseID, &b.VehicleID, &b.TotalAmount, &b.TotalProfit, &b.BillingDate, &b.GeneratedBy, &b.GeneratedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}
