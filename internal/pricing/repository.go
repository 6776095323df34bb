package pricing

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresRepository stores overrides in daily_pricing.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new repository.
func NewRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Upsert writes the override, replacing the price of an existing row.
func (r *PostgresRepository) Upsert(ctx context.Context, p DailyPrice) (DailyPrice, error) {
	err := r.pool.QueryRow(ctx, `INSERT INTO daily_pricing (product_id, warehouse_id, price_date, price, updated_by, updated_at)
VALUES ($1, $2, $3::date, $4, $5, $6)
ON CONFLICT (product_id, warehouse_id, price_date)
DO UPDATE SET price = EXCLUDED.price, updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
RETURNING to_char(price_date, 'YYYY-MM-DD'), price, updated_at`,
		p.ProductID, p.WarehouseID, p.Date, p.Price, p.UpdatedBy, p.UpdatedAt,
	).Scan(&p.Date, &p.Price, &p.UpdatedAt)
	return p, err
}

// ListForDate lists overrides of one warehouse and date.
func (r *PostgresRepository) ListForDate(ctx context.Context, warehouseID uuid.UUID, date string) ([]DailyPrice, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, warehouse_id, to_char(price_date, 'YYYY-MM-DD'), price, updated_by, updated_at
FROM daily_pricing WHERE warehouse_id = $1 AND price_date = $2::date ORDER BY product_id`, warehouseID, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]DailyPrice, 0)
	for rows.Next() {
		var p DailyPrice
		if err := rows.Scan(&p.ProductID, &p.WarehouseID, &p.Date, &p.Price, &p.UpdatedBy, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PricesFor maps product id to override price for the given date.
func (r *PostgresRepository) PricesFor(ctx context.Context, warehouseID uuid.UUID, date string, productIDs []uuid.UUID) (map[uuid.UUID]decimal.Decimal, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, price FROM daily_pricing
WHERE warehouse_id = $1 AND price_date = $2::date AND product_id = ANY($3)`, warehouseID, date, productIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[uuid.UUID]decimal.Decimal, len(productIDs))
	for rows.Next() {
		var id uuid.UUID
		var price decimal.Decimal
		if err := rows.Scan(&id, &price); err != nil {
			return nil, err
		}
		out[id] = price
	}
	return out, rows.Err()
}
