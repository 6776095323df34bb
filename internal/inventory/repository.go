package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-ops/godown/internal/platform/db"
)

const productColumns = `id, warehouse_id, name, sku, quantity, price, invoice_cost, sale_price, pack, flavour, location, created_at, updated_at`

// Repository persists products in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func scanProduct(row pgx.Row) (Product, error) {
	var p Product
	err := row.Scan(&p.ID, &p.WarehouseID, &p.Name, &p.SKU, &p.Quantity, &p.Price, &p.InvoiceCost, &p.SalePrice,
		&p.Pack, &p.Flavour, &p.Location, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Product{}, ErrProductNotFound
	}
	return p, err
}

func queryProducts(ctx context.Context, q querier, sql string, args ...any) ([]Product, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func byID(list []Product) map[uuid.UUID]Product {
	out := make(map[uuid.UUID]Product, len(list))
	for _, p := range list {
		out[p.ID] = p
	}
	return out
}

// InsertProduct stores a product.
func (r *Repository) InsertProduct(ctx context.Context, p Product) error {
	_, err := r.pool.Exec(ctx, `INSERT INTO products (`+productColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.WarehouseID, p.Name, p.SKU, p.Quantity, p.Price, p.InvoiceCost, p.SalePrice, p.Pack, p.Flavour, p.Location, p.CreatedAt, p.UpdatedAt)
	if db.IsUniqueViolation(err, "products_warehouse_sku_key") {
		return ErrDuplicateSKU.Withf("sku %s already exists in this warehouse", p.SKU)
	}
	return err
}

// GetProduct loads a product by id.
func (r *Repository) GetProduct(ctx context.Context, id uuid.UUID) (Product, error) {
	return scanProduct(r.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id))
}

// ListProducts lists products of a warehouse, newest first.
func (r *Repository) ListProducts(ctx context.Context, warehouseID uuid.UUID) ([]Product, error) {
	return queryProducts(ctx, r.pool, `SELECT `+productColumns+` FROM products WHERE warehouse_id = $1 ORDER BY created_at DESC`, warehouseID)
}

// ProductsByIDs loads products keyed by id; missing ids are skipped.
func (r *Repository) ProductsByIDs(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]Product{}, nil
	}
	list, err := queryProducts(ctx, r.pool, `SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	return byID(list), nil
}

// UpdateProduct writes catalogue fields. Quantity is owned by the ledger.
func (r *Repository) UpdateProduct(ctx context.Context, p Product) error {
	tag, err := r.pool.Exec(ctx, `UPDATE products SET name = $2, price = $3, invoice_cost = $4, sale_price = $5, pack = $6, flavour = $7, location = $8, updated_at = $9 WHERE id = $1`,
		p.ID, p.Name, p.Price, p.InvoiceCost, p.SalePrice, p.Pack, p.Flavour, p.Location, p.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}

// Restock increments quantity.
func (r *Repository) Restock(ctx context.Context, id uuid.UUID, qty int64) (int64, error) {
	var out int64
	err := r.pool.QueryRow(ctx, `UPDATE products SET quantity = quantity + $2, updated_at = NOW() WHERE id = $1 RETURNING quantity`, id, qty).Scan(&out)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, ErrProductNotFound
	}
	return out, err
}

// DeleteUnused deletes the product unless an open trip manifest lists it.
func (r *Repository) DeleteUnused(ctx context.Context, id uuid.UUID) error {
	return db.WithTxOptions(ctx, r.pool, db.ReadCommitted, func(tx pgx.Tx) error {
		locked, err := NewTxStore(tx).LockProducts(ctx, []uuid.UUID{id})
		if err != nil {
			return err
		}
		p, ok := locked[id]
		if !ok {
			return ErrProductNotFound
		}
		var inUse bool
		err = tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM trips WHERE status <> 'VERIFIED' AND loaded_items @> jsonb_build_array(jsonb_build_object('productId', $1::text)))`, id.String()).Scan(&inUse)
		if err != nil {
			return err
		}
		if inUse {
			return ErrProductInUse.Withf("product %s is loaded on an active trip", p.Label())
		}
		_, err = tx.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
		return err
	})
}

// TxStore implements LedgerStore on an open transaction.
type TxStore struct {
	tx pgx.Tx
}

// NewTxStore wraps tx.
func NewTxStore(tx pgx.Tx) *TxStore {
	return &TxStore{tx: tx}
}

// LockProducts selects the rows FOR UPDATE in id order.
func (s *TxStore) LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]Product{}, nil
	}
	list, err := queryProducts(ctx, s.tx, `SELECT `+productColumns+` FROM products WHERE id = ANY($1) ORDER BY id FOR UPDATE`, ids)
	if err != nil {
		return nil, err
	}
	return byID(list), nil
}

// AddQuantity applies delta unless the result would be negative.
func (s *TxStore) AddQuantity(ctx context.Context, id uuid.UUID, delta int64) (int64, bool, error) {
	var qty int64
	err := s.tx.QueryRow(ctx, `UPDATE products SET quantity = quantity + $2, updated_at = NOW() WHERE id = $1 AND quantity + $2 >= 0 RETURNING quantity`, id, delta).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return qty, true, nil
}
