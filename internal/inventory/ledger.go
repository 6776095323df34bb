package inventory

import (
	"bytes"
	"context"
	"sort"

	"github.com/google/uuid"
)

// LedgerStore is the transactional view of stock used by trip transitions.
// Implementations must run inside the caller's transaction.
type LedgerStore interface {
	// LockProducts reads the products and locks them until the transaction
	// ends. Missing ids are absent from the result.
	LockProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Product, error)
	// AddQuantity applies delta and returns the new quantity. It reports
	// false, leaving the row unchanged, when the product is missing or the
	// result would be negative.
	AddQuantity(ctx context.Context, id uuid.UUID, delta int64) (int64, bool, error)
}

// Reservation asks for qty units of a product.
type Reservation struct {
	ProductID uuid.UUID
	Qty       int64
}

// ReserveStock is the single-product form of ReserveAll: it decrements one
// product of warehouseID by qty.
func ReserveStock(ctx context.Context, store LedgerStore, productID, warehouseID uuid.UUID, qty int64) (Product, error) {
	got, err := ReserveAll(ctx, store, warehouseID, []Reservation{{ProductID: productID, Qty: qty}})
	if err != nil {
		return Product{}, err
	}
	return got[productID], nil
}

// ReserveAll decrements every reservation in input order and stops at the
// first failure. Rows are locked in id order first so concurrent manifests
// sharing products cannot deadlock. The caller's transaction undoes earlier
// decrements when an error is returned.
func ReserveAll(ctx context.Context, store LedgerStore, warehouseID uuid.UUID, items []Reservation) (map[uuid.UUID]Product, error) {
	for _, it := range items {
		if it.Qty <= 0 {
			return nil, ErrInvalidQuantity
		}
	}
	locked, err := store.LockProducts(ctx, lockOrder(items))
	if err != nil {
		return nil, err
	}
	for _, it := range items {
		p, ok := locked[it.ProductID]
		if !ok {
			return nil, ErrProductNotFound.Withf("product %s not found", it.ProductID)
		}
		if p.WarehouseID != warehouseID {
			return nil, ErrWrongWarehouse.Withf("product %s belongs to a different warehouse", p.Label())
		}
		if p.Quantity < it.Qty {
			return nil, insufficient(p, it.Qty)
		}
		qty, ok, err := store.AddQuantity(ctx, it.ProductID, -it.Qty)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, insufficient(p, it.Qty)
		}
		p.Quantity = qty
		locked[it.ProductID] = p
	}
	return locked, nil
}

// RestoreStock returns qty units of a product to inventory. Only returned
// units flow back; sold units stay removed.
func RestoreStock(ctx context.Context, store LedgerStore, productID uuid.UUID, qty int64) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	_, ok, err := store.AddQuantity(ctx, productID, qty)
	if err != nil {
		return err
	}
	if !ok {
		return ErrProductNotFound.Withf("product %s not found", productID)
	}
	return nil
}

// RestoreAll returns every reservation's units to stock. Rows are locked and
// written in id order, the same order ReserveAll locks in, so a verification
// and a concurrent trip creation sharing products cannot deadlock.
func RestoreAll(ctx context.Context, store LedgerStore, items []Reservation) error {
	if len(items) == 0 {
		return nil
	}
	qty := make(map[uuid.UUID]int64, len(items))
	for _, it := range items {
		if it.Qty <= 0 {
			return ErrInvalidQuantity
		}
		qty[it.ProductID] += it.Qty
	}
	ids := lockOrder(items)
	locked, err := store.LockProducts(ctx, ids)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if _, ok := locked[id]; !ok {
			return ErrProductNotFound.Withf("product %s not found", id)
		}
		if err := RestoreStock(ctx, store, id, qty[id]); err != nil {
			return err
		}
	}
	return nil
}

func insufficient(p Product, requested int64) error {
	return ErrInsufficientStock.Withf("insufficient stock for %s: available %d, requested %d", p.Label(), p.Quantity, requested)
}

func lockOrder(items []Reservation) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(items))
	ids := make([]uuid.UUID, 0, len(items))
	for _, it := range items {
		if _, dup := seen[it.ProductID]; dup {
			continue
		}
		seen[it.ProductID] = struct{}{}
		ids = append(ids, it.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })
	return ids
}
