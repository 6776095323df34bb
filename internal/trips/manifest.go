package trips

import (
	"github.com/google/uuid"

	"github.com/godown-ops/godown/internal/inventory"
)

// LoadItem requests qty units of a product on a new trip.
type LoadItem struct {
	ProductID uuid.UUID
	QtyLoaded int64
}

// ReturnItem reports units brought back at verification.
type ReturnItem struct {
	ProductID   uuid.UUID
	QtyReturned int64
}

func checkLoad(items []LoadItem) error {
	if len(items) == 0 {
		return ErrEmptyManifest
	}
	seen := make(map[uuid.UUID]struct{}, len(items))
	for _, it := range items {
		if it.ProductID == uuid.Nil {
			return ErrEmptyManifest.Withf("items must reference a product")
		}
		if it.QtyLoaded <= 0 {
			return inventory.ErrInvalidQuantity.Withf("qtyLoaded for product %s must be greater than zero", it.ProductID)
		}
		if _, dup := seen[it.ProductID]; dup {
			return ErrDuplicateItem.Withf("product %s listed more than once", it.ProductID)
		}
		seen[it.ProductID] = struct{}{}
	}
	return nil
}

func reservations(items []LoadItem) []inventory.Reservation {
	out := make([]inventory.Reservation, len(items))
	for i, it := range items {
		out[i] = inventory.Reservation{ProductID: it.ProductID, Qty: it.QtyLoaded}
	}
	return out
}

func newManifest(items []LoadItem) []LineItem {
	out := make([]LineItem, len(items))
	for i, it := range items {
		out[i] = LineItem{ProductID: it.ProductID, QtyLoaded: it.QtyLoaded}
	}
	return out
}

// mergeReturns folds returned quantities into the loaded manifest. Missing
// entries mean nothing came back.
func mergeReturns(loaded []LineItem, returned []ReturnItem) ([]LineItem, error) {
	byProduct := make(map[uuid.UUID]int64, len(returned))
	for _, r := range returned {
		if r.QtyReturned < 0 {
			return nil, inventory.ErrInvalidQuantity.Withf("qtyReturned for product %s must not be negative", r.ProductID)
		}
		if _, dup := byProduct[r.ProductID]; dup {
			return nil, ErrDuplicateItem.Withf("product %s returned more than once", r.ProductID)
		}
		byProduct[r.ProductID] = r.QtyReturned
	}
	merged := make([]LineItem, len(loaded))
	for i, it := range loaded {
		qty, ok := byProduct[it.ProductID]
		delete(byProduct, it.ProductID)
		if ok && qty > it.QtyLoaded {
			return nil, ErrReturnExceedsLoad.Withf("returned %d of product %s but only %d were loaded", qty, it.ProductID, it.QtyLoaded)
		}
		it.QtyReturned = qty
		merged[i] = it
	}
	for _, r := range returned {
		if _, left := byProduct[r.ProductID]; left {
			return nil, ErrUnknownManifestItem.Withf("product %s is not on the trip manifest", r.ProductID)
		}
	}
	return merged, nil
}
