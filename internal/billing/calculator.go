package billing

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/pricing"
	"github.com/godown-ops/godown/internal/trips"
)

// Totals is the outcome of pricing a manifest.
type Totals struct {
	Amount decimal.Decimal
	Profit decimal.Decimal
	Lines  []Line
	// Missing lists products on the manifest that no longer exist.
	Missing []uuid.UUID
}

// Calculate prices every sold line of a manifest. Lines with nothing sold are
// skipped. overrides holds the daily prices in effect on the billing date.
func Calculate(items []trips.LineItem, products map[uuid.UUID]inventory.Product, overrides map[uuid.UUID]decimal.Decimal) Totals {
	out := Totals{Amount: decimal.Zero, Profit: decimal.Zero, Lines: make([]Line, 0, len(items))}
	for _, it := range items {
		sold := it.Sold()
		if sold <= 0 {
			continue
		}
		p, ok := products[it.ProductID]
		if !ok {
			out.Missing = append(out.Missing, it.ProductID)
			continue
		}
		var override decimal.NullDecimal
		if v, ok := overrides[it.ProductID]; ok {
			override = decimal.NewNullDecimal(v)
		}
		unit := pricing.Resolve(override, p.SalePrice, p.Price)
		cost := pricing.UnitCost(p.InvoiceCost, unit)
		qty := decimal.NewFromInt(sold)
		amount := qty.Mul(unit)
		profit := qty.Mul(unit.Sub(cost))
		out.Amount = out.Amount.Add(amount)
		out.Profit = out.Profit.Add(profit)
		out.Lines = append(out.Lines, Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			SKU:         p.SKU,
			Sold:        sold,
			UnitPrice:   unit,
			UnitCost:    cost,
			Amount:      amount,
			Profit:      profit,
		})
	}
	return out
}
