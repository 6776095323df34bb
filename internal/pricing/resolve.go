package pricing

import "github.com/shopspring/decimal"

// Resolve picks the unit price used for billing: a daily override, else the
// sale price, else the base price.
func Resolve(override, sale decimal.NullDecimal, base decimal.Decimal) decimal.Decimal {
	if override.Valid {
		return override.Decimal
	}
	if sale.Valid {
		return sale.Decimal
	}
	return base
}

// UnitCost returns the invoice cost, or price itself when no cost is known so
// the line carries no profit.
func UnitCost(cost decimal.NullDecimal, price decimal.Decimal) decimal.Decimal {
	if cost.Valid {
		return cost.Decimal
	}
	return price
}
