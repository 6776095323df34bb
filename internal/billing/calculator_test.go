package billing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/godown-ops/godown/internal/inventory"
	"github.com/godown-ops/godown/internal/trips"
)

func dec(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestCalculate(t *testing.T) {
	cola := inventory.Product{ID: uuid.New(), Name: "Cola", SKU: "COL", Price: dec(20), InvoiceCost: decimal.NewNullDecimal(dec(15))}
	chips := inventory.Product{ID: uuid.New(), Name: "Chips", SKU: "CHI", Price: dec(10), SalePrice: decimal.NewNullDecimal(dec(8))}
	water := inventory.Product{ID: uuid.New(), Name: "Water", Price: dec(3), InvoiceCost: decimal.NewNullDecimal(dec(1))}
	products := map[uuid.UUID]inventory.Product{cola.ID: cola, chips.ID: chips, water.ID: water}
	gone := uuid.New()

	items := []trips.LineItem{
		{ProductID: cola.ID, QtyLoaded: 30, QtyReturned: 5},
		{ProductID: chips.ID, QtyLoaded: 4, QtyReturned: 1},
		{ProductID: water.ID, QtyLoaded: 6, QtyReturned: 6},
		{ProductID: gone, QtyLoaded: 2},
	}

	cases := []struct {
		name      string
		overrides map[uuid.UUID]decimal.Decimal
		amount    int64
		profit    int64
	}{
		// cola 25*20, profit 25*5; chips 3*8 at sale price without cost, no profit
		{"catalogue prices", nil, 500 + 24, 125},
		// cola override 18: 25*18, profit 25*3
		{"daily override", map[uuid.UUID]decimal.Decimal{cola.ID: dec(18)}, 450 + 24, 75},
		// override on chips beats its sale price
		{"override beats sale price", map[uuid.UUID]decimal.Decimal{chips.ID: dec(9)}, 500 + 27, 125},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(items, products, tc.overrides)
			require.True(t, got.Amount.Equal(dec(tc.amount)), "amount %s", got.Amount)
			require.True(t, got.Profit.Equal(dec(tc.profit)), "profit %s", got.Profit)
			require.Len(t, got.Lines, 2)
			require.Equal(t, []uuid.UUID{gone}, got.Missing)
		})
	}
}

func TestCalculateDecimalPrices(t *testing.T) {
	p := inventory.Product{ID: uuid.New(), Price: decimal.RequireFromString("12.35"), InvoiceCost: decimal.NewNullDecimal(decimal.RequireFromString("10.10"))}
	got := Calculate([]trips.LineItem{{ProductID: p.ID, QtyLoaded: 3}}, map[uuid.UUID]inventory.Product{p.ID: p}, nil)
	require.Equal(t, "37.05", got.Amount.StringFixed(2))
	require.Equal(t, "6.75", got.Profit.StringFixed(2))
	require.Equal(t, int64(3), got.Lines[0].Sold)
}

func TestCalculateEmptyManifest(t *testing.T) {
	got := Calculate(nil, nil, nil)
	require.True(t, got.Amount.IsZero())
	require.True(t, got.Profit.IsZero())
	require.Empty(t, got.Lines)
}
