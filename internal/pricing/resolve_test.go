package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestResolvePriority(t *testing.T) {
	base := decimal.NewFromInt(20)
	sale := decimal.NewNullDecimal(decimal.NewFromInt(19))
	override := decimal.NewNullDecimal(decimal.NewFromInt(18))

	require.True(t, Resolve(override, sale, base).Equal(decimal.NewFromInt(18)))
	require.True(t, Resolve(decimal.NullDecimal{}, sale, base).Equal(decimal.NewFromInt(19)))
	require.True(t, Resolve(decimal.NullDecimal{}, decimal.NullDecimal{}, base).Equal(base))
}

func TestUnitCostFallsBackToPrice(t *testing.T) {
	price := decimal.NewFromInt(20)
	require.True(t, UnitCost(decimal.NewNullDecimal(decimal.NewFromInt(15)), price).Equal(decimal.NewFromInt(15)))
	require.True(t, UnitCost(decimal.NullDecimal{}, price).Equal(price))
}

func TestDateKeyAndParse(t *testing.T) {
	late := time.Date(2025, 3, 9, 23, 30, 0, 0, time.FixedZone("WIB", 7*3600))
	require.Equal(t, "2025-03-09", DateKey(late))

	got, err := ParseDate("2025-03-09")
	require.NoError(t, err)
	require.Equal(t, "2025-03-09", got)

	got, err = ParseDate("2025-03-10T01:00:00+07:00")
	require.NoError(t, err)
	require.Equal(t, "2025-03-09", got)

	_, err = ParseDate("09/03/2025")
	require.Error(t, err)
}
