package pricing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/godown-ops/godown/internal/shared"
)

// DateLayout is the calendar-date key format of daily prices.
const DateLayout = "2006-01-02"

// DailyPrice overrides the catalogue price of a product in one warehouse for
// one calendar date.
type DailyPrice struct {
	ProductID   uuid.UUID       `json:"productId"`
	WarehouseID uuid.UUID       `json:"warehouseId"`
	Date        string          `json:"date"`
	Price       decimal.Decimal `json:"price"`
	UpdatedBy   string          `json:"updatedBy"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// DateKey truncates t to its UTC calendar date.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseDate accepts YYYY-MM-DD or an RFC 3339 timestamp and returns the
// normalised date key.
func ParseDate(raw string) (string, error) {
	if t, err := time.Parse(DateLayout, raw); err == nil {
		return t.Format(DateLayout), nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return "", shared.Validationf("date must be YYYY-MM-DD")
	}
	return DateKey(t), nil
}
