package migrations

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSchemaDeclaresTables(t *testing.T) {
	for _, table := range []string{
		"warehouses", "warehouse_access", "vehicles", "products",
		"trips", "bills", "daily_pricing", "idempotency_keys", "audit_logs",
	} {
		re := regexp.MustCompile(`CREATE TABLE IF NOT EXISTS ` + table + ` \(`)
		require.Truef(t, re.MatchString(Schema), "missing table %s", table)
	}
}

func TestSchemaNamesConstraintsUsedByRepositories(t *testing.T) {
	for _, name := range []string{
		"warehouse_access_user_warehouse_key",
		"vehicles_warehouse_number_key",
		"products_warehouse_sku_key",
		"bills_trip_id_key",
	} {
		require.Contains(t, Schema, "CONSTRAINT "+name+" UNIQUE")
	}
}

func TestApplyRejectsNilPool(t *testing.T) {
	require.Error(t, Apply(context.Background(), nil))
}
