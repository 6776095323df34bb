// Package migrations embeds the database schema.
package migrations

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

//go:embed schema.sql
var Schema string

// Apply executes the schema. Every statement is idempotent.
func Apply(ctx context.Context, pool *pgxpool.Pool) error {
	if pool == nil {
		return fmt.Errorf("migrations: nil pool")
	}
	if _, err := pool.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("migrations: apply schema: %w", err)
	}
	return nil
}
