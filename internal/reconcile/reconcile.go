// Package reconcile audits that every IN_TRANSIT vehicle has exactly one
// LOADED trip and every AVAILABLE vehicle has none. It reports, never repairs.
package reconcile

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/godown-ops/godown/internal/fleet"
)

// Kind classifies a mismatch.
type Kind string

const (
	KindInTransitWithoutTrip Kind = "in_transit_without_trip"
	KindAvailableWithTrip    Kind = "available_with_trip"
	KindMultipleActiveTrips  Kind = "multiple_active_trips"
)

// Kinds lists every mismatch kind, so gauges reset to zero between runs.
var Kinds = []Kind{KindInTransitWithoutTrip, KindAvailableWithTrip, KindMultipleActiveTrips}

// VehicleState is a vehicle with the number of LOADED trips referencing it.
type VehicleState struct {
	VehicleID   uuid.UUID
	WarehouseID uuid.UUID
	Number      string
	Status      fleet.Status
	ActiveTrips int
}

// Classify returns the mismatch kind of s, or "" when it is consistent.
func Classify(s VehicleState) Kind {
	switch {
	case s.ActiveTrips > 1:
		return KindMultipleActiveTrips
	case s.Status == fleet.StatusInTransit && s.ActiveTrips == 0:
		return KindInTransitWithoutTrip
	case s.Status == fleet.StatusAvailable && s.ActiveTrips > 0:
		return KindAvailableWithTrip
	}
	return ""
}

// Mismatch is an inconsistent vehicle.
type Mismatch struct {
	VehicleState
	Kind Kind
}

// Store reads vehicle and trip state.
type Store interface {
	// Suspects returns vehicles that may be inconsistent. Consistent rows
	// are allowed and filtered by Classify.
	Suspects(ctx context.Context) ([]VehicleState, error)
}

// PostgresStore implements Store.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore constructs PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Suspects applies the consistency rules in SQL so only offenders are read.
func (s *PostgresStore) Suspects(ctx context.Context) ([]VehicleState, error) {
	rows, err := s.pool.Query(ctx, `SELECT v.id, v.warehouse_id, v.number, v.status, COUNT(t.id)::int
FROM vehicles v
LEFT JOIN trips t ON t.vehicle_id = v.id AND t.status = 'LOADED'
GROUP BY v.id, v.warehouse_id, v.number, v.status
HAVING COUNT(t.id) > 1
    OR (v.status = 'IN_TRANSIT' AND COUNT(t.id) = 0)
    OR (v.status = 'AVAILABLE' AND COUNT(t.id) > 0)
ORDER BY v.warehouse_id, v.number`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]VehicleState, 0)
	for rows.Next() {
		var st VehicleState
		if err := rows.Scan(&st.VehicleID, &st.WarehouseID, &st.Number, &st.Status, &st.ActiveTrips); err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, rows.Err()
}

// Find returns the mismatches among the store's suspects.
func Find(ctx context.Context, store Store) ([]Mismatch, error) {
	states, err := store.Suspects(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Mismatch, 0)
	for _, st := range states {
		if kind := Classify(st); kind != "" {
			out = append(out, Mismatch{VehicleState: st, Kind: kind})
		}
	}
	return out, nil
}
