package reconcile

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"

	"github.com/godown-ops/godown/internal/fleet"
	jobmetrics "github.com/godown-ops/godown/internal/jobs"
	"github.com/godown-ops/godown/internal/shared"
)

type fakeStore struct {
	states []VehicleState
	err    error
	calls  int
}

func (f *fakeStore) Suspects(context.Context) ([]VehicleState, error) {
	f.calls++
	return f.states, f.err
}

func newLocker(t *testing.T) (*redislock.Client, *redis.Client) {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return redislock.New(client), client
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name  string
		state VehicleState
		want  Kind
	}{
		{"available idle", VehicleState{Status: fleet.StatusAvailable}, ""},
		{"in transit with trip", VehicleState{Status: fleet.StatusInTransit, ActiveTrips: 1}, ""},
		{"in transit alone", VehicleState{Status: fleet.StatusInTransit}, KindInTransitWithoutTrip},
		{"available with trip", VehicleState{Status: fleet.StatusAvailable, ActiveTrips: 1}, KindAvailableWithTrip},
		{"two trips", VehicleState{Status: fleet.StatusInTransit, ActiveTrips: 2}, KindMultipleActiveTrips},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Classify(tc.state))
		})
	}
}

func TestRunReportsMismatchesAndSetsGauges(t *testing.T) {
	locker, client := newLocker(t)
	registry := prometheus.NewRegistry()
	metrics := jobmetrics.NewMetrics(registry)
	store := &fakeStore{states: []VehicleState{
		{VehicleID: uuid.New(), Number: "B 1", Status: fleet.StatusInTransit},
		{VehicleID: uuid.New(), Number: "B 2", Status: fleet.StatusAvailable},
		{VehicleID: uuid.New(), Number: "B 3", Status: fleet.StatusAvailable, ActiveTrips: 1},
	}}
	job := NewJob(store, locker, JobConfig{Logger: quietLogger(), Metrics: metrics})

	report, err := job.Run(context.Background())
	require.NoError(t, err)
	require.False(t, report.Skipped)
	require.Len(t, report.Mismatches, 2)
	require.Equal(t, KindInTransitWithoutTrip, report.Mismatches[0].Kind)
	require.Equal(t, "B 3", report.Mismatches[1].Number)

	gauge := func(kind Kind) float64 {
		g, err := metricGauge(registry, string(kind))
		require.NoError(t, err)
		return g
	}
	require.Equal(t, 1.0, gauge(KindInTransitWithoutTrip))
	require.Equal(t, 1.0, gauge(KindAvailableWithTrip))
	require.Equal(t, 0.0, gauge(KindMultipleActiveTrips))

	exists, err := client.Exists(context.Background(), shared.JobLockKey(jobName)).Result()
	require.NoError(t, err)
	require.Zero(t, exists, "lock must be released after the run")
}

func TestRunSkipsWhileLockHeld(t *testing.T) {
	locker, _ := newLocker(t)
	held, err := locker.Obtain(context.Background(), shared.JobLockKey(jobName), time.Minute, nil)
	require.NoError(t, err)
	defer held.Release(context.Background())

	store := &fakeStore{}
	job := NewJob(store, locker, JobConfig{Logger: quietLogger()})
	report, err := job.Run(context.Background())
	require.NoError(t, err)
	require.True(t, report.Skipped)
	require.Zero(t, store.calls)
}

func TestRunPropagatesStoreError(t *testing.T) {
	locker, _ := newLocker(t)
	boom := errors.New("db down")
	job := NewJob(&fakeStore{err: boom}, locker, JobConfig{Logger: quietLogger()})
	require.ErrorIs(t, job.Handle(context.Background(), nil), boom)
}

func TestRunRequiresStoreAndLocker(t *testing.T) {
	_, err := NewJob(nil, nil, JobConfig{}).Run(context.Background())
	require.Error(t, err)
}

func metricGauge(registry *prometheus.Registry, kind string) (float64, error) {
	families, err := registry.Gather()
	if err != nil {
		return 0, err
	}
	for _, family := range families {
		if family.GetName() != "godown_fleet_mismatches" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "kind" && label.GetValue() == kind {
					return m.GetGauge().GetValue(), nil
				}
			}
		}
	}
	return 0, errors.New("gauge not found: " + kind)
}
