package reconcile

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/hibiken/asynq"

	jobmetrics "github.com/godown-ops/godown/internal/jobs"
	"github.com/godown-ops/godown/internal/shared"
	"github.com/godown-ops/godown/jobs"
)

// DefaultLockTTL bounds how long one run may hold the single-runner lock.
const DefaultLockTTL = 5 * time.Minute

const jobName = "fleet_reconcile"

// Report summarises one run.
type Report struct {
	Skipped    bool
	Mismatches []Mismatch
}

// Job runs the reconciliation under a redis lock so only one worker audits
// at a time.
type Job struct {
	store   Store
	locker  *redislock.Client
	lockTTL time.Duration
	logger  *slog.Logger
	metrics *jobmetrics.Metrics
}

// JobConfig groups optional settings.
type JobConfig struct {
	LockTTL time.Duration
	Logger  *slog.Logger
	Metrics *jobmetrics.Metrics
}

// NewJob constructs Job.
func NewJob(store Store, locker *redislock.Client, cfg JobConfig) *Job {
	ttl := cfg.LockTTL
	if ttl <= 0 {
		ttl = DefaultLockTTL
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Job{store: store, locker: locker, lockTTL: ttl, logger: logger.With(slog.String("job", jobs.TaskFleetReconcile)), metrics: cfg.Metrics}
}

// Handle is the asynq entry point.
func (j *Job) Handle(ctx context.Context, _ *asynq.Task) error {
	_, err := j.Run(ctx)
	return err
}

// Run performs one audit. A run that cannot take the lock is skipped.
func (j *Job) Run(ctx context.Context) (report Report, err error) {
	if j == nil || j.store == nil || j.locker == nil {
		return Report{}, errors.New("fleet reconcile: job not configured")
	}
	lock, err := j.locker.Obtain(ctx, shared.JobLockKey(jobName), j.lockTTL, nil)
	if errors.Is(err, redislock.ErrNotObtained) {
		j.logger.Info("another worker holds the reconcile lock, skipping")
		return Report{Skipped: true}, nil
	}
	if err != nil {
		return Report{}, err
	}
	defer func() {
		if rerr := lock.Release(context.WithoutCancel(ctx)); rerr != nil && !errors.Is(rerr, redislock.ErrLockNotHeld) {
			j.logger.Warn("release reconcile lock", slog.Any("error", rerr))
		}
	}()

	tracker := j.metrics.Track(jobName)
	defer func() { err = tracker.End(err) }()

	start := time.Now()
	mismatches, err := Find(ctx, j.store)
	if err != nil {
		j.logger.Error("reconcile failed", slog.Any("error", err))
		return Report{}, err
	}
	counts := make(map[Kind]int, len(Kinds))
	for _, m := range mismatches {
		counts[m.Kind]++
		j.logger.Warn("fleet mismatch",
			slog.String("kind", string(m.Kind)),
			slog.String("vehicle_id", m.VehicleID.String()),
			slog.String("warehouse_id", m.WarehouseID.String()),
			slog.String("number", m.Number),
			slog.String("status", string(m.Status)),
			slog.Int("active_trips", m.ActiveTrips),
		)
	}
	for _, kind := range Kinds {
		j.metrics.SetMismatches(string(kind), counts[kind])
	}
	j.logger.Info("fleet reconcile completed", slog.Int("mismatches", len(mismatches)), slog.Duration("duration", time.Since(start)))
	return Report{Mismatches: mismatches}, nil
}
