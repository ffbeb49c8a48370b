// Package jobs runs scheduled background work.
package jobs

import (
	"context"
	"fmt"
	"time"

	"stockroom/internal/model"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
)

const (
	// snapshotTimeout bounds a single export snapshot run.
	snapshotTimeout = 5 * time.Minute
	driftTimeout    = 5 * time.Minute
)

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Snapshotter writes a catalogue export to file storage.
type Snapshotter interface {
	Snapshot(ctx context.Context) (string, error)
}

// DriftChecker compares stored quantities with the movement ledger.
type DriftChecker interface {
	Drift(ctx context.Context) ([]model.LedgerDrift, error)
}

// Scheduler runs the export snapshot and drift check jobs on cron schedules.
type Scheduler struct {
	sched    *cron.Cron
	snapshot Snapshotter
	logger   zerolog.Logger
}

// NewScheduler creates a scheduler in the named timezone. An empty schedule
// registers no job.
func NewScheduler(schedule, timezone string, snapshot Snapshotter, logger zerolog.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", timezone, err)
	}

	s := &Scheduler{
		sched:    cron.New(cron.WithLocation(loc), cron.WithParser(cronParser)),
		snapshot: snapshot,
		logger:   logger.With().Str("component", "jobs").Logger(),
	}

	if schedule != "" {
		if _, err := s.sched.AddFunc(schedule, s.runSnapshot); err != nil {
			return nil, fmt.Errorf("invalid snapshot schedule %q: %w", schedule, err)
		}
		s.logger.Info().Str("schedule", schedule).Str("timezone", timezone).Msg("export snapshot job registered")
	}

	return s, nil
}

// AddDriftCheck registers the ledger drift check. An empty schedule
// registers nothing.
func (s *Scheduler) AddDriftCheck(schedule string, checker DriftChecker) error {
	if schedule == "" {
		return nil
	}
	if _, err := s.sched.AddFunc(schedule, func() { s.runDriftCheck(checker) }); err != nil {
		return fmt.Errorf("invalid drift schedule %q: %w", schedule, err)
	}
	s.logger.Info().Str("schedule", schedule).Msg("ledger drift job registered")
	return nil
}

// Jobs returns the number of registered jobs.
func (s *Scheduler) Jobs() int {
	return len(s.sched.Entries())
}

// Start runs the scheduler in the background.
func (s *Scheduler) Start() {
	s.sched.Start()
}

// Stop halts the scheduler and waits for running jobs until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	select {
	case <-s.sched.Stop().Done():
	case <-ctx.Done():
		s.logger.Warn().Msg("scheduler stopped before running jobs finished")
	}
}

func (s *Scheduler) runSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), snapshotTimeout)
	defer cancel()

	start := time.Now()
	url, err := s.snapshot.Snapshot(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("export snapshot failed")
		return
	}

	s.logger.Info().
		Str("url", url).
		Dur("duration", time.Since(start)).
		Msg("export snapshot written")
}

func (s *Scheduler) runDriftCheck(checker DriftChecker) {
	ctx, cancel := context.WithTimeout(context.Background(), driftTimeout)
	defer cancel()

	drift, err := checker.Drift(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("ledger drift check failed")
		return
	}
	if len(drift) > 0 {
		s.logger.Warn().Int("products", len(drift)).Msg("quantities differ from the ledger")
		return
	}
	s.logger.Info().Msg("quantities match the ledger")
}
