// Package scheduler runs the nightly sweep at a fixed local hour. The clock
// is injectable so tests drive it synchronously, and a skip-if-running guard
// serializes runs: a slow sweep plus the next day's trigger never overlap.
package scheduler

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
)

// Job is the unit of work the scheduler fires once a day.
type Job func(ctx context.Context) error

// DailyScheduler triggers a job at the same wall-clock hour every day.
type DailyScheduler struct {
	hour    int
	job     Job
	now     func() time.Time
	log     zerolog.Logger
	running atomic.Bool
}

// NewDailyScheduler creates a scheduler firing at the given local hour
// (0-23).
func NewDailyScheduler(hour int, job Job, log zerolog.Logger) *DailyScheduler {
	if hour < 0 || hour > 23 {
		hour = 9
	}
	return &DailyScheduler{
		hour: hour,
		job:  job,
		now:  time.Now,
		log:  log,
	}
}

// SetClock overrides the time source. Tests use this to pin "now".
func (s *DailyScheduler) SetClock(now func() time.Time) {
	s.now = now
}

// NextRun returns the next trigger time strictly after the given instant.
func (s *DailyScheduler) NextRun(after time.Time) time.Time {
	next := time.Date(after.Year(), after.Month(), after.Day(), s.hour, 0, 0, 0, after.Location())
	if !next.After(after) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}

// Start runs the trigger loop until ctx is canceled. It blocks; callers run
// it on its own goroutine.
func (s *DailyScheduler) Start(ctx context.Context) {
	for {
		next := s.NextRun(s.now())
		timer := time.NewTimer(next.Sub(s.now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes the job immediately unless a previous run is still in
// flight, in which case the trigger is skipped. Returns whether the job ran.
func (s *DailyScheduler) RunOnce(ctx context.Context) bool {
	if !s.running.CompareAndSwap(false, true) {
		s.log.Warn().Msg("sweep still running, skipping trigger")
		return false
	}
	defer s.running.Store(false)

	if err := s.job(ctx); err != nil {
		s.log.Error().Err(err).Msg("scheduled sweep failed")
	}
	return true
}
