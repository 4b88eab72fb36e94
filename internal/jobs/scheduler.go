package jobs

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"learnhub/internal/observability"
)

// DefaultExpirySchedule runs the sweep daily at 03:15 UTC.
const DefaultExpirySchedule = "0 15 3 * * *"

// Scheduler runs jobs on cron schedules.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
}

// NewScheduler registers the runner's jobs. Schedules use six fields, seconds
// first, evaluated in UTC.
func NewScheduler(runner *Runner, expirySchedule string) (*Scheduler, error) {
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)
	if expirySchedule == "" {
		expirySchedule = DefaultExpirySchedule
	}
	if _, err := c.AddFunc(expirySchedule, runner.ExpireVerifications); err != nil {
		return nil, fmt.Errorf("register %s job: %w", JobExpireVerifications, err)
	}
	return &Scheduler{cron: c, runner: runner}, nil
}

func (s *Scheduler) Start() {
	observability.GlobalLogger.Info("starting cron scheduler", "jobs", len(s.cron.Entries()))
	s.cron.Start()
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	observability.GlobalLogger.Info("cron scheduler stopped")
}

// NextRun reports when the expiry sweep fires after t.
func (s *Scheduler) NextRun(t time.Time) time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Schedule.Next(t)
}
