// Package jobs runs the scheduled maintenance work of the verification
// service.
package jobs

import (
	"context"
	"fmt"
	"time"

	"learnhub/internal/observability"
)

const (
	JobExpireVerifications = "expire_verifications"

	defaultJobTimeout = 5 * time.Minute
)

// Sweeper expires lapsed approvals and reports how many changed.
type Sweeper interface {
	ExpireStale(ctx context.Context) (int, error)
}

// Runner holds the job implementations.
type Runner struct {
	sweeper Sweeper
	timeout time.Duration
}

func NewRunner(sweeper Sweeper) *Runner {
	return &Runner{sweeper: sweeper, timeout: defaultJobTimeout}
}

// ExpireVerifications moves lapsed approvals to expired.
func (r *Runner) ExpireVerifications() {
	r.runWithRecovery(JobExpireVerifications, func(ctx context.Context) error {
		n, err := r.sweeper.ExpireStale(ctx)
		if err != nil {
			return fmt.Errorf("expired %d before failing: %w", n, err)
		}
		observability.LogJobDone(ctx, JobExpireVerifications, "expired", n)
		return nil
	})
}

// RunAll runs every job once, for manual execution.
func (r *Runner) RunAll() {
	r.ExpireVerifications()
}

// runWithRecovery gives each run its own correlation ID and deadline, and
// turns panics into logged failures.
func (r *Runner) runWithRecovery(job string, fn func(ctx context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()
	ctx = observability.WithCorrelationID(ctx, observability.GenerateCorrelationID())

	var err error
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("job panicked: %v", p)
		}
		if err != nil {
			observability.LogJobFailed(ctx, job, err)
		}
		observability.JobRuns.WithLabelValues(job, observability.Result(err)).Inc()
	}()

	observability.LogJobStart(ctx, job)
	err = fn(ctx)
}
