package jobs

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/internal/observability"
)

type sweeperStub struct {
	calls atomic.Int32
	fn    func(ctx context.Context) (int, error)
}

func (s *sweeperStub) ExpireStale(ctx context.Context) (int, error) {
	s.calls.Add(1)
	return s.fn(ctx)
}

func TestRunner_ExpireVerifications(t *testing.T) {
	var sawCorrelation, sawDeadline bool
	sweeper := &sweeperStub{fn: func(ctx context.Context) (int, error) {
		sawCorrelation = observability.ExtractCorrelationID(ctx) != ""
		_, sawDeadline = ctx.Deadline()
		return 3, nil
	}}

	NewRunner(sweeper).RunAll()

	assert.Equal(t, int32(1), sweeper.calls.Load())
	assert.True(t, sawCorrelation)
	assert.True(t, sawDeadline)
}

func TestRunner_RecoversFromPanicsAndErrors(t *testing.T) {
	panicking := &sweeperStub{fn: func(context.Context) (int, error) { panic("boom") }}
	assert.NotPanics(t, func() { NewRunner(panicking).ExpireVerifications() })

	failing := &sweeperStub{fn: func(context.Context) (int, error) { return 1, errors.New("db down") }}
	assert.NotPanics(t, func() { NewRunner(failing).ExpireVerifications() })
	assert.Equal(t, int32(1), failing.calls.Load())
}

func TestNewScheduler(t *testing.T) {
	runner := NewRunner(&sweeperStub{fn: func(context.Context) (int, error) { return 0, nil }})

	s, err := NewScheduler(runner, "")
	require.NoError(t, err)
	from := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2026, time.March, 2, 3, 15, 0, 0, time.UTC), s.NextRun(from))

	_, err = NewScheduler(runner, "not a schedule")
	assert.Error(t, err)

	// Five-field expressions are rejected: schedules carry seconds.
	_, err = NewScheduler(runner, "15 3 * * *")
	assert.Error(t, err)
}

func TestScheduler_RunsJobs(t *testing.T) {
	sweeper := &sweeperStub{fn: func(context.Context) (int, error) { return 0, nil }}
	s, err := NewScheduler(NewRunner(sweeper), "* * * * * *")
	require.NoError(t, err)

	s.Start()
	assert.Eventually(t, func() bool { return sweeper.calls.Load() > 0 }, 3*time.Second, 50*time.Millisecond)
	s.Stop()
}
