package verification

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttempt_HappyPath(t *testing.T) {
	a := NewAttempt(7, now.Add(-time.Hour))
	assert.Equal(t, AttemptCreated, a.Status)

	a, err := MarkReady(a)
	require.NoError(t, err)
	assert.Equal(t, AttemptReady, a.Status)

	a, err = Submit(a, now.Add(-30*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, AttemptSubmitted, a.Status)
	require.NotNil(t, a.SubmittedAt)

	a, err = Approve(a, 99, now, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, AttemptApproved, a.Status)
	require.NotNil(t, a.ExpirationDate)
	assert.True(t, a.ExpirationDate.Equal(now.Add(365*day)))
	require.NotNil(t, a.ReviewingUserID)
	assert.Equal(t, uint(99), *a.ReviewingUserID)
}

func TestAttempt_ApproveIsIdempotent(t *testing.T) {
	a := attempt(1, AttemptApproved, -time.Hour, at(10*day))
	again, err := Approve(a, 5, now, DefaultPolicy())
	require.NoError(t, err)
	assert.Equal(t, a, again)
}

func TestAttempt_TransitionsDoNotMutateInput(t *testing.T) {
	a := attempt(1, AttemptSubmitted, -time.Hour, nil)
	_, err := Deny(a, 3, "blurry photo", now)
	require.NoError(t, err)
	assert.Equal(t, AttemptSubmitted, a.Status)
	assert.Empty(t, a.ErrorMessage)
}

func TestAttempt_Transitions(t *testing.T) {
	p := DefaultPolicy()
	ops := map[string]func(Attempt) (Attempt, error){
		"mark_ready":   MarkReady,
		"submit":       func(a Attempt) (Attempt, error) { return Submit(a, now) },
		"approve":      func(a Attempt) (Attempt, error) { return Approve(a, 1, now, p) },
		"deny":         func(a Attempt) (Attempt, error) { return Deny(a, 1, "no", now) },
		"system_error": func(a Attempt) (Attempt, error) { return SystemError(a, "timeout") },
	}
	allowed := map[string][]AttemptStatus{
		"mark_ready":   {AttemptCreated},
		"submit":       {AttemptReady, AttemptMustRetry, AttemptSubmitted},
		"approve":      {AttemptSubmitted, AttemptApproved, AttemptDenied},
		"deny":         {AttemptSubmitted, AttemptApproved, AttemptDenied},
		"system_error": {AttemptMustRetry, AttemptSubmitted, AttemptApproved, AttemptDenied},
	}
	all := []AttemptStatus{AttemptCreated, AttemptReady, AttemptSubmitted, AttemptApproved,
		AttemptDenied, AttemptMustRetry, AttemptExpired}

	for name, op := range ops {
		for _, from := range all {
			ok := false
			for _, s := range allowed[name] {
				if s == from {
					ok = true
				}
			}
			_, err := op(attempt(1, from, -time.Hour, nil))
			if ok {
				assert.NoError(t, err, "%s from %s", name, from)
			} else {
				assert.True(t, errors.Is(err, ErrInvalidTransition), "%s from %s", name, from)
			}
		}
	}
}

func TestAttempt_SubmitClearsError(t *testing.T) {
	a := attempt(1, AttemptMustRetry, -time.Hour, nil)
	a.ErrorMessage = "vendor timeout"
	a, err := Submit(a, now)
	require.NoError(t, err)
	assert.Empty(t, a.ErrorMessage)
}

func TestAttempt_Expire(t *testing.T) {
	p := DefaultPolicy()

	_, err := Expire(attempt(1, AttemptApproved, -400*day, at(day)), now, p)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	expired, err := Expire(attempt(1, AttemptApproved, -400*day, at(-day)), now, p)
	require.NoError(t, err)
	assert.Equal(t, AttemptExpired, expired.Status)

	// No explicit expiration: falls back to creation plus the validity window.
	expired, err = Expire(attempt(2, AttemptApproved, -366*day, nil), now, p)
	require.NoError(t, err)
	assert.Equal(t, AttemptExpired, expired.Status)

	_, err = Expire(attempt(3, AttemptDenied, -400*day, nil), now, p)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestAttempt_ActiveAt(t *testing.T) {
	a := attempt(1, AttemptSubmitted, -10*day, nil)
	assert.True(t, a.ActiveAt(now, 365))
	assert.False(t, a.ActiveAt(now.Add(-11*day), 365))
	assert.False(t, a.ActiveAt(now.Add(360*day), 365))
}

func TestNewestFirst(t *testing.T) {
	in := []Attempt{
		attempt(1, AttemptDenied, -3*day, nil),
		attempt(3, AttemptSubmitted, -day, nil),
		attempt(2, AttemptSubmitted, -day, nil),
		attempt(4, AttemptCreated, -2*day, nil),
	}
	out := NewestFirst(in)

	ids := make([]uint, 0, len(out))
	for _, a := range out {
		ids = append(ids, a.ID)
	}
	assert.Equal(t, []uint{3, 2, 4, 1}, ids)
	assert.Equal(t, uint(1), in[0].ID)
}
