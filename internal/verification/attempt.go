package verification

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// AttemptStatus is the lifecycle state of a photo verification attempt.
type AttemptStatus string

const (
	// AttemptCreated is a freshly started attempt with no photos.
	AttemptCreated AttemptStatus = "created"
	// AttemptReady has photos captured but not yet sent for review.
	AttemptReady AttemptStatus = "ready"
	// AttemptSubmitted was sent for review.
	AttemptSubmitted AttemptStatus = "submitted"
	// AttemptApproved passed review.
	AttemptApproved AttemptStatus = "approved"
	// AttemptDenied failed review.
	AttemptDenied AttemptStatus = "denied"
	// AttemptMustRetry hit a system error and has to be submitted again.
	AttemptMustRetry AttemptStatus = "must_retry"
	// AttemptExpired is an approval whose validity window has lapsed.
	AttemptExpired AttemptStatus = "expired"
)

// Known reports whether s is one of the defined attempt states.
func (s AttemptStatus) Known() bool {
	switch s {
	case AttemptCreated, AttemptReady, AttemptSubmitted, AttemptApproved,
		AttemptDenied, AttemptMustRetry, AttemptExpired:
		return true
	}
	return false
}

// ErrInvalidTransition is returned when an attempt cannot move to the requested state.
var ErrInvalidTransition = errors.New("invalid verification attempt transition")

// Attempt is an immutable snapshot of one verification attempt.
type Attempt struct {
	ID              uint
	UserID          uint
	Status          AttemptStatus
	CreatedAt       time.Time
	SubmittedAt     *time.Time
	ReviewedAt      *time.Time
	ExpirationDate  *time.Time
	ReviewingUserID *uint
	ErrorMessage    string
	HiddenFromUser  bool
}

// ExpirationDatetime is when the attempt stops counting as valid: the explicit
// expiration date when set, otherwise daysGoodFor days after creation.
func (a Attempt) ExpirationDatetime(daysGoodFor int) time.Time {
	if a.ExpirationDate != nil {
		return *a.ExpirationDate
	}
	return a.CreatedAt.Add(days(daysGoodFor))
}

// ActiveAt reports whether the attempt was created before t and had not expired by t.
func (a Attempt) ActiveAt(t time.Time, daysGoodFor int) bool {
	return a.CreatedAt.Before(t) && a.ExpirationDatetime(daysGoodFor).After(t)
}

// NewAttempt starts an attempt for userID.
func NewAttempt(userID uint, now time.Time) Attempt {
	return Attempt{UserID: userID, Status: AttemptCreated, CreatedAt: now}
}

// MarkReady records that both photos were captured.
func MarkReady(a Attempt) (Attempt, error) {
	if err := requireStatus(a, "mark ready", AttemptCreated); err != nil {
		return a, err
	}
	a.Status = AttemptReady
	return a, nil
}

// Submit sends the attempt for review.
func Submit(a Attempt, now time.Time) (Attempt, error) {
	if err := requireStatus(a, "submit", AttemptReady, AttemptMustRetry, AttemptSubmitted); err != nil {
		return a, err
	}
	a.Status = AttemptSubmitted
	a.SubmittedAt = timePtr(now)
	a.ErrorMessage = ""
	return a, nil
}

// Approve marks the attempt approved and starts its validity window.
// Approving an approved attempt is a no-op.
func Approve(a Attempt, reviewerID uint, now time.Time, p Policy) (Attempt, error) {
	if a.Status == AttemptApproved {
		return a, nil
	}
	if err := requireStatus(a, "approve", AttemptSubmitted, AttemptDenied); err != nil {
		return a, err
	}
	p = p.Normalize()
	a.Status = AttemptApproved
	a.ReviewedAt = timePtr(now)
	a.ExpirationDate = timePtr(now.Add(days(p.DaysGoodFor)))
	a.ErrorMessage = ""
	if reviewerID != 0 {
		a.ReviewingUserID = uintPtr(reviewerID)
	}
	return a, nil
}

// Deny marks the attempt denied with a reason shown to the learner.
func Deny(a Attempt, reviewerID uint, reason string, now time.Time) (Attempt, error) {
	if err := requireStatus(a, "deny", AttemptSubmitted, AttemptApproved, AttemptDenied); err != nil {
		return a, err
	}
	a.Status = AttemptDenied
	a.ReviewedAt = timePtr(now)
	a.ErrorMessage = reason
	if reviewerID != 0 {
		a.ReviewingUserID = uintPtr(reviewerID)
	}
	return a, nil
}

// SystemError records a review-side failure; the learner must resubmit.
func SystemError(a Attempt, message string) (Attempt, error) {
	if err := requireStatus(a, "record system error", AttemptMustRetry, AttemptSubmitted, AttemptApproved, AttemptDenied); err != nil {
		return a, err
	}
	a.Status = AttemptMustRetry
	a.ErrorMessage = message
	return a, nil
}

// Expire moves a lapsed approval to AttemptExpired.
func Expire(a Attempt, now time.Time, p Policy) (Attempt, error) {
	if err := requireStatus(a, "expire", AttemptApproved); err != nil {
		return a, err
	}
	p = p.Normalize()
	if a.ExpirationDatetime(p.DaysGoodFor).After(now) {
		return a, fmt.Errorf("%w: approval still valid until %s", ErrInvalidTransition,
			a.ExpirationDatetime(p.DaysGoodFor).Format(time.RFC3339))
	}
	a.Status = AttemptExpired
	return a, nil
}

// NewestFirst returns a copy of attempts ordered by creation time, newest first.
// Ties fall back to the higher ID so the order is total.
func NewestFirst(attempts []Attempt) []Attempt {
	out := make([]Attempt, len(attempts))
	copy(out, attempts)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func requireStatus(a Attempt, op string, allowed ...AttemptStatus) error {
	for _, s := range allowed {
		if a.Status == s {
			return nil
		}
	}
	return fmt.Errorf("%w: cannot %s from %q", ErrInvalidTransition, op, a.Status)
}

func days(n int) time.Duration {
	return time.Duration(n) * 24 * time.Hour
}

func timePtr(t time.Time) *time.Time {
	return &t
}

func uintPtr(v uint) *uint {
	return &v
}
