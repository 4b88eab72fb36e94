package verification

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrUnknownAttemptStatus marks a relevant attempt whose status the resolver
// does not recognise. The course gets no status; callers should log it.
var ErrUnknownAttemptStatus = errors.New("unknown verification attempt status")

// Enrollment is the part of a course enrollment the resolver looks at.
type Enrollment struct {
	CourseKey string
	Mode      string
}

// Input is everything needed to decide the status of one enrollment.
type Input struct {
	Enrollment Enrollment
	// Deadline is the course verification deadline; nil means none.
	Deadline *time.Time
	// Attempts are all of the learner's attempts, in any order.
	Attempts []Attempt
	// IntegritySignature suppresses verification messaging for the course.
	IntegritySignature bool
}

// Result is the resolved status for one enrollment.
type Result struct {
	CourseKey string
	Status    Status
	// DaysUntilDeadline is set when a status is shown and the deadline is in the future.
	DaysUntilDeadline *int
	// ShouldDisplay is false when the relevant attempt is hidden from the learner.
	ShouldDisplay bool
	// VerificationExpiry is the expiry of the approval covering the course, if any.
	VerificationExpiry *time.Time
	// Anomaly is non-nil when the input held something unexpected.
	Anomaly error
}

// Resolver maps enrollments and attempts to dashboard statuses.
type Resolver struct {
	policy Policy
}

// NewResolver returns a resolver bound to p.
func NewResolver(p Policy) *Resolver {
	return &Resolver{policy: p.Normalize()}
}

// Policy returns the normalized policy in use.
func (r *Resolver) Policy() Policy {
	return r.policy
}

// learnerState is derived once per learner from the full attempt history.
type learnerState struct {
	verified        bool
	validOrPending  bool
	expiringSoon    bool
	approvalExpires *time.Time
}

func (r *Resolver) learnerState(attempts []Attempt, now time.Time) learnerState {
	var st learnerState
	for _, a := range attempts {
		exp := a.ExpirationDatetime(r.policy.DaysGoodFor)
		switch a.Status {
		case AttemptApproved, AttemptExpired:
			if st.approvalExpires == nil || exp.After(*st.approvalExpires) {
				st.approvalExpires = timePtr(exp)
			}
			if a.Status == AttemptApproved && exp.After(now) {
				st.verified = true
				st.validOrPending = true
			}
		case AttemptSubmitted, AttemptMustRetry:
			if exp.After(now) {
				st.validOrPending = true
			}
		}
	}
	if st.approvalExpires != nil {
		st.expiringSoon = wholeDays(st.approvalExpires.Sub(now)) <= r.policy.ExpiringSoonWindow
	}
	return st
}

// ExpiringSoon reports whether the learner's latest approval lapses within the
// expiring-soon window. Lapsed approvals count as expiring soon.
func (r *Resolver) ExpiringSoon(attempts []Attempt, now time.Time) bool {
	return r.learnerState(attempts, now).expiringSoon
}

// HasApproval reports whether the learner was ever approved, counting
// approvals that have since expired.
func HasApproval(attempts []Attempt) bool {
	for _, a := range attempts {
		if a.Status == AttemptApproved || a.Status == AttemptExpired {
			return true
		}
	}
	return false
}

// relevantAttempt picks the attempt that decides the course status. Without a
// deadline it is the newest attempt; with one it is the newest attempt that was
// active at the deadline. attempts must be newest first.
func (r *Resolver) relevantAttempt(deadline *time.Time, attempts []Attempt) *Attempt {
	if deadline == nil {
		if len(attempts) == 0 {
			return nil
		}
		return &attempts[0]
	}
	for i := range attempts {
		if attempts[i].ActiveAt(*deadline, r.policy.DaysGoodFor) {
			return &attempts[i]
		}
	}
	return nil
}

// approvalLapsedBy reports whether an approval ran out at or before the
// deadline. Expired attempts are approvals the sweep has already retired.
func (r *Resolver) approvalLapsedBy(deadline time.Time, attempts []Attempt) bool {
	for _, a := range attempts {
		if a.Status != AttemptApproved && a.Status != AttemptExpired {
			continue
		}
		if !a.ExpirationDatetime(r.policy.DaysGoodFor).After(deadline) {
			return true
		}
	}
	return false
}

// Resolve decides the dashboard status of a single enrollment at now.
func (r *Resolver) Resolve(in Input, now time.Time) Result {
	attempts := NewestFirst(in.Attempts)
	return r.resolve(in, attempts, r.learnerState(attempts, now), now)
}

func (r *Resolver) resolve(in Input, attempts []Attempt, st learnerState, now time.Time) Result {
	res := Result{CourseKey: in.Enrollment.CourseKey, ShouldDisplay: true}

	if !r.policy.RequiresVerification(in.Enrollment.Mode) || in.IntegritySignature {
		return res
	}

	relevant := r.relevantAttempt(in.Deadline, attempts)

	status := StatusNone
	if relevant != nil {
		res.ShouldDisplay = !relevant.HiddenFromUser
		switch relevant.Status {
		case AttemptApproved, AttemptExpired:
			res.VerificationExpiry = timePtr(relevant.ExpirationDatetime(r.policy.DaysGoodFor))
			if st.expiringSoon {
				status = StatusNeedToReverify
			} else {
				status = StatusApproved
			}
		case AttemptSubmitted:
			if st.expiringSoon {
				status = StatusResubmitted
			} else {
				status = StatusSubmitted
			}
		default:
			if !relevant.Status.Known() {
				res.Anomaly = fmt.Errorf("%w: attempt %d has status %q", ErrUnknownAttemptStatus, relevant.ID, relevant.Status)
			}
		}
	}

	// Denied and errored attempts count as submitted: the sidebar already
	// explains them, so the course itself shows nothing.
	submitted := relevant != nil &&
		relevant.Status != AttemptCreated &&
		relevant.Status != AttemptReady

	if status == StatusNone && !submitted {
		if in.Deadline == nil || in.Deadline.After(now) {
			switch {
			case st.verified && st.expiringSoon:
				status = StatusNeedToReverify
			case !st.verified || relevant == nil:
				// Nothing covers the deadline, even if an approval is valid today.
				status = StatusNeedToVerify
			}
		} else if st.validOrPending && !r.approvalLapsedBy(*in.Deadline, attempts) {
			// Support may ask a learner to reverify after the deadline; a pending
			// or valid attempt still earns the verified track unless an earlier
			// approval had already run out by the deadline.
			status = StatusApproved
		} else {
			status = StatusMissedDeadline
		}
	}

	res.Status = status
	if status != StatusNone && in.Deadline != nil && in.Deadline.After(now) {
		d := wholeDays(in.Deadline.Sub(now))
		res.DaysUntilDeadline = &d
	}
	return res
}

// Dashboard is the set of inputs for every course on a learner's dashboard.
type Dashboard struct {
	Enrollments []Enrollment
	// Deadlines maps course key to deadline; missing keys have no deadline.
	Deadlines map[string]time.Time
	// IntegritySignature reports whether a course suppresses verification messaging.
	IntegritySignature func(courseKey string) bool
	Attempts           []Attempt
}

// ResolveDashboard resolves every enrollment. The verification expiry shown on
// each course is the latest expiry among the approvals that cover any course.
func (r *Resolver) ResolveDashboard(d Dashboard, now time.Time) []Result {
	attempts := NewestFirst(d.Attempts)
	st := r.learnerState(attempts, now)

	results := make([]Result, 0, len(d.Enrollments))
	var latest *time.Time
	for _, e := range d.Enrollments {
		in := Input{Enrollment: e, Attempts: attempts}
		if dl, ok := d.Deadlines[e.CourseKey]; ok {
			dl := dl
			in.Deadline = &dl
		}
		if d.IntegritySignature != nil {
			in.IntegritySignature = d.IntegritySignature(e.CourseKey)
		}
		res := r.resolve(in, attempts, st, now)
		if res.VerificationExpiry != nil && (latest == nil || res.VerificationExpiry.After(*latest)) {
			latest = res.VerificationExpiry
		}
		results = append(results, res)
	}

	for i := range results {
		if results[i].Status != StatusNone && latest != nil {
			results[i].VerificationExpiry = timePtr(*latest)
		}
	}
	return results
}

// wholeDays floors d to whole days, rounding toward negative infinity.
func wholeDays(d time.Duration) int {
	return int(math.Floor(d.Hours() / 24))
}
