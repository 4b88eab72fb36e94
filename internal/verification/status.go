// Package verification decides which identity-verification status a learner's
// dashboard shows for each course, and models the lifecycle of a photo
// verification attempt.
//
// Everything in this package is pure: callers supply enrollments, deadlines,
// attempts and the current time, and get values back. Persistence, caching
// and rendering live elsewhere.
package verification

// Status is the verification state displayed next to a course on the dashboard.
type Status string

const (
	// StatusNone means no verification messaging is shown for the course.
	StatusNone Status = ""
	// StatusNeedToVerify asks the learner to start (or finish) verifying.
	StatusNeedToVerify Status = "verify_need_to_verify"
	// StatusSubmitted means photos were submitted and are awaiting review.
	StatusSubmitted Status = "verify_submitted"
	// StatusResubmitted means a reverification was submitted while the current
	// approval is about to lapse.
	StatusResubmitted Status = "re_verify_submitted"
	// StatusApproved means the learner holds a verification covering the course.
	StatusApproved Status = "verify_approved"
	// StatusMissedDeadline means the course deadline passed without a valid verification.
	StatusMissedDeadline Status = "verify_missed_deadline"
	// StatusNeedToReverify means the current approval expires soon.
	StatusNeedToReverify Status = "verify_need_to_reverify"
)

// AllStatuses lists every displayable status, in a stable order.
var AllStatuses = []Status{
	StatusNeedToVerify,
	StatusSubmitted,
	StatusResubmitted,
	StatusApproved,
	StatusMissedDeadline,
	StatusNeedToReverify,
}

// String returns the wire value, or "none" for StatusNone.
func (s Status) String() string {
	if s == StatusNone {
		return "none"
	}
	return string(s)
}

// IsNone reports whether no status is displayed.
func (s Status) IsNone() bool {
	return s == StatusNone
}
