// Package banner turns resolved verification statuses into the dashboard
// presentation: course card colour, ribbon alt text and notification copy.
package banner

import (
	"fmt"
	"strings"

	"learnhub/internal/verification"
)

// DateLayout is how verification expiry dates are shown to learners.
const DateLayout = "01/02/2006"

const (
	ModeClassAudit    = "audit"
	ModeClassVerified = "verified"

	ResubmitLabel = "Resubmit Verification"
)

// Banner is the per-course presentation of a verification status.
type Banner struct {
	Status        string   `json:"status"`
	ModeClass     string   `json:"mode_class"`
	AltText       string   `json:"alt_text,omitempty"`
	Messages      []string `json:"messages,omitempty"`
	DaysLeft      string   `json:"days_left,omitempty"`
	VerifiedUntil string   `json:"verified_until,omitempty"`
	Display       bool     `json:"display"`
}

// Sidebar is the learner-level verification panel next to the course list.
type Sidebar struct {
	Visible       bool   `json:"visible"`
	ShowResubmit  bool   `json:"show_resubmit"`
	ResubmitLabel string `json:"resubmit_label,omitempty"`
}

// Renderer holds the copy settings shared by every banner.
type Renderer struct {
	PlatformName string
}

// NewRenderer returns a renderer for platformName, defaulting to "edX".
func NewRenderer(platformName string) Renderer {
	platformName = strings.TrimSpace(platformName)
	if platformName == "" {
		platformName = "edX"
	}
	return Renderer{PlatformName: platformName}
}

// ModeClass is the course card colour for a status.
func ModeClass(s verification.Status) string {
	switch s {
	case verification.StatusNeedToVerify, verification.StatusSubmitted, verification.StatusApproved:
		return ModeClassVerified
	default:
		return ModeClassAudit
	}
}

// AltText is the ribbon image alt text; empty when no ribbon is shown.
func AltText(s verification.Status) string {
	switch s {
	case verification.StatusNeedToVerify, verification.StatusSubmitted:
		return "ID verification pending"
	case verification.StatusApproved:
		return "ID Verified Ribbon/Badge"
	default:
		return ""
	}
}

func (r Renderer) messages(res verification.Result) []string {
	switch res.Status {
	case verification.StatusNeedToVerify:
		if res.DaysUntilDeadline != nil {
			return []string{"You still need to verify for this course."}
		}
		return []string{"Verification not yet complete"}
	case verification.StatusSubmitted:
		return []string{"You have submitted your verification information."}
	case verification.StatusResubmitted:
		return []string{"You have submitted your reverification information."}
	case verification.StatusApproved:
		return []string{"You have successfully verified your ID with " + r.PlatformName}
	case verification.StatusNeedToReverify:
		return []string{"Your current verification will expire soon."}
	case verification.StatusMissedDeadline:
		return []string{"You did not meet the deadline to verify your identity for this course."}
	}
	return nil
}

// Course renders the banner for one resolved enrollment.
func (r Renderer) Course(res verification.Result) Banner {
	b := Banner{
		Status:    res.Status.String(),
		ModeClass: ModeClass(res.Status),
		AltText:   AltText(res.Status),
		Messages:  r.messages(res),
		Display:   res.ShouldDisplay,
	}

	if res.DaysUntilDeadline != nil &&
		(res.Status == verification.StatusNeedToVerify || res.Status == verification.StatusNeedToReverify) {
		b.DaysLeft = daysLeft(*res.DaysUntilDeadline)
	}

	if res.VerificationExpiry != nil &&
		(res.Status == verification.StatusApproved || res.Status == verification.StatusNeedToReverify) {
		b.VerifiedUntil = res.VerificationExpiry.Format(DateLayout)
	}
	return b
}

// Sidebar renders the learner panel. It appears only once the learner has
// been approved, and never when an enrolled course carries an integrity
// signature.
func (r Renderer) Sidebar(integritySignature, approved, expiringSoon bool) Sidebar {
	if integritySignature || !approved {
		return Sidebar{}
	}
	s := Sidebar{Visible: true, ShowResubmit: expiringSoon}
	if expiringSoon {
		s.ResubmitLabel = ResubmitLabel
	}
	return s
}

func daysLeft(n int) string {
	if n == 1 {
		return "You only have 1 day left to verify for this course."
	}
	return fmt.Sprintf("You only have %d days left to verify for this course.", n)
}
