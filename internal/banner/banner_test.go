package banner

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"learnhub/internal/verification"
)

func TestModeClass(t *testing.T) {
	expected := map[verification.Status]string{
		verification.StatusNone:           "audit",
		verification.StatusNeedToVerify:   "verified",
		verification.StatusSubmitted:      "verified",
		verification.StatusApproved:       "verified",
		verification.StatusMissedDeadline: "audit",
		verification.StatusNeedToReverify: "audit",
		verification.StatusResubmitted:    "audit",
	}
	for status, class := range expected {
		assert.Equal(t, class, ModeClass(status), status.String())
	}
}

func TestCourse_Copy(t *testing.T) {
	r := NewRenderer("Learnhub")
	four := 4
	expiry := time.Date(2027, time.February, 3, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		res      verification.Result
		alt      string
		contains string
		daysLeft string
		until    string
	}{
		{
			name:     "need to verify with deadline",
			res:      verification.Result{Status: verification.StatusNeedToVerify, DaysUntilDeadline: &four, ShouldDisplay: true},
			alt:      "ID verification pending",
			contains: "You still need to verify for this course.",
			daysLeft: "You only have 4 days left to verify for this course.",
		},
		{
			name:     "need to verify without deadline",
			res:      verification.Result{Status: verification.StatusNeedToVerify, ShouldDisplay: true},
			alt:      "ID verification pending",
			contains: "Verification not yet complete",
		},
		{
			name:     "submitted",
			res:      verification.Result{Status: verification.StatusSubmitted, DaysUntilDeadline: &four},
			alt:      "ID verification pending",
			contains: "You have submitted your verification information.",
		},
		{
			name:     "approved uses platform name and expiry",
			res:      verification.Result{Status: verification.StatusApproved, VerificationExpiry: &expiry},
			alt:      "ID Verified Ribbon/Badge",
			contains: "You have successfully verified your ID with Learnhub",
			until:    "02/03/2027",
		},
		{
			name:     "resubmitted",
			res:      verification.Result{Status: verification.StatusResubmitted},
			contains: "You have submitted your reverification information.",
		},
		{
			name:     "need to reverify",
			res:      verification.Result{Status: verification.StatusNeedToReverify, VerificationExpiry: &expiry},
			contains: "Your current verification will expire soon.",
			until:    "02/03/2027",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := r.Course(tt.res)
			assert.Equal(t, tt.alt, b.AltText)
			assert.Contains(t, b.Messages, tt.contains)
			assert.Equal(t, tt.daysLeft, b.DaysLeft)
			assert.Equal(t, tt.until, b.VerifiedUntil)
			assert.Equal(t, tt.res.ShouldDisplay, b.Display)
		})
	}
}

func TestCourse_NoneHasNoCopy(t *testing.T) {
	b := NewRenderer("").Course(verification.Result{})
	assert.Equal(t, "none", b.Status)
	assert.Equal(t, "audit", b.ModeClass)
	assert.Empty(t, b.AltText)
	assert.Empty(t, b.Messages)
	assert.Empty(t, b.DaysLeft)
}

func TestNewRenderer_DefaultPlatform(t *testing.T) {
	assert.Equal(t, "edX", NewRenderer("  ").PlatformName)
}

func TestSidebar(t *testing.T) {
	r := NewRenderer("edX")

	assert.Equal(t, Sidebar{}, r.Sidebar(true, true, true))
	assert.Equal(t, Sidebar{}, r.Sidebar(true, true, false))
	assert.Equal(t, Sidebar{Visible: true}, r.Sidebar(false, true, false))
	assert.Equal(t, Sidebar{Visible: true, ShowResubmit: true, ResubmitLabel: "Resubmit Verification"}, r.Sidebar(false, true, true))
}

func TestSidebar_HiddenBeforeFirstApproval(t *testing.T) {
	r := NewRenderer("edX")

	assert.Equal(t, Sidebar{}, r.Sidebar(false, false, false))
	assert.False(t, r.Sidebar(false, false, true).Visible)
}

func TestDaysLeft_Singular(t *testing.T) {
	assert.Equal(t, "You only have 1 day left to verify for this course.", daysLeft(1))
}
