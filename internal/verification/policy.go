package verification

import "strings"

const (
	// DefaultDaysGoodFor is how long an approved verification stays valid.
	DefaultDaysGoodFor = 365
	// DefaultExpiringSoonWindow is the number of days before expiry at which
	// learners are prompted to reverify.
	DefaultExpiringSoonWindow = 28
	// ModeVerified is the enrollment mode that requires identity verification.
	ModeVerified = "verified"
)

// Policy carries the tunables the resolver and state machine depend on.
// It replaces process-wide settings so every decision is explicit about its inputs.
type Policy struct {
	DaysGoodFor        int
	ExpiringSoonWindow int
	VerifiedModes      []string
}

// DefaultPolicy returns the production defaults.
func DefaultPolicy() Policy {
	return Policy{
		DaysGoodFor:        DefaultDaysGoodFor,
		ExpiringSoonWindow: DefaultExpiringSoonWindow,
		VerifiedModes:      []string{ModeVerified},
	}
}

// Normalize fills unset fields with defaults.
func (p Policy) Normalize() Policy {
	if p.DaysGoodFor <= 0 {
		p.DaysGoodFor = DefaultDaysGoodFor
	}
	if p.ExpiringSoonWindow < 0 {
		p.ExpiringSoonWindow = DefaultExpiringSoonWindow
	}
	if len(p.VerifiedModes) == 0 {
		p.VerifiedModes = []string{ModeVerified}
	}
	return p
}

// RequiresVerification reports whether an enrollment in mode needs ID verification.
func (p Policy) RequiresVerification(mode string) bool {
	mode = strings.ToLower(strings.TrimSpace(mode))
	if mode == "" {
		return false
	}
	for _, m := range p.VerifiedModes {
		if strings.EqualFold(strings.TrimSpace(m), mode) {
			return true
		}
	}
	return false
}
