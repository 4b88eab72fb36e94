package notifications

import (
	"context"
	"fmt"
	"html"
	"time"
)

const (
	TemplateVerificationApproved = "verification_approved"
	TemplateVerificationDenied   = "verification_denied"
)

// Recipient is the learner an e-mail is addressed to.
type Recipient struct {
	Email string
	Name  string
}

// VerificationNotifier renders and sends verification result e-mails.
type VerificationNotifier struct {
	emailer      Emailer
	platformName string
}

// NewVerificationNotifier returns a notifier. A nil emailer logs instead of sending.
func NewVerificationNotifier(emailer Emailer, platformName string) *VerificationNotifier {
	if emailer == nil {
		emailer = LogEmailer{}
	}
	if platformName == "" {
		platformName = "edX"
	}
	return &VerificationNotifier{emailer: emailer, platformName: platformName}
}

// Approved tells the learner their ID was verified and until when.
func (n *VerificationNotifier) Approved(ctx context.Context, to Recipient, expires time.Time) error {
	until := expires.UTC().Format("01/02/2006")
	text := fmt.Sprintf("Hi %s,\n\nYou have successfully verified your ID with %s. Your verification is good until %s.\n",
		displayName(to), n.platformName, until)
	body := fmt.Sprintf("<p>Hi %s,</p><p>You have successfully verified your ID with %s. Your verification is good until %s.</p>",
		html.EscapeString(displayName(to)), html.EscapeString(n.platformName), until)

	return n.emailer.Send(ctx, Message{
		Template: TemplateVerificationApproved,
		To:       to.Email,
		ToName:   to.Name,
		Subject:  "Your identity verification was approved",
		Text:     text,
		HTML:     body,
	})
}

// Denied tells the learner their photos were rejected and why.
func (n *VerificationNotifier) Denied(ctx context.Context, to Recipient, reason string) error {
	if reason == "" {
		reason = "The photos you submitted could not be verified."
	}
	text := fmt.Sprintf("Hi %s,\n\nWe could not verify your identity with %s.\n\nReason: %s\n\nPlease resubmit your photos.\n",
		displayName(to), n.platformName, reason)
	body := fmt.Sprintf("<p>Hi %s,</p><p>We could not verify your identity with %s.</p><p>Reason: %s</p><p>Please resubmit your photos.</p>",
		html.EscapeString(displayName(to)), html.EscapeString(n.platformName), html.EscapeString(reason))

	return n.emailer.Send(ctx, Message{
		Template: TemplateVerificationDenied,
		To:       to.Email,
		ToName:   to.Name,
		Subject:  "Your identity verification needs attention",
		Text:     text,
		HTML:     body,
	})
}

func displayName(r Recipient) string {
	if r.Name != "" {
		return r.Name
	}
	return r.Email
}
