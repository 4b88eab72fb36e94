package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"learnhub/internal/cache"
	"learnhub/internal/models"
	"learnhub/internal/notifications"
	"learnhub/internal/observability"
	"learnhub/internal/photoid"
	"learnhub/internal/repository"
	"learnhub/internal/verification"
)

const (
	maxDenyReasonLen  = 1000
	expirySweepBatch  = 500
	maxSweepBatches   = 100
	defaultErrorLabel = "System error while reviewing photos"
)

// PhotoUpload is one uploaded file as received from the client.
type PhotoUpload struct {
	ContentType string
	Content     []byte
}

// UploadPhotosInput carries the face and ID photos for one attempt.
type UploadPhotosInput struct {
	UserID    uint
	AttemptID uint
	Face      PhotoUpload
	ID        PhotoUpload
}

// VerificationService drives photo verification attempts through their
// lifecycle and keeps the learner's cached views consistent.
type VerificationService struct {
	attempts  repository.VerificationRepository
	users     repository.UserRepository
	inspector *photoid.Inspector
	notifier  *notifications.VerificationNotifier
	cache     *cache.Store
	policy    verification.Policy
	now       func() time.Time
}

// NewVerificationService wires a VerificationService. Nil inspector and notifier fall back to defaults.
func NewVerificationService(
	attempts repository.VerificationRepository,
	users repository.UserRepository,
	inspector *photoid.Inspector,
	notifier *notifications.VerificationNotifier,
	store *cache.Store,
	policy verification.Policy,
) *VerificationService {
	if inspector == nil {
		inspector = photoid.NewInspector(0)
	}
	if notifier == nil {
		notifier = notifications.NewVerificationNotifier(nil, "")
	}
	return &VerificationService{
		attempts:  attempts,
		users:     users,
		inspector: inspector,
		notifier:  notifier,
		cache:     store,
		policy:    policy.Normalize(),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Start opens a new attempt for the learner.
func (s *VerificationService) Start(ctx context.Context, userID uint) (*models.VerificationAttempt, error) {
	if userID == 0 {
		return nil, models.NewValidationError("Invalid user")
	}
	a := verification.NewAttempt(userID, s.now())
	rec := &models.VerificationAttempt{UserID: userID, CreatedAt: a.CreatedAt}
	rec.Apply(a)
	if err := s.attempts.Create(ctx, rec); err != nil {
		observability.VerificationTransitions.WithLabelValues("start", "error").Inc()
		return nil, err
	}
	observability.VerificationTransitions.WithLabelValues("start", "ok").Inc()
	s.cache.InvalidateLearner(ctx, userID)
	return rec, nil
}

// UploadPhotos validates the face and ID photos and marks the attempt ready.
func (s *VerificationService) UploadPhotos(ctx context.Context, in UploadPhotosInput) (*models.VerificationAttempt, error) {
	rec, err := s.ownAttempt(ctx, in.UserID, in.AttemptID)
	if err != nil {
		return nil, err
	}

	face, err := s.inspector.Inspect(in.UserID, photoid.KindFace, in.Face.ContentType, in.Face.Content)
	if err != nil {
		return nil, err
	}
	id, err := s.inspector.Inspect(in.UserID, photoid.KindID, in.ID.ContentType, in.ID.Content)
	if err != nil {
		return nil, err
	}
	if face.Hash == id.Hash {
		return nil, models.NewValidationError("Face and ID photos must be different images")
	}

	rec.FacePhotoHash, rec.FacePhotoFormat = face.Hash, face.Format
	rec.IDPhotoHash, rec.IDPhotoFormat = id.Hash, id.Format
	if err := s.transition(ctx, "mark_ready", rec, verification.MarkReady); err != nil {
		return nil, err
	}
	return rec, nil
}

// Submit sends a ready or retried attempt for review.
func (s *VerificationService) Submit(ctx context.Context, userID, attemptID uint) (*models.VerificationAttempt, error) {
	rec, err := s.ownAttempt(ctx, userID, attemptID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.transition(ctx, "submit", rec, func(a verification.Attempt) (verification.Attempt, error) {
		return verification.Submit(a, now)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// Approve records a passed review and e-mails the learner.
func (s *VerificationService) Approve(ctx context.Context, reviewerID, attemptID uint) (*models.VerificationAttempt, error) {
	rec, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if rec.Status == verification.AttemptApproved {
		return rec, nil
	}
	now := s.now()
	err = s.transition(ctx, "approve", rec, func(a verification.Attempt) (verification.Attempt, error) {
		return verification.Approve(a, reviewerID, now, s.policy)
	})
	if err != nil {
		return nil, err
	}

	expires := rec.ToAttempt().ExpirationDatetime(s.policy.DaysGoodFor)
	s.notify(ctx, rec.UserID, "approve", func(to notifications.Recipient) error {
		return s.notifier.Approved(ctx, to, expires)
	})
	return rec, nil
}

// Deny records a failed review with the reason shown to the learner.
func (s *VerificationService) Deny(ctx context.Context, reviewerID, attemptID uint, reason string) (*models.VerificationAttempt, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, models.NewValidationError("A denial reason is required")
	}
	if len(reason) > maxDenyReasonLen {
		return nil, models.NewValidationError("Denial reason too long (max 1000 characters)")
	}
	rec, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	err = s.transition(ctx, "deny", rec, func(a verification.Attempt) (verification.Attempt, error) {
		return verification.Deny(a, reviewerID, reason, now)
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, rec.UserID, "deny", func(to notifications.Recipient) error {
		return s.notifier.Denied(ctx, to, reason)
	})
	return rec, nil
}

// SystemError flags a review-side failure; the learner has to submit again.
func (s *VerificationService) SystemError(ctx context.Context, attemptID uint, message string) (*models.VerificationAttempt, error) {
	message = strings.TrimSpace(message)
	if message == "" {
		message = defaultErrorLabel
	}
	rec, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	err = s.transition(ctx, "system_error", rec, func(a verification.Attempt) (verification.Attempt, error) {
		return verification.SystemError(a, message)
	})
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// ExpireStale moves every lapsed approval to expired and returns how many
// attempts changed.
func (s *VerificationService) ExpireStale(ctx context.Context) (int, error) {
	now := s.now()
	expired := 0
	for batch := 0; batch < maxSweepBatches; batch++ {
		lapsed, err := s.attempts.ListLapsedApprovals(ctx, now, s.policy.DaysGoodFor, expirySweepBatch)
		if err != nil {
			return expired, err
		}
		for i := range lapsed {
			rec := &lapsed[i]
			err := s.transition(ctx, "expire", rec, func(a verification.Attempt) (verification.Attempt, error) {
				return verification.Expire(a, now, s.policy)
			})
			if err != nil {
				return expired, err
			}
			expired++
			observability.ExpirySweepExpired.Inc()
		}
		if len(lapsed) < expirySweepBatch {
			break
		}
	}
	return expired, nil
}

// ListMine returns the learner's visible attempts, newest first.
func (s *VerificationService) ListMine(ctx context.Context, userID uint) ([]models.VerificationAttempt, error) {
	var out []models.VerificationAttempt
	_, err := s.cache.CacheAside(ctx, cache.AttemptsKey(userID), &out, cache.AttemptsTTL, func() error {
		records, err := s.attempts.ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		out = make([]models.VerificationAttempt, 0, len(records))
		for _, r := range records {
			if !r.HiddenFromUser {
				out = append(out, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ownAttempt loads an attempt owned by userID. Other learners' attempts are
// reported as missing.
func (s *VerificationService) ownAttempt(ctx context.Context, userID, attemptID uint) (*models.VerificationAttempt, error) {
	rec, err := s.attempts.GetByID(ctx, attemptID)
	if err != nil {
		return nil, err
	}
	if rec.UserID != userID {
		return nil, models.NewNotFoundError("VerificationAttempt", attemptID)
	}
	return rec, nil
}

func (s *VerificationService) transition(
	ctx context.Context,
	op string,
	rec *models.VerificationAttempt,
	fn func(verification.Attempt) (verification.Attempt, error),
) error {
	next, err := fn(rec.ToAttempt())
	if err != nil {
		observability.VerificationTransitions.WithLabelValues(op, "rejected").Inc()
		if errors.Is(err, verification.ErrInvalidTransition) {
			return models.NewConflictError(err.Error(), err)
		}
		return err
	}
	rec.Apply(next)
	if err := s.attempts.Update(ctx, rec); err != nil {
		observability.VerificationTransitions.WithLabelValues(op, "error").Inc()
		return err
	}
	observability.VerificationTransitions.WithLabelValues(op, "ok").Inc()
	s.cache.InvalidateLearner(ctx, rec.UserID)
	return nil
}

// notify sends a result e-mail. Delivery failures are logged, not returned.
func (s *VerificationService) notify(ctx context.Context, userID uint, op string, send func(notifications.Recipient) error) {
	if s.users == nil {
		return
	}
	user, err := s.users.GetByID(ctx, userID)
	if err == nil {
		err = send(notifications.Recipient{Email: user.Email, Name: user.FullName})
	}
	if err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to send verification result email",
			slog.Uint64("user_id", uint64(userID)),
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
	}
}
