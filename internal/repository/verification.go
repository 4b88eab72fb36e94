package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"learnhub/internal/models"
	"learnhub/internal/observability"
	"learnhub/internal/verification"
)

// VerificationRepository defines persistence operations for verification attempts.
type VerificationRepository interface {
	Create(ctx context.Context, attempt *models.VerificationAttempt) error
	GetByID(ctx context.Context, id uint) (*models.VerificationAttempt, error)
	ListByUser(ctx context.Context, userID uint) ([]models.VerificationAttempt, error)
	Update(ctx context.Context, attempt *models.VerificationAttempt) error
	ListLapsedApprovals(ctx context.Context, now time.Time, daysGoodFor, limit int) ([]models.VerificationAttempt, error)
}

type verificationRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewVerificationRepository returns a new VerificationRepository implementation.
func NewVerificationRepository(db *gorm.DB) VerificationRepository {
	return &verificationRepository{db: db, log: observability.NewRepoLogger("verification_attempts")}
}

// Create inserts the attempt, assigning a receipt ID when missing.
func (r *verificationRepository) Create(ctx context.Context, attempt *models.VerificationAttempt) error {
	if attempt.ReceiptID == "" {
		attempt.ReceiptID = uuid.NewString()
	}
	if attempt.Status == "" {
		attempt.Status = verification.AttemptCreated
	}
	if err := r.db.WithContext(ctx).Create(attempt).Error; err != nil {
		r.log.Failed(ctx, "create", err)
		return models.NewInternalError(err)
	}
	r.log.Created(ctx, "attempt_id", attempt.ID, "user_id", attempt.UserID, "status", attempt.Status)
	return nil
}

func (r *verificationRepository) GetByID(ctx context.Context, id uint) (*models.VerificationAttempt, error) {
	var attempt models.VerificationAttempt
	if err := r.db.WithContext(ctx).First(&attempt, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("VerificationAttempt", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &attempt, nil
}

// ListByUser returns every attempt of the user, newest first.
func (r *verificationRepository) ListByUser(ctx context.Context, userID uint) ([]models.VerificationAttempt, error) {
	ctx, done := observability.StartQuery(ctx, "verification_attempts", "list_by_user")
	var attempts []models.VerificationAttempt
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&attempts).Error
	done(err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return attempts, nil
}

// Update saves every column of the attempt.
func (r *verificationRepository) Update(ctx context.Context, attempt *models.VerificationAttempt) error {
	if err := r.db.WithContext(ctx).Save(attempt).Error; err != nil {
		r.log.Failed(ctx, "update", err)
		return models.NewInternalError(err)
	}
	r.log.Updated(ctx, "attempt_id", attempt.ID, "status", attempt.Status)
	return nil
}

// ListLapsedApprovals returns approved attempts whose validity ended at or
// before now. Attempts without an explicit expiration date lapse daysGoodFor
// days after creation.
func (r *verificationRepository) ListLapsedApprovals(ctx context.Context, now time.Time, daysGoodFor, limit int) ([]models.VerificationAttempt, error) {
	if limit <= 0 {
		limit = 500
	}
	cutoff := now.Add(-time.Duration(daysGoodFor) * 24 * time.Hour)

	var attempts []models.VerificationAttempt
	if err := r.db.WithContext(ctx).
		Where("status = ?", verification.AttemptApproved).
		Where("(expiration_date IS NOT NULL AND expiration_date <= ?) OR (expiration_date IS NULL AND created_at <= ?)", now, cutoff).
		Order("id ASC").
		Limit(limit).
		Find(&attempts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return attempts, nil
}
