package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnhub/internal/models"
	"learnhub/internal/observability"
)

// EnrollmentRepository defines persistence operations for enrollments.
type EnrollmentRepository interface {
	Upsert(ctx context.Context, enrollment *models.Enrollment) error
	ListActiveByUser(ctx context.Context, userID uint) ([]models.Enrollment, error)
	UserIDsByCourse(ctx context.Context, courseID uint) ([]uint, error)
}

type enrollmentRepository struct {
	db *gorm.DB
}

// NewEnrollmentRepository returns a new EnrollmentRepository implementation.
func NewEnrollmentRepository(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepository{db: db}
}

// Upsert enrolls the user or changes the mode and activity of an existing
// enrollment in the same course.
func (r *enrollmentRepository) Upsert(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.Mode = strings.ToLower(strings.TrimSpace(enrollment.Mode))
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"mode", "is_active", "updated_at"}),
	}).Create(enrollment).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// ListActiveByUser returns active enrollments with their course, oldest first.
func (r *enrollmentRepository) ListActiveByUser(ctx context.Context, userID uint) ([]models.Enrollment, error) {
	ctx, done := observability.StartQuery(ctx, "enrollments", "list_active_by_user")
	var enrollments []models.Enrollment
	err := r.db.WithContext(ctx).
		Preload("Course").
		Where("user_id = ? AND is_active = ?", userID, true).
		Order("created_at ASC, id ASC").
		Find(&enrollments).Error
	done(err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return enrollments, nil
}

// UserIDsByCourse returns the learners actively enrolled in a course.
func (r *enrollmentRepository) UserIDsByCourse(ctx context.Context, courseID uint) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).Model(&models.Enrollment{}).
		Where("course_id = ? AND is_active = ?", courseID, true).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}
