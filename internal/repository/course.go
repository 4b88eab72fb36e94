package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"learnhub/internal/models"
	"learnhub/internal/observability"
)

// CourseRepository defines persistence operations for courses, their modes
// and verification deadlines.
type CourseRepository interface {
	Create(ctx context.Context, course *models.Course) error
	GetByID(ctx context.Context, id uint) (*models.Course, error)
	GetByKey(ctx context.Context, key string) (*models.Course, error)
	UpsertMode(ctx context.Context, mode *models.CourseMode) error
	SetDeadline(ctx context.Context, courseID uint, deadline *time.Time, explicit bool) error
	DeadlinesForCourses(ctx context.Context, courseIDs []uint) (map[uint]time.Time, error)
}

type courseRepository struct {
	db  *gorm.DB
	log *observability.RepoLogger
}

// NewCourseRepository returns a new CourseRepository implementation.
func NewCourseRepository(db *gorm.DB) CourseRepository {
	return &courseRepository{db: db, log: observability.NewRepoLogger("courses")}
}

func (r *courseRepository) Create(ctx context.Context, course *models.Course) error {
	course.Key = strings.TrimSpace(course.Key)
	if err := r.db.WithContext(ctx).Create(course).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Course already exists", err)
		}
		return models.NewInternalError(err)
	}
	r.log.Created(ctx, "course_id", course.ID, "course_key", course.Key)
	return nil
}

func (r *courseRepository) GetByID(ctx context.Context, id uint) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Modes").Preload("Deadline").First(&course, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Course", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &course, nil
}

func (r *courseRepository) GetByKey(ctx context.Context, key string) (*models.Course, error) {
	var course models.Course
	if err := r.db.WithContext(ctx).Preload("Modes").Preload("Deadline").
		Where("course_key = ?", strings.TrimSpace(key)).First(&course).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Course", key)
		}
		return nil, models.NewInternalError(err)
	}
	return &course, nil
}

// UpsertMode creates the mode or updates the expiration of the existing
// (course, slug) row.
func (r *courseRepository) UpsertMode(ctx context.Context, mode *models.CourseMode) error {
	mode.Slug = strings.ToLower(strings.TrimSpace(mode.Slug))
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}, {Name: "slug"}},
		DoUpdates: clause.AssignmentColumns([]string{"expiration_datetime", "updated_at"}),
	}).Create(mode).Error
	if err != nil {
		r.log.Failed(ctx, "upsert_mode", err)
		return models.NewInternalError(err)
	}
	return nil
}

// SetDeadline stores the course verification deadline. A nil deadline
// removes it, leaving the course without one.
func (r *courseRepository) SetDeadline(ctx context.Context, courseID uint, deadline *time.Time, explicit bool) error {
	db := r.db.WithContext(ctx)
	if deadline == nil {
		if err := db.Delete(&models.VerificationDeadline{}, "course_id = ?", courseID).Error; err != nil {
			return models.NewInternalError(err)
		}
		r.log.Deleted(ctx, "course_id", courseID)
		return nil
	}

	row := models.VerificationDeadline{CourseID: courseID, Deadline: deadline.UTC(), DeadlineIsExplicit: explicit}
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "course_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"deadline", "deadline_is_explicit", "updated_at"}),
	}).Create(&row).Error
	if err != nil {
		r.log.Failed(ctx, "set_deadline", err)
		return models.NewInternalError(err)
	}
	r.log.Updated(ctx, "course_id", courseID, "deadline", row.Deadline)
	return nil
}

// DeadlinesForCourses returns the deadline of each course that has one.
func (r *courseRepository) DeadlinesForCourses(ctx context.Context, courseIDs []uint) (map[uint]time.Time, error) {
	out := make(map[uint]time.Time, len(courseIDs))
	if len(courseIDs) == 0 {
		return out, nil
	}
	ctx, done := observability.StartQuery(ctx, "verification_deadlines", "deadlines_for_courses")
	var rows []models.VerificationDeadline
	err := r.db.WithContext(ctx).Where("course_id IN ?", courseIDs).Find(&rows).Error
	done(err)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for _, row := range rows {
		out[row.CourseID] = row.Deadline
	}
	return out, nil
}
