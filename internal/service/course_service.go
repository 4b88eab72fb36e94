package service

import (
	"context"
	"strings"
	"time"

	"learnhub/internal/cache"
	"learnhub/internal/models"
	"learnhub/internal/repository"
	"learnhub/internal/validation"
)

type CreateCourseInput struct {
	Key         string
	DisplayName string
	Modes       []string
}

type EnrollInput struct {
	UserID   uint
	CourseID uint
	Mode     string
	// Active defaults to true.
	Active *bool
}

// CourseService manages courses, their modes and deadlines, and enrollments.
type CourseService struct {
	courses     repository.CourseRepository
	enrollments repository.EnrollmentRepository
	users       repository.UserRepository
	cache       *cache.Store
}

func NewCourseService(
	courses repository.CourseRepository,
	enrollments repository.EnrollmentRepository,
	users repository.UserRepository,
	store *cache.Store,
) *CourseService {
	return &CourseService{courses: courses, enrollments: enrollments, users: users, cache: store}
}

func (s *CourseService) CreateCourse(ctx context.Context, in CreateCourseInput) (*models.Course, error) {
	const maxDisplayNameLen = 255

	key := strings.TrimSpace(in.Key)
	if err := validation.ValidateCourseKey(key); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if len(in.DisplayName) > maxDisplayNameLen {
		return nil, models.NewValidationError("Display name too long (max 255 characters)")
	}
	slugs := make([]string, 0, len(in.Modes))
	for _, m := range in.Modes {
		slug, err := normalizeSlug(m)
		if err != nil {
			return nil, err
		}
		slugs = append(slugs, slug)
	}

	course := &models.Course{Key: key, DisplayName: strings.TrimSpace(in.DisplayName)}
	if err := s.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	for _, slug := range slugs {
		if err := s.courses.UpsertMode(ctx, &models.CourseMode{CourseID: course.ID, Slug: slug}); err != nil {
			return nil, err
		}
	}
	return s.courses.GetByID(ctx, course.ID)
}

// UpsertMode adds a mode to the course or changes its expiration.
func (s *CourseService) UpsertMode(ctx context.Context, courseID uint, slug string, expiration *time.Time) (*models.Course, error) {
	slug, err := normalizeSlug(slug)
	if err != nil {
		return nil, err
	}
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	mode := &models.CourseMode{CourseID: courseID, Slug: slug}
	if expiration != nil {
		t := expiration.UTC()
		mode.ExpirationDatetime = &t
	}
	if err := s.courses.UpsertMode(ctx, mode); err != nil {
		return nil, err
	}
	return s.courses.GetByID(ctx, courseID)
}

// SetDeadline sets or, with a nil deadline, clears the course verification
// deadline. Dashboards of enrolled learners are invalidated.
func (s *CourseService) SetDeadline(ctx context.Context, courseID uint, deadline *time.Time, explicit bool) (*models.Course, error) {
	if _, err := s.courses.GetByID(ctx, courseID); err != nil {
		return nil, err
	}
	if err := s.courses.SetDeadline(ctx, courseID, deadline, explicit); err != nil {
		return nil, err
	}
	if s.cache.Enabled() {
		userIDs, err := s.enrollments.UserIDsByCourse(ctx, courseID)
		if err != nil {
			return nil, err
		}
		keys := make([]string, 0, len(userIDs))
		for _, id := range userIDs {
			keys = append(keys, cache.DashboardKey(id))
		}
		s.cache.Invalidate(ctx, keys...)
	}
	return s.courses.GetByID(ctx, courseID)
}

func (s *CourseService) Enroll(ctx context.Context, in EnrollInput) (*models.Enrollment, error) {
	mode, err := normalizeSlug(in.Mode)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.GetByID(ctx, in.UserID); err != nil {
		return nil, err
	}
	course, err := s.courses.GetByID(ctx, in.CourseID)
	if err != nil {
		return nil, err
	}

	active := true
	if in.Active != nil {
		active = *in.Active
	}
	enrollment := &models.Enrollment{UserID: in.UserID, CourseID: course.ID, Mode: mode, IsActive: active}
	if err := s.enrollments.Upsert(ctx, enrollment); err != nil {
		return nil, err
	}
	enrollment.Course = course
	s.cache.InvalidateLearner(ctx, in.UserID)
	return enrollment, nil
}

func normalizeSlug(s string) (string, error) {
	slug, err := validation.NormalizeModeSlug(s)
	if err != nil {
		return "", models.NewValidationError(err.Error())
	}
	return slug, nil
}
