// Package seed creates demo and test data: learners, courses with
// verification deadlines, enrollments and verification attempts. It is meant
// for development and tests only.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"learnhub/internal/models"
	"learnhub/internal/repository"
	"learnhub/internal/validation"
	"learnhub/internal/verification"
)

// DefaultPassword is the password of every seeded account unless overridden.
const DefaultPassword = "LearnHub-Demo-2026!"

// Options tune the factory.
type Options struct {
	// Seed makes generated names reproducible; zero picks a random seed.
	Seed int64
	// Password is set on every created user and must pass the account
	// password rules.
	Password string
	// FastHash uses the minimum bcrypt cost, for tests.
	FastHash bool
}

// Factory builds domain records and persists them through the repositories.
type Factory struct {
	fake         *gofakeit.Faker
	passwordHash string
	users        repository.UserRepository
	courses      repository.CourseRepository
	enrollments  repository.EnrollmentRepository
	attempts     repository.VerificationRepository
}

func NewFactory(db *gorm.DB, opts Options) (*Factory, error) {
	password := opts.Password
	if password == "" {
		password = DefaultPassword
	} else if err := validation.ValidatePassword(password); err != nil {
		return nil, fmt.Errorf("seed password: %w", err)
	}
	cost := bcrypt.DefaultCost
	if opts.FastHash {
		cost = bcrypt.MinCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash seed password: %w", err)
	}
	return &Factory{
		fake:         gofakeit.New(opts.Seed),
		passwordHash: string(hash),
		users:        repository.NewUserRepository(db),
		courses:      repository.NewCourseRepository(db),
		enrollments:  repository.NewEnrollmentRepository(db),
		attempts:     repository.NewVerificationRepository(db),
	}, nil
}

// CreateUser persists a learner with generated details.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	first, last := f.fake.FirstName(), f.fake.LastName()
	user := &models.User{
		Username: fmt.Sprintf("%s%d", f.fake.Username(), f.fake.Number(100, 999)),
		FullName: first + " " + last,
		Password: f.passwordHash,
	}
	user.Email = fmt.Sprintf("%s@%s", user.Username, f.fake.DomainName())

	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateCourse persists a course with the given modes, "audit" and "verified"
// when none are given.
func (f *Factory) CreateCourse(modes []string, overrides ...func(*models.Course)) (*models.Course, error) {
	org := f.fake.RandomString([]string{"edX", "MITx", "HarvardX", "BerkeleyX", "DelftX"})
	course := &models.Course{
		Key:         fmt.Sprintf("course-v1:%s+CS%d+%dT%d", org, f.fake.Number(100, 999), f.fake.Number(1, 3), f.fake.Number(2025, 2027)),
		DisplayName: f.fake.BuzzWord() + " " + f.fake.HackerNoun(),
	}
	for _, override := range overrides {
		override(course)
	}

	ctx := context.Background()
	if err := f.courses.Create(ctx, course); err != nil {
		return nil, err
	}
	if len(modes) == 0 {
		modes = []string{"audit", verification.ModeVerified}
	}
	for _, slug := range modes {
		if err := f.courses.UpsertMode(ctx, &models.CourseMode{CourseID: course.ID, Slug: slug}); err != nil {
			return nil, err
		}
	}
	return course, nil
}

// SetDeadline sets the course verification deadline; nil clears it.
func (f *Factory) SetDeadline(course *models.Course, deadline *time.Time) error {
	return f.courses.SetDeadline(context.Background(), course.ID, deadline, deadline != nil)
}

// Enroll creates an active enrollment.
func (f *Factory) Enroll(user *models.User, course *models.Course, mode string) (*models.Enrollment, error) {
	e := &models.Enrollment{UserID: user.ID, CourseID: course.ID, Mode: mode, IsActive: true}
	if err := f.enrollments.Upsert(context.Background(), e); err != nil {
		return nil, err
	}
	return e, nil
}

// CreateAttempt persists an attempt in the given state, created at createdAt.
// Reviewed states get a review date; submitted states a submission date.
func (f *Factory) CreateAttempt(user *models.User, status verification.AttemptStatus, createdAt time.Time, overrides ...func(*models.VerificationAttempt)) (*models.VerificationAttempt, error) {
	createdAt = createdAt.UTC()
	a := &models.VerificationAttempt{
		UserID:    user.ID,
		Status:    status,
		CreatedAt: createdAt,
	}
	if status != verification.AttemptCreated {
		a.FacePhotoHash = f.fake.LetterN(64)
		a.IDPhotoHash = f.fake.LetterN(64)
		a.FacePhotoFormat, a.IDPhotoFormat = "jpeg", "jpeg"
	}
	switch status {
	case verification.AttemptSubmitted, verification.AttemptMustRetry:
		a.SubmittedAt = &createdAt
	case verification.AttemptApproved, verification.AttemptDenied, verification.AttemptExpired:
		reviewed := createdAt.Add(time.Hour)
		a.SubmittedAt = &createdAt
		a.ReviewedAt = &reviewed
	}
	if status == verification.AttemptDenied {
		a.ErrorMessage = "Photo ID does not match the face photo."
	}
	for _, override := range overrides {
		override(a)
	}
	if err := f.attempts.Create(context.Background(), a); err != nil {
		return nil, err
	}
	return a, nil
}

// RandomLearners creates n learners enrolled in courses with a random mode and
// a random verification history.
func (f *Factory) RandomLearners(n int, courses []*models.Course, now time.Time) ([]*models.User, error) {
	statuses := []verification.AttemptStatus{
		verification.AttemptCreated, verification.AttemptReady, verification.AttemptSubmitted,
		verification.AttemptApproved, verification.AttemptDenied, verification.AttemptMustRetry,
	}
	out := make([]*models.User, 0, n)
	for i := 0; i < n; i++ {
		user, err := f.CreateUser()
		if err != nil {
			return nil, err
		}
		for _, c := range courses {
			mode := f.fake.RandomString([]string{"audit", verification.ModeVerified})
			if _, err := f.Enroll(user, c, mode); err != nil {
				return nil, err
			}
		}
		for j := f.fake.Number(0, 2); j > 0; j-- {
			status := statuses[f.fake.Number(0, len(statuses)-1)]
			created := now.Add(-time.Duration(f.fake.Number(1, 400)) * 24 * time.Hour)
			if _, err := f.CreateAttempt(user, status, created); err != nil {
				return nil, err
			}
		}
		out = append(out, user)
	}
	return out, nil
}
