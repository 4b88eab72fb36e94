package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/internal/cache"
	"learnhub/internal/models"
)

func newCourseFixture(store *cache.Store) (*CourseService, *courseRepoStub, *enrollmentRepoStub) {
	courses := newCourseRepo()
	enrollments := &enrollmentRepoStub{}
	users := &userRepoStub{users: map[uint]*models.User{42: {ID: 42}, 43: {ID: 43}}}
	return NewCourseService(courses, enrollments, users, store), courses, enrollments
}

func TestCourseService_CreateCourse(t *testing.T) {
	svc, _, _ := newCourseFixture(nil)
	ctx := context.Background()

	_, err := svc.CreateCourse(ctx, CreateCourseInput{Key: "not a key"})
	assert.Equal(t, models.CodeValidation, appErrorCode(err))

	_, err = svc.CreateCourse(ctx, CreateCourseInput{Key: "course-v1:edX+DemoX+2026", Modes: []string{"verified", "bad mode"}})
	assert.Equal(t, models.CodeValidation, appErrorCode(err))

	course, err := svc.CreateCourse(ctx, CreateCourseInput{
		Key:         " course-v1:edX+DemoX+2026 ",
		DisplayName: "Demo",
		Modes:       []string{"Audit", "verified"},
	})
	require.NoError(t, err)
	assert.Equal(t, "course-v1:edX+DemoX+2026", course.Key)
	require.Len(t, course.Modes, 2)
	assert.Equal(t, "audit", course.Modes[0].Slug)
}

func TestCourseService_UpsertMode(t *testing.T) {
	svc, courses, _ := newCourseFixture(nil)
	c := courses.add("course-v1:edX+DemoX+2026")
	expires := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)

	course, err := svc.UpsertMode(context.Background(), c.ID, "verified", &expires)
	require.NoError(t, err)
	require.Len(t, course.Modes, 1)
	require.NotNil(t, course.Modes[0].ExpirationDatetime)

	_, err = svc.UpsertMode(context.Background(), 999, "verified", nil)
	assert.Equal(t, models.CodeNotFound, appErrorCode(err))
}

func TestCourseService_SetDeadlineInvalidatesEnrolledDashboards(t *testing.T) {
	store, mr := newTestCache(t)
	svc, courses, enrollments := newCourseFixture(store)
	c := courses.add("course-v1:edX+DemoX+2026")
	enrollments.userIDsFn = func(context.Context, uint) ([]uint, error) { return []uint{42, 43}, nil }

	require.NoError(t, mr.Set(cache.DashboardKey(42), "{}"))
	require.NoError(t, mr.Set(cache.DashboardKey(43), "{}"))
	require.NoError(t, mr.Set(cache.DashboardKey(44), "{}"))

	deadline := fixedNow.Add(30 * day)
	_, err := svc.SetDeadline(context.Background(), c.ID, &deadline, true)
	require.NoError(t, err)
	assert.Equal(t, deadline, courses.deadlines[c.ID])
	assert.False(t, mr.Exists(cache.DashboardKey(42)))
	assert.False(t, mr.Exists(cache.DashboardKey(43)))
	assert.True(t, mr.Exists(cache.DashboardKey(44)))

	_, err = svc.SetDeadline(context.Background(), c.ID, nil, false)
	require.NoError(t, err)
	_, ok := courses.deadlines[c.ID]
	assert.False(t, ok)
}

func TestCourseService_Enroll(t *testing.T) {
	store, mr := newTestCache(t)
	svc, courses, enrollments := newCourseFixture(store)
	c := courses.add("course-v1:edX+DemoX+2026")
	require.NoError(t, mr.Set(cache.DashboardKey(42), "{}"))

	e, err := svc.Enroll(context.Background(), EnrollInput{UserID: 42, CourseID: c.ID, Mode: "Verified"})
	require.NoError(t, err)
	assert.True(t, e.IsActive)
	assert.Equal(t, "verified", e.Mode)
	require.Len(t, enrollments.lastUpserts, 1)
	assert.False(t, mr.Exists(cache.DashboardKey(42)))

	inactive := false
	e, err = svc.Enroll(context.Background(), EnrollInput{UserID: 42, CourseID: c.ID, Mode: "audit", Active: &inactive})
	require.NoError(t, err)
	assert.False(t, e.IsActive)

	_, err = svc.Enroll(context.Background(), EnrollInput{UserID: 999, CourseID: c.ID, Mode: "audit"})
	assert.Equal(t, models.CodeNotFound, appErrorCode(err))

	_, err = svc.Enroll(context.Background(), EnrollInput{UserID: 42, CourseID: 999, Mode: "audit"})
	assert.Equal(t, models.CodeNotFound, appErrorCode(err))
}
