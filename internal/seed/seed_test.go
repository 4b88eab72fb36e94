package seed

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"learnhub/internal/database"
	"learnhub/internal/featureflags"
	"learnhub/internal/models"
	"learnhub/internal/repository"
	"learnhub/internal/service"
	"learnhub/internal/verification"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "seed.db")), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	return db
}

func TestBuiltInDemoScenarioResolvesAsDeclared(t *testing.T) {
	db := openTestDB(t)
	f, err := NewFactory(db, Options{Seed: 7, FastHash: true})
	require.NoError(t, err)

	sc, err := BuiltIn(DemoScenario)
	require.NoError(t, err)

	seeded, err := f.Apply(sc, time.Now())
	require.NoError(t, err)
	assert.True(t, seeded.Users["reviewer"].IsAdmin)

	dash := service.NewDashboardService(service.DashboardDeps{
		Enrollments: repository.NewEnrollmentRepository(db),
		Courses:     repository.NewCourseRepository(db),
		Attempts:    repository.NewVerificationRepository(db),
		Flags:       featureflags.NewManager(""),
		Policy:      verification.DefaultPolicy(),
	})

	for _, learner := range sc.Learners {
		t.Run(learner.Username, func(t *testing.T) {
			user := seeded.Users[learner.Username]
			require.NotNil(t, user)

			d, err := dash.CourseStatuses(context.Background(), user.ID)
			require.NoError(t, err)
			require.Len(t, d.Courses, len(learner.Expect))

			for _, c := range d.Courses {
				want, ok := learner.Expect[c.CourseKey]
				require.True(t, ok, "unexpected course %s", c.CourseKey)
				assert.Equal(t, want, c.Status.String(), c.CourseKey)
			}
		})
	}
}

func TestFactory_CreateUserHashesPassword(t *testing.T) {
	db := openTestDB(t)
	f, err := NewFactory(db, Options{Password: "Correct-Horse-9", FastHash: true})
	require.NoError(t, err)

	u, err := f.CreateUser()
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.NotEmpty(t, u.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("Correct-Horse-9")))
}

func TestNewFactory_RejectsWeakPassword(t *testing.T) {
	db := openTestDB(t)
	_, err := NewFactory(db, Options{Password: "password123", FastHash: true})
	assert.Error(t, err)
}

func TestFactory_RandomLearners(t *testing.T) {
	db := openTestDB(t)
	f, err := NewFactory(db, Options{Seed: 42, FastHash: true})
	require.NoError(t, err)

	c1, err := f.CreateCourse(nil)
	require.NoError(t, err)
	c2, err := f.CreateCourse([]string{"audit"})
	require.NoError(t, err)

	users, err := f.RandomLearners(5, []*models.Course{c1, c2}, time.Now())
	require.NoError(t, err)
	assert.Len(t, users, 5)

	var enrollments int64
	require.NoError(t, db.Model(&models.Enrollment{}).Count(&enrollments).Error)
	assert.Equal(t, int64(10), enrollments)
}

func TestParseRejectsBrokenScenarios(t *testing.T) {
	cases := map[string]string{
		"bad yaml":         "courses: [",
		"bad course key":   "courses:\n  - key: nope\n",
		"unknown course":   "learners:\n  - username: a\n    enrollments:\n      - {course: course-v1:edX+X+1, mode: verified}\n",
		"unknown status":   "learners:\n  - username: a\n    attempts:\n      - {status: pending}\n",
		"duplicate user":   "admins:\n  - username: a\nlearners:\n  - username: a\n",
		"missing name":     "learners:\n  - full_name: Nobody\n",
		"duplicate course": "courses:\n  - key: course-v1:edX+X+1\n  - key: course-v1:edX+X+1\n",
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.Error(t, err)
		})
	}

	_, err := BuiltIn("does_not_exist")
	assert.Error(t, err)
}

func TestLoadFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
