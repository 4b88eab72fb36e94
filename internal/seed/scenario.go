package seed

import (
	"embed"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"learnhub/internal/models"
	"learnhub/internal/validation"
	"learnhub/internal/verification"
)

//go:embed scenarios/*.yml
var builtIn embed.FS

// DemoScenario is the built-in scenario with one learner per dashboard status.
const DemoScenario = "dashboard_demo"

// Scenario describes a complete dashboard fixture. Dates are given relative
// to the time the scenario is applied.
type Scenario struct {
	Name     string        `yaml:"name"`
	Courses  []CourseSpec  `yaml:"courses"`
	Admins   []UserSpec    `yaml:"admins"`
	Learners []LearnerSpec `yaml:"learners"`
}

type CourseSpec struct {
	Key         string   `yaml:"key"`
	DisplayName string   `yaml:"display_name"`
	Modes       []string `yaml:"modes"`
	// DeadlineInDays is negative for a deadline in the past.
	DeadlineInDays *int `yaml:"deadline_in_days"`
}

type UserSpec struct {
	Username string `yaml:"username"`
	Email    string `yaml:"email"`
	FullName string `yaml:"full_name"`
}

type LearnerSpec struct {
	UserSpec    `yaml:",inline"`
	Enrollments []EnrollmentSpec `yaml:"enrollments"`
	Attempts    []AttemptSpec    `yaml:"attempts"`
	// Expect is the dashboard status each course should show, keyed by course.
	Expect map[string]string `yaml:"expect"`
}

type EnrollmentSpec struct {
	Course string `yaml:"course"`
	Mode   string `yaml:"mode"`
}

type AttemptSpec struct {
	Status         string `yaml:"status"`
	CreatedDaysAgo int    `yaml:"created_days_ago"`
	ExpiresInDays  *int   `yaml:"expires_in_days"`
	Hidden         bool   `yaml:"hidden"`
}

// Seeded is what Apply created, by username and course key.
type Seeded struct {
	Users   map[string]*models.User
	Courses map[string]*models.Course
}

// Parse decodes and validates a scenario.
func Parse(data []byte) (*Scenario, error) {
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	if err := sc.Validate(); err != nil {
		return nil, err
	}
	return &sc, nil
}

// LoadFile reads a scenario from disk.
func LoadFile(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// BuiltIn loads a scenario shipped with the binary.
func BuiltIn(name string) (*Scenario, error) {
	data, err := builtIn.ReadFile("scenarios/" + name + ".yml")
	if err != nil {
		return nil, fmt.Errorf("unknown scenario %q", name)
	}
	return Parse(data)
}

// Validate checks references between sections and enum values.
func (sc *Scenario) Validate() error {
	courses := make(map[string]bool, len(sc.Courses))
	for _, c := range sc.Courses {
		if err := validation.ValidateCourseKey(c.Key); err != nil {
			return fmt.Errorf("course %q: %w", c.Key, err)
		}
		if courses[c.Key] {
			return fmt.Errorf("course %q declared twice", c.Key)
		}
		courses[c.Key] = true
	}

	seen := make(map[string]bool)
	for _, u := range sc.Admins {
		if err := checkUser(u, seen); err != nil {
			return err
		}
	}
	for _, l := range sc.Learners {
		if err := checkUser(l.UserSpec, seen); err != nil {
			return err
		}
		for _, e := range l.Enrollments {
			if !courses[e.Course] {
				return fmt.Errorf("learner %q: unknown course %q", l.Username, e.Course)
			}
			if _, err := validation.NormalizeModeSlug(e.Mode); err != nil {
				return fmt.Errorf("learner %q: %w", l.Username, err)
			}
		}
		for _, a := range l.Attempts {
			if !verification.AttemptStatus(a.Status).Known() {
				return fmt.Errorf("learner %q: unknown attempt status %q", l.Username, a.Status)
			}
		}
		for key := range l.Expect {
			if !courses[key] {
				return fmt.Errorf("learner %q: expectation for unknown course %q", l.Username, key)
			}
		}
	}
	return nil
}

func checkUser(u UserSpec, seen map[string]bool) error {
	name := strings.TrimSpace(u.Username)
	if name == "" {
		return fmt.Errorf("user without username")
	}
	if seen[name] {
		return fmt.Errorf("user %q declared twice", name)
	}
	seen[name] = true
	return nil
}

// Apply persists the scenario with dates relative to now.
func (f *Factory) Apply(sc *Scenario, now time.Time) (*Seeded, error) {
	now = now.UTC()
	out := &Seeded{Users: map[string]*models.User{}, Courses: map[string]*models.Course{}}

	for _, cs := range sc.Courses {
		cs := cs
		course, err := f.CreateCourse(cs.Modes, func(c *models.Course) {
			c.Key = cs.Key
			if cs.DisplayName != "" {
				c.DisplayName = cs.DisplayName
			}
		})
		if err != nil {
			return nil, fmt.Errorf("course %q: %w", cs.Key, err)
		}
		if cs.DeadlineInDays != nil {
			deadline := now.AddDate(0, 0, *cs.DeadlineInDays)
			if err := f.SetDeadline(course, &deadline); err != nil {
				return nil, fmt.Errorf("course %q deadline: %w", cs.Key, err)
			}
		}
		out.Courses[cs.Key] = course
	}

	for _, us := range sc.Admins {
		user, err := f.createFromSpec(us, true)
		if err != nil {
			return nil, err
		}
		out.Users[us.Username] = user
	}

	for _, ls := range sc.Learners {
		user, err := f.createFromSpec(ls.UserSpec, false)
		if err != nil {
			return nil, err
		}
		out.Users[ls.Username] = user

		for _, es := range ls.Enrollments {
			if _, err := f.Enroll(user, out.Courses[es.Course], es.Mode); err != nil {
				return nil, fmt.Errorf("enroll %q in %q: %w", ls.Username, es.Course, err)
			}
		}
		for _, as := range ls.Attempts {
			as := as
			created := now.AddDate(0, 0, -as.CreatedDaysAgo)
			_, err := f.CreateAttempt(user, verification.AttemptStatus(as.Status), created, func(a *models.VerificationAttempt) {
				a.HiddenFromUser = as.Hidden
				if as.ExpiresInDays != nil {
					exp := now.AddDate(0, 0, *as.ExpiresInDays)
					a.ExpirationDate = &exp
				}
			})
			if err != nil {
				return nil, fmt.Errorf("attempt for %q: %w", ls.Username, err)
			}
		}
	}
	return out, nil
}

func (f *Factory) createFromSpec(us UserSpec, admin bool) (*models.User, error) {
	user, err := f.CreateUser(func(u *models.User) {
		u.Username = strings.TrimSpace(us.Username)
		u.Email = us.Email
		if u.Email == "" {
			u.Email = u.Username + "@learnhub.local"
		}
		if us.FullName != "" {
			u.FullName = us.FullName
		}
		u.IsAdmin = admin
	})
	if err != nil {
		return nil, fmt.Errorf("user %q: %w", us.Username, err)
	}
	return user, nil
}
