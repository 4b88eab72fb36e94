// Package service holds the application use cases: the learner dashboard, the
// verification attempt workflow and course administration.
package service

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"learnhub/internal/banner"
	"learnhub/internal/cache"
	"learnhub/internal/featureflags"
	"learnhub/internal/models"
	"learnhub/internal/observability"
	"learnhub/internal/repository"
	"learnhub/internal/verification"
)

// CourseStatus is one course card on the learner dashboard.
type CourseStatus struct {
	CourseID           uint                `json:"course_id"`
	CourseKey          string              `json:"course_key"`
	DisplayName        string              `json:"display_name"`
	Mode               string              `json:"mode"`
	Status             verification.Status `json:"status"`
	DaysUntilDeadline  *int                `json:"days_until_deadline,omitempty"`
	VerificationExpiry *time.Time          `json:"verification_expiry,omitempty"`
	ShouldDisplay      bool                `json:"should_display"`
	Banner             banner.Banner       `json:"banner"`
}

// Dashboard is the verification view of every active enrollment of a learner.
type Dashboard struct {
	UserID      uint           `json:"user_id"`
	Courses     []CourseStatus `json:"courses"`
	Sidebar     banner.Sidebar `json:"sidebar"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// DashboardDeps wires a DashboardService.
type DashboardDeps struct {
	Enrollments repository.EnrollmentRepository
	Courses     repository.CourseRepository
	Attempts    repository.VerificationRepository
	Flags       *featureflags.Manager
	Policy      verification.Policy
	Renderer    banner.Renderer
	Cache       *cache.Store
	CacheTTL    time.Duration
}

// DashboardService resolves and caches the verification status of every course on a learner's dashboard.
type DashboardService struct {
	enrollments repository.EnrollmentRepository
	courses     repository.CourseRepository
	attempts    repository.VerificationRepository
	flags       *featureflags.Manager
	resolver    *verification.Resolver
	renderer    banner.Renderer
	cache       *cache.Store
	ttl         time.Duration
	now         func() time.Time
}

// NewDashboardService wires a DashboardService, defaulting the cache TTL and platform name.
func NewDashboardService(d DashboardDeps) *DashboardService {
	ttl := d.CacheTTL
	if ttl <= 0 {
		ttl = cache.DashboardTTL
	}
	renderer := d.Renderer
	if renderer.PlatformName == "" {
		renderer = banner.NewRenderer("")
	}
	return &DashboardService{
		enrollments: d.Enrollments,
		courses:     d.Courses,
		attempts:    d.Attempts,
		flags:       d.Flags,
		resolver:    verification.NewResolver(d.Policy),
		renderer:    renderer,
		cache:       d.Cache,
		ttl:         ttl,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// CourseStatuses returns the learner's dashboard, served from cache when fresh.
func (s *DashboardService) CourseStatuses(ctx context.Context, userID uint) (*Dashboard, error) {
	if userID == 0 {
		return nil, models.NewUnauthorizedError("Authentication required")
	}

	ctx, span := observability.StartSpan(ctx, "dashboard.CourseStatuses", attribute.Int64("user.id", int64(userID)))

	var out Dashboard
	hit, err := s.cache.CacheAsideTTL(ctx, cache.DashboardKey(userID), &out, func() (time.Duration, error) {
		d, ttl, err := s.build(ctx, userID)
		if err != nil {
			return 0, err
		}
		out = *d
		return ttl, nil
	})
	if err != nil {
		span.Finish(err)
		return nil, err
	}

	result := "miss"
	if hit {
		result = "hit"
	}
	observability.DashboardCacheLookups.WithLabelValues(result).Inc()
	span.SetAttributes(attribute.Bool("cache.hit", hit), attribute.Int("dashboard.courses", len(out.Courses)))
	span.Finish(nil)
	return &out, nil
}

// build resolves the dashboard and returns how long it may be cached.
func (s *DashboardService) build(ctx context.Context, userID uint) (*Dashboard, time.Duration, error) {
	enrollments, err := s.enrollments.ListActiveByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	courseIDs := make([]uint, 0, len(enrollments))
	for _, e := range enrollments {
		courseIDs = append(courseIDs, e.CourseID)
	}
	deadlinesByID, err := s.courses.DeadlinesForCourses(ctx, courseIDs)
	if err != nil {
		return nil, 0, err
	}

	records, err := s.attempts.ListByUser(ctx, userID)
	if err != nil {
		return nil, 0, err
	}
	attempts := models.Attempts(records)

	input := verification.Dashboard{
		Enrollments: make([]verification.Enrollment, 0, len(enrollments)),
		Deadlines:   make(map[string]time.Time, len(deadlinesByID)),
		Attempts:    attempts,
	}
	integrity := make(map[string]bool, len(enrollments))
	anyIntegrity := false
	for _, e := range enrollments {
		key := courseKey(e)
		input.Enrollments = append(input.Enrollments, verification.Enrollment{CourseKey: key, Mode: e.Mode})
		if dl, ok := deadlinesByID[e.CourseID]; ok {
			input.Deadlines[key] = dl
		}
		on := s.flags.EnabledForCourse(featureflags.IntegritySignature, key)
		integrity[key] = on
		anyIntegrity = anyIntegrity || on
	}
	input.IntegritySignature = func(key string) bool { return integrity[key] }

	now := s.now()
	results := s.resolver.ResolveDashboard(input, now)

	d := &Dashboard{
		UserID:      userID,
		Courses:     make([]CourseStatus, 0, len(results)),
		Sidebar:     s.renderer.Sidebar(anyIntegrity, verification.HasApproval(attempts), s.resolver.ExpiringSoon(attempts, now)),
		GeneratedAt: now,
	}
	for i, res := range results {
		e := enrollments[i]
		if res.Anomaly != nil {
			observability.DashboardAnomalies.Inc()
			observability.GlobalLogger.WarnContext(ctx, "unexpected verification state on dashboard",
				slog.Uint64("user_id", uint64(userID)),
				slog.String("course_key", res.CourseKey),
				slog.String("error", res.Anomaly.Error()),
			)
		}
		observability.DashboardStatuses.WithLabelValues(res.Status.String()).Inc()

		cs := CourseStatus{
			CourseID:           e.CourseID,
			CourseKey:          res.CourseKey,
			Mode:               e.Mode,
			Status:             res.Status,
			DaysUntilDeadline:  res.DaysUntilDeadline,
			VerificationExpiry: res.VerificationExpiry,
			ShouldDisplay:      res.ShouldDisplay,
			Banner:             s.renderer.Course(res),
		}
		if e.Course != nil {
			cs.DisplayName = e.Course.DisplayName
		}
		d.Courses = append(d.Courses, cs)
	}
	return d, s.cacheTTL(deadlinesByID, now), nil
}

// cacheTTL caps the cache lifetime at the next moment the whole days left
// before a future deadline change, which includes the deadline passing.
func (s *DashboardService) cacheTTL(deadlines map[uint]time.Time, now time.Time) time.Duration {
	ttl := s.ttl
	for _, dl := range deadlines {
		left := dl.Sub(now)
		if left <= 0 {
			continue
		}
		next := left % (24 * time.Hour)
		if next < time.Second {
			next = time.Second
		}
		if next < ttl {
			ttl = next
		}
	}
	return ttl
}

// Invalidate drops the cached dashboard of userID.
func (s *DashboardService) Invalidate(ctx context.Context, userID uint) {
	s.cache.InvalidateLearner(ctx, userID)
}

func courseKey(e models.Enrollment) string {
	if e.Course != nil && e.Course.Key != "" {
		return e.Course.Key
	}
	return "course:" + strconv.FormatUint(uint64(e.CourseID), 10)
}
