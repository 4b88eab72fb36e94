package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"learnhub/internal/cache"
	"learnhub/internal/models"
	"learnhub/internal/notifications"
	"learnhub/internal/verification"
)

var fixedNow = time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

const day = 24 * time.Hour

// attemptRepoStub is an in-memory VerificationRepository.
type attemptRepoStub struct {
	mu        sync.Mutex
	next      uint
	byID      map[uint]*models.VerificationAttempt
	listCalls int
	updateErr error
}

func newAttemptRepo(records ...models.VerificationAttempt) *attemptRepoStub {
	r := &attemptRepoStub{byID: make(map[uint]*models.VerificationAttempt)}
	for i := range records {
		rec := records[i]
		if rec.ID == 0 {
			r.next++
			rec.ID = r.next
		} else if rec.ID > r.next {
			r.next = rec.ID
		}
		r.byID[rec.ID] = &rec
	}
	return r
}

func (r *attemptRepoStub) Create(_ context.Context, a *models.VerificationAttempt) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	a.ID = r.next
	if a.ReceiptID == "" {
		a.ReceiptID = "receipt"
	}
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

func (r *attemptRepoStub) GetByID(_ context.Context, id uint) (*models.VerificationAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return nil, models.NewNotFoundError("VerificationAttempt", id)
	}
	cp := *a
	return &cp, nil
}

func (r *attemptRepoStub) ListByUser(_ context.Context, userID uint) ([]models.VerificationAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	var out []models.VerificationAttempt
	for _, a := range r.byID {
		if a.UserID == userID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *attemptRepoStub) Update(_ context.Context, a *models.VerificationAttempt) error {
	if r.updateErr != nil {
		return r.updateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *a
	r.byID[a.ID] = &cp
	return nil
}

func (r *attemptRepoStub) ListLapsedApprovals(_ context.Context, now time.Time, daysGoodFor, limit int) ([]models.VerificationAttempt, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.VerificationAttempt
	for _, a := range r.byID {
		if a.Status != verification.AttemptApproved {
			continue
		}
		if a.ToAttempt().ExpirationDatetime(daysGoodFor).After(now) {
			continue
		}
		out = append(out, *a)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *attemptRepoStub) status(id uint) verification.AttemptStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.byID[id].Status
}

type enrollmentRepoStub struct {
	listFn      func(context.Context, uint) ([]models.Enrollment, error)
	upsertFn    func(context.Context, *models.Enrollment) error
	userIDsFn   func(context.Context, uint) ([]uint, error)
	listCalls   int
	lastUpserts []models.Enrollment
}

func (s *enrollmentRepoStub) Upsert(ctx context.Context, e *models.Enrollment) error {
	s.lastUpserts = append(s.lastUpserts, *e)
	if s.upsertFn == nil {
		return nil
	}
	return s.upsertFn(ctx, e)
}

func (s *enrollmentRepoStub) ListActiveByUser(ctx context.Context, userID uint) ([]models.Enrollment, error) {
	s.listCalls++
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID)
}

func (s *enrollmentRepoStub) UserIDsByCourse(ctx context.Context, courseID uint) ([]uint, error) {
	if s.userIDsFn == nil {
		return nil, nil
	}
	return s.userIDsFn(ctx, courseID)
}

type courseRepoStub struct {
	courses   map[uint]*models.Course
	deadlines map[uint]time.Time
	next      uint
	createErr error
}

func newCourseRepo() *courseRepoStub {
	return &courseRepoStub{courses: map[uint]*models.Course{}, deadlines: map[uint]time.Time{}}
}

func (s *courseRepoStub) add(key string) *models.Course {
	s.next++
	c := &models.Course{ID: s.next, Key: key, DisplayName: key}
	s.courses[c.ID] = c
	return c
}

func (s *courseRepoStub) Create(_ context.Context, c *models.Course) error {
	if s.createErr != nil {
		return s.createErr
	}
	s.next++
	c.ID = s.next
	cp := *c
	s.courses[c.ID] = &cp
	return nil
}

func (s *courseRepoStub) GetByID(_ context.Context, id uint) (*models.Course, error) {
	c, ok := s.courses[id]
	if !ok {
		return nil, models.NewNotFoundError("Course", id)
	}
	cp := *c
	return &cp, nil
}

func (s *courseRepoStub) GetByKey(_ context.Context, key string) (*models.Course, error) {
	for _, c := range s.courses {
		if c.Key == key {
			cp := *c
			return &cp, nil
		}
	}
	return nil, models.NewNotFoundError("Course", key)
}

func (s *courseRepoStub) UpsertMode(_ context.Context, m *models.CourseMode) error {
	c := s.courses[m.CourseID]
	for i := range c.Modes {
		if c.Modes[i].Slug == m.Slug {
			c.Modes[i].ExpirationDatetime = m.ExpirationDatetime
			return nil
		}
	}
	c.Modes = append(c.Modes, *m)
	return nil
}

func (s *courseRepoStub) SetDeadline(_ context.Context, courseID uint, deadline *time.Time, _ bool) error {
	if deadline == nil {
		delete(s.deadlines, courseID)
		return nil
	}
	s.deadlines[courseID] = *deadline
	return nil
}

func (s *courseRepoStub) DeadlinesForCourses(_ context.Context, ids []uint) (map[uint]time.Time, error) {
	out := map[uint]time.Time{}
	for _, id := range ids {
		if d, ok := s.deadlines[id]; ok {
			out[id] = d
		}
	}
	return out, nil
}

type userRepoStub struct {
	users map[uint]*models.User
}

func (s *userRepoStub) GetByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, models.NewNotFoundError("User", id)
	}
	return u, nil
}

func (s *userRepoStub) GetByEmail(context.Context, string) (*models.User, error)    { return nil, nil }
func (s *userRepoStub) GetByUsername(context.Context, string) (*models.User, error) { return nil, nil }
func (s *userRepoStub) Create(context.Context, *models.User) error                  { return nil }

type recordingEmailer struct {
	mu   sync.Mutex
	sent []notifications.Message
}

func (r *recordingEmailer) Send(_ context.Context, msg notifications.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

func newTestCache(t *testing.T) (*cache.Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return cache.NewStore(rdb), mr
}

func testPNG(t *testing.T, shade uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 96, 96))
	for y := 0; y < 96; y++ {
		for x := 0; x < 96; x++ {
			img.Set(x, y, color.RGBA{R: shade, G: uint8(x), B: uint8(y), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func appErrorCode(err error) string {
	if appErr, ok := err.(*models.AppError); ok {
		return appErr.Code
	}
	return ""
}
