package server

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"learnhub/internal/models"
	"learnhub/internal/service"
)

// CreateCourseRequest is the body of POST /api/admin/courses.
type CreateCourseRequest struct {
	Key         string   `json:"key"`
	DisplayName string   `json:"display_name"`
	Modes       []string `json:"modes"`
}

// UpsertModeRequest is the body of PUT /api/admin/courses/:id/modes/:slug.
type UpsertModeRequest struct {
	ExpirationDatetime *time.Time `json:"expiration_datetime"`
}

// DeadlineRequest sets the course deadline; a null deadline clears it.
type DeadlineRequest struct {
	Deadline *time.Time `json:"deadline"`
	Explicit *bool      `json:"explicit"`
}

// EnrollRequest enrolls a learner in the course of the route.
type EnrollRequest struct {
	UserID   uint   `json:"user_id"`
	Mode     string `json:"mode"`
	IsActive *bool  `json:"is_active"`
}

// CreateCourse creates a course with its initial modes.
func (s *Server) CreateCourse(c *fiber.Ctx) error {
	var req CreateCourseRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	course, err := s.courseService.CreateCourse(c.UserContext(), service.CreateCourseInput{
		Key:         req.Key,
		DisplayName: req.DisplayName,
		Modes:       req.Modes,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(course)
}

// UpsertCourseMode adds a mode or changes its expiration.
func (s *Server) UpsertCourseMode(c *fiber.Ctx) error {
	courseID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req UpsertModeRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	course, err := s.courseService.UpsertMode(c.UserContext(), courseID, c.Params("slug"), req.ExpirationDatetime)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(course)
}

// SetCourseDeadline sets or clears the verification deadline.
func (s *Server) SetCourseDeadline(c *fiber.Ctx) error {
	courseID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req DeadlineRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	explicit := true
	if req.Explicit != nil {
		explicit = *req.Explicit
	}
	course, err := s.courseService.SetDeadline(c.UserContext(), courseID, req.Deadline, explicit)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(course)
}

// EnrollUser enrolls a learner or changes an existing enrollment.
func (s *Server) EnrollUser(c *fiber.Ctx) error {
	courseID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req EnrollRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.UserID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("user_id is required"))
	}
	enrollment, err := s.courseService.Enroll(c.UserContext(), service.EnrollInput{
		UserID:   req.UserID,
		CourseID: courseID,
		Mode:     req.Mode,
		Active:   req.IsActive,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(enrollment)
}
