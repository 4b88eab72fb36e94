package server

import (
	"github.com/gofiber/fiber/v2"

	"learnhub/internal/featureflags"
	"learnhub/internal/models"
)

// GetDashboard returns the per-course verification statuses and banners of
// the current learner.
func (s *Server) GetDashboard(c *fiber.Ctx) error {
	dashboard, err := s.dashboardService.CourseStatuses(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(dashboard)
}

// GetFeatureFlags lists the configured flags and their evaluation for the
// caller. ?course=<key> adds the integrity signature decision for that course.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	resp := fiber.Map{
		"raw":       s.featureFlags.Raw(),
		"evaluated": s.featureFlags.Snapshot(currentUserID(c)),
	}
	if key := c.Query("course"); key != "" {
		resp["course"] = fiber.Map{
			"key":                 key,
			"integrity_signature": s.featureFlags.EnabledForCourse(featureflags.IntegritySignature, key),
		}
	}
	return c.JSON(resp)
}
