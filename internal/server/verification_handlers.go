package server

import (
	"github.com/gofiber/fiber/v2"

	"learnhub/internal/models"
	"learnhub/internal/service"
)

// DenyRequest is the body of a reviewer denial.
type DenyRequest struct {
	Reason string `json:"reason"`
}

// SystemErrorRequest is the body of a failed review.
type SystemErrorRequest struct {
	Message string `json:"message"`
}

// StartVerification opens a new photo verification attempt.
func (s *Server) StartVerification(c *fiber.Ctx) error {
	attempt, err := s.verificationService.Start(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(attempt)
}

// UploadVerificationPhotos accepts the "face" and "id" multipart files and
// marks the attempt ready for submission.
func (s *Server) UploadVerificationPhotos(c *fiber.Ctx) error {
	attemptID, err := parseID(c, "id")
	if err != nil {
		return nil
	}

	maxBytes := s.config.PhotoMaxUploadBytes()
	face, err := readUpload(c, "face", maxBytes)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	id, err := readUpload(c, "id", maxBytes)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}

	attempt, err := s.verificationService.UploadPhotos(c.UserContext(), service.UploadPhotosInput{
		UserID:    currentUserID(c),
		AttemptID: attemptID,
		Face:      face,
		ID:        id,
	})
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(attempt)
}

// SubmitVerification sends a ready attempt for review.
func (s *Server) SubmitVerification(c *fiber.Ctx) error {
	attemptID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	attempt, err := s.verificationService.Submit(c.UserContext(), currentUserID(c), attemptID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(attempt)
}

// GetMyVerifications lists the learner's visible attempts, newest first.
func (s *Server) GetMyVerifications(c *fiber.Ctx) error {
	attempts, err := s.verificationService.ListMine(c.UserContext(), currentUserID(c))
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(attempts)
}

// ApproveVerification records a reviewer approval.
func (s *Server) ApproveVerification(c *fiber.Ctx) error {
	attemptID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	attempt, err := s.verificationService.Approve(c.UserContext(), currentUserID(c), attemptID)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(attempt)
}

// DenyVerification records a reviewer denial with its reason.
func (s *Server) DenyVerification(c *fiber.Ctx) error {
	attemptID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req DenyRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	attempt, err := s.verificationService.Deny(c.UserContext(), currentUserID(c), attemptID, req.Reason)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(attempt)
}

// FailVerification marks an attempt as failed for a system reason, so the
// learner must retry.
func (s *Server) FailVerification(c *fiber.Ctx) error {
	attemptID, err := parseID(c, "id")
	if err != nil {
		return nil
	}
	var req SystemErrorRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}
	attempt, err := s.verificationService.SystemError(c.UserContext(), attemptID, req.Message)
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	return c.JSON(attempt)
}
