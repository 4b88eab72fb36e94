package server

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"

	"learnhub/internal/models"
	"learnhub/internal/service"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper. Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
func parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid "+param))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// parseBody decodes the JSON body into dest, answering 400 when it is malformed.
func parseBody(c *fiber.Ctx, dest any) error {
	if err := c.BodyParser(dest); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
		return errResponseWritten
	}
	return nil
}

// currentUserID returns the user set by AuthRequired, or 0.
func currentUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals("userID").(uint)
	return id
}

// readUpload reads one multipart file, refusing anything over maxBytes.
func readUpload(c *fiber.Ctx, field string, maxBytes int64) (service.PhotoUpload, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return service.PhotoUpload{}, models.NewValidationError(fmt.Sprintf("Missing %s photo", field))
	}
	if fh.Size > maxBytes {
		return service.PhotoUpload{}, models.NewValidationError(
			fmt.Sprintf("%s photo too large (max %d MB)", field, maxBytes>>20))
	}
	f, err := fh.Open()
	if err != nil {
		return service.PhotoUpload{}, models.NewInternalError(err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return service.PhotoUpload{}, models.NewInternalError(err)
	}
	return service.PhotoUpload{
		ContentType: fh.Header.Get(fiber.HeaderContentType),
		Content:     content,
	}, nil
}
