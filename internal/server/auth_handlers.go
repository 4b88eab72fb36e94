package server

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"

	"learnhub/internal/models"
)

// LoginRequest represents the request body for user login
type LoginRequest struct {
	// Login accepts either an e-mail address or a username.
	Login    string `json:"login"`
	Password string `json:"password"`
}

// LoginResponse carries the access token of an authenticated user.
type LoginResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

// Login checks the password and issues an access token.
func (s *Server) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Login and password are required"))
	}

	ctx := c.UserContext()
	var (
		user *models.User
		err  error
	)
	if strings.Contains(login, "@") {
		user, err = s.userRepo.GetByEmail(ctx, login)
	} else {
		user, err = s.userRepo.GetByUsername(ctx, login)
	}
	if err != nil {
		return models.RespondWithAppError(c, err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	now := time.Now().UTC()
	token, err := s.tokens.Issue(user.ID, now)
	if err != nil {
		return models.RespondWithAppError(c, models.NewInternalError(err))
	}
	return c.JSON(LoginResponse{
		Token:     token,
		ExpiresAt: now.Add(tokenTTL),
		User:      user,
	})
}
