package server

import (
	"log/slog"
	"strings"
	"time"

	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// account is the signed-in user's own view. Unlike the author objects nested
// in posts and comments it carries the email address.
type account struct {
	*models.User
	Email string `json:"email"`
}

func newAccount(u *models.User) account {
	return account{User: u, Email: u.Email}
}

// Signup handles POST /api/auth/signup
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	for _, check := range []func() error{
		func() error { return validation.ValidateUsername(req.Username) },
		func() error { return validation.ValidateEmail(req.Email) },
		func() error { return validation.ValidatePassword(req.Password) },
	} {
		if err := check(); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError(err.Error()))
		}
	}

	ctx := c.UserContext()
	existing, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return respondError(c, err)
	}
	if existing == nil {
		existing, err = s.userRepo.GetByUsername(ctx, req.Username)
		if err != nil {
			return respondError(c, err)
		}
	}
	if existing != nil {
		return models.RespondWithError(c, fiber.StatusConflict,
			models.NewValidationError("User already exists"))
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if models.IsCode(err, models.CodeValidation) {
			return models.RespondWithError(c, fiber.StatusConflict, err)
		}
		return respondError(c, err)
	}

	token, _, err := middleware.IssueToken(s.config.JWTSecret, user.ID, time.Now())
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"token": token,
		"user":  newAccount(user),
	})
}

// Login handles POST /api/auth/login
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userRepo.GetByEmail(c.UserContext(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return respondError(c, err)
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, _, err := middleware.IssueToken(s.config.JWTSecret, user.ID, time.Now())
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"token": token,
		"user":  newAccount(user),
	})
}

// Logout revokes the caller's token until it would have expired anyway.
func (s *Server) Logout(c *fiber.Ctx) error {
	jti, _ := c.Locals("jti").(string)
	exp, _ := c.Locals("tokenExp").(time.Time)

	if jti != "" && s.redis != nil {
		if err := s.redis.Set(c.UserContext(), "blacklist:"+jti, "1", tokenTTL(exp)).Err(); err != nil {
			middleware.Logger.ErrorContext(c.UserContext(), "failed to revoke token",
				slog.String("error", err.Error()),
			)
			return respondError(c, models.NewInternalError(err))
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}
