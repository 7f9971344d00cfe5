package server

import (
	"quorum/internal/models"

	"github.com/gofiber/fiber/v2"
)

// SetUserRoles handles PUT /api/admin/users/:id/roles.
func (s *Server) SetUserRoles(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req struct {
		IsModerator bool `json:"is_moderator"`
		IsAdmin     bool `json:"is_admin"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	if err := s.userRepo.UpdateRoles(c.UserContext(), userID, req.IsModerator, req.IsAdmin); err != nil {
		return respondError(c, err)
	}

	user, err := s.userRepo.GetFresh(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}
