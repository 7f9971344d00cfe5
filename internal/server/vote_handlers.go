package server

import (
	"errors"
	"log/slog"
	"strconv"
	"time"

	"quorum/internal/featureflags"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/service"

	"github.com/gofiber/fiber/v2"
)

const (
	voteRateLimit  = 30
	voteRateWindow = time.Minute
)

type castVoteRequest struct {
	PostID   uint `json:"post_id" form:"post_id"`
	VoteType int  `json:"vote_type" form:"vote_type"`
}

// CastVote handles POST /api/votes. Failures are plain-text bodies so vote
// widgets can show them verbatim.
func (s *Server) CastVote(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return voteError(c, models.NewUnauthenticatedError())
	}

	var req castVoteRequest
	if err := c.BodyParser(&req); err != nil || req.PostID == 0 {
		return voteError(c, models.NewValidationError("post_id and vote_type are required."))
	}

	if !s.allowVote(c, userID) {
		return c.Status(fiber.StatusTooManyRequests).SendString("You are voting too quickly.")
	}

	res, err := s.voteService.CastVote(c.UserContext(), service.CastVoteInput{
		UserID:   userID,
		PostID:   req.PostID,
		VoteType: models.VoteType(req.VoteType),
	})
	if err != nil {
		return voteError(c, err)
	}

	return c.JSON(fiber.Map{
		"status": res.Status,
		"vote":   res.Vote,
		"score":  res.Score,
	})
}

// RemoveVote handles DELETE /api/votes/:id.
func (s *Server) RemoveVote(c *fiber.Ctx) error {
	userID := currentUserID(c)
	if userID == 0 {
		return voteError(c, models.NewUnauthenticatedError())
	}

	voteID, err := c.ParamsInt("id")
	if err != nil || voteID <= 0 {
		return voteError(c, models.NewValidationError("Invalid vote ID."))
	}

	res, err := s.voteService.RemoveVote(c.UserContext(), service.RemoveVoteInput{
		UserID: userID,
		VoteID: uint(voteID),
	})
	if err != nil {
		return voteError(c, err)
	}

	return c.JSON(fiber.Map{
		"status":  res.Status,
		"post_id": res.PostID,
		"score":   res.Score,
	})
}

// GetMyVote handles GET /api/posts/:id/vote.
func (s *Server) GetMyVote(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	vote, err := s.voteService.VoteFor(c.UserContext(), currentUserID(c), postID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(vote)
}

// allowVote applies the per-user vote rate limit when its flag is on. It fails open.
func (s *Server) allowVote(c *fiber.Ctx, userID uint) bool {
	if s.featureFlags == nil || !s.featureFlags.Enabled(featureflags.VoteRateLimit, userID) {
		return true
	}
	allowed, err := middleware.CheckRateLimit(c.UserContext(), s.redis, "vote",
		strconv.FormatUint(uint64(userID), 10), voteRateLimit, voteRateWindow)
	if err != nil {
		middleware.Logger.WarnContext(c.UserContext(), "vote rate limit unavailable",
			slog.String("error", err.Error()),
		)
		return true
	}
	return allowed
}

func voteError(c *fiber.Ctx, err error) error {
	msg := "Internal server error"
	var appErr *models.AppError
	if errors.As(err, &appErr) && appErr.Code != models.CodeInternal {
		msg = appErr.Message
	}
	return c.Status(models.StatusFor(err)).SendString(msg)
}
