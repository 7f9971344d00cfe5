package server

import (
	"errors"

	"quorum/internal/models"
	"quorum/internal/service"

	"github.com/gofiber/fiber/v2"
)

type commentRequest struct {
	Content string `json:"content" form:"content"`
	PostID  uint   `json:"post_id" form:"post_id"`
}

// CreateComment handles POST /api/comments and redirects to the question view.
func (s *Server) CreateComment(c *fiber.Ctx) error {
	var req commentRequest
	if err := c.BodyParser(&req); err != nil || req.PostID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.commentService.CreateComment(c.UserContext(), service.CreateCommentInput{
		UserID:  currentUserID(c),
		PostID:  req.PostID,
		Content: req.Content,
	})
	return commentOutcome(c, res, err)
}

// UpdateComment handles PATCH /api/comments/:id.
func (s *Server) UpdateComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	res, err := s.commentService.UpdateComment(c.UserContext(), service.UpdateCommentInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
		Content:   req.Content,
	})
	return commentOutcome(c, res, err)
}

// DeleteComment handles DELETE /api/comments/:id. The comment is only hidden.
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.commentService.SoftDeleteComment(c.UserContext(), service.CommentActionInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
	})
	return commentOutcome(c, res, err)
}

// UndeleteComment handles POST /api/comments/:id/undelete.
func (s *Server) UndeleteComment(c *fiber.Ctx) error {
	commentID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	res, err := s.commentService.UndeleteComment(c.UserContext(), service.CommentActionInput{
		UserID:    currentUserID(c),
		CommentID: commentID,
	})
	return commentOutcome(c, res, err)
}

// GetComments handles GET /api/posts/:id/comments. Staff also see deleted comments.
func (s *Server) GetComments(c *fiber.Ctx) error {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	comments, err := s.commentService.ListComments(c.UserContext(), postID, currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// commentOutcome redirects to the question on success and on recoverable
// failures, which also leave a flash message. Authorization failures and
// unknown records are answered directly.
func commentOutcome(c *fiber.Ctx, res *service.CommentResult, err error) error {
	if err == nil {
		return redirectToQuestion(c, res.QuestionID)
	}

	var appErr *models.AppError
	if res == nil || res.QuestionID == 0 || !errors.As(err, &appErr) || appErr.Code == models.CodeInternal {
		return respondError(c, err)
	}

	setFlash(c, appErr.Message)
	return redirectToQuestion(c, res.QuestionID)
}
