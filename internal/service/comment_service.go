package service

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"unicode/utf8"

	"quorum/internal/featureflags"
	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/observability"
	"quorum/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

const maxCommentLen = 10000

// Flash messages reported when a comment write does not go through.
const (
	MsgCommentSaveFailed      = "Comment failed to save."
	MsgCommentUpdateFailed    = "Comment failed to update."
	MsgCommentDeleteUnsaved   = "Comment marked deleted, but not saved - status unknown."
	MsgCommentUndeleteUnsaved = "Comment marked undeleted, but not saved - status unknown."
	MsgCommentNotAllowed      = "You are not allowed to modify this comment."
	MsgMentioned              = "You were mentioned in a comment"
)

var mentionPattern = regexp.MustCompile(`@(\S+) `)

// UserNotifier enqueues a notification for a user.
type UserNotifier interface {
	Notify(ctx context.Context, userID uint, content, link string) error
}

// TextFormatter cleans comment content before it is stored.
type TextFormatter interface {
	Sanitize(html string) string
	Render(markdown string) (string, error)
}

// FlagEvaluator answers feature flag lookups.
type FlagEvaluator interface {
	Enabled(name string, userID uint) bool
}

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	notifier    UserNotifier
	formatter   TextFormatter
	flags       FlagEvaluator
}

type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

type UpdateCommentInput struct {
	UserID    uint
	CommentID uint
	Content   string
}

// CommentActionInput identifies a delete or undelete request.
type CommentActionInput struct {
	UserID    uint
	CommentID uint
}

// CommentResult is a written comment plus the question it is displayed under.
type CommentResult struct {
	Comment    *models.Comment
	QuestionID uint
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifier UserNotifier,
	formatter TextFormatter,
	flags FlagEvaluator,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		formatter:   formatter,
		flags:       flags,
	}
}

// Authorize reports whether actor may edit, delete or undelete comment.
func Authorize(actor *models.User, comment *models.Comment) bool {
	if comment == nil {
		return false
	}
	return models.CanModify(actor, comment.UserID)
}

// ParseMention returns the username of the first "@name " token in content.
func ParseMention(content string) (string, bool) {
	m := mentionPattern.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// CreateComment stores a comment on a post and notifies the question author
// and, if the content mentions one, the mentioned user.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (result *CommentResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "CreateComment",
		attribute.Int64("post.id", int64(in.PostID)),
	)
	defer func() {
		observability.CommentsTotal.WithLabelValues("create", outcome(result, err)).Inc()
		observability.EndSpan(span, err)
	}()

	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authorization required")
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	questionID := models.NavigationTarget(post)
	failed := &CommentResult{QuestionID: questionID}

	content, err := s.prepareContent(in.UserID, in.Content, MsgCommentSaveFailed)
	if err != nil {
		return failed, err
	}

	comment := &models.Comment{
		Content: content,
		UserID:  in.UserID,
		PostID:  post.ID,
		Post:    *post,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return failed, models.NewValidationFailedError(MsgCommentSaveFailed, err)
	}

	link := models.QuestionPath(questionID)

	s.notify(ctx, "new_comment", models.QuestionAuthorID(post),
		"New comment on "+models.QuestionTitle(post), link)

	if username, ok := ParseMention(comment.Content); ok {
		mentioned, err := s.userRepo.GetByUsername(ctx, username)
		switch {
		case err != nil:
			middleware.Logger.WarnContext(ctx, "mention lookup failed",
				slog.String("username", username),
				slog.String("error", err.Error()),
			)
		case mentioned != nil:
			s.notify(ctx, "mention", mentioned.ID, MsgMentioned, link)
		}
	}

	return &CommentResult{Comment: comment, QuestionID: questionID}, nil
}

// UpdateComment replaces the content of a comment the actor may modify.
func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (result *CommentResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "CommentService", "UpdateComment",
		attribute.Int64("comment.id", int64(in.CommentID)),
	)
	defer func() {
		observability.CommentsTotal.WithLabelValues("update", outcome(result, err)).Inc()
		observability.EndSpan(span, err)
	}()

	comment, questionID, err := s.loadAuthorized(ctx, in.UserID, in.CommentID)
	if err != nil {
		return nil, err
	}
	failed := &CommentResult{Comment: comment, QuestionID: questionID}

	content, err := s.prepareContent(in.UserID, in.Content, MsgCommentUpdateFailed)
	if err != nil {
		return failed, err
	}

	previous := comment.Content
	comment.Content = content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		comment.Content = previous
		return failed, models.NewValidationFailedError(MsgCommentUpdateFailed, err)
	}
	return &CommentResult{Comment: comment, QuestionID: questionID}, nil
}

// SoftDeleteComment hides a comment without removing it.
func (s *CommentService) SoftDeleteComment(ctx context.Context, in CommentActionInput) (*CommentResult, error) {
	return s.setDeleted(ctx, in, true)
}

// UndeleteComment reverses SoftDeleteComment.
func (s *CommentService) UndeleteComment(ctx context.Context, in CommentActionInput) (*CommentResult, error) {
	return s.setDeleted(ctx, in, false)
}

func (s *CommentService) setDeleted(ctx context.Context, in CommentActionInput, deleted bool) (result *CommentResult, err error) {
	action, unsaved := "delete", MsgCommentDeleteUnsaved
	if !deleted {
		action, unsaved = "undelete", MsgCommentUndeleteUnsaved
	}

	ctx, span := observability.StartServiceSpan(ctx, "CommentService", action,
		attribute.Int64("comment.id", int64(in.CommentID)),
	)
	defer func() {
		observability.CommentsTotal.WithLabelValues(action, outcome(result, err)).Inc()
		observability.EndSpan(span, err)
	}()

	comment, questionID, err := s.loadAuthorized(ctx, in.UserID, in.CommentID)
	if err != nil {
		return nil, err
	}

	comment.Deleted = deleted
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		middleware.Logger.ErrorContext(ctx, "comment flag changed but not saved",
			slog.Uint64("comment_id", uint64(comment.ID)),
			slog.Bool("deleted", deleted),
			slog.String("error", err.Error()),
		)
		return &CommentResult{Comment: comment, QuestionID: questionID},
			models.NewInconsistentStateError(unsaved, err)
	}
	return &CommentResult{Comment: comment, QuestionID: questionID}, nil
}

// ListComments returns a post's comments. Staff also see deleted ones.
func (s *CommentService) ListComments(ctx context.Context, postID, viewerID uint) ([]*models.Comment, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}

	includeDeleted := false
	if viewerID != 0 {
		viewer, err := s.userRepo.GetFresh(ctx, viewerID)
		if err != nil && !models.IsCode(err, models.CodeNotFound) {
			return nil, err
		}
		includeDeleted = viewer.IsStaff()
	}

	comments, err := s.commentRepo.ListByPost(ctx, postID, includeDeleted)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

// loadAuthorized fetches a comment and checks that actorID may modify it.
func (s *CommentService) loadAuthorized(ctx context.Context, actorID, commentID uint) (*models.Comment, uint, error) {
	if actorID == 0 {
		return nil, 0, models.NewUnauthorizedError("Authorization required")
	}

	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, 0, err
	}

	actor, err := s.userRepo.GetFresh(ctx, actorID)
	if err != nil && !models.IsCode(err, models.CodeNotFound) {
		return nil, 0, err
	}
	if !Authorize(actor, comment) {
		return nil, 0, models.NewForbiddenError(MsgCommentNotAllowed)
	}

	return comment, models.NavigationTarget(&comment.Post), nil
}

// prepareContent validates raw content and returns its stored form.
func (s *CommentService) prepareContent(userID uint, raw, failMsg string) (string, error) {
	if err := validateContent(raw); err != nil {
		return "", err
	}
	content, err := s.format(userID, raw)
	if err != nil {
		return "", models.NewValidationFailedError(failMsg, err)
	}
	if strings.TrimSpace(content) == "" {
		return "", models.NewValidationError("Content is required")
	}
	return content, nil
}

func (s *CommentService) format(userID uint, content string) (string, error) {
	if s.formatter == nil {
		return content, nil
	}
	if s.flags != nil && s.flags.Enabled(featureflags.MarkdownComments, userID) {
		return s.formatter.Render(content)
	}
	return s.formatter.Sanitize(content), nil
}

// notify never fails the caller; the comment is already stored.
func (s *CommentService) notify(ctx context.Context, kind string, userID uint, content, link string) {
	if s.notifier == nil || userID == 0 {
		return
	}
	err := s.notifier.Notify(ctx, userID, content, link)
	observability.NotificationsTotal.WithLabelValues(kind, observability.ResultLabel(err)).Inc()
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to enqueue notification",
			slog.String("kind", kind),
			slog.Uint64("recipient_id", uint64(userID)),
			slog.String("error", err.Error()),
		)
	}
}

func validateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if utf8.RuneCountInString(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}
