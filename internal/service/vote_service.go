package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"quorum/internal/middleware"
	"quorum/internal/models"
	"quorum/internal/observability"
	"quorum/internal/repository"

	"go.opentelemetry.io/otel/attribute"
)

// VoteService owns the one-vote-per-voter-per-post state machine.
type VoteService struct {
	voteRepo repository.VoteRepository
	postRepo repository.PostRepository
}

type CastVoteInput struct {
	UserID   uint
	PostID   uint
	VoteType models.VoteType
}

type CastVoteResult struct {
	Status string
	Vote   *models.Vote
	Score  int
}

type RemoveVoteInput struct {
	UserID uint
	VoteID uint
}

type RemoveVoteResult struct {
	Status string
	PostID uint
	Score  int
}

func NewVoteService(voteRepo repository.VoteRepository, postRepo repository.PostRepository) *VoteService {
	return &VoteService{voteRepo: voteRepo, postRepo: postRepo}
}

// CastVote records an up or down vote by in.UserID on in.PostID.
// A repeat in the same direction is rejected; the other direction overwrites the vote in place.
func (s *VoteService) CastVote(ctx context.Context, in CastVoteInput) (result *CastVoteResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "VoteService", "CastVote",
		attribute.Int64("post.id", int64(in.PostID)),
		attribute.Int("vote.type", int(in.VoteType)),
	)
	defer func() {
		observability.VotesTotal.WithLabelValues("cast", outcome(result, err)).Inc()
		observability.EndSpan(span, err)
	}()

	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError()
	}
	if !in.VoteType.Valid() {
		return nil, models.NewValidationError(models.MsgInvalidVoteType)
	}

	post, err := s.postRepo.GetByID(ctx, in.PostID)
	if err != nil {
		return nil, err
	}
	if post.UserID == in.UserID {
		return nil, models.NewSelfVoteError()
	}

	result, err = s.applyVote(ctx, in, post)
	if errors.Is(err, repository.ErrConflict) {
		// A concurrent cast inserted first; judge this one against the stored vote.
		result, err = s.applyVote(ctx, in, post)
	}
	if errors.Is(err, repository.ErrConflict) {
		return nil, models.NewInternalError(err)
	}
	if err != nil {
		return nil, err
	}

	result.Score = s.refreshScore(ctx, post)
	middleware.Logger.InfoContext(ctx, "vote cast",
		slog.Uint64("post_id", uint64(in.PostID)),
		slog.String("direction", in.VoteType.String()),
		slog.String("status", result.Status),
	)
	return result, nil
}

func (s *VoteService) applyVote(ctx context.Context, in CastVoteInput, post *models.Post) (*CastVoteResult, error) {
	existing, err := s.voteRepo.FindByVoterAndPost(ctx, in.UserID, in.PostID)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		if existing.VoteType == in.VoteType {
			return nil, models.NewDuplicateVoteError()
		}
		existing.VoteType = in.VoteType
		if err := s.voteRepo.UpdateType(ctx, existing); err != nil {
			return nil, err
		}
		return &CastVoteResult{Status: models.VoteStatusModified, Vote: existing}, nil
	}

	vote := &models.Vote{
		UserID:     in.UserID,
		PostID:     in.PostID,
		RecvUserID: post.UserID,
		VoteType:   in.VoteType,
	}
	if err := s.voteRepo.Create(ctx, vote); err != nil {
		return nil, err
	}
	return &CastVoteResult{Status: models.VoteStatusOK, Vote: vote}, nil
}

// RemoveVote deletes a vote owned by in.UserID.
func (s *VoteService) RemoveVote(ctx context.Context, in RemoveVoteInput) (result *RemoveVoteResult, err error) {
	ctx, span := observability.StartServiceSpan(ctx, "VoteService", "RemoveVote",
		attribute.Int64("vote.id", int64(in.VoteID)),
	)
	defer func() {
		observability.VotesTotal.WithLabelValues("remove", outcome(result, err)).Inc()
		observability.EndSpan(span, err)
	}()

	if in.UserID == 0 {
		return nil, models.NewUnauthenticatedError()
	}

	vote, err := s.voteRepo.GetByID(ctx, in.VoteID)
	if err != nil {
		return nil, err
	}
	if vote.UserID != in.UserID {
		return nil, models.NewNotAuthorizedError(models.MsgVoteRemoveNotAllowed)
	}

	// Loaded first so a failed refresh can still report the last known score.
	post, err := s.postRepo.GetByID(ctx, vote.PostID)
	if err != nil {
		return nil, err
	}

	if err := s.voteRepo.Delete(ctx, vote.ID); err != nil {
		return nil, err
	}

	return &RemoveVoteResult{
		Status: models.VoteStatusOK,
		PostID: vote.PostID,
		Score:  s.refreshScore(ctx, post),
	}, nil
}

// VoteFor returns userID's current vote on postID.
func (s *VoteService) VoteFor(ctx context.Context, userID, postID uint) (*models.Vote, error) {
	if userID == 0 {
		return nil, models.NewUnauthenticatedError()
	}
	vote, err := s.voteRepo.FindByVoterAndPost(ctx, userID, postID)
	if err != nil {
		return nil, err
	}
	if vote == nil {
		return nil, &models.AppError{Code: models.CodeNotFound, Message: "You have not voted on this post"}
	}
	return vote, nil
}

// refreshScore recomputes the post score. The vote is already stored, so a
// failure here is logged and the last known score is reported.
func (s *VoteService) refreshScore(ctx context.Context, post *models.Post) int {
	score, err := s.postRepo.RefreshScore(ctx, post.ID)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "failed to refresh post score",
			slog.Uint64("post_id", uint64(post.ID)),
			slog.String("error", err.Error()),
		)
		return post.Score
	}
	return score
}

// outcome turns an operation result into a metrics label.
func outcome[T any](result *T, err error) string {
	var appErr *models.AppError
	switch {
	case err == nil && result != nil:
		return "ok"
	case errors.As(err, &appErr):
		return strings.ToLower(appErr.Code)
	default:
		return "error"
	}
}
