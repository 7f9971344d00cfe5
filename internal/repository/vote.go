package repository

import (
	"context"
	"errors"

	"quorum/internal/models"

	"gorm.io/gorm"
)

// VoteRepository persists votes. A (user, post) pair has at most one row.
type VoteRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Vote, error)
	FindByVoterAndPost(ctx context.Context, userID, postID uint) (*models.Vote, error)
	Create(ctx context.Context, vote *models.Vote) error
	UpdateType(ctx context.Context, vote *models.Vote) error
	Delete(ctx context.Context, id uint) error
}

type voteRepository struct {
	db *gorm.DB
}

// NewVoteRepository creates a new VoteRepository
func NewVoteRepository(db *gorm.DB) VoteRepository {
	return &voteRepository{db: db}
}

func (r *voteRepository) GetByID(ctx context.Context, id uint) (*models.Vote, error) {
	var vote models.Vote
	if err := r.db.WithContext(ctx).First(&vote, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Vote", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &vote, nil
}

// FindByVoterAndPost returns nil, nil when the user has not voted on the post.
func (r *voteRepository) FindByVoterAndPost(ctx context.Context, userID, postID uint) (*models.Vote, error) {
	var vote models.Vote
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND post_id = ?", userID, postID).
		First(&vote).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &vote, nil
}

// Create inserts vote, returning ErrConflict when the voter already has a vote on the post.
func (r *voteRepository) Create(ctx context.Context, vote *models.Vote) error {
	if err := r.db.WithContext(ctx).Create(vote).Error; err != nil {
		if isUniqueConstraintError(err) {
			return ErrConflict
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *voteRepository) UpdateType(ctx context.Context, vote *models.Vote) error {
	err := r.db.WithContext(ctx).Model(vote).Update("vote_type", vote.VoteType).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *voteRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.Vote{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
