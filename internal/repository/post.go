package repository

import (
	"context"
	"errors"

	"quorum/internal/cache"
	"quorum/internal/models"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	RefreshScore(ctx context.Context, postID uint) (int, error)
}

type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID loads a post with its author and, for answers, the parent question.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	var post models.Post
	err := cache.Aside(ctx, cache.PostKey(id), &post, cache.PostTTL, func() error {
		err := r.db.WithContext(ctx).
			Preload("User").
			Preload("Parent").
			First(&post, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Post", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// RefreshScore recomputes the post's net score from its votes and stores it.
func (r *postRepository) RefreshScore(ctx context.Context, postID uint) (int, error) {
	var score int
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Vote{}).
			Select("COALESCE(SUM(vote_type), 0)").
			Where("post_id = ?", postID).
			Scan(&score).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", postID).Update("score", score).Error
	})
	if err != nil {
		return 0, models.NewInternalError(err)
	}
	cache.InvalidatePost(ctx, postID)
	return score, nil
}
