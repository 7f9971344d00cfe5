package service

import (
	"context"
	"strings"

	"quorum/internal/models"
	"quorum/internal/repository"
)

type PostService struct {
	postRepo  repository.PostRepository
	formatter TextFormatter
}

// CreatePostInput creates a question when ParentID is nil, otherwise an answer to it.
type CreatePostInput struct {
	UserID   uint
	Title    string
	Body     string
	ParentID *uint
}

func NewPostService(postRepo repository.PostRepository, formatter TextFormatter) *PostService {
	return &PostService{postRepo: postRepo, formatter: formatter}
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.Post, error) {
	if in.UserID == 0 {
		return nil, models.NewUnauthorizedError("Authorization required")
	}

	body := strings.TrimSpace(in.Body)
	if s.formatter != nil {
		body = strings.TrimSpace(s.formatter.Sanitize(body))
	}
	if body == "" {
		return nil, models.NewValidationError("Body is required")
	}

	post := &models.Post{
		PostType: models.PostTypeQuestion,
		Title:    strings.TrimSpace(in.Title),
		Body:     body,
		UserID:   in.UserID,
	}

	if in.ParentID != nil {
		parent, err := s.postRepo.GetByID(ctx, *in.ParentID)
		if err != nil {
			return nil, err
		}
		if !parent.IsQuestion() {
			return nil, models.NewValidationError("Answers must reference a question")
		}
		post.PostType = models.PostTypeAnswer
		post.ParentID = &parent.ID
		post.Title = ""
	} else if post.Title == "" {
		return nil, models.NewValidationError("Title is required")
	}

	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return s.postRepo.GetByID(ctx, post.ID)
}

func (s *PostService) GetPost(ctx context.Context, id uint) (*models.Post, error) {
	return s.postRepo.GetByID(ctx, id)
}
