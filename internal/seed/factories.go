// Package seed provides helpers to create fixture and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"time"

	"quorum/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

// Options tunes the factory.
type Options struct {
	// SkipBcrypt hashes with the minimum cost, for fast tests.
	SkipBcrypt bool
	// MaxDays spreads generated timestamps over this many past days.
	MaxDays int
}

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db   *gorm.DB
	opts Options
	rng  *rand.Rand
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB, opts Options) *Factory {
	seed := time.Now().UnixNano()
	gofakeit.Seed(seed)
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	return &Factory{db: db, opts: opts, rng: rand.New(rand.NewSource(seed))}
}

// HashPassword hashes DefaultPassword with the configured cost.
func (f *Factory) HashPassword() (string, error) {
	cost := bcrypt.DefaultCost
	if f.opts.SkipBcrypt {
		cost = bcrypt.MinCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), cost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	return string(hashed), nil
}

// CreateUser persists a user with generated identity. Overrides run before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	hashed, err := f.HashPassword()
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Username: gofakeit.Username() + fmt.Sprintf("%d", gofakeit.Number(100, 999)),
		Email:    gofakeit.Email(),
		Password: hashed,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.db.Create(user).Error; err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Username, err)
	}
	return user, nil
}

// CreateQuestion persists a question authored by author.
func (f *Factory) CreateQuestion(author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	post := &models.Post{
		PostType:  models.PostTypeQuestion,
		Title:     gofakeit.Question(),
		Body:      gofakeit.Paragraph(1, 3, 12, "\n\n"),
		UserID:    author.ID,
		CreatedAt: f.pastTime(),
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("create question: %w", err)
	}
	return post, nil
}

// CreateAnswer persists an answer to question authored by author.
func (f *Factory) CreateAnswer(question *models.Post, author *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	parentID := question.ID
	post := &models.Post{
		PostType:  models.PostTypeAnswer,
		Body:      gofakeit.Paragraph(1, 2, 10, "\n\n"),
		UserID:    author.ID,
		ParentID:  &parentID,
		CreatedAt: question.CreatedAt.Add(time.Duration(f.rng.Intn(48)+1) * time.Hour),
	}
	for _, override := range overrides {
		override(post)
	}
	if err := f.db.Create(post).Error; err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}
	return post, nil
}

// CreateComment persists a comment by author on post.
func (f *Factory) CreateComment(post *models.Post, author *models.User, overrides ...func(*models.Comment)) (*models.Comment, error) {
	comment := &models.Comment{
		Content: gofakeit.Sentence(gofakeit.Number(4, 16)),
		UserID:  author.ID,
		PostID:  post.ID,
	}
	for _, override := range overrides {
		override(comment)
	}
	if err := f.db.Omit("User", "Post").Create(comment).Error; err != nil {
		return nil, fmt.Errorf("create comment: %w", err)
	}
	return comment, nil
}

// CreateVote persists a vote by voter on post.
func (f *Factory) CreateVote(post *models.Post, voter *models.User, voteType models.VoteType) (*models.Vote, error) {
	vote := &models.Vote{
		UserID:     voter.ID,
		PostID:     post.ID,
		RecvUserID: post.UserID,
		VoteType:   voteType,
	}
	if err := f.db.Create(vote).Error; err != nil {
		return nil, fmt.Errorf("create vote: %w", err)
	}
	return vote, nil
}

// RandomVoteType returns up about three times as often as down.
func (f *Factory) RandomVoteType() models.VoteType {
	if f.rng.Intn(4) == 0 {
		return models.VoteDown
	}
	return models.VoteUp
}

func (f *Factory) pastTime() time.Time {
	back := time.Duration(f.rng.Intn(f.opts.MaxDays))*24*time.Hour +
		time.Duration(f.rng.Intn(24))*time.Hour
	return time.Now().Add(-back)
}
