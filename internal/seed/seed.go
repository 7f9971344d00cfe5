package seed

import (
	"fmt"
	"log/slog"

	"quorum/internal/middleware"
	"quorum/internal/models"

	"gorm.io/gorm"
)

// CommunityOptions sizes a generated community.
type CommunityOptions struct {
	NumUsers     int
	NumQuestions int
}

// Seeder fills a database with fixtures and generated content.
type Seeder struct {
	db      *gorm.DB
	factory *Factory
}

// NewSeeder creates a Seeder for db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	return &Seeder{db: db, factory: NewFactory(db, opts)}
}

// ClearAll removes every row the application owns.
func (s *Seeder) ClearAll() error {
	for _, model := range []any{
		&models.Notification{},
		&models.Comment{},
		&models.Vote{},
		&models.Post{},
		&models.User{},
	} {
		if err := s.db.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

// SeedCommunity generates users asking, answering, commenting and voting.
func (s *Seeder) SeedCommunity(opts CommunityOptions) error {
	if opts.NumUsers < 2 {
		return fmt.Errorf("need at least 2 users, got %d", opts.NumUsers)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		u, err := s.factory.CreateUser()
		if err != nil {
			return err
		}
		users = append(users, u)
	}

	pick := func(not uint) *models.User {
		for {
			u := users[s.factory.rng.Intn(len(users))]
			if u.ID != not {
				return u
			}
		}
	}

	for i := 0; i < opts.NumQuestions; i++ {
		asker := users[s.factory.rng.Intn(len(users))]
		question, err := s.factory.CreateQuestion(asker)
		if err != nil {
			return err
		}

		posts := []*models.Post{question}
		for a := s.factory.rng.Intn(4); a > 0; a-- {
			answer, err := s.factory.CreateAnswer(question, pick(asker.ID))
			if err != nil {
				return err
			}
			posts = append(posts, answer)
		}

		for _, post := range posts {
			if _, err := s.factory.CreateComment(post, pick(0)); err != nil {
				return err
			}
			voted := map[uint]bool{}
			for v := s.factory.rng.Intn(len(users)); v > 0; v-- {
				voter := pick(post.UserID)
				if voted[voter.ID] {
					continue
				}
				voted[voter.ID] = true
				if _, err := s.factory.CreateVote(post, voter, s.factory.RandomVoteType()); err != nil {
					return err
				}
			}
		}
	}

	if err := s.RefreshScores(); err != nil {
		return err
	}
	middleware.Logger.Info("community seeded",
		slog.Int("users", opts.NumUsers),
		slog.Int("questions", opts.NumQuestions),
	)
	return nil
}

// RefreshScores recomputes every post score from the votes table.
func (s *Seeder) RefreshScores() error {
	return s.db.Exec(`UPDATE posts SET score = COALESCE((SELECT SUM(vote_type) FROM votes WHERE votes.post_id = posts.id), 0)`).Error
}
