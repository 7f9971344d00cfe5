package seed

import (
	"fmt"

	"quorum/internal/models"

	"gorm.io/gorm"
)

// Fixtures is the small, fixed data set used by tests and local development.
//
// question_one is asked by standard_user and carries an up vote by editor
// (vote one). question_two is asked by editor. answer_one answers question_one.
type Fixtures struct {
	StandardUser *models.User
	Editor       *models.User
	Moderator    *models.User
	Admin        *models.User
	QuestionOne  *models.Post
	QuestionTwo  *models.Post
	AnswerOne    *models.Post
	VoteOne      *models.Vote
}

// LoadFixtures inserts the fixture set into db.
func LoadFixtures(db *gorm.DB) (*Fixtures, error) {
	f := NewFactory(db, Options{SkipBcrypt: true})
	fx := &Fixtures{}

	var err error
	users := []struct {
		dst      **models.User
		username string
		mod      bool
		admin    bool
	}{
		{&fx.StandardUser, "standard_user", false, false},
		{&fx.Editor, "editor", false, false},
		{&fx.Moderator, "moderator", true, false},
		{&fx.Admin, "admin", false, true},
	}
	for _, u := range users {
		*u.dst, err = f.CreateUser(func(m *models.User) {
			m.Username = u.username
			m.Email = u.username + "@example.com"
			m.IsModerator = u.mod
			m.IsAdmin = u.admin
		})
		if err != nil {
			return nil, err
		}
	}

	if fx.QuestionOne, err = f.CreateQuestion(fx.StandardUser, func(p *models.Post) {
		p.Title = "Question one"
		p.Body = "What is the first question?"
	}); err != nil {
		return nil, err
	}
	if fx.QuestionTwo, err = f.CreateQuestion(fx.Editor, func(p *models.Post) {
		p.Title = "Question two"
		p.Body = "What is the second question?"
	}); err != nil {
		return nil, err
	}
	if fx.AnswerOne, err = f.CreateAnswer(fx.QuestionOne, fx.Moderator, func(p *models.Post) {
		p.Body = "The first answer."
	}); err != nil {
		return nil, err
	}

	if fx.VoteOne, err = f.CreateVote(fx.QuestionOne, fx.Editor, models.VoteUp); err != nil {
		return nil, err
	}
	if err := db.Model(&models.Post{}).Where("id = ?", fx.QuestionOne.ID).Update("score", 1).Error; err != nil {
		return nil, fmt.Errorf("score question_one: %w", err)
	}
	fx.QuestionOne.Score = 1

	return fx, nil
}
