package models

import (
	"strconv"
	"time"
)

// PostType discriminates questions from answers.
type PostType int

const (
	PostTypeQuestion PostType = 1
	PostTypeAnswer   PostType = 2
)

func (t PostType) String() string {
	switch t {
	case PostTypeQuestion:
		return "question"
	case PostTypeAnswer:
		return "answer"
	default:
		return "unknown"
	}
}

// Post represents a question or an answer. Answers point at their question through ParentID.
type Post struct {
	ID       uint     `gorm:"primaryKey" json:"id"`
	PostType PostType `gorm:"not null;index" json:"post_type"`
	Title    string   `json:"title,omitempty"`
	Body     string   `gorm:"type:text;not null" json:"body"`
	UserID   uint     `gorm:"not null;index" json:"user_id"`
	User     User     `gorm:"foreignKey:UserID" json:"user"`
	ParentID *uint    `gorm:"index" json:"parent_id,omitempty"`
	Parent   *Post    `gorm:"foreignKey:ParentID" json:"parent,omitempty"`
	// Score is the net vote sum, refreshed after every vote change.
	Score     int       `gorm:"not null;default:0" json:"score"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsQuestion reports whether the post is a question.
func (p *Post) IsQuestion() bool {
	return p.PostType == PostTypeQuestion
}

// IsAnswer reports whether the post is an answer.
func (p *Post) IsAnswer() bool {
	return p.PostType == PostTypeAnswer
}

// NavigationTarget returns the ID of the question a post is displayed under:
// a question's own ID, or an answer's parent question ID.
func NavigationTarget(post *Post) uint {
	if post == nil {
		return 0
	}
	if post.IsAnswer() && post.ParentID != nil {
		return *post.ParentID
	}
	return post.ID
}

// QuestionTitle returns the title of the question the post belongs to.
// Answers need Parent loaded.
func QuestionTitle(post *Post) string {
	if post == nil {
		return ""
	}
	if post.IsAnswer() && post.Parent != nil {
		return post.Parent.Title
	}
	return post.Title
}

// QuestionAuthorID returns the author of the question the post belongs to.
func QuestionAuthorID(post *Post) uint {
	if post == nil {
		return 0
	}
	if post.IsAnswer() && post.Parent != nil {
		return post.Parent.UserID
	}
	return post.UserID
}

// QuestionPath is the view URL of a question.
func QuestionPath(questionID uint) string {
	return "/questions/" + strconv.FormatUint(uint64(questionID), 10)
}
