package models

import "time"

// VoteType is the direction of a vote.
type VoteType int

const (
	VoteDown VoteType = -1
	VoteUp   VoteType = 1
)

// Valid reports whether t is up or down.
func (t VoteType) Valid() bool {
	return t == VoteUp || t == VoteDown
}

func (t VoteType) String() string {
	switch t {
	case VoteUp:
		return "up"
	case VoteDown:
		return "down"
	default:
		return "invalid"
	}
}

// Vote status strings reported to clients.
const (
	VoteStatusOK       = "OK"
	VoteStatusModified = "modified"
)

// Vote is one user's up or down vote on one post.
// The combination of UserID and PostID must be unique.
type Vote struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_votes_user_post" json:"user_id"`
	PostID     uint      `gorm:"not null;uniqueIndex:idx_votes_user_post;index" json:"post_id"`
	RecvUserID uint      `gorm:"not null;index" json:"recv_user_id"`
	VoteType   VoteType  `gorm:"not null" json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
