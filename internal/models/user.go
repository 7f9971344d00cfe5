// Package models contains data structures for the application's domain models.
package models

import (
	"time"
)

// User represents a registered account.
type User struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Username    string    `gorm:"uniqueIndex;not null" json:"username"`
	Email       string    `gorm:"uniqueIndex;not null" json:"-"`
	Password    string    `gorm:"not null" json:"-"`
	IsModerator bool      `gorm:"not null;default:false" json:"is_moderator"`
	IsAdmin     bool      `gorm:"not null;default:false" json:"is_admin"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Capability is a single privilege derived from a user's role flags.
type Capability uint8

const (
	CapModerate Capability = 1 << iota
	CapAdminister
)

// Capabilities returns the privilege set granted by the user's role flags.
func (u *User) Capabilities() Capability {
	if u == nil {
		return 0
	}
	var caps Capability
	if u.IsModerator {
		caps |= CapModerate
	}
	if u.IsAdmin {
		caps |= CapAdminister
	}
	return caps
}

// Has reports whether every capability in want is present.
func (c Capability) Has(want Capability) bool {
	return c&want == want
}

// IsStaff reports whether the user holds a moderator or admin role.
func (u *User) IsStaff() bool {
	caps := u.Capabilities()
	return caps.Has(CapModerate) || caps.Has(CapAdminister)
}

// CanModify reports whether actor may edit, delete or undelete a record authored by ownerID.
func CanModify(actor *User, ownerID uint) bool {
	if actor == nil {
		return false
	}
	return actor.IsStaff() || actor.ID == ownerID
}
