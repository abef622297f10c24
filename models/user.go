package models

import (
	"time"
)

const (
	RoleAdmin    = "Admin"
	RoleArtist   = "Artist/Organizer"
	RoleAttendee = "Attendee"
)

type User struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Role      string     `json:"role"` // Admin, Artist/Organizer, Attendee
	Bio       string     `json:"bio,omitempty"`
	IsBanned  bool       `json:"is_banned"`
	BanReason string     `json:"ban_reason,omitempty"`
	BannedAt  *time.Time `json:"banned_at,omitempty"`
	BannedBy  string     `json:"banned_by,omitempty"`
	Created   time.Time  `json:"created"`
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleArtist, RoleAttendee:
		return true
	}
	return false
}
