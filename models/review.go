package models

import (
	"time"
)

type Review struct {
	ID      string    `json:"id"`
	EventID string    `json:"event_id"`
	UserID  string    `json:"user_id"`
	Rating  int       `json:"rating"` // 1-5
	Comment string    `json:"comment,omitempty"`
	Created time.Time `json:"created"`
}

type Discussion struct {
	ID      string    `json:"id"`
	EventID string    `json:"event_id"`
	UserID  string    `json:"user_id"`
	Message string    `json:"message"`
	Created time.Time `json:"created"`
}
