package models

import (
	"time"

	"locatify/wanderlust/internal/utils"
)

type FlashKind string

const (
	FlashSuccess FlashKind = "success"
	FlashError   FlashKind = "error"
)

// FlashMessage is a one-shot message shown on the next rendered page.
type FlashMessage struct {
	Kind    FlashKind `bson:"kind" json:"kind"`
	Message string    `bson:"message" json:"message"`
}

// Session is a server-side browser session. ExpiresAt is fixed at creation.
type Session struct {
	ID        string         `bson:"_id" json:"id"`
	UserID    *utils.SixID   `bson:"user_id,omitempty" json:"user_id,omitempty"`
	Flash     []FlashMessage `bson:"flash" json:"flash"`
	ReturnTo  string         `bson:"return_to,omitempty" json:"return_to,omitempty"`
	CreatedAt time.Time      `bson:"created_at" json:"created_at"`
	ExpiresAt time.Time      `bson:"expires_at" json:"expires_at"`
}

// IsAuthenticated reports whether a user is attached to the session.
func (s *Session) IsAuthenticated() bool {
	return s != nil && s.UserID != nil && !s.UserID.IsZero()
}
