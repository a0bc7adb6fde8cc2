package models

import (
	"time"

	"locatify/wanderlust/internal/utils"
)

// User represents a user in the system.
type User struct {
	Base         `bson:",inline"`
	Email        string        `bson:"email" json:"email"`
	Username     string        `bson:"username" json:"username"`
	PasswordHash string        `bson:"password" json:"-"` // Store hash, not plaintext
	Favorites    []utils.SixID `bson:"favorites" json:"favorites"`
	UpdatedAt    time.Time     `bson:"updated_at" json:"updated_at"`
	CreatedAt    time.Time     `bson:"created_at" json:"created_at"`
}

// HasFavorite reports whether listingID is in the user's favorites.
func (u *User) HasFavorite(listingID utils.SixID) bool {
	if u == nil {
		return false
	}
	return utils.Contains(u.Favorites, listingID)
}

// SignupInput is the registration form.
type SignupInput struct {
	Username string `form:"username" json:"username" binding:"required"`
	Email    string `form:"email" json:"email" binding:"required,email"`
	Password string `form:"password" json:"-" binding:"required"`
}

// LoginInput is the login form.
type LoginInput struct {
	Username string `form:"username" json:"username" binding:"required"`
	Password string `form:"password" json:"-" binding:"required"`
}

// ContactInput is the contact form.
type ContactInput struct {
	Name    string `form:"name" json:"name" binding:"required"`
	Email   string `form:"email" json:"email" binding:"required,email"`
	Message string `form:"message" json:"message" binding:"required"`
}
