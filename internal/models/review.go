package models

import (
	"time"

	"locatify/wanderlust/internal/utils"
)

// Review is a rated comment on a listing.
type Review struct {
	Base      `bson:",inline"`
	Comment   string      `bson:"comment" json:"comment"`
	Rating    int         `bson:"rating" json:"rating"`
	Author    utils.SixID `bson:"author" json:"author"`
	CreatedAt time.Time   `bson:"created_at" json:"created_at"`
}

// ReviewDetail is a review with its author resolved. AuthorUser is nil for deleted users.
type ReviewDetail struct {
	Review
	AuthorUser *User `json:"author_user,omitempty"`
}

// ReviewInput is the review form.
type ReviewInput struct {
	Rating  int    `form:"review[rating]" json:"rating" binding:"required,min=1,max=5"`
	Comment string `form:"review[comment]" json:"comment" binding:"required"`
}
