package models

import (
	"time"

	"locatify/wanderlust/internal/utils"
)

const (
	PlaceholderImageURL      = "https://images.unsplash.com/photo-1564013799919-ab600027ffc6?auto=format&fit=crop&w=1000&q=80"
	PlaceholderImageFilename = "placeholder"
)

// FallbackCoordinates is used when a listing has no geometry ([lng, lat], centre of India).
var FallbackCoordinates = []float64{78.9629, 20.5937}

// Image is a stored listing image.
type Image struct {
	URL      string `bson:"url" json:"url"`
	Filename string `bson:"filename" json:"filename"`
}

// PlaceholderImage returns the image used when none was uploaded.
func PlaceholderImage() Image {
	return Image{URL: PlaceholderImageURL, Filename: PlaceholderImageFilename}
}

// IsPlaceholder reports whether the image is the default placeholder.
func (i Image) IsPlaceholder() bool {
	return i.Filename == PlaceholderImageFilename
}

// Listing is a property listing.
type Listing struct {
	Base        `bson:",inline"`
	Title       string        `bson:"title" json:"title"`
	Description string        `bson:"description" json:"description"`
	Price       float64       `bson:"price" json:"price"`
	Location    string        `bson:"location" json:"location"`
	Country     string        `bson:"country" json:"country"`
	Image       Image         `bson:"image" json:"image"`
	Geometry    *GeoJSON      `bson:"geometry,omitempty" json:"geometry,omitempty"`
	Owner       utils.SixID   `bson:"owner" json:"owner"`
	Reviews     []utils.SixID `bson:"reviews" json:"reviews"`
	CreatedAt   time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at" json:"updated_at"`
}

// DisplayGeometry returns the listing geometry, or the fallback point when it is missing.
func (l *Listing) DisplayGeometry() GeoJSON {
	if l.Geometry != nil && len(l.Geometry.Coordinates) == 2 {
		return *l.Geometry
	}
	return NewPoint(FallbackCoordinates[0], FallbackCoordinates[1])
}

// ListingCard is a listing annotated for index pages.
type ListingCard struct {
	Listing       `bson:",inline"`
	AverageRating float64 `bson:"-" json:"average_rating"`
	ReviewCount   int     `bson:"-" json:"review_count"`
	IsLiked       bool    `bson:"-" json:"is_liked"`
}

// ListingDetail is a listing with owner and reviews resolved.
type ListingDetail struct {
	Listing
	Geometry    GeoJSON        `json:"geometry"`
	OwnerUser   *User          `json:"owner_user,omitempty"`
	ReviewItems []ReviewDetail `json:"review_items"`
}

// ListingQuery holds the index page search and category parameters.
type ListingQuery struct {
	Search   string `form:"search"`
	Category string `form:"category"`
}

// ListingInput is the listing form. Price is a pointer so a missing price fails "required".
type ListingInput struct {
	Title       string   `form:"listing[title]" json:"title" binding:"required"`
	Description string   `form:"listing[description]" json:"description" binding:"required"`
	Price       *float64 `form:"listing[price]" json:"price" binding:"required,gte=0"`
	Location    string   `form:"listing[location]" json:"location" binding:"required"`
	Country     string   `form:"listing[country]" json:"country" binding:"required"`
}
