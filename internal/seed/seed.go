// Package seed resets the listings collection to a fixed sample set.
package seed

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/utils"
)

// ListingStore is the part of the listing repository seeding needs.
type ListingStore interface {
	DeleteAll(ctx context.Context) error
	InsertMany(ctx context.Context, listings []*models.Listing) error
}

type sample struct {
	title, description string
	price              float64
	location, country  string
	imageURL           string
}

var samples = []sample{
	{"Cozy Beachfront Cottage", "Escape to this charming beachfront cottage for a relaxing getaway. Enjoy stunning ocean views and easy access to the beach.", 1500, "Malibu", "United States",
		"https://images.unsplash.com/photo-1552733407-5d5c46c3bb3b?auto=format&fit=crop&w=800&q=60"},
	{"Modern Loft in Downtown", "Stay in the heart of the city in this stylish loft apartment. Perfect for urban explorers!", 1200, "New York City", "United States",
		"https://images.unsplash.com/photo-1501785888041-af3ef285b470?auto=format&fit=crop&w=800&q=60"},
	{"Mountain Retreat", "Unplug and unwind in this peaceful mountain cabin. Surrounded by nature, it's a perfect place to recharge.", 1000, "Manali", "India",
		"https://images.unsplash.com/photo-1571896349842-33c89424de2d?auto=format&fit=crop&w=800&q=60"},
	{"Historic Villa in Tuscany", "Experience the charm of Tuscany in this beautifully restored villa. Explore the rolling hills and vineyards.", 2500, "Florence", "Italy",
		"https://images.unsplash.com/photo-1566073771259-6a8506099945?auto=format&fit=crop&w=800&q=60"},
	{"Secluded Treehouse Getaway", "Live among the treetops in this unique treehouse retreat. A true nature lover's paradise.", 800, "Portland", "United States",
		"https://images.unsplash.com/photo-1488462237308-ecaa28b729d7?auto=format&fit=crop&w=800&q=60"},
	{"Beachfront Paradise", "Step out of your door onto the sandy beach. This beachfront condo offers the ultimate relaxation.", 2000, "Goa", "India",
		"https://images.unsplash.com/photo-1571003123894-1f0594d2b5d9?auto=format&fit=crop&w=800&q=60"},
	{"Rustic Cabin by the Lake", "Spend your days fishing and kayaking on the serene lake. This cozy cabin is perfect for outdoor enthusiasts.", 900, "Lake Tahoe", "United States",
		"https://images.unsplash.com/photo-1470770841072-f978cf4d019e?auto=format&fit=crop&w=800&q=60"},
	{"Royal Haveli Stay", "Sleep in a restored haveli with painted courtyards and rooftop views of the old city.", 3000, "Jaipur", "India",
		"https://images.unsplash.com/photo-1599661046289-e31897846e41?auto=format&fit=crop&w=800&q=60"},
	{"Ski-In/Ski-Out Chalet", "Hit the slopes right from your doorstep in this ski-in/ski-out chalet in the Swiss Alps.", 3000, "Verbier", "Switzerland",
		"https://images.unsplash.com/photo-1502784444187-359ac186c5bb?auto=format&fit=crop&w=800&q=60"},
	{"Houseboat on the Backwaters", "Drift through palm-lined canals on a traditional houseboat with a private crew.", 1800, "Alleppey", "India",
		"https://images.unsplash.com/photo-1593693397690-362cb9666fc2?auto=format&fit=crop&w=800&q=60"},
	{"Desert Camp Under the Stars", "Canvas tents, camel rides and campfire dinners among the dunes.", 700, "Jaisalmer", "India",
		"https://images.unsplash.com/photo-1504280390367-361c6d9f38f4?auto=format&fit=crop&w=800&q=60"},
	{"Glass Dome Igloo", "Watch the northern lights from a heated glass igloo.", 4000, "Rovaniemi", "Finland",
		"https://images.unsplash.com/photo-1531366936337-7c912a4589a7?auto=format&fit=crop&w=800&q=60"},
}

// Listings returns the sample listings owned by owner. Geometry is left unset, so pages
// show the fallback coordinates until an owner edits the listing.
func Listings(owner utils.SixID) []*models.Listing {
	out := make([]*models.Listing, 0, len(samples))
	for _, s := range samples {
		out = append(out, &models.Listing{
			Title:       s.title,
			Description: s.description,
			Price:       s.price,
			Location:    s.location,
			Country:     s.country,
			Image:       models.Image{URL: s.imageURL, Filename: "listingimage"},
			Owner:       owner,
			Reviews:     []utils.SixID{},
		})
	}
	return out
}

// Run wipes the listings and inserts the sample set. It returns the number inserted.
func Run(ctx context.Context, store ListingStore, owner utils.SixID) (int, error) {
	if owner.IsZero() {
		return 0, fmt.Errorf("seed owner id is required")
	}
	if err := store.DeleteAll(ctx); err != nil {
		return 0, err
	}
	listings := Listings(owner)
	if err := store.InsertMany(ctx, listings); err != nil {
		return 0, err
	}
	log.Info().Int("count", len(listings)).Str("owner", owner.String()).Msg("Database initialized with sample data")
	return len(listings), nil
}
