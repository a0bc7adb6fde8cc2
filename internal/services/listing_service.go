package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/sync/errgroup"

	"locatify/wanderlust/internal/geocode"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/repository"
	"locatify/wanderlust/internal/storage"
	"locatify/wanderlust/internal/utils"
)

// IListingService defines the interface for listing-related operations.
type IListingService interface {
	List(ctx context.Context, query models.ListingQuery, viewer *models.User) ([]models.ListingCard, error)
	Get(ctx context.Context, id utils.SixID) (*models.ListingDetail, error)
	FindByID(ctx context.Context, id utils.SixID) (*models.Listing, error)
	Create(ctx context.Context, ownerID utils.SixID, input models.ListingInput, upload *storage.Upload) (*models.Listing, error)
	Update(ctx context.Context, id utils.SixID, input models.ListingInput, upload *storage.Upload) (*models.Listing, error)
	Delete(ctx context.Context, id utils.SixID) error
	ToggleLike(ctx context.Context, userID, listingID utils.SixID) (bool, error)
	Wishlist(ctx context.Context, userID utils.SixID) ([]models.ListingCard, error)
}

// ImageTaskEnqueuer schedules post-upload processing of a listing image.
type ImageTaskEnqueuer interface {
	EnqueueImageProcess(ctx context.Context, filename string, listingID utils.SixID) error
}

// categoryFilters maps the fixed category slugs to their listing filters.
var categoryFilters = map[string]bson.M{
	"trending": {"price": bson.M{"$gte": 2000}},
	"rooms":    {"title": ciRegex("apartment|room|studio")},
	"iconic-cities": {"$or": bson.A{
		bson.M{"location": ciRegex("mumbai|delhi|bangalore|goa")},
		bson.M{"country": ciRegex("india")},
	}},
	"mountains": {"$or": bson.A{
		bson.M{"title": ciRegex("mountain|hill|peak")},
		bson.M{"location": ciRegex("manali|himachal|kashmir")},
	}},
	"castles":       {"title": ciRegex("castle|palace|haveli")},
	"amazing-pools": {"title": ciRegex("pool|villa|resort")},
	"camping":       {"title": ciRegex("camp|cabin|lodge")},
	"farms":         {"title": ciRegex("farm|rural|countryside")},
	"arctic":        {"title": ciRegex("snow|winter|ski")},
	"domes":         {"title": ciRegex("dome|igloo|unique")},
	"boats":         {"title": ciRegex("boat|yacht|water")},
}

func ciRegex(pattern string) primitive.Regex {
	return primitive.Regex{Pattern: pattern, Options: "i"}
}

// listingFilter builds the Mongo filter for an index query. Search wins over category;
// an unknown category yields an empty (match-all) filter.
func listingFilter(query models.ListingQuery) bson.M {
	if term := trimmed(query.Search); term != "" {
		re := ciRegex(regexp.QuoteMeta(term))
		return bson.M{"$or": bson.A{
			bson.M{"title": re},
			bson.M{"description": re},
			bson.M{"location": re},
			bson.M{"country": re},
		}}
	}
	if f, ok := categoryFilters[strings.ToLower(trimmed(query.Category))]; ok {
		return f
	}
	return bson.M{}
}

// listingService implements IListingService.
type listingService struct {
	listings repository.ListingRepository
	reviews  repository.ReviewRepository
	users    repository.UserRepository
	geocoder geocode.Geocoder
	images   storage.ImageStore
	tasks    ImageTaskEnqueuer
}

// NewListingService creates a new ListingService. tasks may be nil.
func NewListingService(
	listings repository.ListingRepository,
	reviews repository.ReviewRepository,
	users repository.UserRepository,
	geocoder geocode.Geocoder,
	images storage.ImageStore,
	tasks ImageTaskEnqueuer,
) IListingService {
	return &listingService{
		listings: listings,
		reviews:  reviews,
		users:    users,
		geocoder: geocoder,
		images:   images,
		tasks:    tasks,
	}
}

func (s *listingService) List(ctx context.Context, query models.ListingQuery, viewer *models.User) ([]models.ListingCard, error) {
	listings, err := s.listings.Find(ctx, listingFilter(query))
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, listings, viewer)
}

// annotate attaches rating statistics and the viewer's like state to each listing.
func (s *listingService) annotate(ctx context.Context, listings []models.Listing, viewer *models.User) ([]models.ListingCard, error) {
	var ids []utils.SixID
	for _, l := range listings {
		ids = append(ids, l.Reviews...)
	}
	reviews, err := s.reviews.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	ratings := make(map[utils.SixID]int, len(reviews))
	for _, r := range reviews {
		ratings[r.ID] = r.Rating
	}

	cards := make([]models.ListingCard, 0, len(listings))
	for _, l := range listings {
		sum, count := 0, 0
		for _, id := range l.Reviews {
			if rating, ok := ratings[id]; ok {
				sum += rating
				count++
			}
		}
		cards = append(cards, models.ListingCard{
			Listing:       l,
			AverageRating: averageRating(sum, count),
			ReviewCount:   count,
			IsLiked:       viewer.HasFavorite(l.ID),
		})
	}
	return cards, nil
}

// averageRating is the mean rounded to one decimal, 0 when there are no ratings.
func averageRating(sum, count int) float64 {
	if count == 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*10) / 10
}

func (s *listingService) FindByID(ctx context.Context, id utils.SixID) (*models.Listing, error) {
	return s.listings.FindByID(ctx, id)
}

// Get loads a listing with its owner and reviews (with authors). Owner and reviews
// are fetched concurrently.
func (s *listingService) Get(ctx context.Context, id utils.SixID) (*models.ListingDetail, error) {
	listing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &models.ListingDetail{
		Listing:     *listing,
		Geometry:    listing.DisplayGeometry(),
		ReviewItems: []models.ReviewDetail{},
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		owner, err := s.users.FindByID(gctx, listing.Owner)
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		detail.OwnerUser = owner
		return nil
	})
	g.Go(func() error {
		items, err := s.reviewDetails(gctx, listing.Reviews)
		if err != nil {
			return err
		}
		detail.ReviewItems = items
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load listing %s: %w", id, err)
	}
	return detail, nil
}

func (s *listingService) reviewDetails(ctx context.Context, ids []utils.SixID) ([]models.ReviewDetail, error) {
	reviews, err := s.reviews.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	authorIDs := make([]utils.SixID, 0, len(reviews))
	for _, r := range reviews {
		if !utils.Contains(authorIDs, r.Author) {
			authorIDs = append(authorIDs, r.Author)
		}
	}
	authors, err := s.users.FindByIDs(ctx, authorIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[utils.SixID]*models.User, len(authors))
	for i := range authors {
		byID[authors[i].ID] = &authors[i]
	}

	items := make([]models.ReviewDetail, 0, len(reviews))
	for _, r := range reviews {
		items = append(items, models.ReviewDetail{Review: r, AuthorUser: byID[r.Author]})
	}
	return items, nil
}

// validateListing trims the location and checks the form constraints.
// The location check runs first so no collaborator is called for a blank location.
func validateListing(input *models.ListingInput) error {
	input.Location = trimmed(input.Location)
	if input.Location == "" {
		return ErrLocationRequired
	}
	if input.Price != nil && !IsFinite(*input.Price) {
		return ErrInvalidPrice
	}
	return Validate(input)
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// locate geocodes a location to a GeoJSON point using the first result.
func (s *listingService) locate(ctx context.Context, location string) (*models.GeoJSON, error) {
	results, err := s.geocoder.Geocode(ctx, location)
	if err != nil {
		return nil, &ExternalServiceError{Service: ServiceGeocoder, Err: err}
	}
	if len(results) == 0 {
		return nil, ErrLocationNotFound
	}
	point := models.NewPoint(results[0].Longitude, results[0].Latitude)
	return &point, nil
}

func (s *listingService) storeImage(ctx context.Context, upload *storage.Upload) (models.Image, error) {
	img, err := s.images.Put(ctx, *upload)
	if err != nil {
		return models.Image{}, &ExternalServiceError{Service: ServiceImageStorage, Err: err}
	}
	return img, nil
}

func (s *listingService) enqueueImage(ctx context.Context, img models.Image, listingID utils.SixID) {
	if s.tasks == nil || img.IsPlaceholder() {
		return
	}
	if err := s.tasks.EnqueueImageProcess(ctx, img.Filename, listingID); err != nil {
		log.Warn().Err(err).Str("listing_id", listingID.String()).Str("filename", img.Filename).
			Msg("Failed to enqueue image processing")
	}
}

// Create validates, geocodes and stores a new listing. Nothing is persisted when
// validation, geocoding or the image upload fails.
func (s *listingService) Create(ctx context.Context, ownerID utils.SixID, input models.ListingInput, upload *storage.Upload) (*models.Listing, error) {
	if err := validateListing(&input); err != nil {
		return nil, err
	}

	geometry, err := s.locate(ctx, input.Location)
	if err != nil {
		return nil, err
	}

	image := models.PlaceholderImage()
	if upload != nil {
		if image, err = s.storeImage(ctx, upload); err != nil {
			return nil, err
		}
	}

	listing := &models.Listing{
		Title:       input.Title,
		Description: input.Description,
		Price:       *input.Price,
		Location:    input.Location,
		Country:     input.Country,
		Image:       image,
		Geometry:    geometry,
		Owner:       ownerID,
		Reviews:     []utils.SixID{},
	}
	if err := s.listings.Insert(ctx, listing); err != nil {
		return nil, err
	}

	log.Info().Str("listing_id", listing.ID.String()).Str("owner_id", ownerID.String()).Msg("Listing created")
	if upload != nil {
		s.enqueueImage(ctx, listing.Image, listing.ID)
	}
	return listing, nil
}

// Update rewrites the listing fields, re-geocoding only when the location changed or the
// geometry is missing. A new image is written after the field update succeeded.
func (s *listingService) Update(ctx context.Context, id utils.SixID, input models.ListingInput, upload *storage.Upload) (*models.Listing, error) {
	existing, err := s.listings.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateListing(&input); err != nil {
		return nil, err
	}

	set := bson.M{
		"title":       input.Title,
		"description": input.Description,
		"price":       *input.Price,
		"location":    input.Location,
		"country":     input.Country,
	}
	if input.Location != trimmed(existing.Location) || existing.Geometry == nil {
		geometry, err := s.locate(ctx, input.Location)
		if err != nil {
			return nil, err
		}
		set["geometry"] = geometry
	}

	if err := s.listings.Update(ctx, id, set); err != nil {
		return nil, err
	}

	if upload != nil {
		image, err := s.storeImage(ctx, upload)
		if err != nil {
			return nil, err
		}
		if err := s.listings.SetImage(ctx, id, image); err != nil {
			return nil, err
		}
		s.enqueueImage(ctx, image, id)
	}

	return s.listings.FindByID(ctx, id)
}

// Delete removes the listing. Its reviews are left in place.
func (s *listingService) Delete(ctx context.Context, id utils.SixID) error {
	if err := s.listings.Delete(ctx, id); err != nil {
		return err
	}
	log.Info().Str("listing_id", id.String()).Msg("Listing deleted")
	return nil
}

func (s *listingService) ToggleLike(ctx context.Context, userID, listingID utils.SixID) (bool, error) {
	return s.users.ToggleFavorite(ctx, userID, listingID)
}

// Wishlist returns the user's favourite listings, skipping ids that no longer exist.
func (s *listingService) Wishlist(ctx context.Context, userID utils.SixID) ([]models.ListingCard, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	listings, err := s.listings.FindByIDs(ctx, user.Favorites)
	if err != nil {
		return nil, err
	}
	return s.annotate(ctx, listings, user)
}
