package services

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/repository"
	"locatify/wanderlust/internal/utils"
)

// IReviewService defines the interface for review operations.
type IReviewService interface {
	Create(ctx context.Context, listingID, authorID utils.SixID, input models.ReviewInput) (*models.Review, error)
	Delete(ctx context.Context, listingID, reviewID utils.SixID) error
}

type reviewService struct {
	listings repository.ListingRepository
	reviews  repository.ReviewRepository
}

// NewReviewService creates a new ReviewService.
func NewReviewService(listings repository.ListingRepository, reviews repository.ReviewRepository) IReviewService {
	return &reviewService{listings: listings, reviews: reviews}
}

// Create stores a review and links it to the listing. The two writes are not transactional:
// a failed link leaves an unreferenced review.
func (s *reviewService) Create(ctx context.Context, listingID, authorID utils.SixID, input models.ReviewInput) (*models.Review, error) {
	if err := Validate(input); err != nil {
		return nil, err
	}
	if _, err := s.listings.FindByID(ctx, listingID); err != nil {
		return nil, err
	}

	review := &models.Review{
		Comment: input.Comment,
		Rating:  input.Rating,
		Author:  authorID,
	}
	if err := s.reviews.Insert(ctx, review); err != nil {
		return nil, err
	}
	if err := s.listings.PushReview(ctx, listingID, review.ID); err != nil {
		log.Error().Err(err).Str("listing_id", listingID.String()).Str("review_id", review.ID.String()).
			Msg("Failed to link review to listing")
		return nil, err
	}
	return review, nil
}

// Delete unlinks the review from the listing and removes the review record.
// A listing that no longer exists is not an error, so orphaned reviews can still be removed.
func (s *reviewService) Delete(ctx context.Context, listingID, reviewID utils.SixID) error {
	if err := s.listings.PullReview(ctx, listingID, reviewID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	return s.reviews.Delete(ctx, reviewID)
}
