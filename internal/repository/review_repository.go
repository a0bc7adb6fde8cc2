package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"locatify/wanderlust/internal/db"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/utils"
)

// ReviewRepository provides access to the reviews collection.
type ReviewRepository interface {
	FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.Review, error)
	Insert(ctx context.Context, review *models.Review) error
	Delete(ctx context.Context, id utils.SixID) error
}

type mongoReviewRepository struct {
	coll *mongo.Collection
}

// NewReviewRepository creates a ReviewRepository backed by MongoDB.
func NewReviewRepository(database *mongo.Database) ReviewRepository {
	return &mongoReviewRepository{coll: database.Collection(db.ReviewsCollection)}
}

// FindByIDs returns the reviews in the order of ids, skipping ids that no longer exist.
func (r *mongoReviewRepository) FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.Review, error) {
	if len(ids) == 0 {
		return []models.Review{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query reviews: %w", err)
	}
	reviews, err := decodeAll[models.Review](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return orderByIDs(ids, reviews, func(rv *models.Review) utils.SixID { return rv.ID }), nil
}

func (r *mongoReviewRepository) Insert(ctx context.Context, review *models.Review) error {
	review.CreatedAt = time.Now().UTC()
	err := db.Try(ctx, func() error {
		review.GenID()
		_, err := r.coll.InsertOne(ctx, review)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert review: %w", err)
	}
	return nil
}

func (r *mongoReviewRepository) Delete(ctx context.Context, id utils.SixID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete review %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
