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

// ListingRepository provides access to the listings collection.
type ListingRepository interface {
	Find(ctx context.Context, filter bson.M) ([]models.Listing, error)
	FindByID(ctx context.Context, id utils.SixID) (*models.Listing, error)
	FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.Listing, error)
	Insert(ctx context.Context, listing *models.Listing) error
	InsertMany(ctx context.Context, listings []*models.Listing) error
	Update(ctx context.Context, id utils.SixID, set bson.M) error
	SetImage(ctx context.Context, id utils.SixID, image models.Image) error
	Delete(ctx context.Context, id utils.SixID) error
	DeleteAll(ctx context.Context) error
	PushReview(ctx context.Context, listingID, reviewID utils.SixID) error
	PullReview(ctx context.Context, listingID, reviewID utils.SixID) error
}

type mongoListingRepository struct {
	coll *mongo.Collection
}

// NewListingRepository creates a ListingRepository backed by MongoDB.
func NewListingRepository(database *mongo.Database) ListingRepository {
	return &mongoListingRepository{coll: database.Collection(db.ListingsCollection)}
}

func (r *mongoListingRepository) Find(ctx context.Context, filter bson.M) ([]models.Listing, error) {
	if filter == nil {
		filter = bson.M{}
	}
	cur, err := r.coll.Find(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query listings: %w", err)
	}
	listings, err := decodeAll[models.Listing](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to decode listings: %w", err)
	}
	return listings, nil
}

func (r *mongoListingRepository) FindByID(ctx context.Context, id utils.SixID) (*models.Listing, error) {
	var listing models.Listing
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&listing); err != nil {
		return nil, notFoundOr(err, "error finding listing by ID %s", id)
	}
	return &listing, nil
}

// FindByIDs returns the listings in the order of ids, skipping ids that no longer exist.
func (r *mongoListingRepository) FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.Listing, error) {
	if len(ids) == 0 {
		return []models.Listing{}, nil
	}
	listings, err := r.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	return orderByIDs(ids, listings, func(l *models.Listing) utils.SixID { return l.ID }), nil
}

// Insert stores a new listing, assigning a fresh id on every attempt.
func (r *mongoListingRepository) Insert(ctx context.Context, listing *models.Listing) error {
	now := time.Now().UTC()
	listing.CreatedAt = now
	listing.UpdatedAt = now
	if listing.Reviews == nil {
		listing.Reviews = []utils.SixID{}
	}

	err := db.Try(ctx, func() error {
		listing.GenID()
		_, err := r.coll.InsertOne(ctx, listing)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to insert listing (last attempted ID: %s): %w", listing.ID, err)
	}
	return nil
}

func (r *mongoListingRepository) InsertMany(ctx context.Context, listings []*models.Listing) error {
	if len(listings) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(listings))
	for _, l := range listings {
		l.GenIDIfEmpty()
		l.CreatedAt, l.UpdatedAt = now, now
		if l.Reviews == nil {
			l.Reviews = []utils.SixID{}
		}
		docs = append(docs, l)
	}
	if _, err := r.coll.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to insert listings: %w", err)
	}
	return nil
}

func (r *mongoListingRepository) Update(ctx context.Context, id utils.SixID, set bson.M) error {
	fields := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range set {
		fields[k] = v
	}
	return r.updateOne(ctx, id, bson.M{"$set": fields})
}

func (r *mongoListingRepository) SetImage(ctx context.Context, id utils.SixID, image models.Image) error {
	return r.Update(ctx, id, bson.M{"image": image})
}

func (r *mongoListingRepository) Delete(ctx context.Context, id utils.SixID) error {
	res, err := r.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete listing %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoListingRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.coll.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to delete listings: %w", err)
	}
	return nil
}

func (r *mongoListingRepository) PushReview(ctx context.Context, listingID, reviewID utils.SixID) error {
	return r.updateOne(ctx, listingID, bson.M{"$push": bson.M{"reviews": reviewID}})
}

func (r *mongoListingRepository) PullReview(ctx context.Context, listingID, reviewID utils.SixID) error {
	return r.updateOne(ctx, listingID, bson.M{"$pull": bson.M{"reviews": reviewID}})
}

func (r *mongoListingRepository) updateOne(ctx context.Context, id utils.SixID, update bson.M) error {
	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update listing %s: %w", id, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
