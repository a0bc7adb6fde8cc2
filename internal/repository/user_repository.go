package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locatify/wanderlust/internal/db"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/utils"
)

// UserRepository provides access to the users collection.
type UserRepository interface {
	FindByID(ctx context.Context, id utils.SixID) (*models.User, error)
	FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Insert(ctx context.Context, user *models.User) error
	ToggleFavorite(ctx context.Context, userID, listingID utils.SixID) (bool, error)
}

type mongoUserRepository struct {
	coll *mongo.Collection
}

// NewUserRepository creates a UserRepository backed by MongoDB.
func NewUserRepository(database *mongo.Database) UserRepository {
	return &mongoUserRepository{coll: database.Collection(db.UsersCollection)}
}

func (r *mongoUserRepository) FindByID(ctx context.Context, id utils.SixID) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *mongoUserRepository) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var user models.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		return nil, notFoundOr(err, "error finding user")
	}
	return &user, nil
}

// FindByIDs returns the users in the order of ids, skipping ids that no longer exist.
func (r *mongoUserRepository) FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.User, error) {
	if len(ids) == 0 {
		return []models.User{}, nil
	}
	cur, err := r.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	users, err := decodeAll[models.User](ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("failed to decode users: %w", err)
	}
	return orderByIDs(ids, users, func(u *models.User) utils.SixID { return u.ID }), nil
}

func (r *mongoUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *mongoUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *mongoUserRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	n, err := r.coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count users: %w", err)
	}
	return n > 0, nil
}

// Insert stores a new user. Duplicate email or username surfaces as a Mongo duplicate key error
// (check with db.DuplicateKeyField); id collisions are retried.
func (r *mongoUserRepository) Insert(ctx context.Context, user *models.User) error {
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	if user.Favorites == nil {
		user.Favorites = []utils.SixID{}
	}

	err := db.WithRetries(ctx, func() error {
		user.GenID()
		_, err := r.coll.InsertOne(ctx, user)
		return err
	}, db.DefaultMaxRetries, func(err error) bool {
		return db.DuplicateKeyField(err) == "_id"
	})
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// ToggleFavorite adds listingID to the user's favorites if absent, or removes it if present,
// in a single atomic update. It returns whether the listing is now a favorite.
func (r *mongoUserRepository) ToggleFavorite(ctx context.Context, userID, listingID utils.SixID) (bool, error) {
	favorites := bson.M{"$ifNull": bson.A{"$favorites", bson.A{}}}
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"favorites": bson.M{"$cond": bson.A{
				bson.M{"$in": bson.A{listingID, favorites}},
				bson.M{"$filter": bson.M{"input": favorites, "cond": bson.M{"$ne": bson.A{"$$this", listingID}}}},
				bson.M{"$concatArrays": bson.A{favorites, bson.A{listingID}}},
			}},
			"updated_at": time.Now().UTC(),
		}}},
	}

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"favorites": 1})

	var user models.User
	err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": userID}, pipeline, opts).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, ErrNotFound
		}
		return false, fmt.Errorf("failed to toggle favorite for user %s: %w", userID, err)
	}
	return user.HasFavorite(listingID), nil
}
