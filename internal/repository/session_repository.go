package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"locatify/wanderlust/internal/db"
	"locatify/wanderlust/internal/models"
)

// SessionRepository provides access to the sessions collection.
type SessionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Session, error)
	Insert(ctx context.Context, session *models.Session) error
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, id string) error
}

type mongoSessionRepository struct {
	coll *mongo.Collection
}

// NewSessionRepository creates a SessionRepository backed by MongoDB.
func NewSessionRepository(database *mongo.Database) SessionRepository {
	return &mongoSessionRepository{coll: database.Collection(db.SessionsCollection)}
}

// FindByID returns a live session. Expired sessions the TTL monitor has not yet purged are not found.
func (r *mongoSessionRepository) FindByID(ctx context.Context, id string) (*models.Session, error) {
	var session models.Session
	filter := bson.M{"_id": id, "expires_at": bson.M{"$gt": time.Now().UTC()}}
	if err := r.coll.FindOne(ctx, filter).Decode(&session); err != nil {
		return nil, notFoundOr(err, "error finding session")
	}
	return &session, nil
}

func (r *mongoSessionRepository) Insert(ctx context.Context, session *models.Session) error {
	if _, err := r.coll.InsertOne(ctx, session); err != nil {
		return fmt.Errorf("failed to insert session: %w", err)
	}
	return nil
}

// Save overwrites the mutable parts of a session. Expiry is never extended.
func (r *mongoSessionRepository) Save(ctx context.Context, session *models.Session) error {
	set := bson.M{
		"flash":     session.Flash,
		"return_to": session.ReturnTo,
	}
	update := bson.M{"$set": set}
	if session.UserID != nil {
		set["user_id"] = session.UserID
	} else {
		update["$unset"] = bson.M{"user_id": ""}
	}

	res, err := r.coll.UpdateOne(ctx, bson.M{"_id": session.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *mongoSessionRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.coll.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}
