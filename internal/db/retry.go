package db

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"
)

// Operation is a function that performs an action and returns an error if it fails.
// Inserts that generate a fresh SixID inside the operation get a new id on every attempt.
type Operation func() error

// IsDuplicateKeyError is a function that checks if an error is a duplicate key error.
type IsDuplicateKeyError func(err error) bool

const DefaultMaxRetries = 3

// Try executes an operation with default retry settings for duplicate key errors.
// It uses DefaultMaxRetries and IsMongoDuplicateKeyError.
func Try(ctx context.Context, op Operation) error {
	return WithRetries(ctx, op, DefaultMaxRetries, IsMongoDuplicateKeyError)
}

// WithRetries executes op, retrying up to maxRetries times while it fails with a duplicate key error.
// Any other error, or a cancelled context, stops immediately.
func WithRetries(ctx context.Context, op Operation, maxRetries int, isDuplicateKey IsDuplicateKeyError) error {
	var err error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		if attempt == maxRetries || !isDuplicateKey(err) {
			break
		}

		log.Debug().Int("attempt", attempt+1).Msg("Duplicate key, retrying with a new id")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(50*(attempt+1)) * time.Millisecond):
		}
	}
	return err
}

// IsMongoDuplicateKeyError checks if an error from MongoDB is a duplicate key error (code 11000).
func IsMongoDuplicateKeyError(err error) bool {
	var e mongo.WriteException
	if errors.As(err, &e) {
		for _, we := range e.WriteErrors {
			if we.Code == 11000 {
				return true
			}
		}
	}
	// Also check for BulkWriteException, which can contain duplicate key errors
	var bwe mongo.BulkWriteException
	if errors.As(err, &bwe) {
		for _, writeError := range bwe.WriteErrors {
			if writeError.Code == 11000 {
				return true
			}
		}
	}
	return false
}

// DuplicateKeyField returns the first key named in a duplicate key error ("email", "title"...),
// or "" when err is not a duplicate key error or the key cannot be determined.
func DuplicateKeyField(err error) string {
	var e mongo.WriteException
	if !errors.As(err, &e) {
		return ""
	}
	for _, we := range e.WriteErrors {
		if we.Code != 11000 {
			continue
		}
		// E11000 duplicate key error collection: db.users index: email_unique dup key: { email: "a@b.c" }
		if raw, ok := we.Raw.Lookup("keyPattern").DocumentOK(); ok {
			if elems, err := raw.Elements(); err == nil && len(elems) > 0 {
				return elems[0].Key()
			}
		}
		return dupKeyFromMessage(we.Message)
	}
	return ""
}

func dupKeyFromMessage(msg string) string {
	const marker = "dup key: { "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	j := strings.Index(rest, ":")
	if j <= 0 {
		return ""
	}
	return rest[:j]
}
