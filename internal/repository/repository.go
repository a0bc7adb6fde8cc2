// Package repository holds the MongoDB access code for each collection.
// Repositories translate mongo.ErrNoDocuments into ErrNotFound.
package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"locatify/wanderlust/internal/utils"
)

// ErrNotFound is returned when a document does not exist.
var ErrNotFound = errors.New("not found")

func notFoundOr(err error, format string, args ...interface{}) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}

// decodeAll drains cur into a slice. It never returns a nil slice.
func decodeAll[T any](ctx context.Context, cur *mongo.Cursor) ([]T, error) {
	defer cur.Close(ctx)
	out := []T{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// orderByIDs returns docs arranged in the order of ids. Ids without a document are skipped.
func orderByIDs[T any](ids []utils.SixID, docs []T, idOf func(*T) utils.SixID) []T {
	byID := make(map[utils.SixID]T, len(docs))
	for i := range docs {
		byID[idOf(&docs[i])] = docs[i]
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		if doc, ok := byID[id]; ok {
			out = append(out, doc)
		}
	}
	return out
}
