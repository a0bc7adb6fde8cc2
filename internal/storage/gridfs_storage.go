package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/observability"
)

const gridFSBucketName = "images"

// GridFSStorage keeps images in a GridFS bucket of the application database.
// Images are served back by the /images/:id route, so URLs are relative.
type GridFSStorage struct {
	db        *mongo.Database
	folder    string
	urlPrefix string
}

// NewGridFSStorage creates an image store in database. urlPrefix is the route serving images.
func NewGridFSStorage(database *mongo.Database, folder, urlPrefix string) *GridFSStorage {
	return &GridFSStorage{db: database, folder: folder, urlPrefix: urlPrefix}
}

// bucket opens the GridFS bucket with ctx's deadline applied.
// Buckets are cheap; a fresh one per call keeps deadlines from leaking between requests.
func (s *GridFSStorage) bucket(ctx context.Context) (*gridfs.Bucket, error) {
	b, err := gridfs.NewBucket(s.db, options.GridFSBucket().SetName(gridFSBucketName))
	if err != nil {
		return nil, fmt.Errorf("failed to open GridFS bucket: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = b.SetReadDeadline(deadline)
		_ = b.SetWriteDeadline(deadline)
	}
	return b, nil
}

func (s *GridFSStorage) Put(ctx context.Context, upload Upload) (models.Image, error) {
	name := newObjectName(upload)
	if err := s.upload(ctx, name, upload.Body, upload.ContentType); err != nil {
		return models.Image{}, err
	}
	log.Info().Str("filename", name).Msg("Stored image in GridFS")
	return models.Image{URL: s.urlPrefix + "/" + name, Filename: name}, nil
}

func (s *GridFSStorage) Get(ctx context.Context, filename string) (*Object, error) {
	b, err := s.bucket(ctx)
	if err != nil {
		return nil, err
	}
	start := time.Now()
	stream, err := b.OpenDownloadStreamByName(filename)
	if err != nil {
		observability.ObserveExternal("image storage", "gridfs:get", 0, time.Since(start))
		if errors.Is(err, gridfs.ErrFileNotFound) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to open %s in GridFS: %w", filename, err)
	}
	defer stream.Close()

	data, err := io.ReadAll(stream)
	observability.ObserveExternal("image storage", "gridfs:get", 200, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from GridFS: %w", filename, err)
	}

	contentType := "application/octet-stream"
	if file := stream.GetFile(); file != nil && file.Metadata != nil {
		if ct, ok := file.Metadata.Lookup("content_type").StringValueOK(); ok && ct != "" {
			contentType = ct
		}
	}
	return &Object{Data: data, ContentType: contentType}, nil
}

// Replace stores a new revision under filename and removes the older ones.
func (s *GridFSStorage) Replace(ctx context.Context, filename string, data []byte, contentType string) error {
	if err := s.upload(ctx, filename, bytes.NewReader(data), contentType); err != nil {
		return err
	}

	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	cur, err := b.Find(bson.M{"filename": filename}, options.GridFSFind().SetSort(bson.M{"uploadDate": -1}))
	if err != nil {
		return fmt.Errorf("failed to list revisions of %s: %w", filename, err)
	}
	var revisions []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cur.All(ctx, &revisions); err != nil {
		return fmt.Errorf("failed to decode revisions of %s: %w", filename, err)
	}
	for i, rev := range revisions {
		if i == 0 {
			continue // newest
		}
		if err := b.Delete(rev.ID); err != nil && !errors.Is(err, gridfs.ErrFileNotFound) {
			return fmt.Errorf("failed to delete old revision of %s: %w", filename, err)
		}
	}
	return nil
}

func (s *GridFSStorage) upload(ctx context.Context, name string, body io.Reader, contentType string) error {
	b, err := s.bucket(ctx)
	if err != nil {
		return err
	}
	start := time.Now()
	opts := options.GridFSUpload().SetMetadata(bson.M{"content_type": contentType, "folder": s.folder})
	if _, err := b.UploadFromStream(name, body, opts); err != nil {
		observability.ObserveExternal("image storage", "gridfs:put", 0, time.Since(start))
		return fmt.Errorf("failed to store %s in GridFS: %w", name, err)
	}
	observability.ObserveExternal("image storage", "gridfs:put", 200, time.Since(start))
	return nil
}
