// Package storage stores listing images in S3 or MongoDB GridFS.
package storage

import (
	"context"
	"errors"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"

	"locatify/wanderlust/internal/models"
)

// ErrObjectNotFound is returned when an image does not exist.
var ErrObjectNotFound = errors.New("image not found")

// Upload is an image received from a client.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Object is a stored image.
type Object struct {
	Data        []byte
	ContentType string
}

// ImageStore persists listing images. The Image.Filename returned by Put identifies the object
// for Get and Replace.
type ImageStore interface {
	Put(ctx context.Context, upload Upload) (models.Image, error)
	Get(ctx context.Context, filename string) (*Object, error)
	Replace(ctx context.Context, filename string, data []byte, contentType string) error
}

// newObjectName returns a collision-free object name keeping the upload's extension.
func newObjectName(upload Upload) string {
	ext := strings.ToLower(path.Ext(upload.Filename))
	if ext == "" {
		if exts, err := mime.ExtensionsByType(upload.ContentType); err == nil && len(exts) > 0 {
			ext = exts[0]
		}
	}
	return uuid.NewString() + ext
}
