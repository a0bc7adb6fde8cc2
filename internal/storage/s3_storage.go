package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/config"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/observability"
)

// S3API is the subset of the S3 client used by S3Storage.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// S3Storage keeps images under IMAGE_FOLDER in an S3 bucket.
type S3Storage struct {
	client  S3API
	bucket  string
	folder  string
	baseURL string
}

// NewS3Client builds an S3 client from the static credentials in cfg.
func NewS3Client(cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}

// NewS3Storage creates an image store on top of client.
func NewS3Storage(client S3API, bucket, folder, baseURL string) *S3Storage {
	return &S3Storage{
		client:  client,
		bucket:  bucket,
		folder:  strings.Trim(folder, "/"),
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (s *S3Storage) key(name string) string {
	if s.folder == "" {
		return name
	}
	return s.folder + "/" + name
}

// Put uploads the image and returns its public URL. Filename is the object key.
func (s *S3Storage) Put(ctx context.Context, upload Upload) (models.Image, error) {
	data, err := io.ReadAll(upload.Body)
	if err != nil {
		return models.Image{}, fmt.Errorf("failed to read upload: %w", err)
	}
	objectKey := s.key(newObjectName(upload))
	if err := s.put(ctx, objectKey, data, upload.ContentType); err != nil {
		return models.Image{}, err
	}
	log.Info().Str("key", objectKey).Int("bytes", len(data)).Msg("Stored image in S3")
	return models.Image{URL: s.baseURL + "/" + objectKey, Filename: objectKey}, nil
}

// Get downloads an image by object key.
func (s *S3Storage) Get(ctx context.Context, filename string) (*Object, error) {
	start := time.Now()
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(filename),
	})
	if err != nil {
		observability.ObserveExternal("image storage", "s3:get", 0, time.Since(start))
		var nsk *types.NoSuchKey
		if errors.As(err, &nsk) {
			return nil, ErrObjectNotFound
		}
		return nil, fmt.Errorf("failed to download %s from S3: %w", filename, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	observability.ObserveExternal("image storage", "s3:get", 200, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s from S3: %w", filename, err)
	}
	return &Object{Data: data, ContentType: aws.ToString(out.ContentType)}, nil
}

// Replace overwrites an existing object in place.
func (s *S3Storage) Replace(ctx context.Context, filename string, data []byte, contentType string) error {
	return s.put(ctx, filename, data, contentType)
}

func (s *S3Storage) put(ctx context.Context, objectKey string, data []byte, contentType string) error {
	start := time.Now()
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		observability.ObserveExternal("image storage", "s3:put", 0, time.Since(start))
		return fmt.Errorf("failed to upload %s to S3: %w", objectKey, err)
	}
	observability.ObserveExternal("image storage", "s3:put", 200, time.Since(start))
	return nil
}
