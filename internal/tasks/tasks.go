package tasks

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // decoders for image.Decode
	"image/jpeg"
	_ "image/png"

	"github.com/hibiken/asynq"
	"github.com/nfnt/resize"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/config"
	"locatify/wanderlust/internal/observability"
	"locatify/wanderlust/internal/storage"
	"locatify/wanderlust/internal/utils"
)

// TaskType defines the type of a background task.
const (
	TypeImageProcess = "image:process"
)

// QueueImages is the queue image tasks are enqueued on.
const QueueImages = "images"

const maxImageRetries = 5

// ImageTaskPayload identifies an uploaded listing image to normalise.
type ImageTaskPayload struct {
	Filename  string      `json:"filename"`
	ListingID utils.SixID `json:"listing_id"`
}

// NewImageProcessTask builds an image:process task.
func NewImageProcessTask(filename string, listingID utils.SixID) (*asynq.Task, error) {
	payload, err := json.Marshal(ImageTaskPayload{Filename: filename, ListingID: listingID})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image task payload: %w", err)
	}
	return asynq.NewTask(TypeImageProcess, payload, asynq.Queue(QueueImages), asynq.MaxRetry(maxImageRetries)), nil
}

func redisOpt(rdb *redis.Client) asynq.RedisClientOpt {
	opts := rdb.Options()
	return asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	}
}

// --- Task Client (Enqueuing tasks) ---

// TaskEnqueuer is the subset of *asynq.Client used to enqueue tasks.
type TaskEnqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Client enqueues background tasks.
type Client struct {
	enqueuer TaskEnqueuer
	closer   func() error
}

// NewClient creates a Client on the same Redis as rdb.
func NewClient(rdb *redis.Client) *Client {
	c := asynq.NewClient(redisOpt(rdb))
	return &Client{enqueuer: c, closer: c.Close}
}

// NewClientWithEnqueuer wraps an existing enqueuer.
func NewClientWithEnqueuer(e TaskEnqueuer) *Client {
	return &Client{enqueuer: e, closer: func() error { return nil }}
}

// EnqueueImageProcess schedules normalisation of an uploaded listing image.
func (c *Client) EnqueueImageProcess(ctx context.Context, filename string, listingID utils.SixID) error {
	task, err := NewImageProcessTask(filename, listingID)
	if err != nil {
		return err
	}
	info, err := c.enqueuer.EnqueueContext(ctx, task)
	if err != nil {
		observability.ObserveTask(TypeImageProcess, "enqueue_failed")
		return fmt.Errorf("failed to enqueue %s: %w", TypeImageProcess, err)
	}
	observability.ObserveTask(TypeImageProcess, "enqueued")
	log.Debug().Str("task_id", info.ID).Str("filename", filename).Msg("Image task enqueued")
	return nil
}

func (c *Client) Close() error {
	return c.closer()
}

// --- Task Server (Processing tasks) ---

// TaskProcessor handles the processing of tasks.
type TaskProcessor struct {
	images       storage.ImageStore
	maxDimension uint
	maxBytes     int
}

func NewTaskProcessor(cfg *config.Config, images storage.ImageStore) *TaskProcessor {
	return &TaskProcessor{
		images:       images,
		maxDimension: uint(cfg.ImageMaxDimension),
		maxBytes:     cfg.ImageMaxSizeMB * 1024 * 1024,
	}
}

// SetupServer configures an Asynq server and the mux with all task handlers.
// The caller starts it with srv.Start(mux) and stops it with srv.Shutdown().
func SetupServer(rdb *redis.Client, processor *TaskProcessor, concurrency int) (*asynq.Server, *asynq.ServeMux) {
	srv := asynq.NewServer(
		redisOpt(rdb),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				QueueImages: 5,
				"default":   1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("task_type", task.Type()).Str("payload", string(task.Payload())).Msg("Task failed")
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeImageProcess, processor.HandleImageProcessTask)
	log.Info().Msg("Registered image processing task handlers")
	return srv, mux
}

// --- Task Handlers ---

// HandleImageProcessTask fits an uploaded image within the configured dimension and
// rewrites it as JPEG in place. Images already within bounds are left untouched.
func (p *TaskProcessor) HandleImageProcessTask(ctx context.Context, t *asynq.Task) (err error) {
	defer func() {
		switch {
		case err == nil:
			observability.ObserveTask(TypeImageProcess, "processed")
		case errors.Is(err, asynq.SkipRetry):
			observability.ObserveTask(TypeImageProcess, "skipped")
		default:
			observability.ObserveTask(TypeImageProcess, "failed")
		}
	}()

	var payload ImageTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal image task payload: %v: %w", err, asynq.SkipRetry)
	}
	if payload.Filename == "" {
		return fmt.Errorf("image task payload has no filename: %w", asynq.SkipRetry)
	}
	logger := log.With().Str("filename", payload.Filename).Str("listing_id", payload.ListingID.String()).Logger()

	obj, err := p.images.Get(ctx, payload.Filename)
	if errors.Is(err, storage.ErrObjectNotFound) {
		logger.Warn().Msg("Image object not found, skipping")
		return fmt.Errorf("image object not found: %w", asynq.SkipRetry)
	}
	if err != nil {
		return fmt.Errorf("failed to download image: %w", err)
	}

	if len(obj.Data) > p.maxBytes {
		logger.Warn().Int("size", len(obj.Data)).Int("max", p.maxBytes).Msg("Image exceeds max size, skipping")
		return fmt.Errorf("image exceeds max size: %w", asynq.SkipRetry)
	}

	img, format, err := image.Decode(bytes.NewReader(obj.Data))
	if err != nil {
		logger.Warn().Err(err).Msg("Undecodable image, skipping")
		return fmt.Errorf("unsupported image format or corrupt image: %w", asynq.SkipRetry)
	}

	width, height := uint(img.Bounds().Dx()), uint(img.Bounds().Dy())
	if width <= p.maxDimension && height <= p.maxDimension {
		logger.Debug().Str("format", format).Uint("width", width).Uint("height", height).Msg("Image within bounds")
		return nil
	}

	resized := resize.Thumbnail(p.maxDimension, p.maxDimension, img, resize.Lanczos3)
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, resized, &jpeg.Options{Quality: 85}); err != nil {
		return fmt.Errorf("failed to re-encode resized image: %w", err)
	}
	if buf.Len() > p.maxBytes {
		return fmt.Errorf("resized image still exceeds max size: %w", asynq.SkipRetry)
	}

	if err := p.images.Replace(ctx, payload.Filename, buf.Bytes(), "image/jpeg"); err != nil {
		return fmt.Errorf("failed to store processed image: %w", err)
	}

	logger.Info().
		Uint("from_width", width).Uint("from_height", height).
		Int("to_width", resized.Bounds().Dx()).Int("to_height", resized.Bounds().Dy()).
		Msg("Image processed")
	return nil
}
