package tasks_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"locatify/wanderlust/internal/config"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/storage"
	"locatify/wanderlust/internal/tasks"
	"locatify/wanderlust/internal/utils"
)

// --- Mocks ---

type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, upload storage.Upload) (models.Image, error) {
	args := m.Called(ctx, upload)
	return args.Get(0).(models.Image), args.Error(1)
}

func (m *MockImageStore) Get(ctx context.Context, filename string) (*storage.Object, error) {
	args := m.Called(ctx, filename)
	if o := args.Get(0); o != nil {
		return o.(*storage.Object), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockImageStore) Replace(ctx context.Context, filename string, data []byte, contentType string) error {
	args := m.Called(ctx, filename, data, contentType)
	return args.Error(0)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task)
	if info := args.Get(0); info != nil {
		return info.(*asynq.TaskInfo), args.Error(1)
	}
	return nil, args.Error(1)
}

// --- Helpers ---

func pngBytes(t *testing.T, w, h int) []byte {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 10 {
		img.Set(x, x%h, color.RGBA{R: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func imageTask(t *testing.T, filename string) *asynq.Task {
	task, err := tasks.NewImageProcessTask(filename, utils.NewSixID())
	require.NoError(t, err)
	return task
}

func newProcessor(store *MockImageStore) *tasks.TaskProcessor {
	return tasks.NewTaskProcessor(&config.Config{ImageMaxDimension: 800, ImageMaxSizeMB: 10}, store)
}

// --- Tests ---

func TestHandleImageProcessTask_ResizesLargeImage(t *testing.T) {
	store := new(MockImageStore)
	ctx := context.Background()

	store.On("Get", ctx, "big.png").Return(&storage.Object{Data: pngBytes(t, 1600, 800), ContentType: "image/png"}, nil)
	var written []byte
	store.On("Replace", ctx, "big.png", mock.Anything, "image/jpeg").
		Run(func(args mock.Arguments) { written = args.Get(2).([]byte) }).
		Return(nil)

	require.NoError(t, newProcessor(store).HandleImageProcessTask(ctx, imageTask(t, "big.png")))

	cfg, err := jpeg.DecodeConfig(bytes.NewReader(written))
	require.NoError(t, err)
	assert.Equal(t, 800, cfg.Width)
	assert.Equal(t, 400, cfg.Height)
}

func TestHandleImageProcessTask_SmallImageUntouched(t *testing.T) {
	store := new(MockImageStore)
	ctx := context.Background()
	store.On("Get", ctx, "small.png").Return(&storage.Object{Data: pngBytes(t, 300, 200), ContentType: "image/png"}, nil)

	require.NoError(t, newProcessor(store).HandleImageProcessTask(ctx, imageTask(t, "small.png")))
	store.AssertNotCalled(t, "Replace", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleImageProcessTask_SkipsWithoutRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("bad payload", func(t *testing.T) {
		err := newProcessor(new(MockImageStore)).HandleImageProcessTask(ctx, asynq.NewTask(tasks.TypeImageProcess, []byte("{")))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("missing object", func(t *testing.T) {
		store := new(MockImageStore)
		store.On("Get", ctx, "gone.jpg").Return(nil, storage.ErrObjectNotFound)
		err := newProcessor(store).HandleImageProcessTask(ctx, imageTask(t, "gone.jpg"))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("corrupt image", func(t *testing.T) {
		store := new(MockImageStore)
		store.On("Get", ctx, "junk.jpg").Return(&storage.Object{Data: []byte("not an image")}, nil)
		err := newProcessor(store).HandleImageProcessTask(ctx, imageTask(t, "junk.jpg"))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})

	t.Run("too large", func(t *testing.T) {
		store := new(MockImageStore)
		store.On("Get", ctx, "huge.jpg").Return(&storage.Object{Data: make([]byte, 2*1024*1024)}, nil)
		p := tasks.NewTaskProcessor(&config.Config{ImageMaxDimension: 800, ImageMaxSizeMB: 1}, store)
		err := p.HandleImageProcessTask(ctx, imageTask(t, "huge.jpg"))
		assert.ErrorIs(t, err, asynq.SkipRetry)
	})
}

func TestHandleImageProcessTask_StorageErrorRetries(t *testing.T) {
	store := new(MockImageStore)
	ctx := context.Background()
	store.On("Get", ctx, "x.jpg").Return(nil, errors.New("timeout"))

	err := newProcessor(store).HandleImageProcessTask(ctx, imageTask(t, "x.jpg"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestClient_EnqueueImageProcess(t *testing.T) {
	enq := new(MockEnqueuer)
	client := tasks.NewClientWithEnqueuer(enq)
	ctx := context.Background()
	listingID := utils.NewSixID()

	var queued *asynq.Task
	enq.On("EnqueueContext", ctx, mock.AnythingOfType("*asynq.Task")).
		Run(func(args mock.Arguments) { queued = args.Get(1).(*asynq.Task) }).
		Return(&asynq.TaskInfo{ID: "task-1"}, nil)

	require.NoError(t, client.EnqueueImageProcess(ctx, "hut.jpg", listingID))
	require.NotNil(t, queued)
	assert.Equal(t, tasks.TypeImageProcess, queued.Type())

	var payload tasks.ImageTaskPayload
	require.NoError(t, json.Unmarshal(queued.Payload(), &payload))
	assert.Equal(t, "hut.jpg", payload.Filename)
	assert.Equal(t, listingID, payload.ListingID)
	assert.NoError(t, client.Close())
}

func TestClient_EnqueueFailure(t *testing.T) {
	enq := new(MockEnqueuer)
	enq.On("EnqueueContext", mock.Anything, mock.Anything).Return(nil, errors.New("redis down"))

	err := tasks.NewClientWithEnqueuer(enq).EnqueueImageProcess(context.Background(), "hut.jpg", utils.NewSixID())
	assert.Error(t, err)
}
