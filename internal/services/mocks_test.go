package services

import (
	"context"

	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"

	"locatify/wanderlust/internal/geocode"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/storage"
	"locatify/wanderlust/internal/utils"
)

type MockListingRepository struct {
	mock.Mock
}

func (m *MockListingRepository) Find(ctx context.Context, filter bson.M) ([]models.Listing, error) {
	args := m.Called(ctx, filter)
	if l := args.Get(0); l != nil {
		return l.([]models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) FindByID(ctx context.Context, id utils.SixID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if l := args.Get(0); l != nil {
		return l.(*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.Listing, error) {
	args := m.Called(ctx, ids)
	if l := args.Get(0); l != nil {
		return l.([]models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockListingRepository) Insert(ctx context.Context, listing *models.Listing) error {
	args := m.Called(ctx, listing)
	return args.Error(0)
}

func (m *MockListingRepository) InsertMany(ctx context.Context, listings []*models.Listing) error {
	args := m.Called(ctx, listings)
	return args.Error(0)
}

func (m *MockListingRepository) Update(ctx context.Context, id utils.SixID, set bson.M) error {
	args := m.Called(ctx, id, set)
	return args.Error(0)
}

func (m *MockListingRepository) SetImage(ctx context.Context, id utils.SixID, image models.Image) error {
	args := m.Called(ctx, id, image)
	return args.Error(0)
}

func (m *MockListingRepository) Delete(ctx context.Context, id utils.SixID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockListingRepository) DeleteAll(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockListingRepository) PushReview(ctx context.Context, listingID, reviewID utils.SixID) error {
	args := m.Called(ctx, listingID, reviewID)
	return args.Error(0)
}

func (m *MockListingRepository) PullReview(ctx context.Context, listingID, reviewID utils.SixID) error {
	args := m.Called(ctx, listingID, reviewID)
	return args.Error(0)
}

type MockReviewRepository struct {
	mock.Mock
}

func (m *MockReviewRepository) FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.Review, error) {
	args := m.Called(ctx, ids)
	if r := args.Get(0); r != nil {
		return r.([]models.Review), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockReviewRepository) Insert(ctx context.Context, review *models.Review) error {
	args := m.Called(ctx, review)
	return args.Error(0)
}

func (m *MockReviewRepository) Delete(ctx context.Context, id utils.SixID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id utils.SixID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByIDs(ctx context.Context, ids []utils.SixID) ([]models.User, error) {
	args := m.Called(ctx, ids)
	if u := args.Get(0); u != nil {
		return u.([]models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	args := m.Called(ctx, username)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Insert(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) ToggleFavorite(ctx context.Context, userID, listingID utils.SixID) (bool, error) {
	args := m.Called(ctx, userID, listingID)
	return args.Bool(0), args.Error(1)
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, query string) ([]geocode.Result, error) {
	args := m.Called(ctx, query)
	if r := args.Get(0); r != nil {
		return r.([]geocode.Result), args.Error(1)
	}
	return nil, args.Error(1)
}

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

func (m *MockEnqueuer) EnqueueImageProcess(ctx context.Context, filename string, listingID utils.SixID) error {
	args := m.Called(ctx, filename, listingID)
	return args.Error(0)
}

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}
