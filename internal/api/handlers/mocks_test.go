package handlers_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/storage"
	"locatify/wanderlust/internal/utils"
)

// --- Mocks ---

// MockListingService
type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) List(ctx context.Context, query models.ListingQuery, viewer *models.User) ([]models.ListingCard, error) {
	args := m.Called(ctx, query, viewer)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ListingCard), args.Error(1)
}

func (m *MockListingService) Get(ctx context.Context, id utils.SixID) (*models.ListingDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ListingDetail), args.Error(1)
}

func (m *MockListingService) FindByID(ctx context.Context, id utils.SixID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) Create(ctx context.Context, ownerID utils.SixID, input models.ListingInput, upload *storage.Upload) (*models.Listing, error) {
	args := m.Called(ctx, ownerID, input, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) Update(ctx context.Context, id utils.SixID, input models.ListingInput, upload *storage.Upload) (*models.Listing, error) {
	args := m.Called(ctx, id, input, upload)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}

func (m *MockListingService) Delete(ctx context.Context, id utils.SixID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockListingService) ToggleLike(ctx context.Context, userID, listingID utils.SixID) (bool, error) {
	args := m.Called(ctx, userID, listingID)
	return args.Bool(0), args.Error(1)
}

func (m *MockListingService) Wishlist(ctx context.Context, userID utils.SixID) ([]models.ListingCard, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ListingCard), args.Error(1)
}

// MockReviewService
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) Create(ctx context.Context, listingID, authorID utils.SixID, input models.ReviewInput) (*models.Review, error) {
	args := m.Called(ctx, listingID, authorID, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, listingID, reviewID utils.SixID) error {
	return m.Called(ctx, listingID, reviewID).Error(0)
}

// MockUserService
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, input models.SignupInput) (*models.User, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, username, password string) (*models.User, error) {
	args := m.Called(ctx, username, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, id utils.SixID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockContactService
type MockContactService struct {
	mock.Mock
}

func (m *MockContactService) Send(ctx context.Context, input models.ContactInput) error {
	return m.Called(ctx, input).Error(0)
}

// MockImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, upload storage.Upload) (models.Image, error) {
	args := m.Called(ctx, upload)
	return args.Get(0).(models.Image), args.Error(1)
}

func (m *MockImageStore) Get(ctx context.Context, filename string) (*storage.Object, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Object), args.Error(1)
}

func (m *MockImageStore) Replace(ctx context.Context, filename string, data []byte, contentType string) error {
	return m.Called(ctx, filename, data, contentType).Error(0)
}
