package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestNominatimGeocoder_Geocode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Goa, India", r.URL.Query().Get("q"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "wanderlust-test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"lat":"15.5","lon":"73.8","display_name":"Goa, India"}]`))
	}))
	defer srv.Close()

	g := NewNominatimGeocoder(srv.URL+"/", "wanderlust-test", 2*time.Second)
	results, err := g.Geocode(context.Background(), "Goa, India")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 73.8, results[0].Longitude)
	assert.Equal(t, 15.5, results[0].Latitude)
}

func TestNominatimGeocoder_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	results, err := NewNominatimGeocoder(srv.URL, "ua", time.Second).Geocode(context.Background(), "Nowhere")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNominatimGeocoder_Failures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewNominatimGeocoder(srv.URL, "ua", time.Second).Geocode(context.Background(), "Goa")
	assert.ErrorContains(t, err, "status 503")

	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	defer slow.Close()

	_, err = NewNominatimGeocoder(slow.URL, "ua", 50*time.Millisecond).Geocode(context.Background(), "Goa")
	assert.ErrorContains(t, err, "failed to contact geocoder")
}

type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Geocode(ctx context.Context, query string) ([]Result, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Result), args.Error(1)
}

func TestCachedGeocoder(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := new(MockGeocoder)
	ctx := context.Background()
	next.On("Geocode", ctx, "Goa,  India").Return([]Result{{Longitude: 73.8, Latitude: 15.5}}, nil).Once()

	c := NewCachedGeocoder(next, rdb, time.Hour)

	first, err := c.Geocode(ctx, "Goa,  India")
	require.NoError(t, err)
	second, err := c.Geocode(ctx, "goa, india")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	next.AssertNumberOfCalls(t, "Geocode", 1)
	assert.True(t, mr.Exists("geocode:goa, india"))
	assert.Equal(t, time.Hour, mr.TTL("geocode:goa, india"))
}

func TestCachedGeocoder_ErrorsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	next := new(MockGeocoder)
	ctx := context.Background()
	next.On("Geocode", ctx, "Paris").Return(nil, assert.AnError).Once()
	next.On("Geocode", ctx, "Paris").Return([]Result{}, nil).Once()

	c := NewCachedGeocoder(next, rdb, time.Hour)

	_, err := c.Geocode(ctx, "Paris")
	assert.ErrorIs(t, err, assert.AnError)
	assert.False(t, mr.Exists("geocode:paris"))

	results, err := c.Geocode(ctx, "Paris")
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.True(t, mr.Exists("geocode:paris"))
}

func TestCachedGeocoder_RedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()
	mr.Close()

	next := new(MockGeocoder)
	ctx := context.Background()
	next.On("Geocode", ctx, "Goa").Return([]Result{{Longitude: 73.8, Latitude: 15.5}}, nil)

	results, err := NewCachedGeocoder(next, rdb, time.Hour).Geocode(ctx, "Goa")
	require.NoError(t, err)
	assert.Len(t, results, 1)
}
