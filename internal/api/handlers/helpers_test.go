package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"locatify/wanderlust/internal/api/middleware"
	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/session"
	"locatify/wanderlust/internal/session/sessiontest"
)

type harness struct {
	repo   *sessiontest.MemoryRepository
	store  *session.Manager
	users  *MockUserService
	engine *gin.Engine
}

func newHarness() *harness {
	gin.SetMode(gin.TestMode)
	repo := sessiontest.NewMemoryRepository()
	h := &harness{
		repo:   repo,
		store:  session.NewManager(repo, "test-secret", time.Hour, false),
		users:  new(MockUserService),
		engine: gin.New(),
	}
	h.engine.Use(middleware.ErrorHandler(), middleware.Sessions(h.store, h.users))
	return h
}

// login starts an authenticated session for a new user and returns it with its cookies.
func (h *harness) login(t *testing.T) (*models.User, []*http.Cookie) {
	user := &models.User{Base: models.NewBase(), Username: "asha", Email: "asha@example.com"}
	rec := httptest.NewRecorder()
	_, err := h.store.Start(context.Background(), rec, &user.ID)
	require.NoError(t, err)
	h.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	return user, rec.Result().Cookies()
}

func (h *harness) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	h.engine.ServeHTTP(w, req)
	return w
}

// flashes returns the pending flash messages of every stored session.
func (h *harness) flashes() []models.FlashMessage {
	var out []models.FlashMessage
	for _, s := range h.repo.All() {
		out = append(out, s.Flash...)
	}
	return out
}

func flash(kind models.FlashKind, message string) models.FlashMessage {
	return models.FlashMessage{Kind: kind, Message: message}
}

func formRequest(method, target string, values url.Values) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

// withListing stands in for RequireOwner.
func withListing(listing *models.Listing) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(web.ContextKeyListing, listing)
		c.Next()
	}
}

type pageEnvelope struct {
	Page  string          `json:"page"`
	Flash web.Flash       `json:"flash"`
	Data  json.RawMessage `json:"data"`
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder, data interface{}) pageEnvelope {
	var page pageEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	if data != nil {
		require.NoError(t, json.Unmarshal(page.Data, data))
	}
	return page
}
