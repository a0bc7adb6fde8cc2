package middleware_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"locatify/wanderlust/internal/api/middleware"
	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/config"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/repository"
	"locatify/wanderlust/internal/session"
	"locatify/wanderlust/internal/session/sessiontest"
	"locatify/wanderlust/internal/utils"
)

// --- Mocks ---

type MockUserFinder struct {
	mock.Mock
}

func (m *MockUserFinder) FindByID(ctx context.Context, id utils.SixID) (*models.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockListingFinder struct {
	mock.Mock
}

func (m *MockListingFinder) FindByID(ctx context.Context, id utils.SixID) (*models.Listing, error) {
	args := m.Called(ctx, id)
	if l := args.Get(0); l != nil {
		return l.(*models.Listing), args.Error(1)
	}
	return nil, args.Error(1)
}

type MockTurnstileVerifier struct {
	mock.Mock
}

func (m *MockTurnstileVerifier) Verify(ctx context.Context, token, remoteIP string) (bool, error) {
	args := m.Called(ctx, token, remoteIP)
	return args.Bool(0), args.Error(1)
}

// --- Helpers ---

type testEnv struct {
	repo   *sessiontest.MemoryRepository
	store  *session.Manager
	users  *MockUserFinder
	engine *gin.Engine
}

func newTestEnv() *testEnv {
	gin.SetMode(gin.TestMode)
	repo := sessiontest.NewMemoryRepository()
	env := &testEnv{
		repo:  repo,
		store: session.NewManager(repo, "test-secret", time.Hour, false),
		users: new(MockUserFinder),
	}
	env.engine = gin.New()
	env.engine.Use(middleware.Sessions(env.store, env.users))
	return env
}

// loginCookies starts a session for user and returns its cookies.
func (e *testEnv) loginCookies(t *testing.T, user *models.User) []*http.Cookie {
	rec := httptest.NewRecorder()
	_, err := e.store.Start(context.Background(), rec, &user.ID)
	require.NoError(t, err)
	e.users.On("FindByID", mock.Anything, user.ID).Return(user, nil)
	return rec.Result().Cookies()
}

func (e *testEnv) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodePage(t *testing.T, w *httptest.ResponseRecorder) web.Page {
	var page web.Page
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	return page
}

func onlySession(t *testing.T, repo *sessiontest.MemoryRepository) models.Session {
	all := repo.All()
	require.Len(t, all, 1)
	return all[0]
}

// --- Sessions ---

func TestSessions_Anonymous(t *testing.T) {
	env := newTestEnv()
	env.engine.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user": web.CurrentUser(c), "has_session": web.CurrentSession(c) != nil})
	})

	w := env.do(httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":null,"has_session":false}`, w.Body.String())
	assert.Empty(t, env.repo.All(), "anonymous visits do not create sessions")
}

func TestSessions_AttachesUser(t *testing.T) {
	env := newTestEnv()
	user := &models.User{Base: models.NewBase(), Username: "asha"}
	cookies := env.loginCookies(t, user)

	env.engine.GET("/whoami", func(c *gin.Context) {
		c.String(http.StatusOK, web.CurrentUser(c).Username)
	})

	w := env.do(httptest.NewRequest(http.MethodGet, "/whoami", nil), cookies...)
	assert.Equal(t, "asha", w.Body.String())
}

func TestSessions_DeletedUserIsAnonymous(t *testing.T) {
	env := newTestEnv()
	userID := utils.NewSixID()
	rec := httptest.NewRecorder()
	_, err := env.store.Start(context.Background(), rec, &userID)
	require.NoError(t, err)
	env.users.On("FindByID", mock.Anything, userID).Return(nil, repository.ErrNotFound)

	env.engine.GET("/whoami", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"anonymous": web.CurrentUser(c) == nil})
	})

	w := env.do(httptest.NewRequest(http.MethodGet, "/whoami", nil), rec.Result().Cookies()...)
	assert.JSONEq(t, `{"anonymous":true}`, w.Body.String())
}

func TestFlashIsShownOnce(t *testing.T) {
	env := newTestEnv()
	env.engine.POST("/act", func(c *gin.Context) {
		web.FlashRedirect(c, models.FlashSuccess, "Done!", "/page")
	})
	env.engine.GET("/page", func(c *gin.Context) {
		web.Render(c, http.StatusOK, "page", nil)
	})

	w := env.do(httptest.NewRequest(http.MethodPost, "/act", nil))
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)

	page := decodePage(t, env.do(httptest.NewRequest(http.MethodGet, "/page", nil), cookies...))
	assert.Equal(t, []string{"Done!"}, page.Flash.Success)

	page = decodePage(t, env.do(httptest.NewRequest(http.MethodGet, "/page", nil), cookies...))
	assert.Empty(t, page.Flash.Success)
}

// --- Auth ---

func TestRequireLogin_RedirectsAndRemembersURL(t *testing.T) {
	env := newTestEnv()
	env.engine.GET("/listings/new", middleware.RequireLogin(middleware.MsgLoginRequired), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := env.do(httptest.NewRequest(http.MethodGet, "/listings/new?x=1", nil))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))

	s := onlySession(t, env.repo)
	assert.Equal(t, "/listings/new?x=1", s.ReturnTo)
	require.Len(t, s.Flash, 1)
	assert.Equal(t, models.FlashError, s.Flash[0].Kind)
	assert.Equal(t, middleware.MsgLoginRequired, s.Flash[0].Message)
}

func TestRequireLogin_AllowsUser(t *testing.T) {
	env := newTestEnv()
	user := &models.User{Base: models.NewBase()}
	cookies := env.loginCookies(t, user)
	env.engine.GET("/listings/new", middleware.RequireLogin(middleware.MsgLoginRequired), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := env.do(httptest.NewRequest(http.MethodGet, "/listings/new", nil), cookies...)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireLoginJSON(t *testing.T) {
	env := newTestEnv()
	env.engine.POST("/like", middleware.RequireLoginJSON(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := env.do(httptest.NewRequest(http.MethodPost, "/like", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Login required"}`, w.Body.String())
}

func TestRequireOwner(t *testing.T) {
	env := newTestEnv()
	owner := &models.User{Base: models.NewBase()}
	stranger := &models.User{Base: models.NewBase()}
	ownerCookies := env.loginCookies(t, owner)
	strangerCookies := env.loginCookies(t, stranger)

	listing := &models.Listing{Base: models.NewBase(), Owner: owner.ID}
	missing := utils.NewSixID()
	listings := new(MockListingFinder)
	listings.On("FindByID", mock.Anything, listing.ID).Return(listing, nil)
	listings.On("FindByID", mock.Anything, missing).Return(nil, repository.ErrNotFound)

	env.engine.GET("/listings/:id/edit", middleware.RequireOwner(listings), func(c *gin.Context) {
		c.String(http.StatusOK, web.CurrentListing(c).ID.String())
	})

	w := env.do(httptest.NewRequest(http.MethodGet, "/listings/"+listing.ID.String()+"/edit", nil), ownerCookies...)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, listing.ID.String(), w.Body.String())

	w = env.do(httptest.NewRequest(http.MethodGet, "/listings/"+listing.ID.String()+"/edit", nil), strangerCookies...)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/listings/"+listing.ID.String(), w.Header().Get("Location"))

	w = env.do(httptest.NewRequest(http.MethodGet, "/listings/"+missing.String()+"/edit", nil), ownerCookies...)
	assert.Equal(t, "/listings", w.Header().Get("Location"))

	w = env.do(httptest.NewRequest(http.MethodGet, "/listings/not-an-id/edit", nil), ownerCookies...)
	assert.Equal(t, "/listings", w.Header().Get("Location"))
}

// --- Captcha ---

func TestRequireHuman(t *testing.T) {
	env := newTestEnv()
	verifier := new(MockTurnstileVerifier)
	verifier.On("Verify", mock.Anything, "good", mock.Anything).Return(true, nil)
	verifier.On("Verify", mock.Anything, "bad", mock.Anything).Return(false, nil)
	verifier.On("Verify", mock.Anything, "", mock.Anything).Return(false, errors.New("network"))

	env.engine.POST("/contact", middleware.RequireHuman(verifier), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"human": c.GetBool(middleware.ContextKeyIsHumanVerified)})
	})

	post := func(token string) *httptest.ResponseRecorder {
		form := url.Values{"cf-turnstile-response": {token}}
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return env.do(req)
	}

	w := post("good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"human":true}`, w.Body.String())

	for _, token := range []string{"bad", ""} {
		w = post(token)
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/contact", w.Header().Get("Location"))
	}
}

// --- Rate limiting ---

func TestRateLimiter(t *testing.T) {
	env := newTestEnv()
	user := &models.User{Base: models.NewBase()}
	cookies := env.loginCookies(t, user)

	cfg := &config.Config{
		RateLimitSoftBucketSize: 1,
		RateLimitSoftRefillRate: 0,
		RateLimitHardBucketSize: 3,
		RateLimitHardRefillRate: 0,
	}
	env.engine.Use(middleware.NewRateLimiterMiddleware(cfg).Limit())
	env.engine.Any("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 5; i++ {
		w := env.do(httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, w.Code, "GET is never limited")
	}

	w := env.do(httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(httptest.NewRequest(http.MethodPost, "/x", nil))
	assert.Equal(t, http.StatusTooManyRequests, w.Code, "anonymous clients hit the soft limit")

	// Same IP, now logged in: only the hard bucket (3, one already spent by each POST above) applies.
	w = env.do(httptest.NewRequest(http.MethodPost, "/x", nil), cookies...)
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(httptest.NewRequest(http.MethodPost, "/x", nil), cookies...)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

// --- Method override ---

func TestMethodOverride(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Any("/listings/1", func(c *gin.Context) { c.String(http.StatusOK, c.Request.Method) })
	h := middleware.MethodOverride(r)

	serve := func(req *http.Request) string {
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		return w.Body.String()
	}

	assert.Equal(t, http.MethodPut, serve(httptest.NewRequest(http.MethodPost, "/listings/1?_method=PUT", nil)))
	assert.Equal(t, http.MethodDelete, serve(httptest.NewRequest(http.MethodPost, "/listings/1?_method=delete", nil)))

	req := httptest.NewRequest(http.MethodPost, "/listings/1", nil)
	req.Header.Set("X-HTTP-Method-Override", "DELETE")
	assert.Equal(t, http.MethodDelete, serve(req))

	req = httptest.NewRequest(http.MethodPost, "/listings/1", strings.NewReader("_method=DELETE"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	assert.Equal(t, http.MethodDelete, serve(req))

	assert.Equal(t, http.MethodPost, serve(httptest.NewRequest(http.MethodPost, "/listings/1?_method=GET", nil)))
	assert.Equal(t, http.MethodGet, serve(httptest.NewRequest(http.MethodGet, "/listings/1?_method=DELETE", nil)))
}

// --- Uploads ---

func multipartRequest(t *testing.T, target, contentType string, size int) *http.Request {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("listing[title]", "Beach Hut"))
	if contentType != "" {
		h := textproto.MIMEHeader{}
		h.Set("Content-Disposition", `form-data; name="listing[image][url]"; filename="hut.png"`)
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(bytes.Repeat([]byte{0x89}, size))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, target, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestImageUpload(t *testing.T) {
	env := newTestEnv()
	formURL := func(c *gin.Context) string { return "/listings/new" }
	env.engine.POST("/listings", middleware.ImageUpload(middleware.ListingImageField, 1, formURL), func(c *gin.Context) {
		upload := web.CurrentUpload(c)
		if upload == nil {
			c.String(http.StatusOK, "none")
			return
		}
		c.String(http.StatusOK, upload.ContentType)
	})

	w := env.do(multipartRequest(t, "/listings", "image/png", 1024))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "image/png", w.Body.String())

	w = env.do(multipartRequest(t, "/listings", "", 0))
	assert.Equal(t, "none", w.Body.String())

	w = env.do(multipartRequest(t, "/listings", "text/plain", 10))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/listings/new", w.Header().Get("Location"))
	assert.Equal(t, middleware.MsgImagesOnly, onlySession(t, env.repo).Flash[0].Message)

	w = env.do(multipartRequest(t, "/listings", "image/png", 1<<20+512))
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/listings/new", w.Header().Get("Location"))
}

// --- Errors ---

func TestErrorHandling(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.ErrorHandler())
	r.GET("/teapot", func(c *gin.Context) { _ = c.Error(web.NewHTTPError(http.StatusTeapot, "short and stout")) })
	r.GET("/boom", func(c *gin.Context) { _ = c.Error(errors.New("db exploded")) })
	r.GET("/panic", func(c *gin.Context) { panic("oops") })
	r.NoRoute(middleware.NotFound)

	cases := []struct {
		path    string
		status  int
		message string
	}{
		{"/teapot", http.StatusTeapot, "short and stout"},
		{"/boom", http.StatusInternalServerError, middleware.MsgUnexpected},
		{"/panic", http.StatusInternalServerError, middleware.MsgUnexpected},
		{"/nowhere", http.StatusNotFound, middleware.MsgNotFound},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
		assert.Equal(t, tc.status, w.Code, tc.path)

		var page struct {
			Page string        `json:"page"`
			Data web.ErrorData `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page), tc.path)
		assert.Equal(t, "error", page.Page)
		assert.Equal(t, tc.message, page.Data.Message)
		assert.Equal(t, tc.status, page.Data.StatusCode)
	}
}

func TestCaptchaMiddleware_RelaxesSoftLimit(t *testing.T) {
	env := newTestEnv()
	verifier := new(MockTurnstileVerifier)
	verifier.On("Verify", mock.Anything, "good", mock.Anything).Return(true, nil)

	cfg := &config.Config{RateLimitSoftBucketSize: 1, RateLimitHardBucketSize: 10}
	env.engine.Use(middleware.CaptchaMiddleware(verifier), middleware.NewRateLimiterMiddleware(cfg).Limit())
	env.engine.POST("/contact", middleware.RequireHuman(verifier), func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 3; i++ {
		form := url.Values{"cf-turnstile-response": {"good"}}
		req := httptest.NewRequest(http.MethodPost, "/contact", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		assert.Equal(t, http.StatusOK, env.do(req).Code)
	}
	verifier.AssertNumberOfCalls(t, "Verify", 3)
}
