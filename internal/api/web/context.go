// Package web holds the request-scoped helpers shared by middleware and handlers:
// session access, flash messages and page rendering.
package web

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/storage"
	"locatify/wanderlust/internal/utils"
)

const (
	// ContextKeySessionStore holds the SessionStore in Gin context.
	ContextKeySessionStore = "sessionStore"
	// ContextKeySession holds the current *models.Session (may be absent).
	ContextKeySession = "session"
	// ContextKeyUser holds the logged-in *models.User.
	ContextKeyUser = "currentUser"
	// ContextKeyListing holds the listing loaded by the ownership check.
	ContextKeyListing = "listing"
	// ContextKeyUpload holds the validated *storage.Upload of a multipart request.
	ContextKeyUpload = "upload"
	// ContextKeyMapboxToken holds the map token passed to page models.
	ContextKeyMapboxToken = "mapboxToken"
)

// SessionStore is implemented by *session.Manager.
type SessionStore interface {
	Load(ctx context.Context, r *http.Request) (*models.Session, error)
	Start(ctx context.Context, w http.ResponseWriter, userID *utils.SixID) (*models.Session, error)
	Save(ctx context.Context, s *models.Session) error
	Regenerate(ctx context.Context, w http.ResponseWriter, old *models.Session, userID utils.SixID) (*models.Session, error)
	Destroy(ctx context.Context, w http.ResponseWriter, s *models.Session) (*models.Session, error)
}

func store(c *gin.Context) SessionStore {
	if v, ok := c.Get(ContextKeySessionStore); ok {
		return v.(SessionStore)
	}
	return nil
}

// CurrentSession returns the request's session, or nil when none was started yet.
func CurrentSession(c *gin.Context) *models.Session {
	if v, ok := c.Get(ContextKeySession); ok {
		return v.(*models.Session)
	}
	return nil
}

// CurrentUser returns the logged-in user, or nil for anonymous requests.
func CurrentUser(c *gin.Context) *models.User {
	if v, ok := c.Get(ContextKeyUser); ok {
		return v.(*models.User)
	}
	return nil
}

// CurrentListing returns the listing loaded by RequireOwner.
func CurrentListing(c *gin.Context) *models.Listing {
	if v, ok := c.Get(ContextKeyListing); ok {
		return v.(*models.Listing)
	}
	return nil
}

// CurrentUpload returns the validated image upload, or nil when no file was sent.
func CurrentUpload(c *gin.Context) *storage.Upload {
	if v, ok := c.Get(ContextKeyUpload); ok {
		return v.(*storage.Upload)
	}
	return nil
}

// ensureSession returns the current session, starting an anonymous one if needed.
func ensureSession(c *gin.Context) (*models.Session, error) {
	if s := CurrentSession(c); s != nil {
		return s, nil
	}
	st := store(c)
	if st == nil {
		return nil, errNoSessionStore
	}
	s, err := st.Start(c.Request.Context(), c.Writer, nil)
	if err != nil {
		return nil, err
	}
	c.Set(ContextKeySession, s)
	return s, nil
}

func save(c *gin.Context, s *models.Session) {
	if err := store(c).Save(c.Request.Context(), s); err != nil {
		log.Error().Err(err).Str("session_id", s.ID).Msg("Failed to save session")
	}
}

// AddFlash queues a message for the next rendered page.
func AddFlash(c *gin.Context, kind models.FlashKind, message string) {
	s, err := ensureSession(c)
	if err != nil {
		log.Error().Err(err).Msg("Cannot store flash message without a session")
		return
	}
	s.Flash = append(s.Flash, models.FlashMessage{Kind: kind, Message: message})
	save(c, s)
}

// SetReturnTo remembers the URL to continue to after logging in.
func SetReturnTo(c *gin.Context, url string) {
	s, err := ensureSession(c)
	if err != nil {
		log.Error().Err(err).Msg("Cannot store return URL without a session")
		return
	}
	s.ReturnTo = url
	save(c, s)
}

// Flash groups pending messages by kind.
type Flash struct {
	Success []string `json:"success"`
	Error   []string `json:"error"`
}

// TakeFlash removes and returns the pending flash messages.
func TakeFlash(c *gin.Context) Flash {
	f := Flash{Success: []string{}, Error: []string{}}
	s := CurrentSession(c)
	if s == nil || len(s.Flash) == 0 {
		return f
	}
	for _, m := range s.Flash {
		switch m.Kind {
		case models.FlashSuccess:
			f.Success = append(f.Success, m.Message)
		default:
			f.Error = append(f.Error, m.Message)
		}
	}
	s.Flash = []models.FlashMessage{}
	save(c, s)
	return f
}

// LogIn binds user to a fresh session id and returns the URL stored before login, if any.
func LogIn(c *gin.Context, user *models.User) (string, error) {
	old := CurrentSession(c)
	returnTo := ""
	if old != nil {
		returnTo = old.ReturnTo
	}
	s, err := store(c).Regenerate(c.Request.Context(), c.Writer, old, user.ID)
	if err != nil {
		return "", err
	}
	c.Set(ContextKeySession, s)
	c.Set(ContextKeyUser, user)
	return returnTo, nil
}

// LogOut destroys the session and continues with a fresh anonymous one.
func LogOut(c *gin.Context) error {
	s, err := store(c).Destroy(c.Request.Context(), c.Writer, CurrentSession(c))
	if err != nil {
		return err
	}
	c.Set(ContextKeySession, s)
	c.Set(ContextKeyUser, (*models.User)(nil))
	return nil
}
