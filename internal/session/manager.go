// Package session implements server-side browser sessions stored in MongoDB.
// The cookie only carries a signed session id; everything else lives in the sessions collection.
package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/auth"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/repository"
	"locatify/wanderlust/internal/utils"
)

// CookieName is the name of the session cookie.
const CookieName = "wanderlust.sid"

// Manager creates, loads and destroys sessions.
type Manager struct {
	repo   repository.SessionRepository
	secret string
	ttl    time.Duration
	secure bool
}

// NewManager creates a Manager. Sessions expire ttl after creation and are never renewed.
func NewManager(repo repository.SessionRepository, secret string, ttl time.Duration, secure bool) *Manager {
	return &Manager{repo: repo, secret: secret, ttl: ttl, secure: secure}
}

// Load returns the session referenced by the request cookie, or nil if there is none,
// the cookie is invalid or the session has expired.
func (m *Manager) Load(ctx context.Context, r *http.Request) (*models.Session, error) {
	cookie, err := r.Cookie(CookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}
	claims, err := auth.ValidateSessionToken(cookie.Value, m.secret)
	if err != nil {
		log.Debug().Err(err).Msg("Ignoring invalid session cookie")
		return nil, nil
	}
	s, err := m.repo.FindByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s, nil
}

// Start creates a new session, optionally authenticated as userID, and sets its cookie.
func (m *Manager) Start(ctx context.Context, w http.ResponseWriter, userID *utils.SixID) (*models.Session, error) {
	now := time.Now().UTC()
	s := &models.Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Flash:     []models.FlashMessage{},
		CreatedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	if err := m.repo.Insert(ctx, s); err != nil {
		return nil, err
	}
	if err := m.setCookie(w, s); err != nil {
		return nil, err
	}
	return s, nil
}

// Save persists flash messages, return_to and the user id.
func (m *Manager) Save(ctx context.Context, s *models.Session) error {
	return m.repo.Save(ctx, s)
}

// Regenerate replaces old with a fresh session id bound to userID.
// Flash messages survive; the stored return_to is consumed.
func (m *Manager) Regenerate(ctx context.Context, w http.ResponseWriter, old *models.Session, userID utils.SixID) (*models.Session, error) {
	if old != nil {
		if err := m.repo.Delete(ctx, old.ID); err != nil {
			return nil, err
		}
	}
	s, err := m.Start(ctx, w, &userID)
	if err != nil {
		return nil, err
	}
	if old != nil && len(old.Flash) > 0 {
		s.Flash = append(s.Flash, old.Flash...)
		if err := m.repo.Save(ctx, s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Destroy deletes s and starts a fresh anonymous session in its place.
func (m *Manager) Destroy(ctx context.Context, w http.ResponseWriter, s *models.Session) (*models.Session, error) {
	if s != nil {
		if err := m.repo.Delete(ctx, s.ID); err != nil {
			return nil, err
		}
	}
	return m.Start(ctx, w, nil)
}

func (m *Manager) setCookie(w http.ResponseWriter, s *models.Session) error {
	token, err := auth.GenerateSessionToken(s.ID, s.ExpiresAt, m.secret)
	if err != nil {
		return fmt.Errorf("failed to issue session cookie: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  s.ExpiresAt,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}
