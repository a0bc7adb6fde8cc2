package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/repository"
	"locatify/wanderlust/internal/utils"
)

// UserFinder loads the user attached to a session.
type UserFinder interface {
	FindByID(ctx context.Context, id utils.SixID) (*models.User, error)
}

// Sessions loads the session referenced by the cookie and attaches the logged-in user.
// Sessions whose user no longer exists are treated as anonymous.
func Sessions(store web.SessionStore, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(web.ContextKeySessionStore, store)

		s, err := store.Load(c.Request.Context(), c.Request)
		if err != nil {
			log.Error().Err(err).Msg("Failed to load session")
			web.RenderError(c, http.StatusInternalServerError, MsgUnexpected)
			return
		}
		if s == nil {
			c.Next()
			return
		}
		c.Set(web.ContextKeySession, s)

		if s.IsAuthenticated() {
			user, err := users.FindByID(c.Request.Context(), *s.UserID)
			switch {
			case err == nil:
				c.Set(web.ContextKeyUser, user)
			case errors.Is(err, repository.ErrNotFound):
				log.Warn().Str("session_id", s.ID).Msg("Session user no longer exists")
				s.UserID = nil
			default:
				log.Error().Err(err).Msg("Failed to load session user")
				web.RenderError(c, http.StatusInternalServerError, MsgUnexpected)
				return
			}
		}
		c.Next()
	}
}

// Locals exposes values every page model carries.
func Locals(mapboxToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(web.ContextKeyMapboxToken, mapboxToken)
		c.Next()
	}
}
