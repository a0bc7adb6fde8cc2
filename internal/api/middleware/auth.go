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

const (
	// MsgLoginRequired is flashed when an anonymous user hits a protected page.
	MsgLoginRequired = "You must be logged in to do that!"
	MsgNotOwner      = "You are not the owner of this listing"
	MsgListingGone   = "Listing not found!"
)

// ListingFinder loads listings for the ownership check.
type ListingFinder interface {
	FindByID(ctx context.Context, id utils.SixID) (*models.Listing, error)
}

// RequireLogin redirects anonymous users to /login with message flashed.
// The URL of GET requests is remembered so login can continue there.
func RequireLogin(message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if web.CurrentUser(c) != nil {
			c.Next()
			return
		}
		if c.Request.Method == http.MethodGet {
			web.SetReturnTo(c, c.Request.URL.RequestURI())
		}
		web.FlashRedirect(c, models.FlashError, message, "/login")
	}
}

// RequireLoginJSON answers anonymous requests to JSON endpoints with 401.
func RequireLoginJSON() gin.HandlerFunc {
	return func(c *gin.Context) {
		if web.CurrentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Login required"})
			return
		}
		c.Next()
	}
}

// RequireOwner loads the listing named by the :id parameter and checks the current user owns it.
// Assumes RequireLogin runs first.
func RequireOwner(listings ListingFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := utils.ParseSixID(c.Param("id"))
		if err != nil {
			web.FlashRedirect(c, models.FlashError, MsgListingGone, "/listings")
			return
		}
		listing, err := listings.FindByID(c.Request.Context(), id)
		if errors.Is(err, repository.ErrNotFound) {
			web.FlashRedirect(c, models.FlashError, MsgListingGone, "/listings")
			return
		}
		if err != nil {
			log.Error().Err(err).Str("listing_id", id.String()).Msg("Failed to load listing for ownership check")
			web.RenderError(c, http.StatusInternalServerError, MsgUnexpected)
			return
		}

		user := web.CurrentUser(c)
		if user == nil || listing.Owner != user.ID {
			web.FlashRedirect(c, models.FlashError, MsgNotOwner, "/listings/"+id.String())
			return
		}
		c.Set(web.ContextKeyListing, listing)
		c.Next()
	}
}
