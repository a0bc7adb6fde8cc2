package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/services"
	"locatify/wanderlust/internal/utils"
)

const (
	MsgListingCreated   = "Successfully made a new listing!"
	MsgListingUpdated   = "Successfully updated listing!"
	MsgListingDeleted   = "Listing Deleted!"
	MsgListingMissing   = "The listing you requested does not exist."
	MsgInvalidPrice     = "Please enter a valid price (numbers only)."
	MsgDuplicateListing = "A listing with this title already exists."
	MsgGeocoderDown     = "Could not verify the location. Please try a different address."
	MsgUploadFailed     = "Image upload failed. Please try again."
)

// IndexData is the model of the listings index page.
type IndexData struct {
	Listings     []models.ListingCard `json:"listings"`
	SearchQuery  string               `json:"search_query,omitempty"`
	ActiveFilter string               `json:"active_filter,omitempty"`
}

// EditData is the model of the listing edit form.
type EditData struct {
	Listing          *models.Listing `json:"listing"`
	OriginalImageURL string          `json:"original_image_url"`
}

// ListingHandler serves the listing pages.
type ListingHandler struct {
	listingService services.IListingService
}

// NewListingHandler creates a new ListingHandler.
func NewListingHandler(listingService services.IListingService) *ListingHandler {
	return &ListingHandler{listingService: listingService}
}

// Index handles GET /listings
func (h *ListingHandler) Index(c *gin.Context) {
	var query models.ListingQuery
	_ = c.ShouldBindQuery(&query)

	listings, err := h.listingService.List(c.Request.Context(), query, web.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	web.Render(c, http.StatusOK, "listings/index", IndexData{Listings: listings, SearchQuery: query.Search})
}

// Filter handles GET /listings/filter/:category
func (h *ListingHandler) Filter(c *gin.Context) {
	category := c.Param("category")
	listings, err := h.listingService.List(c.Request.Context(), models.ListingQuery{Category: category}, web.CurrentUser(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	web.Render(c, http.StatusOK, "listings/index", IndexData{Listings: listings, ActiveFilter: category})
}

// Wishlist handles GET /listings/wishlist
func (h *ListingHandler) Wishlist(c *gin.Context) {
	listings, err := h.listingService.Wishlist(c.Request.Context(), web.CurrentUser(c).ID)
	if err != nil {
		_ = c.Error(err)
		return
	}
	web.Render(c, http.StatusOK, "listings/index", IndexData{Listings: listings, ActiveFilter: "wishlist"})
}

// New handles GET /listings/new
func (h *ListingHandler) New(c *gin.Context) {
	web.Render(c, http.StatusOK, "listings/new", nil)
}

// Show handles GET /listings/:id
func (h *ListingHandler) Show(c *gin.Context) {
	id, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		web.FlashRedirect(c, models.FlashError, MsgListingMissing, "/listings")
		return
	}
	listing, err := h.listingService.Get(c.Request.Context(), id)
	if errors.Is(err, services.ErrNotFound) {
		web.FlashRedirect(c, models.FlashError, MsgListingMissing, "/listings")
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	web.Render(c, http.StatusOK, "listings/show", listing)
}

// Create handles POST /listings
func (h *ListingHandler) Create(c *gin.Context) {
	const formURL = "/listings/new"
	input, ok := bindListing(c, formURL)
	if !ok {
		return
	}

	_, err := h.listingService.Create(c.Request.Context(), web.CurrentUser(c).ID, input, web.CurrentUpload(c))
	if err != nil {
		log.Warn().Err(err).Msg("Create listing failed")
		web.FlashRedirect(c, models.FlashError, createErrorMessage(err), formURL)
		return
	}
	web.FlashRedirect(c, models.FlashSuccess, MsgListingCreated, "/listings")
}

// Edit handles GET /listings/:id/edit. RequireOwner has loaded the listing.
func (h *ListingHandler) Edit(c *gin.Context) {
	listing := web.CurrentListing(c)
	web.Render(c, http.StatusOK, "listings/edit", EditData{
		Listing:          listing,
		OriginalImageURL: strings.Replace(listing.Image.URL, "/upload", "/upload/w_250", 1),
	})
}

// Update handles PUT /listings/:id
func (h *ListingHandler) Update(c *gin.Context) {
	id := web.CurrentListing(c).ID
	formURL := "/listings/" + id.String() + "/edit"
	input, ok := bindListing(c, formURL)
	if !ok {
		return
	}

	listing, err := h.listingService.Update(c.Request.Context(), id, input, web.CurrentUpload(c))
	if errors.Is(err, services.ErrNotFound) {
		web.FlashRedirect(c, models.FlashError, "Listing not found!", "/listings")
		return
	}
	if err != nil {
		log.Warn().Err(err).Str("listing_id", id.String()).Msg("Update listing failed")
		web.FlashRedirect(c, models.FlashError, updateErrorMessage(err), formURL)
		return
	}
	web.FlashRedirect(c, models.FlashSuccess, MsgListingUpdated, "/listings/"+listing.ID.String())
}

// Delete handles DELETE /listings/:id
func (h *ListingHandler) Delete(c *gin.Context) {
	id := web.CurrentListing(c).ID
	if err := h.listingService.Delete(c.Request.Context(), id); err != nil && !errors.Is(err, services.ErrNotFound) {
		_ = c.Error(err)
		return
	}
	web.FlashRedirect(c, models.FlashSuccess, MsgListingDeleted, "/listings")
}

// ToggleLike handles POST /listings/:id/like
func (h *ListingHandler) ToggleLike(c *gin.Context) {
	id, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": "Invalid listing ID"})
		return
	}
	liked, err := h.listingService.ToggleLike(c.Request.Context(), web.CurrentUser(c).ID, id)
	if err != nil {
		log.Error().Err(err).Str("listing_id", id.String()).Msg("Failed to toggle like")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Failed to update wishlist"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "liked": liked})
}

// bindListing binds the listing form. Constraint violations render a 400 page naming
// every field; a non-numeric price is flashed back to the form.
func bindListing(c *gin.Context, formURL string) (models.ListingInput, bool) {
	var input models.ListingInput
	err := c.ShouldBind(&input)
	if err == nil && (input.Price == nil || services.IsFinite(*input.Price)) {
		return input, true
	}

	var numErr *strconv.NumError
	if errors.As(err, &numErr) || (input.Price != nil && !services.IsFinite(*input.Price)) {
		web.FlashRedirect(c, models.FlashError, MsgInvalidPrice, formURL)
		return input, false
	}
	if verr, ok := services.FromValidatorErrors(err); ok {
		web.RenderError(c, http.StatusBadRequest, verr.Error())
		return input, false
	}
	web.RenderError(c, http.StatusBadRequest, err.Error())
	return input, false
}

func createErrorMessage(err error) string {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrLocationRequired):
		return services.ErrLocationRequired.Error()
	case errors.As(err, &verr):
		return "Validation error: " + verr.Error()
	case mongo.IsDuplicateKeyError(err):
		return MsgDuplicateListing
	case errors.Is(err, services.ErrLocationNotFound):
		return "Could not find location. Please provide a more specific address."
	case services.IsExternal(err, services.ServiceGeocoder):
		return MsgGeocoderDown
	case services.IsExternal(err, services.ServiceImageStorage):
		return MsgUploadFailed
	default:
		return "An unexpected error occurred: " + err.Error()
	}
}

func updateErrorMessage(err error) string {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrLocationRequired):
		return services.ErrLocationRequired.Error()
	case errors.As(err, &verr):
		return "Update failed. Please check your inputs: " + verr.Error()
	case mongo.IsDuplicateKeyError(err):
		return MsgDuplicateListing
	case errors.Is(err, services.ErrLocationNotFound):
		return "Could not update location. Please provide a more specific address."
	case services.IsExternal(err, services.ServiceGeocoder):
		return MsgGeocoderDown
	case services.IsExternal(err, services.ServiceImageStorage):
		return MsgUploadFailed
	default:
		return "Something went wrong while updating the listing."
	}
}
