package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/services"
	"locatify/wanderlust/internal/utils"
)

const (
	MsgReviewAdded     = "Review Added!"
	MsgReviewDeleted   = "Review Deleted Successfully!"
	MsgReviewNoListing = "Cannot find listing to add a review."
	MsgReviewMissing   = "Review not found!"
)

// ReviewHandler serves the nested review routes of a listing.
type ReviewHandler struct {
	reviewService services.IReviewService
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService services.IReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

// Create handles POST /listings/:id/reviews
func (h *ReviewHandler) Create(c *gin.Context) {
	listingID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		web.FlashRedirect(c, models.FlashError, MsgReviewNoListing, "/listings")
		return
	}

	var input models.ReviewInput
	if err := c.ShouldBind(&input); err != nil {
		web.RenderError(c, http.StatusBadRequest, bindErrorMessage(err))
		return
	}

	_, err = h.reviewService.Create(c.Request.Context(), listingID, web.CurrentUser(c).ID, input)
	var verr *services.ValidationError
	switch {
	case err == nil:
		web.FlashRedirect(c, models.FlashSuccess, MsgReviewAdded, "/listings/"+listingID.String())
	case errors.Is(err, services.ErrNotFound):
		web.FlashRedirect(c, models.FlashError, MsgReviewNoListing, "/listings")
	case errors.As(err, &verr):
		web.RenderError(c, http.StatusBadRequest, sentence(verr.Error()))
	default:
		_ = c.Error(err)
	}
}

// Delete handles DELETE /listings/:id/reviews/:reviewId
func (h *ReviewHandler) Delete(c *gin.Context) {
	listingID, err := utils.ParseSixID(c.Param("id"))
	if err != nil {
		web.FlashRedirect(c, models.FlashError, MsgListingMissing, "/listings")
		return
	}
	back := "/listings/" + listingID.String()
	reviewID, err := utils.ParseSixID(c.Param("reviewId"))
	if err != nil {
		web.FlashRedirect(c, models.FlashError, MsgReviewMissing, back)
		return
	}

	err = h.reviewService.Delete(c.Request.Context(), listingID, reviewID)
	switch {
	case err == nil:
		web.FlashRedirect(c, models.FlashSuccess, MsgReviewDeleted, back)
	case errors.Is(err, services.ErrNotFound):
		web.FlashRedirect(c, models.FlashError, MsgReviewMissing, back)
	default:
		_ = c.Error(err)
	}
}
