package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/services"
)

const (
	MsgContactSent   = "Thank you for your message! We’ll get back to you soon."
	MsgContactFailed = "Something went wrong. Please try again later."
)

// ContactHandler serves the contact form.
type ContactHandler struct {
	contactService services.IContactService
	siteKey        string
}

// NewContactHandler creates a new ContactHandler. siteKey is the public Turnstile key
// the form embeds; it may be empty.
func NewContactHandler(contactService services.IContactService, siteKey string) *ContactHandler {
	return &ContactHandler{contactService: contactService, siteKey: siteKey}
}

// Form handles GET /contact
func (h *ContactHandler) Form(c *gin.Context) {
	web.Render(c, http.StatusOK, "contact", gin.H{"turnstile_site_key": h.siteKey})
}

// Send handles POST /contact
func (h *ContactHandler) Send(c *gin.Context) {
	var input models.ContactInput
	if err := c.ShouldBind(&input); err != nil {
		web.FlashRedirect(c, models.FlashError, bindErrorMessage(err), "/listings")
		return
	}
	if err := h.contactService.Send(c.Request.Context(), input); err != nil {
		log.Error().Err(err).Str("from", input.Email).Msg("Error sending contact email")
		web.FlashRedirect(c, models.FlashError, MsgContactFailed, "/listings")
		return
	}
	web.FlashRedirect(c, models.FlashSuccess, MsgContactSent, "/listings")
}
