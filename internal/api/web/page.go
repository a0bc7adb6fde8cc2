package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"locatify/wanderlust/internal/models"
)

var errNoSessionStore = errors.New("no session store in context")

// Page is the model a template layer renders for GET pages.
type Page struct {
	Page        string       `json:"page"`
	Flash       Flash        `json:"flash"`
	CurrentUser *models.User `json:"current_user"`
	MapboxToken string       `json:"mapbox_token"`
	Data        interface{}  `json:"data,omitempty"`
}

// ErrorData is the data of the error page.
type ErrorData struct {
	StatusCode int    `json:"status_code"`
	Message    string `json:"message"`
}

// HTTPError is an error carrying the status and message of the error page.
type HTTPError struct {
	StatusCode int
	Message    string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates an HTTPError.
func NewHTTPError(status int, message string) *HTTPError {
	return &HTTPError{StatusCode: status, Message: message}
}

// Render writes the page model for name.
func Render(c *gin.Context, status int, name string, data interface{}) {
	c.JSON(status, Page{
		Page:        name,
		Flash:       TakeFlash(c),
		CurrentUser: CurrentUser(c),
		MapboxToken: c.GetString(ContextKeyMapboxToken),
		Data:        data,
	})
}

// RenderError writes the error page and aborts the chain.
func RenderError(c *gin.Context, status int, message string) {
	Render(c, status, "error", ErrorData{StatusCode: status, Message: message})
	c.Abort()
}

// Redirect sends a 303 so the follow-up request is always a GET.
func Redirect(c *gin.Context, location string) {
	c.Redirect(http.StatusSeeOther, location)
	c.Abort()
}

// FlashRedirect queues a flash message and redirects.
func FlashRedirect(c *gin.Context, kind models.FlashKind, message, location string) {
	AddFlash(c, kind, message)
	Redirect(c, location)
}
