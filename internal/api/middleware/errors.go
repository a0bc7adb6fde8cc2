package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/api/web"
)

const (
	MsgNotFound   = "Page Not Found!"
	MsgUnexpected = "Something went wrong!"
)

// ErrorHandler renders errors handlers attached with c.Error. An *web.HTTPError sets
// the status and message, anything else becomes a 500.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		var httpErr *web.HTTPError
		if errors.As(err, &httpErr) {
			web.RenderError(c, httpErr.StatusCode, httpErr.Message)
			return
		}
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Unhandled error")
		web.RenderError(c, http.StatusInternalServerError, MsgUnexpected)
	}
}

// Recovery turns panics into the generic error page.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		log.Error().Interface("panic", recovered).Str("path", c.Request.URL.Path).Msg("Recovered from panic")
		web.RenderError(c, http.StatusInternalServerError, MsgUnexpected)
	})
}

// NotFound is the handler for unmatched routes.
func NotFound(c *gin.Context) {
	web.RenderError(c, http.StatusNotFound, MsgNotFound)
}
