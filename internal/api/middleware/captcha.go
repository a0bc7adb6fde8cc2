package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/captcha"
	"locatify/wanderlust/internal/models"
)

const (
	// ContextKeyIsHumanVerified holds the key for captcha status in Gin context.
	ContextKeyIsHumanVerified = "isHumanVerified"

	MsgCaptchaFailed = "Please complete the captcha challenge."
)

// CaptchaMiddleware verifies a Turnstile token posted with any form and records the
// result for the rate limiter. It never rejects a request.
func CaptchaMiddleware(verifier captcha.ITurnstileVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}
		token := c.PostForm(captcha.FormField)
		if token == "" {
			token = c.GetHeader("X-C-V")
		}
		if token != "" {
			verified, err := verifier.Verify(c.Request.Context(), token, c.ClientIP())
			if err != nil {
				// Treated as non-human; the rate limiter handles it.
				log.Warn().Err(err).Str("client", c.ClientIP()).Msg("Error verifying Turnstile token")
			}
			c.Set(ContextKeyIsHumanVerified, verified)
		}
		c.Next()
	}
}

// RequireHuman rejects form posts that did not pass the Turnstile check. Failures flash
// a message and redirect back to the form at the same path.
func RequireHuman(verifier captcha.ITurnstileVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetBool(ContextKeyIsHumanVerified) {
			c.Next()
			return
		}
		if _, checked := c.Get(ContextKeyIsHumanVerified); !checked {
			verified, err := verifier.Verify(c.Request.Context(), c.PostForm(captcha.FormField), c.ClientIP())
			if err != nil {
				log.Warn().Err(err).Str("path", c.Request.URL.Path).Msg("Error verifying Turnstile token")
			}
			if err == nil && verified {
				c.Set(ContextKeyIsHumanVerified, true)
				c.Next()
				return
			}
		}
		web.FlashRedirect(c, models.FlashError, MsgCaptchaFailed, c.Request.URL.Path)
	}
}
