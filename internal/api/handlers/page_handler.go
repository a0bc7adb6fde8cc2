package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"locatify/wanderlust/internal/api/web"
)

// StaticPages are the informational pages without data.
var StaticPages = []string{"privacy", "terms", "faq", "about"}

// Page renders the page model for name.
func Page(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		web.Render(c, http.StatusOK, name, nil)
	}
}

// Home handles GET /
func Home(c *gin.Context) {
	c.Redirect(http.StatusFound, "/listings")
}

// Ping handles GET /ping
func Ping(c *gin.Context) {
	c.String(http.StatusOK, "pong")
}
