package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/storage"
)

// ImageHandler streams images kept in GridFS.
type ImageHandler struct {
	images storage.ImageStore
}

// NewImageHandler creates a new ImageHandler.
func NewImageHandler(images storage.ImageStore) *ImageHandler {
	return &ImageHandler{images: images}
}

// Get handles GET /images/:id
func (h *ImageHandler) Get(c *gin.Context) {
	obj, err := h.images.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, storage.ErrObjectNotFound) {
		web.RenderError(c, http.StatusNotFound, "Image not found!")
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.Header("Cache-Control", "public, max-age=86400")
	c.Data(http.StatusOK, obj.ContentType, obj.Data)
}
