package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/models"
	"locatify/wanderlust/internal/storage"
)

// ListingImageField is the multipart field of the listing image.
const ListingImageField = "listing[image][url]"

const MsgImagesOnly = "Only image files are allowed!"

// ImageUpload validates an optional image in field and exposes it as a *storage.Upload.
// Oversized or non-image files flash a message and redirect to formURL(c).
func ImageUpload(field string, maxSizeMB int, formURL func(c *gin.Context) string) gin.HandlerFunc {
	maxBytes := int64(maxSizeMB) << 20
	tooLarge := fmt.Sprintf("File size too large. Maximum allowed size is %dMB.", maxSizeMB)

	return func(c *gin.Context) {
		// Leave room for the other form fields.
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+(1<<20))

		fh, err := c.FormFile(field)
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			c.Next()
			return
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				web.FlashRedirect(c, models.FlashError, tooLarge, formURL(c))
				return
			}
			log.Warn().Err(err).Msg("Failed to read multipart upload")
			web.RenderError(c, http.StatusBadRequest, "Invalid upload.")
			return
		}

		if fh.Size > maxBytes {
			web.FlashRedirect(c, models.FlashError, tooLarge, formURL(c))
			return
		}
		contentType := fh.Header.Get("Content-Type")
		if !strings.HasPrefix(contentType, "image/") {
			web.FlashRedirect(c, models.FlashError, MsgImagesOnly, formURL(c))
			return
		}

		file, err := fh.Open()
		if err != nil {
			_ = c.Error(fmt.Errorf("failed to open upload: %w", err))
			c.Abort()
			return
		}
		defer file.Close()

		c.Set(web.ContextKeyUpload, &storage.Upload{
			Filename:    fh.Filename,
			ContentType: contentType,
			Size:        fh.Size,
			Body:        file,
		})
		c.Next()
	}
}
