package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"locatify/wanderlust/internal/api/handlers"
	"locatify/wanderlust/internal/api/middleware"
	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/auth"
	"locatify/wanderlust/internal/captcha"
	"locatify/wanderlust/internal/config"
	"locatify/wanderlust/internal/email"
	"locatify/wanderlust/internal/geocode"
	"locatify/wanderlust/internal/observability"
	"locatify/wanderlust/internal/repository"
	"locatify/wanderlust/internal/services"
	"locatify/wanderlust/internal/session"
	"locatify/wanderlust/internal/storage"
)

// Deps is everything the web router needs.
type Deps struct {
	Listings services.IListingService
	Reviews  services.IReviewService
	Users    services.IUserService
	Contact  services.IContactService
	Sessions web.SessionStore
	Captcha  captcha.ITurnstileVerifier
	// Images is set when images are served from GridFS.
	Images storage.ImageStore
}

// SetupRouter builds the services on top of MongoDB and Redis and returns the web handler.
// rdb and tasks may be nil.
func SetupRouter(cfg *config.Config, database *mongo.Database, rdb *redis.Client, images storage.ImageStore, sender email.Sender, tasks services.ImageTaskEnqueuer) (http.Handler, error) {
	listingRepo := repository.NewListingRepository(database)
	reviewRepo := repository.NewReviewRepository(database)
	userRepo := repository.NewUserRepository(database)

	var geocoder geocode.Geocoder = geocode.NewNominatimGeocoder(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout)
	if rdb != nil {
		geocoder = geocode.NewCachedGeocoder(geocoder, rdb, cfg.GeocodeCacheTTL)
	}

	policy, err := auth.NewPasswordPolicy(cfg.PasswordRegexp)
	if err != nil {
		return nil, fmt.Errorf("invalid PASSWORD_REGEXP: %w", err)
	}

	deps := Deps{
		Listings: services.NewListingService(listingRepo, reviewRepo, userRepo, geocoder, images, tasks),
		Reviews:  services.NewReviewService(listingRepo, reviewRepo),
		Users:    services.NewUserService(userRepo, policy),
		Contact:  services.NewContactService(sender, cfg.SmtpFromAddress, cfg.ContactRecipient),
		Sessions: session.NewManager(repository.NewSessionRepository(database), cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction()),
		Captcha:  captcha.NewTurnstileVerifier(cfg),
	}
	if cfg.ImageBackend == config.ImageBackendGridFS {
		deps.Images = images
	}

	return middleware.MethodOverride(NewRouter(cfg, deps)), nil
}

// NewRouter configures the main Gin engine.
func NewRouter(cfg *config.Config, deps Deps) *gin.Engine {
	r := gin.New()

	rateLimiter := middleware.NewRateLimiterMiddleware(cfg)

	// Order matters: the limiter needs the session user and the captcha result.
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.Locals(cfg.MapboxToken))
	r.Use(middleware.Sessions(deps.Sessions, deps.Users))
	r.Use(middleware.CaptchaMiddleware(deps.Captcha))
	r.Use(rateLimiter.Limit())

	listingHandler := handlers.NewListingHandler(deps.Listings)
	reviewHandler := handlers.NewReviewHandler(deps.Reviews)
	userHandler := handlers.NewUserHandler(deps.Users)
	contactHandler := handlers.NewContactHandler(deps.Contact, cfg.CloudflareTurnstileSiteKey)

	requireLogin := middleware.RequireLogin(middleware.MsgLoginRequired)
	requireOwner := middleware.RequireOwner(deps.Listings)
	listingForm := func(c *gin.Context) string {
		if id := c.Param("id"); id != "" {
			return "/listings/" + id + "/edit"
		}
		return "/listings/new"
	}
	imageUpload := middleware.ImageUpload(middleware.ListingImageField, cfg.UploadMaxSizeMB, listingForm)

	r.GET("/", handlers.Home)
	r.GET("/ping", handlers.Ping)
	for _, page := range handlers.StaticPages {
		r.GET("/"+page, handlers.Page(page))
	}
	r.GET("/contact", contactHandler.Form)
	r.POST("/contact", middleware.RequireHuman(deps.Captcha), contactHandler.Send)

	listings := r.Group("/listings")
	{
		listings.GET("", listingHandler.Index)
		listings.POST("", requireLogin, imageUpload, listingHandler.Create)
		listings.GET("/new", requireLogin, listingHandler.New)
		listings.GET("/wishlist", middleware.RequireLogin("You must be logged in to view wishlist"), listingHandler.Wishlist)
		listings.GET("/filter/:category", listingHandler.Filter)

		listings.GET("/:id", listingHandler.Show)
		listings.GET("/:id/edit", requireLogin, requireOwner, listingHandler.Edit)
		listings.PUT("/:id", requireLogin, requireOwner, imageUpload, listingHandler.Update)
		listings.DELETE("/:id", requireLogin, requireOwner, listingHandler.Delete)
		listings.POST("/:id/like", middleware.RequireLoginJSON(), listingHandler.ToggleLike)

		listings.POST("/:id/reviews", requireLogin, reviewHandler.Create)
		listings.DELETE("/:id/reviews/:reviewId", requireLogin, reviewHandler.Delete)
	}

	r.GET("/signup", userHandler.SignupForm)
	r.POST("/signup", userHandler.Signup)
	r.GET("/login", userHandler.LoginForm)
	r.POST("/login", userHandler.Login)
	r.GET("/logout", userHandler.Logout)

	if deps.Images != nil {
		r.GET("/images/:id", handlers.NewImageHandler(deps.Images).Get)
	}

	r.NoRoute(middleware.NotFound)
	return r
}

// SetupServiceRouter configures the service Gin engine: Prometheus metrics and the
// internal JSON API. rdb may be nil, which disables getTestEmail.
func SetupServiceRouter(reg *prometheus.Registry, rdb *redis.Client, shutdownChan chan<- struct{}) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(), middleware.RequestLogger())

	r.GET("/metrics", gin.WrapH(observability.MetricsHandler(reg)))

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Info().Msg("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
				log.Info().Msg("Shutdown signal sent")
			default:
				log.Warn().Msg("Shutdown channel already signaled or blocked")
			}
		case "getTestEmail":
			if rdb == nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "Redis not configured"})
				return
			}
			var args []string // ["kind", "email"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 2 {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [kind, email]"})
				return
			}
			getTestEmail(c, rdb, email.MockEmailKey(args[1], args[0]))
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}

// getTestEmail polls Redis briefly for a mock email and deletes it once read.
func getTestEmail(c *gin.Context, rdb *redis.Client, key string) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	var data string
	found := false
	for i := 0; i < 10; i++ {
		val, err := rdb.Get(ctx, key).Result()
		if err == nil {
			data = val
			found = true
			rdb.Del(ctx, key)
			break
		}
		if err != redis.Nil {
			log.Error().Err(err).Str("key", key).Msg("Service API: error reading mock email")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
			return
		}
		time.Sleep(200 * time.Millisecond)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Test email not found in Redis for key %s", key)})
		return
	}

	var emailData map[string]interface{}
	if err := json.Unmarshal([]byte(data), &emailData); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Service API: malformed mock email")
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Failed to parse stored email data"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "data": emailData})
}
