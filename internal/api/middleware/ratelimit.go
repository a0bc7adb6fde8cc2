package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"locatify/wanderlust/internal/api/web"
	"locatify/wanderlust/internal/config"
)

const (
	limiterCleanupInterval = 10 * time.Minute
	limiterIdleTimeout     = 30 * time.Minute
)

// clientLimiter stores rate limiters for a specific client.
type clientLimiter struct {
	softLimiter *rate.Limiter
	hardLimiter *rate.Limiter
	lastSeen    time.Time
}

// RateLimiterMiddleware throttles state-changing requests per client IP.
// Anonymous clients are held to the soft limit; logged-in users and clients that
// passed a captcha only to the hard limit.
type RateLimiterMiddleware struct {
	clients map[string]*clientLimiter
	mu      sync.Mutex
	cfg     *config.Config
	now     func() time.Time
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware and starts its cleanup loop.
func NewRateLimiterMiddleware(cfg *config.Config) *RateLimiterMiddleware {
	rm := newRateLimiter(cfg)
	go rm.cleanupClients()
	return rm
}

func newRateLimiter(cfg *config.Config) *RateLimiterMiddleware {
	return &RateLimiterMiddleware{
		clients: make(map[string]*clientLimiter),
		cfg:     cfg,
		now:     time.Now,
	}
}

// getClientLimiter retrieves or creates the rate limiters for a given client identifier.
func (rm *RateLimiterMiddleware) getClientLimiter(identifier string) *clientLimiter {
	rm.mu.Lock()
	defer rm.mu.Unlock()

	limiter, exists := rm.clients[identifier]
	if !exists {
		limiter = &clientLimiter{
			softLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitSoftRefillRate), rm.cfg.RateLimitSoftBucketSize),
			hardLimiter: rate.NewLimiter(rate.Limit(rm.cfg.RateLimitHardRefillRate), rm.cfg.RateLimitHardBucketSize),
		}
		rm.clients[identifier] = limiter
		log.Debug().Str("client", identifier).Msg("Created rate limiter entry")
	}
	limiter.lastSeen = rm.now()
	return limiter
}

// cleanupClients periodically removes idle client entries.
func (rm *RateLimiterMiddleware) cleanupClients() {
	ticker := time.NewTicker(limiterCleanupInterval)
	defer ticker.Stop()
	for range ticker.C {
		if n := rm.evictIdle(); n > 0 {
			log.Debug().Int("removed", n).Msg("Rate limiter cleanup")
		}
	}
}

func (rm *RateLimiterMiddleware) evictIdle() int {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	count := 0
	for id, client := range rm.clients {
		if rm.now().Sub(client.lastSeen) > limiterIdleTimeout {
			delete(rm.clients, id)
			count++
		}
	}
	return count
}

func isSafeMethod(method string) bool {
	return method == http.MethodGet || method == http.MethodHead || method == http.MethodOptions
}

// Limit creates the Gin middleware handler. Safe methods are not limited.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if isSafeMethod(c.Request.Method) {
			c.Next()
			return
		}

		clientKey := c.ClientIP()
		limiter := rm.getClientLimiter(clientKey)

		if !limiter.hardLimiter.Allow() {
			log.Warn().Str("client", clientKey).Str("path", c.Request.URL.Path).Msg("Hard rate limit exceeded")
			web.RenderError(c, http.StatusTooManyRequests, "Too many requests. Please try again later.")
			return
		}

		trusted := web.CurrentUser(c) != nil || c.GetBool(ContextKeyIsHumanVerified)
		if !trusted && !limiter.softLimiter.Allow() {
			log.Info().Str("client", clientKey).Str("path", c.Request.URL.Path).Msg("Soft rate limit exceeded")
			web.RenderError(c, http.StatusTooManyRequests, "Too many requests. Please slow down.")
			return
		}

		c.Next()
	}
}
