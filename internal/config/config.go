package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

const (
	ImageBackendS3     = "s3"
	ImageBackendGridFS = "gridfs"
)

// Config holds all configuration for the application.
type Config struct {
	// Environment
	RunMode string // Set via flag, not env
	AppEnv  string

	// MongoDB
	MongoURI    string
	MongoDbName string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Sessions
	SessionSecret string
	SessionTTL    time.Duration

	// Server
	ApiPort        string
	ServiceApiPort string

	// Cloudflare
	CloudflareTurnstileSiteKey   string
	CloudflareTurnstileSecretKey string
	CloudflareSiteVerifyURL      string

	// Geocoding
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocodeCacheTTL   time.Duration

	// Email
	SmtpHost         string
	SmtpPort         int
	SmtpUsername     string
	SmtpPassword     string
	SmtpFromAddress  string
	ContactRecipient string

	// Images
	ImageBackend       string
	AwsAccessKeyID     string
	AwsSecretAccessKey string
	AwsRegion          string
	AwsS3Bucket        string
	ImageBaseS3URL     string
	ImageFolder        string
	ImageMaxDimension  int
	ImageMaxSizeMB     int
	UploadMaxSizeMB    int

	// App Defaults
	AppName        string
	PasswordRegexp string
	MapboxToken    string
	SeedOwnerID    string

	// Rate Limiting Defaults
	RateLimitSoftBucketSize int
	RateLimitSoftRefillRate int // tokens per second
	RateLimitHardBucketSize int
	RateLimitHardRefillRate int // tokens per second
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// Load configuration from environment variables.
// RunMode needs to be passed in as it comes from command-line flags.
func Load(runMode string) (*Config, error) {
	// Load .env file, ignoring errors if it doesn't exist
	godotenv.Load()

	cfg := &Config{
		RunMode: runMode, // Set from flag
	}

	var err error

	// Helper function to get env var or default
	getEnv := func(key, defaultValue string) string {
		if value, exists := os.LookupEnv(key); exists {
			return value
		}
		return defaultValue
	}

	// Helper function to get required env var
	getRequiredEnv := func(key string) (string, error) {
		value, exists := os.LookupEnv(key)
		if !exists || value == "" {
			return "", fmt.Errorf("missing required environment variable: %s", key)
		}
		return value, nil
	}

	getInt := func(key, defaultValue string) (int, error) {
		v, err := strconv.Atoi(getEnv(key, defaultValue))
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %w", key, err)
		}
		return v, nil
	}

	// Load basic string values
	cfg.MongoURI, err = getRequiredEnv("MONGO_URI")
	if err != nil {
		return nil, err
	}
	cfg.SessionSecret, err = getRequiredEnv("SESSION_SECRET")
	if err != nil {
		return nil, err
	}
	cfg.AppEnv = getEnv("APP_ENV", "development")
	cfg.MongoDbName = getEnv("MONGO_DB_NAME", "wanderlust")
	cfg.RedisAddr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.RedisPassword = getEnv("REDIS_PASSWORD", "")
	cfg.ApiPort = getEnv("API_PORT", "8080")
	cfg.ServiceApiPort = getEnv("SERVICE_API_PORT", "12345")
	cfg.CloudflareTurnstileSiteKey = getEnv("CLOUDFLARE_TURNSTILE_SITE_KEY", "")
	cfg.CloudflareTurnstileSecretKey = getEnv("CLOUDFLARE_TURNSTILE_SECRET_KEY", "")
	cfg.CloudflareSiteVerifyURL = getEnv("CLOUDFLARE_SITEVERIFY_URL", "https://challenges.cloudflare.com/turnstile/v0/siteverify")
	cfg.GeocoderURL = getEnv("GEOCODER_URL", "https://nominatim.openstreetmap.org")
	cfg.GeocoderUserAgent = getEnv("GEOCODER_USER_AGENT", "wanderlust/1.0")
	cfg.SmtpHost = getEnv("SMTP_HOST", "")
	cfg.SmtpUsername = getEnv("SMTP_USERNAME", "")
	cfg.SmtpPassword = getEnv("SMTP_PASSWORD", "")
	cfg.SmtpFromAddress = getEnv("SMTP_FROM_ADDRESS", "noreply@wanderlust.example.com")
	cfg.ContactRecipient = getEnv("CONTACT_RECIPIENT", "")
	cfg.ImageBackend = getEnv("IMAGE_BACKEND", ImageBackendGridFS)
	cfg.AwsAccessKeyID = getEnv("AWS_ACCESS_KEY_ID", "")
	cfg.AwsSecretAccessKey = getEnv("AWS_SECRET_ACCESS_KEY", "")
	cfg.AwsRegion = getEnv("AWS_REGION", "")
	cfg.AwsS3Bucket = getEnv("AWS_S3_BUCKET", "")
	cfg.ImageBaseS3URL = getEnv("IMAGE_BASE_S3_URL", "")
	cfg.ImageFolder = getEnv("IMAGE_FOLDER", "WanderLust_DEV")
	cfg.AppName = getEnv("APP_NAME", "Wanderlust")
	cfg.PasswordRegexp = getEnv("PASSWORD_REGEXP", "^.{8,}$")
	cfg.MapboxToken = getEnv("MAPBOX_TOKEN", "")
	cfg.SeedOwnerID = getEnv("SEED_OWNER_ID", "")

	switch cfg.ImageBackend {
	case ImageBackendS3, ImageBackendGridFS:
	default:
		return nil, fmt.Errorf("invalid IMAGE_BACKEND %q: must be %q or %q", cfg.ImageBackend, ImageBackendS3, ImageBackendGridFS)
	}

	// Load numeric and time duration values with defaults and parsing
	if cfg.RedisDB, err = getInt("REDIS_DB", "0"); err != nil {
		return nil, err
	}

	sessionTTLHours, err := getInt("SESSION_TTL_HOURS", "168")
	if err != nil {
		return nil, err
	}
	cfg.SessionTTL = time.Duration(sessionTTLHours) * time.Hour

	geocoderTimeoutSeconds, err := getInt("GEOCODER_TIMEOUT_SECONDS", "10")
	if err != nil {
		return nil, err
	}
	cfg.GeocoderTimeout = time.Duration(geocoderTimeoutSeconds) * time.Second

	geocodeCacheTTLSeconds, err := getInt("GEOCODE_CACHE_TTL_SECONDS", "86400")
	if err != nil {
		return nil, err
	}
	cfg.GeocodeCacheTTL = time.Duration(geocodeCacheTTLSeconds) * time.Second

	if cfg.SmtpPort, err = getInt("SMTP_PORT", "587"); err != nil {
		return nil, err
	}
	if cfg.ImageMaxDimension, err = getInt("IMAGE_MAX_DIMENSION", "800"); err != nil {
		return nil, err
	}
	if cfg.ImageMaxSizeMB, err = getInt("IMAGE_MAX_SIZE_MB", "10"); err != nil {
		return nil, err
	}
	if cfg.UploadMaxSizeMB, err = getInt("UPLOAD_MAX_SIZE_MB", "100"); err != nil {
		return nil, err
	}

	// Rate Limiting
	if cfg.RateLimitSoftBucketSize, err = getInt("RATE_LIMIT_SOFT_BUCKET_SIZE", "5"); err != nil {
		return nil, err
	}
	if cfg.RateLimitSoftRefillRate, err = getInt("RATE_LIMIT_SOFT_REFILL_RATE", "1"); err != nil {
		return nil, err
	}
	if cfg.RateLimitHardBucketSize, err = getInt("RATE_LIMIT_HARD_BUCKET_SIZE", "20"); err != nil {
		return nil, err
	}
	if cfg.RateLimitHardRefillRate, err = getInt("RATE_LIMIT_HARD_REFILL_RATE", "10"); err != nil {
		return nil, err
	}

	return cfg, nil
}
