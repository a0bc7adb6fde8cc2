package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/mongo"

	"locatify/wanderlust/internal/api"
	"locatify/wanderlust/internal/cache"
	"locatify/wanderlust/internal/config"
	"locatify/wanderlust/internal/db"
	"locatify/wanderlust/internal/email"
	"locatify/wanderlust/internal/observability"
	"locatify/wanderlust/internal/repository"
	"locatify/wanderlust/internal/seed"
	"locatify/wanderlust/internal/storage"
	"locatify/wanderlust/internal/tasks"
	"locatify/wanderlust/internal/utils"
)

var runMode = flag.String("m", "all", "Run mode: 'api', 'bg' (image worker), 'all' (default), 'seed' (reset sample listings)")

const (
	shutdownTimeout   = 15 * time.Second
	workerConcurrency = 4
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*runMode)
	if err != nil {
		observability.InstallLogger("production")
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}
	observability.InstallLogger(cfg.AppEnv)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	mongoClient, mongoDb, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer func() {
		if err := db.DisconnectDB(mongoClient); err != nil {
			log.Error().Err(err).Msg("Error disconnecting from MongoDB")
		}
	}()

	if cfg.RunMode == "seed" {
		runSeed(cfg, mongoDb)
		return
	}

	if err := db.EnsureIndexes(context.Background(), mongoDb); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure indexes")
	}

	redisClient, err := cache.ConnectRedis(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer func() {
		if err := cache.DisconnectRedis(redisClient); err != nil {
			log.Error().Err(err).Msg("Error disconnecting from Redis")
		}
	}()

	images, err := newImageStore(cfg, mongoDb)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize image storage")
	}

	taskClient := tasks.NewClient(redisClient)
	defer func() {
		if err := taskClient.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing task client")
		}
	}()

	var wg sync.WaitGroup
	shutdownChan := make(chan struct{}, 1)

	// Service API always runs.
	registry := observability.InitRegistry()
	serviceSrv := &http.Server{
		Addr:    ":" + cfg.ServiceApiPort,
		Handler: api.SetupServiceRouter(registry, redisClient, shutdownChan),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info().Str("port", cfg.ServiceApiPort).Msg("Service API listening")
		if err := serviceSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Service API ListenAndServe error")
		}
		log.Info().Msg("Service API server stopped")
	}()

	var mainApiSrv *http.Server
	var stopWorker func()

	log.Info().Str("mode", cfg.RunMode).Msg("Starting application")

	apiMode := func() {
		handler, err := api.SetupRouter(cfg, mongoDb, redisClient, images, newEmailSender(cfg, redisClient), taskClient)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to set up router")
		}
		mainApiSrv = &http.Server{
			Addr:              ":" + cfg.ApiPort,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Info().Str("port", cfg.ApiPort).Msg("Main API listening")
			if err := mainApiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Fatal().Err(err).Msg("Main API ListenAndServe error")
			}
			log.Info().Msg("Main API server stopped")
		}()
	}

	bgMode := func() {
		processor := tasks.NewTaskProcessor(cfg, images)
		srv, mux := tasks.SetupServer(redisClient, processor, workerConcurrency)
		if err := srv.Start(mux); err != nil {
			log.Fatal().Err(err).Msg("Image worker failed to start")
		}
		log.Info().Int("concurrency", workerConcurrency).Msg("Image worker started")
		stopWorker = srv.Shutdown
	}

	switch cfg.RunMode {
	case "api":
		apiMode()
	case "bg":
		bgMode()
	case "all":
		apiMode()
		bgMode()
	default:
		log.Fatal().Str("mode", cfg.RunMode).Msg("Invalid run mode")
	}

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		log.Info().Str("signal", sig.String()).Msg("Shutting down gracefully")
	case <-shutdownChan:
		log.Info().Msg("Shutdown requested via Service API")
	}

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancelShutdown()

	if err := serviceSrv.Shutdown(ctxShutdown); err != nil {
		log.Error().Err(err).Msg("Service API server shutdown error")
	}
	if mainApiSrv != nil {
		if err := mainApiSrv.Shutdown(ctxShutdown); err != nil {
			log.Error().Err(err).Msg("Main API server shutdown error")
		}
	}
	if stopWorker != nil {
		log.Info().Msg("Shutting down image worker")
		stopWorker()
	}

	wg.Wait()
	log.Info().Msg("Server gracefully stopped")
}

func runSeed(cfg *config.Config, database *mongo.Database) {
	owner, err := utils.ParseSixID(cfg.SeedOwnerID)
	if err != nil {
		log.Fatal().Err(err).Str("seed_owner_id", cfg.SeedOwnerID).Msg("SEED_OWNER_ID must be a valid user id")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if _, err := seed.Run(ctx, repository.NewListingRepository(database), owner); err != nil {
		log.Fatal().Err(err).Msg("Seeding failed")
	}
}

func newImageStore(cfg *config.Config, database *mongo.Database) (storage.ImageStore, error) {
	if cfg.ImageBackend == config.ImageBackendS3 {
		client, err := storage.NewS3Client(cfg)
		if err != nil {
			return nil, err
		}
		log.Info().Str("bucket", cfg.AwsS3Bucket).Msg("Storing images in S3")
		return storage.NewS3Storage(client, cfg.AwsS3Bucket, cfg.ImageFolder, cfg.ImageBaseS3URL), nil
	}
	log.Info().Msg("Storing images in GridFS")
	return storage.NewGridFSStorage(database, cfg.ImageFolder, "/images"), nil
}

// newEmailSender composes the contact email sender. MOCK_SERVICES stores messages in Redis
// for integration tests; LOG_EMAILS additionally appends them to a file.
func newEmailSender(cfg *config.Config, rdb *redis.Client) email.Sender {
	var primary email.Sender
	if os.Getenv("MOCK_SERVICES") == "true" && !cfg.IsProduction() {
		log.Info().Msg("MOCK_SERVICES enabled: using Redis email sender")
		primary = email.NewRedisSender(rdb, cfg.SmtpFromAddress)
	} else {
		primary = email.NewSMTPSender(cfg)
	}
	composite := email.NewCompositeEmailSender(primary)

	if path := os.Getenv("LOG_EMAILS"); path != "" {
		fileSender, err := email.NewFileEmailSender(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("Failed to initialize file email sender, continuing without it")
		} else {
			composite.AddSender(fileSender)
			log.Info().Str("path", path).Msg("File email logger enabled")
		}
	}
	return composite
}
