package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"backoffice-service/internal/config"
	"backoffice-service/internal/events"
	"backoffice-service/internal/handlers"
	"backoffice-service/internal/middleware"
	"backoffice-service/internal/repository"
	"backoffice-service/internal/services"
	"backoffice-service/internal/storage"
)

// @title Apparel Back-Office API
// @version 1.0.0
// @description Internal back-office service for wholesale lot and retail product management

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8087
// @BasePath /api/v1

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize blob storage. An empty bucket leaves the store unconfigured
	// and product registration reports it before touching the database.
	storeCtx, storeCancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := storage.NewS3Store(storeCtx, cfg.BlobBucket, cfg.BlobRegion, cfg.BlobPublicBaseURL, logger)
	storeCancel()
	if err != nil {
		log.Fatal("Failed to initialize blob storage:", err)
	}
	if store.Configured() {
		log.Println("✓ Blob storage configured")
	} else {
		log.Println("WARNING: BLOB_BUCKET not set, product image uploads are disabled")
	}

	// Initialize repositories
	productsRepo := repository.NewProductsRepository(db, redisClient)
	wholesaleRepo := repository.NewWholesaleRepository(db)

	// Initialize services
	registration := services.NewRegistrationService(productsRepo, store, logger)
	resolver := services.NewImageResolver(productsRepo, store, cfg.BlobPublicBaseURL, logger)

	// Initialize event publisher for audit trail only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	} else {
		log.Println("NATS_URL not set, skipping event publishing initialization")
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Initialize handlers with event publisher (may be nil if NATS not configured)
	productsHandler := handlers.NewProductsHandler(productsRepo, registration, resolver, eventsPublisher, logger)
	wholesaleHandler := handlers.NewWholesaleHandler(wholesaleRepo, eventsPublisher, logger)

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	// Add CORS middleware
	router.Use(middleware.CORS())

	// Health check endpoints
	router.GET("/health", handlers.HealthCheck)
	router.GET("/ready", handlers.HealthCheck)

	// API routes
	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", productsHandler.GetProducts)
			products.GET("/:id", productsHandler.GetProduct)
			products.GET("/:id/images", productsHandler.GetProductImages)
			products.POST("/register", productsHandler.RegisterProduct)
		}

		v1.GET("/categories", productsHandler.GetCategories)

		wholesale := v1.Group("/wholesale")
		{
			wholesale.GET("", wholesaleHandler.GetWholesaleLots)
			wholesale.GET("/export", wholesaleHandler.ExportWholesaleLots)
			wholesale.GET("/:id", wholesaleHandler.GetWholesaleLot)
			wholesale.PUT("/:id", wholesaleHandler.UpdateWholesaleLot)
			wholesale.POST("/register", wholesaleHandler.RegisterWholesaleLot)
		}
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Back-office service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	// Wait for interrupt signal
	<-quit
	log.Println("Shutting down backoffice-service...")
}
