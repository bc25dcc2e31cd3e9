package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"vidhub/internal/config"
	"vidhub/internal/handlers"
	"vidhub/internal/middleware"
	"vidhub/internal/models"
	"vidhub/internal/repositories"
	"vidhub/internal/services"
	"vidhub/pkg/assetstore"
	"vidhub/pkg/events"
)

func main() {
	// --- Configuration ---
	cfg := config.Load()
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		log.Fatal("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}

	// --- Database ---
	db, err := gorm.Open(postgres.Open(cfg.DatabaseDSN), &gorm.Config{})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// --- Asset Store ---
	assets, err := assetstore.NewS3Store(context.Background(), assetstore.Config{
		Endpoint:      cfg.S3Endpoint,
		Region:        cfg.S3Region,
		Bucket:        cfg.S3Bucket,
		AccessKey:     cfg.S3AccessKey,
		SecretKey:     cfg.S3SecretKey,
		PublicBaseURL: cfg.S3PublicBaseURL,
	})
	if err != nil {
		log.Fatalf("Failed to initialize asset store: %v", err)
	}

	// --- Event Publisher ---
	// The broker is optional: without it the API still works, lifecycle
	// events are just skipped.
	var publisher events.Publisher
	mqClient, err := events.NewClient(events.Config{URL: cfg.RabbitMQURL})
	if err != nil {
		log.Printf("RabbitMQ unavailable, user events disabled: %v", err)
	} else {
		defer mqClient.Close()
		publisher = mqClient

		// --- Start RabbitMQ Consumer in a Goroutine ---
		// Placeholder consumer for downstream workers (welcome mail, audit).
		go func() {
			log.Println("Starting RabbitMQ consumer for user events...")
			messageHandler := func(msg amqp.Delivery) error {
				log.Printf("Received user event (Tag: %d): %s", msg.DeliveryTag, string(msg.Body))
				return nil
			}
			if consumerErr := mqClient.ConsumeUserEvents(messageHandler); consumerErr != nil {
				log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
			}
		}()
	}

	// --- Initialize Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)

	// --- Initialize Services ---
	tokenService := services.NewTokenService(cfg)
	authService := services.NewAuthService(userRepo, tokenService, assets, publisher)
	userService := services.NewUserService(userRepo, assets, publisher)

	// --- Initialize Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)

	// --- Initialize Fiber App ---
	app := fiber.New()

	// --- Middleware ---
	app.Use(logger.New()) // Request logger

	requireAuth := middleware.AuthRequired(tokenService)

	// --- API Routes ---
	apiV1 := app.Group("/api/v1")
	authHandler.RegisterRoutes(apiV1, requireAuth)
	userHandler.RegisterRoutes(apiV1, requireAuth)

	// --- Health Check Endpoint ---
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
