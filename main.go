package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/postforge/postforge-backend/database"
	"github.com/postforge/postforge-backend/internal/composer"
	"github.com/postforge/postforge-backend/internal/config"
	"github.com/postforge/postforge-backend/internal/handlers"
	"github.com/postforge/postforge-backend/internal/jobs"
	"github.com/postforge/postforge-backend/internal/models"
	"github.com/postforge/postforge-backend/internal/routes"
	"github.com/postforge/postforge-backend/internal/services"
	"github.com/postforge/postforge-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  No .env file found - using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	if !cfg.PublicBaseIsHTTPS() {
		log.Printf("⚠️  PUBLIC_BASE_URL is not HTTPS (%s) - Twilio and Instagram won't fetch media from it", cfg.PublicBaseURL)
	}
	if !cfg.OpenAIConfigured() {
		log.Println("⚠️  OPENAI_API_KEY not set - captions unavailable, enhancement falls back to local filters")
	}
	if !cfg.InstagramConfigured() {
		log.Println("⚠️  Instagram credentials not set - publish commands will fail with a user-facing error")
	}

	// Initialize storage
	var store storage.Store
	if cfg.UseDatabase {
		log.Println("📦 Connecting to PostgreSQL database...")
		database.Connect()

		log.Println("🔄 Running database migrations...")
		if err := database.DB.AutoMigrate(&models.Session{}, &models.PublishedPost{}); err != nil {
			log.Fatal("Failed to migrate database:", err)
		}

		store = storage.NewDatabaseStore(database.DB)
		log.Println("✅ Using PostgreSQL storage")
	} else {
		store = storage.NewMemoryStore()
		log.Println("✅ Using in-memory storage (sessions reset on restart)")
	}

	// Initialize services
	twilioService, err := services.NewTwilioService(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioWhatsAppFrom)
	if err != nil {
		log.Fatal("Failed to initialize Twilio service:", err)
	}
	log.Println("✅ Twilio service initialized")

	graphicComposer, err := composer.New(cfg.OutputDir, cfg.PublicBaseURL, cfg.BrandColor, cfg.BadgeText, cfg.RemoveBgAPIKey)
	if err != nil {
		log.Fatal("Failed to initialize composer:", err)
	}

	enhancedDir := cfg.UploadDir + "-enhanced"
	whatsappService := services.NewWhatsAppService(
		store,
		twilioService,
		services.NewEnhancer(cfg.OpenAIAPIKey, enhancedDir),
		graphicComposer,
		services.NewCaptionService(cfg.OpenAIAPIKey),
		services.NewInstagramService(cfg.IGGraphAPIToken, cfg.IGBusinessAccountID),
		twilioService,
		cfg.UploadDir,
	)
	whatsappHandler := handlers.NewWhatsAppHandler(whatsappService)

	// Start scratch-file cleanup
	cleanupJob := jobs.NewCleanupJob(cfg.UploadDir, enhancedDir)
	cleanupJob.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "PostForge Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	routes.SetupRoutes(app, cfg, store, whatsappHandler)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		cleanupJob.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 PostForge Backend starting on port %s", cfg.Port)
	log.Printf("🌍 Public base URL: %s", cfg.PublicBaseURL)
	log.Printf("📱 WhatsApp sender: %s", cfg.TwilioWhatsAppFrom)
	log.Println("========================================")

	log.Fatal(app.Listen(":" + cfg.Port))
}
