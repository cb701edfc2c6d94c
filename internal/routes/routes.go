package routes

import (
	"os"

	"github.com/gofiber/fiber/v2"

	"github.com/postforge/postforge-backend/internal/config"
	"github.com/postforge/postforge-backend/internal/handlers"
	"github.com/postforge/postforge-backend/internal/middleware"
	"github.com/postforge/postforge-backend/internal/storage"
)

// SetupRoutes configures all API routes
func SetupRoutes(app *fiber.App, cfg *config.Config, store storage.Store, whatsappHandler *handlers.WhatsAppHandler) {
	healthHandler := handlers.NewHealthHandler(cfg, store)

	app.Get("/", healthHandler.Overview)
	app.Get("/health", healthHandler.Health)

	// Generated graphics must resolve to absolute HTTPS URLs for both
	// the Instagram Graph API and Twilio's media fetch.
	app.Static("/static/outputs", cfg.OutputDir)

	// ========== WEBHOOK ROUTES ==========
	webhooks := app.Group("/webhook")

	if cfg.Environment == "development" || os.Getenv("DISABLE_WEBHOOK_VALIDATION") == "true" {
		// Development: skip validation for ngrok
		webhooks.Post("/whatsapp", whatsappHandler.HandleWebhook)
	} else {
		webhooks.Post("/whatsapp", middleware.ValidateTwilioSignature(cfg.TwilioAuthToken), whatsappHandler.HandleWebhook)
	}

	// ========== TEST ROUTES (Development Only) ==========
	if cfg.Environment == "development" {
		app.Post("/test/whatsapp", whatsappHandler.HandleTestWebhook)
	}
}
