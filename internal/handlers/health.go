package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/postforge/postforge-backend/internal/config"
	"github.com/postforge/postforge-backend/internal/storage"
)

// HealthHandler reports service and integration status
type HealthHandler struct {
	cfg   *config.Config
	store storage.Store
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(cfg *config.Config, store storage.Store) *HealthHandler {
	return &HealthHandler{cfg: cfg, store: store}
}

// Overview is the verbose root status endpoint.
func (h *HealthHandler) Overview(c *fiber.Ctx) error {
	sessions, _ := h.store.CountSessions()
	published, _ := h.store.CountPublishedPosts()

	return c.JSON(fiber.Map{
		"service": "PostForge Backend API",
		"version": "1.0.0",
		"status":  "healthy",
		"stats": fiber.Map{
			"sessions":        sessions,
			"published_posts": published,
		},
		"integrations": fiber.Map{
			"twilio":    true, // required at startup
			"openai":    h.cfg.OpenAIConfigured(),
			"instagram": h.cfg.InstagramConfigured(),
			"removebg":  h.cfg.RemoveBgAPIKey != "",
		},
		"public_base_https": h.cfg.PublicBaseIsHTTPS(),
	})
}

// Health is the monitoring endpoint.
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "healthy",
		"version": "1.0.0",
	})
}
