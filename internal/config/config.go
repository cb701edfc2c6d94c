package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

// Config holds all process configuration, loaded from environment
// variables (optionally seeded from a .env file in main).
type Config struct {
	Port          string `env:"PORT" envDefault:"8080"`
	PublicBaseURL string `env:"PUBLIC_BASE_URL" envDefault:"http://localhost:8080"`

	// Twilio (required)
	TwilioAccountSID   string `env:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken    string `env:"TWILIO_AUTH_TOKEN"`
	TwilioWhatsAppFrom string `env:"TWILIO_WHATSAPP_FROM"` // e.g. "whatsapp:+14155238886"

	// OpenAI (optional - captions fall back to nothing, enhancement to local filters)
	OpenAIAPIKey string `env:"OPENAI_API_KEY"`

	// Instagram Graph API (optional - publish commands fail with a user-facing error)
	IGGraphAPIToken     string `env:"IG_GRAPH_API_TOKEN"`
	IGBusinessAccountID string `env:"IG_BUSINESS_ACCOUNT_ID"`

	// remove.bg (optional - composer skips the subject cutout without it)
	RemoveBgAPIKey string `env:"REMOVE_BG_API_KEY"`

	// Branding knobs for the composer
	BrandColor string `env:"BRAND_COLOR" envDefault:"#ff3b30"`
	BadgeText  string `env:"BADGE_TEXT" envDefault:"SALE"`

	// Directories
	OutputDir string `env:"OUTPUT_DIR" envDefault:"public/outputs"`
	UploadDir string `env:"UPLOAD_DIR" envDefault:"tmp/uploads"`

	// Storage: in-memory by default, Postgres when enabled
	UseDatabase bool `env:"USE_DATABASE" envDefault:"false"`

	Environment string `env:"ENVIRONMENT" envDefault:"development"`
}

// Load parses the environment into a Config and validates the
// integrations that must be present at startup.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}

	if cfg.TwilioAccountSID == "" || cfg.TwilioAuthToken == "" || cfg.TwilioWhatsAppFrom == "" {
		return nil, fmt.Errorf("missing Twilio credentials (TWILIO_ACCOUNT_SID, TWILIO_AUTH_TOKEN, TWILIO_WHATSAPP_FROM)")
	}

	cfg.PublicBaseURL = strings.TrimRight(cfg.PublicBaseURL, "/")
	return cfg, nil
}

// PublicBaseIsHTTPS reports whether generated media URLs will be
// fetchable by Twilio and Instagram, which both require HTTPS.
func (c *Config) PublicBaseIsHTTPS() bool {
	return strings.HasPrefix(strings.ToLower(c.PublicBaseURL), "https://")
}

// OpenAIConfigured reports whether AI captioning/enhancement is available.
func (c *Config) OpenAIConfigured() bool {
	return c.OpenAIAPIKey != ""
}

// InstagramConfigured reports whether publishing is available.
func (c *Config) InstagramConfigured() bool {
	return c.IGGraphAPIToken != "" && c.IGBusinessAccountID != ""
}
