package handlers

import (
	"context"
	"fmt"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/twilio/twilio-go/twiml"

	"github.com/postforge/postforge-backend/internal/services"
)

// WhatsAppHandler handles WhatsApp webhook requests
type WhatsAppHandler struct {
	whatsappService *services.WhatsAppService
}

// NewWhatsAppHandler creates a new WhatsApp handler
func NewWhatsAppHandler(whatsappService *services.WhatsAppService) *WhatsAppHandler {
	return &WhatsAppHandler{whatsappService: whatsappService}
}

// TwilioWebhookPayload represents an incoming WhatsApp message from Twilio
type TwilioWebhookPayload struct {
	MessageSid        string `form:"MessageSid"`
	AccountSid        string `form:"AccountSid"`
	From              string `form:"From"` // WhatsApp number (whatsapp:+919876543210)
	To                string `form:"To"`
	Body              string `form:"Body"`
	NumMedia          string `form:"NumMedia"`
	MediaUrl0         string `form:"MediaUrl0"`
	MediaContentType0 string `form:"MediaContentType0"`
}

// HandleWebhook processes one inbound message and replies with TwiML.
// The turn's detached follow-up (preview image delivery) is launched
// after the reply is finalized and cannot affect it.
func (h *WhatsAppHandler) HandleWebhook(c *fiber.Ctx) error {
	var payload TwilioWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		log.Printf("Error parsing webhook: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid webhook payload",
		})
	}

	log.Printf("📱 WhatsApp message from %s: %q (media: %s)", payload.From, payload.Body, payload.NumMedia)

	numMedia, _ := strconv.Atoi(payload.NumMedia)
	msg := services.InboundMessage{
		From:             payload.From,
		Body:             payload.Body,
		NumMedia:         numMedia,
		MediaURL:         payload.MediaUrl0,
		MediaContentType: payload.MediaContentType0,
	}

	result, err := h.whatsappService.ProcessMessage(c.Context(), msg)
	if err != nil {
		log.Printf("❌ Turn failed for %s: %v", payload.From, err)
		result = &services.TurnResult{
			Messages: []services.ReplyMessage{{Body: fmt.Sprintf("Error: %v", err)}},
		}
	}

	xml, err := replyTwiML(result.Messages)
	if err != nil {
		return fmt.Errorf("render twiml: %w", err)
	}

	if result.FollowUp != nil {
		followUp := result.FollowUp
		go followUp(context.Background())
	}

	c.Type("xml")
	return c.SendString(xml)
}

// replyTwiML builds the webhook reply envelope. XML escaping of body
// text and media URLs is handled by the twiml library.
func replyTwiML(messages []services.ReplyMessage) (string, error) {
	verbs := make([]twiml.Element, 0, len(messages))
	for _, m := range messages {
		msg := &twiml.MessagingMessage{}
		if m.Body != "" {
			msg.InnerElements = append(msg.InnerElements, &twiml.MessagingBody{Message: m.Body})
		}
		if m.MediaURL != "" {
			msg.InnerElements = append(msg.InnerElements, &twiml.MessagingMedia{Url: m.MediaURL})
		}
		verbs = append(verbs, msg)
	}
	return twiml.Messages(verbs)
}

// TestWebhookPayload is the JSON shape of the development test route.
type TestWebhookPayload struct {
	From    string `json:"from"`
	Message string `json:"message"`
}

// HandleTestWebhook processes test messages without Twilio (for development).
func (h *WhatsAppHandler) HandleTestWebhook(c *fiber.Ctx) error {
	var payload TestWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid test payload",
		})
	}

	log.Printf("🧪 Test webhook received from %s: %s", payload.From, payload.Message)

	result, err := h.whatsappService.ProcessMessage(c.Context(), services.InboundMessage{
		From: payload.From,
		Body: payload.Message,
	})
	if err != nil {
		return c.JSON(fiber.Map{"success": false, "error": err.Error()})
	}

	bodies := make([]string, 0, len(result.Messages))
	for _, m := range result.Messages {
		bodies = append(bodies, m.Body)
	}
	return c.JSON(fiber.Map{
		"success":  true,
		"response": bodies,
	})
}
