package middleware

import (
	"crypto/hmac"
	"crypto/sha1"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log"
	"sort"

	"github.com/gofiber/fiber/v2"
)

// ValidateTwilioSignature validates that a webhook request is from
// Twilio: HMAC-SHA1 over the full request URL followed by the sorted
// form parameters, base64-encoded, in the X-Twilio-Signature header.
func ValidateTwilioSignature(authToken string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		twilioSignature := c.Get("X-Twilio-Signature")
		if twilioSignature == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing Twilio signature",
			})
		}

		if authToken == "" {
			log.Println("ERROR: TWILIO_AUTH_TOKEN not set")
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Server configuration error",
			})
		}

		formParams := make(map[string]string)
		c.Request().PostArgs().VisitAll(func(key, value []byte) {
			formParams[string(key)] = string(value)
		})

		expected := calculateTwilioSignature(authToken, getFullURL(c), formParams)
		if subtle.ConstantTimeCompare([]byte(twilioSignature), []byte(expected)) != 1 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid signature",
			})
		}

		return c.Next()
	}
}

// getFullURL constructs the full URL for the request
func getFullURL(c *fiber.Ctx) string {
	protocol := "https"
	if c.Protocol() == "http" {
		protocol = "http"
	}
	return fmt.Sprintf("%s://%s%s", protocol, c.Hostname(), c.Path())
}

// calculateTwilioSignature calculates the expected signature
func calculateTwilioSignature(authToken, url string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	data := url
	for _, k := range keys {
		data += k + params[k]
	}

	h := hmac.New(sha1.New, []byte(authToken))
	h.Write([]byte(data))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}
