package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// TwilioService wraps outbound WhatsApp messaging and authenticated
// inbound media downloads.
type TwilioService struct {
	client     *twilio.RestClient
	http       *resty.Client
	accountSID string
	authToken  string
	from       string // "whatsapp:+14155238886"
}

// NewTwilioService creates a new Twilio service instance
func NewTwilioService(accountSID, authToken, whatsappFrom string) (*TwilioService, error) {
	if accountSID == "" || authToken == "" || whatsappFrom == "" {
		return nil, fmt.Errorf("missing Twilio credentials")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})

	return &TwilioService{
		client:     client,
		http:       resty.New().SetTimeout(10 * time.Second),
		accountSID: accountSID,
		authToken:  authToken,
		from:       whatsappFrom,
	}, nil
}

// SendWhatsAppMessage sends a plain text WhatsApp message.
func (t *TwilioService) SendWhatsAppMessage(ctx context.Context, to string, body string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(whatsAppAddress(to))
	params.SetBody(body)

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send whatsapp message: %w", err)
	}

	log.Printf("✅ WhatsApp message sent! SID: %s", *resp.Sid)
	return nil
}

// SendWhatsAppMedia sends a WhatsApp message with an attached media
// URL. Twilio fetches the media asynchronously and silently drops
// unreachable URLs, so the URL is validated as HTTPS and probed for
// reachability before the message is created.
func (t *TwilioService) SendWhatsAppMedia(ctx context.Context, to, body, mediaURL string) error {
	if !strings.HasPrefix(strings.ToLower(mediaURL), "https://") {
		return fmt.Errorf("media URL must be HTTPS: %s", mediaURL)
	}
	if !t.urlReachable(ctx, mediaURL) {
		return fmt.Errorf("media URL not reachable by Twilio: %s", mediaURL)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetFrom(t.from)
	params.SetTo(whatsAppAddress(to))
	params.SetBody(body)
	params.SetMediaUrl([]string{mediaURL})

	resp, err := t.client.Api.CreateMessage(params)
	if err != nil {
		return fmt.Errorf("send whatsapp media: %w", err)
	}

	log.Printf("✅ WhatsApp media sent! SID: %s (%s)", *resp.Sid, body)
	return nil
}

// DownloadMedia fetches inbound webhook media bytes, authenticated
// with the account credentials.
func (t *TwilioService) DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error) {
	resp, err := t.http.R().
		SetContext(ctx).
		SetBasicAuth(t.accountSID, t.authToken).
		Get(mediaURL)
	if err != nil {
		return nil, fmt.Errorf("download media: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("download media: unexpected status %s", resp.Status())
	}
	return resp.Body(), nil
}

// urlReachable probes a URL with HEAD, falling back to a ranged GET
// for hosts that reject HEAD.
func (t *TwilioService) urlReachable(ctx context.Context, url string) bool {
	resp, err := t.http.R().SetContext(ctx).Head(url)
	if err == nil && resp.StatusCode() >= 200 && resp.StatusCode() < 400 {
		return true
	}

	resp, err = t.http.R().
		SetContext(ctx).
		SetHeader("Range", "bytes=0-1023").
		Get(url)
	if err != nil {
		log.Printf("⚠️  Media URL not reachable: %s: %v", url, err)
		return false
	}
	if resp.StatusCode() >= 400 {
		log.Printf("⚠️  Media URL not reachable: %s: status %s", url, resp.Status())
		return false
	}
	return true
}

func whatsAppAddress(to string) string {
	if strings.HasPrefix(to, "whatsapp:") {
		return to
	}
	return "whatsapp:" + to
}
