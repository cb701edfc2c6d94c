package services

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const graphAPIBase = "https://graph.facebook.com/v20.0"

// InstagramService publishes images to an Instagram business account
// through the Graph API. Both publish calls are two-phase at the
// protocol level: create a media container, then publish it.
type InstagramService struct {
	http      *resty.Client
	token     string
	accountID string
}

// NewInstagramService creates an Instagram publisher. Publishing fails
// at call time with a user-facing error when credentials are missing.
func NewInstagramService(token, accountID string) *InstagramService {
	return &InstagramService{
		http:      resty.New().SetTimeout(30 * time.Second),
		token:     token,
		accountID: accountID,
	}
}

type igResponse struct {
	ID    string `json:"id"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// PublishFeed publishes a feed photo post and returns the published
// media id. The image must be publicly fetchable over HTTPS; the Graph
// API downloads it itself.
func (s *InstagramService) PublishFeed(ctx context.Context, imageURL, caption string) (string, error) {
	creationID, err := s.createContainer(ctx, map[string]string{
		"image_url": imageURL,
		"caption":   caption,
	})
	if err != nil {
		return "", err
	}
	return s.publishContainer(ctx, creationID)
}

// PublishStory publishes a story. Stories ignore captions; text has to
// be part of the image itself.
func (s *InstagramService) PublishStory(ctx context.Context, imageURL string) (string, error) {
	creationID, err := s.createContainer(ctx, map[string]string{
		"media_type": "STORIES",
		"image_url":  imageURL,
	})
	if err != nil {
		return "", err
	}
	return s.publishContainer(ctx, creationID)
}

func (s *InstagramService) createContainer(ctx context.Context, params map[string]string) (string, error) {
	if s.token == "" || s.accountID == "" {
		return "", fmt.Errorf("instagram publishing not configured (IG_GRAPH_API_TOKEN / IG_BUSINESS_ACCOUNT_ID)")
	}

	params["access_token"] = s.token

	var result igResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("%s/%s/media", graphAPIBase, s.accountID))
	if err != nil {
		return "", fmt.Errorf("create media container: %w", err)
	}
	if resp.IsError() || result.ID == "" {
		return "", fmt.Errorf("create media container: %s", igErrorDetail(resp, &result))
	}
	return result.ID, nil
}

func (s *InstagramService) publishContainer(ctx context.Context, creationID string) (string, error) {
	var result igResponse
	resp, err := s.http.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"creation_id":  creationID,
			"access_token": s.token,
		}).
		SetResult(&result).
		SetError(&result).
		Post(fmt.Sprintf("%s/%s/media_publish", graphAPIBase, s.accountID))
	if err != nil {
		return "", fmt.Errorf("publish media container: %w", err)
	}
	if resp.IsError() || result.ID == "" {
		return "", fmt.Errorf("publish media container: %s", igErrorDetail(resp, &result))
	}
	return result.ID, nil
}

func igErrorDetail(resp *resty.Response, result *igResponse) string {
	if result.Error != nil && result.Error.Message != "" {
		return fmt.Sprintf("%s (code %d)", result.Error.Message, result.Error.Code)
	}
	return fmt.Sprintf("unexpected response %s", resp.Status())
}
