package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

// MaxCaptionOptions caps how many numbered captions one turn can offer.
const MaxCaptionOptions = 20

const captionSystemPrompt = `You are a social media copywriter. Write short Instagram captions.`

// CaptionService generates caption options for a product photo turn.
type CaptionService struct {
	client openai.Client
	model  openai.ChatModel
}

// NewCaptionService creates a caption service backed by the OpenAI
// chat completions API.
func NewCaptionService(apiKey string) *CaptionService {
	return &CaptionService{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}
}

// Generate returns raw caption text for the given business profile and
// item note, expected (but not guaranteed) to be a numbered list.
func (s *CaptionService) Generate(ctx context.Context, profile, itemNote string) (string, error) {
	user := fmt.Sprintf("Business profile: %s\nItem: %s\nGive 3 numbered caption options.", profile, itemNote)

	resp, err := s.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: s.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(captionSystemPrompt),
			openai.UserMessage(user),
		},
		Temperature: openai.Float(0.8),
	})
	if err != nil {
		return "", fmt.Errorf("caption generation: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("caption generation: empty response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

var captionLineRe = regexp.MustCompile(`^\s*\d+[.)]\s*(.+?)\s*$`)

// ParseCaptionOptions extracts numbered caption entries from raw
// generated text. Non-matching lines are discarded and the result is
// capped at MaxCaptionOptions. Text with no numbered entries becomes a
// single-element list; empty text yields an empty list.
func ParseCaptionOptions(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}

	var options []string
	for _, line := range strings.Split(raw, "\n") {
		m := captionLineRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		text := strings.Trim(m[1], `"'“”`)
		if text == "" {
			continue
		}
		options = append(options, text)
		if len(options) == MaxCaptionOptions {
			break
		}
	}

	if len(options) == 0 {
		return []string{raw}
	}
	return options
}
