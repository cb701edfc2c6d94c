package services

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/postforge/postforge-backend/internal/composer"
	"github.com/postforge/postforge-backend/internal/models"
	"github.com/postforge/postforge-backend/internal/storage"
)

// Defaults used when the sender has not set a profile yet.
const (
	defaultBrand    = "My Business"
	defaultHeadline = "New Arrival"
	defaultProfile  = "Small business"
)

const helpText = `Send "profile: <your business>" and then a product photo!`

// InboundMessage is one webhook delivery, already form-decoded.
type InboundMessage struct {
	From             string
	Body             string
	NumMedia         int
	MediaURL         string
	MediaContentType string
}

// ReplyMessage is one part of the synchronous TwiML reply.
type ReplyMessage struct {
	Body     string
	MediaURL string
}

// TurnResult is the outcome of one turn: the synchronous reply plus an
// optional detached follow-up. The follow-up runs after the reply is
// finalized, its failures are logged and never surface to the sender.
type TurnResult struct {
	Messages []ReplyMessage
	FollowUp func(ctx context.Context)
}

// MediaFetcher downloads inbound webhook media.
type MediaFetcher interface {
	DownloadMedia(ctx context.Context, mediaURL string) ([]byte, error)
}

// ImageEnhancer produces an improved version of a photo; it can only
// degrade to the original, never fail.
type ImageEnhancer interface {
	Enhance(ctx context.Context, inputPath string) string
}

// GraphicComposer renders the feed and story graphics.
type GraphicComposer interface {
	ComposeFeed(ctx context.Context, p composer.Params) (*composer.Artifact, error)
	ComposeStory(ctx context.Context, p composer.Params) (*composer.Artifact, error)
}

// CaptionGenerator produces raw caption text for a photo turn.
type CaptionGenerator interface {
	Generate(ctx context.Context, profile, itemNote string) (string, error)
}

// Publisher publishes finished graphics to the connected account.
type Publisher interface {
	PublishFeed(ctx context.Context, imageURL, caption string) (string, error)
	PublishStory(ctx context.Context, imageURL string) (string, error)
}

// MediaSender delivers out-of-band messages through the provider's
// REST API, outside the webhook reply.
type MediaSender interface {
	SendWhatsAppMessage(ctx context.Context, to, body string) error
	SendWhatsAppMedia(ctx context.Context, to, body, mediaURL string) error
}

// WhatsAppService is the conversation dispatcher: it classifies each
// inbound message, mutates the sender's session and drives the
// fetch → enhance → compose → caption → publish pipeline.
type WhatsAppService struct {
	store     storage.Store
	fetcher   MediaFetcher
	enhancer  ImageEnhancer
	composer  GraphicComposer
	captions  CaptionGenerator
	publisher Publisher
	sender    MediaSender
	uploadDir string
	sendDelay time.Duration
}

// NewWhatsAppService creates the dispatcher.
func NewWhatsAppService(
	store storage.Store,
	fetcher MediaFetcher,
	enhancer ImageEnhancer,
	graphics GraphicComposer,
	captions CaptionGenerator,
	publisher Publisher,
	sender MediaSender,
	uploadDir string,
) *WhatsAppService {
	return &WhatsAppService{
		store:     store,
		fetcher:   fetcher,
		enhancer:  enhancer,
		composer:  graphics,
		captions:  captions,
		publisher: publisher,
		sender:    sender,
		uploadDir: uploadDir,
		sendDelay: 600 * time.Millisecond,
	}
}

// ProcessMessage runs one turn. Guards are evaluated in priority
// order; a numeric selection without a preview falls through to the
// photo check and then the generic help reply.
func (w *WhatsAppService) ProcessMessage(ctx context.Context, msg InboundMessage) (*TurnResult, error) {
	phone := strings.TrimPrefix(msg.From, "whatsapp:")

	session, err := w.store.GetOrCreateSession(phone)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}

	cmd := ParseCommand(msg.Body)
	switch cmd.Kind {
	case CmdSetProfile:
		return w.handleSetProfile(session, cmd.Text)
	case CmdSelectCaption:
		if session.Preview != nil && len(session.CaptionOptions) > 0 {
			return w.handleSelectCaption(ctx, session, cmd.N)
		}
	case CmdApprove:
		return w.handleApprove(ctx, session)
	case CmdApproveStory:
		return w.handleApproveStory(ctx, session)
	case CmdEditCaption:
		return w.handleEditCaption(session, cmd.Text)
	case CmdSetStyle:
		return w.handleSetStyle(session, cmd.Text)
	}

	if msg.NumMedia > 0 && strings.HasPrefix(msg.MediaContentType, "image/") {
		return w.handlePhoto(ctx, session, msg)
	}

	return textReply(helpText), nil
}

func (w *WhatsAppService) handleSetProfile(session *models.Session, profile string) (*TurnResult, error) {
	session.Profile = profile
	session.ClearCaptions()
	if err := w.store.UpdateSession(session); err != nil {
		return nil, err
	}
	return textReply("✅ Profile saved. Send me a product photo!"), nil
}

func (w *WhatsAppService) handleSetStyle(session *models.Session, style string) (*TurnResult, error) {
	if !models.ValidStyle(style) {
		return textReply("Unknown style. Use one of: minimal | bold | pastel"), nil
	}
	session.Style = style
	if err := w.store.UpdateSession(session); err != nil {
		return nil, err
	}
	return textReply(fmt.Sprintf("Style set to: %s. Send a product photo to generate a new preview.", style)), nil
}

func (w *WhatsAppService) handleSelectCaption(ctx context.Context, session *models.Session, n int) (*TurnResult, error) {
	idx := n - 1
	if idx < 0 || idx >= len(session.CaptionOptions) {
		return textReply(fmt.Sprintf("Pick a number between 1 and %d.", len(session.CaptionOptions))), nil
	}

	chosen := session.CaptionOptions[idx]
	session.Preview.Caption = chosen
	session.SelectedCaption = &idx
	if err := w.store.UpdateSession(session); err != nil {
		return nil, err
	}

	mediaID, err := w.publisher.PublishFeed(ctx, session.Preview.FeedImageURL, chosen)
	if err != nil {
		log.Printf("❌ Feed publish failed for %s: %v", session.PhoneNumber, err)
		return textReply(fmt.Sprintf("❌ Publish failed: %v", err)), nil
	}
	w.recordPublish(session.PhoneNumber, mediaID, models.PostKindFeed, session.Preview.FeedImageURL, chosen)

	return textReply(fmt.Sprintf("✅ Published the Feed post with caption #%d:\n\n%s", n, chosen)), nil
}

func (w *WhatsAppService) handleApprove(ctx context.Context, session *models.Session) (*TurnResult, error) {
	if session.Preview == nil || session.Preview.FeedImageURL == "" {
		return textReply("No preview available yet. Send a product photo first."), nil
	}

	caption := session.Preview.Caption
	if caption == "" && len(session.CaptionOptions) > 0 {
		caption = session.CaptionOptions[0]
	}

	mediaID, err := w.publisher.PublishFeed(ctx, session.Preview.FeedImageURL, caption)
	if err != nil {
		log.Printf("❌ Feed publish failed for %s: %v", session.PhoneNumber, err)
		return textReply(fmt.Sprintf("❌ Publish failed: %v", err)), nil
	}
	w.recordPublish(session.PhoneNumber, mediaID, models.PostKindFeed, session.Preview.FeedImageURL, caption)

	return textReply("✅ Published the Feed post to Instagram!"), nil
}

func (w *WhatsAppService) handleApproveStory(ctx context.Context, session *models.Session) (*TurnResult, error) {
	if session.Preview == nil || session.Preview.StoryImageURL == "" {
		return textReply("No story preview yet. Send a product photo first."), nil
	}

	mediaID, err := w.publisher.PublishStory(ctx, session.Preview.StoryImageURL)
	if err != nil {
		log.Printf("❌ Story publish failed for %s: %v", session.PhoneNumber, err)
		return textReply(fmt.Sprintf(
			"❌ Story publish failed: %v\n\nThings to check:\n"+
				"- The Instagram account is a Business account\n"+
				"- The access token has the instagram_content_publish scope\n"+
				"- The image URL is public HTTPS and reachable\n"+
				"- The image is 1080x1920 JPEG", err)), nil
	}
	w.recordPublish(session.PhoneNumber, mediaID, models.PostKindStory, session.Preview.StoryImageURL, "")

	return textReply("✅ Published the Story to Instagram!"), nil
}

func (w *WhatsAppService) handleEditCaption(session *models.Session, caption string) (*TurnResult, error) {
	if session.Preview == nil {
		return textReply("No preview yet. Send a product photo first."), nil
	}

	session.Preview.Caption = caption
	session.SelectedCaption = nil
	if err := w.store.UpdateSession(session); err != nil {
		return nil, err
	}

	result := textReply(fmt.Sprintf(
		"Updated caption:\n\n%s\n\nReply \"approve\" to publish the Feed post, or pick a different option by number.",
		caption))
	result.FollowUp = w.sendPreviewImages(session.PhoneNumber, session.Preview.FeedImageURL, session.Preview.StoryImageURL)
	return result, nil
}

func (w *WhatsAppService) handlePhoto(ctx context.Context, session *models.Session, msg InboundMessage) (*TurnResult, error) {
	raw, err := w.fetcher.DownloadMedia(ctx, msg.MediaURL)
	if err != nil {
		return nil, fmt.Errorf("fetch photo: %w", err)
	}

	originalPath, err := w.saveUpload(raw)
	if err != nil {
		return nil, fmt.Errorf("save photo: %w", err)
	}

	enhancedPath := w.enhancer.Enhance(ctx, originalPath)

	brand := session.Profile
	if brand == "" {
		brand = defaultBrand
	}
	headline := strings.TrimSpace(msg.Body)
	if headline == "" {
		headline = defaultHeadline
	}
	params := composer.Params{
		SourcePath: enhancedPath,
		Brand:      brand,
		Headline:   headline,
		Style:      session.Style,
	}

	// Feed and story composition are independent; run them together.
	var feed, story *composer.Artifact
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		feed, err = w.composer.ComposeFeed(gctx, params)
		return err
	})
	g.Go(func() error {
		var err error
		story, err = w.composer.ComposeStory(gctx, params)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("compose graphics: %w", err)
	}

	profile := session.Profile
	if profile == "" {
		profile = defaultProfile
	}
	rawCaptions, err := w.captions.Generate(ctx, profile, msg.Body)
	if err != nil {
		return nil, fmt.Errorf("generate captions: %w", err)
	}
	options := ParseCaptionOptions(rawCaptions)

	firstCaption := ""
	if len(options) > 0 {
		firstCaption = options[0]
	}
	session.SetPreview(&models.Preview{
		Caption:       firstCaption,
		FeedImageURL:  feed.PublicURL,
		StoryImageURL: story.PublicURL,
	}, options)
	if err := w.store.UpdateSession(session); err != nil {
		return nil, err
	}

	result := textReply(captionListReply(options))
	result.FollowUp = w.sendPreviewImages(session.PhoneNumber, feed.PublicURL, story.PublicURL)
	return result, nil
}

func captionListReply(options []string) string {
	var b strings.Builder
	b.WriteString("Here are your caption options:\n\n")
	for i, opt := range options {
		fmt.Fprintf(&b, "%d. %s\n", i+1, opt)
	}
	b.WriteString("\nReply with a number to publish the Feed post with that caption.\n")
	b.WriteString("You can also:\n")
	b.WriteString(`- "approve" or "approve story"` + "\n")
	b.WriteString(`- "edit caption: <text>"` + "\n")
	b.WriteString(`- "style: minimal | bold | pastel"`)
	return b.String()
}

// sendPreviewImages returns the detached follow-up that delivers both
// generated graphics through the REST API, spaced apart to avoid
// provider-side ordering issues. Failures degrade to plain links and
// are otherwise only logged.
func (w *WhatsAppService) sendPreviewImages(to, feedURL, storyURL string) func(ctx context.Context) {
	return func(ctx context.Context) {
		send := func() error {
			if feedURL != "" {
				if err := w.sender.SendWhatsAppMedia(ctx, to, "Feed Post (4:5)", feedURL); err != nil {
					return err
				}
				time.Sleep(w.sendDelay)
			}
			if storyURL != "" {
				if err := w.sender.SendWhatsAppMedia(ctx, to, "Story (9:16)", storyURL); err != nil {
					return err
				}
			}
			return nil
		}

		if err := send(); err != nil {
			log.Printf("❌ Sending preview images to %s failed: %v", to, err)
			fallback := fmt.Sprintf(
				"I couldn't attach images automatically. You can view them here:\nFeed: %s\nStory: %s",
				feedURL, storyURL)
			if err := w.sender.SendWhatsAppMessage(ctx, to, fallback); err != nil {
				log.Printf("❌ Sending preview links to %s failed: %v", to, err)
			}
		}
	}
}

func (w *WhatsAppService) recordPublish(phone, mediaID, kind, imageURL, caption string) {
	err := w.store.SavePublishedPost(&models.PublishedPost{
		PhoneNumber: phone,
		MediaID:     mediaID,
		Kind:        kind,
		ImageURL:    imageURL,
		Caption:     caption,
	})
	if err != nil {
		log.Printf("⚠️  Could not record published post for %s: %v", phone, err)
	}
}

func (w *WhatsAppService) saveUpload(data []byte) (string, error) {
	if err := os.MkdirAll(w.uploadDir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(w.uploadDir, uuid.NewString()+".jpg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func textReply(body string) *TurnResult {
	return &TurnResult{Messages: []ReplyMessage{{Body: body}}}
}
