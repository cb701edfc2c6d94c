package services

import (
	"context"
	"strings"
	"testing"

	"github.com/postforge/postforge-backend/internal/composer"
	"github.com/postforge/postforge-backend/internal/models"
	"github.com/postforge/postforge-backend/internal/storage"
)

type fakeFetcher struct {
	data []byte
}

func (f *fakeFetcher) DownloadMedia(ctx context.Context, url string) ([]byte, error) {
	return f.data, nil
}

type fakeEnhancer struct{}

func (f *fakeEnhancer) Enhance(ctx context.Context, path string) string { return path }

type fakeComposer struct {
	feedURL  string
	storyURL string
	params   []composer.Params
}

func (f *fakeComposer) ComposeFeed(ctx context.Context, p composer.Params) (*composer.Artifact, error) {
	f.params = append(f.params, p)
	return &composer.Artifact{PublicURL: f.feedURL}, nil
}

func (f *fakeComposer) ComposeStory(ctx context.Context, p composer.Params) (*composer.Artifact, error) {
	return &composer.Artifact{PublicURL: f.storyURL}, nil
}

type fakeCaptions struct {
	raw string
}

func (f *fakeCaptions) Generate(ctx context.Context, profile, itemNote string) (string, error) {
	return f.raw, nil
}

type publishCall struct {
	imageURL string
	caption  string
}

type fakePublisher struct {
	feedCalls  []publishCall
	storyCalls []string
	err        error
}

func (f *fakePublisher) PublishFeed(ctx context.Context, imageURL, caption string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.feedCalls = append(f.feedCalls, publishCall{imageURL, caption})
	return "17890000000000001", nil
}

func (f *fakePublisher) PublishStory(ctx context.Context, imageURL string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.storyCalls = append(f.storyCalls, imageURL)
	return "17890000000000002", nil
}

type fakeSender struct {
	texts []string
	media []string
}

func (f *fakeSender) SendWhatsAppMessage(ctx context.Context, to, body string) error {
	f.texts = append(f.texts, body)
	return nil
}

func (f *fakeSender) SendWhatsAppMedia(ctx context.Context, to, body, mediaURL string) error {
	f.media = append(f.media, mediaURL)
	return nil
}

type testRig struct {
	svc       *WhatsAppService
	store     *storage.MemoryStore
	publisher *fakePublisher
	sender    *fakeSender
	composer  *fakeComposer
}

func newTestRig(t *testing.T) *testRig {
	t.Helper()
	store := storage.NewMemoryStore()
	publisher := &fakePublisher{}
	sender := &fakeSender{}
	comp := &fakeComposer{
		feedURL:  "https://example.com/static/outputs/feed.jpg",
		storyURL: "https://example.com/static/outputs/story.jpg",
	}
	svc := NewWhatsAppService(
		store,
		&fakeFetcher{data: []byte("jpeg-bytes")},
		&fakeEnhancer{},
		comp,
		&fakeCaptions{raw: "1. \"Step into summer\"\n2. Fresh kicks for the weekend"},
		publisher,
		sender,
		t.TempDir(),
	)
	svc.sendDelay = 0
	return &testRig{svc: svc, store: store, publisher: publisher, sender: sender, composer: comp}
}

func (r *testRig) process(t *testing.T, from, body string) *TurnResult {
	t.Helper()
	result, err := r.svc.ProcessMessage(context.Background(), InboundMessage{From: from, Body: body})
	if err != nil {
		t.Fatalf("ProcessMessage(%q): %v", body, err)
	}
	return result
}

func (r *testRig) session(t *testing.T, phone string) *models.Session {
	t.Helper()
	s, err := r.store.GetOrCreateSession(phone)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	return s
}

func replyBody(t *testing.T, result *TurnResult) string {
	t.Helper()
	if len(result.Messages) != 1 {
		t.Fatalf("len(messages) = %d, want 1", len(result.Messages))
	}
	return result.Messages[0].Body
}

func TestProfileAndStyleCommands(t *testing.T) {
	rig := newTestRig(t)

	rig.process(t, "whatsapp:+1555", "profile: Acme Bakery")
	rig.process(t, "whatsapp:+1555", "style: bold")

	s := rig.session(t, "+1555")
	if s.Profile != "Acme Bakery" {
		t.Errorf("profile = %q, want %q", s.Profile, "Acme Bakery")
	}
	if s.Style != models.StyleBold {
		t.Errorf("style = %q, want %q", s.Style, models.StyleBold)
	}

	result := rig.process(t, "whatsapp:+1555", "style: neon")
	if !strings.Contains(replyBody(t, result), "minimal | bold | pastel") {
		t.Errorf("invalid style reply = %q", replyBody(t, result))
	}
	if s.Style != models.StyleBold {
		t.Errorf("invalid style mutated session: %q", s.Style)
	}
}

func TestProfileClearsStaleCaptions(t *testing.T) {
	rig := newTestRig(t)
	s := rig.session(t, "+1555")
	idx := 0
	s.CaptionOptions = []string{"A"}
	s.SelectedCaption = &idx

	rig.process(t, "whatsapp:+1555", "profile: New Biz")

	if len(s.CaptionOptions) != 0 || s.SelectedCaption != nil {
		t.Errorf("profile change kept stale caption state: %+v", s)
	}
}

func TestNumericSelectionBeforeAnyPhotoFallsThrough(t *testing.T) {
	rig := newTestRig(t)

	result := rig.process(t, "whatsapp:+1555", "2")

	if got := replyBody(t, result); got != helpText {
		t.Errorf("reply = %q, want help text", got)
	}
	if len(rig.publisher.feedCalls) != 0 {
		t.Errorf("publisher called %d times, want 0", len(rig.publisher.feedCalls))
	}
}

func seedPreview(t *testing.T, rig *testRig, phone string) *models.Session {
	t.Helper()
	s := rig.session(t, phone)
	s.SetPreview(&models.Preview{
		FeedImageURL:  "https://example.com/static/outputs/feed.jpg",
		StoryImageURL: "https://example.com/static/outputs/story.jpg",
	}, []string{"A", "B", "C"})
	return s
}

func TestNumericSelectionOutOfRange(t *testing.T) {
	rig := newTestRig(t)
	s := seedPreview(t, rig, "+1555")

	result := rig.process(t, "whatsapp:+1555", "4")

	if !strings.Contains(replyBody(t, result), "between 1 and 3") {
		t.Errorf("reply = %q, want range error", replyBody(t, result))
	}
	if s.SelectedCaption != nil {
		t.Errorf("out-of-range selection mutated session")
	}
	if len(rig.publisher.feedCalls) != 0 {
		t.Errorf("publisher called %d times, want 0", len(rig.publisher.feedCalls))
	}
}

func TestNumericSelectionPublishes(t *testing.T) {
	rig := newTestRig(t)
	s := seedPreview(t, rig, "+1555")

	result := rig.process(t, "whatsapp:+1555", "2")

	if s.SelectedCaption == nil || *s.SelectedCaption != 1 {
		t.Fatalf("SelectedCaption = %v, want 1", s.SelectedCaption)
	}
	if s.Preview.Caption != "B" {
		t.Errorf("preview caption = %q, want %q", s.Preview.Caption, "B")
	}
	if len(rig.publisher.feedCalls) != 1 {
		t.Fatalf("publisher called %d times, want 1", len(rig.publisher.feedCalls))
	}
	if rig.publisher.feedCalls[0].caption != "B" {
		t.Errorf("published caption = %q, want %q", rig.publisher.feedCalls[0].caption, "B")
	}
	body := replyBody(t, result)
	if !strings.Contains(body, "#2") || !strings.Contains(body, "B") {
		t.Errorf("success reply = %q, want index and caption", body)
	}

	count, _ := rig.store.CountPublishedPosts()
	if count != 1 {
		t.Errorf("published posts recorded = %d, want 1", count)
	}
}

func TestApproveWithoutPreview(t *testing.T) {
	rig := newTestRig(t)

	result := rig.process(t, "whatsapp:+1555", "approve")

	if !strings.Contains(replyBody(t, result), "No preview") {
		t.Errorf("reply = %q, want no-preview error", replyBody(t, result))
	}
	if len(rig.publisher.feedCalls) != 0 {
		t.Errorf("publisher called without preview")
	}
}

func TestApproveFallsBackToFirstOption(t *testing.T) {
	rig := newTestRig(t)
	seedPreview(t, rig, "+1555")

	rig.process(t, "whatsapp:+1555", "approve")

	if len(rig.publisher.feedCalls) != 1 {
		t.Fatalf("publisher called %d times, want 1", len(rig.publisher.feedCalls))
	}
	if rig.publisher.feedCalls[0].caption != "A" {
		t.Errorf("published caption = %q, want first option %q", rig.publisher.feedCalls[0].caption, "A")
	}
}

func TestApproveStoryWithoutStoryPreview(t *testing.T) {
	rig := newTestRig(t)
	s := rig.session(t, "+1555")
	s.SetPreview(&models.Preview{FeedImageURL: "https://example.com/feed.jpg"}, []string{"A"})

	result := rig.process(t, "whatsapp:+1555", "approve story")

	if !strings.Contains(replyBody(t, result), "No story preview") {
		t.Errorf("reply = %q, want no-story-preview error", replyBody(t, result))
	}
	if len(rig.publisher.storyCalls) != 0 {
		t.Errorf("story publisher called %d times, want 0", len(rig.publisher.storyCalls))
	}
}

func TestApproveStoryPublishes(t *testing.T) {
	rig := newTestRig(t)
	seedPreview(t, rig, "+1555")

	rig.process(t, "whatsapp:+1555", "approve story")

	if len(rig.publisher.storyCalls) != 1 {
		t.Fatalf("story publisher called %d times, want 1", len(rig.publisher.storyCalls))
	}
}

func TestEditCaption(t *testing.T) {
	rig := newTestRig(t)

	result := rig.process(t, "whatsapp:+1555", "edit caption: Hand-made, small-batch")
	if !strings.Contains(replyBody(t, result), "No preview yet") {
		t.Errorf("reply = %q, want no-preview error", replyBody(t, result))
	}

	s := seedPreview(t, rig, "+1555")
	idx := 2
	s.SelectedCaption = &idx

	result = rig.process(t, "whatsapp:+1555", "edit caption: Hand-made, small-batch")

	if s.Preview.Caption != "Hand-made, small-batch" {
		t.Errorf("caption = %q, want edited text", s.Preview.Caption)
	}
	if s.SelectedCaption != nil {
		t.Errorf("edit kept stale selection")
	}
	if !strings.Contains(replyBody(t, result), "Hand-made, small-batch") {
		t.Errorf("reply does not echo caption: %q", replyBody(t, result))
	}
	if result.FollowUp == nil {
		t.Fatalf("edit turn has no follow-up image resend")
	}
	result.FollowUp(context.Background())
	if len(rig.sender.media) != 2 {
		t.Errorf("follow-up sent %d media messages, want 2", len(rig.sender.media))
	}
}

func TestPhotoTurnEndToEnd(t *testing.T) {
	rig := newTestRig(t)

	result, err := rig.svc.ProcessMessage(context.Background(), InboundMessage{
		From:             "whatsapp:+1555",
		Body:             "Red Sneakers",
		NumMedia:         1,
		MediaURL:         "https://api.twilio.com/media/ME123",
		MediaContentType: "image/jpeg",
	})
	if err != nil {
		t.Fatalf("photo turn: %v", err)
	}

	s := rig.session(t, "+1555")
	if s.Preview == nil || s.Preview.FeedImageURL == "" || s.Preview.StoryImageURL == "" {
		t.Fatalf("preview not populated: %+v", s.Preview)
	}
	if len(s.CaptionOptions) != 2 {
		t.Fatalf("caption options = %v, want 2 entries", s.CaptionOptions)
	}
	if s.Preview.Caption != "Step into summer" {
		t.Errorf("preview caption = %q, want first option", s.Preview.Caption)
	}
	if s.SelectedCaption != nil {
		t.Errorf("new photo turn kept a selection")
	}

	body := replyBody(t, result)
	if !strings.Contains(body, "Reply with a number") {
		t.Errorf("reply missing instructions: %q", body)
	}
	if !strings.Contains(body, "1. Step into summer") {
		t.Errorf("reply missing numbered options: %q", body)
	}

	// Composer received the session defaults for an empty profile.
	if len(rig.composer.params) == 0 {
		t.Fatalf("composer never called")
	}
	if rig.composer.params[0].Brand != defaultBrand {
		t.Errorf("brand = %q, want default", rig.composer.params[0].Brand)
	}
	if rig.composer.params[0].Headline != "Red Sneakers" {
		t.Errorf("headline = %q, want message body", rig.composer.params[0].Headline)
	}

	if result.FollowUp == nil {
		t.Fatalf("photo turn has no follow-up")
	}
	result.FollowUp(context.Background())
	if len(rig.sender.media) != 2 {
		t.Errorf("follow-up sent %d media messages, want 2", len(rig.sender.media))
	}
}

func TestPublishFailureIsCaught(t *testing.T) {
	rig := newTestRig(t)
	seedPreview(t, rig, "+1555")
	rig.publisher.err = context.DeadlineExceeded

	result := rig.process(t, "whatsapp:+1555", "approve")

	if !strings.Contains(replyBody(t, result), "Publish failed") {
		t.Errorf("reply = %q, want publish error surfaced", replyBody(t, result))
	}
}
