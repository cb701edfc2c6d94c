package services

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const enhancePrompt = `Enhance the product photo: brighten slightly, improve contrast and sharpness, tasteful saturation boost, keep realistic.`

// EnhanceStrategy is one way of producing an improved version of a
// photo. Strategies are tried in order; the first success wins.
type EnhanceStrategy interface {
	Name() string
	Enhance(ctx context.Context, inputPath string) (string, error)
}

// Enhancer runs an ordered chain of enhancement strategies. The chain
// always terminates with an identity passthrough, so Enhance cannot
// fail a photo turn.
type Enhancer struct {
	strategies []EnhanceStrategy
}

// NewEnhancer builds the default chain: OpenAI image edit (when a key
// is configured), then local filter adjustments, then passthrough.
func NewEnhancer(openAIKey, tmpDir string) *Enhancer {
	var strategies []EnhanceStrategy
	if openAIKey != "" {
		strategies = append(strategies, &openAIEnhance{
			client: openai.NewClient(option.WithAPIKey(openAIKey)),
			tmpDir: tmpDir,
		})
	}
	strategies = append(strategies, &localEnhance{tmpDir: tmpDir})
	return &Enhancer{strategies: strategies}
}

// Enhance returns the path of the best enhanced version of the input
// image it could produce, falling back to the original path.
func (e *Enhancer) Enhance(ctx context.Context, inputPath string) string {
	for _, s := range e.strategies {
		out, err := s.Enhance(ctx, inputPath)
		if err != nil {
			log.Printf("⚠️  Enhancement via %s failed, trying next: %v", s.Name(), err)
			continue
		}
		return out
	}
	return inputPath
}

// openAIEnhance retouches the photo through the OpenAI image edit API.
type openAIEnhance struct {
	client openai.Client
	tmpDir string
}

func (s *openAIEnhance) Name() string { return "openai" }

func (s *openAIEnhance) Enhance(ctx context.Context, inputPath string) (string, error) {
	f, err := os.Open(inputPath)
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}
	defer f.Close()

	resp, err := s.client.Images.Edit(ctx, openai.ImageEditParams{
		Image:  openai.ImageEditParamsImageUnion{OfFile: openai.File(f, filepath.Base(inputPath), "image/jpeg")},
		Prompt: enhancePrompt,
		Model:  openai.ImageModelGPTImage1,
	})
	if err != nil {
		return "", fmt.Errorf("image edit: %w", err)
	}
	if len(resp.Data) == 0 || resp.Data[0].B64JSON == "" {
		return "", fmt.Errorf("image edit: no image in response")
	}

	buf, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		return "", fmt.Errorf("decode image edit result: %w", err)
	}

	if err := os.MkdirAll(s.tmpDir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(s.tmpDir, uuid.NewString()+".png")
	if err := os.WriteFile(out, buf, 0o644); err != nil {
		return "", fmt.Errorf("write enhanced image: %w", err)
	}
	return out, nil
}

// localEnhance applies the same deterministic filter adjustments every
// time: gentle brightness, contrast and saturation lift plus a mild
// sharpen.
type localEnhance struct {
	tmpDir string
}

func (s *localEnhance) Name() string { return "local" }

func (s *localEnhance) Enhance(ctx context.Context, inputPath string) (string, error) {
	img, err := imaging.Open(inputPath, imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("open input: %w", err)
	}

	img = imaging.AdjustBrightness(img, 5)
	img = imaging.AdjustContrast(img, 5)
	img = imaging.AdjustSaturation(img, 12)
	img = imaging.Sharpen(img, 0.8)

	if err := os.MkdirAll(s.tmpDir, 0o755); err != nil {
		return "", err
	}
	out := filepath.Join(s.tmpDir, uuid.NewString()+".jpg")
	if err := imaging.Save(img, out, imaging.JPEGQuality(92)); err != nil {
		return "", fmt.Errorf("write enhanced image: %w", err)
	}
	return out, nil
}
