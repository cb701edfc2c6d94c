// Package composer renders branded social graphics from a product
// photo: a 1080x1350 feed post and a 1080x1920 story. Source imagery
// is placed with an aspect-preserving contain fit over a style-driven
// background, with a rotated accent badge and a translucent info panel.
package composer

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"log"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"

	"github.com/postforge/postforge-backend/internal/models"
)

const removeBgEndpoint = "https://api.remove.bg/v1.0/removebg"

// Params describe one composition request.
type Params struct {
	SourcePath string
	Brand      string
	Headline   string
	Subline    string
	Style      string
}

// Artifact is a rendered graphic written under the public outputs dir.
type Artifact struct {
	Path      string
	PublicURL string
}

// Composer renders feed and story graphics.
type Composer struct {
	outputDir     string
	publicBaseURL string
	brandColor    color.Color
	badgeText     string
	removeBgKey   string
	http          *resty.Client

	bold    *sfnt.Font
	regular *sfnt.Font
}

// New creates a composer. The remove.bg key is optional; without it
// the subject cutout step is skipped and the photo is used as-is.
func New(outputDir, publicBaseURL, brandColorHex, badgeText, removeBgKey string) (*Composer, error) {
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	bold, err := opentype.Parse(gobold.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse bold font: %w", err)
	}
	regular, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse regular font: %w", err)
	}

	return &Composer{
		outputDir:     outputDir,
		publicBaseURL: publicBaseURL,
		brandColor:    parseHexColor(brandColorHex, color.RGBA{R: 0xff, G: 0x3b, B: 0x30, A: 0xff}),
		badgeText:     badgeText,
		removeBgKey:   removeBgKey,
		http:          resty.New().SetTimeout(30 * time.Second),
		bold:          bold,
		regular:       regular,
	}, nil
}

// ComposeFeed renders the 4:5 feed graphic.
func (c *Composer) ComposeFeed(ctx context.Context, p Params) (*Artifact, error) {
	return c.render(ctx, p, layout{
		w: 1080, h: 1350,
		box:        image.Rect(100, 100, 1080-100, 1350-420),
		badgeX:     1080 - 560,
		badgeY:     80,
		badgeAngle: -math.Pi / 12,
		scale:      1.0,
	})
}

// ComposeStory renders the 9:16 story graphic.
func (c *Composer) ComposeStory(ctx context.Context, p Params) (*Artifact, error) {
	return c.render(ctx, p, layout{
		w: 1080, h: 1920,
		box:        image.Rect(100, 160, 1080-100, 1920-600),
		badgeX:     1080 - 600,
		badgeY:     120,
		badgeAngle: -math.Pi / 10,
		scale:      1.2,
	})
}

type layout struct {
	w, h       int
	box        image.Rectangle
	badgeX     float64
	badgeY     float64
	badgeAngle float64
	scale      float64
}

func (c *Composer) render(ctx context.Context, p Params, l layout) (*Artifact, error) {
	srcPath := c.cutoutSubject(ctx, p.SourcePath)

	src, err := imaging.Open(srcPath, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode source image: %w", err)
	}

	dc := gg.NewContext(l.w, l.h)
	pal := paletteFor(p.Style, c.brandColor)
	c.drawBackground(dc, l.w, l.h, pal)

	fit := fitRect(src.Bounds().Dx(), src.Bounds().Dy(), l.box)
	fitted := imaging.Resize(src, fit.Dx(), fit.Dy(), imaging.Lanczos)
	dc.DrawImage(fitted, fit.Min.X, fit.Min.Y)

	c.drawBadge(dc, l, pal)
	c.drawInfoPanel(dc, l, pal, p)

	return c.savePublic(dc.Image())
}

// cutoutSubject removes the photo background through remove.bg. Any
// failure degrades to the original image rather than failing the turn.
func (c *Composer) cutoutSubject(ctx context.Context, inputPath string) string {
	if c.removeBgKey == "" {
		return inputPath
	}

	f, err := os.Open(inputPath)
	if err != nil {
		log.Printf("⚠️  Cutout skipped, cannot open %s: %v", inputPath, err)
		return inputPath
	}
	defer f.Close()

	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", c.removeBgKey).
		SetFileReader("image_file", filepath.Base(inputPath), f).
		SetFormData(map[string]string{"size": "auto"}).
		Post(removeBgEndpoint)
	if err != nil {
		log.Printf("⚠️  Cutout failed, using original photo: %v", err)
		return inputPath
	}
	if resp.IsError() {
		log.Printf("⚠️  Cutout failed, using original photo: status %s", resp.Status())
		return inputPath
	}

	out := filepath.Join(c.outputDir, uuid.NewString()+".png")
	if err := os.WriteFile(out, resp.Body(), 0o644); err != nil {
		log.Printf("⚠️  Cutout failed, using original photo: %v", err)
		return inputPath
	}
	return out
}

func (c *Composer) drawBackground(dc *gg.Context, w, h int, pal palette) {
	if pal.bgSolid != nil {
		dc.SetColor(pal.bgSolid)
		dc.DrawRectangle(0, 0, float64(w), float64(h))
		dc.Fill()
		return
	}
	grad := gg.NewLinearGradient(0, 0, float64(w), float64(h))
	grad.AddColorStop(0, pal.bgTop)
	grad.AddColorStop(1, pal.bgBottom)
	dc.SetFillStyle(grad)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()
}

func (c *Composer) drawBadge(dc *gg.Context, l layout, pal palette) {
	const badgeW, badgeH = 520.0, 140.0

	dc.Push()
	dc.RotateAbout(l.badgeAngle, l.badgeX, l.badgeY)
	dc.SetColor(pal.accent)
	dc.DrawRoundedRectangle(l.badgeX, l.badgeY, badgeW, badgeH, 24)
	dc.Fill()

	dc.SetColor(color.White)
	dc.SetFontFace(c.face(c.bold, 92))
	dc.DrawStringAnchored(c.badgeText, l.badgeX+badgeW/2, l.badgeY+badgeH/2, 0.5, 0.5)
	dc.Pop()
}

func (c *Composer) drawInfoPanel(dc *gg.Context, l layout, pal palette, p Params) {
	s := l.scale
	W, H := float64(l.w), float64(l.h)
	panelH := 260 * s

	dc.SetColor(pal.panel)
	dc.DrawRoundedRectangle(40*s, H-panelH-40*s, W-80*s, panelH, 28*s)
	dc.Fill()

	brand := p.Brand
	if brand == "" {
		brand = "Your Shop"
	}
	headline := p.Headline
	if headline == "" {
		headline = "New arrival"
	}

	dc.SetColor(pal.text)
	dc.SetFontFace(c.face(c.bold, 72*s))
	dc.DrawString(brand, 80*s, H-panelH-40*s+86*s)

	dc.SetFontFace(c.face(c.regular, 44*s))
	dc.DrawString(headline, 80*s, H-panelH-40*s+160*s)

	if p.Subline != "" {
		dc.SetColor(pal.subText)
		dc.SetFontFace(c.face(c.regular, 34*s))
		dc.DrawString(p.Subline, 80*s, H-panelH-40*s+220*s)
	}
}

func (c *Composer) face(fnt *sfnt.Font, size float64) font.Face {
	face, err := opentype.NewFace(fnt, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		// Parse succeeded at construction time, so NewFace only fails
		// on a bad size; fall back to a known-good one.
		face, _ = opentype.NewFace(fnt, &opentype.FaceOptions{Size: 48, DPI: 72})
	}
	return face
}

func (c *Composer) savePublic(img image.Image) (*Artifact, error) {
	name := uuid.NewString() + ".jpg"
	absPath := filepath.Join(c.outputDir, name)

	f, err := os.Create(absPath)
	if err != nil {
		return nil, fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 90}); err != nil {
		return nil, fmt.Errorf("encode output: %w", err)
	}

	return &Artifact{
		Path:      absPath,
		PublicURL: c.publicBaseURL + "/static/outputs/" + name,
	}, nil
}

// fitRect computes the contain placement of a srcW x srcH image
// centered inside box with no distortion.
func fitRect(srcW, srcH int, box image.Rectangle) image.Rectangle {
	if srcW <= 0 || srcH <= 0 {
		return box
	}
	r := math.Min(float64(box.Dx())/float64(srcW), float64(box.Dy())/float64(srcH))
	w := int(math.Round(float64(srcW) * r))
	h := int(math.Round(float64(srcH) * r))
	x := box.Min.X + (box.Dx()-w)/2
	y := box.Min.Y + (box.Dy()-h)/2
	return image.Rect(x, y, x+w, y+h)
}

type palette struct {
	bgSolid  color.Color // when set, solid background
	bgTop    color.Color
	bgBottom color.Color
	panel    color.Color
	text     color.Color
	subText  color.Color
	accent   color.Color
}

func paletteFor(style string, brand color.Color) palette {
	switch style {
	case models.StyleBold:
		return palette{
			bgSolid: color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff},
			panel:   color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x1f},
			text:    color.White,
			subText: color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff},
			accent:  brand,
		}
	case models.StylePastel:
		return palette{
			bgTop:    color.RGBA{R: 0xff, G: 0xe9, B: 0xf0, A: 0xff},
			bgBottom: color.RGBA{R: 0xe8, G: 0xf4, B: 0xff, A: 0xff},
			panel:    color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x8c},
			text:     color.RGBA{R: 0x3a, G: 0x3a, B: 0x3a, A: 0xff},
			subText:  color.RGBA{R: 0x55, G: 0x55, B: 0x55, A: 0xff},
			accent:   color.RGBA{R: 0xf7, G: 0x8f, B: 0xb3, A: 0xff},
		}
	default: // minimal
		return palette{
			bgTop:    color.White,
			bgBottom: color.RGBA{R: 0xf3, G: 0xf6, B: 0xff, A: 0xff},
			panel:    color.NRGBA{A: 0x10},
			text:     color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xff},
			subText:  color.RGBA{R: 0x33, G: 0x33, B: 0x33, A: 0xff},
			accent:   brand,
		}
	}
}

// parseHexColor parses "#rrggbb", falling back when malformed.
func parseHexColor(s string, fallback color.Color) color.Color {
	var r, g, b uint8
	if _, err := fmt.Sscanf(s, "#%02x%02x%02x", &r, &g, &b); err != nil {
		return fallback
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}
