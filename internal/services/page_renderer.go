package services

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"math"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	defaultPageWidth  = 612.0 // US Letter in PDF points
	defaultPageHeight = 792.0
	maxRasterSide     = 4000
	minFacePixels     = 4
)

var ruleColor = color.Gray{Y: 0xCC}

// TextRun is a positioned piece of text in PDF user space (origin bottom-left).
type TextRun struct {
	X, Y     float64
	FontSize float64
	Text     string
}

// Box is a filled rectangle in PDF user space.
type Box struct {
	MinX, MinY, MaxX, MaxY float64
}

// PageLayout is what the renderer needs to know about one page.
type PageLayout struct {
	Width, Height float64
	Runs          []TextRun
	Boxes         []Box
}

// PageRenderer rasterizes page layouts into preview images at a fixed scale. Every call to
// Render allocates its own surface and font faces, so pages may be rendered from any
// goroutine without sharing drawing state.
type PageRenderer struct {
	scale float64

	once    sync.Once
	font    *opentype.Font
	initErr error
}

func NewPageRenderer(scale float64) *PageRenderer {
	if scale <= 0 {
		scale = 1.5
	}
	return &PageRenderer{scale: scale}
}

// Init parses the embedded font once. It is called lazily by the PDF backend so that a
// broken font surfaces as an ingestion error instead of a startup crash.
func (r *PageRenderer) Init() error {
	r.once.Do(func() {
		f, err := opentype.Parse(goregular.TTF)
		if err != nil {
			r.initErr = fmt.Errorf("failed to parse preview font: %w", err)
			return
		}
		r.font = f
	})
	return r.initErr
}

func (r *PageRenderer) Render(layout PageLayout) (*image.RGBA, error) {
	if err := r.Init(); err != nil {
		return nil, err
	}

	width, height := layout.Width, layout.Height
	if width <= 0 || height <= 0 {
		width, height = defaultPageWidth, defaultPageHeight
	}

	w := clampSide(width * r.scale)
	h := clampSide(height * r.scale)
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	for _, b := range layout.Boxes {
		rect := image.Rect(
			r.toPixel(b.MinX), r.toPixel(height-b.MaxY),
			r.toPixel(b.MaxX), r.toPixel(height-b.MinY),
		).Intersect(img.Bounds())
		if rect.Empty() {
			// Hairline rules collapse to zero height; draw them one pixel thick.
			rect = image.Rect(r.toPixel(b.MinX), r.toPixel(height-b.MaxY), r.toPixel(b.MaxX), r.toPixel(height-b.MaxY)+1).Intersect(img.Bounds())
		}
		draw.Draw(img, rect, &image.Uniform{C: ruleColor}, image.Point{}, draw.Src)
	}

	faces := make(map[int]font.Face)
	defer func() {
		for _, f := range faces {
			f.Close()
		}
	}()

	for _, run := range layout.Runs {
		if run.Text == "" {
			continue
		}
		face, err := r.face(faces, run.FontSize)
		if err != nil {
			return nil, err
		}
		d := font.Drawer{
			Dst:  img,
			Src:  image.Black,
			Face: face,
			Dot:  fixed.P(r.toPixel(run.X), r.toPixel(height-run.Y)),
		}
		d.DrawString(run.Text)
	}

	return img, nil
}

func (r *PageRenderer) face(cache map[int]font.Face, fontSize float64) (font.Face, error) {
	px := int(math.Round(fontSize * r.scale))
	if px < minFacePixels {
		px = minFacePixels
	}
	if f, ok := cache[px]; ok {
		return f, nil
	}
	f, err := opentype.NewFace(r.font, &opentype.FaceOptions{
		Size:    float64(px),
		DPI:     72,
		Hinting: font.HintingNone,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build font face: %w", err)
	}
	cache[px] = f
	return f, nil
}

func (r *PageRenderer) toPixel(v float64) int {
	return int(math.Round(v * r.scale))
}

func clampSide(v float64) int {
	n := int(math.Ceil(v))
	if n < 1 {
		return 1
	}
	if n > maxRasterSide {
		return maxRasterSide
	}
	return n
}
