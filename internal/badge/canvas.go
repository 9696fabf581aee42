package badge

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// CanvasRasterizer draws badges in-process with gg.
type CanvasRasterizer struct {
	once    sync.Once
	regular *opentype.Font
	bold    *opentype.Font
	loadErr error
}

func NewCanvasRasterizer() *CanvasRasterizer {
	return &CanvasRasterizer{}
}

func (c *CanvasRasterizer) loadFonts() error {
	c.once.Do(func() {
		if c.regular, c.loadErr = opentype.Parse(goregular.TTF); c.loadErr != nil {
			return
		}
		c.bold, c.loadErr = opentype.Parse(gobold.TTF)
	})
	return c.loadErr
}

func (c *CanvasRasterizer) Rasterize(ctx context.Context, style Style, score int) ([]byte, error) {
	l, err := LayoutFor(style, score)
	if err != nil {
		return nil, err
	}
	if err := c.loadFonts(); err != nil {
		return nil, fmt.Errorf("%w: loading fonts: %v", ErrSurfaceUnavailable, err)
	}
	return runAsync(ctx, func() ([]byte, error) { return c.draw(l) })
}

func (c *CanvasRasterizer) draw(l Layout) ([]byte, error) {
	w, h := float64(l.Size.Width), float64(l.Size.Height)
	dc := gg.NewContext(l.Size.Width, l.Size.Height)

	bg := l.Background
	inset := bg.StrokeWidth / 2
	dc.DrawRoundedRectangle(inset, inset, w-2*inset, h-2*inset, bg.Radius)
	if bg.Gradient {
		grad := gg.NewLinearGradient(0, 0, w, h)
		from, err := parseColor(bg.From, 1)
		if err != nil {
			return nil, err
		}
		to, err := parseColor(bg.To, 1)
		if err != nil {
			return nil, err
		}
		grad.AddColorStop(0, from)
		grad.AddColorStop(1, to)
		dc.SetFillStyle(grad)
	} else {
		if err := setColor(dc, bg.Fill, 1); err != nil {
			return nil, err
		}
	}
	if bg.Stroke == "" {
		dc.Fill()
	} else {
		dc.FillPreserve()
		if err := setColor(dc, bg.Stroke, 1); err != nil {
			return nil, err
		}
		dc.SetLineWidth(bg.StrokeWidth)
		dc.Stroke()
	}

	for _, t := range l.Texts {
		face, err := c.face(t)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
		}
		dc.SetFontFace(face)
		if err := setColor(dc, t.Color, t.Opacity); err != nil {
			face.Close()
			return nil, err
		}
		ax := 0.0
		if t.Anchor == AnchorMiddle {
			ax = 0.5
		}
		dc.DrawStringAnchored(t.Value, t.X, t.Y, ax, 0)
		face.Close()
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding png: %w", err)
	}
	return buf.Bytes(), nil
}

func (c *CanvasRasterizer) face(t Text) (font.Face, error) {
	f := c.regular
	if t.Bold {
		f = c.bold
	}
	return opentype.NewFace(f, &opentype.FaceOptions{
		Size:    t.Size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

func setColor(dc *gg.Context, hex string, alpha float64) error {
	r, g, b, err := rgb(hex)
	if err != nil {
		return err
	}
	dc.SetRGBA(r, g, b, alpha)
	return nil
}

var _ Rasterizer = (*CanvasRasterizer)(nil)
