package badge

import (
	"context"
	"errors"
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// ErrSurfaceUnavailable is returned when no drawing surface could be acquired.
// Callers treat it as "no artifact produced", not as a fatal error.
var ErrSurfaceUnavailable = errors.New("rendering surface unavailable")

// Rasterizer renders a badge into PNG bytes at its native dimensions.
type Rasterizer interface {
	Rasterize(ctx context.Context, style Style, score int) ([]byte, error)
}

// NewRasterizer returns the rasterizer for a configured backend name.
func NewRasterizer(backend string, opts ...BrowserOption) (Rasterizer, error) {
	switch backend {
	case "", "canvas":
		return NewCanvasRasterizer(), nil
	case "browser":
		return NewBrowserRasterizer(opts...), nil
	default:
		return nil, fmt.Errorf("unknown raster backend %q", backend)
	}
}

// runAsync runs render on its own goroutine so a slow surface cannot outlive ctx.
func runAsync(ctx context.Context, render func() ([]byte, error)) ([]byte, error) {
	type result struct {
		data []byte
		err  error
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	done := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("%w: %v", ErrSurfaceUnavailable, r)}
			}
		}()
		data, err := render()
		done <- result{data: data, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, ctx.Err())
	case r := <-done:
		return r.data, r.err
	}
}

// rgb parses a #RRGGBB color into 0..1 components.
func rgb(hex string) (r, g, b float64, err error) {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return 0, 0, 0, fmt.Errorf("invalid color %q", hex)
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid color %q: %w", hex, err)
	}
	return float64(v>>16&0xFF) / 255, float64(v>>8&0xFF) / 255, float64(v&0xFF) / 255, nil
}

func parseColor(hex string, alpha float64) (color.Color, error) {
	r, g, b, err := rgb(hex)
	if err != nil {
		return nil, err
	}
	return color.NRGBA{
		R: uint8(r*255 + 0.5),
		G: uint8(g*255 + 0.5),
		B: uint8(b*255 + 0.5),
		A: uint8(alpha*255 + 0.5),
	}, nil
}
