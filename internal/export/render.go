package export

import (
	"context"
	"fmt"

	"github.com/codezelat/pitchlens/internal/badge"
)

// Render produces the artifact bytes for one badge in format f. PNG output
// goes through raster; SVG output never touches a drawing surface.
func Render(ctx context.Context, raster badge.Rasterizer, style badge.Style, f Format, score int) ([]byte, error) {
	switch f {
	case FormatSVG:
		svg, err := badge.SVG(style, score)
		if err != nil {
			return nil, err
		}
		return []byte(svg), nil
	case FormatPNG:
		return raster.Rasterize(ctx, style, score)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}
