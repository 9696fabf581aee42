package badge

import (
	"encoding/xml"
	"strings"
)

// SVG renders the badge as a standalone SVG document. The output for a given
// style and score is byte-identical across calls.
func SVG(style Style, score int) (string, error) {
	l, err := LayoutFor(style, score)
	if err != nil {
		return "", err
	}
	return renderSVG(l), nil
}

func renderSVG(l Layout) string {
	w, h := num(float64(l.Size.Width)), num(float64(l.Size.Height))

	var b strings.Builder
	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	b.WriteString(`<svg xmlns="http://www.w3.org/2000/svg" width="` + w + `" height="` + h +
		`" viewBox="0 0 ` + w + ` ` + h + `" fill="none">` + "\n")

	bg := l.Background
	fill := bg.Fill
	if bg.Gradient {
		b.WriteString(`  <defs>` + "\n")
		b.WriteString(`    <linearGradient id="pitchlens-grad" x1="0" y1="0" x2="1" y2="1">` + "\n")
		b.WriteString(`      <stop offset="0%" stop-color="` + bg.From + `"/>` + "\n")
		b.WriteString(`      <stop offset="100%" stop-color="` + bg.To + `"/>` + "\n")
		b.WriteString(`    </linearGradient>` + "\n")
		b.WriteString(`  </defs>` + "\n")
		fill = "url(#pitchlens-grad)"
	}

	// Inset the body by half the stroke so the outline is not clipped.
	inset := bg.StrokeWidth / 2
	b.WriteString(`  <rect x="` + num(inset) + `" y="` + num(inset) +
		`" width="` + num(float64(l.Size.Width)-2*inset) + `" height="` + num(float64(l.Size.Height)-2*inset) +
		`" rx="` + num(bg.Radius) + `" fill="` + fill + `"`)
	if bg.Stroke != "" {
		b.WriteString(` stroke="` + bg.Stroke + `" stroke-width="` + num(bg.StrokeWidth) + `"`)
	}
	b.WriteString("/>\n")

	for _, t := range l.Texts {
		b.WriteString(`  <text x="` + num(t.X) + `" y="` + num(t.Y) + `" fill="` + t.Color +
			`" font-family="` + fontFamily + `" font-size="` + num(t.Size) + `"`)
		if t.Bold {
			b.WriteString(` font-weight="700"`)
		}
		b.WriteString(` text-anchor="` + string(t.Anchor) + `"`)
		if t.Opacity < 1 {
			b.WriteString(` opacity="` + num(t.Opacity) + `"`)
		}
		b.WriteString(">")
		xml.EscapeText(&b, []byte(t.Value))
		b.WriteString("</text>\n")
	}

	b.WriteString("</svg>\n")
	return b.String()
}
