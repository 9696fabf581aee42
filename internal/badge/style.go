// Package badge renders a score as a shareable badge: embeddable markup,
// an SVG document, or a PNG bitmap.
//
// Every renderer draws from the same Layout so the vector and bitmap
// outputs agree on geometry.
package badge

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var ErrUnknownStyle = errors.New("unknown badge style")

// Style selects one of the fixed badge layouts.
type Style string

const (
	Hero    Style = "hero"
	Compact Style = "compact"
	Minimal Style = "minimal"
)

// Styles lists every supported style in display order.
var Styles = []Style{Hero, Compact, Minimal}

// ParseStyle validates a style name. The empty string selects Hero.
func ParseStyle(s string) (Style, error) {
	switch st := Style(strings.ToLower(strings.TrimSpace(s))); st {
	case "":
		return Hero, nil
	case Hero, Compact, Minimal:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStyle, s)
	}
}

// Size is a pixel width and height.
type Size struct {
	Width  int
	Height int
}

// Size returns the style's fixed dimensions. They never depend on the score.
func (s Style) Size() Size {
	switch s {
	case Compact:
		return Size{Width: 220, Height: 84}
	case Minimal:
		return Size{Width: 260, Height: 90}
	default:
		return Size{Width: 360, Height: 200}
	}
}

const (
	brandFrom   = "#4B3CDB"
	brandTo     = "#6C5CE7"
	white       = "#FFFFFF"
	titleText   = "Market Resonance Score"
	compactText = "Market Resonance"
	attribution = "Verified by PitchLens"
	fontFamily  = "Arial, Helvetica, sans-serif"
)

// glyphAdvance approximates the average advance of a bold digit as a
// fraction of the font size.
const glyphAdvance = 0.62

// Anchor is the horizontal alignment of a text run relative to its X.
type Anchor string

const (
	AnchorStart  Anchor = "start"
	AnchorMiddle Anchor = "middle"
)

// Text is one run of text. Y is the baseline.
type Text struct {
	Value   string
	X, Y    float64
	Size    float64
	Bold    bool
	Color   string
	Opacity float64
	Anchor  Anchor
}

// Background is the badge body. When Gradient is set the body is filled with
// a diagonal gradient from From to To, otherwise with Fill.
type Background struct {
	Gradient    bool
	From, To    string
	Fill        string
	Stroke      string
	StrokeWidth float64
	Radius      float64
}

// Layout is the resolved geometry of one badge.
type Layout struct {
	Style      Style
	Size       Size
	Background Background
	Texts      []Text
}

// FitFontSize shrinks base until text of the given length fits maxWidth.
func FitFontSize(base, maxWidth float64, text string) float64 {
	n := len(text)
	if n == 0 {
		return base
	}
	fit := math.Floor(maxWidth / (glyphAdvance * float64(n)))
	return math.Min(base, fit)
}

// LayoutFor resolves the layout of style for score.
func LayoutFor(style Style, score int) (Layout, error) {
	size := style.Size()
	value := strconv.Itoa(score)

	switch style {
	case Hero:
		w := float64(size.Width)
		return Layout{
			Style: style,
			Size:  size,
			Background: Background{
				Gradient: true, From: brandFrom, To: brandTo, Radius: 24,
			},
			Texts: []Text{
				{Value: titleText, X: w / 2, Y: 52, Size: 14, Color: white, Opacity: 0.9, Anchor: AnchorMiddle},
				{Value: value, X: w / 2, Y: 118, Size: FitFontSize(64, w-48, value), Bold: true, Color: white, Opacity: 1, Anchor: AnchorMiddle},
				{Value: attribution, X: w / 2, Y: 160, Size: 12, Color: white, Opacity: 0.85, Anchor: AnchorMiddle},
			},
		}, nil

	case Compact:
		return Layout{
			Style: style,
			Size:  size,
			Background: Background{
				Gradient: true, From: brandFrom, To: brandTo, Radius: 16,
			},
			Texts: []Text{
				{Value: value, X: 42, Y: 54, Size: FitFontSize(34, 72, value), Bold: true, Color: white, Opacity: 1, Anchor: AnchorMiddle},
				{Value: compactText, X: 88, Y: 38, Size: 12, Bold: true, Color: white, Opacity: 0.9, Anchor: AnchorStart},
				{Value: attribution, X: 88, Y: 56, Size: 9, Color: white, Opacity: 0.8, Anchor: AnchorStart},
			},
		}, nil

	case Minimal:
		w := float64(size.Width)
		label := "Score: " + value
		return Layout{
			Style: style,
			Size:  size,
			Background: Background{
				Fill: white, Stroke: brandFrom, StrokeWidth: 2, Radius: 12,
			},
			Texts: []Text{
				{Value: label, X: w / 2, Y: 52, Size: FitFontSize(28, w-24, label), Bold: true, Color: brandFrom, Opacity: 1, Anchor: AnchorMiddle},
				{Value: attribution, X: w / 2, Y: 74, Size: 11, Color: brandFrom, Opacity: 0.8, Anchor: AnchorMiddle},
			},
		}, nil
	}

	return Layout{}, fmt.Errorf("%w: %q", ErrUnknownStyle, string(style))
}

// num formats a coordinate without locale or exponent.
func num(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
