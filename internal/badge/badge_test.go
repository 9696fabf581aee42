package badge

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"image/png"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testScores = []int{0, 7, 42, 100, 999}

// svgRoot decodes the document and returns the root element's attributes.
// It fails the test if the markup is not well-formed.
func svgRoot(t *testing.T, doc string) map[string]string {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(doc))
	var root map[string]string
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		require.NoError(t, err, "svg must be well-formed")
		if se, ok := tok.(xml.StartElement); ok && root == nil {
			require.Equal(t, "svg", se.Name.Local)
			require.Equal(t, "http://www.w3.org/2000/svg", se.Name.Space)
			root = map[string]string{}
			for _, a := range se.Attr {
				root[a.Name.Local] = a.Value
			}
		}
	}
	require.NotNil(t, root)
	return root
}

// --- Styles ---

func TestParseStyle(t *testing.T) {
	for _, s := range Styles {
		got, err := ParseStyle(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStyle("")
	require.NoError(t, err)
	assert.Equal(t, Hero, got)

	got, err = ParseStyle(" Compact ")
	require.NoError(t, err)
	assert.Equal(t, Compact, got)

	_, err = ParseStyle("neon")
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

func TestSize_Fixed(t *testing.T) {
	assert.Equal(t, Size{360, 200}, Hero.Size())
	assert.Equal(t, Size{220, 84}, Compact.Size())
	assert.Equal(t, Size{260, 90}, Minimal.Size())
}

func TestFitFontSize(t *testing.T) {
	assert.Equal(t, 64.0, FitFontSize(64, 312, "100"))
	assert.Equal(t, 34.0, FitFontSize(34, 72, "100"))
	assert.Equal(t, 29.0, FitFontSize(34, 72, "1000"))
	assert.Equal(t, 12.0, FitFontSize(12, 100, ""))
}

func TestLayoutFor_ScoreFitsWidth(t *testing.T) {
	for _, s := range Styles {
		for _, score := range append(testScores, 123456) {
			l, err := LayoutFor(s, score)
			require.NoError(t, err)
			assert.Equal(t, s.Size(), l.Size)

			for _, txt := range l.Texts {
				width := glyphAdvance * txt.Size * float64(len(txt.Value))
				left := txt.X
				if txt.Anchor == AnchorMiddle {
					left -= width / 2
				}
				assert.GreaterOrEqual(t, left, 0.0, "%s/%d %q clipped left", s, score, txt.Value)
				assert.LessOrEqual(t, left+width, float64(l.Size.Width), "%s/%d %q clipped right", s, score, txt.Value)
				assert.Less(t, txt.Y, float64(l.Size.Height))
			}
		}
	}
}

func TestLayoutFor_UnknownStyle(t *testing.T) {
	_, err := LayoutFor(Style("neon"), 1)
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

// --- SVG ---

func TestSVG_WellFormedWithFixedDimensions(t *testing.T) {
	for _, s := range Styles {
		for _, score := range testScores {
			t.Run(fmt.Sprintf("%s/%d", s, score), func(t *testing.T) {
				doc, err := SVG(s, score)
				require.NoError(t, err)

				root := svgRoot(t, doc)
				size := s.Size()
				assert.Equal(t, strconv.Itoa(size.Width), root["width"])
				assert.Equal(t, strconv.Itoa(size.Height), root["height"])
				assert.Equal(t, fmt.Sprintf("0 0 %d %d", size.Width, size.Height), root["viewBox"])
				want := strconv.Itoa(score)
				if s == Minimal {
					want = "Score: " + want
				}
				assert.Contains(t, doc, ">"+want+"</text>")
				assert.Contains(t, doc, "Verified by PitchLens")
			})
		}
	}
}

func TestSVG_Deterministic(t *testing.T) {
	for _, s := range Styles {
		a, err := SVG(s, 42)
		require.NoError(t, err)
		b, err := SVG(s, 42)
		require.NoError(t, err)
		assert.Equal(t, a, b)
	}
}

func TestSVG_MinimalStrokeInset(t *testing.T) {
	doc, err := SVG(Minimal, 87)
	require.NoError(t, err)
	assert.Contains(t, doc, `<rect x="1" y="1" width="258" height="88" rx="12" fill="#FFFFFF" stroke="#4B3CDB" stroke-width="2"/>`)
	assert.Contains(t, doc, ">Score: 87</text>")
}

// --- Embed ---

func TestEmbed_DeterministicAndSelfContained(t *testing.T) {
	for _, s := range Styles {
		for _, score := range testScores {
			a, err := Embed(s, score)
			require.NoError(t, err)
			b, err := Embed(s, score)
			require.NoError(t, err)

			assert.Equal(t, a, b)
			assert.NotEmpty(t, a)
			assert.Contains(t, a, strconv.Itoa(score))
			assert.Contains(t, a, "Verified by PitchLens")
			assert.NotContains(t, a, "<script")
			assert.NotContains(t, a, "<link")
			assert.NotContains(t, a, "class=")
		}
	}
}

func TestEmbed_HeroMarkup(t *testing.T) {
	got, err := Embed(Hero, 87)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(got, `<div style="display: inline-block;`))
	assert.Contains(t, got, `<div style="font-size: 48px; font-weight: bold; margin-bottom: 4px;">87</div>`)
}

func TestEmbed_CompactZero(t *testing.T) {
	got, err := Embed(Compact, 0)
	require.NoError(t, err)
	assert.Contains(t, got, ">0</div>")
}

func TestEmbed_UnknownStyle(t *testing.T) {
	_, err := Embed(Style("neon"), 1)
	assert.ErrorIs(t, err, ErrUnknownStyle)
}

// --- Rasterizers ---

func TestCanvasRasterizer_NativeDimensions(t *testing.T) {
	r := NewCanvasRasterizer()
	for _, s := range Styles {
		for _, score := range []int{0, 100} {
			data, err := r.Rasterize(context.Background(), s, score)
			require.NoError(t, err)

			img, err := png.Decode(bytes.NewReader(data))
			require.NoError(t, err)
			assert.Equal(t, s.Size().Width, img.Bounds().Dx())
			assert.Equal(t, s.Size().Height, img.Bounds().Dy())
		}
	}
}

func TestCanvasRasterizer_HeroCenterIsBrandColored(t *testing.T) {
	data, err := NewCanvasRasterizer().Rasterize(context.Background(), Hero, 1)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)

	// A point on the gradient away from any text.
	r, g, b, a := img.At(20, 100).RGBA()
	assert.Equal(t, uint32(0xFFFF), a)
	assert.Greater(t, b, r)
	assert.Greater(t, b, g)
}

func TestCanvasRasterizer_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewCanvasRasterizer().Rasterize(ctx, Compact, 5)
	assert.ErrorIs(t, err, ErrSurfaceUnavailable)
}

func TestBrowserRasterizer_MissingBinary(t *testing.T) {
	r := NewBrowserRasterizer(WithExecPath("/nonexistent/chromium"), WithBrowserTimeout(5*time.Second))
	_, err := r.Rasterize(context.Background(), Hero, 42)
	assert.ErrorIs(t, err, ErrSurfaceUnavailable)
}

func TestBrowserRasterizer_Renders(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping headless browser test in short mode")
	}
	path, err := findBrowser()
	if err != nil {
		t.Skip("no chrome or chromium binary on PATH")
	}

	r := NewBrowserRasterizer(WithExecPath(path), WithBrowserTimeout(30*time.Second))
	data, err := r.Rasterize(context.Background(), Compact, 100)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 220, img.Bounds().Dx())
	assert.Equal(t, 84, img.Bounds().Dy())
}

func findBrowser() (string, error) {
	for _, name := range []string{"chromium", "chromium-browser", "google-chrome", "chrome"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	return "", errors.New("not found")
}

func TestNewRasterizer(t *testing.T) {
	r, err := NewRasterizer("canvas")
	require.NoError(t, err)
	assert.IsType(t, &CanvasRasterizer{}, r)

	r, err = NewRasterizer("browser")
	require.NoError(t, err)
	assert.IsType(t, &BrowserRasterizer{}, r)

	_, err = NewRasterizer("gpu")
	assert.Error(t, err)
}
