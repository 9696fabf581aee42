package badge

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
)

// BrowserRasterizer renders the SVG document in headless Chrome and captures
// it at the badge's native size. It needs a Chrome or Chromium binary.
type BrowserRasterizer struct {
	allocOpts []chromedp.ExecAllocatorOption
	timeout   time.Duration
}

type BrowserOption func(*BrowserRasterizer)

// WithBrowserTimeout bounds one render, including browser startup.
func WithBrowserTimeout(d time.Duration) BrowserOption {
	return func(b *BrowserRasterizer) { b.timeout = d }
}

// WithExecPath points the rasterizer at a specific browser binary.
func WithExecPath(path string) BrowserOption {
	return func(b *BrowserRasterizer) {
		b.allocOpts = append(b.allocOpts, chromedp.ExecPath(path))
	}
}

func NewBrowserRasterizer(opts ...BrowserOption) *BrowserRasterizer {
	b := &BrowserRasterizer{
		allocOpts: append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("hide-scrollbars", true),
		),
		timeout: 15 * time.Second,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *BrowserRasterizer) Rasterize(ctx context.Context, style Style, score int) ([]byte, error) {
	l, err := LayoutFor(style, score)
	if err != nil {
		return nil, err
	}
	doc := renderSVG(l)

	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, b.allocOpts...)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	src := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(doc))
	var png []byte
	err = chromedp.Run(browserCtx,
		chromedp.EmulateViewport(int64(l.Size.Width), int64(l.Size.Height)),
		chromedp.Navigate(src),
		chromedp.CaptureScreenshot(&png),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSurfaceUnavailable, err)
	}
	return png, nil
}

var _ Rasterizer = (*BrowserRasterizer)(nil)
