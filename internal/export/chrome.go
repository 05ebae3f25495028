package export

import (
	"context"
	"fmt"
	"math"
	"os"

	"github.com/chromedp/chromedp"
)

// ChromeStrategy screenshots the #mindmap element of the target document in
// headless Chrome.
type ChromeStrategy struct {
	// ExecPath overrides Chrome discovery.
	ExecPath string
}

func (c *ChromeStrategy) Name() string { return "chrome" }

func (c *ChromeStrategy) Rasterize(ctx context.Context, t Target, opts Options) ([]byte, error) {
	if len(t.Document) == 0 {
		return nil, fmt.Errorf("no document to render")
	}

	f, err := os.CreateTemp("", "graphix-*.html")
	if err != nil {
		return nil, fmt.Errorf("create temp document: %w", err)
	}
	defer os.Remove(f.Name())
	if _, err := f.Write(t.Document); err != nil {
		f.Close()
		return nil, fmt.Errorf("write temp document: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("write temp document: %w", err)
	}

	allocOpts := chromedp.DefaultExecAllocatorOptions[:]
	if c.ExecPath != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(c.ExecPath))
	}
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, allocOpts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	width := int64(math.Ceil(max(t.Layout.Width, 800)))
	height := int64(math.Ceil(max(t.Layout.Height, 600)))

	var buf []byte
	err = chromedp.Run(tabCtx,
		chromedp.EmulateViewport(width, height, chromedp.EmulateScale(opts.Scale)),
		chromedp.Navigate("file://"+f.Name()),
		chromedp.WaitVisible("#mindmap", chromedp.ByID),
		chromedp.Evaluate(fmt.Sprintf(
			"document.body.style.background = %q; document.getElementById('mindmap').style.background = %q",
			opts.Background, opts.Background), nil),
		chromedp.Screenshot("#mindmap", &buf, chromedp.ByID),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome screenshot: %w", err)
	}
	return buf, nil
}
