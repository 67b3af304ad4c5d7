package poster

import (
	"context"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
)

// minCaptureHeight keeps short pages from producing a cramped poster.
const minCaptureHeight = 960

// ChromeRasterizer renders HTML with a headless Chrome instance.
type ChromeRasterizer struct {
	// Headless can be disabled for local debugging.
	Headless bool
}

func NewChromeRasterizer() *ChromeRasterizer {
	return &ChromeRasterizer{Headless: true}
}

// Rasterize opens a blank tab, injects the page and captures a PNG clipped
// to the body height (at least minCaptureHeight).
func (c *ChromeRasterizer) Rasterize(ctx context.Context, html string, vp Viewport) ([]byte, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", c.Headless),
		chromedp.Flag("hide-scrollbars", true),
	)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	tabCtx, cancelTab := chromedp.NewContext(allocCtx)
	defer cancelTab()

	var buf []byte
	var bodyHeight int64
	err := chromedp.Run(tabCtx,
		chromedp.EmulateViewport(int64(vp.Width), int64(vp.Height)),
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			tree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(tree.Frame.ID, html).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.Evaluate(`document.body.scrollHeight`, &bodyHeight),
		chromedp.ActionFunc(func(ctx context.Context) error {
			height := bodyHeight
			if height < minCaptureHeight {
				height = minCaptureHeight
			}
			shot, err := page.CaptureScreenshot().
				WithClip(&page.Viewport{
					X: 0, Y: 0,
					Width:  float64(vp.Width),
					Height: float64(height),
					Scale:  1,
				}).
				Do(ctx)
			if err != nil {
				return err
			}
			buf = shot
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return buf, nil
}
