package poster

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/yumemi1/animeposter/pkg/directive"
	"github.com/yumemi1/animeposter/pkg/logging"
)

// Viewport is the browser window size used for rasterization.
type Viewport struct {
	Width  int
	Height int
}

// DefaultViewport matches the poster layout the shipped template targets.
var DefaultViewport = Viewport{Width: 1200, Height: 1600}

// Rasterizer turns an HTML page into a PNG image.
type Rasterizer interface {
	Rasterize(ctx context.Context, html string, vp Viewport) ([]byte, error)
}

// Renderer is the template-to-PNG pipeline.
type Renderer struct {
	loader   *Loader
	ras      Rasterizer
	viewport Viewport
	log      zerolog.Logger
}

// NewRenderer wires a loader and a rasterizer into a pipeline.
func NewRenderer(loader *Loader, ras Rasterizer, vp Viewport) *Renderer {
	if vp.Width <= 0 || vp.Height <= 0 {
		vp = DefaultViewport
	}
	return &Renderer{loader: loader, ras: ras, viewport: vp, log: logging.GetLogger("poster")}
}

// HTML loads the named template, inlines its stylesheets and substitutes the
// schedule data into it.
func (r *Renderer) HTML(name string, data map[string]any) (string, error) {
	page, err := r.loader.LoadPage(name)
	if err != nil {
		return "", err
	}
	return directive.Render(page, data), nil
}

// Render produces the finished PNG for the named template.
func (r *Renderer) Render(ctx context.Context, name string, data map[string]any) ([]byte, error) {
	html, err := r.HTML(name, data)
	if err != nil {
		return nil, err
	}
	png, err := r.ras.Rasterize(ctx, html, r.viewport)
	if err != nil {
		return nil, fmt.Errorf("rasterizing %s: %w", name, err)
	}
	r.log.Info().Str("template", name).Int("bytes", len(png)).Msg("poster rendered")
	return png, nil
}
