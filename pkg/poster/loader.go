// Package poster renders schedule data to PNG posters through an HTML
// template and a headless browser.
package poster

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

//go:embed templates
var builtinTemplates embed.FS

// Loader resolves template files, preferring an override directory over the
// embedded defaults.
type Loader struct {
	overrideDir string
}

// NewLoader returns a Loader. overrideDir may be empty, in which case only
// the embedded templates are served.
func NewLoader(overrideDir string) *Loader {
	return &Loader{overrideDir: overrideDir}
}

// Load returns the named template file's contents.
func (l *Loader) Load(name string) (string, error) {
	if l.overrideDir != "" {
		b, err := os.ReadFile(filepath.Join(l.overrideDir, name))
		if err == nil {
			return string(b), nil
		}
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("reading template %s: %w", name, err)
		}
	}
	b, err := builtinTemplates.ReadFile("templates/" + name)
	if err != nil {
		return "", fmt.Errorf("no template named %s: %w", name, err)
	}
	return string(b), nil
}

var stylesheetLinkRe = regexp.MustCompile(`<link\b[^>]*rel="stylesheet"[^>]*>`)
var hrefRe = regexp.MustCompile(`href="([^"]+)"`)

// LoadPage loads a template and inlines its stylesheet links into <style>
// blocks, so the rendered page is self-contained. One pass only; stylesheets
// referencing further stylesheets stay as-is.
func (l *Loader) LoadPage(name string) (string, error) {
	html, err := l.Load(name)
	if err != nil {
		return "", err
	}
	var inlineErr error
	html = stylesheetLinkRe.ReplaceAllStringFunc(html, func(link string) string {
		m := hrefRe.FindStringSubmatch(link)
		if m == nil {
			return link
		}
		css, err := l.Load(filepath.Base(m[1]))
		if err != nil {
			inlineErr = err
			return link
		}
		return "<style>\n" + strings.TrimRight(css, "\n") + "\n</style>"
	})
	if inlineErr != nil {
		return "", inlineErr
	}
	return html, nil
}
