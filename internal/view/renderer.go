// Package view assembles the panel page HTML from an embedded template.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

// Data carries everything the panel template needs. The CSP source is
// interpolated into the page's Content-Security-Policy meta tag exactly
// as given; the three resource URIs point at the bundled script, the
// stylesheet, and the icon font.
type Data struct {
	CSPSource     string
	ScriptURI     string
	StylesheetURI string
	IconFontURI   string
	TargetURL     string
	Title         string
}

// Renderer renders the panel page.
type Renderer struct{}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render produces the panel HTML for the given data.
func (r *Renderer) Render(data Data) (string, error) {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, "panel.html", data); err != nil {
		return "", fmt.Errorf("failed to render panel template: %w", err)
	}
	return buf.String(), nil
}
