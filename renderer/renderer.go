// Package renderer projects the ledger and its history into markdown
// reports, and converts them to HTML.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"
)

//go:embed templates/*.md
var templates embed.FS

// RenderHolding renders the Holding struct to a markdown string.
func RenderHolding(h *Holding) string {
	partials := map[string]string{
		"holding_title":     "holding_title.md",
		"holding_positions": "holding_positions.md",
		"holding_totals":    "holding_totals.md",
		"holding_alerts":    "holding_alerts.md",
	}
	if len(h.Positions) == 0 {
		partials["holding_positions"] = "holding_positions_empty.md"
	}
	return renderTemplate("holding", "holding.md", partials, h)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		// an empty file name is an empty partial.
		if file != "" {
			content, err = fs.ReadFile(templates, "templates/"+file)
			if err != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, err)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
