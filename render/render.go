// Package render renders dashboards as Markdown, HTML and styled terminal output.
package render

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"strings"
	"text/template"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	treasury "github.com/Anne71-cloud/treasury-dashboard"
	"github.com/Anne71-cloud/treasury-dashboard/dashboard"
)

//go:embed templates
var templates embed.FS

var funcs = template.FuncMap{
	"money":     FormatMoney,
	"rate":      formatRate,
	"percent":   formatPercent,
	"source":    formatSource,
	"sparkline": Sparkline,
	"points":    func(s treasury.Series) []treasury.Point { return s.Slice() },
	"date":      func(t time.Time) string { return t.Format(time.DateOnly) },
	"cell":      func(s string) string { return strings.ReplaceAll(s, "|", `\|`) },
}

// Markdown renders the dashboard as a Markdown report.
func Markdown(d *dashboard.Dashboard) string {
	partials := map[string]string{
		"title":      "title.md",
		"summary":    "summary.md",
		"rates":      "rates.md",
		"currencies": "currencies.md",
		"entities":   "entities.md",
		"exposure":   "exposure.md",
		"trend":      "trend.md",
	}
	return renderTemplate("dashboard", "dashboard.md", partials, d)
}

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var page = htmltemplate.Must(htmltemplate.ParseFS(templates, "templates/page.html"))

// HTML renders the dashboard as a standalone HTML page with a form to change the base
// and the trend currency.
func HTML(d *dashboard.Dashboard) ([]byte, error) {
	var body bytes.Buffer
	if err := md.Convert([]byte(Markdown(d)), &body); err != nil {
		return nil, fmt.Errorf("converting markdown: %w", err)
	}

	var b bytes.Buffer
	err := page.Execute(&b, struct {
		Dashboard *dashboard.Dashboard
		Body      htmltemplate.HTML
	}{d, htmltemplate.HTML(body.String())})
	if err != nil {
		return nil, fmt.Errorf("executing page: %w", err)
	}
	return b.Bytes(), nil
}

// Terminal renders the dashboard for a terminal. style is a glamour standard style
// ("dark", "light", "notty", ...).
func Terminal(d *dashboard.Dashboard, style string, width int) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := r.Render(Markdown(d))
	if err != nil {
		return "", fmt.Errorf("rendering %v dashboard: %w", d.Base, err)
	}
	return out, nil
}

// renderTemplate renders a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
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
