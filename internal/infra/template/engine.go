package template

import (
	"bytes"
	"fmt"
	"html/template"
	"regexp"
	"strings"

	"agroalert/internal/domain/alert"
)

var _ alert.TemplateRenderer = (*Engine)(nil)

// templateMeta holds the default subject and template name for each category.
type templateMeta struct {
	Subject      string
	TemplateName string
}

// registry maps alert categories to their metadata. The weather and price
// subjects are normally overridden by the service with the location or date.
var registry = map[alert.Category]templateMeta{
	alert.CategoryWeather: {Subject: "🌤️ Daily Weather Alert", TemplateName: "weather_alert"},
	alert.CategoryPrice:   {Subject: "📈 Market Price Updates", TemplateName: "price_alert"},
	alert.CategoryWelcome: {Subject: "🌱 Welcome to AgroAlert - Your Smart Farming Journey Begins!", TemplateName: "welcome"},
}

// Engine renders alert emails using Go's html/template package.
type Engine struct {
	templates *template.Template
}

// NewEngine creates a new template engine by loading all templates from the given directory.
func NewEngine(templatesDir string) (*Engine, error) {
	tmpl, err := template.ParseGlob(templatesDir + "/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates from %s: %w", templatesDir, err)
	}

	return &Engine{templates: tmpl}, nil
}

// Render produces a subject line, HTML body, and plain-text fallback for the given category.
func (e *Engine) Render(category alert.Category, data map[string]any) (subject, html, text string, err error) {
	meta, ok := registry[category]
	if !ok {
		return "", "", "", fmt.Errorf("no template registered for category: %s", category)
	}

	// Allow subject override via data
	subject = meta.Subject
	if customSubject, ok := data["Subject"].(string); ok && customSubject != "" {
		subject = customSubject
	}

	// Render the HTML template
	var buf bytes.Buffer
	if err := e.templates.ExecuteTemplate(&buf, meta.TemplateName+".html", data); err != nil {
		return "", "", "", fmt.Errorf("executing template %s: %w", meta.TemplateName, err)
	}
	html = buf.String()

	// Generate plain-text fallback by stripping HTML tags
	text = stripHTML(html)

	return subject, html, text, nil
}

// stripHTML removes HTML tags and collapses whitespace to produce a plain-text version.
func stripHTML(s string) string {
	// Remove style blocks entirely, then the remaining tags
	styleRe := regexp.MustCompile(`(?s)<style[^>]*>.*?</style>`)
	text := styleRe.ReplaceAllString(s, "")

	re := regexp.MustCompile(`<[^>]*>`)
	text = re.ReplaceAllString(text, "")

	// Decode common HTML entities
	text = strings.ReplaceAll(text, "&amp;", "&")
	text = strings.ReplaceAll(text, "&lt;", "<")
	text = strings.ReplaceAll(text, "&gt;", ">")
	text = strings.ReplaceAll(text, "&quot;", `"`)
	text = strings.ReplaceAll(text, "&#39;", "'")
	text = strings.ReplaceAll(text, "&nbsp;", " ")

	// Collapse whitespace
	wsRe := regexp.MustCompile(`\s+`)
	text = wsRe.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}
