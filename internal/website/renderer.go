package website

import (
	"bytes"
	"context"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/wolfeidau/sitefront/internal/components"
	"github.com/wolfeidau/sitefront/internal/content"
	"github.com/wolfeidau/sitefront/internal/site"
	"github.com/wolfeidau/sitefront/internal/telemetry"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed templates/*.html templates/sections/*.html
var templateFS embed.FS

// RenderStats summarises one page render.
type RenderStats struct {
	Rendered int
	Skipped  []components.Key
	Duration time.Duration
}

// Renderer turns page data into HTML documents, dispatching each section to
// the render unit bound in the registry.
type Renderer struct {
	tmpl     *template.Template
	registry *components.Registry
	md       goldmark.Markdown
}

// New parses the embedded templates. Every unit in registry must have a
// matching section template.
func New(registry *components.Registry) (*Renderer, error) {
	r := &Renderer{
		registry: registry,
		md:       goldmark.New(goldmark.WithExtensions(extension.Linkify, extension.Strikethrough)),
	}

	funcs := template.FuncMap{
		"text":     text,
		"markdown": r.markdown,
		"marshal":  marshal,
	}

	tmpl, err := template.New("website").Funcs(funcs).ParseFS(templateFS, "templates/*.html", "templates/sections/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}
	r.tmpl = tmpl

	for _, b := range registry.Bindings() {
		if tmpl.Lookup(sectionTemplate(b.Unit)) == nil {
			return nil, fmt.Errorf("render unit %s: missing template %q", b.Unit.Name, sectionTemplate(b.Unit))
		}
	}

	return r, nil
}

func sectionTemplate(u components.Unit) string {
	return "section/" + u.Template
}

type sectionView struct {
	ID      content.ID
	Type    string
	Variant string
	Unit    components.Unit
	Content content.Record
	Items   []content.Record
	Fields  content.Record
}

type pageView struct {
	Lang        string
	Title       string
	Description string
	Keywords    string
	Favicon     string
	Site        string
	Slug        string
	Theme       content.Theme
	Sections    []template.HTML
	Scripts     []string
	Data        map[string]any
}

// RenderPage writes a complete HTML document for data. Sections without a
// bound render unit are skipped. Nothing is written to w if rendering fails.
func (r *Renderer) RenderPage(ctx context.Context, w io.Writer, data *site.PageData, scripts []string) (RenderStats, error) {
	start := time.Now()
	log := zerolog.Ctx(ctx)
	metrics := telemetry.GetMetrics()

	var stats RenderStats
	view := pageView{
		Lang:        cond(data.SiteMeta.Fields.String("lang"), "en"),
		Title:       pageTitle(data),
		Description: data.SiteMeta.Fields.String("description"),
		Keywords:    data.SiteMeta.Fields.String("keywords"),
		Favicon:     data.SiteMeta.Fields.String("favicon"),
		Site:        data.Site.Subdomain,
		Slug:        data.Slug,
		Theme:       data.Theme,
		Scripts:     scripts,
		Data: map[string]any{
			"site":  data.Site,
			"theme": data.Theme,
			"page":  data.Page,
		},
	}

	var buf bytes.Buffer
	for _, section := range data.Sections {
		unit, ok := r.registry.Resolve(section.Type, section.Variant)
		key := components.Key{Type: section.Type, Variant: section.Variant}
		if !ok {
			stats.Skipped = append(stats.Skipped, key)
			metrics.SectionsSkippedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("component", key.String())))
			log.Debug().Str("component", key.String()).Str("section", string(section.ID)).Msg("No render unit bound, skipping section")
			continue
		}

		buf.Reset()
		err := r.tmpl.ExecuteTemplate(&buf, sectionTemplate(unit), sectionView{
			ID:      section.ID,
			Type:    section.Type,
			Variant: section.Variant,
			Unit:    unit,
			Content: section.Content,
			Items:   section.Items,
			Fields:  section.Fields,
		})
		if err != nil {
			return stats, fmt.Errorf("failed to render section %s (%s): %w", section.ID, key, err)
		}
		view.Sections = append(view.Sections, template.HTML(buf.String())) //nolint:gosec
		stats.Rendered++
		metrics.SectionsRenderedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("component", key.String())))
	}

	buf.Reset()
	if err := r.tmpl.ExecuteTemplate(&buf, "layout", view); err != nil {
		return stats, fmt.Errorf("failed to render layout: %w", err)
	}
	if _, err := buf.WriteTo(w); err != nil {
		return stats, err
	}

	stats.Duration = time.Since(start)
	metrics.PageRenderDuration.Record(ctx, float64(stats.Duration.Microseconds())/1000.0)
	return stats, nil
}

// RenderError writes the fallback error document with the given status.
func (r *Renderer) RenderError(w http.ResponseWriter, status int, err error) {
	message := "unknown error"
	if err != nil {
		message = err.Error()
	}

	var buf bytes.Buffer
	if execErr := r.tmpl.ExecuteTemplate(&buf, "error", map[string]any{
		"Status":     status,
		"StatusText": http.StatusText(status),
		"Message":    message,
	}); execErr != nil {
		http.Error(w, http.StatusText(status), status)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// pageTitle joins the page title and the site title. Pages without a title
// use their slug, title cased.
func pageTitle(data *site.PageData) string {
	page := data.Page.String("title")
	if page == "" {
		page = titleCase(data.Slug)
	}

	siteTitle := data.SiteMeta.Fields.String("title")
	switch {
	case page == "":
		return siteTitle
	case siteTitle == "" || siteTitle == page:
		return page
	default:
		return page + " | " + siteTitle
	}
}

func titleCase(s string) string {
	s = strings.NewReplacer("-", " ", "_", " ").Replace(s)
	// a Caser is stateful and not safe for concurrent use
	return cases.Title(language.English).String(s)
}

func text(r content.Record, key string) string {
	return r.String(key)
}

func (r *Renderer) markdown(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	// goldmark omits raw HTML unless configured with html.WithUnsafe
	return template.HTML(buf.String()), nil //nolint:gosec
}

func marshal(value any) (string, error) {
	b, err := json.Marshal(value)
	if err != nil {
		return "", errors.New("value is not json serializable")
	}
	return string(b), nil
}

func cond(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
