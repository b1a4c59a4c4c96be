package site

import (
	"context"
	"slices"

	"github.com/wolfeidau/sitefront/internal/content"
	"github.com/wolfeidau/sitefront/internal/telemetry"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName  = "github.com/wolfeidau/sitefront/internal/site"
	DefaultSlug = "home"
)

// Options configures a Service.
type Options struct {
	// DevHostAliases are tenant keys that skip the subdomain check and only
	// require the tenant to be active.
	DevHostAliases []string
}

// DefaultOptions returns the development aliases used by the local dev server.
func DefaultOptions() Options {
	return Options{DevHostAliases: []string{"localhost:3000", "localhost:3001"}}
}

// PageData is everything needed to render one page.
type PageData struct {
	Site     content.Site       `json:"site"`
	SiteMeta content.SiteMeta   `json:"siteMeta"`
	Config   content.SiteConfig `json:"config"`
	Theme    content.Theme      `json:"theme"`
	Page     content.Record     `json:"page"`
	Sections []content.Section  `json:"sections"`

	// Slug is the mapping key the page was found under.
	Slug string `json:"-"`
}

// AppShell is the site wide data used to initialise the application shell.
type AppShell struct {
	Site   content.Site       `json:"site"`
	Themes []content.Record   `json:"themes"`
	Config content.SiteConfig `json:"config"`
}

// Service validates tenant keys against the store and projects read-only views
// of the tenant's content. Every result is a copy, callers may modify it.
type Service struct {
	store   *content.Store
	aliases []string
	tracer  trace.Tracer
}

// NewService creates a Service over store.
func NewService(store *content.Store, opts Options) *Service {
	return &Service{
		store:   store,
		aliases: slices.Clone(opts.DevHostAliases),
		tracer:  otel.Tracer(tracerName),
	}
}

// complete checks the tenant key and returns the shared document.
func (s *Service) complete(ctx context.Context, key string) (*content.Document, error) {
	doc, err := s.store.Document()
	if err != nil {
		return nil, err
	}

	metrics := telemetry.GetMetrics()
	metrics.TenantLookupsTotal.Add(ctx, 1)

	reason := ""
	switch {
	case slices.Contains(s.aliases, key):
		if !doc.Site.IsActive {
			reason = "inactive"
		}
	case doc.Site.Subdomain != key:
		reason = "subdomain mismatch"
	case !doc.Site.IsActive:
		reason = "inactive"
	}

	if reason != "" {
		metrics.TenantNotFoundTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
		return nil, notFound("site", key, reason)
	}
	return doc, nil
}

func (s *Service) start(ctx context.Context, name, key string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "site."+name, trace.WithAttributes(attribute.String("tenant.key", key)))
}

func end(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CompleteData returns the whole content tree for an active tenant.
func (s *Service) CompleteData(ctx context.Context, key string) (_ *content.Document, err error) {
	ctx, span := s.start(ctx, "CompleteData", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return nil, err
	}
	return doc.Clone(), nil
}

// Page returns the metadata of the page with the given slug, without its
// sections. An empty slug selects the home page.
func (s *Service) Page(ctx context.Context, key, slug string) (_ content.Record, err error) {
	ctx, span := s.start(ctx, "Page", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return nil, err
	}

	page, err := findPage(doc, slug)
	if err != nil {
		return nil, err
	}
	return page.Fields.Clone(), nil
}

// PageData returns the site wide records together with one page and its
// ordered sections.
func (s *Service) PageData(ctx context.Context, key, slug string) (_ *PageData, err error) {
	ctx, span := s.start(ctx, "PageData", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return nil, err
	}

	page, err := findPage(doc, slug)
	if err != nil {
		return nil, err
	}
	page = page.Clone()

	data := &PageData{
		Site:     doc.Site.Clone(),
		SiteMeta: content.SiteMeta{SiteID: doc.SiteMeta.SiteID, Fields: doc.SiteMeta.Fields.Clone()},
		Config:   content.SiteConfig{SiteID: doc.Config.SiteID, Fields: doc.Config.Fields.Clone()},
		Theme:    doc.Theme.Clone(),
		Page:     page.Fields,
		Sections: page.Sections,
		Slug:     page.Slug,
	}
	if data.Sections == nil {
		data.Sections = []content.Section{}
	}
	return data, nil
}

// Pages lists the metadata of every page in document order.
func (s *Service) Pages(ctx context.Context, key string) (_ []content.Record, err error) {
	ctx, span := s.start(ctx, "Pages", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return nil, err
	}

	pages := make([]content.Record, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		pages = append(pages, p.Fields.Clone())
	}
	return pages, nil
}

// AppShell returns the site, its config and its themes. Each theme carries
// a "primary" alias of "primary_color".
func (s *Service) AppShell(ctx context.Context, key string) (_ *AppShell, err error) {
	ctx, span := s.start(ctx, "AppShell", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return nil, err
	}

	return &AppShell{
		Site:   doc.Site.Clone(),
		Themes: []content.Record{themeView(doc.Theme)},
		Config: content.SiteConfig{SiteID: doc.Config.SiteID, Fields: doc.Config.Fields.Clone()},
	}, nil
}

func themeView(theme content.Theme) content.Record {
	view := theme.Fields.Without()
	if v, ok := view["primary_color"]; ok {
		view["primary"] = v
	}
	return view
}

// SiteMeta returns the metadata record when siteID identifies the tenant.
func (s *Service) SiteMeta(ctx context.Context, key string, siteID content.ID) (_ content.SiteMeta, err error) {
	ctx, span := s.start(ctx, "SiteMeta", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return content.SiteMeta{}, err
	}
	if siteID != doc.Site.ID || siteID != doc.SiteMeta.SiteID {
		return content.SiteMeta{}, notFound("site metadata", string(siteID), "site id mismatch")
	}
	return content.SiteMeta{SiteID: doc.SiteMeta.SiteID, Fields: doc.SiteMeta.Fields.Clone()}, nil
}

// Config returns the config record when siteID identifies the tenant.
func (s *Service) Config(ctx context.Context, key string, siteID content.ID) (_ content.SiteConfig, err error) {
	ctx, span := s.start(ctx, "Config", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return content.SiteConfig{}, err
	}
	if siteID != doc.Site.ID || siteID != doc.Config.SiteID {
		return content.SiteConfig{}, notFound("site config", string(siteID), "site id mismatch")
	}
	return content.SiteConfig{SiteID: doc.Config.SiteID, Fields: doc.Config.Fields.Clone()}, nil
}

// Theme returns the theme record when siteID identifies the tenant.
func (s *Service) Theme(ctx context.Context, key string, siteID content.ID) (_ content.Theme, err error) {
	ctx, span := s.start(ctx, "Theme", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return content.Theme{}, err
	}
	if siteID != doc.Site.ID || siteID != doc.Theme.SiteID {
		return content.Theme{}, notFound("site theme", string(siteID), "site id mismatch")
	}
	return doc.Theme.Clone(), nil
}

// Sections returns the sections of the page with the given id without their
// content and items. An unknown page yields an empty list.
func (s *Service) Sections(ctx context.Context, key string, pageID content.ID) (_ []content.Record, err error) {
	ctx, span := s.start(ctx, "Sections", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return nil, err
	}

	out := []content.Record{}
	for _, p := range doc.Pages {
		if p.ID != pageID {
			continue
		}
		for _, section := range p.Sections {
			out = append(out, section.Summary())
		}
		break
	}
	return out, nil
}

// SectionContent returns the content of the first section with the given id
// that has content, searching pages in document order. An unknown section
// yields an empty mapping.
func (s *Service) SectionContent(ctx context.Context, key string, sectionID content.ID) (_ content.Record, err error) {
	ctx, span := s.start(ctx, "SectionContent", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return nil, err
	}

	for _, p := range doc.Pages {
		if section, ok := findSection(p, sectionID); ok && section.Content != nil {
			return section.Content.Clone(), nil
		}
	}
	return content.Record{}, nil
}

// SectionItems returns the items of the first section with the given id that
// has items, searching pages in document order. An unknown section yields an
// empty list.
func (s *Service) SectionItems(ctx context.Context, key string, sectionID content.ID) (_ []content.Record, err error) {
	ctx, span := s.start(ctx, "SectionItems", key)
	defer func() { end(span, err) }()

	doc, err := s.complete(ctx, key)
	if err != nil {
		return nil, err
	}

	for _, p := range doc.Pages {
		if section, ok := findSection(p, sectionID); ok && section.Items != nil {
			return section.Clone().Items, nil
		}
	}
	return []content.Record{}, nil
}

func findPage(doc *content.Document, slug string) (content.Page, error) {
	if slug == "" {
		slug = DefaultSlug
	}
	page, ok := doc.Page(slug)
	if !ok {
		return content.Page{}, notFound("page", slug, "no page with slug")
	}
	return page, nil
}

// findSection returns the first section on the page with the given id.
func findSection(p content.Page, id content.ID) (content.Section, bool) {
	for _, section := range p.Sections {
		if section.ID == id {
			return section, true
		}
	}
	return content.Section{}, false
}
