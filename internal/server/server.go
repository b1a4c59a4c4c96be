package server

import (
	"bytes"
	"errors"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sitefront/internal/api"
	"github.com/wolfeidau/sitefront/internal/content"
	"github.com/wolfeidau/sitefront/internal/site"
	"github.com/wolfeidau/sitefront/internal/telemetry"
	"github.com/wolfeidau/sitefront/internal/tenant"
	"github.com/wolfeidau/sitefront/internal/website"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Server wires tenant resolution, the site data accessor and the renderer
// into the page routes and the SiteService API.
type Server struct {
	store      *content.Store
	sites      *site.Service
	resolver   *tenant.Resolver
	renderer   *website.Renderer
	siteServer *SiteServer
	scripts    func() []string
	static     http.Handler
}

// NewServer creates a new server over the given store.
func NewServer(store *content.Store, sites *site.Service, resolver *tenant.Resolver, renderer *website.Renderer) *Server {
	return &Server{
		store:      store,
		sites:      sites,
		resolver:   resolver,
		renderer:   renderer,
		siteServer: NewSiteServer(store, sites, resolver),
		scripts:    func() []string { return nil },
	}
}

// WithScripts sets the function listing the script URLs added to each page.
func (s *Server) WithScripts(fn func() []string) *Server {
	s.scripts = fn
	return s
}

// WithStatic serves h under /public/.
func (s *Server) WithStatic(h http.Handler) *Server {
	s.static = h
	return s
}

// Handler returns the HTTP handler for the server
func (s *Server) Handler(interceptors ...connect.Interceptor) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint for load balancer
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if _, err := s.store.Document(); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"unavailable"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	opts := []connect.HandlerOption{
		connect.WithCodec(api.Codec{}),
		connect.WithIdempotency(connect.IdempotencyNoSideEffects),
		connect.WithInterceptors(interceptors...),
	}

	handle := func(procedure string, h http.Handler) {
		mux.Handle(procedure, conditional(h))
	}
	handle(api.ResolveTenantProcedure, connect.NewUnaryHandler(api.ResolveTenantProcedure, s.siteServer.ResolveTenant, opts...))
	handle(api.GetAppShellProcedure, connect.NewUnaryHandler(api.GetAppShellProcedure, s.siteServer.GetAppShell, opts...))
	handle(api.GetPageProcedure, connect.NewUnaryHandler(api.GetPageProcedure, s.siteServer.GetPage, opts...))
	handle(api.ListPagesProcedure, connect.NewUnaryHandler(api.ListPagesProcedure, s.siteServer.ListPages, opts...))
	handle(api.GetSectionContentProcedure, connect.NewUnaryHandler(api.GetSectionContentProcedure, s.siteServer.GetSectionContent, opts...))
	handle(api.GetSectionItemsProcedure, connect.NewUnaryHandler(api.GetSectionItemsProcedure, s.siteServer.GetSectionItems, opts...))

	if s.static != nil {
		mux.Handle("/public/", s.static)
	}

	mux.HandleFunc("GET /{$}", s.handlePage)
	mux.HandleFunc("GET /{slug}", s.handlePage)

	return mux
}

// handlePage renders the page named by the path for the tenant named by the
// host.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	metrics := telemetry.GetMetrics()

	slug := r.PathValue("slug")
	if slug == "" {
		slug = site.DefaultSlug
	}
	res := s.resolver.ResolveRule(tenant.HostFromRequest(r))

	log := zerolog.Ctx(ctx).With().
		Str("host", res.Host.Raw).
		Str("tenant", res.Key).
		Str("rule", res.Rule).
		Str("slug", slug).
		Logger()

	w.Header().Set("Vary", "X-Forwarded-Host")

	data, err := s.sites.PageData(ctx, res.Key, slug)
	if err != nil {
		status := http.StatusInternalServerError
		if site.IsNotFound(err) {
			status = http.StatusNotFound
			var nf *site.NotFoundError
			if errors.As(err, &nf) {
				log.Warn().Err(err).Str("reason", nf.Reason).Msg("Page not found")
			}
		} else {
			log.Error().Err(err).Msg("Failed to load page data")
		}
		metrics.PageRenderErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", status)))
		s.renderer.RenderError(w, status, err)
		return
	}

	// only a page that exists can be unchanged
	etag := pageETag(s.store, res.Key)
	if etagMatch(r.Header.Get("If-None-Match"), etag) {
		metrics.PagesNotModifiedTotal.Add(ctx, 1)
		w.Header().Set("ETag", etag)
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusNotModified)
		return
	}

	var buf bytes.Buffer
	stats, err := s.renderer.RenderPage(log.WithContext(ctx), &buf, data, s.scripts())
	if err != nil {
		log.Error().Err(err).Msg("Failed to render page")
		metrics.PageRenderErrorsTotal.Add(ctx, 1, metric.WithAttributes(attribute.Int("status", http.StatusInternalServerError)))
		s.renderer.RenderError(w, http.StatusInternalServerError, errors.New("failed to render page"))
		return
	}

	metrics.PagesRenderedTotal.Add(ctx, 1, metric.WithAttributes(attribute.String("tenant", res.Key)))
	log.Debug().
		Int("sections", stats.Rendered).
		Int("skipped", len(stats.Skipped)).
		Dur("duration", stats.Duration).
		Msg("Rendered page")

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
