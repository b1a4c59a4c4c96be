package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"connectrpc.com/connect"
	"connectrpc.com/otelconnect"
	"filippo.io/csrf"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sitefront/internal/assets"
	"github.com/wolfeidau/sitefront/internal/components"
	"github.com/wolfeidau/sitefront/internal/content"
	httpmiddleware "github.com/wolfeidau/sitefront/internal/http"
	"github.com/wolfeidau/sitefront/internal/logger"
	"github.com/wolfeidau/sitefront/internal/server"
	"github.com/wolfeidau/sitefront/internal/site"
	"github.com/wolfeidau/sitefront/internal/telemetry"
	"github.com/wolfeidau/sitefront/internal/tenant"
	"github.com/wolfeidau/sitefront/internal/website"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type ServerCmd struct {
	// Server configuration
	Listen string `help:"HTTP server listen address" default:"0.0.0.0:8080" env:"SITEFRONT_LISTEN"`
	Cert   string `help:"path to TLS cert file, serves plain HTTP when empty" default:"" env:"SITEFRONT_TLS_CERT"`
	Key    string `help:"path to TLS key file" default:"" env:"SITEFRONT_TLS_KEY"`

	// CORS configuration
	CORSOrigins []string `help:"allowed CORS origins for API requests" default:"http://localhost:3000" env:"SITEFRONT_CORS_ORIGINS"`

	// Content
	Document string `help:"site document (.json, .yaml, optionally .zst compressed), overrides --bundled" default:"" env:"SITEFRONT_DOCUMENT" type:"path"`
	Bundled  string `help:"bundled site document to serve" default:"d2d" env:"SITEFRONT_BUNDLED"`

	Tenant tenant.Flags `embed:""`

	// Operational
	Tracing     bool    `help:"enable tracing" default:"false" env:"SITEFRONT_TRACING"`
	SampleRatio float64 `help:"trace sample ratio, 1 samples everything" default:"1" env:"SITEFRONT_TRACE_SAMPLE_RATIO"`
	BuildAssets bool    `help:"bundle the client scripts with esbuild on startup" default:"false" env:"SITEFRONT_BUILD_ASSETS"`
}

func (c *ServerCmd) Run(ctx context.Context, globals *Globals) error {
	log := logger.Setup(globals.Debug)

	log.Info().Str("version", globals.Version).Bool("debug", globals.Debug).Msg("Starting server")

	interceptors := []connect.Interceptor{logger.NewConnectRequests(log)}
	if c.Tracing {
		log.Info().Float64("sample_ratio", c.SampleRatio).Msg("Tracing is enabled")
		shutdown, err := telemetry.InitTelemetry(ctx, telemetry.Config{
			ServiceName: "sitefront",
			Version:     globals.Version,
			SampleRatio: c.SampleRatio,
		})
		if err != nil {
			log.Warn().Err(err).Msg("Failed to initialize telemetry, continuing without metrics")
			shutdown = func(ctx context.Context) error { return nil }
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("Failed to shutdown telemetry")
			}
		}()
		otelInterceptor, err := otelconnect.NewInterceptor()
		if err != nil {
			return fmt.Errorf("failed to create OTEL interceptor: %w", err)
		}
		interceptors = append(interceptors, otelInterceptor)
	}

	store, err := c.openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Document()
	if err != nil {
		return err
	}
	for _, problem := range content.Validate(doc) {
		log.Warn().Err(problem).Str("source", store.Source()).Msg("Site document invariant violated")
	}
	log.Info().
		Str("source", store.Source()).
		Str("fingerprint", store.Fingerprint()).
		Str("tenant", doc.Site.Subdomain).
		Int("pages", len(doc.Pages)).
		Msg("Loaded site document")

	resolverOpts, err := c.Tenant.Options()
	if err != nil {
		return fmt.Errorf("failed to load tenant options: %w", err)
	}
	resolver := tenant.NewResolver(resolverOpts)
	log.Info().Strs("rules", resolver.Rules()).Msg("Tenant resolver configured")

	renderer, err := website.New(components.DefaultCatalog())
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	sites := site.NewService(store, site.Options{DevHostAliases: c.Tenant.DevHostAlias})
	srv := server.NewServer(store, sites, resolver, renderer)

	pipeline := assets.New(assets.DefaultConfig())
	if c.BuildAssets {
		if err := pipeline.Build(); err != nil {
			return fmt.Errorf("failed to build assets: %w", err)
		}
	}
	scripts := pipeline.SiteScripts()
	srv.WithStatic(pipeline.FileServer()).WithScripts(func() []string { return scripts })

	handler := c.handler(log, srv.Handler(interceptors...))

	if c.Cert == "" && c.Key == "" {
		log.Info().Str("addr", c.Listen).Msg("Starting HTTP server")
		return configureHTTPServer(c.Listen, handler).ListenAndServe()
	}

	// Validate TLS certificates
	if c.Cert == "" || c.Key == "" {
		return errors.New("TLS certificate and key must be set together (--cert and --key)")
	}
	if _, err := os.Stat(c.Cert); err != nil {
		return fmt.Errorf("TLS certificate not found at %s: %w", c.Cert, err)
	}
	if _, err := os.Stat(c.Key); err != nil {
		return fmt.Errorf("TLS key not found at %s: %w", c.Key, err)
	}

	log.Info().Str("addr", c.Listen).Msg("Starting HTTPS server")
	return configureHTTPServer(c.Listen, handler).ListenAndServeTLS(c.Cert, c.Key)
}

func (c *ServerCmd) openStore() (*content.Store, error) {
	if c.Document != "" {
		return content.Open(c.Document)
	}
	return content.OpenBundled(c.Bundled)
}

// handler wraps the routes: API routes get CORS, HTML routes get CSRF, and
// every request is traced, logged and compressed.
func (c *ServerCmd) handler(log zerolog.Logger, routes http.Handler) http.Handler {
	protection := csrf.New()
	api := withCORS(c.CORSOrigins, routes)
	pages := protection.Handler(routes)

	split := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if isAPIRoute(r.URL.Path) {
			api.ServeHTTP(w, r)
			return
		}
		pages.ServeHTTP(w, r)
	})

	h := httpmiddleware.Chain(split,
		httpmiddleware.ClientIPMiddleware(),
		httpmiddleware.RequestLogger(log),
		httpmiddleware.Compress(),
	)
	if c.Tracing {
		h = otelhttp.NewHandler(h, "sitefront")
	}
	return h
}
