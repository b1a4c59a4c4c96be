package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"
	"github.com/wolfeidau/sitefront/internal/api"
	"github.com/wolfeidau/sitefront/internal/content"
	"github.com/wolfeidau/sitefront/internal/site"
	"github.com/wolfeidau/sitefront/internal/tenant"
)

// SiteServer implements the site.v1.SiteService procedures. Every procedure is
// free of side effects, so clients may call them with HTTP GET and cache the
// responses using the ETag.
type SiteServer struct {
	store    *content.Store
	sites    *site.Service
	resolver *tenant.Resolver
}

// NewSiteServer creates a new SiteService server.
func NewSiteServer(store *content.Store, sites *site.Service, resolver *tenant.Resolver) *SiteServer {
	return &SiteServer{
		store:    store,
		sites:    sites,
		resolver: resolver,
	}
}

// ResolveTenant reports the tenant key and rule the resolver picks for a host.
func (s *SiteServer) ResolveTenant(
	ctx context.Context,
	req *connect.Request[api.ResolveTenantRequest],
) (*connect.Response[api.ResolveTenantResponse], error) {
	res := s.resolver.ResolveRule(req.Msg.Host)

	zerolog.Ctx(ctx).Debug().
		Str("host", req.Msg.Host).
		Str("tenant", res.Key).
		Str("rule", res.Rule).
		Msg("ResolveTenant request")

	return connect.NewResponse(&api.ResolveTenantResponse{Tenant: res.Key, Rule: res.Rule}), nil
}

// GetAppShell returns the site, themes and config of a tenant.
func (s *SiteServer) GetAppShell(
	ctx context.Context,
	req *connect.Request[api.GetAppShellRequest],
) (*connect.Response[api.GetAppShellResponse], error) {
	shell, err := s.sites.AppShell(ctx, s.tenantKey(req.Msg.TenantRef, req.Header()))
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return cached(s.store, shell), nil
}

// GetPage returns a page with its sections and the site wide records.
func (s *SiteServer) GetPage(
	ctx context.Context,
	req *connect.Request[api.GetPageRequest],
) (*connect.Response[api.GetPageResponse], error) {
	data, err := s.sites.PageData(ctx, s.tenantKey(req.Msg.TenantRef, req.Header()), req.Msg.Slug)
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return cached(s.store, data), nil
}

// ListPages returns the metadata of every page of a tenant.
func (s *SiteServer) ListPages(
	ctx context.Context,
	req *connect.Request[api.ListPagesRequest],
) (*connect.Response[api.ListPagesResponse], error) {
	pages, err := s.sites.Pages(ctx, s.tenantKey(req.Msg.TenantRef, req.Header()))
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return cached(s.store, &api.ListPagesResponse{Pages: pages}), nil
}

// GetSectionContent returns a section's content, or an empty mapping when no
// section has the id.
func (s *SiteServer) GetSectionContent(
	ctx context.Context,
	req *connect.Request[api.GetSectionRequest],
) (*connect.Response[api.GetSectionContentResponse], error) {
	if req.Msg.SectionID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("sectionId is required"))
	}

	c, err := s.sites.SectionContent(ctx, s.tenantKey(req.Msg.TenantRef, req.Header()), content.ID(req.Msg.SectionID))
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return cached(s.store, &api.GetSectionContentResponse{Content: c}), nil
}

// GetSectionItems returns a section's items, or an empty list when no section
// has the id.
func (s *SiteServer) GetSectionItems(
	ctx context.Context,
	req *connect.Request[api.GetSectionRequest],
) (*connect.Response[api.GetSectionItemsResponse], error) {
	if req.Msg.SectionID == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("sectionId is required"))
	}

	items, err := s.sites.SectionItems(ctx, s.tenantKey(req.Msg.TenantRef, req.Header()), content.ID(req.Msg.SectionID))
	if err != nil {
		return nil, toConnectError(ctx, err)
	}
	return cached(s.store, &api.GetSectionItemsResponse{Items: items}), nil
}

// tenantKey picks the explicit tenant, else resolves the requested host,
// else the host the request was forwarded for.
func (s *SiteServer) tenantKey(ref api.TenantRef, header http.Header) string {
	if ref.Tenant != "" {
		return ref.Tenant
	}
	host := ref.Host
	if host == "" {
		host = header.Get("X-Forwarded-Host")
	}
	return s.resolver.Resolve(host)
}

// cached wraps msg and adds the HTTP cache headers. The document never
// changes while the process runs, so its fingerprint validates every
// response.
func cached[T any](store *content.Store, msg *T) *connect.Response[T] {
	resp := connect.NewResponse(msg)
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("ETag", documentETag(store))
	return resp
}

func toConnectError(ctx context.Context, err error) error {
	switch {
	case errors.Is(err, site.ErrNotFound):
		var nf *site.NotFoundError
		if errors.As(err, &nf) {
			zerolog.Ctx(ctx).Debug().Str("reason", nf.Reason).Msg("Not found")
		}
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, content.ErrClosed):
		return connect.NewError(connect.CodeUnavailable, err)
	default:
		return connect.NewError(connect.CodeInternal, fmt.Errorf("site lookup failed: %w", err))
	}
}
