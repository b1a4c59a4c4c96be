package client

import (
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/wolfeidau/sitefront/internal/api"
)

// Config holds common client configuration
type Config struct {
	ServerURL string
	Timeout   time.Duration
	// CacheDir persists cached responses, empty keeps them in memory.
	CacheDir string
	Debug    bool
}

// Clients holds a connect client per SiteService procedure.
type Clients struct {
	ResolveTenant     *connect.Client[api.ResolveTenantRequest, api.ResolveTenantResponse]
	GetAppShell       *connect.Client[api.GetAppShellRequest, api.GetAppShellResponse]
	GetPage           *connect.Client[api.GetPageRequest, api.GetPageResponse]
	ListPages         *connect.Client[api.ListPagesRequest, api.ListPagesResponse]
	GetSectionContent *connect.Client[api.GetSectionRequest, api.GetSectionContentResponse]
	GetSectionItems   *connect.Client[api.GetSectionRequest, api.GetSectionItemsResponse]
}

// NewClients creates the SiteService clients. Calls are sent as HTTP GET
// through a caching transport so repeated calls revalidate with the ETag.
func NewClients(config Config, opts ...connect.ClientOption) *Clients {
	httpClient := NewCachingHTTPClient(config.CacheDir)
	httpClient.Timeout = config.Timeout

	return newClients(httpClient, config.ServerURL, opts...)
}

func newClients(httpClient connect.HTTPClient, serverURL string, opts ...connect.ClientOption) *Clients {
	baseURL := strings.TrimSuffix(serverURL, "/")
	opts = append([]connect.ClientOption{
		connect.WithCodec(api.Codec{}),
		connect.WithHTTPGet(),
		connect.WithIdempotency(connect.IdempotencyNoSideEffects),
	}, opts...)

	return &Clients{
		ResolveTenant: connect.NewClient[api.ResolveTenantRequest, api.ResolveTenantResponse](
			httpClient, baseURL+api.ResolveTenantProcedure, opts...),
		GetAppShell: connect.NewClient[api.GetAppShellRequest, api.GetAppShellResponse](
			httpClient, baseURL+api.GetAppShellProcedure, opts...),
		GetPage: connect.NewClient[api.GetPageRequest, api.GetPageResponse](
			httpClient, baseURL+api.GetPageProcedure, opts...),
		ListPages: connect.NewClient[api.ListPagesRequest, api.ListPagesResponse](
			httpClient, baseURL+api.ListPagesProcedure, opts...),
		GetSectionContent: connect.NewClient[api.GetSectionRequest, api.GetSectionContentResponse](
			httpClient, baseURL+api.GetSectionContentProcedure, opts...),
		GetSectionItems: connect.NewClient[api.GetSectionRequest, api.GetSectionItemsResponse](
			httpClient, baseURL+api.GetSectionItemsProcedure, opts...),
	}
}

// DefaultConfig returns a default client configuration
func DefaultConfig() Config {
	return Config{
		ServerURL: "http://localhost:8080",
		Timeout:   30 * time.Second,
		Debug:     false,
	}
}
