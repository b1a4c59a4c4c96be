package commands

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sitefront/internal/api"
	"github.com/wolfeidau/sitefront/internal/components"
	httpmiddleware "github.com/wolfeidau/sitefront/internal/http"
	"github.com/wolfeidau/sitefront/internal/server"
	"github.com/wolfeidau/sitefront/internal/site"
	"github.com/wolfeidau/sitefront/internal/tenant"
	"github.com/wolfeidau/sitefront/internal/website"
)

func newHandler(t *testing.T, c *ServerCmd) http.Handler {
	t.Helper()

	store, err := c.openStore()
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	renderer, err := website.New(components.DefaultCatalog())
	require.NoError(t, err)

	srv := server.NewServer(store, site.NewService(store, site.DefaultOptions()), tenant.NewResolver(tenant.DefaultOptions()), renderer)
	return c.handler(zerolog.Nop(), srv.Handler())
}

func TestIsAPIRoute(t *testing.T) {
	require.True(t, isAPIRoute(api.GetPageProcedure))
	require.False(t, isAPIRoute("/"))
	require.False(t, isAPIRoute("/site.v1.SiteServiceX/GetPage"))
	require.False(t, isAPIRoute("/public/site.js"))
}

func TestServerCmd_handler(t *testing.T) {
	h := newHandler(t, &ServerCmd{Bundled: "d2d", CORSOrigins: []string{"https://d2d.example.com"}})

	t.Run("page", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "http://d2d.example.com/", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		require.NotEmpty(t, rec.Header().Get(httpmiddleware.RequestIDHeader))
		require.Contains(t, rec.Body.String(), "D2D Barbershop")
	})

	t.Run("cross origin form post rejected", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "http://d2d.example.com/contact", nil)
		req.Header.Set("Sec-Fetch-Site", "cross-site")
		h.ServeHTTP(rec, req)
		require.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("api preflight", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "http://api.example.com"+api.GetPageProcedure, nil)
		req.Header.Set("Origin", "https://d2d.example.com")
		req.Header.Set("Access-Control-Request-Method", http.MethodGet)
		h.ServeHTTP(rec, req)
		require.Equal(t, "https://d2d.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestServerCmd_openStore(t *testing.T) {
	c := &ServerCmd{Bundled: "d2d"}
	store, err := c.openStore()
	require.NoError(t, err)
	require.Equal(t, "bundled:d2d", store.Source())

	c = &ServerCmd{Document: filepath.Join(t.TempDir(), "missing.json")}
	_, err = c.openStore()
	require.Error(t, err)

	c = &ServerCmd{Bundled: "nope"}
	_, err = c.openStore()
	require.Error(t, err)
}
