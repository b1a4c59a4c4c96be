package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"connectrpc.com/connect"
	"github.com/wolfeidau/sitefront/internal/api"
	"github.com/wolfeidau/sitefront/internal/client"
	"github.com/wolfeidau/sitefront/internal/logger"
)

type Globals struct {
	Debug   bool
	Version string
}

// RemoteFlags select the server and tenant for commands calling the API.
type RemoteFlags struct {
	Server   string        `help:"Server URL" default:"http://localhost:8080" env:"SITEFRONT_SERVER"`
	Host     string        `help:"Host name resolved to the tenant" default:""`
	Tenant   string        `help:"Tenant key, skips host resolution" default:""`
	CacheDir string        `help:"Directory caching API responses between runs" default:"" type:"path" env:"SITEFRONT_CACHE_DIR"`
	Timeout  time.Duration `help:"Request timeout" default:"30s"`
}

func (f *RemoteFlags) ref() api.TenantRef {
	return api.TenantRef{Host: f.Host, Tenant: f.Tenant}
}

func (f *RemoteFlags) clients(globals *Globals) *client.Clients {
	var opts []connect.ClientOption
	if globals.Debug {
		opts = append(opts, connect.WithInterceptors(logger.NewConnectRequests(logger.Setup(true))))
	}
	return client.NewClients(client.Config{
		ServerURL: f.Server,
		Timeout:   f.Timeout,
		CacheDir:  f.CacheDir,
		Debug:     globals.Debug,
	}, opts...)
}

func output(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(output(w))
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	return nil
}
