package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sitefront/cmd/server/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug mode." env:"SITEFRONT_DEBUG"`
		Version kong.VersionFlag
		Server  commands.ServerCmd `cmd:"" help:"Start the server (website + API)"`
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("sitefront"),
		kong.Description("Multi-tenant marketing website server."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
