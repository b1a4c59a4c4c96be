package main

import (
	"context"

	"github.com/alecthomas/kong"
	"github.com/wolfeidau/sitefront/cmd/cli/internal/commands"
)

var (
	version = "dev"
	cli     struct {
		Resolve  commands.ResolveCmd  `cmd:"" help:"Resolve hosts to tenant keys"`
		Validate commands.ValidateCmd `cmd:"" help:"Validate a site document"`
		Shell    commands.ShellCmd    `cmd:"" help:"Fetch the app shell of a tenant"`
		Page     commands.PageCmd     `cmd:"" help:"Fetch a page of a tenant"`
		Pages    commands.PagesCmd    `cmd:"" help:"List the pages of a tenant"`
		Section  commands.SectionCmd  `cmd:"" help:"Fetch the content or items of a section"`
		Debug    bool                 `help:"Enable debug mode."`
		Version  kong.VersionFlag
	}
)

func main() {
	ctx := context.Background()
	cmd := kong.Parse(&cli,
		kong.Name("sitectl"),
		kong.Description("Inspect tenant resolution and site content."),
		kong.Vars{
			"version": version,
		},
		kong.BindTo(ctx, (*context.Context)(nil)))
	err := cmd.Run(&commands.Globals{Debug: cli.Debug, Version: version})
	cmd.FatalIfErrorf(err)
}
