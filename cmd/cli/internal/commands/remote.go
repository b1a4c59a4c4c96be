package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"connectrpc.com/connect"
	"github.com/wolfeidau/sitefront/internal/api"
	"github.com/wolfeidau/sitefront/internal/logger"
)

type ShellCmd struct {
	RemoteFlags `embed:""`

	out io.Writer
}

func (s *ShellCmd) Run(ctx context.Context, globals *Globals) error {
	resp, err := s.clients(globals).GetAppShell.CallUnary(ctx, connect.NewRequest(&api.GetAppShellRequest{TenantRef: s.ref()}))
	if err != nil {
		return fmt.Errorf("failed to get app shell: %w", err)
	}
	logCache(globals, resp.Header().Get("X-From-Cache"), resp.Header().Get("ETag"))

	return printJSON(s.out, resp.Msg)
}

type PageCmd struct {
	RemoteFlags `embed:""`
	Slug        string `help:"Page slug" default:"home"`

	out io.Writer
}

func (p *PageCmd) Run(ctx context.Context, globals *Globals) error {
	resp, err := p.clients(globals).GetPage.CallUnary(ctx, connect.NewRequest(&api.GetPageRequest{TenantRef: p.ref(), Slug: p.Slug}))
	if err != nil {
		return fmt.Errorf("failed to get page: %w", err)
	}
	logCache(globals, resp.Header().Get("X-From-Cache"), resp.Header().Get("ETag"))

	return printJSON(p.out, resp.Msg)
}

type PagesCmd struct {
	RemoteFlags `embed:""`

	out io.Writer
}

func (p *PagesCmd) Run(ctx context.Context, globals *Globals) error {
	resp, err := p.clients(globals).ListPages.CallUnary(ctx, connect.NewRequest(&api.ListPagesRequest{TenantRef: p.ref()}))
	if err != nil {
		return fmt.Errorf("failed to list pages: %w", err)
	}
	logCache(globals, resp.Header().Get("X-From-Cache"), resp.Header().Get("ETag"))

	w := tabwriter.NewWriter(output(p.out), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSLUG\tTITLE")
	for _, page := range resp.Msg.Pages {
		fmt.Fprintf(w, "%s\t%s\t%s\n", page.String("id"), page.String("slug"), page.String("title"))
	}
	return w.Flush()
}

type SectionCmd struct {
	RemoteFlags `embed:""`
	ID          string `arg:"" help:"Section id"`
	Items       bool   `help:"Fetch the section items instead of its content" default:"false"`

	out io.Writer
}

func (s *SectionCmd) Run(ctx context.Context, globals *Globals) error {
	if s.ID == "" {
		return errors.New("section id is required")
	}

	clients := s.clients(globals)
	req := connect.NewRequest(&api.GetSectionRequest{TenantRef: s.ref(), SectionID: s.ID})

	if s.Items {
		resp, err := clients.GetSectionItems.CallUnary(ctx, req)
		if err != nil {
			return fmt.Errorf("failed to get section items: %w", err)
		}
		return printJSON(s.out, resp.Msg.Items)
	}

	resp, err := clients.GetSectionContent.CallUnary(ctx, req)
	if err != nil {
		return fmt.Errorf("failed to get section content: %w", err)
	}
	return printJSON(s.out, resp.Msg.Content)
}

func logCache(globals *Globals, fromCache, etag string) {
	if !globals.Debug {
		return
	}
	log := logger.Setup(true)
	log.Debug().Bool("from_cache", fromCache == "1").Str("etag", etag).Msg("Response received")
}
