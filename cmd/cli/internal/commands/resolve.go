package commands

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/wolfeidau/sitefront/internal/tenant"
)

type ResolveCmd struct {
	Hosts  []string     `arg:"" help:"Host header values to resolve"`
	Tenant tenant.Flags `embed:""`

	out io.Writer
}

func (r *ResolveCmd) Run(ctx context.Context, globals *Globals) error {
	opts, err := r.Tenant.Options()
	if err != nil {
		return fmt.Errorf("failed to load tenant options: %w", err)
	}
	resolver := tenant.NewResolver(opts)

	w := tabwriter.NewWriter(output(r.out), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "HOST\tTENANT\tRULE")
	for _, host := range r.Hosts {
		res := resolver.ResolveRule(host)
		fmt.Fprintf(w, "%s\t%s\t%s\n", display(host), res.Key, res.Rule)
	}
	return w.Flush()
}

func display(host string) string {
	if host == "" {
		return `""`
	}
	return host
}
