package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/wolfeidau/sitefront/internal/components"
	"github.com/wolfeidau/sitefront/internal/content"
)

type ValidateCmd struct {
	Document string `arg:"" optional:"" help:"Site document (.json, .yaml, optionally .zst compressed)" type:"path"`
	Bundled  string `help:"Validate a bundled document instead of a file" default:""`

	out io.Writer
}

func (v *ValidateCmd) Run(ctx context.Context, globals *Globals) error {
	var (
		store *content.Store
		err   error
	)
	switch {
	case v.Document != "":
		store, err = content.Open(v.Document)
	case v.Bundled != "":
		store, err = content.OpenBundled(v.Bundled)
	default:
		return fmt.Errorf("a document path or --bundled is required (bundled: %s)", strings.Join(content.Bundled(), ", "))
	}
	if err != nil {
		return err
	}
	defer store.Close()

	doc, err := store.Document()
	if err != nil {
		return err
	}

	out := output(v.out)
	fmt.Fprintf(out, "Source:      %s\n", store.Source())
	fmt.Fprintf(out, "Fingerprint: %s\n", store.Fingerprint())
	fmt.Fprintf(out, "Tenant:      %s (active: %t)\n", doc.Site.Subdomain, doc.Site.IsActive)
	fmt.Fprintln(out)

	registry := components.DefaultCatalog()
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PAGE\tSECTION\tCOMPONENT\tUNIT")
	skipped := 0
	for _, page := range doc.Pages {
		for _, section := range page.Sections {
			key := components.Key{Type: section.Type, Variant: section.Variant}
			unit := "(skipped)"
			if u, ok := registry.Resolve(section.Type, section.Variant); ok {
				unit = u.Name
			} else {
				skipped++
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", page.Slug, section.ID, key, unit)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}

	problems := content.Validate(doc)
	fmt.Fprintln(out)
	fmt.Fprintf(out, "%d pages, %d sections skipped, %d problems\n", len(doc.Pages), skipped, len(problems))
	for _, problem := range problems {
		fmt.Fprintf(out, "  - %s\n", problem)
	}

	if len(problems) > 0 {
		return fmt.Errorf("%s: %d invariant violations", store.Source(), len(problems))
	}
	return nil
}
