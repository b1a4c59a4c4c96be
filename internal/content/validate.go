package content

import "fmt"

// Validate reports consistency problems in a parsed document. A document with
// problems still loads; the server logs them and sitectl fails on them.
func Validate(doc *Document) []error {
	var errs []error

	siteID := doc.Site.ID
	if siteID == "" {
		errs = append(errs, fmt.Errorf("%w: site.id is empty", ErrInvariant))
	}
	check := func(name string, id ID) {
		if id != siteID {
			errs = append(errs, fmt.Errorf("%w: %s.site_id %q does not match site.id %q", ErrInvariant, name, id, siteID))
		}
	}
	check("siteMeta", doc.SiteMeta.SiteID)
	check("config", doc.Config.SiteID)
	check("theme", doc.Theme.SiteID)

	slugs := map[string]struct{}{}
	pageIDs := map[ID]string{}
	sectionIDs := map[ID]string{}
	for _, page := range doc.Pages {
		if _, ok := slugs[page.Slug]; ok {
			errs = append(errs, fmt.Errorf("%w: page slug %q used twice", ErrInvariant, page.Slug))
		}
		slugs[page.Slug] = struct{}{}
		if slug := page.Fields.String("slug"); slug != "" && slug != page.Slug {
			errs = append(errs, fmt.Errorf("%w: page %q declares slug %q", ErrInvariant, page.Slug, slug))
		}
		if page.ID != "" {
			if other, ok := pageIDs[page.ID]; ok {
				errs = append(errs, fmt.Errorf("%w: page id %q used by %q and %q", ErrInvariant, page.ID, other, page.Slug))
			}
			pageIDs[page.ID] = page.Slug
		}

		for i, section := range page.Sections {
			if section.Type == "" {
				errs = append(errs, fmt.Errorf("%w: page %q section %d has no type", ErrInvariant, page.Slug, i))
			}
			if section.ID == "" {
				continue
			}
			if other, ok := sectionIDs[section.ID]; ok {
				errs = append(errs, fmt.Errorf("%w: section id %q used on %q and %q", ErrInvariant, section.ID, other, page.Slug))
				continue
			}
			sectionIDs[section.ID] = page.Slug
		}
	}

	return errs
}
