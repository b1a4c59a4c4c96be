package components

func bind(sectionType, variant, name, layout string) Binding {
	return Binding{
		Key:  Key{Type: sectionType, Variant: variant},
		Unit: Unit{Name: name, Template: sectionType, Layout: layout},
	}
}

// catalog is the fixed set of render units shipped with the server.
var catalog = []Binding{
	bind("header", "1", "Header1", "inline"),
	bind("header", "2", "Header2", "centered"),
	bind("header", "3", "Header3", "split"),
	bind("header", "4", "Header4", "minimal"),
	bind("header", "5", "Header5", "banner"),

	bind("hero", "1", "Hero1", "centered"),
	bind("hero", "2", "Hero2", "split"),
	bind("hero", "3", "Hero3", "fullbleed"),

	bind("about", "1", "About1", "stacked"),
	bind("about", "2", "About2", "split"),

	bind("services", "1", "Services1", "grid"),
	bind("services", "2", "Services2", "list"),

	bind("testimonial", "1", "Testimonial1", "grid"),
	bind("testimonial", "2", "Testimonial2", "carousel"),

	bind("faq", "1", "FAQ1", "accordion"),

	bind("contact", "1", "Contact1", "stacked"),

	bind("footer", "1", "Footer1", "simple"),
	bind("footer", "2", "Footer2", "columns"),
	bind("footer", "3", "Footer3", "dark"),

	bind("gallery", "1", "Gallery1", "grid"),
	bind("gallery", "2", "Gallery2", "masonry"),

	bind("features", "1", "Features1", "grid"),
	bind("features", "2", "Features2", "list"),

	bind("pricing", "1", "Pricing1", "table"),
	bind("pricing", "2", "Pricing2", "cards"),

	bind("cta", "1", "CTA1", "banner"),
	bind("cta", "2", "CTA2", "split"),

	bind("team", "1", "Team1", "grid"),
	bind("team", "2", "Team2", "list"),
}

// DefaultCatalog returns a frozen registry holding the built-in render units.
func DefaultCatalog() *Registry {
	r := NewRegistry()
	if err := r.Register(catalog...); err != nil {
		// the catalog is static, a collision is a programming error
		panic(err)
	}
	r.Freeze()
	return r
}
