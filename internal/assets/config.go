package assets

type Config struct {
	// Entry point glob pattern (e.g., "ui/pages/*.ts")
	EntryPointGlob string
	// Entry point bundled into every rendered page
	SiteEntryPoint string
	// Output directory for built files, served under /public/
	OutputDir string
	// Path to metafile
	MetafilePath string
	// Whether to minify output
	Minify bool
	// Whether to enable source maps
	SourceMap bool
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() Config {
	return Config{
		EntryPointGlob: "ui/pages/*.ts",
		SiteEntryPoint: "ui/pages/site.ts",
		OutputDir:      "public",
		MetafilePath:   "public/meta.json",
		Minify:         true,
		SourceMap:      true,
	}
}
