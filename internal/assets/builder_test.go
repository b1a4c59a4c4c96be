package assets

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPipeline_LoadScripts(t *testing.T) {
	p := New(DefaultConfig())

	_, _, err := p.LoadScripts("ui/pages/site.ts")
	require.Error(t, err)
	require.Nil(t, p.SiteScripts())

	p.metadata = &BuildMetadata{Outputs: map[string]OutputInfo{
		"public/site.js": {
			EntryPoint: "ui/pages/site.ts",
			Imports:    []ImportInfo{{Path: "public/chunk-a.js"}, {Path: "public/chunk-b.js"}},
		},
		"public/chunk-a.js": {Imports: []ImportInfo{{Path: "public/chunk-c.js"}, {Path: "public/chunk-b.js"}}},
		"public/chunk-b.js": {},
		"public/chunk-c.js": {},
	}}

	scripts, entry, err := p.LoadScripts("ui/pages/site.ts")
	require.NoError(t, err)
	require.Equal(t, "/public/site.js", entry)
	require.Equal(t, []string{"/public/site.js", "/public/chunk-a.js", "/public/chunk-c.js", "/public/chunk-b.js"}, scripts)
	require.Equal(t, scripts, p.SiteScripts())

	_, _, err = p.LoadScripts("ui/pages/other.ts")
	require.Error(t, err)
}

func TestPipeline_Build(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "ui"), 0o750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ui", "site.ts"), []byte(`const n: number = 1; console.log(n);`), 0o600))

	p := New(Config{
		EntryPointGlob: filepath.Join(dir, "ui", "*.ts"),
		OutputDir:      filepath.Join(dir, "out"),
		MetafilePath:   filepath.Join(dir, "out", "meta.json"),
	})
	require.NoError(t, p.Build())
	require.NotNil(t, p.metadata)
	require.NotEmpty(t, p.metadata.Outputs)
	require.FileExists(t, filepath.Join(dir, "out", "meta.json"))
	require.FileExists(t, filepath.Join(dir, "out", "site.js"))
}

func TestPipeline_BuildNoEntryPoints(t *testing.T) {
	p := New(Config{EntryPointGlob: filepath.Join(t.TempDir(), "*.ts")})
	require.Error(t, p.Build())
}

func TestPipeline_FileServer(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "site.js"), []byte("console.log(1)"), 0o600))

	p := New(Config{OutputDir: dir})
	rec := httptest.NewRecorder()
	p.FileServer().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/site.js", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "console.log(1)", rec.Body.String())
}

func TestCond(t *testing.T) {
	require.Equal(t, "a", cond(true, "a", "b"))
	require.Equal(t, "b", cond(false, "a", "b"))
}
