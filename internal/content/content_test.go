package content

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/require"
)

const minimalJSON = `{
  "site": {"id": 7, "subdomain": "acme", "is_active": true, "name": "Acme"},
  "siteMeta": {"site_id": "7", "title": "Acme Co"},
  "config": {"site_id": 7, "phone": "123"},
  "theme": {"site_id": 7, "primary_color": "#ff0000"},
  "pages": {
    "zeta": {"id": 1, "slug": "zeta", "title": "Zeta"},
    "home": {
      "id": 2,
      "slug": "home",
      "title": "Home",
      "sections": [
        {"id": 10, "type": "hero", "variant": 1, "content": {"heading": "Hi"}},
        {"id": "11", "type": "faq", "variant": "1", "items": [{"question": "Q"}]}
      ]
    },
    "alpha": {"id": 3, "slug": "alpha"}
  }
}`

const minimalYAML = `
site:
  id: 7
  subdomain: acme
  is_active: true
siteMeta:
  site_id: 7
  title: Acme Co
config:
  site_id: 7
theme:
  site_id: 7
  primary_color: "#ff0000"
pages:
  zeta:
    id: 1
    slug: zeta
  home:
    id: 2
    slug: home
    sections:
      - id: 10
        type: hero
        variant: 1
        content:
          heading: Hi
  alpha:
    id: 3
    slug: alpha
`

func slugs(doc *Document) []string {
	out := make([]string, 0, len(doc.Pages))
	for _, p := range doc.Pages {
		out = append(out, p.Slug)
	}
	return out
}

func TestParse_JSON(t *testing.T) {
	doc, err := Parse([]byte(minimalJSON), FormatJSON)
	require.NoError(t, err)

	require.Equal(t, ID("7"), doc.Site.ID)
	require.Equal(t, "acme", doc.Site.Subdomain)
	require.True(t, doc.Site.IsActive)
	require.Equal(t, ID("7"), doc.SiteMeta.SiteID)
	require.Equal(t, "#ff0000", doc.Theme.PrimaryColor)
	require.Equal(t, []string{"zeta", "home", "alpha"}, slugs(doc))

	home, ok := doc.Page("home")
	require.True(t, ok)
	require.Equal(t, ID("2"), home.ID)
	require.NotContains(t, home.Fields, "sections")
	require.Len(t, home.Sections, 2)

	hero := home.Sections[0]
	require.Equal(t, ID("10"), hero.ID)
	require.Equal(t, "hero", hero.Type)
	require.Equal(t, "1", hero.Variant)
	require.Equal(t, "Hi", hero.Content.String("heading"))
	require.NotContains(t, hero.Fields, "content")

	faq := home.Sections[1]
	require.Equal(t, ID("11"), faq.ID)
	require.Equal(t, "1", faq.Variant)
	require.Len(t, faq.Items, 1)
	require.Nil(t, faq.Content)
}

func TestParse_YAML(t *testing.T) {
	doc, err := Parse([]byte(minimalYAML), FormatYAML)
	require.NoError(t, err)

	require.Equal(t, ID("7"), doc.Site.ID)
	require.True(t, doc.Site.IsActive)
	require.Equal(t, []string{"zeta", "home", "alpha"}, slugs(doc))

	home, ok := doc.Page("home")
	require.True(t, ok)
	require.Len(t, home.Sections, 1)
	require.Equal(t, "1", home.Sections[0].Variant)
	require.Equal(t, "Hi", home.Sections[0].Content.String("heading"))
	require.Empty(t, Validate(doc))
}

func TestParse_invalid(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
		reason string
	}{
		{name: "syntax", format: FormatJSON, data: `{"site":`},
		{name: "not an object", format: FormatJSON, data: `[]`},
		{name: "missing pages", format: FormatJSON, data: `{"site":{"subdomain":"a"},"siteMeta":{},"config":{},"theme":{}}`},
		{name: "missing theme", format: FormatJSON, data: `{"site":{"subdomain":"a"},"siteMeta":{},"config":{},"pages":{}}`},
		{name: "missing subdomain", format: FormatJSON, data: `{"site":{"id":1},"siteMeta":{},"config":{},"theme":{},"pages":{}}`},
		{name: "pages not mapping", format: FormatJSON, data: `{"site":{"subdomain":"a"},"siteMeta":{},"config":{},"theme":{},"pages":[]}`},
		{name: "sections not list", format: FormatJSON, data: `{"site":{"subdomain":"a"},"siteMeta":{},"config":{},"theme":{},"pages":{"home":{"sections":{}}}}`},
		{name: "items not mappings", format: FormatJSON, data: `{"site":{"subdomain":"a"},"siteMeta":{},"config":{},"theme":{},"pages":{"home":{"sections":[{"items":[1]}]}}}`},
		{name: "yaml scalar", format: FormatYAML, data: `hello`},
		{
			name:   "duplicate page slug",
			format: FormatJSON,
			data:   `{"site":{"subdomain":"a"},"siteMeta":{},"config":{},"theme":{},"pages":{"home":{"title":"first"},"home":{"title":"second"}}}`,
			reason: `duplicate page slug "home"`,
		},
		{
			name:   "duplicate pages key",
			format: FormatJSON,
			data:   `{"site":{"subdomain":"a"},"siteMeta":{},"config":{},"theme":{},"pages":{"home":{}},"pages":{"about":{}}}`,
			reason: `duplicate top-level key "pages"`,
		},
		{
			name:   "duplicate site key",
			format: FormatJSON,
			data:   `{"site":{"subdomain":"a"},"site":{"subdomain":"b"},"siteMeta":{},"config":{},"theme":{},"pages":{}}`,
			reason: `duplicate top-level key "site"`,
		},
		{
			name:   "yaml duplicate page slug",
			format: FormatYAML,
			data:   "site: {subdomain: a}\nsiteMeta: {}\nconfig: {}\ntheme: {}\npages:\n  home: {title: first}\n  home: {title: second}\n",
		},
		{
			name:   "yaml duplicate pages key",
			format: FormatYAML,
			data:   "site: {subdomain: a}\nsiteMeta: {}\nconfig: {}\ntheme: {}\npages:\n  home: {}\npages:\n  about: {}\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data), tt.format)
			require.Error(t, err)
			require.ErrorIs(t, err, ErrInvalidDocument)

			var docErr *DocumentError
			require.ErrorAs(t, err, &docErr)
			if tt.reason != "" {
				require.Equal(t, tt.reason, docErr.Reason)
			}
		})
	}
}

func TestFormatOf(t *testing.T) {
	tests := []struct {
		path       string
		format     Format
		compressed bool
		wantErr    bool
	}{
		{path: "site.json", format: FormatJSON},
		{path: "/a/b/site.YAML", format: FormatYAML},
		{path: "site.yml", format: FormatYAML},
		{path: "site.json.zst", format: FormatJSON, compressed: true},
		{path: "site.yaml.zst", format: FormatYAML, compressed: true},
		{path: "site.toml", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			format, compressed, err := FormatOf(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidDocument)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.format, format)
			require.Equal(t, tt.compressed, compressed)
		})
	}
}

func TestDocument_MarshalJSONKeepsPageOrder(t *testing.T) {
	doc, err := Parse([]byte(minimalJSON), FormatJSON)
	require.NoError(t, err)

	data, err := json.Marshal(doc)
	require.NoError(t, err)

	again, err := Parse(data, FormatJSON)
	require.NoError(t, err)
	require.Equal(t, slugs(doc), slugs(again))
	require.Equal(t, doc.Site.Fields, again.Site.Fields)

	home, _ := again.Page("home")
	require.Len(t, home.Sections, 2)
	require.Equal(t, "Hi", home.Sections[0].Content.String("heading"))
}

func TestDocument_CloneIsDeep(t *testing.T) {
	doc, err := Parse([]byte(minimalJSON), FormatJSON)
	require.NoError(t, err)

	clone := doc.Clone()
	clone.Site.Fields["name"] = "changed"
	clone.Pages[1].Sections[0].Content["heading"] = "changed"
	clone.Pages[1].Sections[1].Items[0]["question"] = "changed"

	require.Equal(t, "Acme", doc.Site.Fields.String("name"))
	require.Equal(t, "Hi", doc.Pages[1].Sections[0].Content.String("heading"))
	require.Equal(t, "Q", doc.Pages[1].Sections[1].Items[0].String("question"))
}

func TestSection_JSON(t *testing.T) {
	var section Section
	err := json.Unmarshal([]byte(`{"id":5,"type":"cta","variant":2,"content":{"heading":"Go"},"extra":true}`), &section)
	require.NoError(t, err)
	require.Equal(t, ID("5"), section.ID)
	require.Equal(t, "2", section.Variant)
	require.Equal(t, true, section.Fields["extra"])

	data, err := json.Marshal(section)
	require.NoError(t, err)
	require.JSONEq(t, `{"id":5,"type":"cta","variant":2,"content":{"heading":"Go"},"extra":true}`, string(data))
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()

	jsonPath := filepath.Join(dir, "site.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(minimalJSON), 0o600))

	yamlPath := filepath.Join(dir, "site.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(minimalYAML), 0o600))

	enc, err := zstd.NewWriter(nil)
	require.NoError(t, err)
	zstPath := filepath.Join(dir, "site.json.zst")
	require.NoError(t, os.WriteFile(zstPath, enc.EncodeAll([]byte(minimalJSON), nil), 0o600))
	require.NoError(t, enc.Close())

	for _, path := range []string{jsonPath, yamlPath, zstPath} {
		t.Run(filepath.Base(path), func(t *testing.T) {
			store, err := Open(path)
			require.NoError(t, err)
			require.Equal(t, path, store.Source())

			doc, err := store.Document()
			require.NoError(t, err)
			require.Equal(t, "acme", doc.Site.Subdomain)
			require.Equal(t, []string{"zeta", "home", "alpha"}, slugs(doc))
		})
	}

	jsonStore, err := Open(jsonPath)
	require.NoError(t, err)
	zstStore, err := Open(zstPath)
	require.NoError(t, err)
	require.Equal(t, jsonStore.Fingerprint(), zstStore.Fingerprint())
}

func TestOpen_errors(t *testing.T) {
	dir := t.TempDir()

	_, err := Open(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrInvalidDocument)

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"site":{}}`), 0o600))
	_, err = Open(bad)
	require.ErrorIs(t, err, ErrInvalidDocument)
	require.Contains(t, err.Error(), bad)
}

func TestOpenBundled(t *testing.T) {
	require.Contains(t, Bundled(), "d2d")

	store, err := OpenBundled("d2d")
	require.NoError(t, err)

	doc, err := store.Document()
	require.NoError(t, err)
	require.Equal(t, "d2d", doc.Site.Subdomain)
	require.True(t, doc.Site.IsActive)
	require.Equal(t, "home", doc.Pages[0].Slug)
	require.Empty(t, Validate(doc))

	_, err = OpenBundled("nope")
	require.ErrorIs(t, err, ErrInvalidDocument)
}

func TestStore_Close(t *testing.T) {
	doc, err := Parse([]byte(minimalJSON), FormatJSON)
	require.NoError(t, err)

	store := NewStore(doc, nil)
	require.NotEmpty(t, store.Fingerprint())

	require.NoError(t, store.Close())
	require.NoError(t, store.Close())

	_, err = store.Document()
	require.ErrorIs(t, err, ErrClosed)
}

func TestFingerprint(t *testing.T) {
	a := Fingerprint([]byte("one"))
	require.Equal(t, a, Fingerprint([]byte("one")))
	require.NotEqual(t, a, Fingerprint([]byte("two")))
}

func TestValidate(t *testing.T) {
	doc, err := Parse([]byte(`{
  "site": {"id": 1, "subdomain": "a"},
  "siteMeta": {"site_id": 2},
  "config": {"site_id": 1},
  "theme": {"site_id": 1},
  "pages": {
    "home": {"id": 1, "slug": "index", "sections": [{"id": 9, "type": "hero"}, {"id": 10}]},
    "about": {"id": 1, "slug": "about", "sections": [{"id": 9, "type": "about"}]}
  }
}`), FormatJSON)
	require.NoError(t, err)

	errs := Validate(doc)
	require.Len(t, errs, 5)
	for _, e := range errs {
		require.ErrorIs(t, e, ErrInvariant)
	}
	require.Contains(t, errs[0].Error(), "siteMeta.site_id")
}

func TestValidate_duplicateSlug(t *testing.T) {
	doc := &Document{
		Site:     Site{ID: "1", Subdomain: "a"},
		SiteMeta: SiteMeta{SiteID: "1"},
		Config:   SiteConfig{SiteID: "1"},
		Theme:    Theme{SiteID: "1"},
		Pages: []Page{
			{ID: "1", Slug: "home"},
			{ID: "2", Slug: "home"},
		},
	}

	errs := Validate(doc)
	require.Len(t, errs, 1)
	require.ErrorIs(t, errs[0], ErrInvariant)
	require.Contains(t, errs[0].Error(), `page slug "home" used twice`)
}
