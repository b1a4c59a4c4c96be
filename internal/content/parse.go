package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is the serialisation of a site document.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

func (f Format) String() string {
	switch f {
	case FormatJSON:
		return "json"
	case FormatYAML:
		return "yaml"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

const zstdSuffix = ".zst"

// FormatOf infers the document format from a file name. A trailing ".zst"
// reports the document as zstd compressed.
func FormatOf(path string) (format Format, compressed bool, err error) {
	name := strings.ToLower(filepath.Base(path))
	if strings.HasSuffix(name, zstdSuffix) {
		compressed = true
		name = strings.TrimSuffix(name, zstdSuffix)
	}

	switch filepath.Ext(name) {
	case ".json":
		return FormatJSON, compressed, nil
	case ".yaml", ".yml":
		return FormatYAML, compressed, nil
	default:
		return 0, false, &DocumentError{Source: path, Reason: "unsupported document extension"}
	}
}

var topLevelKeys = []string{"site", "siteMeta", "config", "theme", "pages"}

// entry is one key of an ordered mapping.
type entry struct {
	key   string
	value any
}

// Parse decodes a site document. Page order follows the order of the pages
// mapping in the source.
func Parse(data []byte, format Format) (*Document, error) {
	var (
		top   map[string]any
		pages []entry
		err   error
	)

	switch format {
	case FormatJSON:
		top, pages, err = parseJSON(data)
	case FormatYAML:
		top, pages, err = parseYAML(data)
	default:
		return nil, &DocumentError{Reason: fmt.Sprintf("unsupported format %s", format)}
	}
	if err != nil {
		return nil, err
	}

	return build(top, pages)
}

func parseJSON(data []byte) (map[string]any, []entry, error) {
	raw, err := orderedObject(data)
	if err != nil {
		return nil, nil, &DocumentError{Reason: "malformed json", Err: err}
	}

	if err := uniqueKeys("top-level key", raw); err != nil {
		return nil, nil, err
	}

	top := make(map[string]any, len(raw))
	var pages []entry
	for _, kv := range raw {
		msg := kv.value.(json.RawMessage)
		if kv.key == "pages" {
			items, err := orderedObject(msg)
			if err != nil {
				return nil, nil, &DocumentError{Reason: "pages must be a mapping of slug to page", Err: err}
			}
			if err := uniqueKeys("page slug", items); err != nil {
				return nil, nil, err
			}
			for _, item := range items {
				v, err := decodeValue(item.value.(json.RawMessage))
				if err != nil {
					return nil, nil, &DocumentError{Reason: fmt.Sprintf("malformed page %q", item.key), Err: err}
				}
				pages = append(pages, entry{key: item.key, value: v})
			}
			top[kv.key] = struct{}{}
			continue
		}

		v, err := decodeValue(msg)
		if err != nil {
			return nil, nil, &DocumentError{Reason: fmt.Sprintf("malformed %s", kv.key), Err: err}
		}
		top[kv.key] = v
	}

	return top, pages, nil
}

// uniqueKeys rejects a mapping that repeats a key. Decoders disagree on
// which duplicate wins, so the document is refused instead.
func uniqueKeys(what string, entries []entry) error {
	seen := make(map[string]struct{}, len(entries))
	for _, e := range entries {
		if _, ok := seen[e.key]; ok {
			return &DocumentError{Reason: fmt.Sprintf("duplicate %s %q", what, e.key)}
		}
		seen[e.key] = struct{}{}
	}
	return nil
}

// mappingKeys lists the keys of a YAML mapping node in source order.
func mappingKeys(n *yaml.Node) []entry {
	keys := make([]entry, 0, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		keys = append(keys, entry{key: n.Content[i].Value})
	}
	return keys
}

// orderedObject splits a JSON object into its members, keeping source order.
func orderedObject(data []byte) ([]entry, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected an object")
	}

	var out []entry
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		out = append(out, entry{key: key, value: raw})
	}

	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

func decodeValue(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	return v, nil
}

func parseYAML(data []byte) (map[string]any, []entry, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, nil, &DocumentError{Reason: "malformed yaml", Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 || root.Content[0].Kind != yaml.MappingNode {
		return nil, nil, &DocumentError{Reason: "document must be a mapping"}
	}

	top := map[string]any{}
	var pages []entry
	body := root.Content[0]
	if err := uniqueKeys("top-level key", mappingKeys(body)); err != nil {
		return nil, nil, err
	}
	for i := 0; i+1 < len(body.Content); i += 2 {
		key, value := body.Content[i].Value, body.Content[i+1]
		if key == "pages" {
			if value.Kind != yaml.MappingNode {
				return nil, nil, &DocumentError{Reason: "pages must be a mapping of slug to page"}
			}
			if err := uniqueKeys("page slug", mappingKeys(value)); err != nil {
				return nil, nil, err
			}
			for j := 0; j+1 < len(value.Content); j += 2 {
				v, err := nodeValue(value.Content[j+1])
				if err != nil {
					return nil, nil, &DocumentError{Reason: fmt.Sprintf("malformed page %q", value.Content[j].Value), Err: err}
				}
				pages = append(pages, entry{key: value.Content[j].Value, value: v})
			}
			top[key] = struct{}{}
			continue
		}

		v, err := nodeValue(value)
		if err != nil {
			return nil, nil, &DocumentError{Reason: fmt.Sprintf("malformed %s", key), Err: err}
		}
		top[key] = v
	}

	return top, pages, nil
}

// nodeValue converts a YAML node into the same generic shapes the JSON decoder
// produces.
func nodeValue(n *yaml.Node) (any, error) {
	switch n.Kind {
	case yaml.AliasNode:
		return nodeValue(n.Alias)
	case yaml.MappingNode:
		out := make(map[string]any, len(n.Content)/2)
		for i := 0; i+1 < len(n.Content); i += 2 {
			v, err := nodeValue(n.Content[i+1])
			if err != nil {
				return nil, err
			}
			out[n.Content[i].Value] = v
		}
		return out, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := nodeValue(c)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, err
		}
		return v, nil
	}
}

func build(top map[string]any, pages []entry) (*Document, error) {
	for _, key := range topLevelKeys {
		if _, ok := top[key]; !ok {
			return nil, &DocumentError{Reason: fmt.Sprintf("missing top-level key %q", key)}
		}
	}

	records := map[string]Record{}
	for _, key := range topLevelKeys[:4] {
		m, ok := top[key].(map[string]any)
		if !ok {
			return nil, &DocumentError{Reason: fmt.Sprintf("%s must be a mapping", key)}
		}
		records[key] = Record(m)
	}

	doc := &Document{
		Site:     siteFrom(records["site"]),
		SiteMeta: SiteMeta{SiteID: idOf(records["siteMeta"]["site_id"]), Fields: records["siteMeta"]},
		Config:   SiteConfig{SiteID: idOf(records["config"]["site_id"]), Fields: records["config"]},
		Theme:    themeFrom(records["theme"]),
		Pages:    make([]Page, 0, len(pages)),
	}
	if doc.Site.Subdomain == "" {
		return nil, &DocumentError{Reason: "site.subdomain is required"}
	}

	for _, p := range pages {
		m, ok := p.value.(map[string]any)
		if !ok {
			return nil, &DocumentError{Reason: fmt.Sprintf("page %q must be a mapping", p.key)}
		}
		page, err := pageFrom(p.key, Record(m))
		if err != nil {
			return nil, err
		}
		doc.Pages = append(doc.Pages, page)
	}

	return doc, nil
}

func siteFrom(rec Record) Site {
	active, _ := rec["is_active"].(bool)
	return Site{
		ID:        idOf(rec["id"]),
		Subdomain: rec.String("subdomain"),
		IsActive:  active,
		Fields:    rec,
	}
}

func themeFrom(rec Record) Theme {
	return Theme{
		SiteID:       idOf(rec["site_id"]),
		PrimaryColor: rec.String("primary_color"),
		Fields:       rec,
	}
}

func pageFrom(slug string, rec Record) (Page, error) {
	page := Page{
		ID:     idOf(rec["id"]),
		Slug:   slug,
		Fields: rec.Without("sections"),
	}

	raw, ok := rec["sections"]
	if !ok || raw == nil {
		return page, nil
	}
	list, ok := raw.([]any)
	if !ok {
		return Page{}, &DocumentError{Reason: fmt.Sprintf("page %q sections must be a sequence", slug)}
	}

	page.Sections = make([]Section, 0, len(list))
	for i, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			return Page{}, &DocumentError{Reason: fmt.Sprintf("page %q section %d must be a mapping", slug, i)}
		}
		section, err := sectionFrom(Record(m))
		if err != nil {
			return Page{}, &DocumentError{Reason: fmt.Sprintf("page %q section %d", slug, i), Err: err}
		}
		page.Sections = append(page.Sections, section)
	}

	return page, nil
}

func sectionFrom(rec Record) (Section, error) {
	section := Section{
		ID:      idOf(rec["id"]),
		Type:    rec.String("type"),
		Variant: string(idOf(rec["variant"])),
		Fields:  rec.Without("content", "items"),
	}

	switch c := rec["content"].(type) {
	case nil:
	case map[string]any:
		section.Content = Record(c).Clone()
	case Record:
		section.Content = c.Clone()
	default:
		return Section{}, errors.New("content must be a mapping")
	}

	switch items := rec["items"].(type) {
	case nil:
	case []any:
		section.Items = make([]Record, 0, len(items))
		for _, item := range items {
			m, ok := item.(map[string]any)
			if !ok {
				return Section{}, errors.New("items must be a sequence of mappings")
			}
			section.Items = append(section.Items, Record(m).Clone())
		}
	case []Record:
		section.Items = cloneRecords(items)
	default:
		return Section{}, errors.New("items must be a sequence")
	}

	return section, nil
}
