package content

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ID identifies a site, page or section. Documents may carry ids as numbers or
// strings, both are normalised to their decimal or literal text form.
type ID string

func idOf(v any) ID {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return ID(t)
	case json.Number:
		return ID(t.String())
	case float64:
		return ID(strconv.FormatFloat(t, 'f', -1, 64))
	case int:
		return ID(strconv.Itoa(t))
	case int64:
		return ID(strconv.FormatInt(t, 10))
	case uint64:
		return ID(strconv.FormatUint(t, 10))
	default:
		return ID(fmt.Sprint(t))
	}
}

// Record is a free-form mapping of document fields.
type Record map[string]any

// String returns the field as text, or "" when absent or not a scalar.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number, float64, int, int64, uint64, bool:
		return fmt.Sprint(v)
	default:
		return ""
	}
}

// Clone returns a deep copy of the record. A nil record clones to nil.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = cloneValue(v)
	}
	return out
}

// Without returns a deep copy of the record minus the named keys.
func (r Record) Without(keys ...string) Record {
	out := r.Clone()
	if out == nil {
		out = Record{}
	}
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

func cloneValue(v any) any {
	switch t := v.(type) {
	case Record:
		return t.Clone()
	case map[string]any:
		return map[string]any(Record(t).Clone())
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = cloneValue(e)
		}
		return out
	case []Record:
		return cloneRecords(t)
	default:
		return v
	}
}

func cloneRecords(in []Record) []Record {
	if in == nil {
		return nil
	}
	out := make([]Record, len(in))
	for i, r := range in {
		out[i] = r.Clone()
	}
	return out
}

// Site is the tenant record: one logical website keyed by its subdomain.
type Site struct {
	ID        ID
	Subdomain string
	IsActive  bool
	Fields    Record
}

// SiteMeta holds descriptive metadata for a site.
type SiteMeta struct {
	SiteID ID
	Fields Record
}

// SiteConfig holds per-site configuration.
type SiteConfig struct {
	SiteID ID
	Fields Record
}

// Theme holds colour and style settings for a site.
type Theme struct {
	SiteID       ID
	PrimaryColor string
	Fields       Record
}

// Page is a page of the site. Fields never contains the sections list.
type Page struct {
	ID       ID
	Slug     string
	Fields   Record
	Sections []Section
}

// Section is one presentational block of a page. Fields never contains content
// or items, those are held separately.
type Section struct {
	ID      ID
	Type    string
	Variant string
	Content Record
	Items   []Record
	Fields  Record
}

// Document is the complete content tree for one tenant.
type Document struct {
	Site     Site
	SiteMeta SiteMeta
	Config   SiteConfig
	Theme    Theme
	// Pages are held in document order.
	Pages []Page
}

// Page returns the page stored under slug.
func (d *Document) Page(slug string) (Page, bool) {
	for _, p := range d.Pages {
		if p.Slug == slug {
			return p, true
		}
	}
	return Page{}, false
}

// Clone returns a deep copy of the document.
func (d *Document) Clone() *Document {
	out := &Document{
		Site:     d.Site.Clone(),
		SiteMeta: SiteMeta{SiteID: d.SiteMeta.SiteID, Fields: d.SiteMeta.Fields.Clone()},
		Config:   SiteConfig{SiteID: d.Config.SiteID, Fields: d.Config.Fields.Clone()},
		Theme:    d.Theme.Clone(),
		Pages:    make([]Page, len(d.Pages)),
	}
	for i, p := range d.Pages {
		out.Pages[i] = p.Clone()
	}
	return out
}

func (s Site) Clone() Site {
	s.Fields = s.Fields.Clone()
	return s
}

func (t Theme) Clone() Theme {
	t.Fields = t.Fields.Clone()
	return t
}

func (p Page) Clone() Page {
	p.Fields = p.Fields.Clone()
	if p.Sections != nil {
		sections := make([]Section, len(p.Sections))
		for i, s := range p.Sections {
			sections[i] = s.Clone()
		}
		p.Sections = sections
	}
	return p
}

func (s Section) Clone() Section {
	s.Fields = s.Fields.Clone()
	s.Content = s.Content.Clone()
	s.Items = cloneRecords(s.Items)
	return s
}

// Summary returns the section fields without content and items.
func (s Section) Summary() Record {
	return s.Fields.Without()
}

// Record returns the section as it appears in the document.
func (s Section) Record() Record {
	out := s.Fields.Without()
	if s.Content != nil {
		out["content"] = s.Content.Clone()
	}
	if s.Items != nil {
		out["items"] = cloneRecords(s.Items)
	}
	return out
}

// Record returns the page as it appears in the document, sections included.
func (p Page) Record() Record {
	out := p.Fields.Without()
	if p.Sections != nil {
		sections := make([]Record, len(p.Sections))
		for i, s := range p.Sections {
			sections[i] = s.Record()
		}
		out["sections"] = sections
	}
	return out
}

func (s Site) MarshalJSON() ([]byte, error)       { return marshalRecord(s.Fields) }
func (m SiteMeta) MarshalJSON() ([]byte, error)   { return marshalRecord(m.Fields) }
func (c SiteConfig) MarshalJSON() ([]byte, error) { return marshalRecord(c.Fields) }
func (t Theme) MarshalJSON() ([]byte, error)      { return marshalRecord(t.Fields) }
func (s Section) MarshalJSON() ([]byte, error)    { return marshalRecord(s.Record()) }
func (p Page) MarshalJSON() ([]byte, error)       { return marshalRecord(p.Record()) }

func (s *Site) UnmarshalJSON(data []byte) error {
	rec, err := unmarshalRecord(data)
	if err != nil {
		return err
	}
	*s = siteFrom(rec)
	return nil
}

func (m *SiteMeta) UnmarshalJSON(data []byte) error {
	rec, err := unmarshalRecord(data)
	if err != nil {
		return err
	}
	*m = SiteMeta{SiteID: idOf(rec["site_id"]), Fields: rec}
	return nil
}

func (c *SiteConfig) UnmarshalJSON(data []byte) error {
	rec, err := unmarshalRecord(data)
	if err != nil {
		return err
	}
	*c = SiteConfig{SiteID: idOf(rec["site_id"]), Fields: rec}
	return nil
}

func (t *Theme) UnmarshalJSON(data []byte) error {
	rec, err := unmarshalRecord(data)
	if err != nil {
		return err
	}
	*t = themeFrom(rec)
	return nil
}

func (s *Section) UnmarshalJSON(data []byte) error {
	rec, err := unmarshalRecord(data)
	if err != nil {
		return err
	}
	section, err := sectionFrom(rec)
	if err != nil {
		return err
	}
	*s = section
	return nil
}

// MarshalJSON writes the document with its pages as an ordered mapping.
func (d *Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	parts := []struct {
		key   string
		value any
	}{
		{"site", d.Site},
		{"siteMeta", d.SiteMeta},
		{"config", d.Config},
		{"theme", d.Theme},
	}
	for _, part := range parts {
		b, err := json.Marshal(part.value)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%q:", part.key)
		buf.Write(b)
		buf.WriteByte(',')
	}
	buf.WriteString(`"pages":{`)
	for i, p := range d.Pages {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(p.Slug)
		if err != nil {
			return nil, err
		}
		b, err := json.Marshal(p)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(b)
	}
	buf.WriteString("}}")
	return buf.Bytes(), nil
}

func (d *Document) UnmarshalJSON(data []byte) error {
	doc, err := Parse(data, FormatJSON)
	if err != nil {
		return err
	}
	*d = *doc
	return nil
}

func marshalRecord(r Record) ([]byte, error) {
	if r == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(map[string]any(r))
}

func unmarshalRecord(data []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	if m == nil {
		m = map[string]any{}
	}
	return Record(m), nil
}
