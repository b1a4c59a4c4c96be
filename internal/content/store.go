package content

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/minio/crc64nvme"
	"github.com/mr-tron/base58"
)

//go:embed bundled/*.json
var bundled embed.FS

// Store owns one immutable site document for the life of the process.
type Store struct {
	mu          sync.RWMutex
	doc         *Document
	fingerprint string
	source      string
}

// NewStore wraps an already parsed document. raw is the serialised form used
// for the fingerprint, when nil the document is marshalled instead.
func NewStore(doc *Document, raw []byte) *Store {
	if raw == nil {
		raw, _ = json.Marshal(doc)
	}
	return &Store{
		doc:         doc,
		fingerprint: Fingerprint(raw),
		source:      "memory",
	}
}

// Open loads a document from disk, inferring the format from the file name.
func Open(filename string) (*Store, error) {
	format, compressed, err := FormatOf(filename)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}

	if compressed {
		data, err = decompress(data)
		if err != nil {
			return nil, &DocumentError{Source: filename, Reason: "zstd decode failed", Err: err}
		}
	}

	doc, err := Parse(data, format)
	if err != nil {
		return nil, withSource(err, filename)
	}

	store := NewStore(doc, data)
	store.source = filename
	return store, nil
}

// OpenBundled loads a document compiled into the binary.
func OpenBundled(name string) (*Store, error) {
	source := "bundled:" + name
	data, err := bundled.ReadFile(path.Join("bundled", name+".json"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &DocumentError{Source: source, Reason: "no such bundled document"}
		}
		return nil, fmt.Errorf("failed to read bundled document: %w", err)
	}

	doc, err := Parse(data, FormatJSON)
	if err != nil {
		return nil, withSource(err, source)
	}

	store := NewStore(doc, data)
	store.source = source
	return store, nil
}

// Bundled lists the names of documents compiled into the binary.
func Bundled() []string {
	entries, _ := bundled.ReadDir("bundled")
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(names)
	return names
}

// Document returns the shared tree. Callers must treat it as read-only.
func (s *Store) Document() (*Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.doc == nil {
		return nil, ErrClosed
	}
	return s.doc, nil
}

// Fingerprint identifies the loaded document content.
func (s *Store) Fingerprint() string {
	return s.fingerprint
}

// Source names where the document was loaded from.
func (s *Store) Source() string {
	return s.source
}

// Close releases the document. It is safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.doc = nil
	return nil
}

// Fingerprint computes the base58 encoded CRC64-NVME checksum of data.
func Fingerprint(data []byte) string {
	h := crc64nvme.New()
	h.Write(data)
	return base58.Encode(h.Sum(nil))
}

func decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()

	return dec.DecodeAll(data, nil)
}
