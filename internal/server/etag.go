package server

import (
	"net/http"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/wolfeidau/sitefront/internal/content"
)

func documentETag(store *content.Store) string {
	return `"` + store.Fingerprint() + `"`
}

func pageETag(store *content.Store, key string) string {
	return `"` + store.Fingerprint() + "." + key + `"`
}

// etagMatch implements the weak comparison If-None-Match uses.
func etagMatch(ifNoneMatch, etag string) bool {
	if ifNoneMatch == "" {
		return false
	}
	if strings.TrimSpace(ifNoneMatch) == "*" {
		return true
	}
	for _, candidate := range strings.Split(ifNoneMatch, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == strings.TrimPrefix(etag, "W/") {
			return true
		}
	}
	return false
}

// conditional turns a successful GET response into 304 Not Modified when the
// ETag the handler set matches If-None-Match. Failed lookups keep their
// status so a stale validator never hides a missing tenant or page.
func conditional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		inm := r.Header.Get("If-None-Match")
		if r.Method != http.MethodGet || inm == "" {
			next.ServeHTTP(w, r)
			return
		}

		var wroteHeader, suppressed bool
		writeHeader := func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(code int) {
				if wroteHeader {
					return
				}
				wroteHeader = true

				h := w.Header()
				if code == http.StatusOK && etagMatch(inm, h.Get("ETag")) {
					h.Del("Content-Type")
					h.Del("Content-Length")
					h.Del("Content-Encoding")
					suppressed = true
					code = http.StatusNotModified
				}
				next(code)
			}
		}

		var ww http.ResponseWriter
		ww = httpsnoop.Wrap(w, httpsnoop.Hooks{
			WriteHeader: writeHeader,
			Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
				return func(p []byte) (int, error) {
					if !wroteHeader {
						ww.WriteHeader(http.StatusOK)
					}
					if suppressed {
						return len(p), nil
					}
					return next(p)
				}
			},
			Flush: func(next httpsnoop.FlushFunc) httpsnoop.FlushFunc {
				return func() {
					if !suppressed {
						next()
					}
				}
			},
		})
		next.ServeHTTP(ww, r)
	})
}
