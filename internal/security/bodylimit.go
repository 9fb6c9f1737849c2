package security

import (
	"net/http"
	"strings"

	"github.com/noah-isme/toko-billing/internal/common"
)

// BodyLimit caps JSON request bodies. Paths under SkipPrefixes are left to
// their handlers; webhook endpoints read and bound the raw body themselves.
type BodyLimit struct {
	Max          int64
	SkipPrefixes []string
}

// Middleware answers 413 up front when Content-Length is too large and
// otherwise wraps the body so oversized reads fail in the decoder.
func (b BodyLimit) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if b.Max <= 0 || r.Body == nil || b.skipped(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}
		if r.ContentLength > b.Max {
			common.JSONError(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return
		}
		r.Body = http.MaxBytesReader(w, r.Body, b.Max)
		next.ServeHTTP(w, r)
	})
}

func (b BodyLimit) skipped(path string) bool {
	for _, p := range b.SkipPrefixes {
		if p != "" && strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
