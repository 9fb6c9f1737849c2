package audit

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"

	"github.com/noah-isme/toko-billing/internal/obs"
)

// maxPeekBytes bounds how much of a request body is inspected for field names.
const maxPeekBytes = 64 << 10

// HTTPRecorder writes an audit entry after the wrapped handler responds.
type HTTPRecorder struct {
	Service   *Service
	OnError   func(error)
	ActorFunc func(*http.Request) Actor
}

// HTTPConfig describes the entry produced for one route.
type HTTPConfig struct {
	Action          string
	ResourceType    string
	ResourceIDParam string
	// BodyFields records the top-level keys of a JSON body. Values are
	// never read into the entry, so secrets stay out of the trail.
	BodyFields   bool
	MetadataFunc func(*http.Request, int) map[string]any
}

func (r HTTPRecorder) Middleware(cfg HTTPConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			if r.Service == nil || !r.Service.Enabled {
				next.ServeHTTP(w, req)
				return
			}
			var fields []string
			if cfg.BodyFields && req.Body != nil {
				fields, req.Body = peekFields(req.Body)
			}

			recorder := obs.NewStatusRecorder(w)
			next.ServeHTTP(recorder, req)
			status := recorder.Status()

			actor := ActorFromContext(req.Context())
			if r.ActorFunc != nil {
				actor = r.ActorFunc(req)
			}
			resourceID := ""
			if cfg.ResourceIDParam != "" {
				resourceID = chi.URLParam(req, cfg.ResourceIDParam)
			}

			meta := map[string]any{}
			if cfg.BodyFields {
				meta["fields"] = fields
				meta["outcome"] = outcomeOf(status)
			}
			if cfg.MetadataFunc != nil {
				for k, v := range cfg.MetadataFunc(req, status) {
					meta[k] = v
				}
			}
			var metadata []byte
			if len(meta) > 0 {
				metadata, _ = json.Marshal(meta)
			}

			if err := r.Service.Record(req.Context(), actor, cfg.Action, cfg.ResourceType, resourceID, req, status, metadata); err != nil && r.OnError != nil {
				r.OnError(err)
			}
		})
	}
}

// peekFields returns the sorted top-level keys of a JSON object body and a
// reader that replays it to the handler.
func peekFields(body io.ReadCloser) ([]string, io.ReadCloser) {
	head, err := io.ReadAll(io.LimitReader(body, maxPeekBytes))
	replay := struct {
		io.Reader
		io.Closer
	}{io.MultiReader(bytes.NewReader(head), body), body}
	if err != nil {
		return nil, replay
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(head, &obj) != nil {
		return []string{}, replay
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, replay
}

func outcomeOf(status int) string {
	switch {
	case status >= http.StatusInternalServerError:
		return "failed"
	case status >= http.StatusBadRequest:
		return "rejected"
	default:
		return "applied"
	}
}
