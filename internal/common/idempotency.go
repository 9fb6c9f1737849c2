package common

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// Idem provides an Idempotency-Key middleware backed by Redis. Keys are
// scoped to the caller and path. A completed non-5xx response is stored and
// replayed to retries of the same key; a failed (5xx) attempt releases the
// key so the client can retry.
type Idem struct {
	R   *redis.Client
	TTL time.Duration
}

const (
	idemPending = "pending"
	// responses larger than this are not stored; retries get a 409
	idemMaxBody = 64 << 10
)

// ReplayedHeader marks a response served from the idempotency store.
const ReplayedHeader = "Idempotent-Replayed"

type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body"`
}

func idemKey(r *http.Request, header string) string {
	caller, _ := UserID(r.Context())
	if caller == "" {
		caller, _ = MerchantID(r.Context())
	}
	sum := sha256.Sum256([]byte(caller + "|" + r.URL.Path + "|" + header))
	return "idem:" + hex.EncodeToString(sum[:])
}

type idemRecorder struct {
	http.ResponseWriter
	status   int
	body     bytes.Buffer
	overflow bool
}

func (r *idemRecorder) WriteHeader(code int) {
	if r.status == 0 {
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func (r *idemRecorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.status = http.StatusOK
	}
	if !r.overflow {
		if r.body.Len()+len(b) > idemMaxBody {
			r.overflow = true
			r.body.Reset()
		} else {
			r.body.Write(b)
		}
	}
	return r.ResponseWriter.Write(b)
}

// Middleware enforces idempotency semantics for write endpoints.
func (i Idem) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Idempotency-Key")
		if header == "" || i.R == nil {
			next.ServeHTTP(w, r)
			return
		}
		ttl := i.TTL
		if ttl <= 0 {
			ttl = 24 * time.Hour
		}
		key := idemKey(r, header)
		ok, err := i.R.SetNX(r.Context(), key, idemPending, ttl).Result()
		if err != nil {
			JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
			return
		}
		if !ok {
			i.replay(w, r, key)
			return
		}
		rec := &idemRecorder{ResponseWriter: w}
		defer func() {
			ctx := context.WithoutCancel(r.Context())
			switch {
			case rec.status >= http.StatusInternalServerError:
				_ = i.R.Del(ctx, key).Err()
			case rec.status != 0 && !rec.overflow:
				raw, err := json.Marshal(storedResponse{
					Status:      rec.status,
					ContentType: w.Header().Get("Content-Type"),
					Body:        rec.body.Bytes(),
				})
				if err == nil {
					_ = i.R.Set(ctx, key, raw, ttl).Err()
				}
			}
		}()
		next.ServeHTTP(rec, r)
	})
}

func (i Idem) replay(w http.ResponseWriter, r *http.Request, key string) {
	raw, err := i.R.Get(r.Context(), key).Bytes()
	if err != nil && !errors.Is(err, redis.Nil) {
		JSONError(w, http.StatusInternalServerError, "INTERNAL", "idempotency store error", nil)
		return
	}
	var stored storedResponse
	if err != nil || string(raw) == idemPending || json.Unmarshal(raw, &stored) != nil || stored.Status == 0 {
		JSONError(w, http.StatusConflict, "IDEMPOTENT_REPLAY", "request with this key is still in progress", nil)
		return
	}
	if stored.ContentType != "" {
		w.Header().Set("Content-Type", stored.ContentType)
	}
	w.Header().Set(ReplayedHeader, "true")
	w.WriteHeader(stored.Status)
	_, _ = w.Write(stored.Body)
}
