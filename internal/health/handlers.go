// Package health serves liveness and readiness probes.
package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/toko-billing/internal/common"
)

var draining atomic.Bool

// SetReady flips readiness; the server marks itself not ready while it
// drains on shutdown.
func SetReady(ready bool) {
	draining.Store(!ready)
}

// Probe checks one dependency. Optional probes are reported but never fail
// readiness.
type Probe struct {
	Name     string
	Check    func(ctx context.Context) error
	Timeout  time.Duration
	Optional bool
}

type Handler struct {
	Probes []Probe
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready runs every probe and answers 503 when a required one fails.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if draining.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "draining"})
		return
	}
	status := make(map[string]string, len(h.Probes))
	code := http.StatusOK
	for _, p := range h.Probes {
		if err := run(r.Context(), p); err != nil {
			status[p.Name] = err.Error()
			if !p.Optional {
				code = http.StatusServiceUnavailable
			}
			continue
		}
		status[p.Name] = "ok"
	}
	common.JSON(w, code, status)
}

func run(ctx context.Context, p Probe) error {
	if p.Check == nil {
		return nil
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return p.Check(ctx)
}
