package resilience

import (
	"context"
	"errors"
	"net/http"
)

// Transport is an http.RoundTripper guarded by a Breaker. Requests are never
// retried; a refused request fails with ErrOpenCircuit before any I/O.
type Transport struct {
	Base    http.RoundTripper
	Breaker *Breaker
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if t.Breaker == nil {
		return base.RoundTrip(req)
	}
	ctx := req.Context()
	if !t.Breaker.Allow(ctx) {
		return nil, ErrOpenCircuit
	}
	resp, err := base.RoundTrip(req)
	switch {
	case err != nil && errors.Is(err, context.Canceled):
		// the caller gave up; says nothing about the downstream
		t.Breaker.Release()
	case err != nil:
		t.Breaker.Report(ctx, false)
	case resp.StatusCode >= http.StatusInternalServerError:
		t.Breaker.Report(ctx, false)
	default:
		t.Breaker.Report(ctx, true)
	}
	return resp, err
}
