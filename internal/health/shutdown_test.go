package health_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-billing/internal/health"
)

func TestDrainingOverridesHealthyProbes(t *testing.T) {
	calls := 0
	handler := health.Handler{Probes: []health.Probe{
		{Name: "db", Check: func(context.Context) error { calls++; return nil }},
		{Name: "gateway", Optional: true, Check: func(context.Context) error { return errors.New("circuit open") }},
	}}
	t.Cleanup(func() { health.SetReady(true) })

	health.SetReady(true)
	code, status := ready(t, handler)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "circuit open", status["gateway"])

	health.SetReady(false)
	rr := httptest.NewRecorder()
	handler.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)
	require.JSONEq(t, `{"status":"draining"}`, rr.Body.String())
	require.Equal(t, 1, calls, "probes are skipped while draining")
}
