package health_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/noah-isme/toko-billing/internal/health"
)

func ok(context.Context) error { return nil }

func TestLive(t *testing.T) {
	rr := httptest.NewRecorder()
	health.Handler{}.Live(rr, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "ok", rr.Body.String())
}

func ready(t *testing.T, h health.Handler) (int, map[string]string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.Ready(rr, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	var status map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &status))
	return rr.Code, status
}

func TestReadySuccess(t *testing.T) {
	code, status := ready(t, health.Handler{Probes: []health.Probe{{Name: "db", Check: ok}, {Name: "redis", Check: ok}}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, map[string]string{"db": "ok", "redis": "ok"}, status)
}

func TestReadyFailure(t *testing.T) {
	code, status := ready(t, health.Handler{Probes: []health.Probe{
		{Name: "db", Check: func(context.Context) error { return errors.New("db down") }},
		{Name: "redis", Check: ok},
	}})
	require.Equal(t, http.StatusServiceUnavailable, code)
	require.Equal(t, "db down", status["db"])
}

func TestReadyOptionalProbe(t *testing.T) {
	code, status := ready(t, health.Handler{Probes: []health.Probe{
		{Name: "db", Check: ok},
		{Name: "gateway", Optional: true, Check: func(context.Context) error { return errors.New("circuit open") }},
	}})
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "circuit open", status["gateway"])
}

func TestReadyProbeTimeout(t *testing.T) {
	slow := func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}
	code, _ := ready(t, health.Handler{Probes: []health.Probe{{Name: "db", Check: slow, Timeout: 10 * time.Millisecond}}})
	require.Equal(t, http.StatusServiceUnavailable, code)
}
