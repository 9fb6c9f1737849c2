package security

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBodyLimitAllowsWithinLimit(t *testing.T) {
	var captured string
	h := BodyLimit{Max: 10}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("unexpected read error: %v", err)
		}
		captured = string(data)
		w.WriteHeader(http.StatusOK)
	}))

	rr := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout", strings.NewReader("hello")))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if captured != "hello" {
		t.Fatalf("expected body to pass through, got %q", captured)
	}
}

func TestBodyLimitRejectsLargeContentLength(t *testing.T) {
	rr := serve(BodyLimit{Max: 4}.Middleware(ok), httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout", strings.NewReader("too large")))
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "PAYLOAD_TOO_LARGE") {
		t.Fatalf("unexpected body %s", rr.Body.String())
	}
}

func TestBodyLimitStreamingBodyFailsOnRead(t *testing.T) {
	var readErr error
	h := BodyLimit{Max: 4}.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/billing/checkout", strings.NewReader("too large"))
	req.ContentLength = -1
	serve(h, req)
	if readErr == nil {
		t.Fatal("expected oversized read to fail")
	}
}

func TestBodyLimitSkipsWebhooks(t *testing.T) {
	h := BodyLimit{Max: 4, SkipPrefixes: []string{"/api/v1/webhooks/"}}.Middleware(ok)
	rr := serve(h, httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/payment/s1", strings.NewReader("a larger payload")))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected webhook path to be skipped, got %d", rr.Code)
	}
}
