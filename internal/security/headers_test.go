package security

import (
	"crypto/tls"
	"net/http"
	"net/http/httptest"
	"testing"
)

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

func TestHeadersMiddlewareSetsSecurityHeaders(t *testing.T) {
	h := Headers{Enable: true, EnableHSTS: true, NoStore: true}.Middleware(ok)

	req := httptest.NewRequest(http.MethodPost, "https://api.example/api/v1/checkout/o1", nil)
	req.TLS = &tls.ConnectionState{}
	headers := serve(h, req).Result().Header

	if got := headers.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("expected nosniff header, got %q", got)
	}
	if got := headers.Get("Cache-Control"); got != "no-store" {
		t.Fatalf("expected no-store, got %q", got)
	}
	if got := headers.Get("Strict-Transport-Security"); got != "max-age=31536000; includeSubDomains" {
		t.Fatalf("unexpected hsts header %q", got)
	}
}

func TestHeadersHSTSBehindProxy(t *testing.T) {
	h := Headers{Enable: true, EnableHSTS: true, HSTSMaxAge: 60}.Middleware(ok)

	plain := serve(h, httptest.NewRequest(http.MethodGet, "/health/live", nil)).Result().Header
	if plain.Get("Strict-Transport-Security") != "" {
		t.Fatal("hsts must not be sent over plain http")
	}

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	req.Header.Set("X-Forwarded-Proto", "https")
	if got := serve(h, req).Result().Header.Get("Strict-Transport-Security"); got != "max-age=60; includeSubDomains" {
		t.Fatalf("unexpected hsts header %q", got)
	}
}

func TestHeadersDisabled(t *testing.T) {
	headers := serve(Headers{}.Middleware(ok), httptest.NewRequest(http.MethodGet, "/", nil)).Result().Header
	if headers.Get("X-Frame-Options") != "" {
		t.Fatal("expected no headers when disabled")
	}
}
