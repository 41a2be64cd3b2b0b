package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/wardroster/wardroster/internal/config"
	"github.com/wardroster/wardroster/internal/platform/middleware"
)

func TestTenantID(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"general", "general", false},
		{"tenant_north", "north", false},
		{"bad-name", "", true},
		{"", "", true},
		{"tenant_", "", true},
	}
	for _, tc := range cases {
		got, err := tenantID(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("tenantID(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("tenantID(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestRateLimitConfig_DefaultsWhenUnset(t *testing.T) {
	got := rateLimitConfig(&config.Config{})
	if got != middleware.DefaultRateLimitConfig() {
		t.Errorf("expected default rate limit, got %+v", got)
	}
	got = rateLimitConfig(&config.Config{RateLimitRPS: 5, RateLimitBurst: 9})
	if got.RequestsPerSecond != 5 || got.BurstSize != 9 {
		t.Errorf("expected configured rate limit, got %+v", got)
	}
}

func TestAuthMiddleware_Modes(t *testing.T) {
	for _, mode := range []string{"development", "hmac", "external"} {
		cfg := &config.Config{AuthMode: mode, AuthSigningKey: "0123456789abcdef0123456789abcdef", AuthJWKSURL: "http://127.0.0.1:1/jwks"}
		if _, err := authMiddleware(cfg); err != nil {
			t.Errorf("mode %s: unexpected error: %v", mode, err)
		}
	}
	if _, err := authMiddleware(&config.Config{AuthMode: "basic"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestAuthMiddleware_ExternalDiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cfg := &config.Config{AuthMode: "external", AuthIssuer: srv.URL}
	_, err := authMiddleware(cfg)
	if err == nil {
		t.Fatal("expected discovery error")
	}
	if !strings.Contains(err.Error(), "discover JWKS") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthMiddleware_ExternalDiscoversJWKS(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"issuer":"x","jwks_uri":"http://127.0.0.1:1/certs"}`))
	}))
	defer srv.Close()

	if _, err := authMiddleware(&config.Config{AuthMode: "external", AuthIssuer: srv.URL}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hits != 1 {
		t.Errorf("expected one discovery request, got %d", hits)
	}
}

func TestAuthMiddleware_HMACRejectsMissingToken(t *testing.T) {
	cfg := &config.Config{AuthMode: "hmac", AuthSigningKey: "0123456789abcdef0123456789abcdef"}
	mw, err := authMiddleware(cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/floors", nil), httptest.NewRecorder())
	c.SetPath("/api/v1/floors")

	err = mw(func(echo.Context) error { return nil })(c)
	he, ok := err.(*echo.HTTPError)
	if !ok || he.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %v", err)
	}
}

func TestIsExport(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	c.SetPath("/api/v1/calendar/:year/:month/export")
	if !isExport(c) {
		t.Error("expected export route to be exempt")
	}
	c.SetPath("/api/v1/calendar/:year/:month")
	if isExport(c) {
		t.Error("expected month route not to be exempt")
	}
}
